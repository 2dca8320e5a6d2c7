//go:build integration

package integration

import (
	"fmt"
	"math"
	"net/http"
	"regexp"
	"testing"
)

var uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

func approx(got, want float64) bool {
	return math.Abs(got-want) < 0.001
}

func productStock(t *testing.T, productID string) int {
	t.Helper()

	resp := doGet(t, "/api/products/"+productID)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get product %s: %d", productID, resp.StatusCode)
	}
	return decodeJSON[productResponse](t, resp).StockQuantity
}

func TestCreateOrder_EmptyItems(t *testing.T) {
	resp := doPost(t, "/api/orders", createOrderRequest{Items: []orderItemRequest{}})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCreateOrder_UnknownProduct(t *testing.T) {
	resp := doPost(t, "/api/orders", createOrderRequest{
		Items: []orderItemRequest{{ProductID: "no-such-product", Quantity: 1}},
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestCreateOrder_Completed(t *testing.T) {
	before := productStock(t, "water-still")

	resp := doPost(t, "/api/orders", createOrderRequest{
		Items:         []orderItemRequest{{ProductID: "water-still", Quantity: 2}}, // 1.50 each
		PaymentMethod: "card",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	order := decodeJSON[orderResponse](t, resp)
	if !uuidPattern.MatchString(order.OrderID) {
		t.Errorf("order ID is not a UUID: %q", order.OrderID)
	}
	if order.Status != "completed" {
		t.Errorf("status: got %q, want completed", order.Status)
	}
	if order.PaymentStatus != "paid" {
		t.Errorf("payment status: got %q, want paid", order.PaymentStatus)
	}
	if !approx(order.Subtotal, 3.0) {
		t.Errorf("subtotal: got %v, want 3.0", order.Subtotal)
	}
	if !approx(order.Total, order.Subtotal+order.TaxAmount-order.DiscountAmount) {
		t.Errorf("total %v != subtotal %v + tax %v - discount %v",
			order.Total, order.Subtotal, order.TaxAmount, order.DiscountAmount)
	}

	// Completing the sale decrements stock.
	after := productStock(t, "water-still")
	if after != before-2 {
		t.Errorf("stock: got %d, want %d", after, before-2)
	}
}

func TestCreateOrder_WithRuleDiscount(t *testing.T) {
	resp := doPost(t, "/api/orders", createOrderRequest{
		Items:      []orderItemRequest{{ProductID: "latte-regular", Quantity: 2}}, // 8.40
		DiscountID: "happy-hours",                                                // 15%
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	order := decodeJSON[orderResponse](t, resp)
	if !approx(order.DiscountAmount, 1.26) {
		t.Errorf("discount: got %v, want 1.26", order.DiscountAmount)
	}
	if order.DiscountLabel != "Happy Hours 15%" {
		t.Errorf("discount label: got %q", order.DiscountLabel)
	}
}

func TestCreateOrder_ManualBeatsRule(t *testing.T) {
	// Rule gives 15%; the manual 50% is larger and wins. Never summed.
	resp := doPost(t, "/api/orders", createOrderRequest{
		Items:          []orderItemRequest{{ProductID: "latte-regular", Quantity: 2}},
		DiscountID:     "happy-hours",
		ManualDiscount: &manualDiscountRequest{Kind: "percentage", Value: "50"},
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	order := decodeJSON[orderResponse](t, resp)
	if order.DiscountLabel != "manual discount" {
		t.Errorf("discount label: got %q, want manual discount", order.DiscountLabel)
	}
	if !approx(order.Total, order.Subtotal+order.TaxAmount-order.DiscountAmount) {
		t.Errorf("total invariant broken: %+v", order)
	}
}

func TestCreateOrder_ManualFixedAboveTotal(t *testing.T) {
	resp := doPost(t, "/api/orders", createOrderRequest{
		Items:          []orderItemRequest{{ProductID: "water-still", Quantity: 1}},
		ManualDiscount: &manualDiscountRequest{Kind: "fixed", Value: "999.00"},
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	resp := doPost(t, "/api/orders", createOrderRequest{
		Items: []orderItemRequest{{ProductID: "sandwich-club", Quantity: 100000}},
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}

	body := decodeJSON[errorResponse](t, resp)
	if body.ProductID != "sandwich-club" {
		t.Errorf("productId: got %q", body.ProductID)
	}
	if body.Requested != 100000 {
		t.Errorf("requested: got %d", body.Requested)
	}
	if body.Available <= 0 {
		t.Errorf("available: got %d, want > 0", body.Available)
	}
}

func TestOrderLifecycle_SaveCompleteCancel(t *testing.T) {
	// Save for later: pending, stock untouched.
	before := productStock(t, "croissant-butter")

	resp := doPost(t, "/api/orders", createOrderRequest{
		Items:        []orderItemRequest{{ProductID: "croissant-butter", Quantity: 3}},
		CustomerID:   "table-7",
		SaveForLater: true,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create pending: expected 201, got %d", resp.StatusCode)
	}
	pending := decodeJSON[orderResponse](t, resp)
	resp.Body.Close()

	if pending.Status != "pending" {
		t.Fatalf("status: got %q, want pending", pending.Status)
	}
	if got := productStock(t, "croissant-butter"); got != before {
		t.Errorf("pending order touched stock: %d -> %d", before, got)
	}

	// Reopen returns the lines for editing.
	resp = doGet(t, fmt.Sprintf("/api/orders/%s/reopen", pending.OrderID))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reopen: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Complete: stock decremented exactly once.
	resp = doPut(t, fmt.Sprintf("/api/orders/%s/complete", pending.OrderID),
		completeOrderRequest{PaymentMethod: "cash"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("complete: expected 200, got %d", resp.StatusCode)
	}
	completed := decodeJSON[orderResponse](t, resp)
	resp.Body.Close()

	if completed.Status != "completed" {
		t.Errorf("status: got %q, want completed", completed.Status)
	}
	if got := productStock(t, "croissant-butter"); got != before-3 {
		t.Errorf("stock after complete: got %d, want %d", got, before-3)
	}

	// Retried completion conflicts and must not decrement again.
	resp = doPut(t, fmt.Sprintf("/api/orders/%s/complete", pending.OrderID),
		completeOrderRequest{PaymentMethod: "cash"})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("retry complete: expected 409, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	if got := productStock(t, "croissant-butter"); got != before-3 {
		t.Errorf("stock after retry: got %d, want %d", got, before-3)
	}

	// Cancel the completed order. Stock stays where it is.
	resp = doPut(t, fmt.Sprintf("/api/orders/%s/cancel", pending.OrderID),
		cancelOrderRequest{CancellationReason: "customer returned items"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cancel: expected 200, got %d", resp.StatusCode)
	}
	cancelled := decodeJSON[orderResponse](t, resp)
	resp.Body.Close()

	if cancelled.Status != "cancelled" {
		t.Errorf("status: got %q, want cancelled", cancelled.Status)
	}
	if got := productStock(t, "croissant-butter"); got != before-3 {
		t.Errorf("cancel restocked automatically: got %d, want %d", got, before-3)
	}
}

func TestCancelOrder_RequiresReason(t *testing.T) {
	resp := doPost(t, "/api/orders", createOrderRequest{
		Items:        []orderItemRequest{{ProductID: "water-still", Quantity: 1}},
		SaveForLater: true,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create pending: expected 201, got %d", resp.StatusCode)
	}
	pending := decodeJSON[orderResponse](t, resp)
	resp.Body.Close()

	resp = doPut(t, fmt.Sprintf("/api/orders/%s/cancel", pending.OrderID), cancelOrderRequest{})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestGetOrder_NotFound(t *testing.T) {
	resp := doGet(t, "/api/orders/00000000-0000-0000-0000-000000000000")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestListOrders_FilterByStatus(t *testing.T) {
	resp := doGet(t, "/api/orders?status=completed")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	orders := decodeJSON[[]orderResponse](t, resp)
	for _, o := range orders {
		if o.Status != "completed" {
			t.Errorf("order %s: status %q leaked into completed filter", o.OrderID, o.Status)
		}
	}
}
