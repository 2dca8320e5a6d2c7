//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
)

func TestInventory_InboundOutbound(t *testing.T) {
	before := productStock(t, "orange-juice")

	// Receive 20 units.
	resp := doPost(t, "/api/inventory/inbound", inboundRequest{
		ProductID:       "orange-juice",
		Quantity:        20,
		UnitPrice:       "2.10",
		Reason:          "purchase",
		SupplierName:    "Fresh Farms",
		ReferenceNumber: "PO-1001",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("inbound: expected 201, got %d", resp.StatusCode)
	}
	in := decodeJSON[transactionResponse](t, resp)
	resp.Body.Close()

	if in.Type != "IN" {
		t.Errorf("type: got %q, want IN", in.Type)
	}
	if in.StockBefore != before || in.StockAfter != before+20 {
		t.Errorf("snapshots: got %d -> %d, want %d -> %d", in.StockBefore, in.StockAfter, before, before+20)
	}
	if !approx(in.TotalValue, 42.0) {
		t.Errorf("total value: got %v, want 42.0", in.TotalValue)
	}

	// Write off 5 units.
	resp = doPost(t, "/api/inventory/outbound", outboundRequest{
		ProductID: "orange-juice",
		Quantity:  5,
		Reason:    "damage",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("outbound: expected 201, got %d", resp.StatusCode)
	}
	out := decodeJSON[transactionResponse](t, resp)
	resp.Body.Close()

	if out.Type != "OUT" {
		t.Errorf("type: got %q, want OUT", out.Type)
	}
	if out.StockBefore != before+20 || out.StockAfter != before+15 {
		t.Errorf("snapshots: got %d -> %d, want %d -> %d", out.StockBefore, out.StockAfter, before+20, before+15)
	}

	if got := productStock(t, "orange-juice"); got != before+15 {
		t.Errorf("stock: got %d, want %d", got, before+15)
	}
}

func TestInventory_OutboundInsufficient(t *testing.T) {
	resp := doPost(t, "/api/inventory/outbound", outboundRequest{
		ProductID: "orange-juice",
		Quantity:  1000000,
		Reason:    "damage",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}

	body := decodeJSON[errorResponse](t, resp)
	if body.Requested != 1000000 {
		t.Errorf("requested: got %d", body.Requested)
	}
}

func TestInventory_SaleWritesLedger(t *testing.T) {
	resp := doPost(t, "/api/orders", createOrderRequest{
		Items: []orderItemRequest{{ProductID: "espresso-single", Quantity: 2}},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create order: expected 201, got %d", resp.StatusCode)
	}
	order := decodeJSON[orderResponse](t, resp)
	resp.Body.Close()

	// The sale appears as an OUT row referencing the order.
	resp = doGet(t, "/api/inventory/transactions?productId=espresso-single&type=OUT")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list transactions: expected 200, got %d", resp.StatusCode)
	}

	page := decodeJSON[transactionsPageResponse](t, resp)
	found := false
	for _, tx := range page.Data {
		if tx.ReferenceNumber == order.OrderID {
			found = true
			if tx.Reason != "sale" {
				t.Errorf("reason: got %q, want sale", tx.Reason)
			}
			if tx.Quantity != 2 {
				t.Errorf("quantity: got %d, want 2", tx.Quantity)
			}
		}
	}
	if !found {
		t.Errorf("no ledger row references order %s", order.OrderID)
	}
}

func TestInventory_ConcurrentOutbound(t *testing.T) {
	// Stock up so the race has a known starting point.
	resp := doPost(t, "/api/inventory/inbound", inboundRequest{
		ProductID: "croissant-butter",
		Quantity:  10,
		UnitPrice: "1.20",
		Reason:    "purchase",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("inbound: expected 201, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	total := productStock(t, "croissant-butter")

	// Two simultaneous write-offs for the full stock. The conditional
	// decrement must let exactly one through and reject the other.
	body, err := json.Marshal(outboundRequest{
		ProductID: "croissant-butter",
		Quantity:  total,
		Reason:    "damage",
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	type result struct {
		status int
		err    error
	}
	results := make(chan result, 2)
	start := make(chan struct{})
	for i := 0; i < 2; i++ {
		go func() {
			req, err := http.NewRequestWithContext(context.Background(),
				http.MethodPost, baseURL+"/api/inventory/outbound", bytes.NewReader(body))
			if err != nil {
				results <- result{err: err}
				return
			}
			req.Header.Set("Content-Type", "application/json")

			<-start
			resp, err := httpClient.Do(req)
			if err != nil {
				results <- result{err: err}
				return
			}
			resp.Body.Close()
			results <- result{status: resp.StatusCode}
		}()
	}
	close(start)

	var created, rejected int
	for i := 0; i < 2; i++ {
		r := <-results
		if r.err != nil {
			t.Fatalf("outbound request: %v", r.err)
		}
		switch r.status {
		case http.StatusCreated:
			created++
		case http.StatusUnprocessableEntity:
			rejected++
		default:
			t.Fatalf("unexpected status %d", r.status)
		}
	}
	if created != 1 || rejected != 1 {
		t.Fatalf("got %d created and %d rejected, want exactly one of each", created, rejected)
	}

	if got := productStock(t, "croissant-butter"); got != 0 {
		t.Errorf("stock after race: got %d, want 0", got)
	}

	// Put the stock back for the tests that follow.
	resp = doPost(t, "/api/inventory/inbound", inboundRequest{
		ProductID: "croissant-butter",
		Quantity:  total,
		UnitPrice: "1.20",
		Reason:    "recount",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("restock: expected 201, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestTaxConfig_RoundTrip(t *testing.T) {
	// Enable VAT, check an order picks it up, then restore the default so
	// other tests keep their tax-free expectations.
	resp := doPut(t, "/api/tax-config", taxConfigPayload{EnableVAT: true, VATRate: "10", VATLabel: "VAT"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("enable VAT: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	defer func() {
		resp := doPut(t, "/api/tax-config", taxConfigPayload{EnableVAT: false, VATRate: "10", VATLabel: "VAT"})
		resp.Body.Close()
	}()

	resp = doPost(t, "/api/orders", createOrderRequest{
		Items: []orderItemRequest{{ProductID: "water-still", Quantity: 2}}, // 3.00
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create order: expected 201, got %d", resp.StatusCode)
	}
	order := decodeJSON[orderResponse](t, resp)
	resp.Body.Close()

	if !approx(order.TaxAmount, 0.30) {
		t.Errorf("tax: got %v, want 0.30", order.TaxAmount)
	}
	if !approx(order.Total, 3.30) {
		t.Errorf("total: got %v, want 3.30", order.Total)
	}

	resp = doGet(t, "/api/tax-config")
	defer resp.Body.Close()
	cfg := decodeJSON[taxConfigPayload](t, resp)
	if !cfg.EnableVAT {
		t.Error("enableVAT: got false, want true")
	}
}
