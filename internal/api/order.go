package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/huanvu/retailpos/internal/domain/discount"
	"github.com/huanvu/retailpos/internal/domain/order"
)

type orderItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type manualDiscountRequest struct {
	Kind  string          `json:"kind"`
	Value decimal.Decimal `json:"value"`
}

type createOrderRequest struct {
	Items          []orderItemRequest     `json:"items"`
	CustomerID     string                 `json:"customerId"`
	DiscountID     string                 `json:"discountId"`
	ManualDiscount *manualDiscountRequest `json:"manualDiscount"`
	PaymentMethod  string                 `json:"paymentMethod"`
	SaveForLater   bool                   `json:"saveForLater"`
}

type completeOrderRequest struct {
	PaymentMethod string `json:"paymentMethod"`
}

type cancelOrderRequest struct {
	CancellationReason string `json:"cancellationReason"`
}

type orderLineResponse struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	LineTotal float64 `json:"lineTotal"`
}

type orderResponse struct {
	OrderID            string              `json:"orderId"`
	Items              []orderLineResponse `json:"items"`
	Subtotal           float64             `json:"subtotal"`
	TaxAmount          float64             `json:"taxAmount"`
	DiscountAmount     float64             `json:"discountAmount"`
	Total              float64             `json:"total"`
	DiscountLabel      string              `json:"discountLabel,omitempty"`
	CustomerID         string              `json:"customerId,omitempty"`
	PaymentMethod      string              `json:"paymentMethod"`
	PaymentStatus      string              `json:"paymentStatus"`
	Status             string              `json:"status"`
	CancellationReason string              `json:"cancellationReason,omitempty"`
	CreatedAt          time.Time           `json:"createdAt"`
}

type reopenResponse struct {
	OrderID  string        `json:"orderId"`
	Items    []reopenItem  `json:"items"`
	Subtotal float64       `json:"subtotal"`
	Original orderResponse `json:"original"`
}

type reopenItem struct {
	CartItemID string  `json:"cartItemId"`
	ProductID  string  `json:"productId"`
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unitPrice"`
	LineTotal  float64 `json:"lineTotal"`
}

// CreateOrder prices and persists an order. With saveForLater the order is
// stored as pending and stock stays untouched; otherwise it is completed
// immediately and stock is decremented in the same transaction.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	checkout := order.CheckoutRequest{
		Items:         make([]order.ItemRequest, len(req.Items)),
		DiscountID:    req.DiscountID,
		CustomerID:    req.CustomerID,
		PaymentMethod: req.PaymentMethod,
	}
	for i, item := range req.Items {
		checkout.Items[i] = order.ItemRequest{ProductID: item.ProductID, Quantity: item.Quantity}
	}
	if req.ManualDiscount != nil {
		checkout.Manual = discount.Manual{
			Kind:  discount.Kind(req.ManualDiscount.Kind),
			Value: req.ManualDiscount.Value,
		}
	}

	var (
		o   *order.Order
		err error
	)
	if req.SaveForLater {
		o, err = h.orders.CreatePending(r.Context(), checkout)
	} else {
		o, err = h.orders.CreateAndComplete(r.Context(), checkout)
	}
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(o))
}

// ListOrders returns order history, newest first, filtered by the optional
// status, fromDate, and toDate query parameters.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	f := order.ListFilter{
		Status: order.Status(r.URL.Query().Get("status")),
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	}

	var ok bool
	if f.From, ok = queryDate(w, r, "fromDate"); !ok {
		return
	}
	if f.To, ok = queryDate(w, r, "toDate"); !ok {
		return
	}

	orders, err := h.orders.List(r.Context(), f)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	out := make([]orderResponse, len(orders))
	for i := range orders {
		out[i] = toOrderResponse(&orders[i])
	}
	writeJSON(w, http.StatusOK, out)
}

// GetOrder returns a single order by ID.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// CompleteOrder transitions a pending order to completed, decrementing stock.
func (h *Handler) CompleteOrder(w http.ResponseWriter, r *http.Request) {
	var req completeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.orders.Complete(r.Context(), chi.URLParam(r, "orderId"), req.PaymentMethod)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// CancelOrder transitions a pending or completed order to cancelled. The
// reason is mandatory; stock is never restocked automatically.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	var req cancelOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.orders.Cancel(r.Context(), chi.URLParam(r, "orderId"), req.CancellationReason)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// ReopenOrder rebuilds an editable cart from a pending order without
// mutating the persisted order.
func (h *Handler) ReopenOrder(w http.ResponseWriter, r *http.Request) {
	c, o, err := h.orders.Reopen(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	items := c.Items()
	resp := reopenResponse{
		OrderID:  o.ID,
		Items:    make([]reopenItem, len(items)),
		Subtotal: c.Subtotal().InexactFloat64(),
		Original: toOrderResponse(o),
	}
	for i, item := range items {
		resp.Items[i] = reopenItem{
			CartItemID: item.CartItemID,
			ProductID:  item.ProductID,
			Name:       item.Name,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice.InexactFloat64(),
			LineTotal:  item.LineTotal.InexactFloat64(),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func toOrderResponse(o *order.Order) orderResponse {
	items := make([]orderLineResponse, len(o.Items))
	for i, l := range o.Items {
		items[i] = orderLineResponse{
			ProductID: l.ProductID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice.InexactFloat64(),
			LineTotal: l.LineTotal.InexactFloat64(),
		}
	}
	return orderResponse{
		OrderID:            o.ID,
		Items:              items,
		Subtotal:           o.Subtotal.InexactFloat64(),
		TaxAmount:          o.TaxAmount.InexactFloat64(),
		DiscountAmount:     o.DiscountAmount.InexactFloat64(),
		Total:              o.Total.InexactFloat64(),
		DiscountLabel:      o.DiscountLabel,
		CustomerID:         o.CustomerID,
		PaymentMethod:      o.PaymentMethod,
		PaymentStatus:      string(o.PaymentStatus),
		Status:             string(o.Status),
		CancellationReason: o.CancellationReason,
		CreatedAt:          o.CreatedAt,
	}
}

func queryInt(r *http.Request, key string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return v
}

// queryDate parses an RFC 3339 timestamp or plain date query parameter.
// It writes a 400 response and returns ok=false on malformed input.
func queryDate(w http.ResponseWriter, r *http.Request, key string) (time.Time, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return time.Time{}, true
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	writeError(w, http.StatusBadRequest, "invalid "+key)
	return time.Time{}, false
}
