package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/huanvu/retailpos/internal/domain/inventory"
)

type inboundRequest struct {
	ProductID       string          `json:"productId"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	Reason          string          `json:"reason"`
	SupplierName    string          `json:"supplierName"`
	ReferenceNumber string          `json:"referenceNumber"`
}

type outboundRequest struct {
	ProductID       string `json:"productId"`
	Quantity        int    `json:"quantity"`
	Reason          string `json:"reason"`
	ReferenceNumber string `json:"referenceNumber"`
}

type transactionResponse struct {
	ID              string    `json:"id"`
	ProductID       string    `json:"productId"`
	ProductName     string    `json:"productName,omitempty"`
	Type            string    `json:"type"`
	Quantity        int       `json:"quantity"`
	StockBefore     int       `json:"stockBefore"`
	StockAfter      int       `json:"stockAfter"`
	UnitPrice       float64   `json:"unitPrice"`
	TotalValue      float64   `json:"totalValue"`
	Reason          string    `json:"reason"`
	SupplierName    string    `json:"supplierName,omitempty"`
	ReferenceNumber string    `json:"referenceNumber,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

type transactionsPageResponse struct {
	Data       []transactionResponse `json:"data"`
	TotalCount int                   `json:"totalCount"`
}

// RecordInbound appends an IN movement and increments stock.
func (h *Handler) RecordInbound(w http.ResponseWriter, r *http.Request) {
	var req inboundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := h.ledger.RecordInbound(r.Context(), req.ProductID, req.Quantity,
		req.UnitPrice, req.Reason, req.SupplierName, req.ReferenceNumber)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionResponse(t))
}

// RecordOutbound appends an OUT movement. The decrement is atomic: a
// concurrent request for the last units either wins or gets a stock error.
func (h *Handler) RecordOutbound(w http.ResponseWriter, r *http.Request) {
	var req outboundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := h.ledger.RecordOutbound(r.Context(), req.ProductID, req.Quantity,
		req.Reason, req.ReferenceNumber)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionResponse(t))
}

// ListTransactions returns ledger rows matching the optional fromDate,
// toDate, productId, and type query parameters, newest first.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	f := inventory.Filter{
		ProductID: r.URL.Query().Get("productId"),
		Type:      inventory.Type(r.URL.Query().Get("type")),
		Limit:     queryInt(r, "limit"),
		Offset:    queryInt(r, "offset"),
	}

	var ok bool
	if f.From, ok = queryDate(w, r, "fromDate"); !ok {
		return
	}
	if f.To, ok = queryDate(w, r, "toDate"); !ok {
		return
	}

	page, err := h.ledger.ListTransactions(r.Context(), f)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	resp := transactionsPageResponse{
		Data:       make([]transactionResponse, len(page.Transactions)),
		TotalCount: page.TotalCount,
	}
	for i := range page.Transactions {
		resp.Data[i] = toTransactionResponse(&page.Transactions[i])
	}
	writeJSON(w, http.StatusOK, resp)
}

func toTransactionResponse(t *inventory.Transaction) transactionResponse {
	return transactionResponse{
		ID:              t.ID,
		ProductID:       t.ProductID,
		ProductName:     t.ProductName,
		Type:            string(t.Type),
		Quantity:        t.Quantity,
		StockBefore:     t.StockBefore,
		StockAfter:      t.StockAfter,
		UnitPrice:       t.UnitPrice.InexactFloat64(),
		TotalValue:      t.TotalValue.InexactFloat64(),
		Reason:          t.Reason,
		SupplierName:    t.SupplierName,
		ReferenceNumber: t.ReferenceNumber,
		CreatedAt:       t.CreatedAt,
	}
}
