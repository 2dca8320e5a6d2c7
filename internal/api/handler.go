package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/huanvu/retailpos/internal/domain/catalog"
	"github.com/huanvu/retailpos/internal/domain/discount"
	"github.com/huanvu/retailpos/internal/domain/inventory"
	"github.com/huanvu/retailpos/internal/domain/order"
	"github.com/huanvu/retailpos/internal/domain/stock"
	"github.com/huanvu/retailpos/internal/domain/tax"
	"github.com/huanvu/retailpos/internal/repository"
)

// Handler serves the POS HTTP API, delegating business logic to the order
// service, the inventory ledger, and the read repositories.
type Handler struct {
	products  catalog.Repository
	discounts discount.Repository
	taxes     tax.Repository
	orders    *order.Service
	ledger    inventory.Ledger
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	products catalog.Repository,
	discounts discount.Repository,
	taxes tax.Repository,
	orders *order.Service,
	ledger inventory.Ledger,
) *Handler {
	return &Handler{
		products:  products,
		discounts: discounts,
		taxes:     taxes,
		orders:    orders,
		ledger:    ledger,
	}
}

// errorResponse is the JSON body for every non-2xx response. Requested and
// Available carry the stock context that lets the cashier correct the cart.
type errorResponse struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	ProductID string `json:"productId,omitempty"`
	Requested int    `json:"requested,omitempty"`
	Available int    `json:"available,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Code: status, Message: message})
}

// writeDomainError maps validation failures to 4xx responses with enough
// context to correct and retry. Anything unrecognized is a 500; the cause is
// logged, not echoed.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		insufficientErr *stock.InsufficientStockError
		quantityErr     *order.InvalidQuantityError
		notFoundErr     *order.ProductNotFoundError
		valueErr        *discount.InvalidValueError
		eligibilityErr  *discount.NotEligibleError
	)

	switch {
	case errors.Is(err, order.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrMissingReason):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrNotFound),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, repository.ErrDiscountNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, order.ErrAlreadyCompleted),
		errors.Is(err, order.ErrCancelled),
		errors.Is(err, order.ErrAlreadyCancelled),
		errors.Is(err, order.ErrNotPending):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, stock.ErrOutOfStock),
		errors.Is(err, inventory.ErrInvalidQuantity):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &insufficientErr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Code:      http.StatusUnprocessableEntity,
			Message:   insufficientErr.Error(),
			ProductID: insufficientErr.ProductID,
			Requested: insufficientErr.Requested,
			Available: insufficientErr.Available,
		})
	case errors.As(err, &quantityErr),
		errors.As(err, &notFoundErr),
		errors.As(err, &valueErr),
		errors.As(err, &eligibilityErr):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
