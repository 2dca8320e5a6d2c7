package api

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/huanvu/retailpos/internal/domain/discount"
)

type discountResponse struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Scope string  `json:"scope"`
	Kind  string  `json:"kind"`
	Value float64 `json:"value"`
}

// ListEligibleDiscounts returns the active discount rules whose minimum order
// amount is satisfied by the orderAmount query parameter. Without the
// parameter, every active rule is returned.
func (h *Handler) ListEligibleDiscounts(w http.ResponseWriter, r *http.Request) {
	orderAmount := decimal.Zero
	if raw := r.URL.Query().Get("orderAmount"); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid orderAmount")
			return
		}
		orderAmount = parsed
	}

	rules, err := h.discounts.ListActive(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	out := make([]discountResponse, 0, len(rules))
	for _, rule := range rules {
		if orderAmount.IsPositive() && !discount.Eligible(rule, orderAmount) {
			continue
		}
		out = append(out, discountResponse{
			ID:    rule.ID,
			Name:  rule.Name,
			Scope: string(rule.Scope),
			Kind:  string(rule.Kind),
			Value: rule.Value.InexactFloat64(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}
