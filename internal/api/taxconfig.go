package api

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/huanvu/retailpos/internal/domain/tax"
)

type taxConfigPayload struct {
	EnableVAT bool            `json:"enableVAT"`
	VATRate   decimal.Decimal `json:"vatRate"`
	VATLabel  string          `json:"vatLabel"`
}

// GetTaxConfig returns the store-wide VAT configuration.
func (h *Handler) GetTaxConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.taxes.Get(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, taxConfigPayload{
		EnableVAT: cfg.EnableVAT,
		VATRate:   cfg.Rate,
		VATLabel:  cfg.Label,
	})
}

// UpdateTaxConfig replaces the store-wide VAT configuration.
func (h *Handler) UpdateTaxConfig(w http.ResponseWriter, r *http.Request) {
	var req taxConfigPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.VATRate.IsNegative() || req.VATRate.GreaterThan(decimal.NewFromInt(100)) {
		writeError(w, http.StatusUnprocessableEntity, "vatRate must be between 0 and 100")
		return
	}
	if req.VATLabel == "" {
		req.VATLabel = "VAT"
	}

	cfg := tax.Config{EnableVAT: req.EnableVAT, Rate: req.VATRate, Label: req.VATLabel}
	if err := h.taxes.Update(r.Context(), cfg); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}
