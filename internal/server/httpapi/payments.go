package httpapi

import (
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/gearhub/internal/common"
	"github.com/shopspring/decimal"
)

type intentRequest struct {
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
}

func (s *Server) handleCreateIntent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req intentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(ctx, w, s.log, err)
		return
	}
	if req.Price.IsZero() {
		writeError(ctx, w, s.log, fmt.Errorf("%w: price is required", common.ErrorValidation))
		return
	}

	intent, err := s.payments.CreateIntent(ctx, req.Price, req.Currency)
	if err != nil {
		writeError(ctx, w, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, intent)
}
