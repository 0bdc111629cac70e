package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/gearhub/internal/common"
	"github.com/dmitrijs2005/gearhub/internal/server/auth"
	"github.com/dmitrijs2005/gearhub/internal/server/models"
	"github.com/go-chi/chi/v5"
)

type createOrderRequest struct {
	EquipmentID string          `json:"equipment_id"`
	Quantity    int64           `json:"quantity"`
	Details     models.Document `json:"details"`
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subject, _ := auth.SubjectFromContext(ctx)

	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(ctx, w, s.log, err)
		return
	}

	order, err := s.orders.Create(ctx, subject, req.EquipmentID, req.Quantity, req.Details)
	if err != nil {
		writeError(ctx, w, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

// handleListOwnOrders runs behind RequireOwner, so the subject is the
// normalized form of the requested email.
func (s *Server) handleListOwnOrders(w http.ResponseWriter, r *http.Request) {
	subject, _ := auth.SubjectFromContext(r.Context())
	orders, err := s.orders.ListByOwner(r.Context(), subject)
	if err != nil {
		writeError(r.Context(), w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (s *Server) handleListAllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.orders.ListAll(r.Context())
	if err != nil {
		writeError(r.Context(), w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subject, _ := auth.SubjectFromContext(ctx)

	order, err := s.orders.GetByID(ctx, subject, chi.URLParam(r, "id"))
	if err != nil {
		writeError(ctx, w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (s *Server) handleUpdateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subject, _ := auth.SubjectFromContext(ctx)

	var upd models.OrderUpdate
	if err := decodeJSON(r, &upd); err != nil {
		writeError(ctx, w, s.log, err)
		return
	}

	order, err := s.orders.Update(ctx, subject, chi.URLParam(r, "id"), upd)
	if err != nil {
		writeError(ctx, w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (s *Server) handleSettleOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subject, _ := auth.SubjectFromContext(ctx)

	var rec models.PaymentRecord
	if err := decodeJSON(r, &rec); err != nil {
		writeError(ctx, w, s.log, err)
		return
	}

	order, err := s.orders.Settle(ctx, subject, chi.URLParam(r, "id"), rec)
	if err != nil {
		writeError(ctx, w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subject, ok := auth.SubjectFromContext(ctx)
	if !ok {
		writeError(ctx, w, s.log, common.ErrorUnauthenticated)
		return
	}

	if err := s.orders.Cancel(ctx, subject, chi.URLParam(r, "id")); err != nil {
		writeError(ctx, w, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
