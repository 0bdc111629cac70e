package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/gearhub/internal/server/models"
	"github.com/go-chi/chi/v5"
)

type quantityRequest struct {
	Delta int64 `json:"delta"`
}

type restockRequest struct {
	Amount int64 `json:"amount"`
}

type quantityResponse struct {
	ID                string `json:"id"`
	AvailableQuantity int64  `json:"available_quantity"`
}

func (s *Server) handleListEquipment(w http.ResponseWriter, r *http.Request) {
	items, err := s.inventory.ListAll(r.Context())
	if err != nil {
		writeError(r.Context(), w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleGetEquipment(w http.ResponseWriter, r *http.Request) {
	item, err := s.inventory.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(r.Context(), w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleCreateEquipment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var item models.Equipment
	if err := decodeJSON(r, &item); err != nil {
		writeError(ctx, w, s.log, err)
		return
	}

	created, err := s.inventory.Create(ctx, &item)
	if err != nil {
		writeError(ctx, w, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteEquipment(w http.ResponseWriter, r *http.Request) {
	if err := s.inventory.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(r.Context(), w, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAdjustQuantity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var req quantityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(ctx, w, s.log, err)
		return
	}

	qty, err := s.inventory.AdjustQuantity(ctx, id, req.Delta)
	if err != nil {
		writeError(ctx, w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, quantityResponse{ID: id, AvailableQuantity: qty})
}

func (s *Server) handleImageUpload(w http.ResponseWriter, r *http.Request) {
	task, err := s.inventory.ImageUploadURL(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(r.Context(), w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleRestock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var req restockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(ctx, w, s.log, err)
		return
	}

	qty, err := s.inventory.Restock(ctx, id, req.Amount)
	if err != nil {
		writeError(ctx, w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, quantityResponse{ID: id, AvailableQuantity: qty})
}
