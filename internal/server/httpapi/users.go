package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/gearhub/internal/server/models"
	"github.com/go-chi/chi/v5"
)

type loginResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

type adminResponse struct {
	Admin bool `json:"admin"`
}

func (s *Server) handleUpsertUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	profile := models.Document{}
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &profile); err != nil {
			writeError(ctx, w, s.log, err)
			return
		}
	}

	user, token, err := s.users.UpsertProfile(ctx, chi.URLParam(r, "email"), profile)
	if err != nil {
		writeError(ctx, w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{User: user, Token: token})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.List(r.Context())
	if err != nil {
		writeError(r.Context(), w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.Get(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		writeError(r.Context(), w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var profile models.Document
	if err := decodeJSON(r, &profile); err != nil {
		writeError(ctx, w, s.log, err)
		return
	}

	user, err := s.users.UpdateProfile(ctx, chi.URLParam(r, "email"), profile)
	if err != nil {
		writeError(ctx, w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleIsAdmin(w http.ResponseWriter, r *http.Request) {
	admin, err := s.users.IsAdmin(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		writeError(r.Context(), w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, adminResponse{Admin: admin})
}

func (s *Server) handlePromote(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.PromoteToAdmin(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		writeError(r.Context(), w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
