package server

import (
	"fmt"
	"net/http"

	"github.com/DiegoChMs/Warehouse/internal/accounts"
	"github.com/DiegoChMs/Warehouse/pkg/auth"
)

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req accounts.UserRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := s.accounts.Create(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/user/%d", user.ID))
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	var req accounts.UserRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := s.accounts.Register(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.accounts.Get(r.Context(), pathID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req accounts.UserRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := s.accounts.Update(r.Context(), pathID(r), req); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) handleDisableUser(w http.ResponseWriter, r *http.Request) {
	if err := s.accounts.Disable(r.Context(), pathID(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.accounts.Delete(r.Context(), pathID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	users, err := s.accounts.List(r.Context(), r.URL.Query().Get("search"), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// handleProfile returns the identity carried by the caller's token.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized: Missing authentication", http.StatusUnauthorized)
		return
	}

	user, err := s.accounts.Get(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
