package server

import (
	"net/http"

	"github.com/DiegoChMs/Warehouse/internal/leasing"
	"github.com/DiegoChMs/Warehouse/pkg/auth"
)

func (s *Server) handleBookLease(w http.ResponseWriter, r *http.Request) {
	var req leasing.BookingRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	lease, err := s.leases.Book(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lease)
}

func (s *Server) handleGetLease(w http.ResponseWriter, r *http.Request) {
	lease, err := s.leases.Get(r.Context(), pathID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lease)
}

// handleListMyLeases lists the leases held by the authenticated caller.
func (s *Server) handleListMyLeases(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized: Missing authentication", http.StatusUnauthorized)
		return
	}

	leases, err := s.leases.ListByUser(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, leases)
}

func (s *Server) handleDeleteLease(w http.ResponseWriter, r *http.Request) {
	if err := s.leases.Delete(r.Context(), pathID(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}
