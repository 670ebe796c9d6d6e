package server

import (
	"net/http"

	"github.com/DiegoChMs/Warehouse/pkg/models"
)

type serviceRequest struct {
	Name    string  `json:"name"`
	Price   float64 `json:"price"`
	Enabled bool    `json:"enabled"`
}

func (s *Server) handleCreateService(w http.ResponseWriter, r *http.Request) {
	var req serviceRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	service, err := s.catalog.Create(r.Context(), &models.Service{
		Name:    req.Name,
		Price:   req.Price,
		Enabled: req.Enabled,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, service)
}

func (s *Server) handleGetService(w http.ResponseWriter, r *http.Request) {
	service, err := s.catalog.Get(r.Context(), pathID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, service)
}

func (s *Server) handleUpdateService(w http.ResponseWriter, r *http.Request) {
	var req serviceRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	service, err := s.catalog.Update(r.Context(), pathID(r), &models.Service{
		Name:    req.Name,
		Price:   req.Price,
		Enabled: req.Enabled,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, service)
}

func (s *Server) handleDisableService(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.Disable(r.Context(), pathID(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) handleListServices(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	services, err := s.catalog.List(r.Context(), r.URL.Query().Get("search"), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, services)
}
