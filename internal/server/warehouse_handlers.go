package server

import (
	"net/http"

	"github.com/DiegoChMs/Warehouse/internal/warehousing"
)

func (s *Server) handleCreateWarehouse(w http.ResponseWriter, r *http.Request) {
	var req warehousing.WarehouseRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	warehouse, err := s.warehouses.Create(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, warehouse)
}

func (s *Server) handleGetWarehouse(w http.ResponseWriter, r *http.Request) {
	warehouse, err := s.warehouses.Get(r.Context(), pathID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, warehouse)
}

func (s *Server) handleUpdateWarehouse(w http.ResponseWriter, r *http.Request) {
	var req warehousing.WarehouseRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	warehouse, err := s.warehouses.Update(r.Context(), pathID(r), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, warehouse)
}

func (s *Server) handleDisableWarehouse(w http.ResponseWriter, r *http.Request) {
	if err := s.warehouses.Disable(r.Context(), pathID(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) handleListWarehouses(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	warehouses, err := s.warehouses.List(r.Context(), r.URL.Query().Get("search"), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, warehouses)
}

type warehouseServicesRequest struct {
	ServiceIDs []int64 `json:"service_ids"`
}

func (s *Server) handleAttachWarehouseServices(w http.ResponseWriter, r *http.Request) {
	var req warehouseServicesRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := s.warehouses.AttachServices(r.Context(), pathID(r), req.ServiceIDs); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) handleDetachWarehouseServices(w http.ResponseWriter, r *http.Request) {
	var req warehouseServicesRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := s.warehouses.DetachServices(r.Context(), pathID(r), req.ServiceIDs); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}
