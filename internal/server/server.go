// Package server wires the REST surface: routing, JSON encoding, error
// mapping and role-gated access. All business rules live below it.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/juju/errors"
	"github.com/rs/zerolog/log"

	"github.com/DiegoChMs/Warehouse/internal/accounts"
	"github.com/DiegoChMs/Warehouse/internal/catalog"
	"github.com/DiegoChMs/Warehouse/internal/leasing"
	"github.com/DiegoChMs/Warehouse/internal/warehousing"
	"github.com/DiegoChMs/Warehouse/pkg/auth"
)

// Roles known to the route table.
const (
	roleAdmin    = "ADMIN"
	roleEmployee = "EMPLOYEE"
	roleUser     = "USER"
)

// Server holds the handler dependencies.
type Server struct {
	warehouses *warehousing.Service
	leases     *leasing.Engine
	catalog    *catalog.Catalog
	accounts   *accounts.Service
	jwtManager *auth.JWTManager
}

// New creates the REST server over the given services.
func New(
	warehouses *warehousing.Service,
	leases *leasing.Engine,
	cat *catalog.Catalog,
	accts *accounts.Service,
	jwtManager *auth.JWTManager,
) *Server {
	return &Server{
		warehouses: warehouses,
		leases:     leases,
		catalog:    cat,
		accounts:   accts,
		jwtManager: jwtManager,
	}
}

// Router builds the route table. Public routes mirror the original security
// policy: registration, login, health and warehouse reads need no token.
func (s *Server) Router() *mux.Router {
	mw := auth.NewMiddleware(s.jwtManager)

	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/api/user/register", s.handleRegisterUser).Methods(http.MethodPost)
	r.HandleFunc("/api/warehouse", s.handleListWarehouses).Methods(http.MethodGet)
	r.HandleFunc("/api/warehouse/{id:[0-9]+}", s.handleGetWarehouse).Methods(http.MethodGet)

	// Warehouse mutations: admin or employee
	wh := r.PathPrefix("/api/warehouse").Subrouter()
	wh.Use(mw.Authenticate, mw.RequireRoles(roleAdmin, roleEmployee))
	wh.HandleFunc("", s.handleCreateWarehouse).Methods(http.MethodPost)
	wh.HandleFunc("/{id:[0-9]+}", s.handleUpdateWarehouse).Methods(http.MethodPut)
	wh.HandleFunc("/disable/{id:[0-9]+}", s.handleDisableWarehouse).Methods(http.MethodPut)
	wh.HandleFunc("/{id:[0-9]+}/services", s.handleAttachWarehouseServices).Methods(http.MethodPost)
	wh.HandleFunc("/{id:[0-9]+}/services", s.handleDetachWarehouseServices).Methods(http.MethodDelete)

	// Service catalog: admin only
	svc := r.PathPrefix("/api/service").Subrouter()
	svc.Use(mw.Authenticate, mw.RequireRoles(roleAdmin))
	svc.HandleFunc("", s.handleCreateService).Methods(http.MethodPost)
	svc.HandleFunc("", s.handleListServices).Methods(http.MethodGet)
	svc.HandleFunc("/{id:[0-9]+}", s.handleGetService).Methods(http.MethodGet)
	svc.HandleFunc("/{id:[0-9]+}", s.handleUpdateService).Methods(http.MethodPut)
	svc.HandleFunc("/disable/{id:[0-9]+}", s.handleDisableService).Methods(http.MethodPut)

	// Profile is open to every authenticated role
	profile := r.PathPrefix("/api/user/profile").Subrouter()
	profile.Use(mw.Authenticate, mw.RequireRoles(roleAdmin, roleEmployee, roleUser))
	profile.HandleFunc("", s.handleProfile).Methods(http.MethodGet)

	// User administration: admin only
	usr := r.PathPrefix("/api/user").Subrouter()
	usr.Use(mw.Authenticate, mw.RequireRoles(roleAdmin))
	usr.HandleFunc("", s.handleCreateUser).Methods(http.MethodPost)
	usr.HandleFunc("", s.handleListUsers).Methods(http.MethodGet)
	usr.HandleFunc("/{id:[0-9]+}", s.handleGetUser).Methods(http.MethodGet)
	usr.HandleFunc("/{id:[0-9]+}", s.handleUpdateUser).Methods(http.MethodPut)
	usr.HandleFunc("/{id:[0-9]+}", s.handleDeleteUser).Methods(http.MethodDelete)
	usr.HandleFunc("/disable/{id:[0-9]+}", s.handleDisableUser).Methods(http.MethodPut)

	// Leases: any authenticated role
	lease := r.PathPrefix("/api/lease").Subrouter()
	lease.Use(mw.Authenticate, mw.RequireRoles(roleAdmin, roleEmployee, roleUser))
	lease.HandleFunc("", s.handleBookLease).Methods(http.MethodPost)
	lease.HandleFunc("", s.handleListMyLeases).Methods(http.MethodGet)
	lease.HandleFunc("/{id:[0-9]+}", s.handleGetLease).Methods(http.MethodGet)
	lease.HandleFunc("/{id:[0-9]+}", s.handleDeleteLease).Methods(http.MethodDelete)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "healthy"}`))
}

// pathID extracts the numeric {id} route variable.
func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

// pageParams extracts limit/offset from page and size query parameters.
func pageParams(r *http.Request) (limit, offset int) {
	size, err := strconv.Atoi(r.URL.Query().Get("size"))
	if err != nil || size <= 0 {
		size = 20
	}
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 0 {
		page = 0
	}
	return size, page * size
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// writeError maps the error taxonomy onto HTTP statuses: invalid-request to
// 400, empty-result to 204, everything else to an opaque 500.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errors.BadRequest):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, errors.NotFound):
		w.WriteHeader(http.StatusNoContent)
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "error processing request"})
	}
}

func decodeBody(r *http.Request, target interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return errors.BadRequestf("invalid request body")
	}
	return nil
}
