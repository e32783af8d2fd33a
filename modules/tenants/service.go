package tenants

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/authzkit/pkg/apierr"
	"github.com/dmitrymomot/authzkit/pkg/authz"
	"github.com/dmitrymomot/authzkit/pkg/logger"
	"github.com/dmitrymomot/authzkit/pkg/tenant"
)

// Permission names guarding the registration API. They are seeded into the
// control schema at bootstrap and only superuser roles hold them.
const (
	PermCreateTenant = "create_tenant"
	PermReadTenant   = "read_tenant"
	PermDeleteTenant = "delete_tenant"
)

// Service exposes the tenant lifecycle over HTTP.
type Service struct {
	provisioner *Provisioner
	storage     *Storage
	log         *slog.Logger
}

// NewService wires the HTTP surface for the tenants module.
func NewService(provisioner *Provisioner, storage *Storage, log *slog.Logger) *Service {
	return &Service{provisioner: provisioner, storage: storage, log: log}
}

// Requirements declares the permission table for the lifecycle routes
// mounted at prefix. Enforced with authz.Guard in front of Handle, so any
// method or path the table does not list fails closed instead of falling
// through to the router's 404.
func Requirements(prefix string) authz.Requirements {
	prefix = strings.TrimSuffix(prefix, "/")
	return authz.Requirements{
		http.MethodPost + " " + prefix:   {PermCreateTenant},
		http.MethodGet + " " + prefix:    {PermReadTenant},
		http.MethodDelete + " " + prefix: {PermDeleteTenant},
	}
}

// Handle mounts the lifecycle routes. Authorization lives in the
// Requirements table, not here: mount the result behind
// authz.Guard(Requirements(prefix)).
func (s *Service) Handle() http.Handler {
	r := chi.NewRouter()

	r.Post("/", s.register)
	r.Get("/", s.list)
	r.Get("/{id}", s.get)
	r.Delete("/{id}", s.remove)

	return r
}

// RegisterRequest is the registration payload: a tenant name plus the
// domains and permissions seeded into the new schema.
type RegisterRequest struct {
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Domains     []SeedDomain `json:"domains,omitempty"`
}

type dataResponse struct {
	Data any `json:"data"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(dataResponse{Data: v})
}

func (s *Service) register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.Respond(w, apierr.Client("invalid request body", err))
		return
	}

	t, err := s.provisioner.Provision(r.Context(), req.Name, req.Description, req.Domains)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyTenantName),
			errors.Is(err, ErrReservedName),
			errors.Is(err, ErrInvalidSeed):
			apierr.Respond(w, apierr.Client(err.Error(), err))
		case errors.Is(err, ErrSchemaCollision):
			apierr.Respond(w, apierr.Conflict(err.Error(), err))
		default:
			s.log.ErrorContext(r.Context(), "tenant provisioning failed", logger.Error(err))
			apierr.Respond(w, apierr.Internal("failed to provision tenant", err))
		}
		return
	}

	respondJSON(w, http.StatusCreated, t)
}

func (s *Service) list(w http.ResponseWriter, r *http.Request) {
	items, err := s.storage.List(r.Context())
	if err != nil {
		s.log.ErrorContext(r.Context(), "tenant listing failed", logger.Error(err))
		apierr.Respond(w, apierr.Internal("failed to list tenants", err))
		return
	}
	if items == nil {
		items = []tenant.Tenant{}
	}
	respondJSON(w, http.StatusOK, items)
}

func (s *Service) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		apierr.Respond(w, apierr.Client("invalid tenant id", err))
		return
	}

	t, err := s.storage.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, tenant.ErrTenantNotFound) {
			apierr.Respond(w, apierr.NotFound("tenant not found", err))
			return
		}
		s.log.ErrorContext(r.Context(), "tenant lookup failed", logger.Error(err))
		apierr.Respond(w, apierr.Internal("failed to load tenant", err))
		return
	}

	respondJSON(w, http.StatusOK, t)
}

func (s *Service) remove(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		apierr.Respond(w, apierr.Client("invalid tenant id", err))
		return
	}

	if err := s.provisioner.Deprovision(r.Context(), id); err != nil {
		if errors.Is(err, tenant.ErrTenantNotFound) {
			apierr.Respond(w, apierr.NotFound("tenant not found", err))
			return
		}
		s.log.ErrorContext(r.Context(), "tenant deprovisioning failed", logger.Error(err))
		apierr.Respond(w, apierr.Internal("failed to deprovision tenant", err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
