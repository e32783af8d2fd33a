package directory

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
)

// Permission names guarding the catalog API, one CRUD set per entity.
// Tenants get them seeded at provisioning; the control schema at bootstrap.
const (
	PermCreateDomain = "create_domain"
	PermReadDomain   = "read_domain"
	PermUpdateDomain = "update_domain"
	PermDeleteDomain = "delete_domain"

	PermCreatePermission = "create_permission"
	PermReadPermission   = "read_permission"
	PermUpdatePermission = "update_permission"
	PermDeletePermission = "delete_permission"

	PermCreateRole = "create_role"
	PermReadRole   = "read_role"
	PermUpdateRole = "update_role"
	PermDeleteRole = "delete_role"

	PermCreateGrant = "create_grant"
	PermReadGrant   = "read_grant"
	PermDeleteGrant = "delete_grant"

	PermCreateAssignment = "create_assignment"
	PermReadAssignment   = "read_assignment"
	PermDeleteAssignment = "delete_assignment"
)

// Service exposes the catalog over HTTP inside the tenant bound by the
// request context.
type Service struct {
	storage *Storage
	log     *slog.Logger
}

// NewService wires the HTTP surface for the directory module.
func NewService(storage *Storage, log *slog.Logger) *Service {
	return &Service{storage: storage, log: log}
}

// Handle mounts the catalog routes, each guarded by its permission.
func (s *Service) Handle() http.Handler {
	r := chi.NewRouter()

	r.Route("/domains", func(r chi.Router) {
		r.With(authz.RequireAny(PermCreateDomain)).Post("/", s.createDomain)
		r.With(authz.RequireAny(PermReadDomain)).Get("/", s.listDomains)
		r.With(authz.RequireAny(PermReadDomain)).Get("/{id}", s.getDomain)
		r.With(authz.RequireAny(PermUpdateDomain)).Put("/{id}", s.updateDomain)
		r.With(authz.RequireAny(PermDeleteDomain)).Delete("/{id}", s.deleteDomain)

		r.With(authz.RequireAny(PermCreatePermission)).Post("/{id}/permissions", s.createPermission)
		r.With(authz.RequireAny(PermReadPermission)).Get("/{id}/permissions", s.listPermissions)
	})

	r.Route("/permissions", func(r chi.Router) {
		r.With(authz.RequireAny(PermReadPermission)).Get("/{id}", s.getPermission)
		r.With(authz.RequireAny(PermUpdatePermission)).Put("/{id}", s.updatePermission)
		r.With(authz.RequireAny(PermDeletePermission)).Delete("/{id}", s.deletePermission)
	})

	r.Route("/roles", func(r chi.Router) {
		r.With(authz.RequireAny(PermCreateRole)).Post("/", s.createRole)
		r.With(authz.RequireAny(PermReadRole)).Get("/", s.listRoles)
		r.With(authz.RequireAny(PermReadRole)).Get("/{id}", s.getRole)
		r.With(authz.RequireAny(PermUpdateRole)).Put("/{id}", s.updateRole)
		r.With(authz.RequireAny(PermDeleteRole)).Delete("/{id}", s.deleteRole)

		r.With(authz.RequireAny(PermCreateGrant)).Post("/{id}/grants", s.createGrant)
		r.With(authz.RequireAny(PermReadGrant)).Get("/{id}/grants", s.listGrants)
	})

	r.With(authz.RequireAny(PermDeleteGrant)).Delete("/grants/{id}", s.deleteGrant)

	r.Route("/assignments", func(r chi.Router) {
		r.With(authz.RequireAny(PermCreateAssignment)).Post("/", s.createAssignment)
		r.With(authz.RequireAny(PermReadAssignment)).Get("/", s.listAssignments)
		r.With(authz.RequireAny(PermDeleteAssignment)).Delete("/{id}", s.deleteAssignment)
	})

	return r
}

type dataResponse struct {
	Data any `json:"data"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(dataResponse{Data: v})
}

// respondErr maps catalog errors onto the API error taxonomy. Anything
// unclassified is logged and reported as internal.
func (s *Service) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrDomainNotFound),
		errors.Is(err, ErrPermissionNotFound),
		errors.Is(err, ErrRoleNotFound):
		apierr.Respond(w, apierr.NotFound(err.Error(), err))
	case errors.Is(err, ErrDuplicateName),
		errors.Is(err, ErrDuplicateGrant),
		errors.Is(err, ErrDuplicateAssignment):
		apierr.Respond(w, apierr.Conflict(err.Error(), err))
	case errors.Is(err, ErrUnknownReference),
		errors.Is(err, ErrUnknownAction),
		errors.Is(err, ErrEmptyName):
		apierr.Respond(w, apierr.Client(err.Error(), err))
	default:
		s.log.ErrorContext(r.Context(), "catalog operation failed", logger.Error(err))
		apierr.Respond(w, apierr.Internal("catalog operation failed", err))
	}
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func pathID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "id"))
}

type nameRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (req *nameRequest) validate() error {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return ErrEmptyName
	}
	return nil
}

// --- domains ---

func (s *Service) createDomain(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decode(r, &req); err != nil {
		apierr.Respond(w, apierr.Client("invalid request body", err))
		return
	}
	if err := req.validate(); err != nil {
		s.respondErr(w, r, err)
		return
	}

	d, err := s.storage.CreateDomain(r.Context(), req.Name, req.Description)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, d)
}

func (s *Service) getDomain(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apierr.Respond(w, apierr.Client("invalid domain id", err))
		return
	}
	d, err := s.storage.GetDomain(r.Context(), id)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, d)
}

func (s *Service) listDomains(w http.ResponseWriter, r *http.Request) {
	items, err := s.storage.ListDomains(r.Context())
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	if items == nil {
		items = []Domain{}
	}
	respondJSON(w, http.StatusOK, items)
}

func (s *Service) updateDomain(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apierr.Respond(w, apierr.Client("invalid domain id", err))
		return
	}
	var req nameRequest
	if err := decode(r, &req); err != nil {
		apierr.Respond(w, apierr.Client("invalid request body", err))
		return
	}
	if err := req.validate(); err != nil {
		s.respondErr(w, r, err)
		return
	}

	d, err := s.storage.UpdateDomain(r.Context(), id, req.Name, req.Description)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, d)
}

func (s *Service) deleteDomain(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apierr.Respond(w, apierr.Client("invalid domain id", err))
		return
	}
	if err := s.storage.DeleteDomain(r.Context(), id); err != nil {
		s.respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- permissions ---

type permissionRequest struct {
	Name        string `json:"name"`
	Action      Action `json:"type"`
	Description string `json:"description,omitempty"`
}

func (req *permissionRequest) validate() error {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return ErrEmptyName
	}
	if !req.Action.Valid() {
		return ErrUnknownAction
	}
	return nil
}

func (s *Service) createPermission(w http.ResponseWriter, r *http.Request) {
	domainID, err := pathID(r)
	if err != nil {
		apierr.Respond(w, apierr.Client("invalid domain id", err))
		return
	}
	var req permissionRequest
	if err := decode(r, &req); err != nil {
		apierr.Respond(w, apierr.Client("invalid request body", err))
		return
	}
	if err := req.validate(); err != nil {
		s.respondErr(w, r, err)
		return
	}

	p, err := s.storage.CreatePermission(r.Context(), domainID, req.Name, req.Action, req.Description)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

func (s *Service) listPermissions(w http.ResponseWriter, r *http.Request) {
	domainID, err := pathID(r)
	if err != nil {
		apierr.Respond(w, apierr.Client("invalid domain id", err))
		return
	}
	items, err := s.storage.ListPermissionsByDomain(r.Context(), domainID)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	if items == nil {
		items = []Permission{}
	}
	respondJSON(w, http.StatusOK, items)
}

func (s *Service) getPermission(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apierr.Respond(w, apierr.Client("invalid permission id", err))
		return
	}
	p, err := s.storage.GetPermission(r.Context(), id)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Service) updatePermission(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apierr.Respond(w, apierr.Client("invalid permission id", err))
		return
	}
	var req permissionRequest
	if err := decode(r, &req); err != nil {
		apierr.Respond(w, apierr.Client("invalid request body", err))
		return
	}
	if err := req.validate(); err != nil {
		s.respondErr(w, r, err)
		return
	}

	p, err := s.storage.UpdatePermission(r.Context(), id, req.Name, req.Action, req.Description)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Service) deletePermission(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apierr.Respond(w, apierr.Client("invalid permission id", err))
		return
	}
	if err := s.storage.DeletePermission(r.Context(), id); err != nil {
		s.respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- roles ---

func (s *Service) createRole(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decode(r, &req); err != nil {
		apierr.Respond(w, apierr.Client("invalid request body", err))
		return
	}
	if err := req.validate(); err != nil {
		s.respondErr(w, r, err)
		return
	}

	role, err := s.storage.CreateRole(r.Context(), req.Name, req.Description)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, role)
}

func (s *Service) getRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apierr.Respond(w, apierr.Client("invalid role id", err))
		return
	}
	role, err := s.storage.GetRole(r.Context(), id)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, role)
}

func (s *Service) listRoles(w http.ResponseWriter, r *http.Request) {
	items, err := s.storage.ListRoles(r.Context())
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	if items == nil {
		items = []Role{}
	}
	respondJSON(w, http.StatusOK, items)
}

func (s *Service) updateRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apierr.Respond(w, apierr.Client("invalid role id", err))
		return
	}
	var req nameRequest
	if err := decode(r, &req); err != nil {
		apierr.Respond(w, apierr.Client("invalid request body", err))
		return
	}
	if err := req.validate(); err != nil {
		s.respondErr(w, r, err)
		return
	}

	role, err := s.storage.UpdateRole(r.Context(), id, req.Name, req.Description)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, role)
}

func (s *Service) deleteRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apierr.Respond(w, apierr.Client("invalid role id", err))
		return
	}
	if err := s.storage.DeleteRole(r.Context(), id); err != nil {
		s.respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- grants ---

type grantRequest struct {
	PermissionID uuid.UUID `json:"permission_id"`
}

func (s *Service) createGrant(w http.ResponseWriter, r *http.Request) {
	roleID, err := pathID(r)
	if err != nil {
		apierr.Respond(w, apierr.Client("invalid role id", err))
		return
	}
	var req grantRequest
	if err := decode(r, &req); err != nil {
		apierr.Respond(w, apierr.Client("invalid request body", err))
		return
	}
	if req.PermissionID == uuid.Nil {
		apierr.Respond(w, apierr.Client("permission_id is required", nil))
		return
	}

	g, err := s.storage.CreateGrant(r.Context(), req.PermissionID, roleID)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, g)
}

func (s *Service) listGrants(w http.ResponseWriter, r *http.Request) {
	roleID, err := pathID(r)
	if err != nil {
		apierr.Respond(w, apierr.Client("invalid role id", err))
		return
	}
	items, err := s.storage.ListGrantsByRole(r.Context(), roleID)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	if items == nil {
		items = []Grant{}
	}
	respondJSON(w, http.StatusOK, items)
}

func (s *Service) deleteGrant(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apierr.Respond(w, apierr.Client("invalid grant id", err))
		return
	}
	if err := s.storage.DeleteGrant(r.Context(), id); err != nil {
		s.respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- assignments ---

type assignmentRequest struct {
	AccountEmail string    `json:"account_email"`
	RoleID       uuid.UUID `json:"role_id"`
}

func (s *Service) createAssignment(w http.ResponseWriter, r *http.Request) {
	var req assignmentRequest
	if err := decode(r, &req); err != nil {
		apierr.Respond(w, apierr.Client("invalid request body", err))
		return
	}
	req.AccountEmail = strings.TrimSpace(strings.ToLower(req.AccountEmail))
	if req.AccountEmail == "" {
		apierr.Respond(w, apierr.Client("account_email is required", nil))
		return
	}
	if req.RoleID == uuid.Nil {
		apierr.Respond(w, apierr.Client("role_id is required", nil))
		return
	}

	a, err := s.storage.CreateAssignment(r.Context(), req.AccountEmail, req.RoleID)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, a)
}

func (s *Service) listAssignments(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(strings.ToLower(r.URL.Query().Get("account_email")))
	if email == "" {
		apierr.Respond(w, apierr.Client("account_email query parameter is required", nil))
		return
	}

	items, err := s.storage.ListAssignmentsByAccount(r.Context(), email)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	if items == nil {
		items = []Assignment{}
	}
	respondJSON(w, http.StatusOK, items)
}

func (s *Service) deleteAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apierr.Respond(w, apierr.Client("invalid assignment id", err))
		return
	}
	if err := s.storage.DeleteAssignment(r.Context(), id); err != nil {
		s.respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
