package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/authzkit/pkg/apierr"
	"github.com/dmitrymomot/authzkit/pkg/authtoken"
	"github.com/dmitrymomot/authzkit/pkg/logger"
	"github.com/dmitrymomot/authzkit/pkg/tenant"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// PermissionSource resolves the permission names an account holds. The
// directory module's storage satisfies it.
type PermissionSource interface {
	PermissionNamesForAccount(ctx context.Context, accountEmail string) ([]string, error)
}

// Service exposes login and registration. The same service instance mounted
// behind the superuser auth prefix marks issued tokens as superuser tokens;
// the routing middleware has already bound the control schema by then.
type Service struct {
	storage   *Storage
	perms     PermissionSource
	tokens    *authtoken.Service
	log       *slog.Logger
	superuser bool
}

// ServiceOption configures optional service behavior.
type ServiceOption func(*Service)

// AsSuperuser marks every token issued by this service instance with the
// superuser flag. Use for the instance mounted behind the /su/auth prefix.
func AsSuperuser() ServiceOption {
	return func(s *Service) { s.superuser = true }
}

// NewService wires the HTTP auth surface.
func NewService(storage *Storage, perms PermissionSource, tokens *authtoken.Service, log *slog.Logger, opts ...ServiceOption) *Service {
	s := &Service{storage: storage, perms: perms, tokens: tokens, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle mounts the auth routes. Both are public by design; the tenant
// routing middleware has already decided which schema they operate on.
func (s *Service) Handle() http.Handler {
	r := chi.NewRouter()

	r.Post("/login", s.login)
	if !s.superuser {
		r.Post("/register", s.register)
	}

	return r
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
}

func (req *credentialsRequest) validate() error {
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return ErrInvalidEmail
	}
	if len(req.Password) < MinPasswordLength {
		return ErrWeakPassword
	}
	return nil
}

type authResponse struct {
	Data  *Account `json:"data"`
	Token string   `json:"token"`
}

func (s *Service) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.Respond(w, apierr.Client("invalid request body", err))
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	account, err := s.storage.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			apierr.Respond(w, apierr.Unauthenticated(ErrInvalidCredentials.Error(), err))
			return
		}
		s.log.ErrorContext(r.Context(), "account lookup failed", logger.Error(err))
		apierr.Respond(w, apierr.Internal("login failed", err))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		apierr.Respond(w, apierr.Unauthenticated(ErrInvalidCredentials.Error(), err))
		return
	}

	s.issue(w, r, account)
}

func (s *Service) register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.Respond(w, apierr.Client("invalid request body", err))
		return
	}
	if err := req.validate(); err != nil {
		apierr.Respond(w, apierr.Client(err.Error(), err))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.log.ErrorContext(r.Context(), "password hashing failed", logger.Error(err))
		apierr.Respond(w, apierr.Internal("registration failed", err))
		return
	}

	now := time.Now().UTC()
	account := &Account{
		ID:           uuid.New(),
		Email:        req.Email,
		FullName:     strings.TrimSpace(req.FullName),
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.storage.Create(r.Context(), account); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			apierr.Respond(w, apierr.Conflict(ErrEmailTaken.Error(), err))
			return
		}
		s.log.ErrorContext(r.Context(), "account creation failed", logger.Error(err))
		apierr.Respond(w, apierr.Internal("registration failed", err))
		return
	}

	s.issue(w, r, account)
}

// issue collects the account's permission names and responds with the
// account plus a signed token bound to the routed tenant.
func (s *Service) issue(w http.ResponseWriter, r *http.Request, account *Account) {
	perms, err := s.perms.PermissionNamesForAccount(r.Context(), account.Email)
	if err != nil {
		s.log.ErrorContext(r.Context(), "permission resolution failed",
			logger.Account(account.Email), logger.Error(err))
		apierr.Respond(w, apierr.Internal("login failed", err))
		return
	}

	claims := authtoken.Claims{
		Subject:     account.Email,
		Permissions: perms,
		Principal: authtoken.Principal{
			AccountID: account.ID,
			Email:     account.Email,
			FullName:  account.FullName,
		},
		Superuser: s.superuser,
	}
	if t, ok := tenant.FromContext(r.Context()); ok {
		claims.TenantID = t.ID
	}

	token, err := s.tokens.Issue(claims)
	if err != nil {
		s.log.ErrorContext(r.Context(), "token issuing failed",
			logger.Account(account.Email), logger.Error(err))
		apierr.Respond(w, apierr.Internal("login failed", err))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(authResponse{Data: account, Token: token})
}
