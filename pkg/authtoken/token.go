package authtoken

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Token header constants required by RFC 7519.
const (
	headerType      = "JWT"
	headerAlgorithm = "HS256"
)

// DefaultValidity is the token lifetime applied when none is configured.
const DefaultValidity = 12 * time.Hour

type header struct {
	Type      string `json:"typ"`
	Algorithm string `json:"alg"`
}

// Principal is the account snapshot embedded in a token at issue time.
// It is never refreshed: a token describes the account as it was at login.
type Principal struct {
	AccountID uuid.UUID `json:"account_id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name,omitempty"`
}

// Claims is the payload of an issued token: the subject, the caller's
// permission set, the principal snapshot, tenant binding and the temporal
// claims. Tokens are stateless; nothing here is persisted server-side.
type Claims struct {
	Subject     string    `json:"sub"`
	Permissions []string  `json:"permissions,omitempty"`
	Principal   Principal `json:"principal"`
	TenantID    uuid.UUID `json:"tenant_id,omitempty"`
	Superuser   bool      `json:"superuser,omitempty"`
	IssuedAt    int64     `json:"iat"`
	ExpiresAt   int64     `json:"exp"`
}

// HasPermission reports whether the claims carry the named permission.
func (c Claims) HasPermission(name string) bool {
	for _, p := range c.Permissions {
		if p == name {
			return true
		}
	}
	return false
}

// Service issues and verifies signed tokens using HMAC-SHA256. The signing
// key lives in memory only and comes from configuration, never from code.
type Service struct {
	signingKey []byte
	validity   time.Duration
	now        func() time.Time
}

// Option configures the token service.
type Option func(*Service)

// WithValidity overrides the default 12h token lifetime.
func WithValidity(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.validity = d
		}
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a token service with the provided signing key.
// The key should be at least 32 bytes for adequate HMAC-SHA256 security.
func New(signingKey []byte, opts ...Option) (*Service, error) {
	if len(signingKey) == 0 {
		return nil, ErrMissingSigningKey
	}

	s := &Service{
		signingKey: signingKey,
		validity:   DefaultValidity,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue signs claims for the given subject. IssuedAt and ExpiresAt are
// always set by the service; callers cannot extend a token's lifetime.
func (s *Service) Issue(claims Claims) (string, error) {
	if claims.Subject == "" {
		return "", ErrMissingSubject
	}

	now := s.now()
	claims.IssuedAt = now.Unix()
	claims.ExpiresAt = now.Add(s.validity).Unix()

	headerJSON, err := json.Marshal(header{Type: headerType, Algorithm: headerAlgorithm})
	if err != nil {
		return "", fmt.Errorf("failed to marshal header: %w", err)
	}
	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("failed to marshal claims: %w", err)
	}

	payload := base64URLEncode(headerJSON) + "." + base64URLEncode(claimsJSON)
	return payload + "." + s.sign(payload), nil
}

// Verify checks the signature, algorithm and expiry of a raw token and
// returns its claims. Verification is pure: no network, no clock side
// effects beyond reading the current time.
func (s *Service) Verify(raw string) (Claims, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return Claims{}, ErrInvalidToken
	}

	// Constant-time comparison prevents timing attacks on the signature.
	payload := parts[0] + "." + parts[1]
	if subtle.ConstantTimeCompare([]byte(parts[2]), []byte(s.sign(payload))) != 1 {
		return Claims{}, ErrInvalidSignature
	}

	headerJSON, err := base64URLDecode(parts[0])
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	var hdr header
	if err := json.Unmarshal(headerJSON, &hdr); err != nil {
		return Claims{}, ErrInvalidToken
	}
	// Pin the algorithm to prevent confusion attacks.
	if hdr.Algorithm != headerAlgorithm {
		return Claims{}, ErrUnexpectedSigningMethod
	}

	claimsJSON, err := base64URLDecode(parts[1])
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	var claims Claims
	if err := json.Unmarshal(claimsJSON, &claims); err != nil {
		return Claims{}, ErrInvalidToken
	}

	if claims.ExpiresAt <= s.now().Unix() {
		return Claims{}, ErrExpiredToken
	}
	return claims, nil
}

func (s *Service) sign(payload string) string {
	h := hmac.New(sha256.New, s.signingKey)
	h.Write([]byte(payload))
	return base64URLEncode(h.Sum(nil))
}

// FromRequest extracts the bearer token from the Authorization header.
// Returns ErrNoToken when the header is absent so callers can distinguish
// unauthenticated requests from malformed ones.
func FromRequest(r *http.Request) (string, error) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", ErrNoToken
	}

	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", ErrInvalidToken
	}
	return parts[1], nil
}

// base64URLEncode encodes without padding as required by RFC 7515.
func base64URLEncode(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

func base64URLDecode(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(s)
}
