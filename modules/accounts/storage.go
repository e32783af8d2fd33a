package accounts

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authzkit/pkg/pg"
)

// Account is a login identity within one tenant schema. The password hash
// never serializes into API responses.
type Account struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"date_created"`
	UpdatedAt    time.Time `json:"date_updated"`
}

// Storage persists accounts through the schema-bound connection router.
type Storage struct {
	db *pg.Router
}

// NewStorage creates account storage over the connection router.
func NewStorage(db *pg.Router) *Storage {
	return &Storage{db: db}
}

// Create inserts a new account. A taken email reports ErrEmailTaken.
func (s *Storage) Create(ctx context.Context, a *Account) error {
	conn, err := s.db.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release(ctx)

	_, err = conn.Exec(ctx,
		"INSERT INTO accounts (id, email, full_name, password_hash, date_created, date_updated) VALUES ($1, $2, $3, $4, $5, $6)",
		a.ID, a.Email, a.FullName, a.PasswordHash, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

// GetByEmail retrieves an account by its unique email.
func (s *Storage) GetByEmail(ctx context.Context, email string) (*Account, error) {
	conn, err := s.db.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release(ctx)

	var a Account
	err = conn.QueryRow(ctx,
		"SELECT id, email, full_name, password_hash, date_created, date_updated FROM accounts WHERE email = $1", email).
		Scan(&a.ID, &a.Email, &a.FullName, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &a, nil
}
