package accounts

import "errors"

var (
	// ErrInvalidCredentials is returned for unknown emails and wrong
	// passwords alike, so login probes cannot tell accounts apart.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmailTaken is returned when registration hits an existing email.
	ErrEmailTaken = errors.New("email is already registered")

	// ErrInvalidEmail is returned when the email fails basic validation.
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrWeakPassword is returned when the password is shorter than the
	// minimum length.
	ErrWeakPassword = errors.New("password is too short")

	// ErrAccountNotFound is returned by storage lookups for unknown emails.
	ErrAccountNotFound = errors.New("account not found")
)
