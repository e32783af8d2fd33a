package authtoken

import "errors"

var (
	ErrNoToken                 = errors.New("authtoken: no bearer token")
	ErrInvalidToken            = errors.New("authtoken: invalid token")
	ErrExpiredToken            = errors.New("authtoken: token is expired")
	ErrInvalidSignature        = errors.New("authtoken: invalid signature")
	ErrUnexpectedSigningMethod = errors.New("authtoken: unexpected signing method")
	ErrMissingSigningKey       = errors.New("authtoken: missing signing key")
	ErrMissingSubject          = errors.New("authtoken: missing subject")
)
