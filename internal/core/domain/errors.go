package domain

import "errors"

// Resolution and permission errors.
var (
	// ErrNotFound means no binding exists for a triple, active or historical.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable means a lookup could not be completed; the caller may retry.
	ErrUnavailable = errors.New("lookup unavailable")
	// ErrInvalidRequest flags a malformed permission check. It is a programmer
	// error and never a silent deny.
	ErrInvalidRequest = errors.New("invalid request")
)

var ErrForbidden = errors.New("access forbidden")
var ErrSlugTaken = errors.New("slug already bound to another entity")

// ErrAlreadyPublished means the entity already has a canonical slug in that
// language; Rename moves it.
var ErrAlreadyPublished = errors.New("entity already published in this language")

// Account errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
)
