package domain

import "errors"

// Engine error kinds. Callers classify with errors.Is; the HTTP layer maps
// each kind to a 4xx response. Storage failures stay generic and surface as 5xx.
var (
	ErrNotFound             = errors.New("resource not found")
	ErrInvalidOperation     = errors.New("invalid operation")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrNoMatchingImpression = errors.New("no matching impression for session")
	ErrValidation           = errors.New("validation failed")
)
