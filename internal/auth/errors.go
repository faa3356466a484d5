package auth

import "errors"

// Sentinels returned by AccountStore implementations. The service translates
// them into domain errors.
var (
	ErrNotFound = errors.New("auth: account not found")
	ErrConflict = errors.New("auth: username already exists")
)
