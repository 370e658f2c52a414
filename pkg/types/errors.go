package types

import "errors"

// Store lifecycle errors.
var (
	ErrStoreClosed    = errors.New("store is closed")
	ErrAlreadyOpen    = errors.New("store is already open")
	ErrDataDirMissing = errors.New("data directory must not be empty")
)

// Entity operation errors. Lookups that used to return magic sentinel
// values (-1, "", "n/a") report ErrNotFound instead.
var (
	ErrNotFound    = errors.New("entity not found")
	ErrInvalidID   = errors.New("invalid entity ID")
	ErrInvalidName = errors.New("invalid name")
	ErrInvalidURI  = errors.New("invalid item URI")
)
