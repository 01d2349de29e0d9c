package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrInvalidLimit   = errors.New("invalid list limit")
	ErrNotConfigured  = errors.New("storage is not configured")
	ErrForeignKeysOff = errors.New("sqlite foreign keys are disabled")
)
