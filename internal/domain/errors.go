package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidDateRange  = errors.New("checkout must be after checkin")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrConflict          = errors.New("conflicting reservation")
)
