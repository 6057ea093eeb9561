package repositories

import "errors"

var (
	// ErrNotFound is returned when a lookup by key matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a conditional update matched no row
	// because another writer got there first.
	ErrConflict = errors.New("record changed concurrently")
)
