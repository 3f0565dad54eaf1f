package store

import "errors"

var (
	// ErrNotFound is returned by Get when the item doesn't exist.
	ErrNotFound = errors.New("dynabatch: item not found")

	// ErrNoKeySchema is returned when a table's key attributes can't be determined.
	ErrNoKeySchema = errors.New("dynabatch: table has no key schema")

	// ErrInvalidKey is returned when key arguments don't match the table's key schema.
	ErrInvalidKey = errors.New("dynabatch: invalid key")
)
