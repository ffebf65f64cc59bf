package channel

import "errors"

// Domain errors for channel and catalog operations.
var (
	// Entry validation errors
	ErrEmptyName       = errors.New("channel name cannot be empty")
	ErrEmptyURL        = errors.New("channel url cannot be empty")
	ErrEmptyID         = errors.New("channel id cannot be empty")
	ErrInvalidCategory = errors.New("invalid channel category")

	// Catalog operation errors
	ErrChannelNotFound = errors.New("channel not found")
	ErrDuplicateID     = errors.New("channel id already exists")
)
