package filterform

import "errors"

var (
	// ErrFilterExists is returned when adding a row for an exclusive property
	// that already has one in the clause. It is the one error meant for users.
	ErrFilterExists = errors.New("a filter already exists for that property")

	ErrRowNotFound     = errors.New("filter row not found")
	ErrUnknownClause   = errors.New("unknown clause")
	ErrUnknownProperty = errors.New("unknown property")
	ErrInvalidMode     = errors.New("invalid mode")
)
