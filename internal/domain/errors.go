package domain

import "errors"

// Gateway error categories the relay dispatches on. Adapters wrap their
// platform errors with these so the routing code stays platform-free.
var (
	// ErrNotFound: the message is already gone. A benign race, not a failure.
	ErrNotFound = errors.New("message not found")
	// ErrForbidden: the bot lacks permission for the operation.
	ErrForbidden = errors.New("missing permission")
)
