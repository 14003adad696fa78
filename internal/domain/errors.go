package domain

import "errors"

// Sentinel errors shared by the store and the services built on it.
// Use errors.Is to check: errors.Is(err, domain.ErrSuspended)
var (
	ErrNotFound              = errors.New("srs: not found")
	ErrSuspended             = errors.New("srs: card is suspended")
	ErrInvalidInput          = errors.New("srs: invalid input")
	ErrStorage               = errors.New("srs: storage operation failed")
	ErrTransactionInProgress = errors.New("srs: transaction in progress")
)
