package domain

import "errors"

// Sentinel errors used throughout the application.
// Handlers translate these to HTTP status codes via a single mapError function.
var (
	ErrInvalidRequest      = errors.New("invalid request")
	ErrDuplicateSubscriber = errors.New("subscriber already registered for this product type")
	ErrNotFound            = errors.New("subscriber not found")
	ErrDeliveryFailure     = errors.New("delivery failed")
)
