package domain

import "errors"

// Verification failure taxonomy. The HTTP layer maps each sentinel to a fixed
// status code and response body; anything outside the taxonomy is treated as an
// internal fault and never reaches the caller verbatim.
var (
	ErrAPIKeyRequired    = errors.New("API key required")
	ErrInvalidAPIKey     = errors.New("invalid API key")
	ErrPaymentIDRequired = errors.New("payment ID required")
	ErrNotFound          = errors.New("not found")
	ErrStoreTimeout      = errors.New("store timeout")
)
