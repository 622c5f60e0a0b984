package errs

import "errors"

// Common sentinel errors. Handlers match them with errors.Is and map
// them onto HTTP status codes; services wrap them for detail.
var (
	// Missing or malformed input, unknown earning type,
	// non-positive transaction amount. Rejected before any mutation.
	ErrInvalidRequest = errors.New("invalid request")

	// Requested record does not exist.
	ErrNotFound = errors.New("not found")

	// Unique constraint violation, e.g. two concurrent first-earn
	// requests racing to create the same user's balance row.
	// Retryable with a fresh read.
	ErrDataConflict = errors.New("data conflict")

	// A balance write targeted a stale version and lost the race.
	// Retryable with a fresh read.
	ErrVersionConflict = errors.New("balance version conflict")

	// Spend or expire would drive available points negative.
	// The balance is left unchanged.
	ErrInsufficientBalance = errors.New("insufficient available points")

	// Confirm would drive pending points negative.
	ErrInsufficientPending = errors.New("insufficient pending points")

	// Transition attempted out of a terminal transaction state.
	ErrInvalidState = errors.New("invalid transaction state")

	// Point or money quantity is negative.
	ErrInvalidQuantity = errors.New("invalid quantity")

	// Service token is missing, expired or malformed.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Type just for marshalling purpose.
// Should only be used immediately before marshalling.
type JSON struct {
	Error string `json:"error"`
}
