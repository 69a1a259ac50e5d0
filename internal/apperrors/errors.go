package apperrors

import "errors"

// Domain errors for the pool marketplace.
// Precondition failures are expected control flow and map to 4xx responses;
// the remaining values describe data or infrastructure problems.
var (
	// Precondition failures on join/checkout
	ErrAlreadyJoined = errors.New("user has already joined this pool")
	ErrPoolFull      = errors.New("pool is full")
	ErrPoolExpired   = errors.New("pool has expired")
	ErrPoolClosed    = errors.New("pool is closed")
	ErrNotReady      = errors.New("pool has not reached the minimum group size")
	ErrNoMembership  = errors.New("no pending membership for this user")

	// Data errors
	ErrInvalidData = errors.New("invalid data")
	ErrNotFound    = errors.New("record not found")

	// Infrastructure errors
	ErrContention             = errors.New("concurrent update conflict, retry the action")
	ErrDependencyUnavailable  = errors.New("external dependency unavailable")
	ErrInvalidSignature       = errors.New("invalid notification signature")
	ErrIncompleteNotification = errors.New("notification is missing required metadata")
)
