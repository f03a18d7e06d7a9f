package htlc

import "github.com/fluida-labs/fluida/errors"

// x/htlc reserves 300 ~ 309.
var (
	// ErrUnauthorizedSender is returned when a deposit notification was
	// not forwarded by the configured custodian. Such deposits are
	// dropped without rejecting the message.
	ErrUnauthorizedSender = errors.Register(300, "unauthorized sender")
	ErrMalformedPayload   = errors.Register(301, "malformed payload")
	ErrSwapNotFound       = errors.Register(302, "swap not found")
	ErrAlreadyCompleted   = errors.Register(303, "swap already completed")
	ErrHashMismatch       = errors.Register(304, "preimage does not match hash lock")
	ErrNotYetExpired      = errors.Register(305, "swap not yet expired")
	ErrUnknownOperation   = errors.Register(306, "unknown operation")
)
