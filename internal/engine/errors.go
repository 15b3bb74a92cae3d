package engine

import "errors"

var (
	// ErrInvalidAmount rejects a submission before any network call.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidPhoneNumber rejects a submission before any network call.
	ErrInvalidPhoneNumber = errors.New("invalid phone number")
	// ErrTipInFlight is returned when a submission arrives while another
	// transaction is still being reconciled for this session.
	ErrTipInFlight = errors.New("a tip is already in flight")
)

// InitiationError reports a failed initiation: a transport fault or a
// non-success response from the payments API. Message is safe to show
// to the payer. No watchers are started after one of these.
type InitiationError struct {
	Message string
}

func (e *InitiationError) Error() string {
	return "tip initiation failed: " + e.Message
}
