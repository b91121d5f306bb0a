package auction

import "errors"

// Every failure of the engine wraps exactly one of these sentinels, so
// the transport layer can map kinds with errors.Is without parsing text.
var (
	// ErrNotFound - unknown auction id. Fatal to the call.
	ErrNotFound = errors.New("auction not found")
	// ErrInvalidState - the auction is not accepting bids right now.
	ErrInvalidState = errors.New("auction not active")
	// ErrForbidden - the caller may not perform this action (seller self-bid).
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidBid - amount/increment/auto-bid constraint violated.
	ErrInvalidBid = errors.New("invalid bid")
	// ErrConflict - lost the race to a concurrent bid. The caller should
	// re-read the auction and may resubmit once against the new minimum.
	ErrConflict = errors.New("concurrent bid conflict")
)
