package services

import "errors"

// Ledger operations return typed errors instead of driving control flow
// through exceptions; callers switch on these to pick a response.
var (
	ErrValidation             = errors.New("invalid request")
	ErrNotFound               = errors.New("record not found")
	ErrDuplicateReference     = errors.New("payment reference already exists")
	ErrUnknownReference       = errors.New("unknown payment reference")
	ErrAmountMismatch         = errors.New("reported amount does not match initialized amount")
	ErrGatewayUnavailable     = errors.New("payment gateway unavailable")
	ErrGatewayTimeout         = errors.New("payment gateway timed out")
	ErrOverlappingPeriod      = errors.New("payout period overlaps an existing payout")
	ErrNotEligible            = errors.New("payout not eligible for disbursement")
	ErrRequiresManualApproval = errors.New("payout exceeds auto-process ceiling")
	ErrMaxAttemptsExceeded    = errors.New("verification attempt limit reached")
)
