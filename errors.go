package arena

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrUnauthenticated = errors.New("arena: unauthenticated")
	ErrForbidden       = errors.New("arena: forbidden")
	ErrNotFound        = errors.New("arena: not found")
	ErrInvalidInput    = errors.New("arena: invalid input")

	// Credit errors
	ErrAccountNotFound     = errors.New("arena: account not found")
	ErrInsufficientCredits = errors.New("arena: insufficient credits")
	ErrDuplicateReference  = errors.New("arena: duplicate transaction reference")
	ErrInvalidAmount       = errors.New("arena: transaction amount must be positive")
	ErrInvalidKind         = errors.New("arena: invalid transaction kind")

	// Tournament errors
	ErrTournamentNotFound = errors.New("arena: tournament not found")
	ErrTournamentLive     = errors.New("arena: tournament is already live")
	ErrTournamentEnded    = errors.New("arena: tournament has ended")
	ErrTournamentNotLive  = errors.New("arena: tournament is not live")

	// Session errors
	ErrSessionNotFound = errors.New("arena: session not found")
	ErrSessionEnded    = errors.New("arena: session has ended")

	// Collaboration errors
	ErrCollaborationNotFound = errors.New("arena: collaboration not found")
	ErrCollaborationExists   = errors.New("arena: collaboration already exists")

	// Pack errors
	ErrPackNotFound = errors.New("arena: pack not found")
	ErrPackArchived = errors.New("arena: pack is archived")

	// Reconciliation errors
	ErrInvalidEvent = errors.New("arena: invalid payment event")

	// Store errors
	ErrStoreNotReady     = errors.New("arena: store not ready")
	ErrStoreClosed       = errors.New("arena: store is closed")
	ErrTransactionFailed = errors.New("arena: transaction failed")
	ErrMigrationFailed   = errors.New("arena: migration failed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("arena: validation failed for %s: %s", e.Field, e.Message)
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrTournamentNotFound) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrCollaborationNotFound) ||
		errors.Is(err, ErrPackNotFound)
}

// IsInvalidState returns true if the error reports a state-machine violation:
// the request was well-formed but the target cannot accept it right now.
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrTournamentLive) ||
		errors.Is(err, ErrTournamentEnded) ||
		errors.Is(err, ErrTournamentNotLive) ||
		errors.Is(err, ErrSessionEnded) ||
		errors.Is(err, ErrPackArchived) ||
		errors.Is(err, ErrCollaborationExists)
}

// IsRetryable returns true if the error is temporary and the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreNotReady) ||
		errors.Is(err, ErrTransactionFailed)
}
