package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAmount = errors.New("amount must be positive")

	ErrAccountNotFound = errors.New("account not found")
	ErrAccountExists   = errors.New("account already exists")

	ErrProfileNotFound = errors.New("profile not found")
	ErrProfileExists   = errors.New("profile already exists")
	ErrUsernameTaken   = errors.New("username already taken")

	ErrSeriesNotFound   = errors.New("series not found")
	ErrEpisodeNotFound  = errors.New("episode not found")
	ErrProgressNotFound = errors.New("reading progress not found")

	ErrProviderUnavailable = errors.New("provider not configured")
)

// InsufficientCreditsError is returned when a paid mode debit exceeds the
// account balance. Carries the requested amount and the balance at the moment
// of rejection so callers can build an actionable message.
type InsufficientCreditsError struct {
	Requested int64
	Balance   int64
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: have %d, need %d", e.Balance, e.Requested)
}

// AsInsufficientCredits unwraps err as InsufficientCreditsError if possible.
func AsInsufficientCredits(err error) (*InsufficientCreditsError, bool) {
	var e *InsufficientCreditsError
	ok := errors.As(err, &e)
	return e, ok
}
