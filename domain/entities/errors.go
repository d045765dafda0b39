package entities

import "errors"

// Domain errors returned by services and repositories. Callers match them
// with errors.Is after unwrapping.
var (
	// ErrNotFound indicates the referenced entity does not exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition indicates a market lifecycle transition that is
	// not permitted from the current state
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrMarketNotOpen indicates a stake was attempted on a market that no
	// longer accepts stakes
	ErrMarketNotOpen = errors.New("market not open for betting")

	// ErrInvalidAmount indicates a stake amount outside the configured bounds
	ErrInvalidAmount = errors.New("invalid stake amount")

	// ErrAlreadySettled indicates an attempt to resolve a market twice
	ErrAlreadySettled = errors.New("market already settled")
)
