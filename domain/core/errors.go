package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound           = errors.New("resource not found")
	ErrExperimentNotFound = fmt.Errorf("%w: experiment", ErrNotFound)
	ErrResultsNotFound    = fmt.Errorf("%w: trial results", ErrNotFound)

	// Design errors - raised once at factorization time, never during trials
	ErrDegenerateDesign    = errors.New("degenerate design")
	ErrTooFewObservations  = fmt.Errorf("%w: fewer than three observations", ErrDegenerateDesign)
	ErrConstantPredictor   = fmt.Errorf("%w: predictor has zero variance", ErrDegenerateDesign)
	ErrInvalidParameters   = errors.New("invalid simulation parameters")
	ErrNonPositiveSigma    = fmt.Errorf("%w: sigma must be positive", ErrInvalidParameters)
	ErrNonFiniteParameter  = fmt.Errorf("%w: parameter is not finite", ErrInvalidParameters)
	ErrEmptyPredictors     = fmt.Errorf("%w: predictor vector is empty", ErrInvalidParameters)
	ErrNegativeTrialCount  = fmt.Errorf("%w: trial count cannot be negative", ErrInvalidParameters)
	ErrInvalidWorkerCount  = fmt.Errorf("%w: worker count must be positive", ErrInvalidParameters)

	// Determinism errors
	ErrNonDeterministic = errors.New("non-deterministic result")
	ErrSeedMismatch     = errors.New("seed mismatch")
	ErrHashMismatch     = errors.New("hash mismatch")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewDegenerateDesignError(n int, reason string) error {
	return fmt.Errorf("%w: n=%d, %s", ErrDegenerateDesign, n, reason)
}

func NewValidationError(field string, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidParameters, field, reason)
}

func NewSeedMismatchError(name string, seed int64) error {
	return fmt.Errorf("%w: source %s with seed %d", ErrSeedMismatch, name, seed)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsDegenerateDesignError(err error) bool {
	return errors.Is(err, ErrDegenerateDesign)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidParameters) ||
		errors.Is(err, ErrDegenerateDesign)
}

func IsDeterminismError(err error) bool {
	return errors.Is(err, ErrNonDeterministic) ||
		errors.Is(err, ErrSeedMismatch) ||
		errors.Is(err, ErrHashMismatch)
}
