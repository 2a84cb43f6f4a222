package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Contract errors
	ErrInputContract  = errors.New("input contract violation")
	ErrOutputContract = errors.New("output contract violation")

	// Input contract details
	ErrMissingWindow = fmt.Errorf("%w: missing aggregate window", ErrInputContract)
	ErrMissingMetric = fmt.Errorf("%w: missing aggregate metric", ErrInputContract)
	ErrInvalidMetric = fmt.Errorf("%w: invalid aggregate metric", ErrInputContract)

	// Vocabulary errors
	ErrUnknownSignal     = errors.New("signal not in vocabulary")
	ErrInvalidVocabulary = errors.New("invalid signal vocabulary")

	// Generation errors
	ErrGeneration = errors.New("hypothesis generation failed")
)

// Error constructors with context
func NewMissingWindowError(window string) error {
	return fmt.Errorf("%w: %s", ErrMissingWindow, window)
}

func NewMissingMetricError(scope, metric string) error {
	return fmt.Errorf("%w: %s.%s", ErrMissingMetric, scope, metric)
}

func NewInvalidMetricError(scope, metric string, value float64) error {
	return fmt.Errorf("%w: %s.%s=%v", ErrInvalidMetric, scope, metric, value)
}

func NewGenerationError(generator string, err error) error {
	return fmt.Errorf("%w (%s): %w", ErrGeneration, generator, err)
}

// Error checking helpers
func IsInputContractError(err error) bool {
	return errors.Is(err, ErrInputContract)
}

func IsOutputContractError(err error) bool {
	return errors.Is(err, ErrOutputContract)
}
