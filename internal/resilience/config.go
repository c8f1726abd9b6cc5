package resilience

import (
	"time"

	apperrors "github.com/GriffinCanCode/screentutor/internal/errors"
)

// Circuit breaker configuration constants
const (
	DefaultThreshold         = 5
	DefaultResetTimeout      = 30 * time.Second
	DefaultHalfOpenSuccesses = 1
)

// Config holds circuit breaker settings.
type Config struct {
	Threshold         int              // failures before opening
	ResetTimeout      time.Duration    // wait before half-open attempt
	HalfOpenSuccesses int              // successes needed to close
	IsFailure         func(error) bool // which errors count against the provider
}

// DefaultConfig returns production-ready defaults.
func DefaultConfig() Config {
	return Config{
		Threshold:         DefaultThreshold,
		ResetTimeout:      DefaultResetTimeout,
		HalfOpenSuccesses: DefaultHalfOpenSuccesses,
		IsFailure:         IsProviderFault,
	}
}

// IsProviderFault reports whether err says something about provider health.
// Empty input, bad arguments and caller cancellation do not.
func IsProviderFault(err error) bool {
	switch apperrors.KindOf(err) {
	case apperrors.EmptyInput, apperrors.InvalidArgument, apperrors.Cancelled:
		return false
	default:
		return err != nil
	}
}

func (c Config) withDefaults() Config {
	if c.Threshold <= 0 {
		c.Threshold = DefaultThreshold
	}
	if c.ResetTimeout <= 0 {
		c.ResetTimeout = DefaultResetTimeout
	}
	if c.HalfOpenSuccesses <= 0 {
		c.HalfOpenSuccesses = DefaultHalfOpenSuccesses
	}
	if c.IsFailure == nil {
		c.IsFailure = IsProviderFault
	}
	return c
}
