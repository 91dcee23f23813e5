package consensus

import (
	"errors"
	"fmt"
	"time"
)

// Default freshness window for package timestamps.
const (
	DefaultMaxFutureDrift = time.Minute
	DefaultMaxPastDrift   = 3 * time.Minute
)

// Error variables for consistent error handling
var (
	ErrTimestampTooFuture = errors.New("package timestamp too far in the future")
	ErrTimestampTooOld    = errors.New("package timestamp too old")
)

// TimestampPolicy decides whether a package timestamp is fresh enough to
// trust. The zero value is unusable; use DefaultTimestampPolicy or set both
// drifts explicitly.
type TimestampPolicy struct {
	// MaxFutureDrift is how far ahead of the local clock a timestamp may be.
	MaxFutureDrift time.Duration
	// MaxPastDrift is how far behind the local clock a timestamp may be.
	MaxPastDrift time.Duration
}

// DefaultTimestampPolicy allows 60 seconds of future drift and 180 seconds
// of staleness.
func DefaultTimestampPolicy() TimestampPolicy {
	return TimestampPolicy{
		MaxFutureDrift: DefaultMaxFutureDrift,
		MaxPastDrift:   DefaultMaxPastDrift,
	}
}

// Validate accepts a millisecond timestamp within the drift window around
// now. Comparison happens at second granularity and both boundaries are
// inclusive: a timestamp exactly at the edge of the window passes.
func (p TimestampPolicy) Validate(timestampMs uint64, now time.Time) error {
	tsSec := int64(timestampMs / 1000)
	nowSec := now.Unix()
	if tsSec > nowSec+int64(p.MaxFutureDrift/time.Second) {
		return fmt.Errorf("%w: timestamp %ds, now %ds, allowed drift %s",
			ErrTimestampTooFuture, tsSec, nowSec, p.MaxFutureDrift)
	}
	if tsSec < nowSec-int64(p.MaxPastDrift/time.Second) {
		return fmt.Errorf("%w: timestamp %ds, now %ds, allowed age %s",
			ErrTimestampTooOld, tsSec, nowSec, p.MaxPastDrift)
	}
	return nil
}
