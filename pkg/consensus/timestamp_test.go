package consensus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimestampPolicyValidate(t *testing.T) {
	policy := DefaultTimestampPolicy()
	now := time.Unix(1700000000, 0)
	ms := func(sec int64) uint64 { return uint64(sec) * 1000 }

	t.Run("CurrentTime", func(t *testing.T) {
		assert.NoError(t, policy.Validate(ms(1700000000), now))
	})

	t.Run("ExactlyAtPastBoundary", func(t *testing.T) {
		assert.NoError(t, policy.Validate(ms(1700000000-180), now))
	})

	t.Run("OneSecondTooOld", func(t *testing.T) {
		err := policy.Validate(ms(1700000000-181), now)
		assert.ErrorIs(t, err, ErrTimestampTooOld)
	})

	t.Run("ExactlyAtFutureBoundary", func(t *testing.T) {
		assert.NoError(t, policy.Validate(ms(1700000000+60), now))
	})

	t.Run("OneSecondTooFarAhead", func(t *testing.T) {
		err := policy.Validate(ms(1700000000+61), now)
		assert.ErrorIs(t, err, ErrTimestampTooFuture)
	})

	t.Run("SubSecondRemainderIgnored", func(t *testing.T) {
		// Millisecond remainders truncate to the 180s boundary and pass.
		assert.NoError(t, policy.Validate(ms(1700000000-180)+999, now))
	})

	t.Run("CustomWindow", func(t *testing.T) {
		tight := TimestampPolicy{MaxFutureDrift: time.Second, MaxPastDrift: 2 * time.Second}
		assert.NoError(t, tight.Validate(ms(1700000000-2), now))
		assert.ErrorIs(t, tight.Validate(ms(1700000000-3), now), ErrTimestampTooOld)
		assert.ErrorIs(t, tight.Validate(ms(1700000000+2), now), ErrTimestampTooFuture)
	})
}
