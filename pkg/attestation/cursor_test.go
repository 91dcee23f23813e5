package attestation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTailCursorBytesAt(t *testing.T) {
	c := tailCursor{buf: []byte{0x01, 0x02, 0x03, 0x04, 0x05}}

	t.Run("ReadAtTail", func(t *testing.T) {
		b, err := c.bytesAt(0, 2)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x04, 0x05}, b)
	})

	t.Run("ReadWithOffset", func(t *testing.T) {
		b, err := c.bytesAt(2, 3)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x01, 0x02, 0x03}, b)
	})

	t.Run("WholeBuffer", func(t *testing.T) {
		b, err := c.bytesAt(0, 5)
		require.NoError(t, err)
		assert.Equal(t, c.buf, b)
	})

	t.Run("ZeroWidth", func(t *testing.T) {
		b, err := c.bytesAt(1, 0)
		require.NoError(t, err)
		assert.Empty(t, b)
	})

	t.Run("PastFront", func(t *testing.T) {
		_, err := c.bytesAt(3, 3)
		assert.ErrorIs(t, err, ErrOutOfBounds)
	})

	t.Run("NegativeOffset", func(t *testing.T) {
		_, err := c.bytesAt(-1, 1)
		assert.ErrorIs(t, err, ErrOutOfBounds)
	})

	t.Run("NegativeWidth", func(t *testing.T) {
		_, err := c.bytesAt(0, -1)
		assert.ErrorIs(t, err, ErrOutOfBounds)
	})

	t.Run("OffsetBeyondBuffer", func(t *testing.T) {
		_, err := c.bytesAt(6, 0)
		assert.ErrorIs(t, err, ErrOutOfBounds)
	})
}

func TestTailCursorUintAt(t *testing.T) {
	c := tailCursor{buf: []byte{0xff, 0x00, 0x01, 0x02}}

	v, err := c.uintAt(0, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x000102), v)

	v, err = c.uintAt(3, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xff), v)

	_, err = c.uintAt(0, 5)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}
