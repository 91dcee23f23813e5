// Package attestation locates and decodes price attestation payloads appended
// to the tail of an otherwise opaque byte buffer. All offsets are measured
// backwards from the end of the buffer, mirroring how the payload is written:
// the trailer marker sits in the final bytes and everything else is found by
// walking towards the front.
package attestation

import (
	"errors"
	"fmt"

	"price_attestation/pkg/data"
)

// Error variables for consistent error handling
var (
	ErrOutOfBounds       = errors.New("read outside payload bounds")
	ErrNoPayload         = errors.New("no valid attestation payload found")
	ErrTruncatedPayload  = errors.New("attestation payload is truncated")
	ErrPointCountZero    = errors.New("package declares zero data points")
	ErrValueWidthRange   = errors.New("package value width outside [1,32]")
	ErrEmptyPackageList  = errors.New("payload contains no data packages")
	ErrSignedRegionEmpty = errors.New("package signed region is empty")
)

// tailCursor reads fixed-width fields from an immutable buffer using offsets
// measured from the buffer's end. Every read in this package goes through
// bytesAt so bounds checks live in exactly one place.
type tailCursor struct {
	buf []byte
}

// bytesAt returns the width bytes ending tailOffset bytes before the end of
// the buffer. The returned slice aliases the buffer and must not be written.
func (c tailCursor) bytesAt(tailOffset, width int) ([]byte, error) {
	if tailOffset < 0 || width < 0 {
		return nil, fmt.Errorf("%w: offset %d width %d", ErrOutOfBounds, tailOffset, width)
	}
	end := len(c.buf) - tailOffset
	start := end - width
	if start < 0 || end > len(c.buf) {
		return nil, fmt.Errorf("%w: need bytes [%d,%d) of %d", ErrOutOfBounds, start, end, len(c.buf))
	}
	return c.buf[start:end], nil
}

// uintAt reads a big-endian unsigned integer of the given width ending
// tailOffset bytes before the end of the buffer. Width is at most 8.
func (c tailCursor) uintAt(tailOffset, width int) (uint64, error) {
	raw, err := c.bytesAt(tailOffset, width)
	if err != nil {
		return 0, err
	}
	var v uint64
	for _, b := range raw {
		v = v<<8 | uint64(b)
	}
	return v, nil
}

// feedIDAt reads a fixed-width feed identifier.
func (c tailCursor) feedIDAt(tailOffset int) (data.FeedID, error) {
	var id data.FeedID
	raw, err := c.bytesAt(tailOffset, data.FeedIDSize)
	if err != nil {
		return id, err
	}
	copy(id[:], raw)
	return id, nil
}
