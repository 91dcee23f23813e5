package data

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Error variables for consistent error handling
var (
	ErrEmptyFeedID    = errors.New("feed identifier cannot be empty")
	ErrFeedIDTooLong  = errors.New("feed identifier exceeds 32 bytes")
	ErrInvalidFeedHex = errors.New("invalid feed identifier hex")
)

// FeedIDSize is the fixed width of a feed identifier on the wire.
const FeedIDSize = 32

// FeedID names a single observed quantity, such as an asset price. It is a
// fixed 32-byte token: short human-readable names are stored left-aligned and
// zero-padded.
type FeedID [FeedIDSize]byte

// NewFeedID builds a FeedID from a human-readable name such as "ETH".
func NewFeedID(name string) (FeedID, error) {
	var id FeedID
	if name == "" {
		return id, ErrEmptyFeedID
	}
	if len(name) > FeedIDSize {
		return id, fmt.Errorf("%w: %q is %d bytes", ErrFeedIDTooLong, name, len(name))
	}
	copy(id[:], name)
	return id, nil
}

// MustFeedID is NewFeedID for static identifiers; it panics on invalid input.
func MustFeedID(name string) FeedID {
	id, err := NewFeedID(name)
	if err != nil {
		panic(err)
	}
	return id
}

// FeedIDFromHex parses a feed identifier from a 64-character hex string,
// with or without a 0x prefix.
func FeedIDFromHex(s string) (FeedID, error) {
	var id FeedID
	s = strings.TrimPrefix(s, "0x")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("%w: %v", ErrInvalidFeedHex, err)
	}
	if len(raw) != FeedIDSize {
		return id, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidFeedHex, len(raw), FeedIDSize)
	}
	copy(id[:], raw)
	return id, nil
}

// String renders the identifier as its readable name when it is printable
// ASCII, falling back to hex otherwise.
func (id FeedID) String() string {
	trimmed := bytes.TrimRight(id[:], "\x00")
	if len(trimmed) == 0 {
		return "0x" + hex.EncodeToString(id[:])
	}
	for _, b := range trimmed {
		if b < 0x20 || b > 0x7e {
			return "0x" + hex.EncodeToString(id[:])
		}
	}
	return string(trimmed)
}

// DedupFeedIDs returns the unique identifiers in first-seen order, plus a
// mapping from each original position to its position in the unique list.
// Callers use the mapping to expand per-unique-feed results back to the
// original request order.
func DedupFeedIDs(ids []FeedID) ([]FeedID, []int) {
	unique := make([]FeedID, 0, len(ids))
	index := make(map[FeedID]int, len(ids))
	mapping := make([]int, len(ids))
	for i, id := range ids {
		pos, seen := index[id]
		if !seen {
			pos = len(unique)
			index[id] = pos
			unique = append(unique, id)
		}
		mapping[i] = pos
	}
	return unique, mapping
}
