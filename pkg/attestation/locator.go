package attestation

import (
	"bytes"
	"fmt"
)

// Trailer layout, tail-first: packages | count(2) | metadata(N) | N(3) | marker(9).
const (
	MarkerSize            = 9
	MetadataSizeFieldSize = 3
	PackageCountSize      = 2
)

// payloadMarker is the fixed sentinel closing every attestation payload.
// A buffer not ending in these nine bytes carries no payload at all.
var payloadMarker = []byte{0x00, 0x00, 0x02, 0xed, 0x57, 0x01, 0x1e, 0x00, 0x00}

// Marker returns a copy of the trailer marker, for payload producers.
func Marker() []byte {
	return append([]byte(nil), payloadMarker...)
}

// PayloadLocation describes where the package list sits within a buffer.
type PayloadLocation struct {
	// PackagesTailOffset is the distance from the buffer's end to the end of
	// the last-encoded package, i.e. the starting cursor for decoding.
	PackagesTailOffset int
	// PackageCount is the declared number of packages.
	PackageCount int
	// MetadataSize is the declared length of the unsigned metadata region.
	MetadataSize int
}

// LocatePayload verifies the trailer marker and resolves the package region.
// It is a pure function of the buffer: no part of the packages themselves is
// decoded here.
func LocatePayload(buf []byte) (PayloadLocation, error) {
	c := tailCursor{buf: buf}

	marker, err := c.bytesAt(0, MarkerSize)
	if err != nil || !bytes.Equal(marker, payloadMarker) {
		return PayloadLocation{}, ErrNoPayload
	}

	metadataSize, err := c.uintAt(MarkerSize, MetadataSizeFieldSize)
	if err != nil {
		return PayloadLocation{}, fmt.Errorf("%w: reading metadata size: %v", ErrTruncatedPayload, err)
	}

	// Distance from the end of the buffer to the end of the package count.
	countTailOffset := int(metadataSize) + MetadataSizeFieldSize + MarkerSize
	count, err := c.uintAt(countTailOffset, PackageCountSize)
	if err != nil {
		return PayloadLocation{}, fmt.Errorf("%w: metadata size %d exceeds buffer", ErrTruncatedPayload, metadataSize)
	}

	return PayloadLocation{
		PackagesTailOffset: countTailOffset + PackageCountSize,
		PackageCount:       int(count),
		MetadataSize:       int(metadataSize),
	}, nil
}
