package data

import (
	"errors"
	"fmt"
	"math/big"
)

// Wire widths for one data package, counted from the tail of the package:
// data points, then timestamp, value width, point count, and finally the
// signature at the very end.
const (
	SignatureSize      = 65 // r (32) || s (32) || v (1)
	PointCountSize     = 3
	ValueWidthSize     = 4
	TimestampSize      = 6 // milliseconds since epoch, big-endian
	MaxValueSize       = 32
	PackageOverhead    = SignatureSize + PointCountSize + ValueWidthSize + TimestampSize
	MaxTimestampMillis = 1<<(8*TimestampSize) - 1
)

// Error variables for consistent error handling
var (
	ErrNoPoints         = errors.New("data package carries no points")
	ErrValueWidth       = errors.New("invalid value byte width")
	ErrValueTooWide     = errors.New("value does not fit declared byte width")
	ErrNegativeValue    = errors.New("point value cannot be negative")
	ErrTimestampRange   = errors.New("timestamp exceeds 6-byte range")
	ErrBadSignatureSize = errors.New("signature must be 65 bytes")
)

// DataPoint is a single (feed, value) observation inside a package. Value is
// an unsigned integer carried big-endian in the package's declared width.
type DataPoint struct {
	FeedID FeedID
	Value  *big.Int
}

// DataPackage is one signer's complete, individually signed report: a shared
// timestamp and one or more data points, all sharing one value width.
type DataPackage struct {
	Points      []DataPoint
	TimestampMs uint64
	ValueWidth  int
	Signature   [SignatureSize]byte
}

// Validate checks the package fields against the wire format limits.
func (p *DataPackage) Validate() error {
	if len(p.Points) == 0 {
		return ErrNoPoints
	}
	if p.ValueWidth < 1 || p.ValueWidth > MaxValueSize {
		return fmt.Errorf("%w: %d", ErrValueWidth, p.ValueWidth)
	}
	if p.TimestampMs > MaxTimestampMillis {
		return fmt.Errorf("%w: %d", ErrTimestampRange, p.TimestampMs)
	}
	for _, pt := range p.Points {
		if pt.Value == nil || pt.Value.Sign() < 0 {
			return ErrNegativeValue
		}
		if pt.Value.BitLen() > 8*p.ValueWidth {
			return fmt.Errorf("%w: %s needs %d bits, width is %d bytes",
				ErrValueTooWide, pt.FeedID, pt.Value.BitLen(), p.ValueWidth)
		}
	}
	return nil
}

// Size returns the total encoded byte length of the package.
func (p *DataPackage) Size() int {
	return PackageOverhead + len(p.Points)*(FeedIDSize+p.ValueWidth)
}

// SignedBytes encodes the signed region of the package: every field except
// the trailing signature. This is the exact byte string whose hash the
// signature covers.
func (p *DataPackage) SignedBytes() ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	buf := make([]byte, 0, p.Size()-SignatureSize)
	value := make([]byte, p.ValueWidth)
	for _, pt := range p.Points {
		buf = append(buf, pt.FeedID[:]...)
		pt.Value.FillBytes(value)
		buf = append(buf, value...)
	}
	buf = appendUint(buf, p.TimestampMs, TimestampSize)
	buf = appendUint(buf, uint64(p.ValueWidth), ValueWidthSize)
	buf = appendUint(buf, uint64(len(p.Points)), PointCountSize)
	return buf, nil
}

// Encode returns the full wire encoding: the signed region followed by the
// 65-byte signature.
func (p *DataPackage) Encode() ([]byte, error) {
	signed, err := p.SignedBytes()
	if err != nil {
		return nil, err
	}
	return append(signed, p.Signature[:]...), nil
}

// SetSignature installs a 65-byte r||s||v signature on the package.
func (p *DataPackage) SetSignature(sig []byte) error {
	if len(sig) != SignatureSize {
		return fmt.Errorf("%w: got %d", ErrBadSignatureSize, len(sig))
	}
	copy(p.Signature[:], sig)
	return nil
}

// appendUint appends v big-endian in exactly width bytes.
func appendUint(buf []byte, v uint64, width int) []byte {
	for shift := 8 * (width - 1); shift >= 0; shift -= 8 {
		buf = append(buf, byte(v>>shift))
	}
	return buf
}
