package attestation

import (
	"fmt"
	"math/big"

	"price_attestation/pkg/crypto"
	"price_attestation/pkg/data"
)

// DecodedPackage is one package decoded from a payload, along with the
// bookkeeping the verification pipeline needs: the package's total encoded
// size (to advance to the next package) and the keccak-256 hash of its
// signed region (to recover the signer).
type DecodedPackage struct {
	data.DataPackage
	Size        int
	MessageHash [32]byte
}

// DecodePackageAt decodes the package whose encoding ends tailOffset bytes
// before the end of the buffer. Decoding is pure: signature and timestamp
// checks belong to the caller. Every field read is bounds-checked, so a
// corrupt point count or value width fails cleanly instead of reading
// garbage.
func DecodePackageAt(buf []byte, tailOffset int) (*DecodedPackage, error) {
	c := tailCursor{buf: buf}

	sig, err := c.bytesAt(tailOffset, data.SignatureSize)
	if err != nil {
		return nil, err
	}
	pointCount, err := c.uintAt(tailOffset+data.SignatureSize, data.PointCountSize)
	if err != nil {
		return nil, err
	}
	if pointCount == 0 {
		return nil, ErrPointCountZero
	}
	valueWidth, err := c.uintAt(tailOffset+data.SignatureSize+data.PointCountSize, data.ValueWidthSize)
	if err != nil {
		return nil, err
	}
	if valueWidth < 1 || valueWidth > data.MaxValueSize {
		return nil, fmt.Errorf("%w: %d", ErrValueWidthRange, valueWidth)
	}
	timestamp, err := c.uintAt(tailOffset+data.SignatureSize+data.PointCountSize+data.ValueWidthSize, data.TimestampSize)
	if err != nil {
		return nil, err
	}

	entrySize := data.FeedIDSize + int(valueWidth)
	totalSize := data.PackageOverhead + int(pointCount)*entrySize

	// Signed region: the whole package minus the trailing signature. Reading
	// it up front also proves the buffer is long enough for every point.
	signed, err := c.bytesAt(tailOffset+data.SignatureSize, totalSize-data.SignatureSize)
	if err != nil {
		return nil, err
	}
	if len(signed) == 0 {
		return nil, ErrSignedRegionEmpty
	}

	pkg := &DecodedPackage{
		DataPackage: data.DataPackage{
			Points:      make([]data.DataPoint, pointCount),
			TimestampMs: timestamp,
			ValueWidth:  int(valueWidth),
		},
		Size: totalSize,
	}
	copy(pkg.Signature[:], sig)
	copy(pkg.MessageHash[:], crypto.Keccak256(signed))

	// Points were encoded front-to-back, so the last point ends right where
	// the fixed trailer fields begin.
	for i := 0; i < int(pointCount); i++ {
		entryTail := tailOffset + data.PackageOverhead + (int(pointCount)-1-i)*entrySize
		id, err := c.feedIDAt(entryTail + int(valueWidth))
		if err != nil {
			return nil, err
		}
		value, err := c.bytesAt(entryTail, int(valueWidth))
		if err != nil {
			return nil, err
		}
		pkg.Points[i] = data.DataPoint{
			FeedID: id,
			Value:  new(big.Int).SetBytes(value),
		}
	}
	return pkg, nil
}
