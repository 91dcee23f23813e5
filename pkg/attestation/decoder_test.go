package attestation

import (
	"math/big"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"price_attestation/pkg/crypto"
	"price_attestation/pkg/data"
)

func decoderTestKey(t *testing.T, seed byte) *secp256k1.PrivateKey {
	t.Helper()
	raw := make([]byte, 32)
	raw[31] = seed
	return secp256k1.PrivKeyFromBytes(raw)
}

func TestDecodePackageRoundTrip(t *testing.T) {
	pkg := &data.DataPackage{
		Points: []data.DataPoint{
			{FeedID: data.MustFeedID("ETH"), Value: big.NewInt(200012345678)},
			{FeedID: data.MustFeedID("BTC"), Value: big.NewInt(4200098765432)},
			{FeedID: data.MustFeedID("AVAX"), Value: big.NewInt(3101)},
		},
		TimestampMs: 1700000000123,
		ValueWidth:  16,
	}
	require.NoError(t, SignPackage(pkg, decoderTestKey(t, 7)))

	payload, err := BuildPayload([]*data.DataPackage{pkg}, []byte("meta"))
	require.NoError(t, err)
	loc, err := LocatePayload(payload)
	require.NoError(t, err)

	decoded, err := DecodePackageAt(payload, loc.PackagesTailOffset)
	require.NoError(t, err)

	assert.Equal(t, pkg.TimestampMs, decoded.TimestampMs)
	assert.Equal(t, pkg.ValueWidth, decoded.ValueWidth)
	assert.Equal(t, pkg.Signature, decoded.Signature)
	require.Len(t, decoded.Points, 3)
	for i, pt := range pkg.Points {
		assert.Equal(t, pt.FeedID, decoded.Points[i].FeedID, "point %d feed", i)
		assert.Zero(t, pt.Value.Cmp(decoded.Points[i].Value), "point %d value", i)
	}
	assert.Equal(t, pkg.Size(), decoded.Size)

	// Re-encoding the decoded fields reproduces the original bytes exactly.
	reencoded, err := decoded.DataPackage.Encode()
	require.NoError(t, err)
	original, err := pkg.Encode()
	require.NoError(t, err)
	assert.Equal(t, original, reencoded)

	// The decoder's message hash matches the hash of the signed region.
	signed, err := pkg.SignedBytes()
	require.NoError(t, err)
	assert.Equal(t, crypto.Keccak256(signed), decoded.MessageHash[:])
}

func TestDecodeMultiplePackages(t *testing.T) {
	first := &data.DataPackage{
		Points:      []data.DataPoint{{FeedID: data.MustFeedID("ETH"), Value: big.NewInt(100)}},
		TimestampMs: 1700000000000,
		ValueWidth:  4,
	}
	second := &data.DataPackage{
		Points: []data.DataPoint{
			{FeedID: data.MustFeedID("ETH"), Value: big.NewInt(102)},
			{FeedID: data.MustFeedID("BTC"), Value: big.NewInt(999)},
		},
		TimestampMs: 1700000000000,
		ValueWidth:  32,
	}
	require.NoError(t, SignPackage(first, decoderTestKey(t, 1)))
	require.NoError(t, SignPackage(second, decoderTestKey(t, 2)))

	payload, err := BuildPayload([]*data.DataPackage{first, second}, nil)
	require.NoError(t, err)
	loc, err := LocatePayload(payload)
	require.NoError(t, err)
	require.Equal(t, 2, loc.PackageCount)

	// Decoding walks from the tail towards the front, so the second-encoded
	// package comes out first.
	tail := loc.PackagesTailOffset
	got2, err := DecodePackageAt(payload, tail)
	require.NoError(t, err)
	assert.Len(t, got2.Points, 2)
	assert.Equal(t, 32, got2.ValueWidth)

	got1, err := DecodePackageAt(payload, tail+got2.Size)
	require.NoError(t, err)
	assert.Len(t, got1.Points, 1)
	assert.Zero(t, got1.Points[0].Value.Cmp(big.NewInt(100)))
}

func TestDecodePackageRejectsCorruptFields(t *testing.T) {
	pkg := singlePointPackage("ETH", 2000, 1700000000000)
	require.NoError(t, SignPackage(pkg, decoderTestKey(t, 3)))
	payload, err := BuildPayload([]*data.DataPackage{pkg}, nil)
	require.NoError(t, err)
	loc, err := LocatePayload(payload)
	require.NoError(t, err)
	tail := loc.PackagesTailOffset

	corrupt := func(mutate func(buf []byte)) []byte {
		buf := append([]byte(nil), payload...)
		mutate(buf)
		return buf
	}
	// End offset (from the buffer tail) of the point-count field.
	countEnd := len(payload) - tail - data.SignatureSize

	t.Run("ZeroPointCount", func(t *testing.T) {
		buf := corrupt(func(b []byte) {
			copy(b[countEnd-data.PointCountSize:countEnd], []byte{0, 0, 0})
		})
		_, err := DecodePackageAt(buf, tail)
		assert.ErrorIs(t, err, ErrPointCountZero)
	})

	t.Run("HugePointCount", func(t *testing.T) {
		buf := corrupt(func(b []byte) {
			copy(b[countEnd-data.PointCountSize:countEnd], []byte{0xff, 0xff, 0xff})
		})
		_, err := DecodePackageAt(buf, tail)
		assert.ErrorIs(t, err, ErrOutOfBounds)
	})

	t.Run("ValueWidthTooLarge", func(t *testing.T) {
		widthEnd := countEnd - data.PointCountSize
		buf := corrupt(func(b []byte) {
			copy(b[widthEnd-data.ValueWidthSize:widthEnd], []byte{0, 0, 0, 33})
		})
		_, err := DecodePackageAt(buf, tail)
		assert.ErrorIs(t, err, ErrValueWidthRange)
	})

	t.Run("TruncatedBuffer", func(t *testing.T) {
		// Drop bytes from the front so the single package no longer fits.
		_, err := DecodePackageAt(payload[10:], tail)
		assert.ErrorIs(t, err, ErrOutOfBounds)
	})

	t.Run("OffsetPastBuffer", func(t *testing.T) {
		_, err := DecodePackageAt(payload, len(payload)+1)
		assert.ErrorIs(t, err, ErrOutOfBounds)
	})
}
