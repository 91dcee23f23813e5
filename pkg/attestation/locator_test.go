package attestation

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"price_attestation/pkg/data"
)

func singlePointPackage(feed string, value int64, tsMs uint64) *data.DataPackage {
	return &data.DataPackage{
		Points:      []data.DataPoint{{FeedID: data.MustFeedID(feed), Value: big.NewInt(value)}},
		TimestampMs: tsMs,
		ValueWidth:  8,
	}
}

func TestLocatePayload(t *testing.T) {
	pkg := singlePointPackage("ETH", 2000, 1700000000000)
	metadata := []byte("v1.2.3#test")
	payload, err := BuildPayload([]*data.DataPackage{pkg}, metadata)
	require.NoError(t, err)

	t.Run("BarePayload", func(t *testing.T) {
		loc, err := LocatePayload(payload)
		require.NoError(t, err)
		assert.Equal(t, 1, loc.PackageCount)
		assert.Equal(t, len(metadata), loc.MetadataSize)
		assert.Equal(t, len(metadata)+MetadataSizeFieldSize+MarkerSize+PackageCountSize, loc.PackagesTailOffset)
	})

	t.Run("PayloadAppendedToOpaqueBuffer", func(t *testing.T) {
		buf := append([]byte("some unrelated request body"), payload...)
		loc, err := LocatePayload(buf)
		require.NoError(t, err)
		assert.Equal(t, 1, loc.PackageCount)
	})

	t.Run("MissingMarker", func(t *testing.T) {
		_, err := LocatePayload([]byte("just a plain buffer"))
		assert.ErrorIs(t, err, ErrNoPayload)
	})

	t.Run("CorruptedMarker", func(t *testing.T) {
		buf := append([]byte(nil), payload...)
		buf[len(buf)-1] ^= 0xff
		_, err := LocatePayload(buf)
		assert.ErrorIs(t, err, ErrNoPayload)
	})

	t.Run("BufferShorterThanMarker", func(t *testing.T) {
		_, err := LocatePayload(payloadMarker[:5])
		assert.ErrorIs(t, err, ErrNoPayload)
	})

	t.Run("MarkerOnly", func(t *testing.T) {
		_, err := LocatePayload(Marker())
		assert.ErrorIs(t, err, ErrTruncatedPayload)
	})

	t.Run("DeclaredMetadataExceedsBuffer", func(t *testing.T) {
		// Trailer claims a huge metadata region that the buffer cannot hold.
		buf := make([]byte, 0, 14)
		buf = appendUint(buf, 1<<16, MetadataSizeFieldSize)
		buf = append(buf, payloadMarker...)
		_, err := LocatePayload(buf)
		assert.ErrorIs(t, err, ErrTruncatedPayload)
	})
}

func TestBuildPayloadLimits(t *testing.T) {
	pkg := singlePointPackage("ETH", 1, 1)

	_, err := BuildPayload([]*data.DataPackage{pkg}, make([]byte, 1<<24))
	assert.Error(t, err)

	_, err = BuildPayload([]*data.DataPackage{{}}, nil)
	assert.ErrorIs(t, err, data.ErrNoPoints)
}

func TestMarkerReturnsCopy(t *testing.T) {
	m := Marker()
	m[0] ^= 0xff
	assert.NotEqual(t, m[0], payloadMarker[0])
}
