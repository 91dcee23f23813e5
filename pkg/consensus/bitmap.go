package consensus

import "github.com/bits-and-blooms/bitset"

// SignerBitmap tracks which signer indices have already contributed to one
// feed within a single verification call. Only Test and Set are exposed;
// nothing else should touch the underlying bits.
type SignerBitmap struct {
	bits *bitset.BitSet
}

// NewSignerBitmap returns an empty bitmap sized for MaxSigners indices.
func NewSignerBitmap() SignerBitmap {
	return SignerBitmap{bits: bitset.New(MaxSigners)}
}

// Test reports whether the signer index is already set.
func (b SignerBitmap) Test(index int) bool {
	return b.bits.Test(uint(index))
}

// Set marks the signer index as seen.
func (b SignerBitmap) Set(index int) {
	b.bits.Set(uint(index))
}
