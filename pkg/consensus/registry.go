// Package consensus verifies attestation payloads end to end: it scans every
// data package in a payload, checks freshness and signer authorization,
// deduplicates signer contributions per feed, and aggregates the surviving
// values once a configurable number of distinct signers have reported.
package consensus

import (
	"errors"
	"fmt"

	"price_attestation/pkg/crypto"
)

// MaxSigners bounds signer indices; the per-feed dedup bitmap is sized to it.
const MaxSigners = 256

// Error variables for consistent error handling
var (
	ErrNoSigners          = errors.New("signer registry cannot be empty")
	ErrTooManySigners     = errors.New("signer registry exceeds 256 entries")
	ErrDuplicateSigner    = errors.New("duplicate signer address")
	ErrUnauthorizedSigner = errors.New("unauthorized signer")
)

// SignerRegistry maps authorized signer addresses to small dense indices.
// It is built once and never mutated, so concurrent verification calls may
// share one registry freely.
type SignerRegistry struct {
	indexByAddr map[crypto.Address]int
}

// NewSignerRegistry builds a registry from the authorized addresses. Index
// assignment follows slice order.
func NewSignerRegistry(addrs []crypto.Address) (*SignerRegistry, error) {
	if len(addrs) == 0 {
		return nil, ErrNoSigners
	}
	if len(addrs) > MaxSigners {
		return nil, fmt.Errorf("%w: got %d", ErrTooManySigners, len(addrs))
	}
	byAddr := make(map[crypto.Address]int, len(addrs))
	for i, addr := range addrs {
		if _, dup := byAddr[addr]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSigner, addr)
		}
		byAddr[addr] = i
	}
	return &SignerRegistry{indexByAddr: byAddr}, nil
}

// NewSignerRegistryFromHex builds a registry from hex-encoded addresses, as
// they appear in configuration files.
func NewSignerRegistryFromHex(hexAddrs []string) (*SignerRegistry, error) {
	addrs := make([]crypto.Address, 0, len(hexAddrs))
	for _, h := range hexAddrs {
		addr, err := crypto.HexToAddress(h)
		if err != nil {
			return nil, fmt.Errorf("parsing signer %q: %w", h, err)
		}
		addrs = append(addrs, addr)
	}
	return NewSignerRegistry(addrs)
}

// Index resolves a recovered signer address to its registry index. Unknown
// addresses are an error, never a silent default.
func (r *SignerRegistry) Index(addr crypto.Address) (int, error) {
	idx, ok := r.indexByAddr[addr]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnauthorizedSigner, addr)
	}
	return idx, nil
}

// Size returns the number of authorized signers.
func (r *SignerRegistry) Size() int {
	return len(r.indexByAddr)
}
