// Package crypto implements the signature scheme used by price attestations:
// keccak-256 message hashing and secp256k1 public-key recovery, with signer
// identities expressed as 20-byte addresses derived from the recovered key.
package crypto

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/sha3"
)

// Error variables for consistent error handling
var (
	ErrInvalidSignatureLen = errors.New("signature must be 65 bytes")
	ErrInvalidHashLen      = errors.New("message hash must be 32 bytes")
	ErrInvalidRecoveryID   = errors.New("invalid signature recovery id")
	ErrRecoveryFailed      = errors.New("public key recovery failed")
	ErrInvalidAddressHex   = errors.New("invalid address hex")
)

// AddressSize is the byte length of a signer address.
const AddressSize = 20

// Address identifies a signer: the last 20 bytes of the keccak-256 hash of
// the signer's uncompressed public key.
type Address [AddressSize]byte

// Hex renders the address as a 0x-prefixed lowercase hex string.
func (a Address) Hex() string {
	return "0x" + hex.EncodeToString(a[:])
}

// String implements fmt.Stringer.
func (a Address) String() string { return a.Hex() }

// HexToAddress parses a 20-byte address from hex, with or without 0x prefix.
func HexToAddress(s string) (Address, error) {
	var a Address
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return a, fmt.Errorf("%w: %v", ErrInvalidAddressHex, err)
	}
	if len(raw) != AddressSize {
		return a, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidAddressHex, len(raw), AddressSize)
	}
	copy(a[:], raw)
	return a, nil
}

// Keccak256 hashes the concatenation of the inputs with legacy keccak-256,
// the variant used for signing and address derivation.
func Keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	return h.Sum(nil)
}

// PubkeyToAddress derives the signer address from a public key.
func PubkeyToAddress(pub *secp256k1.PublicKey) Address {
	var a Address
	digest := Keccak256(pub.SerializeUncompressed()[1:])
	copy(a[:], digest[len(digest)-AddressSize:])
	return a
}

// RecoverSigner recovers the signer address from a 32-byte message hash and a
// 65-byte r||s||v signature. The recovery id v may be a raw id (0/1) or the
// legacy 27/28 encoding.
func RecoverSigner(hash, sig []byte) (Address, error) {
	var zero Address
	if len(sig) != 65 {
		return zero, fmt.Errorf("%w: got %d", ErrInvalidSignatureLen, len(sig))
	}
	if len(hash) != 32 {
		return zero, fmt.Errorf("%w: got %d", ErrInvalidHashLen, len(hash))
	}
	v := sig[64]
	if v < 27 {
		v += 27
	}
	if v != 27 && v != 28 {
		return zero, fmt.Errorf("%w: %d", ErrInvalidRecoveryID, sig[64])
	}

	// RecoverCompact wants the recovery id first: v || r || s.
	compact := make([]byte, 65)
	compact[0] = v
	copy(compact[1:], sig[:64])

	pub, _, err := secpecdsa.RecoverCompact(compact, hash)
	if err != nil {
		return zero, fmt.Errorf("%w: %v", ErrRecoveryFailed, err)
	}
	return PubkeyToAddress(pub), nil
}

// SignHash signs a 32-byte message hash with the given private key and
// returns the 65-byte r||s||v signature that RecoverSigner accepts.
func SignHash(key *secp256k1.PrivateKey, hash []byte) ([]byte, error) {
	if len(hash) != 32 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidHashLen, len(hash))
	}
	compact := secpecdsa.SignCompact(key, hash, false)
	sig := make([]byte, 65)
	copy(sig[:64], compact[1:])
	sig[64] = compact[0] // already 27/28 for an uncompressed key
	return sig, nil
}
