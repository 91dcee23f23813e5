package attestation

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"price_attestation/pkg/crypto"
	"price_attestation/pkg/data"
)

// SignPackage hashes the package's signed region with keccak-256, signs it
// with the given key, and installs the resulting r||s||v signature on the
// package.
func SignPackage(pkg *data.DataPackage, key *secp256k1.PrivateKey) error {
	signed, err := pkg.SignedBytes()
	if err != nil {
		return fmt.Errorf("encoding signed region: %w", err)
	}
	sig, err := crypto.SignHash(key, crypto.Keccak256(signed))
	if err != nil {
		return fmt.Errorf("signing package: %w", err)
	}
	return pkg.SetSignature(sig)
}

// BuildPayload encodes packages and the trailer into a standalone payload:
// packages | count(2) | metadata | metadataSize(3) | marker(9). Appending the
// result to any buffer yields input that LocatePayload accepts.
func BuildPayload(packages []*data.DataPackage, metadata []byte) ([]byte, error) {
	if len(metadata) >= 1<<(8*MetadataSizeFieldSize) {
		return nil, fmt.Errorf("metadata of %d bytes exceeds the %d-byte size field", len(metadata), MetadataSizeFieldSize)
	}
	if len(packages) >= 1<<(8*PackageCountSize) {
		return nil, fmt.Errorf("%d packages exceed the %d-byte count field", len(packages), PackageCountSize)
	}

	var buf []byte
	for i, pkg := range packages {
		enc, err := pkg.Encode()
		if err != nil {
			return nil, fmt.Errorf("encoding package %d: %w", i, err)
		}
		buf = append(buf, enc...)
	}
	buf = appendUint(buf, uint64(len(packages)), PackageCountSize)
	buf = append(buf, metadata...)
	buf = appendUint(buf, uint64(len(metadata)), MetadataSizeFieldSize)
	buf = append(buf, payloadMarker...)
	return buf, nil
}

func appendUint(buf []byte, v uint64, width int) []byte {
	for shift := 8 * (width - 1); shift >= 0; shift -= 8 {
		buf = append(buf, byte(v>>shift))
	}
	return buf
}
