// Package hd holds the BIP-32 values a PSBT carries around: extended public
// keys and the fingerprint and derivation path they originate from. The
// values are stored and round-tripped, never derived from.
package hd

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/tyler-smith/go-bip32"
)

// ExtendedKeyLen is the length of a BIP-32 extended key serialization
// without its checksum.
const ExtendedKeyLen = 78

var (
	// ErrInvalidExtendedKey is returned for extended key data of the
	// wrong size or encoding.
	ErrInvalidExtendedKey = errors.New("invalid extended key")

	// ErrPrivateExtendedKey is returned when a private extended key is
	// given where only public keys are allowed.
	ErrPrivateExtendedKey = errors.New("extended key is private")
)

// ExtendedKey is the 78 byte serialization of a BIP-32 extended key. It is
// an opaque value: comparable, ordered by its bytes, and nothing else.
type ExtendedKey [ExtendedKeyLen]byte

// NewExtendedKey copies a 78 byte serialization into an ExtendedKey.
func NewExtendedKey(b []byte) (ExtendedKey, error) {
	var k ExtendedKey
	if len(b) != ExtendedKeyLen {
		return k, fmt.Errorf("%w: got %d bytes, want %d",
			ErrInvalidExtendedKey, len(b), ExtendedKeyLen)
	}
	copy(k[:], b)

	return k, nil
}

// ParseExtendedKey parses a base58 encoded extended public key such as an
// xpub or tpub.
func ParseExtendedKey(s string) (ExtendedKey, error) {
	key, err := bip32.B58Deserialize(s)
	if err != nil {
		return ExtendedKey{}, fmt.Errorf("%w: %v",
			ErrInvalidExtendedKey, err)
	}
	if key.IsPrivate {
		return ExtendedKey{}, ErrPrivateExtendedKey
	}

	serialized, err := key.Serialize()
	if err != nil {
		return ExtendedKey{}, fmt.Errorf("%w: %v",
			ErrInvalidExtendedKey, err)
	}
	if len(serialized) < ExtendedKeyLen {
		return ExtendedKey{}, ErrInvalidExtendedKey
	}

	return NewExtendedKey(serialized[:ExtendedKeyLen])
}

// Depth returns the depth byte of the key.
func (k ExtendedKey) Depth() uint8 {
	return k[4]
}

// String returns the base58check encoding of the key.
func (k ExtendedKey) String() string {
	checksum := chainhash.DoubleHashB(k[:])[:4]

	data := make([]byte, 0, ExtendedKeyLen+4)
	data = append(data, k[:]...)
	data = append(data, checksum...)

	return base58.Encode(data)
}

// KeySource is the master key fingerprint and derivation path an extended
// key was derived with.
type KeySource struct {
	Fingerprint uint32
	Path        []uint32
}

// DecodeKeySource decodes the value of a BIP-32 derivation field.
func DecodeKeySource(value []byte) (KeySource, error) {
	fingerprint, path, err := psbt.ReadBip32Derivation(value)
	if err != nil {
		return KeySource{}, err
	}

	return KeySource{
		Fingerprint: fingerprint,
		Path:        path,
	}, nil
}

// Bytes serializes the key source as a BIP-32 derivation field value.
func (k KeySource) Bytes() []byte {
	return psbt.SerializeBIP32Derivation(k.Fingerprint, k.Path)
}

// Clone returns a copy that shares no memory with k.
func (k KeySource) Clone() KeySource {
	return KeySource{
		Fingerprint: k.Fingerprint,
		Path:        slices.Clone(k.Path),
	}
}

// String renders the key source as a key origin, e.g. [d34db33f/84'/0'/0'].
func (k KeySource) String() string {
	var fingerprint [4]byte
	binary.LittleEndian.PutUint32(fingerprint[:], k.Fingerprint)

	var b strings.Builder
	fmt.Fprintf(&b, "[%x", fingerprint[:])
	for _, index := range k.Path {
		if index >= bip32.FirstHardenedChild {
			fmt.Fprintf(&b, "/%d'", index-bip32.FirstHardenedChild)
			continue
		}
		fmt.Fprintf(&b, "/%d", index)
	}
	b.WriteString("]")

	return b.String()
}

// compareExtendedKeys orders extended keys by their serialization.
func compareExtendedKeys(a, b ExtendedKey) int {
	return bytes.Compare(a[:], b[:])
}
