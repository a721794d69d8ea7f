// Package raw implements the generic key-value layer every PSBT scope is
// built from. Fields this module does not understand are kept here as opaque
// bytes and written back exactly as they were read.
package raw

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/wire"
)

const (
	// ProprietaryType is the key type reserved for vendor namespaced
	// fields in every scope.
	ProprietaryType byte = 0xFC

	// GlobalVersionType is the global key type carrying the PSBT version
	// number.
	GlobalVersionType byte = 0xFB
)

// ErrMalformedProprietaryKey is returned when the key data following a 0xFC
// type byte is not a valid proprietary key.
var ErrMalformedProprietaryKey = errors.New("malformed proprietary key")

// Key is the structured key of a PSBT key-value pair. Data holds the
// type-specific identifier bytes, stored as a string so that keys are
// comparable and can be used as map keys.
type Key struct {
	Type byte
	Data string
}

// NewKey creates a key from its type byte and identifier bytes.
func NewKey(keyType byte, data []byte) Key {
	return Key{
		Type: keyType,
		Data: string(data),
	}
}

// Bytes returns the serialized key: the type byte followed by the key data.
func (k Key) Bytes() []byte {
	b := make([]byte, 0, 1+len(k.Data))
	b = append(b, k.Type)

	return append(b, k.Data...)
}

// HasData returns true if the key carries identifier bytes after the type.
func (k Key) HasData() bool {
	return len(k.Data) != 0
}

// String returns the key in hex.
func (k Key) String() string {
	return fmt.Sprintf("%x", k.Bytes())
}

// ProprietaryKey is a vendor namespaced key: 0xFC followed by a length
// prefixed identifier, a compact size subtype and free form key data.
type ProprietaryKey struct {
	Prefix  string
	Subtype uint64
	Data    string
}

// NewProprietaryKey creates a proprietary key from its parts.
func NewProprietaryKey(prefix []byte, subtype uint64,
	data []byte) ProprietaryKey {

	return ProprietaryKey{
		Prefix:  string(prefix),
		Subtype: subtype,
		Data:    string(data),
	}
}

// ParseProprietaryKey parses the key data that follows the 0xFC type byte.
// Only canonical compact size encodings are accepted, so a parsed key always
// serializes back to the bytes it was parsed from.
func ParseProprietaryKey(keyData []byte) (ProprietaryKey, error) {
	r := bytes.NewReader(keyData)

	prefix, err := wire.ReadVarBytes(
		r, 0, uint32(len(keyData)), "proprietary prefix",
	)
	if err != nil {
		return ProprietaryKey{}, fmt.Errorf("%w: %v",
			ErrMalformedProprietaryKey, err)
	}

	subtype, err := wire.ReadVarInt(r, 0)
	if err != nil {
		return ProprietaryKey{}, fmt.Errorf("%w: %v",
			ErrMalformedProprietaryKey, err)
	}

	data := keyData[len(keyData)-r.Len():]

	return NewProprietaryKey(prefix, subtype, data), nil
}

// Bytes returns the full serialized key including the 0xFC type byte.
func (k ProprietaryKey) Bytes() []byte {
	var b bytes.Buffer
	b.WriteByte(ProprietaryType)

	// Writes into a bytes.Buffer can't fail.
	_ = wire.WriteVarBytes(&b, 0, []byte(k.Prefix))
	_ = wire.WriteVarInt(&b, 0, k.Subtype)
	b.WriteString(k.Data)

	return b.Bytes()
}

// String returns the key in a prefix/subtype/data form.
func (k ProprietaryKey) String() string {
	return fmt.Sprintf("%q/%d/%x", k.Prefix, k.Subtype, k.Data)
}
