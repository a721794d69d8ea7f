package raw

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/wire"
)

// MagicLength is the length of the magic bytes that start every serialized
// PSBT.
const MagicLength = 5

// Magic is "psbt" followed by the 0xff separator.
var Magic = [MagicLength]byte{0x70, 0x73, 0x62, 0x74, 0xff}

// Pair is a single key-value pair read from a PSBT scope.
type Pair struct {
	Key   Key
	Value []byte
}

// ReadMagic consumes the magic bytes and fails with psbt.ErrInvalidMagicBytes
// if they don't match.
func ReadMagic(r io.Reader) error {
	var magic [MagicLength]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return err
	}
	if magic != Magic {
		return psbt.ErrInvalidMagicBytes
	}

	return nil
}

// WriteMagic writes the magic bytes.
func WriteMagic(w io.Writer) error {
	_, err := w.Write(Magic[:])
	return err
}

// ReadPair reads the next key-value pair. A nil pair with a nil error means
// the scope separator was reached.
func ReadPair(r io.Reader) (*Pair, error) {
	key, err := wire.ReadVarBytes(
		r, 0, psbt.MaxPsbtKeyLength, "PSBT key",
	)
	if err != nil {
		return nil, err
	}

	if len(key) == 0 {
		return nil, nil
	}

	value, err := wire.ReadVarBytes(
		r, 0, psbt.MaxPsbtValueLength, "PSBT value",
	)
	if err != nil {
		return nil, err
	}

	return &Pair{
		Key:   NewKey(key[0], key[1:]),
		Value: value,
	}, nil
}

// ReadMap reads every pair of one scope up to and including its separator.
// Keys must be unique within a scope.
func ReadMap(r io.Reader) ([]Pair, error) {
	var (
		pairs []Pair
		seen  = make(map[Key]struct{})
	)
	for {
		pair, err := ReadPair(r)
		if err != nil {
			return nil, err
		}
		if pair == nil {
			return pairs, nil
		}

		if _, ok := seen[pair.Key]; ok {
			return nil, fmt.Errorf("%w: %v", psbt.ErrDuplicateKey,
				pair.Key)
		}
		seen[pair.Key] = struct{}{}

		pairs = append(pairs, *pair)
	}
}

// WritePair writes a serialized key and its value.
func WritePair(w io.Writer, key, value []byte) error {
	if err := wire.WriteVarBytes(w, 0, key); err != nil {
		return err
	}

	return wire.WriteVarBytes(w, 0, value)
}

// WriteTyped writes a pair whose key is a type byte plus optional key data.
func WriteTyped(w io.Writer, keyType byte, keyData, value []byte) error {
	return WritePair(w, NewKey(keyType, keyData).Bytes(), value)
}

// WriteSeparator terminates a scope.
func WriteSeparator(w io.Writer) error {
	_, err := w.Write([]byte{0x00})
	return err
}

// GlobalVersion returns the PSBT version declared in a global scope. A scope
// without a version field is version 0.
func GlobalVersion(global []Pair) (uint32, error) {
	for _, pair := range global {
		if pair.Key.Type != GlobalVersionType {
			continue
		}

		if pair.Key.HasData() || len(pair.Value) != 4 {
			return 0, fmt.Errorf("%w: invalid version field",
				psbt.ErrInvalidPsbtFormat)
		}

		return binary.LittleEndian.Uint32(pair.Value), nil
	}

	return 0, nil
}

// Uint32Bytes returns the little endian encoding of v.
func Uint32Bytes(v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)

	return b[:]
}

// ReadUint32 decodes a 4 byte little endian value with no key data.
func ReadUint32(pair Pair) (uint32, error) {
	if pair.Key.HasData() || len(pair.Value) != 4 {
		return 0, fmt.Errorf("%w: field %#x must be a 4 byte value "+
			"without key data", psbt.ErrInvalidPsbtFormat,
			pair.Key.Type)
	}

	return binary.LittleEndian.Uint32(pair.Value), nil
}
