package hd

import (
	"fmt"
	"slices"

	"github.com/btcsuite/btcd/btcutil/psbt"
	"psbtkit/raw"
)

// XPubType is the global key type of an extended public key entry.
const XPubType byte = 0x01

// XPubMap maps extended public keys to the key source they were derived
// with.
type XPubMap map[ExtendedKey]KeySource

// Clone returns a deep copy of the map. A nil map stays nil.
func (m XPubMap) Clone() XPubMap {
	if m == nil {
		return nil
	}

	c := make(XPubMap, len(m))
	for k, v := range m {
		c[k] = v.Clone()
	}

	return c
}

// Keys returns the extended keys in byte order.
func (m XPubMap) Keys() []ExtendedKey {
	keys := make([]ExtendedKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareExtendedKeys)

	return keys
}

// AddTo queues every entry as a global xpub pair.
func (m XPubMap) AddTo(s *raw.Scope) {
	for k, v := range m {
		s.Add(XPubType, k[:], v.Bytes())
	}
}

// Insert decodes a global xpub pair into the map.
func (m *XPubMap) Insert(pair raw.Pair) error {
	key, err := NewExtendedKey([]byte(pair.Key.Data))
	if err != nil {
		return fmt.Errorf("%w: %v", psbt.ErrInvalidPsbtFormat, err)
	}

	source, err := DecodeKeySource(pair.Value)
	if err != nil {
		return fmt.Errorf("xpub %v: %w", key, err)
	}

	if *m == nil {
		*m = make(XPubMap)
	}
	(*m)[key] = source

	return nil
}
