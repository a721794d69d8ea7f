package raw

import (
	"bytes"
	"io"
	"slices"
)

// Scope collects the pairs of one map before they are written. Pairs are
// written ordered by their serialized key, which is the order BIP-174
// writers emit known fields in, so a PSBT read in that order is written back
// byte for byte.
type Scope struct {
	pairs []Pair
}

// Add queues a pair whose key is a type byte plus optional key data.
func (s *Scope) Add(keyType byte, keyData, value []byte) {
	s.pairs = append(s.pairs, Pair{
		Key:   NewKey(keyType, keyData),
		Value: value,
	})
}

// AddMaps queues every proprietary and unknown pair.
func (s *Scope) AddMaps(proprietary ProprietaryMap, unknown UnknownMap) {
	for k, v := range proprietary {
		b := k.Bytes()
		s.Add(b[0], b[1:], v)
	}
	for k, v := range unknown {
		s.pairs = append(s.pairs, Pair{Key: k, Value: v})
	}
}

// Write writes the queued pairs in key order followed by the separator.
func (s *Scope) Write(w io.Writer) error {
	pairs := slices.Clone(s.pairs)
	slices.SortFunc(pairs, func(a, b Pair) int {
		return bytes.Compare(a.Key.Bytes(), b.Key.Bytes())
	})

	for _, pair := range pairs {
		err := WritePair(w, pair.Key.Bytes(), pair.Value)
		if err != nil {
			return err
		}
	}

	return WriteSeparator(w)
}
