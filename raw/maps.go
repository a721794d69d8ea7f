package raw

import (
	"bytes"
	"slices"
)

// UnknownMap holds key-value pairs whose type this module does not know.
type UnknownMap map[Key][]byte

// ProprietaryMap holds vendor namespaced key-value pairs.
type ProprietaryMap map[ProprietaryKey][]byte

// Clone returns a deep copy of the map. A nil map stays nil.
func (m UnknownMap) Clone() UnknownMap {
	if m == nil {
		return nil
	}

	c := make(UnknownMap, len(m))
	for k, v := range m {
		c[k] = bytes.Clone(v)
	}

	return c
}

// Keys returns the keys ordered by their serialized bytes.
func (m UnknownMap) Keys() []Key {
	keys := make([]Key, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	slices.SortFunc(keys, func(a, b Key) int {
		return bytes.Compare(a.Bytes(), b.Bytes())
	})

	return keys
}

// Clone returns a deep copy of the map. A nil map stays nil.
func (m ProprietaryMap) Clone() ProprietaryMap {
	if m == nil {
		return nil
	}

	c := make(ProprietaryMap, len(m))
	for k, v := range m {
		c[k] = bytes.Clone(v)
	}

	return c
}

// Keys returns the keys ordered by their serialized bytes.
func (m ProprietaryMap) Keys() []ProprietaryKey {
	keys := make([]ProprietaryKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	slices.SortFunc(keys, func(a, b ProprietaryKey) int {
		return bytes.Compare(a.Bytes(), b.Bytes())
	})

	return keys
}

// Insert stores a pair no typed field claimed. Well formed proprietary keys
// land in proprietary, anything else in unknown. Nothing is dropped.
func Insert(pair Pair, proprietary *ProprietaryMap, unknown *UnknownMap) {
	if pair.Key.Type == ProprietaryType {
		key, err := ParseProprietaryKey([]byte(pair.Key.Data))
		if err == nil {
			if *proprietary == nil {
				*proprietary = make(ProprietaryMap)
			}
			(*proprietary)[key] = pair.Value

			return
		}
	}

	if *unknown == nil {
		*unknown = make(UnknownMap)
	}
	(*unknown)[pair.Key] = pair.Value
}
