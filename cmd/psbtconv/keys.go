package main

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"
	"psbtkit/hd"
)

func keySource(fingerprint uint32, path []uint32) hd.KeySource {
	return hd.KeySource{Fingerprint: fingerprint, Path: path}
}

// parsePath parses a derivation path such as m/84'/0'/0'. Both ' and h mark
// a hardened index.
func parsePath(path string) ([]uint32, error) {
	path = strings.TrimSpace(path)
	if path == "m" || path == "" {
		return nil, nil
	}
	if !strings.HasPrefix(path, "m/") {
		return nil, fmt.Errorf("derivation path %q must start with m/",
			path)
	}

	elements := strings.Split(strings.TrimPrefix(path, "m/"), "/")
	indexes := make([]uint32, 0, len(elements))
	for _, element := range elements {
		offset := uint32(0)
		if strings.HasSuffix(element, "'") ||
			strings.HasSuffix(element, "h") {

			offset = bip32.FirstHardenedChild
			element = element[:len(element)-1]
		}

		index, err := strconv.ParseUint(element, 10, 31)
		if err != nil {
			return nil, fmt.Errorf("invalid path element %q: %w",
				element, err)
		}
		indexes = append(indexes, uint32(index)+offset)
	}

	return indexes, nil
}

// parseFingerprint parses a master key fingerprint given as 8 hex
// characters in the order it is usually displayed.
func parseFingerprint(s string) (uint32, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return 0, err
	}
	if len(b) != 4 {
		return 0, fmt.Errorf("fingerprint must be 4 bytes, got %d",
			len(b))
	}

	return binary.LittleEndian.Uint32(b), nil
}

// deriveAccountXPub derives the extended public key at path from a BIP-39
// mnemonic and returns it with its key source.
func deriveAccountXPub(mnemonic, passphrase string,
	path []uint32) (hd.ExtendedKey, hd.KeySource, error) {

	if !bip39.IsMnemonicValid(mnemonic) {
		return hd.ExtendedKey{}, hd.KeySource{}, fmt.Errorf("invalid " +
			"mnemonic")
	}

	master, err := bip32.NewMasterKey(bip39.NewSeed(mnemonic, passphrase))
	if err != nil {
		return hd.ExtendedKey{}, hd.KeySource{}, err
	}

	masterPub := master.PublicKey()
	fingerprint := binary.LittleEndian.Uint32(
		btcutil.Hash160(masterPub.Key)[:4],
	)

	key := master
	for _, index := range path {
		key, err = key.NewChildKey(index)
		if err != nil {
			return hd.ExtendedKey{}, hd.KeySource{}, err
		}
	}

	serialized, err := key.PublicKey().Serialize()
	if err != nil {
		return hd.ExtendedKey{}, hd.KeySource{}, err
	}

	xpub, err := hd.NewExtendedKey(serialized[:hd.ExtendedKeyLen])
	if err != nil {
		return hd.ExtendedKey{}, hd.KeySource{}, err
	}

	return xpub, keySource(fingerprint, path), nil
}
