package hd

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/stretchr/testify/require"
	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"
	"psbtkit/raw"
)

const (
	// BIP-32 test vector 1, chain m.
	vector1Seed = "000102030405060708090a0b0c0d0e0f"
	vector1XPub = "xpub661MyMwAqRbcFtXgS5sYJABqqG9YLmC4Q1Rdap9gSE8NqtwybG" +
		"hePY2gZ29ESFjqJoCu1Rupje8YtGqsefD265TMg7usUDFdp6W1EGMcet8"
	vector1XPrv = "xprv9s21ZrQH143K3QTDL4LXw2F7HEK3wJUD2nW2nRk4stbPy6cq3j" +
		"PPqjiChkVvvNKmPGJxWUtg6LnF5kejMRNNU3TGtRBeJgk33yuGBxrMPHi"
)

// testAccountKey derives the extended public key of m/84'/0'/0' from a
// mnemonic built from the given entropy byte.
func testAccountKey(t *testing.T, entropyByte byte) ExtendedKey {
	t.Helper()

	mnemonic, err := bip39.NewMnemonic(bytes.Repeat([]byte{entropyByte}, 16))
	require.NoError(t, err)

	master, err := bip32.NewMasterKey(bip39.NewSeed(mnemonic, ""))
	require.NoError(t, err)

	key := master
	for _, index := range []uint32{84, 0, 0} {
		key, err = key.NewChildKey(index + bip32.FirstHardenedChild)
		require.NoError(t, err)
	}

	xpub, err := ParseExtendedKey(key.PublicKey().B58Serialize())
	require.NoError(t, err)

	return xpub
}

func TestParseExtendedKey(t *testing.T) {
	t.Parallel()

	xpub, err := ParseExtendedKey(vector1XPub)
	require.NoError(t, err)
	require.Equal(t, vector1XPub, xpub.String())
	require.Zero(t, xpub.Depth())

	seed, err := hex.DecodeString(vector1Seed)
	require.NoError(t, err)
	master, err := bip32.NewMasterKey(seed)
	require.NoError(t, err)
	require.Equal(t, vector1XPub, master.PublicKey().B58Serialize())

	_, err = ParseExtendedKey(vector1XPrv)
	require.ErrorIs(t, err, ErrPrivateExtendedKey)

	_, err = ParseExtendedKey("xpub-not-base58")
	require.ErrorIs(t, err, ErrInvalidExtendedKey)

	require.EqualValues(t, 3, testAccountKey(t, 0x00).Depth())
}

func TestNewExtendedKey(t *testing.T) {
	t.Parallel()

	_, err := NewExtendedKey(make([]byte, 77))
	require.ErrorIs(t, err, ErrInvalidExtendedKey)

	xpub := testAccountKey(t, 0x01)
	c, err := NewExtendedKey(xpub[:])
	require.NoError(t, err)
	require.Equal(t, xpub, c)
}

func TestKeySource(t *testing.T) {
	t.Parallel()

	source := KeySource{
		Fingerprint: binary.LittleEndian.Uint32(
			[]byte{0x34, 0x42, 0x19, 0x3e},
		),
		Path: []uint32{
			84 + bip32.FirstHardenedChild,
			bip32.FirstHardenedChild,
			bip32.FirstHardenedChild,
			1,
		},
	}
	require.Equal(t, "[3442193e/84'/0'/0'/1]", source.String())

	b := source.Bytes()
	require.Len(t, b, 4+4*len(source.Path))
	require.Equal(t, []byte{0x34, 0x42, 0x19, 0x3e}, b[:4])

	decoded, err := DecodeKeySource(b)
	require.NoError(t, err)
	require.Equal(t, source, decoded)

	c := source.Clone()
	c.Path[0] = 0
	require.Equal(t, 84+bip32.FirstHardenedChild, source.Path[0])

	_, err = DecodeKeySource([]byte{0x01, 0x02})
	require.Error(t, err)
}

func TestXPubMap(t *testing.T) {
	t.Parallel()

	xpubs := XPubMap{
		testAccountKey(t, 0x02): {Fingerprint: 1, Path: []uint32{1}},
		testAccountKey(t, 0x03): {Fingerprint: 2, Path: []uint32{2, 3}},
	}

	var s raw.Scope
	xpubs.AddTo(&s)

	var b bytes.Buffer
	require.NoError(t, s.Write(&b))

	pairs, err := raw.ReadMap(&b)
	require.NoError(t, err)
	require.Len(t, pairs, 2)

	var decoded XPubMap
	for _, pair := range pairs {
		require.Equal(t, XPubType, pair.Key.Type)
		require.NoError(t, decoded.Insert(pair))
	}
	require.Equal(t, xpubs, decoded)

	keys := decoded.Keys()
	require.Negative(t, bytes.Compare(keys[0][:], keys[1][:]))

	c := xpubs.Clone()
	require.Equal(t, xpubs, c)
	require.Nil(t, XPubMap(nil).Clone())

	err = decoded.Insert(raw.Pair{
		Key:   raw.NewKey(XPubType, []byte{0x01}),
		Value: []byte{0x01, 0x02, 0x03, 0x04},
	})
	require.ErrorIs(t, err, psbt.ErrInvalidPsbtFormat)
}
