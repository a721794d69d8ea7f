package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testMnemonic = "abandon abandon abandon abandon abandon abandon " +
		"abandon abandon abandon abandon abandon about"

	// testAccountXPub is the m/84'/0'/0' extended public key of
	// testMnemonic.
	testAccountXPub = "xpub6CatWdiZiodmUeTDp8LT5or8nmbKNcuyvz7WyksVFkK" +
		"B4RHwCD3XyuvPEbvqAQY3rAPshWcMLoP2fMFMKHPJ4ZeZXYVUhLv1VMrjPC" +
		"7PW6V"
)

func TestParsePath(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		path    string
		want    []uint32
		wantErr bool
	}{
		{path: "m", want: nil},
		{path: "m/84'/0'/0'", want: []uint32{
			0x80000054, 0x80000000, 0x80000000,
		}},
		{path: "m/48h/1h/0h/2h/0/7", want: []uint32{
			0x80000030, 0x80000001, 0x80000000, 0x80000002, 0, 7,
		}},
		{path: "84'/0'", wantErr: true},
		{path: "m/x", wantErr: true},
		{path: "m/2147483648", wantErr: true},
		{path: "m/1//2", wantErr: true},
	}

	for _, tc := range testCases {
		got, err := parsePath(tc.path)
		if tc.wantErr {
			require.Error(t, err, tc.path)
			continue
		}

		require.NoError(t, err, tc.path)
		require.Equal(t, tc.want, got, tc.path)
	}
}

func TestParseFingerprint(t *testing.T) {
	t.Parallel()

	fingerprint, err := parseFingerprint("73c5da0a")
	require.NoError(t, err)
	require.EqualValues(t, 0x0adac573, fingerprint)
	require.Equal(
		t, "[73c5da0a/1]", keySource(fingerprint, []uint32{1}).String(),
	)

	_, err = parseFingerprint("73c5da")
	require.Error(t, err)

	_, err = parseFingerprint("not hex!")
	require.Error(t, err)
}

func TestDeriveAccountXPub(t *testing.T) {
	t.Parallel()

	path, err := parsePath("m/84'/0'/0'")
	require.NoError(t, err)

	xpub, source, err := deriveAccountXPub(testMnemonic, "", path)
	require.NoError(t, err)

	require.Equal(t, testAccountXPub, xpub.String())
	require.EqualValues(t, 3, xpub.Depth())
	require.Equal(t, "[73c5da0a/84'/0'/0']", source.String())

	_, _, err = deriveAccountXPub("abandon abandon", "", path)
	require.Error(t, err)
}
