package main

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/stretchr/testify/require"
	"psbtkit"
	"psbtkit/hd"
)

const testTxID = "43442b57048e0e188e1346caf7435372ddb9ce33b4da870a18d98" +
	"18b0e4542ea"

func TestParseOutpoint(t *testing.T) {
	t.Parallel()

	outpoint, err := parseOutpoint(testTxID + ":3")
	require.NoError(t, err)
	require.Equal(t, psbtkit.Outpoint{TxID: testTxID, Index: 3}, outpoint)

	for _, s := range []string{testTxID, testTxID + ":-1", ":x"} {
		_, err := parseOutpoint(s)
		require.Error(t, err, s)
	}
}

func TestParsePayment(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		in      string
		want    psbtkit.Payment
		wantErr bool
	}{{
		in: "tb1q2e328cfgup9w7krtfnvuu7wd6ph6a9l8cdwakd:900000",
		want: psbtkit.Payment{
			Address: "tb1q2e328cfgup9w7krtfnvuu7wd6ph6a9l8cdwakd",
			Amount:  900000,
		},
	}, {
		in:   "script:6a0401020304:0",
		want: psbtkit.Payment{Script: "6a0401020304", Amount: 0},
	}, {
		in:      "tb1q2e328cfgup9w7krtfnvuu7wd6ph6a9l8cdwakd",
		wantErr: true,
	}, {
		in:      "script:51:lots",
		wantErr: true,
	}}

	for _, tc := range testCases {
		got, err := parsePayment(tc.in)
		if tc.wantErr {
			require.Error(t, err, tc.in)
			continue
		}

		require.NoError(t, err, tc.in)
		require.Equal(t, tc.want, got)
	}
}

func TestParseRequiredLocktime(t *testing.T) {
	t.Parallel()

	index, locktime, err := parseRequiredLocktime("1:800000")
	require.NoError(t, err)
	require.Equal(t, 1, index)
	require.EqualValues(t, 800000, locktime)

	for _, s := range []string{"800000", "a:1", "1:-5", "1:4294967296"} {
		_, _, err := parseRequiredLocktime(s)
		require.Error(t, err, s)
	}
}

func TestPrintPacket(t *testing.T) {
	t.Parallel()

	b, err := psbtkit.NewBuilder(
		&chaincfg.SigNetParams,
		[]psbtkit.Outpoint{{TxID: testTxID, Index: 1}},
		[]psbtkit.Payment{{Script: "51", Amount: 330}},
		psbtkit.WithFallbackLocktime(10),
	)
	require.NoError(t, err)
	require.NoError(t, b.SetRequiredLocktime(0, 800_000))

	xpub, _, err := deriveAccountXPub(
		testMnemonic, "", []uint32{0x80000054, 0x80000000, 0x80000000},
	)
	require.NoError(t, err)
	b.AddXPub(xpub, hd.KeySource{
		Fingerprint: 0x0adac573,
		Path:        []uint32{0x80000054, 0x80000000, 0x80000000},
	})
	b.Packet.Inputs[0].SighashType = fn.Some(txscript.SigHashDefault)

	var out bytes.Buffer
	printPacket(&out, b.Packet)

	text := out.String()
	require.Contains(t, text, "PSBT version:       v2\n")
	require.Contains(t, text, "Fallback locktime:  10\n")
	require.Contains(t, text, "Resolved locktime:  800000\n")
	require.Contains(t, text, "Complete:           false\n")
	require.Contains(
		t, text, "XPub:               [73c5da0a/84'/0'/0'] "+
			testAccountXPub+" (depth 3)\n",
	)
	require.Contains(t, text, "Input 0:\n")
	require.Contains(t, text, testTxID+":1")
	require.Contains(t, text, "  Required lock:    800000\n")
	require.Contains(t, text, "  Sighash:          0x0\n")
	require.Contains(t, text, "Output 0:\n")
	require.Contains(t, text, "  Script:           51\n")

	require.Equal(
		t, fn.Some[uint32](800_000),
		b.Packet.Inputs[0].RequiredHeightLocktime,
	)
}

func TestNetParams(t *testing.T) {
	t.Parallel()

	for _, network := range []string{
		"mainnet", "testnet", "regtest", "simnet", "signet",
	} {
		params, err := netParams(network)
		require.NoError(t, err)
		require.NotNil(t, params)
	}

	_, err := netParams("litecoin")
	require.Error(t, err)
}

func TestReadPsbtArg(t *testing.T) {
	t.Parallel()

	arg, err := readPsbtArg([]string{"cHNidP8="})
	require.NoError(t, err)
	require.Equal(t, "cHNidP8=", arg)

	_, err = readPsbtArg([]string{"a", "b"})
	require.Error(t, err)
}
