package psbtkit

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/stretchr/testify/require"
	"psbtkit/hd"
)

const (
	nonWitnessUtxo = "020000000202da1468a43ba1474d4e1f50c17954ceb14063" +
		"1078b16fbfba211e58149b218f000000006a47304402203464da615ac05a9c" +
		"f107ca830d2845d89f0ddb70ccf20ebde54b3497d3cf17ff022025a2223ad9" +
		"3ff6ff8fef09c0d5bc9067d16cfb7597c309abeeb26bd9b8d3e78b832103a2" +
		"86c4321008385ba8df8a77dee96badaf1fc07b05b2622bb846ff78f4b910eb" +
		"ffffffff6759e6b030e582cfccc27e03aa1d18b087ceba4aa0cc79cfda7fc5" +
		"e874f7de70000000006b483045022100c66c370da1d64fee467f5a6730deee" +
		"69f1109662754ffb4307e90307793e955902203bc989966640cfce169fcce0" +
		"d95775d555986e54a4fceca8e59463e5b81fa78f032103a286c4321008385b" +
		"a8df8a77dee96badaf1fc07b05b2622bb846ff78f4b910ebffffffff0260ae" +
		"0a00000000001976a9145662a3e128e04aef586b4cd9ce79cdd06fae97e788" +
		"ac50c30000000000001976a9145662a3e128e04aef586b4cd9ce79cdd06fae" +
		"97e788ac00000000"

	// finalizedPsbtHex is a version 0 PSBT with one input that carries a
	// final taproot key spend witness.
	finalizedPsbtHex = "70736274ff01005e0200000001e9f3c43d438fd5d359ccf9" +
		"9334824b473c2ea97d8cbcaa2c157609703959f7480100000000ffffffff01" +
		"e80300000000000022512064729335d854ed8b52c83f02d7695630167de3f0" +
		"bda3d511dfe881dd4d4aa4ca00000000000100fd0901020000000001" +
		"01d2ec50d5ef95d1f0811d3403fe84a6260472b51cc30a7e7158c794918d3c" +
		"bcf20000000000feffffff03a97c1b0000000000160014abf3b63c1cb79ee3" +
		"009989475d147273c013ba2a701700000000000022512064729335d854ed8b" +
		"52c83f02d7695630167de3f0bda3d511dfe881dd4d4aa4cae8030000000000" +
		"00160014900ac7e578ced02be6d3db072328a76e9a6d3ee102473044022" +
		"02c751e6be6b033e003b136968cc7c325f846412fff54494c8abe0176e0b05f" +
		"c80220371419eeecf71815f6e51bb8400548facdb38ca85c13ec689e671244" +
		"58bf3a910121021d7e2a3ce13a374facccc4385ecbb9b25f7b590d0ebd7bad" +
		"06371e3710e575643a21250001012b701700000000000022512064729335d8" +
		"54ed8b52c83f02d7695630167de3f0bda3d511dfe881dd4d4aa4ca0108430" +
		"1418e5f4cabc6e3860c3e223abf79ba7793301a4e394d436d019c37ab44c9d" +
		"1b6a3ca5b26974030926d830fb72e8121083d41a52495cc34a76e3e0a059cb" +
		"dfde96a830000"

	finalizedTxHex = "02000000000101e9f3c43d438fd5d359ccf99334824b473c2e" +
		"a97d8cbcaa2c157609703959f7480100000000ffffffff01e8030000000000" +
		"0022512064729335d854ed8b52c83f02d7695630167de3f0bda3d511dfe881" +
		"dd4d4aa4ca01418e5f4cabc6e3860c3e223abf79ba7793301a4e394d436d01" +
		"9c37ab44c9d1b6a3ca5b26974030926d830fb72e8121083d41a52495cc34a7" +
		"6e3e0a059cbdfde96a8300000000"

	p2pkhScript  = "76a9145662a3e128e04aef586b4cd9ce79cdd06fae97e788ac"
	p2wpkhScript = "00145662a3e128e04aef586b4cd9ce79cdd06fae97e7"
)

var (
	testIns = []Outpoint{{
		TxID: "43442b57048e0e188e1346caf7435372ddb9ce33b4da870a18d9818" +
			"b0e4542ea",
		Index: 0,
	}, {
		TxID: "456ae529982ebfe0e26b90f306b49df0c5a8b40537f9c28d6962549" +
			"c7cb8262a",
		Index: 0,
	}}

	testOuts = []Payment{{
		Address: "moPiaBwnvbowi3YMJ1UmGTjDUEyk2ckV39",
		Amount:  700000,
	}, {
		Address: "tb1q2e328cfgup9w7krtfnvuu7wd6ph6a9l8cdwakd",
		Amount:  900000,
	}}
)

func newTestBuilder(t *testing.T, opts ...BuilderOption) *Builder {
	t.Helper()

	b, err := NewBuilder(&chaincfg.SigNetParams, testIns, testOuts, opts...)
	require.NoError(t, err)

	return b
}

func TestBuilder_NewBuilder(t *testing.T) {
	t.Parallel()

	b := newTestBuilder(t)
	require.Equal(t, V2, b.Packet.Version)
	require.EqualValues(t, 2, b.Packet.TxVersion)
	require.Zero(t, b.Packet.FallbackLocktime)

	ins := b.GetInputs()
	require.Len(t, ins, 2)
	for i, in := range ins {
		require.Equal(t, testIns[i].TxID, in.PreviousOutPoint.Hash.String())
		require.Equal(t, testIns[i].Index, in.PreviousOutPoint.Index)
		require.Equal(t, uint32(wire.MaxTxInSequenceNum), in.Sequence)
	}

	outs := b.GetOutputs()
	require.Len(t, outs, 2)
	require.EqualValues(t, 700000, outs[0].Value)
	require.Equal(t, p2pkhScript, hex.EncodeToString(outs[0].PkScript))
	require.EqualValues(t, 900000, outs[1].Value)
	require.Equal(t, p2wpkhScript, hex.EncodeToString(outs[1].PkScript))
}

func TestBuilder_Options(t *testing.T) {
	t.Parallel()

	b := newTestBuilder(t,
		WithTxVersion(-1), WithFallbackLocktime(800_000),
		WithPsbtVersion(V0),
	)
	require.Equal(t, V0, b.Packet.Version)
	require.EqualValues(t, 0xffffffff, b.Packet.TxVersion)
	require.EqualValues(t, -1, b.Packet.SignedTxVersion())
	require.EqualValues(t, 800_000, b.Packet.LockTime())

	_, err := NewBuilder(
		&chaincfg.SigNetParams, testIns, testOuts,
		WithTxVersion(1<<33),
	)
	require.ErrorIs(t, err, ErrInvalidTxVersion)

	_, err = NewBuilder(
		&chaincfg.SigNetParams, testIns, testOuts, WithPsbtVersion(1),
	)
	require.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestBuilder_InvalidPayments(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		out  Payment
	}{{
		name: "mainnet address on signet",
		out: Payment{
			Address: "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4",
			Amount:  1000,
		},
	}, {
		name: "garbage address",
		out:  Payment{Address: "not an address", Amount: 1000},
	}, {
		name: "bad script hex",
		out:  Payment{Script: "zz", Amount: 1000},
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewBuilder(
				&chaincfg.SigNetParams, testIns, []Payment{tc.out},
			)
			require.Error(t, err)
		})
	}

	_, err := NewBuilder(
		&chaincfg.SigNetParams, []Outpoint{{TxID: "zz"}}, testOuts,
	)
	require.Error(t, err)
}

func TestBuilder_AddOutputs(t *testing.T) {
	t.Parallel()

	b := newTestBuilder(t)
	err := b.AddOutputs([]Payment{{Script: "51", Amount: 330}})
	require.NoError(t, err)

	require.Len(t, b.Packet.Outputs, 3)
	require.Equal(t, 2, b.Packet.Outputs[2].Index)
	require.Equal(t, []byte{0x51}, b.Packet.Outputs[2].Script)

	require.NoError(t, b.AddInput(Outpoint{TxID: testIns[0].TxID, Index: 1}))
	require.Len(t, b.Packet.Inputs, 3)
	require.Equal(t, 2, b.Packet.Inputs[2].Index)
}

func TestBuilder_UpdateInputUtxo(t *testing.T) {
	t.Parallel()

	b := newTestBuilder(t)
	err := b.UpdateInputUtxo([]InputUtxo{{
		UtxoType:       NonWitness,
		SighashType:    txscript.SigHashSingle | txscript.SigHashAnyOneCanPay,
		NonWitnessUtxo: nonWitnessUtxo,
		Index:          0,
	}, {
		UtxoType:            Witness,
		SighashType:         txscript.SigHashSingle,
		WitnessUtxoPkScript: p2wpkhScript,
		WitnessUtxoAmount:   1000000,
		Index:               1,
	}})
	require.NoError(t, err)

	in := b.Packet.Inputs[0]
	require.NotNil(t, in.NonWitnessUtxo)
	require.Equal(t, testIns[0].TxID, in.NonWitnessUtxo.TxHash().String())
	require.Equal(
		t, fn.Some(txscript.SigHashSingle|txscript.SigHashAnyOneCanPay),
		in.SighashType,
	)

	in = b.Packet.Inputs[1]
	require.EqualValues(t, 1000000, in.WitnessUtxo.Value)
	require.Equal(t, p2wpkhScript, hex.EncodeToString(in.WitnessUtxo.PkScript))
	require.Equal(t, fn.Some(txscript.SigHashSingle), in.SighashType)

	// The fields survive encoding.
	encoded, err := b.ToString()
	require.NoError(t, err)
	resumed, err := NewBuilderFromString(&chaincfg.SigNetParams, encoded)
	require.NoError(t, err)
	require.Equal(t, b.Packet, resumed.Packet)
}

func TestBuilder_UpdateInputUtxoErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		utxo    InputUtxo
		wantErr error
	}{{
		name: "utxo of another transaction",
		utxo: InputUtxo{
			UtxoType:       NonWitness,
			NonWitnessUtxo: nonWitnessUtxo,
			Index:          1,
		},
	}, {
		name: "index out of range",
		utxo: InputUtxo{
			UtxoType:            Witness,
			WitnessUtxoPkScript: p2wpkhScript,
			Index:               2,
		},
		wantErr: ErrIndexOutOfRange,
	}, {
		name: "unknown utxo type",
		utxo: InputUtxo{Index: 0},
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			b := newTestBuilder(t)
			err := b.UpdateInputUtxo([]InputUtxo{tc.utxo})
			require.Error(t, err)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestBuilder_SetRequiredLocktime(t *testing.T) {
	t.Parallel()

	b := newTestBuilder(t, WithFallbackLocktime(10))
	require.NoError(t, b.SetRequiredLocktime(0, 800_000))
	require.Equal(
		t, fn.Some[uint32](800_000),
		b.Packet.Inputs[0].RequiredHeightLocktime,
	)
	require.EqualValues(t, 800_000, b.Packet.LockTime())

	require.NoError(t, b.SetRequiredLocktime(1, 1_700_000_000))
	require.Equal(
		t, fn.Some[uint32](1_700_000_000),
		b.Packet.Inputs[1].RequiredTimeLocktime,
	)
	require.EqualValues(t, 1_700_000_000, b.Packet.LockTime())

	require.ErrorIs(t, b.SetRequiredLocktime(0, 0), ErrInvalidLocktime)
	require.Equal(
		t, fn.Some[uint32](800_000),
		b.Packet.Inputs[0].RequiredHeightLocktime,
	)

	require.ErrorIs(
		t, b.SetRequiredLocktime(5, 100), ErrIndexOutOfRange,
	)
}

func TestBuilder_AddXPub(t *testing.T) {
	t.Parallel()

	xpub, err := hd.ParseExtendedKey(testXPub)
	require.NoError(t, err)

	b := newTestBuilder(t)
	source := hd.KeySource{
		Fingerprint: 0x3e194234,
		Path:        []uint32{0x80000054, 0x80000000, 0x80000000},
	}
	b.AddXPub(xpub, source)
	source.Path[0] = 0

	require.Len(t, b.Packet.XPub, 1)
	require.EqualValues(t, 0x80000054, b.Packet.XPub[xpub].Path[0])

	encoded, err := b.ToBase64()
	require.NoError(t, err)
	resumed, err := NewBuilderFromString(&chaincfg.SigNetParams, encoded)
	require.NoError(t, err)
	require.Equal(t, b.Packet, resumed.Packet)
}

func TestBuilder_NewBuilderFromString(t *testing.T) {
	t.Parallel()

	b, err := NewBuilderFromString(
		&chaincfg.TestNet3Params, finalizedPsbtHex,
	)
	require.NoError(t, err)
	require.Equal(t, V0, b.Packet.Version)
	require.True(t, b.IsComplete())

	encoded, err := b.ToString()
	require.NoError(t, err)
	require.Equal(t, finalizedPsbtHex, encoded)

	txHex, err := b.ExtractPsbtTransaction()
	require.NoError(t, err)
	require.Equal(t, finalizedTxHex, txHex)

	outs := []Payment{{
		Address: "tb1q2e328cfgup9w7krtfnvuu7wd6ph6a9l8cdwakd",
		Amount:  700000,
	}}
	require.NoError(t, b.AddOutputs(outs))
	require.Len(t, b.GetOutputs(), 2)

	_, err = NewBuilderFromString(&chaincfg.TestNet3Params, "70736274")
	require.Error(t, err)
}

func TestBuilder_AddSigIn(t *testing.T) {
	t.Parallel()

	b := newTestBuilder(t)
	require.False(t, b.IsComplete())

	witnessUtxo := wire.NewTxOut(1000000, []byte{0x00, 0x14, 0x01})
	witness := []byte{0x01, 0x02, 0xaa, 0xbb}
	for i := range b.Packet.Inputs {
		err := b.AddSigIn(
			witnessUtxo, txscript.SigHashDefault, witness, i,
		)
		require.NoError(t, err)
	}
	require.True(t, b.IsComplete())

	txHex, err := b.ExtractPsbtTransaction()
	require.NoError(t, err)

	txBytes, err := hex.DecodeString(txHex)
	require.NoError(t, err)

	var tx wire.MsgTx
	require.NoError(t, tx.Deserialize(bytes.NewReader(txBytes)))
	require.Len(t, tx.TxIn, 2)
	require.Equal(t, wire.TxWitness{{0xaa, 0xbb}}, tx.TxIn[1].Witness)

	err = b.AddSigIn(witnessUtxo, txscript.SigHashDefault, witness, -1)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
}
