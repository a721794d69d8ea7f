package v0

import (
	"bytes"
	"fmt"
	"io"
	"slices"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/lightningnetwork/lnd/fn/v2"
	"psbtkit/hd"
	"psbtkit/raw"
)

// Input holds the signing related fields of one PSBT input. These are the
// fields every PSBT generation shares; the reference to the spent output
// lives in the unsigned transaction for version 0.
type Input struct {
	NonWitnessUtxo     *wire.MsgTx
	WitnessUtxo        *wire.TxOut
	PartialSigs        []*psbt.PartialSig
	SighashType        fn.Option[txscript.SigHashType]
	RedeemScript       []byte
	WitnessScript      []byte
	Bip32Derivation    []*psbt.Bip32Derivation
	FinalScriptSig     []byte
	FinalScriptWitness []byte
	TaprootKeySpendSig []byte
	TaprootInternalKey []byte
	TaprootMerkleRoot  []byte

	// Proprietary holds the vendor namespaced fields of this input.
	Proprietary raw.ProprietaryMap

	// Unknown holds the fields of this input whose type is not known.
	Unknown raw.UnknownMap
}

// Clone returns a deep copy of the input.
func (in *Input) Clone() Input {
	c := Input{
		SighashType:        in.SighashType,
		RedeemScript:       bytes.Clone(in.RedeemScript),
		WitnessScript:      bytes.Clone(in.WitnessScript),
		FinalScriptSig:     bytes.Clone(in.FinalScriptSig),
		FinalScriptWitness: bytes.Clone(in.FinalScriptWitness),
		TaprootKeySpendSig: bytes.Clone(in.TaprootKeySpendSig),
		TaprootInternalKey: bytes.Clone(in.TaprootInternalKey),
		TaprootMerkleRoot:  bytes.Clone(in.TaprootMerkleRoot),
		PartialSigs:        clonePartialSigs(in.PartialSigs),
		Bip32Derivation:    cloneDerivations(in.Bip32Derivation),
		Proprietary:        in.Proprietary.Clone(),
		Unknown:            in.Unknown.Clone(),
	}

	if in.NonWitnessUtxo != nil {
		c.NonWitnessUtxo = in.NonWitnessUtxo.Copy()
	}
	if in.WitnessUtxo != nil {
		c.WitnessUtxo = cloneTxOut(in.WitnessUtxo)
	}

	return c
}

// IsFinalized returns true if the input carries a final scriptSig or
// witness.
func (in *Input) IsFinalized() bool {
	return in.FinalScriptSig != nil || in.FinalScriptWitness != nil
}

// DecodePair decodes one key-value pair of an input scope into the matching
// field. Pairs of unknown type are kept verbatim.
func (in *Input) DecodePair(pair raw.Pair) error {
	switch t := InputType(pair.Key.Type); t {
	case NonWitnessUtxoType:
		if err := noKeyData(pair); err != nil {
			return err
		}

		tx := wire.NewMsgTx(2)
		r := bytes.NewReader(pair.Value)
		if err := tx.Deserialize(r); err != nil {
			return fmt.Errorf("non-witness utxo: %w", err)
		}
		if r.Len() != 0 {
			return fmt.Errorf("%w: %d trailing bytes after "+
				"non-witness utxo", psbt.ErrInvalidPsbtFormat,
				r.Len())
		}
		in.NonWitnessUtxo = tx

	case WitnessUtxoType:
		if err := noKeyData(pair); err != nil {
			return err
		}

		txOut, err := readTxOut(pair.Value)
		if err != nil {
			return fmt.Errorf("witness utxo: %w", err)
		}
		in.WitnessUtxo = txOut

	case PartialSigType:
		pubKey := []byte(pair.Key.Data)
		if err := validatePubKey(pubKey); err != nil {
			return err
		}

		in.PartialSigs = append(in.PartialSigs, &psbt.PartialSig{
			PubKey:    pubKey,
			Signature: pair.Value,
		})

	case SighashType:
		sighash, err := raw.ReadUint32(pair)
		if err != nil {
			return err
		}
		in.SighashType = fn.Some(txscript.SigHashType(sighash))

	case RedeemScriptInputType:
		return setBytes(pair, &in.RedeemScript)

	case WitnessScriptInputType:
		return setBytes(pair, &in.WitnessScript)

	case Bip32DerivationInputType:
		derivation, err := readDerivation(pair)
		if err != nil {
			return err
		}
		in.Bip32Derivation = append(in.Bip32Derivation, derivation)

	case FinalScriptSigType:
		return setBytes(pair, &in.FinalScriptSig)

	case FinalScriptWitnessType:
		return setBytes(pair, &in.FinalScriptWitness)

	case TaprootKeySpendSigType:
		if len(pair.Value) != 64 && len(pair.Value) != 65 {
			return fmt.Errorf("%w: taproot key spend signature "+
				"of %d bytes", psbt.ErrInvalidPsbtFormat,
				len(pair.Value))
		}
		return setBytes(pair, &in.TaprootKeySpendSig)

	case TaprootInternalKeyInType:
		if len(pair.Value) != 32 {
			return fmt.Errorf("%w: taproot internal key of %d "+
				"bytes", psbt.ErrInvalidPsbtFormat,
				len(pair.Value))
		}
		return setBytes(pair, &in.TaprootInternalKey)

	case TaprootMerkleRootType:
		if len(pair.Value) != 32 {
			return fmt.Errorf("%w: taproot merkle root of %d "+
				"bytes", psbt.ErrInvalidPsbtFormat,
				len(pair.Value))
		}
		return setBytes(pair, &in.TaprootMerkleRoot)

	default:
		if IsV2Input(t) {
			return fmt.Errorf("%w: input field %#x requires "+
				"version 2", psbt.ErrInvalidPsbtFormat, byte(t))
		}

		raw.Insert(pair, &in.Proprietary, &in.Unknown)
	}

	return nil
}

// AddKnown queues every typed field of the input. Proprietary and unknown
// pairs are left to the caller so that generation specific fields can be
// added to the same scope.
func (in *Input) AddKnown(s *raw.Scope) error {
	if in.NonWitnessUtxo != nil {
		var buf bytes.Buffer
		if err := in.NonWitnessUtxo.Serialize(&buf); err != nil {
			return err
		}
		s.Add(byte(NonWitnessUtxoType), nil, buf.Bytes())
	}

	if in.WitnessUtxo != nil {
		var buf bytes.Buffer
		if err := wire.WriteTxOut(&buf, 0, 0, in.WitnessUtxo); err != nil {
			return err
		}
		s.Add(byte(WitnessUtxoType), nil, buf.Bytes())
	}

	for _, sig := range in.PartialSigs {
		s.Add(byte(PartialSigType), sig.PubKey, sig.Signature)
	}

	// A present sighash of 0 is SIGHASH_DEFAULT and is still written.
	in.SighashType.WhenSome(func(sighash txscript.SigHashType) {
		s.Add(byte(SighashType), nil, raw.Uint32Bytes(uint32(sighash)))
	})

	addDerivations(s, byte(Bip32DerivationInputType), in.Bip32Derivation)

	fields := []struct {
		t     InputType
		value []byte
	}{
		{RedeemScriptInputType, in.RedeemScript},
		{WitnessScriptInputType, in.WitnessScript},
		{FinalScriptSigType, in.FinalScriptSig},
		{FinalScriptWitnessType, in.FinalScriptWitness},
		{TaprootKeySpendSigType, in.TaprootKeySpendSig},
		{TaprootInternalKeyInType, in.TaprootInternalKey},
		{TaprootMerkleRootType, in.TaprootMerkleRoot},
	}
	for _, f := range fields {
		addBytes(s, byte(f.t), f.value)
	}

	return nil
}

// serialize writes the complete input scope.
func (in *Input) serialize(w io.Writer) error {
	var s raw.Scope
	if err := in.AddKnown(&s); err != nil {
		return err
	}
	s.AddMaps(in.Proprietary, in.Unknown)

	return s.Write(w)
}

func noKeyData(pair raw.Pair) error {
	if pair.Key.HasData() {
		return fmt.Errorf("%w: unexpected key data for type %#x",
			psbt.ErrInvalidPsbtFormat, pair.Key.Type)
	}

	return nil
}

func setBytes(pair raw.Pair, field *[]byte) error {
	if err := noKeyData(pair); err != nil {
		return err
	}
	*field = pair.Value

	return nil
}

func addBytes(s *raw.Scope, keyType byte, value []byte) {
	if value != nil {
		s.Add(keyType, nil, value)
	}
}

func validatePubKey(pubKey []byte) error {
	if _, err := btcec.ParsePubKey(pubKey); err != nil {
		return fmt.Errorf("%w: invalid public key %x: %v",
			psbt.ErrInvalidPsbtFormat, pubKey, err)
	}

	return nil
}

func readDerivation(pair raw.Pair) (*psbt.Bip32Derivation, error) {
	pubKey := []byte(pair.Key.Data)
	if err := validatePubKey(pubKey); err != nil {
		return nil, err
	}

	source, err := hd.DecodeKeySource(pair.Value)
	if err != nil {
		return nil, err
	}

	return &psbt.Bip32Derivation{
		PubKey:               pubKey,
		MasterKeyFingerprint: source.Fingerprint,
		Bip32Path:            source.Path,
	}, nil
}

func addDerivations(s *raw.Scope, keyType byte,
	derivations []*psbt.Bip32Derivation) {

	for _, d := range derivations {
		source := hd.KeySource{
			Fingerprint: d.MasterKeyFingerprint,
			Path:        d.Bip32Path,
		}
		s.Add(keyType, d.PubKey, source.Bytes())
	}
}

func readTxOut(value []byte) (*wire.TxOut, error) {
	r := bytes.NewReader(value)

	var txOut wire.TxOut
	if err := wire.ReadTxOut(r, 0, 0, &txOut); err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after txout",
			psbt.ErrInvalidPsbtFormat, r.Len())
	}

	return &txOut, nil
}

func cloneTxOut(txOut *wire.TxOut) *wire.TxOut {
	return &wire.TxOut{
		Value:    txOut.Value,
		PkScript: bytes.Clone(txOut.PkScript),
	}
}

func clonePartialSigs(sigs []*psbt.PartialSig) []*psbt.PartialSig {
	if sigs == nil {
		return nil
	}

	c := make([]*psbt.PartialSig, len(sigs))
	for i, sig := range sigs {
		c[i] = &psbt.PartialSig{
			PubKey:    bytes.Clone(sig.PubKey),
			Signature: bytes.Clone(sig.Signature),
		}
	}

	return c
}

func cloneDerivations(
	derivations []*psbt.Bip32Derivation) []*psbt.Bip32Derivation {

	if derivations == nil {
		return nil
	}

	c := make([]*psbt.Bip32Derivation, len(derivations))
	for i, d := range derivations {
		c[i] = &psbt.Bip32Derivation{
			PubKey:               bytes.Clone(d.PubKey),
			MasterKeyFingerprint: d.MasterKeyFingerprint,
			Bip32Path:            slices.Clone(d.Bip32Path),
		}
	}

	return c
}
