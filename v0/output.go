package v0

import (
	"bytes"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/btcutil/psbt"
	"psbtkit/raw"
)

// Output holds the fields of one PSBT output that every generation shares.
// Value and script live in the unsigned transaction for version 0.
type Output struct {
	RedeemScript       []byte
	WitnessScript      []byte
	Bip32Derivation    []*psbt.Bip32Derivation
	TaprootInternalKey []byte

	// Proprietary holds the vendor namespaced fields of this output.
	Proprietary raw.ProprietaryMap

	// Unknown holds the fields of this output whose type is not known.
	Unknown raw.UnknownMap
}

// Clone returns a deep copy of the output.
func (out *Output) Clone() Output {
	return Output{
		RedeemScript:       bytes.Clone(out.RedeemScript),
		WitnessScript:      bytes.Clone(out.WitnessScript),
		Bip32Derivation:    cloneDerivations(out.Bip32Derivation),
		TaprootInternalKey: bytes.Clone(out.TaprootInternalKey),
		Proprietary:        out.Proprietary.Clone(),
		Unknown:            out.Unknown.Clone(),
	}
}

// DecodePair decodes one key-value pair of an output scope.
func (out *Output) DecodePair(pair raw.Pair) error {
	switch t := OutputType(pair.Key.Type); t {
	case RedeemScriptOutputType:
		return setBytes(pair, &out.RedeemScript)

	case WitnessScriptOutputType:
		return setBytes(pair, &out.WitnessScript)

	case Bip32DerivationOutputType:
		derivation, err := readDerivation(pair)
		if err != nil {
			return err
		}
		out.Bip32Derivation = append(out.Bip32Derivation, derivation)

	case TaprootInternalKeyOutType:
		if len(pair.Value) != 32 {
			return fmt.Errorf("%w: taproot internal key of %d "+
				"bytes", psbt.ErrInvalidPsbtFormat,
				len(pair.Value))
		}
		return setBytes(pair, &out.TaprootInternalKey)

	default:
		if IsV2Output(t) {
			return fmt.Errorf("%w: output field %#x requires "+
				"version 2", psbt.ErrInvalidPsbtFormat, byte(t))
		}

		raw.Insert(pair, &out.Proprietary, &out.Unknown)
	}

	return nil
}

// AddKnown queues every typed field of the output.
func (out *Output) AddKnown(s *raw.Scope) {
	addBytes(s, byte(RedeemScriptOutputType), out.RedeemScript)
	addBytes(s, byte(WitnessScriptOutputType), out.WitnessScript)
	addDerivations(
		s, byte(Bip32DerivationOutputType), out.Bip32Derivation,
	)
	addBytes(s, byte(TaprootInternalKeyOutType), out.TaprootInternalKey)
}

func (out *Output) serialize(w io.Writer) error {
	var s raw.Scope
	out.AddKnown(&s)
	s.AddMaps(out.Proprietary, out.Unknown)

	return s.Write(w)
}
