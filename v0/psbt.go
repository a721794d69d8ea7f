// Package v0 implements the original PSBT generation defined in BIP-174:
// a complete unsigned transaction in the global scope plus one signing scope
// per input and output.
package v0

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/wire"
	"psbtkit/hd"
	"psbtkit/raw"
)

var (
	// ErrMissingUnsignedTx is returned when a version 0 PSBT has no
	// unsigned transaction.
	ErrMissingUnsignedTx = errors.New("psbt has no unsigned transaction")

	// ErrNotVersion0 is returned when bytes of another PSBT generation are
	// given to the version 0 decoder.
	ErrNotVersion0 = errors.New("psbt is not version 0")
)

// Psbt is a version 0 PSBT.
type Psbt struct {
	// UnsignedTx is the transaction being signed. Its inputs carry no
	// scriptSig or witness.
	UnsignedTx *wire.MsgTx

	// XPub maps the extended public keys relevant to this transaction to
	// their key source.
	XPub hd.XPubMap

	// Inputs holds one record per input of UnsignedTx, in order.
	Inputs []Input

	// Outputs holds one record per output of UnsignedTx, in order.
	Outputs []Output

	// Proprietary holds the global vendor namespaced fields.
	Proprietary raw.ProprietaryMap

	// Unknown holds the global fields whose type is not known.
	Unknown raw.UnknownMap

	// ExplicitVersion is set if the global scope carries a version field.
	// The field is optional for version 0 and is only written back when
	// it was read.
	ExplicitVersion bool
}

// New creates a version 0 PSBT around an unsigned transaction. The packet
// takes ownership of tx.
func New(tx *wire.MsgTx) (*Psbt, error) {
	if !isUnsigned(tx) {
		return nil, psbt.ErrInvalidRawTxSigned
	}

	return &Psbt{
		UnsignedTx: tx,
		Inputs:     make([]Input, len(tx.TxIn)),
		Outputs:    make([]Output, len(tx.TxOut)),
	}, nil
}

// Decode reads a version 0 PSBT in binary form.
func Decode(r io.Reader) (*Psbt, error) {
	if err := raw.ReadMagic(r); err != nil {
		return nil, err
	}

	global, err := raw.ReadMap(r)
	if err != nil {
		return nil, fmt.Errorf("global scope: %w", err)
	}

	version, err := raw.GlobalVersion(global)
	if err != nil {
		return nil, err
	}
	if version != 0 {
		return nil, fmt.Errorf("%w: version %d", ErrNotVersion0,
			version)
	}

	return DecodeSections(global, r)
}

// DecodeSections builds a version 0 PSBT from an already read global scope
// and reads the input and output scopes that follow it from r.
func DecodeSections(global []raw.Pair, r io.Reader) (*Psbt, error) {
	p := &Psbt{}
	for _, pair := range global {
		if err := p.decodeGlobal(pair); err != nil {
			return nil, fmt.Errorf("global scope: %w", err)
		}
	}
	if p.UnsignedTx == nil {
		return nil, ErrMissingUnsignedTx
	}

	p.Inputs = make([]Input, len(p.UnsignedTx.TxIn))
	for i := range p.Inputs {
		pairs, err := raw.ReadMap(r)
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}

		for _, pair := range pairs {
			if err := p.Inputs[i].DecodePair(pair); err != nil {
				return nil, fmt.Errorf("input %d: %w", i, err)
			}
		}
	}

	p.Outputs = make([]Output, len(p.UnsignedTx.TxOut))
	for i := range p.Outputs {
		pairs, err := raw.ReadMap(r)
		if err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}

		for _, pair := range pairs {
			if err := p.Outputs[i].DecodePair(pair); err != nil {
				return nil, fmt.Errorf("output %d: %w", i, err)
			}
		}
	}

	log.Debugf("Decoded version 0 PSBT %v with %d inputs and %d outputs",
		p.UnsignedTx.TxHash(), len(p.Inputs), len(p.Outputs))

	return p, p.SanityCheck()
}

func (p *Psbt) decodeGlobal(pair raw.Pair) error {
	t := GlobalType(pair.Key.Type)
	switch {
	case t == UnsignedTxType:
		if err := noKeyData(pair); err != nil {
			return err
		}

		// BIP-174 requires the unsigned transaction in the
		// serialization without witnesses.
		tx := wire.NewMsgTx(2)
		r := bytes.NewReader(pair.Value)
		if err := tx.DeserializeNoWitness(r); err != nil {
			return err
		}
		if r.Len() != 0 {
			return fmt.Errorf("%w: %d trailing bytes after unsigned "+
				"transaction", psbt.ErrInvalidPsbtFormat, r.Len())
		}
		if !isUnsigned(tx) {
			return psbt.ErrInvalidRawTxSigned
		}
		p.UnsignedTx = tx

	case pair.Key.Type == hd.XPubType:
		return p.XPub.Insert(pair)

	case pair.Key.Type == raw.GlobalVersionType:
		version, err := raw.ReadUint32(pair)
		if err != nil {
			return err
		}
		if version != 0 {
			return fmt.Errorf("%w: version %d", ErrNotVersion0,
				version)
		}
		p.ExplicitVersion = true

	case isV2Global(t):
		return fmt.Errorf("%w: global field %#x requires version 2",
			psbt.ErrInvalidPsbtFormat, pair.Key.Type)

	default:
		raw.Insert(pair, &p.Proprietary, &p.Unknown)
	}

	return nil
}

// SanityCheck verifies that the records line up with the unsigned
// transaction and that the transaction is unsigned.
func (p *Psbt) SanityCheck() error {
	if p.UnsignedTx == nil {
		return ErrMissingUnsignedTx
	}
	if !isUnsigned(p.UnsignedTx) {
		return psbt.ErrInvalidRawTxSigned
	}

	if len(p.Inputs) != len(p.UnsignedTx.TxIn) {
		return fmt.Errorf("%w: %d input records for %d transaction "+
			"inputs", psbt.ErrInvalidPsbtFormat, len(p.Inputs),
			len(p.UnsignedTx.TxIn))
	}
	if len(p.Outputs) != len(p.UnsignedTx.TxOut) {
		return fmt.Errorf("%w: %d output records for %d transaction "+
			"outputs", psbt.ErrInvalidPsbtFormat, len(p.Outputs),
			len(p.UnsignedTx.TxOut))
	}

	return nil
}

// Serialize writes the binary form of the PSBT.
func (p *Psbt) Serialize(w io.Writer) error {
	if err := p.SanityCheck(); err != nil {
		return err
	}

	if err := raw.WriteMagic(w); err != nil {
		return err
	}

	var tx bytes.Buffer
	if err := p.UnsignedTx.SerializeNoWitness(&tx); err != nil {
		return err
	}

	var global raw.Scope
	global.Add(byte(UnsignedTxType), nil, tx.Bytes())
	p.XPub.AddTo(&global)
	if p.ExplicitVersion {
		global.Add(raw.GlobalVersionType, nil, raw.Uint32Bytes(0))
	}
	global.AddMaps(p.Proprietary, p.Unknown)
	if err := global.Write(w); err != nil {
		return err
	}

	for i := range p.Inputs {
		if err := p.Inputs[i].serialize(w); err != nil {
			return fmt.Errorf("input %d: %w", i, err)
		}
	}
	for i := range p.Outputs {
		if err := p.Outputs[i].serialize(w); err != nil {
			return fmt.Errorf("output %d: %w", i, err)
		}
	}

	return nil
}

// B64Encode returns the base64 encoding of the serialized PSBT.
func (p *Psbt) B64Encode() (string, error) {
	var b bytes.Buffer
	if err := p.Serialize(&b); err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(b.Bytes()), nil
}

// IsComplete returns true if every input is finalized.
func (p *Psbt) IsComplete() bool {
	for i := range p.Inputs {
		if !p.Inputs[i].IsFinalized() {
			return false
		}
	}

	return true
}

// Copy returns a deep copy of the PSBT.
func (p *Psbt) Copy() *Psbt {
	c := &Psbt{
		XPub:            p.XPub.Clone(),
		Proprietary:     p.Proprietary.Clone(),
		Unknown:         p.Unknown.Clone(),
		ExplicitVersion: p.ExplicitVersion,
	}
	if p.UnsignedTx != nil {
		c.UnsignedTx = p.UnsignedTx.Copy()
	}

	if p.Inputs != nil {
		c.Inputs = make([]Input, len(p.Inputs))
		for i := range p.Inputs {
			c.Inputs[i] = p.Inputs[i].Clone()
		}
	}
	if p.Outputs != nil {
		c.Outputs = make([]Output, len(p.Outputs))
		for i := range p.Outputs {
			c.Outputs[i] = p.Outputs[i].Clone()
		}
	}

	return c
}

// isUnsigned returns true if no input of tx carries a scriptSig or witness.
func isUnsigned(tx *wire.MsgTx) bool {
	for _, txIn := range tx.TxIn {
		if len(txIn.SignatureScript) != 0 || len(txIn.Witness) != 0 {
			return false
		}
	}

	return true
}
