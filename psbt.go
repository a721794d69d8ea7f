// Package psbtkit implements Partially Signed Bitcoin Transactions in both
// wire generations in circulation, the BIP-174 format (version 0) and the
// BIP-370 format (version 2), and converts losslessly between them.
package psbtkit

import (
	"math"

	"github.com/btcsuite/btcd/wire"
	"github.com/lightningnetwork/lnd/fn/v2"
	"psbtkit/hd"
	"psbtkit/raw"
)

// Psbt is a PSBT in the version 2 shape: the transaction version and
// locktime are standalone fields and every input and output record carries
// its own transaction data. Version records the generation the PSBT is
// serialized as.
type Psbt struct {
	// Version is the PSBT generation used for serialization.
	Version Version

	// XPub maps the extended public keys relevant to this transaction to
	// their key source.
	XPub hd.XPubMap

	// TxVersion is the bit pattern of the signed transaction version.
	TxVersion uint32

	// FallbackLocktime is the transaction locktime used when no input
	// requires one.
	FallbackLocktime uint32

	// TxModifiable holds the BIP-370 modifiable flags. The field has no
	// version 0 representation.
	TxModifiable fn.Option[uint8]

	// Inputs holds the input records in transaction order.
	Inputs []Input

	// Outputs holds the output records in transaction order.
	Outputs []Output

	// Proprietary holds the global vendor namespaced fields.
	Proprietary raw.ProprietaryMap

	// Unknown holds the global fields whose type is not known.
	Unknown raw.UnknownMap

	// ExplicitVersion is set if a version 0 PSBT was read with a version
	// field. It is written back when serializing as version 0. Version 2
	// always writes the field.
	ExplicitVersion bool
}

// With creates a PSBT from an unsigned transaction. Every input of tx must
// have an empty scriptSig and witness, otherwise an UnsignedTxInError naming
// the first offending input is returned. The transaction version is kept
// bit for bit and its locktime becomes the fallback locktime.
func With(tx *wire.MsgTx, version Version) (*Psbt, error) {
	if err := version.Validate(); err != nil {
		return nil, err
	}

	inputs := make([]Input, 0, len(tx.TxIn))
	for i, txIn := range tx.TxIn {
		in, err := NewInput(i, txIn)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, in)
	}

	outputs := make([]Output, 0, len(tx.TxOut))
	for i, txOut := range tx.TxOut {
		outputs = append(outputs, NewOutput(i, txOut))
	}

	log.Tracef("Created PSBT from transaction: %v", spewClosure(tx))

	return &Psbt{
		Version:          version,
		TxVersion:        txVersionBits(tx.Version),
		FallbackLocktime: tx.LockTime,
		Inputs:           inputs,
		Outputs:          outputs,
	}, nil
}

// ParseTxVersion converts a transaction version given as a plain integer
// into its 32 bit pattern. Both the signed and the unsigned reading of a
// 32 bit value are accepted; anything wider fails with a TxVersionError.
func ParseTxVersion(v int64) (uint32, error) {
	switch {
	case v >= math.MinInt32 && v < 0:
		return txVersionBits(int32(v)), nil

	case v >= 0 && v <= math.MaxUint32:
		return uint32(v), nil

	default:
		return 0, &TxVersionError{Version: v}
	}
}

// txVersionBits reinterprets the signed transaction version as its unsigned
// bit pattern.
func txVersionBits(v int32) uint32 {
	return uint32(v)
}

// SignedTxVersion returns the transaction version as the signed value a
// transaction carries.
func (p *Psbt) SignedTxVersion() int32 {
	return int32(p.TxVersion)
}

// LockTime resolves the locktime of the transaction: the largest locktime
// required by any input, or FallbackLocktime if no input requires one.
func (p *Psbt) LockTime() uint32 {
	var (
		lockTime uint32
		required bool
	)
	for i := range p.Inputs {
		p.Inputs[i].Locktime().WhenSome(func(l uint32) {
			lockTime = max(lockTime, l)
			required = true
		})
	}

	if !required {
		return p.FallbackLocktime
	}

	return lockTime
}

// Copy returns a deep copy of the PSBT.
func (p *Psbt) Copy() *Psbt {
	c := &Psbt{
		Version:          p.Version,
		XPub:             p.XPub.Clone(),
		TxVersion:        p.TxVersion,
		FallbackLocktime: p.FallbackLocktime,
		TxModifiable:     p.TxModifiable,
		Proprietary:      p.Proprietary.Clone(),
		Unknown:          p.Unknown.Clone(),
		ExplicitVersion:  p.ExplicitVersion,
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

// IsComplete returns true if every input is finalized.
func (p *Psbt) IsComplete() bool {
	for i := range p.Inputs {
		if !p.Inputs[i].IsFinalized() {
			return false
		}
	}

	return true
}
