package psbtkit

import (
	"github.com/btcsuite/btcd/wire"
	"psbtkit/v0"
)

// FromV0 converts a version 0 PSBT into the version 2 shape. Every input and
// output record is zipped with the transaction entry at the same position,
// so the record arrays must have exactly as many entries as the embedded
// transaction. The source is deep copied and stays valid.
func FromV0(p *v0.Psbt) (*Psbt, error) {
	tx := p.UnsignedTx
	if tx == nil {
		return nil, ErrMissingUnsignedTx
	}

	if len(p.Inputs) != len(tx.TxIn) {
		return nil, &CountMismatchError{
			Scope:     "input",
			Records:   len(p.Inputs),
			TxEntries: len(tx.TxIn),
		}
	}
	if len(p.Outputs) != len(tx.TxOut) {
		return nil, &CountMismatchError{
			Scope:     "output",
			Records:   len(p.Outputs),
			TxEntries: len(tx.TxOut),
		}
	}

	inputs := make([]Input, len(tx.TxIn))
	for i, txIn := range tx.TxIn {
		in, err := NewInputWith(i, p.Inputs[i].Clone(), txIn)
		if err != nil {
			return nil, err
		}
		inputs[i] = in
	}

	outputs := make([]Output, len(tx.TxOut))
	for i, txOut := range tx.TxOut {
		outputs[i] = NewOutputWith(i, p.Outputs[i].Clone(), txOut)
	}

	log.Debugf("Converted version 0 PSBT %v to version 2", tx.TxHash())

	return &Psbt{
		Version:          V2,
		XPub:             p.XPub.Clone(),
		TxVersion:        txVersionBits(tx.Version),
		FallbackLocktime: tx.LockTime,
		Inputs:           inputs,
		Outputs:          outputs,
		Proprietary:      p.Proprietary.Clone(),
		Unknown:          p.Unknown.Clone(),
		ExplicitVersion:  p.ExplicitVersion,
	}, nil
}

// ToV0 converts the PSBT into the version 0 shape. The embedded transaction
// carries the resolved locktime (see LockTime) and the signed transaction
// version. Per input locktime requirements and the modifiable flags have no
// version 0 field and are folded away. The result shares no memory with p.
func (p *Psbt) ToV0() *v0.Psbt {
	tx := wire.NewMsgTx(p.SignedTxVersion())
	tx.LockTime = p.LockTime()

	inputs := make([]v0.Input, len(p.Inputs))
	for i := range p.Inputs {
		in, txIn := p.Inputs[i].Split()
		inputs[i] = in
		tx.AddTxIn(txIn)
	}

	outputs := make([]v0.Output, len(p.Outputs))
	for i := range p.Outputs {
		out, txOut := p.Outputs[i].Split()
		outputs[i] = out
		tx.AddTxOut(txOut)
	}

	log.Debugf("Converted version 2 PSBT to version 0 with locktime %d",
		tx.LockTime)

	return &v0.Psbt{
		UnsignedTx:      tx,
		XPub:            p.XPub.Clone(),
		Inputs:          inputs,
		Outputs:         outputs,
		Proprietary:     p.Proprietary.Clone(),
		Unknown:         p.Unknown.Clone(),
		ExplicitVersion: p.ExplicitVersion,
	}
}
