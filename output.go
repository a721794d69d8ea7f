package psbtkit

import (
	"bytes"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"psbtkit/v0"
)

// Output is one output of a PSBT.
type Output struct {
	// Index is the position of the output in the transaction.
	Index int

	// Amount is the value of the output.
	Amount btcutil.Amount

	// Script is the output script.
	Script []byte

	v0.Output
}

// NewOutput creates the output record at index from a transaction output.
func NewOutput(index int, txOut *wire.TxOut) Output {
	return NewOutputWith(index, v0.Output{}, txOut)
}

// NewOutputWith joins the fields of a version 0 output with its transaction
// output. The record takes ownership of out.
func NewOutputWith(index int, out v0.Output, txOut *wire.TxOut) Output {
	return Output{
		Index:  index,
		Amount: btcutil.Amount(txOut.Value),
		Script: bytes.Clone(txOut.PkScript),
		Output: out,
	}
}

// Split separates the record into its version 0 fields and the transaction
// output. It is the inverse of NewOutputWith.
func (o *Output) Split() (v0.Output, *wire.TxOut) {
	txOut := wire.NewTxOut(int64(o.Amount), bytes.Clone(o.Script))

	return o.Output.Clone(), txOut
}

// Clone returns a deep copy of the output.
func (o *Output) Clone() Output {
	c := *o
	c.Script = bytes.Clone(o.Script)
	c.Output = o.Output.Clone()

	return c
}
