package psbtkit

import (
	"github.com/btcsuite/btcd/wire"
	"github.com/lightningnetwork/lnd/fn/v2"
	"psbtkit/v0"
)

// Input is one input of a PSBT. It carries the reference to the spent
// output next to the signing fields every PSBT generation shares.
type Input struct {
	// Index is the position of the input in the transaction.
	Index int

	// PreviousOutPoint is the output this input spends.
	PreviousOutPoint wire.OutPoint

	// Sequence is the sequence number of the transaction input.
	Sequence uint32

	// RequiredTimeLocktime is the minimum time based locktime this input
	// needs the transaction to carry.
	RequiredTimeLocktime fn.Option[uint32]

	// RequiredHeightLocktime is the minimum height based locktime this
	// input needs the transaction to carry.
	RequiredHeightLocktime fn.Option[uint32]

	v0.Input
}

// NewInput creates the input record at index from an unsigned transaction
// input.
func NewInput(index int, txIn *wire.TxIn) (Input, error) {
	return NewInputWith(index, v0.Input{}, txIn)
}

// NewInputWith joins the signing fields of a version 0 input with its
// unsigned transaction input. It fails if txIn carries a scriptSig or
// witness. The record takes ownership of in.
func NewInputWith(index int, in v0.Input, txIn *wire.TxIn) (Input, error) {
	if len(txIn.SignatureScript) != 0 || len(txIn.Witness) != 0 {
		return Input{}, &UnsignedTxInError{Index: index}
	}

	return Input{
		Index:            index,
		PreviousOutPoint: txIn.PreviousOutPoint,
		Sequence:         txIn.Sequence,
		Input:            in,
	}, nil
}

// Locktime returns the locktime this input requires. A time based
// requirement takes precedence over a height based one. None is returned if
// the input has no requirement.
func (i *Input) Locktime() fn.Option[uint32] {
	return i.RequiredTimeLocktime.Alt(i.RequiredHeightLocktime)
}

// Split separates the record into its version 0 signing fields and the
// unsigned transaction input. It is the inverse of NewInputWith.
func (i *Input) Split() (v0.Input, *wire.TxIn) {
	txIn := &wire.TxIn{
		PreviousOutPoint: i.PreviousOutPoint,
		Sequence:         i.Sequence,
	}

	return i.Input.Clone(), txIn
}

// Clone returns a deep copy of the input.
func (i *Input) Clone() Input {
	c := *i
	c.Input = i.Input.Clone()

	return c
}
