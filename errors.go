package psbtkit

import (
	"errors"
	"fmt"

	"psbtkit/v0"
)

var (
	// ErrSignedTxIn is matched by UnsignedTxInError.
	ErrSignedTxIn = errors.New("transaction input is already signed")

	// ErrInvalidTxVersion is matched by TxVersionError.
	ErrInvalidTxVersion = errors.New("invalid transaction version")

	// ErrCountMismatch is matched by CountMismatchError.
	ErrCountMismatch = errors.New("record count does not match " +
		"transaction")

	// ErrUnsupportedVersion is matched by UnsupportedVersionError.
	ErrUnsupportedVersion = errors.New("unsupported psbt version")

	// ErrMissingUnsignedTx is returned when a version 0 container has no
	// embedded transaction.
	ErrMissingUnsignedTx = v0.ErrMissingUnsignedTx

	// ErrInvalidLocktime is returned when a required locktime is on the
	// wrong side of the height/time threshold.
	ErrInvalidLocktime = errors.New("invalid required locktime")

	// ErrIndexOutOfRange is returned when a record index does not exist.
	ErrIndexOutOfRange = errors.New("index out of range")
)

// UnsignedTxInError is returned when an input of a transaction that should
// be unsigned carries a scriptSig or witness.
type UnsignedTxInError struct {
	// Index is the position of the offending input.
	Index int
}

// Error returns a human readable description of the error.
func (e *UnsignedTxInError) Error() string {
	return fmt.Sprintf("transaction input %d has a non-empty scriptSig "+
		"or witness", e.Index)
}

// Is makes the error match ErrSignedTxIn.
func (e *UnsignedTxInError) Is(target error) bool {
	return target == ErrSignedTxIn
}

// TxVersionError is returned for a transaction version that does not fit in
// 32 bits.
type TxVersionError struct {
	Version int64
}

// Error returns a human readable description of the error.
func (e *TxVersionError) Error() string {
	return fmt.Sprintf("transaction version %d does not fit in 32 bits",
		e.Version)
}

// Is makes the error match ErrInvalidTxVersion.
func (e *TxVersionError) Is(target error) bool {
	return target == ErrInvalidTxVersion
}

// CountMismatchError is returned when the records of a version 0 container
// do not line up with its embedded transaction.
type CountMismatchError struct {
	// Scope is either "input" or "output".
	Scope string

	// Records is the number of PSBT records.
	Records int

	// TxEntries is the number of inputs or outputs of the transaction.
	TxEntries int
}

// Error returns a human readable description of the error.
func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("%d %s records for %d transaction %ss", e.Records,
		e.Scope, e.TxEntries, e.Scope)
}

// Is makes the error match ErrCountMismatch.
func (e *CountMismatchError) Is(target error) bool {
	return target == ErrCountMismatch
}

// UnsupportedVersionError is returned for a PSBT generation this package
// does not implement.
type UnsupportedVersionError struct {
	Version uint32
}

// Error returns a human readable description of the error.
func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported psbt version %d", e.Version)
}

// Is makes the error match ErrUnsupportedVersion.
func (e *UnsupportedVersionError) Is(target error) bool {
	return target == ErrUnsupportedVersion
}
