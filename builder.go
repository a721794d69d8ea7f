package psbtkit

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/lightningnetwork/lnd/fn/v2"
	"psbtkit/hd"
)

// Builder creates and updates a PSBT from plain outpoints, addresses and
// hex strings.
type Builder struct {
	NetParams *chaincfg.Params
	Packet    *Psbt
}

type builderOptions struct {
	txVersion        int64
	fallbackLocktime uint32
	version          Version
}

// BuilderOption customizes the PSBT created by NewBuilder.
type BuilderOption func(*builderOptions)

// WithTxVersion sets the transaction version. Negative values are taken as
// the signed reading of the 32 bit field.
func WithTxVersion(v int64) BuilderOption {
	return func(o *builderOptions) {
		o.txVersion = v
	}
}

// WithFallbackLocktime sets the locktime used when no input requires one.
func WithFallbackLocktime(l uint32) BuilderOption {
	return func(o *builderOptions) {
		o.fallbackLocktime = l
	}
}

// WithPsbtVersion sets the generation the PSBT is serialized as.
func WithPsbtVersion(v Version) BuilderOption {
	return func(o *builderOptions) {
		o.version = v
	}
}

// NewBuilder creates a PSBT spending ins and paying outs.
func NewBuilder(netParams *chaincfg.Params, ins []Outpoint, outs []Payment,
	opts ...BuilderOption) (*Builder, error) {

	cfg := builderOptions{
		txVersion: 2,
		version:   V2,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	txVersion, err := ParseTxVersion(cfg.txVersion)
	if err != nil {
		return nil, err
	}

	tx := wire.NewMsgTx(int32(txVersion))
	tx.LockTime = cfg.fallbackLocktime
	for _, in := range ins {
		txIn, err := in.txIn()
		if err != nil {
			return nil, err
		}
		tx.AddTxIn(txIn)
	}
	for _, out := range outs {
		txOut, err := out.txOut(netParams)
		if err != nil {
			return nil, err
		}
		tx.AddTxOut(txOut)
	}

	p, err := With(tx, cfg.version)
	if err != nil {
		return nil, err
	}

	return &Builder{NetParams: netParams, Packet: p}, nil
}

// NewBuilderFromString resumes a PSBT given in hex or base64.
func NewBuilderFromString(netParams *chaincfg.Params,
	encoded string) (*Builder, error) {

	encoded = strings.TrimSpace(encoded)

	var (
		p   *Psbt
		err error
	)
	if b, hexErr := hex.DecodeString(encoded); hexErr == nil {
		p, err = Decode(bytes.NewReader(b))
	} else {
		p, err = NewFromRawBytes(strings.NewReader(encoded), true)
	}
	if err != nil {
		return nil, err
	}

	return &Builder{NetParams: netParams, Packet: p}, nil
}

// AddInput appends an input spending in.
func (b *Builder) AddInput(in Outpoint) error {
	txIn, err := in.txIn()
	if err != nil {
		return err
	}

	input, err := NewInput(len(b.Packet.Inputs), txIn)
	if err != nil {
		return err
	}
	b.Packet.Inputs = append(b.Packet.Inputs, input)

	return nil
}

// AddOutputs appends one output per payment.
func (b *Builder) AddOutputs(outs []Payment) error {
	for _, out := range outs {
		txOut, err := out.txOut(b.NetParams)
		if err != nil {
			return err
		}

		b.Packet.Outputs = append(
			b.Packet.Outputs, NewOutput(len(b.Packet.Outputs), txOut),
		)
	}

	return nil
}

// SetRequiredLocktime records the locktime the input at index requires.
// Values below 500000000 are block heights, larger ones unix timestamps.
func (b *Builder) SetRequiredLocktime(index int, locktime uint32) error {
	in, err := b.input(index)
	if err != nil {
		return err
	}

	updated := *in
	if locktime < lockTimeThreshold {
		updated.RequiredHeightLocktime = fn.Some(locktime)
	} else {
		updated.RequiredTimeLocktime = fn.Some(locktime)
	}
	if err := updated.checkLocktimes(); err != nil {
		return err
	}
	*in = updated

	return nil
}

// UpdateInputUtxo attaches the spent outputs and sighash types.
func (b *Builder) UpdateInputUtxo(utxos []InputUtxo) error {
	for i := range utxos {
		in, err := b.input(utxos[i].Index)
		if err != nil {
			return err
		}

		if err := utxos[i].apply(in); err != nil {
			return fmt.Errorf("input %d: %w", utxos[i].Index, err)
		}
	}

	return nil
}

// AddSigIn attaches an externally produced final witness to the input at
// index.
func (b *Builder) AddSigIn(witnessUtxo *wire.TxOut,
	sighashType txscript.SigHashType, finalScriptWitness []byte,
	index int) error {

	in, err := b.input(index)
	if err != nil {
		return err
	}

	in.SighashType = fn.Some(sighashType)
	in.WitnessUtxo = witnessUtxo
	in.FinalScriptWitness = finalScriptWitness

	return nil
}

// AddXPub records an extended public key and its key source.
func (b *Builder) AddXPub(xpub hd.ExtendedKey, source hd.KeySource) {
	if b.Packet.XPub == nil {
		b.Packet.XPub = make(hd.XPubMap)
	}
	b.Packet.XPub[xpub] = source.Clone()
}

// GetInputs returns the transaction inputs of the PSBT.
func (b *Builder) GetInputs() []*wire.TxIn {
	return b.Packet.ToV0().UnsignedTx.TxIn
}

// GetOutputs returns the transaction outputs of the PSBT.
func (b *Builder) GetOutputs() []*wire.TxOut {
	return b.Packet.ToV0().UnsignedTx.TxOut
}

// ToString returns the hex encoding of the serialized PSBT.
func (b *Builder) ToString() (string, error) {
	var buf bytes.Buffer
	if err := b.Packet.Serialize(&buf); err != nil {
		return "", err
	}

	return hex.EncodeToString(buf.Bytes()), nil
}

// ToBase64 returns the base64 encoding of the serialized PSBT.
func (b *Builder) ToBase64() (string, error) {
	return b.Packet.B64Encode()
}

// IsComplete returns true if every input is finalized.
func (b *Builder) IsComplete() bool {
	return b.Packet.IsComplete()
}

// ExtractPsbtTransaction finalizes the PSBT if needed and returns the hex
// encoding of the network transaction.
func (b *Builder) ExtractPsbtTransaction() (string, error) {
	if !b.IsComplete() {
		if err := b.Packet.Finalize(); err != nil {
			return "", err
		}
	}

	tx, err := b.Packet.Extract()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return "", err
	}

	return hex.EncodeToString(buf.Bytes()), nil
}

func (b *Builder) input(index int) (*Input, error) {
	if index < 0 || index >= len(b.Packet.Inputs) {
		return nil, fmt.Errorf("%w: input %d of %d", ErrIndexOutOfRange,
			index, len(b.Packet.Inputs))
	}

	return &b.Packet.Inputs[index], nil
}
