package psbtkit

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// UtxoType tells which form of the spent output an InputUtxo carries.
type UtxoType int

const (
	NonWitness UtxoType = 1
	Witness    UtxoType = 2
)

// Outpoint references the output an input spends.
type Outpoint struct {
	TxID  string `json:"tx_id"`
	Index uint32 `json:"index"`
}

// Payment is an output to create. Script takes precedence over Address.
type Payment struct {
	Address string `json:"address"`
	Script  string `json:"script"`
	Amount  int64  `json:"amount"`
}

// InputUtxo describes the output spent by the input at Index.
type InputUtxo struct {
	UtxoType            UtxoType             `json:"utxo_type"`
	SighashType         txscript.SigHashType `json:"sighash_type"`
	NonWitnessUtxo      string               `json:"non_witness_utxo"`
	WitnessUtxoPkScript string               `json:"witness_utxo_pk_script"`
	WitnessUtxoAmount   int64                `json:"witness_utxo_amount"`
	Index               int                  `json:"index"`
}

func (o Outpoint) txIn() (*wire.TxIn, error) {
	txHash, err := chainhash.NewHashFromStr(o.TxID)
	if err != nil {
		return nil, err
	}

	return wire.NewTxIn(wire.NewOutPoint(txHash, o.Index), nil, nil), nil
}

func (p Payment) txOut(netParams *chaincfg.Params) (*wire.TxOut, error) {
	var pkScript []byte
	if p.Script != "" {
		script, err := hex.DecodeString(p.Script)
		if err != nil {
			return nil, err
		}
		pkScript = script
	} else {
		address, err := btcutil.DecodeAddress(p.Address, netParams)
		if err != nil {
			return nil, err
		}
		if !address.IsForNet(netParams) {
			return nil, fmt.Errorf("address %v is not for %v",
				address, netParams.Name)
		}

		pkScript, err = txscript.PayToAddrScript(address)
		if err != nil {
			return nil, err
		}
	}

	return wire.NewTxOut(p.Amount, pkScript), nil
}

func (u *InputUtxo) apply(in *Input) error {
	switch u.UtxoType {
	case NonWitness:
		b, err := hex.DecodeString(u.NonWitnessUtxo)
		if err != nil {
			return err
		}

		tx := wire.NewMsgTx(2)
		if err := tx.Deserialize(bytes.NewReader(b)); err != nil {
			return err
		}

		txHash := tx.TxHash()
		if txHash != in.PreviousOutPoint.Hash {
			return fmt.Errorf("non-witness utxo %v does not match "+
				"previous outpoint %v", txHash,
				in.PreviousOutPoint)
		}
		in.NonWitnessUtxo = tx

	case Witness:
		pkScript, err := hex.DecodeString(u.WitnessUtxoPkScript)
		if err != nil {
			return err
		}
		in.WitnessUtxo = wire.NewTxOut(u.WitnessUtxoAmount, pkScript)

	default:
		return fmt.Errorf("unknown utxo type %d", u.UtxoType)
	}

	// A zero sighash in the request means none was given.
	if u.SighashType != 0 {
		in.SighashType = fn.Some(u.SighashType)
	}

	return nil
}
