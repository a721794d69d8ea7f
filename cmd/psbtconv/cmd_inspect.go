package main

import (
	"fmt"
	"io"
	"os"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/jessevdk/go-flags"
	"psbtkit"
)

type inspectCommand struct {
	global *globalOptions
}

func newInspectCommand(global *globalOptions) *inspectCommand {
	return &inspectCommand{global: global}
}

func (x *inspectCommand) Register(parser *flags.Parser) error {
	_, err := parser.AddCommand(
		"inspect",
		"Print the content of a PSBT",
		"Decode a PSBT given in hex or base64 as argument or on stdin "+
			"and print its version, transaction fields, inputs, "+
			"outputs and extended public keys",
		x,
	)
	return err
}

func (x *inspectCommand) Execute(args []string) error {
	b, err := loadBuilder(x.global, args)
	if err != nil {
		return fmt.Errorf("error decoding PSBT: %w", err)
	}

	printPacket(os.Stdout, b.Packet)

	return nil
}

func printPacket(w io.Writer, p *psbtkit.Psbt) {
	fmt.Fprintf(w, "PSBT version:       %v\n", p.Version)
	fmt.Fprintf(w, "Tx version:         %d (%#08x)\n", p.SignedTxVersion(),
		p.TxVersion)
	fmt.Fprintf(w, "Fallback locktime:  %d\n", p.FallbackLocktime)
	fmt.Fprintf(w, "Resolved locktime:  %d\n", p.LockTime())
	fmt.Fprintf(w, "Complete:           %v\n", p.IsComplete())

	for _, k := range p.XPub.Keys() {
		fmt.Fprintf(w, "XPub:               %v %v (depth %d)\n",
			p.XPub[k], k, k.Depth())
	}
	for _, k := range p.Proprietary.Keys() {
		fmt.Fprintf(w, "Proprietary:        %v = %x\n", k,
			p.Proprietary[k])
	}
	for _, k := range p.Unknown.Keys() {
		fmt.Fprintf(w, "Unknown:            %v = %x\n", k, p.Unknown[k])
	}

	for i := range p.Inputs {
		in := &p.Inputs[i]
		fmt.Fprintf(w, "Input %d:\n", in.Index)
		fmt.Fprintf(w, "  Outpoint:         %v\n", in.PreviousOutPoint)
		fmt.Fprintf(w, "  Sequence:         %#08x\n", in.Sequence)
		in.Locktime().WhenSome(func(l uint32) {
			fmt.Fprintf(w, "  Required lock:    %d\n", l)
		})
		if in.WitnessUtxo != nil {
			fmt.Fprintf(w, "  Witness utxo:     %v %x\n",
				btcutil.Amount(in.WitnessUtxo.Value),
				in.WitnessUtxo.PkScript)
		}
		if in.NonWitnessUtxo != nil {
			fmt.Fprintf(w, "  Non-witness utxo: %v\n",
				in.NonWitnessUtxo.TxHash())
		}
		in.SighashType.WhenSome(func(sighash txscript.SigHashType) {
			fmt.Fprintf(w, "  Sighash:          %#x\n", uint32(sighash))
		})
		for _, d := range in.Bip32Derivation {
			fmt.Fprintf(w, "  Derivation:       %x %v\n", d.PubKey,
				keySource(d.MasterKeyFingerprint, d.Bip32Path))
		}
		fmt.Fprintf(w, "  Partial sigs:     %d\n", len(in.PartialSigs))
		fmt.Fprintf(w, "  Finalized:        %v\n", in.IsFinalized())
	}

	for i := range p.Outputs {
		out := &p.Outputs[i]
		fmt.Fprintf(w, "Output %d:\n", out.Index)
		fmt.Fprintf(w, "  Amount:           %v\n", out.Amount)
		fmt.Fprintf(w, "  Script:           %x\n", out.Script)
		for _, d := range out.Bip32Derivation {
			fmt.Fprintf(w, "  Derivation:       %x %v\n", d.PubKey,
				keySource(d.MasterKeyFingerprint, d.Bip32Path))
		}
	}
}
