package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jessevdk/go-flags"
	"psbtkit"
)

type createCommand struct {
	Inputs           []string `long:"input" short:"i" description:"An outpoint to spend as txid:vout; can be given multiple times"`
	Outputs          []string `long:"output" short:"o" description:"An output as address:sats or script:<hex>:sats; can be given multiple times"`
	TxVersion        int64    `long:"txversion" description:"The transaction version"`
	Locktime         uint32   `long:"locktime" description:"The fallback locktime used when no input requires one"`
	RequiredLocktime []string `long:"requiredlocktime" description:"A locktime an input requires as index:locktime; can be given multiple times"`
	PsbtVersion      uint32   `long:"psbtversion" description:"The PSBT version to encode" choice:"0" choice:"2"`
	Hex              bool     `long:"hex" description:"Print the result in hex instead of base64"`

	global *globalOptions
}

func newCreateCommand(global *globalOptions) *createCommand {
	return &createCommand{
		TxVersion:   2,
		PsbtVersion: uint32(psbtkit.V2),
		global:      global,
	}
}

func (x *createCommand) Register(parser *flags.Parser) error {
	_, err := parser.AddCommand(
		"create",
		"Create an unsigned PSBT",
		"Create a PSBT spending the given outpoints and paying the "+
			"given outputs; the PSBT carries no signing data yet",
		x,
	)
	return err
}

func (x *createCommand) Execute(_ []string) error {
	params, err := netParams(x.global.Network)
	if err != nil {
		return err
	}

	version, err := psbtkit.ParseVersion(x.PsbtVersion)
	if err != nil {
		return err
	}

	ins := make([]psbtkit.Outpoint, 0, len(x.Inputs))
	for _, in := range x.Inputs {
		outpoint, err := parseOutpoint(in)
		if err != nil {
			return err
		}
		ins = append(ins, outpoint)
	}

	outs := make([]psbtkit.Payment, 0, len(x.Outputs))
	for _, out := range x.Outputs {
		payment, err := parsePayment(out)
		if err != nil {
			return err
		}
		outs = append(outs, payment)
	}

	b, err := psbtkit.NewBuilder(
		params, ins, outs, psbtkit.WithTxVersion(x.TxVersion),
		psbtkit.WithFallbackLocktime(x.Locktime),
		psbtkit.WithPsbtVersion(version),
	)
	if err != nil {
		return err
	}

	for _, required := range x.RequiredLocktime {
		index, locktime, err := parseRequiredLocktime(required)
		if err != nil {
			return err
		}

		if err := b.SetRequiredLocktime(index, locktime); err != nil {
			return err
		}
	}

	return printPsbt(b, x.Hex)
}

func parseOutpoint(s string) (psbtkit.Outpoint, error) {
	txid, vout, ok := strings.Cut(s, ":")
	if !ok {
		return psbtkit.Outpoint{}, fmt.Errorf("outpoint %q is not "+
			"txid:vout", s)
	}

	index, err := strconv.ParseUint(vout, 10, 32)
	if err != nil {
		return psbtkit.Outpoint{}, fmt.Errorf("invalid output index "+
			"%q: %w", vout, err)
	}

	return psbtkit.Outpoint{TxID: txid, Index: uint32(index)}, nil
}

func parsePayment(s string) (psbtkit.Payment, error) {
	sep := strings.LastIndex(s, ":")
	if sep < 0 {
		return psbtkit.Payment{}, fmt.Errorf("output %q is not "+
			"address:sats", s)
	}

	amount, err := strconv.ParseInt(s[sep+1:], 10, 64)
	if err != nil {
		return psbtkit.Payment{}, fmt.Errorf("invalid amount %q: %w",
			s[sep+1:], err)
	}

	destination := s[:sep]
	if script, ok := strings.CutPrefix(destination, "script:"); ok {
		return psbtkit.Payment{Script: script, Amount: amount}, nil
	}

	return psbtkit.Payment{Address: destination, Amount: amount}, nil
}

func parseRequiredLocktime(s string) (int, uint32, error) {
	index, locktime, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("required locktime %q is not "+
			"index:locktime", s)
	}

	i, err := strconv.Atoi(index)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid input index %q: %w", index,
			err)
	}

	l, err := strconv.ParseUint(locktime, 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid locktime %q: %w", locktime,
			err)
	}

	return i, uint32(l), nil
}
