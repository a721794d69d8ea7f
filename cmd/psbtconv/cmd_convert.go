package main

import (
	"fmt"

	"github.com/jessevdk/go-flags"
	"psbtkit"
)

type convertCommand struct {
	To  uint32 `long:"to" description:"The PSBT version to convert to" choice:"0" choice:"2"`
	Hex bool   `long:"hex" description:"Print the result in hex instead of base64"`

	global *globalOptions
}

func newConvertCommand(global *globalOptions) *convertCommand {
	return &convertCommand{
		To:     uint32(psbtkit.V2),
		global: global,
	}
}

func (x *convertCommand) Register(parser *flags.Parser) error {
	_, err := parser.AddCommand(
		"convert",
		"Convert a PSBT between version 0 and version 2",
		"Decode a PSBT given in hex or base64 as argument or on stdin "+
			"and encode it again in the version named by --to; "+
			"converting to version 0 resolves the transaction "+
			"locktime from the per input requirements",
		x,
	)
	return err
}

func (x *convertCommand) Execute(args []string) error {
	version, err := psbtkit.ParseVersion(x.To)
	if err != nil {
		return err
	}

	b, err := loadBuilder(x.global, args)
	if err != nil {
		return fmt.Errorf("error decoding PSBT: %w", err)
	}

	b.Packet.Version = version

	return printPsbt(b, x.Hex)
}
