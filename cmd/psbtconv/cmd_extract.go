package main

import (
	"fmt"

	"github.com/jessevdk/go-flags"
)

type extractCommand struct {
	global *globalOptions
}

func newExtractCommand(global *globalOptions) *extractCommand {
	return &extractCommand{global: global}
}

func (x *extractCommand) Register(parser *flags.Parser) error {
	_, err := parser.AddCommand(
		"extract",
		"Print the final network transaction of a PSBT",
		"Finalize every input that carries enough partial signatures "+
			"and print the hex encoded network transaction; fails "+
			"if any input can't be finalized",
		x,
	)
	return err
}

func (x *extractCommand) Execute(args []string) error {
	b, err := loadBuilder(x.global, args)
	if err != nil {
		return fmt.Errorf("error decoding PSBT: %w", err)
	}

	txHex, err := b.ExtractPsbtTransaction()
	if err != nil {
		return fmt.Errorf("error extracting transaction: %w", err)
	}

	fmt.Println(txHex)

	return nil
}
