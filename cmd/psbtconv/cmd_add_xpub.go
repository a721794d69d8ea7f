package main

import (
	"errors"
	"fmt"

	"github.com/jessevdk/go-flags"
	"psbtkit/hd"
)

type addXPubCommand struct {
	XPub        string `long:"xpub" description:"The base58 encoded extended public key to add"`
	Fingerprint string `long:"fingerprint" description:"The hex encoded master key fingerprint of --xpub"`
	Mnemonic    string `long:"mnemonic" description:"A BIP-39 mnemonic to derive the extended public key from instead of --xpub"`
	Passphrase  string `long:"passphrase" description:"The optional BIP-39 passphrase of --mnemonic"`
	Path        string `long:"path" description:"The derivation path of the extended public key, e.g. m/84'/0'/0'" required:"true"`
	Hex         bool   `long:"hex" description:"Print the result in hex instead of base64"`

	global *globalOptions
}

func newAddXPubCommand(global *globalOptions) *addXPubCommand {
	return &addXPubCommand{global: global}
}

func (x *addXPubCommand) Register(parser *flags.Parser) error {
	_, err := parser.AddCommand(
		"add-xpub",
		"Add a global extended public key to a PSBT",
		"Record an extended public key with its master fingerprint "+
			"and derivation path in the global scope of a PSBT; "+
			"the key is either given with --xpub and "+
			"--fingerprint or derived from --mnemonic",
		x,
	)
	return err
}

func (x *addXPubCommand) Execute(args []string) error {
	path, err := parsePath(x.Path)
	if err != nil {
		return err
	}

	var (
		xpub   hd.ExtendedKey
		source hd.KeySource
	)
	switch {
	case x.Mnemonic != "" && x.XPub != "":
		return errors.New("--mnemonic and --xpub are mutually " +
			"exclusive")

	case x.Mnemonic != "":
		xpub, source, err = deriveAccountXPub(
			x.Mnemonic, x.Passphrase, path,
		)
		if err != nil {
			return err
		}

	case x.XPub != "":
		xpub, err = hd.ParseExtendedKey(x.XPub)
		if err != nil {
			return err
		}

		fingerprint, err := parseFingerprint(x.Fingerprint)
		if err != nil {
			return fmt.Errorf("invalid fingerprint: %w", err)
		}
		source = keySource(fingerprint, path)

	default:
		return errors.New("either --xpub or --mnemonic is required")
	}

	b, err := loadBuilder(x.global, args)
	if err != nil {
		return fmt.Errorf("error decoding PSBT: %w", err)
	}

	b.AddXPub(xpub, source)

	return printPsbt(b, x.Hex)
}
