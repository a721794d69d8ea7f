package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btclog/v2"
	"github.com/jessevdk/go-flags"
	"psbtkit"
)

const (
	defaultNetwork    = "mainnet"
	defaultDebugLevel = "info"
)

type globalOptions struct {
	Network    string `long:"network" short:"n" description:"The bitcoin network addresses and keys belong to" choice:"mainnet" choice:"testnet" choice:"regtest" choice:"simnet" choice:"signet"`
	DebugLevel string `long:"debuglevel" short:"d" description:"Logging level {trace, debug, info, warn, error, critical, off}"`
}

type subCommand interface {
	Register(parser *flags.Parser) error
}

func main() {
	opts := &globalOptions{
		Network:    defaultNetwork,
		DebugLevel: defaultDebugLevel,
	}
	parser := flags.NewParser(opts, flags.HelpFlag|flags.PassDoubleDash)

	commands := []subCommand{
		newConvertCommand(opts),
		newInspectCommand(opts),
		newCreateCommand(opts),
		newAddXPubCommand(opts),
		newExtractCommand(opts),
	}
	for _, command := range commands {
		if err := command.Register(parser); err != nil {
			_, _ = fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	// Global options are parsed before any command runs, so logging can
	// be set up right before the command executes.
	parser.CommandHandler = func(command flags.Commander,
		args []string) error {

		setupLogging(opts.DebugLevel)

		return command.Execute(args)
	}

	if _, err := parser.Parse(); err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
			fmt.Println(err)
			return
		}

		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging(debugLevel string) {
	logger := btclog.NewSLogger(btclog.NewDefaultHandler(os.Stderr))

	// Defaults to info if the log level is invalid.
	level, _ := btclog.LevelFromString(debugLevel)
	logger.SetLevel(level)

	psbtkit.UseLogger(logger)
}

// netParams maps a network name to its chain parameters.
func netParams(network string) (*chaincfg.Params, error) {
	switch network {
	case "mainnet":
		return &chaincfg.MainNetParams, nil

	case "testnet":
		return &chaincfg.TestNet3Params, nil

	case "regtest":
		return &chaincfg.RegressionNetParams, nil

	case "simnet":
		return &chaincfg.SimNetParams, nil

	case "signet":
		return &chaincfg.SigNetParams, nil

	default:
		return nil, fmt.Errorf("unknown network %s", network)
	}
}

// readPsbtArg returns the PSBT given as the only argument, or read from
// stdin if the argument is missing or "-".
func readPsbtArg(args []string) (string, error) {
	switch {
	case len(args) > 1:
		return "", fmt.Errorf("expected a single PSBT argument, got %d",
			len(args))

	case len(args) == 1 && args[0] != "-":
		return args[0], nil
	}

	content, err := io.ReadAll(bufio.NewReader(os.Stdin))
	if err != nil {
		return "", fmt.Errorf("error reading PSBT from stdin: %w", err)
	}

	return strings.TrimSpace(string(content)), nil
}

// loadBuilder decodes the PSBT argument into a builder.
func loadBuilder(opts *globalOptions, args []string) (*psbtkit.Builder,
	error) {

	params, err := netParams(opts.Network)
	if err != nil {
		return nil, err
	}

	encoded, err := readPsbtArg(args)
	if err != nil {
		return nil, err
	}

	return psbtkit.NewBuilderFromString(params, encoded)
}

// printPsbt writes the PSBT to stdout in base64, or hex if asHex is set.
func printPsbt(b *psbtkit.Builder, asHex bool) error {
	var (
		encoded string
		err     error
	)
	if asHex {
		encoded, err = b.ToString()
	} else {
		encoded, err = b.ToBase64()
	}
	if err != nil {
		return err
	}

	fmt.Println(encoded)

	return nil
}
