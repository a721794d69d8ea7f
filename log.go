package psbtkit

import (
	"github.com/btcsuite/btclog/v2"
	"github.com/davecgh/go-spew/spew"
	"psbtkit/v0"
)

// Subsystem defines the logging code for this subsystem.
const Subsystem = "PSBT"

// log is a logger that is initialized with no output filters. This means the
// package will not perform any logging by default until the caller requests
// it.
var log = btclog.Disabled

// DisableLog disables all library log output.
func DisableLog() {
	UseLogger(btclog.Disabled)
}

// UseLogger uses a specified Logger to output package logging info. The
// logger is shared with the version 0 codec.
func UseLogger(logger btclog.Logger) {
	log = logger
	v0.UseLogger(logger)
}

// logClosure is used to provide a closure over expensive logging operations
// so they don't have to be performed when the logging level doesn't warrant
// it.
type logClosure func() string

// String invokes the underlying function and returns the result.
func (c logClosure) String() string {
	return c()
}

// spewClosure returns a logClosure that dumps a with spew.
func spewClosure(a any) logClosure {
	return func() string {
		return spew.Sdump(a)
	}
}
