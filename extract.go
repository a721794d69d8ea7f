package psbtkit

import (
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/wire"
	"psbtkit/v0"
)

// Finalize turns the partial signatures of every input into a final
// scriptSig or witness. Inputs that are already finalized are left alone.
// The fields that only exist in version 2 are kept.
func (p *Psbt) Finalize() error {
	packet, err := p.ToV0().Packet()
	if err != nil {
		return err
	}

	if err := psbt.MaybeFinalizeAll(packet); err != nil {
		return err
	}

	finalized, err := v0.FromPacket(packet)
	if err != nil {
		return err
	}

	// Inputs finalized before are kept as they were, the trip through
	// the packet doesn't preserve every field they may carry.
	for i := range p.Inputs {
		if p.Inputs[i].IsFinalized() {
			continue
		}
		p.Inputs[i].Input = finalized.Inputs[i]
	}

	return nil
}

// Extract returns the final network transaction of a complete PSBT. The
// transaction is built from the version 0 shape, so it carries the resolved
// locktime.
func (p *Psbt) Extract() (*wire.MsgTx, error) {
	packet, err := p.ToV0().Packet()
	if err != nil {
		return nil, err
	}

	tx, err := psbt.Extract(packet)
	if err != nil {
		return nil, err
	}

	log.Debugf("Extracted transaction %v", tx.TxHash())
	log.Tracef("Extracted transaction: %v", spewClosure(tx))

	return tx, nil
}
