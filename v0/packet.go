package v0

import (
	"bytes"

	"github.com/btcsuite/btcd/btcutil/psbt"
)

// Packet converts the PSBT into a btcd psbt.Packet so that the signing,
// finalizing and extraction helpers of that package can operate on it. The
// conversion goes through the wire format, which both sides define, so no
// field is lost on the way.
func (p *Psbt) Packet() (*psbt.Packet, error) {
	var b bytes.Buffer
	if err := p.Serialize(&b); err != nil {
		return nil, err
	}

	return psbt.NewFromRawBytes(&b, false)
}

// FromPacket converts a btcd psbt.Packet into a version 0 PSBT.
func FromPacket(packet *psbt.Packet) (*Psbt, error) {
	var b bytes.Buffer
	if err := packet.Serialize(&b); err != nil {
		return nil, err
	}

	return Decode(&b)
}
