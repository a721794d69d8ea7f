package psbtkit

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/lightningnetwork/lnd/fn/v2"
	"psbtkit/hd"
	"psbtkit/raw"
	"psbtkit/v0"
)

const (
	// maxPrealloc caps the number of records allocated up front from a
	// declared count, so a bogus count can't exhaust memory before the
	// scopes themselves fail to parse.
	maxPrealloc = 1024

	// lockTimeThreshold is the first locktime value read as a unix
	// timestamp instead of a block height.
	lockTimeThreshold uint32 = txscript.LockTimeThreshold
)

// NewFromRawBytes decodes a PSBT of either generation. If b64 is true the
// reader is expected to hold the base64 encoding of the binary format.
func NewFromRawBytes(r io.Reader, b64 bool) (*Psbt, error) {
	if b64 {
		r = base64.NewDecoder(base64.StdEncoding, r)
	}

	return Decode(r)
}

// Decode reads a PSBT in binary form. The version field of the global scope
// selects the generation. A version 0 PSBT is brought into the version 2
// shape but keeps V0 as its Version, so it serializes back into the format
// it was read from.
func Decode(r io.Reader) (*Psbt, error) {
	if err := raw.ReadMagic(r); err != nil {
		return nil, err
	}

	global, err := raw.ReadMap(r)
	if err != nil {
		return nil, fmt.Errorf("global scope: %w", err)
	}

	version, err := raw.GlobalVersion(global)
	if err != nil {
		return nil, err
	}

	switch Version(version) {
	case V0:
		legacy, err := v0.DecodeSections(global, r)
		if err != nil {
			return nil, err
		}

		p, err := FromV0(legacy)
		if err != nil {
			return nil, err
		}
		p.Version = V0

		return p, nil

	case V2:
		return decodeV2(global, r)

	default:
		return nil, &UnsupportedVersionError{Version: version}
	}
}

// Serialize writes the binary form of the PSBT in the generation named by
// its Version.
func (p *Psbt) Serialize(w io.Writer) error {
	switch p.Version {
	case V0:
		return p.ToV0().Serialize(w)

	case V2:
		return p.serializeV2(w)

	default:
		return &UnsupportedVersionError{Version: uint32(p.Version)}
	}
}

// B64Encode returns the base64 encoding of the serialized PSBT.
func (p *Psbt) B64Encode() (string, error) {
	var b bytes.Buffer
	if err := p.Serialize(&b); err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(b.Bytes()), nil
}

func decodeV2(global []raw.Pair, r io.Reader) (*Psbt, error) {
	p := &Psbt{Version: V2}

	var (
		txVersion   fn.Option[uint32]
		inputCount  fn.Option[uint64]
		outputCount fn.Option[uint64]
	)
	for _, pair := range global {
		var err error
		switch t := v0.GlobalType(pair.Key.Type); {
		case t == v0.UnsignedTxType:
			err = fmt.Errorf("%w: unsigned transaction in version "+
				"2 psbt", psbt.ErrInvalidPsbtFormat)

		case pair.Key.Type == hd.XPubType:
			err = p.XPub.Insert(pair)

		case t == v0.TxVersionType:
			var v uint32
			v, err = raw.ReadUint32(pair)
			txVersion = fn.Some(v)

		case t == v0.FallbackLocktimeType:
			p.FallbackLocktime, err = raw.ReadUint32(pair)

		case t == v0.InputCountType:
			var n uint64
			n, err = readCount(pair)
			inputCount = fn.Some(n)

		case t == v0.OutputCountType:
			var n uint64
			n, err = readCount(pair)
			outputCount = fn.Some(n)

		case t == v0.TxModifiableType:
			if pair.Key.HasData() || len(pair.Value) != 1 {
				err = fmt.Errorf("%w: invalid modifiable flags",
					psbt.ErrInvalidPsbtFormat)
				break
			}
			p.TxModifiable = fn.Some(pair.Value[0])

		case pair.Key.Type == raw.GlobalVersionType:
			// Already read by the caller.

		default:
			raw.Insert(pair, &p.Proprietary, &p.Unknown)
		}
		if err != nil {
			return nil, fmt.Errorf("global scope: %w", err)
		}
	}

	if txVersion.IsNone() || inputCount.IsNone() || outputCount.IsNone() {
		return nil, fmt.Errorf("%w: version 2 psbt requires tx "+
			"version, input count and output count",
			psbt.ErrInvalidPsbtFormat)
	}
	p.TxVersion = txVersion.UnsafeFromSome()

	numInputs := inputCount.UnsafeFromSome()
	p.Inputs = make([]Input, 0, min(numInputs, maxPrealloc))
	for i := 0; uint64(i) < numInputs; i++ {
		in, err := decodeInputV2(i, r)
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		p.Inputs = append(p.Inputs, in)
	}

	numOutputs := outputCount.UnsafeFromSome()
	p.Outputs = make([]Output, 0, min(numOutputs, maxPrealloc))
	for i := 0; uint64(i) < numOutputs; i++ {
		out, err := decodeOutputV2(i, r)
		if err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
		p.Outputs = append(p.Outputs, out)
	}

	log.Debugf("Decoded version 2 PSBT with %d inputs and %d outputs",
		len(p.Inputs), len(p.Outputs))

	return p, nil
}

func decodeInputV2(index int, r io.Reader) (Input, error) {
	pairs, err := raw.ReadMap(r)
	if err != nil {
		return Input{}, err
	}

	in := Input{
		Index:    index,
		Sequence: wire.MaxTxInSequenceNum,
	}

	var hasTxid, hasOutputIndex bool
	for _, pair := range pairs {
		var err error
		switch v0.InputType(pair.Key.Type) {
		case v0.PreviousTxidType:
			if pair.Key.HasData() {
				err = fmt.Errorf("%w: unexpected key data",
					psbt.ErrInvalidPsbtFormat)
				break
			}

			var hash *chainhash.Hash
			hash, err = chainhash.NewHash(pair.Value)
			if err == nil {
				in.PreviousOutPoint.Hash = *hash
				hasTxid = true
			}

		case v0.OutputIndexType:
			in.PreviousOutPoint.Index, err = raw.ReadUint32(pair)
			hasOutputIndex = true

		case v0.SequenceType:
			in.Sequence, err = raw.ReadUint32(pair)

		case v0.RequiredTimeLocktimeType:
			var l uint32
			if l, err = raw.ReadUint32(pair); err == nil {
				in.RequiredTimeLocktime = fn.Some(l)
			}

		case v0.RequiredHeightLocktimeType:
			var l uint32
			if l, err = raw.ReadUint32(pair); err == nil {
				in.RequiredHeightLocktime = fn.Some(l)
			}

		default:
			err = in.Input.DecodePair(pair)
		}
		if err != nil {
			return Input{}, err
		}
	}

	if !hasTxid || !hasOutputIndex {
		return Input{}, fmt.Errorf("%w: missing previous txid or "+
			"output index", psbt.ErrInvalidPsbtFormat)
	}

	return in, in.checkLocktimes()
}

func decodeOutputV2(index int, r io.Reader) (Output, error) {
	pairs, err := raw.ReadMap(r)
	if err != nil {
		return Output{}, err
	}

	out := Output{Index: index}

	var hasAmount, hasScript bool
	for _, pair := range pairs {
		switch v0.OutputType(pair.Key.Type) {
		case v0.AmountType:
			if pair.Key.HasData() || len(pair.Value) != 8 {
				return Output{}, fmt.Errorf("%w: amount must be "+
					"an 8 byte value", psbt.ErrInvalidPsbtFormat)
			}

			amount := binary.LittleEndian.Uint64(pair.Value)
			out.Amount = btcutil.Amount(int64(amount))
			hasAmount = true

		case v0.ScriptType:
			if pair.Key.HasData() {
				return Output{}, fmt.Errorf("%w: unexpected key "+
					"data", psbt.ErrInvalidPsbtFormat)
			}

			out.Script = pair.Value
			hasScript = true

		default:
			if err := out.Output.DecodePair(pair); err != nil {
				return Output{}, err
			}
		}
	}

	if !hasAmount || !hasScript {
		return Output{}, fmt.Errorf("%w: missing amount or script",
			psbt.ErrInvalidPsbtFormat)
	}

	return out, nil
}

// checkLocktimes verifies that each required locktime is on its side of
// the threshold that separates block heights from timestamps.
func (i *Input) checkLocktimes() error {
	var err error
	i.RequiredTimeLocktime.WhenSome(func(l uint32) {
		if l < lockTimeThreshold {
			err = fmt.Errorf("%w: time locktime %d is below %d",
				ErrInvalidLocktime, l, lockTimeThreshold)
		}
	})
	i.RequiredHeightLocktime.WhenSome(func(l uint32) {
		if l == 0 || l >= lockTimeThreshold {
			err = fmt.Errorf("%w: height locktime %d is not in "+
				"(0, %d)", ErrInvalidLocktime, l,
				lockTimeThreshold)
		}
	})

	return err
}

func (p *Psbt) serializeV2(w io.Writer) error {
	for i := range p.Inputs {
		if err := p.Inputs[i].checkLocktimes(); err != nil {
			return fmt.Errorf("input %d: %w", i, err)
		}
	}

	if err := raw.WriteMagic(w); err != nil {
		return err
	}

	var global raw.Scope
	p.XPub.AddTo(&global)
	global.Add(byte(v0.TxVersionType), nil, raw.Uint32Bytes(p.TxVersion))
	global.Add(
		byte(v0.FallbackLocktimeType), nil,
		raw.Uint32Bytes(p.FallbackLocktime),
	)
	global.Add(byte(v0.InputCountType), nil, countBytes(len(p.Inputs)))
	global.Add(byte(v0.OutputCountType), nil, countBytes(len(p.Outputs)))
	p.TxModifiable.WhenSome(func(flags uint8) {
		global.Add(byte(v0.TxModifiableType), nil, []byte{flags})
	})
	global.Add(raw.GlobalVersionType, nil, raw.Uint32Bytes(uint32(V2)))
	global.AddMaps(p.Proprietary, p.Unknown)
	if err := global.Write(w); err != nil {
		return err
	}

	for i := range p.Inputs {
		if err := p.Inputs[i].serializeV2(w); err != nil {
			return fmt.Errorf("input %d: %w", i, err)
		}
	}
	for i := range p.Outputs {
		if err := p.Outputs[i].serializeV2(w); err != nil {
			return fmt.Errorf("output %d: %w", i, err)
		}
	}

	return nil
}

func (i *Input) serializeV2(w io.Writer) error {
	var s raw.Scope
	if err := i.AddKnown(&s); err != nil {
		return err
	}

	s.Add(byte(v0.PreviousTxidType), nil, i.PreviousOutPoint.Hash[:])

	fields := []struct {
		t     v0.InputType
		value fn.Option[uint32]
	}{
		{v0.OutputIndexType, fn.Some(i.PreviousOutPoint.Index)},
		{v0.SequenceType, fn.Some(i.Sequence)},
		{v0.RequiredTimeLocktimeType, i.RequiredTimeLocktime},
		{v0.RequiredHeightLocktimeType, i.RequiredHeightLocktime},
	}
	for _, f := range fields {
		f.value.WhenSome(func(v uint32) {
			s.Add(byte(f.t), nil, raw.Uint32Bytes(v))
		})
	}
	s.AddMaps(i.Proprietary, i.Unknown)

	return s.Write(w)
}

func (o *Output) serializeV2(w io.Writer) error {
	var s raw.Scope
	o.AddKnown(&s)

	var amount [8]byte
	binary.LittleEndian.PutUint64(amount[:], uint64(o.Amount))
	s.Add(byte(v0.AmountType), nil, amount[:])

	// An empty script is still written, the field is required.
	script := o.Script
	if script == nil {
		script = []byte{}
	}
	s.Add(byte(v0.ScriptType), nil, script)
	s.AddMaps(o.Proprietary, o.Unknown)

	return s.Write(w)
}

func readCount(pair raw.Pair) (uint64, error) {
	if pair.Key.HasData() {
		return 0, fmt.Errorf("%w: unexpected key data for count",
			psbt.ErrInvalidPsbtFormat)
	}

	r := bytes.NewReader(pair.Value)
	n, err := wire.ReadVarInt(r, 0)
	if err != nil {
		return 0, err
	}
	if r.Len() != 0 {
		return 0, fmt.Errorf("%w: trailing bytes after count",
			psbt.ErrInvalidPsbtFormat)
	}

	return n, nil
}

func countBytes(n int) []byte {
	var b bytes.Buffer
	_ = wire.WriteVarInt(&b, 0, uint64(n))

	return b.Bytes()
}
