package v0

// GlobalType is the key type of a global scope field.
type GlobalType byte

const (
	// UnsignedTxType carries the unsigned transaction of a version 0
	// PSBT.
	UnsignedTxType GlobalType = 0x00

	// TxVersionType is the transaction version of a version 2 PSBT.
	TxVersionType GlobalType = 0x02

	// FallbackLocktimeType is the locktime a version 2 PSBT uses when no
	// input requires one.
	FallbackLocktimeType GlobalType = 0x03

	// InputCountType is the number of inputs of a version 2 PSBT.
	InputCountType GlobalType = 0x04

	// OutputCountType is the number of outputs of a version 2 PSBT.
	OutputCountType GlobalType = 0x05

	// TxModifiableType holds the modifiable flags of a version 2 PSBT.
	TxModifiableType GlobalType = 0x06
)

// InputType is the key type of a per-input field.
type InputType byte

const (
	NonWitnessUtxoType         InputType = 0x00
	WitnessUtxoType            InputType = 0x01
	PartialSigType             InputType = 0x02
	SighashType                InputType = 0x03
	RedeemScriptInputType      InputType = 0x04
	WitnessScriptInputType     InputType = 0x05
	Bip32DerivationInputType   InputType = 0x06
	FinalScriptSigType         InputType = 0x07
	FinalScriptWitnessType     InputType = 0x08
	PreviousTxidType           InputType = 0x0e
	OutputIndexType            InputType = 0x0f
	SequenceType               InputType = 0x10
	RequiredTimeLocktimeType   InputType = 0x11
	RequiredHeightLocktimeType InputType = 0x12
	TaprootKeySpendSigType     InputType = 0x13
	TaprootInternalKeyInType   InputType = 0x17
	TaprootMerkleRootType      InputType = 0x18
)

// OutputType is the key type of a per-output field.
type OutputType byte

const (
	RedeemScriptOutputType    OutputType = 0x00
	WitnessScriptOutputType   OutputType = 0x01
	Bip32DerivationOutputType OutputType = 0x02
	AmountType                OutputType = 0x03
	ScriptType                OutputType = 0x04
	TaprootInternalKeyOutType OutputType = 0x05
)

// isV2Global returns true for global fields that only exist in version 2.
func isV2Global(t GlobalType) bool {
	return t >= TxVersionType && t <= TxModifiableType
}

// IsV2Input returns true for input fields that only exist in version 2.
func IsV2Input(t InputType) bool {
	return t >= PreviousTxidType && t <= RequiredHeightLocktimeType
}

// IsV2Output returns true for output fields that only exist in version 2.
func IsV2Output(t OutputType) bool {
	return t == AmountType || t == ScriptType
}
