package psbtkit

import "fmt"

// Version identifies the PSBT generation a container is encoded as.
type Version uint32

const (
	// V0 is the original PSBT format of BIP-174 that embeds a complete
	// unsigned transaction.
	V0 Version = 0

	// V2 is the format of BIP-370 that carries the transaction fields
	// as separate global, input and output fields.
	V2 Version = 2
)

// String returns a human readable name for the version.
func (v Version) String() string {
	switch v {
	case V0:
		return "v0"

	case V2:
		return "v2"

	default:
		return fmt.Sprintf("unknown(%d)", uint32(v))
	}
}

// Validate returns an error if v is not a known PSBT generation.
func (v Version) Validate() error {
	switch v {
	case V0, V2:
		return nil

	default:
		return &UnsupportedVersionError{Version: uint32(v)}
	}
}

// ParseVersion maps a numeric version to a known PSBT generation.
func ParseVersion(v uint32) (Version, error) {
	version := Version(v)
	if err := version.Validate(); err != nil {
		return 0, err
	}

	return version, nil
}
