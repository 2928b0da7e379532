// Package idcodec provides compact base-63 encodings for FileID and SymbolID
// values. The indexer stores the SymbolID cross-references in manifest.json
// in this form, so a warm-restart cache doesn't pay ~16 hex characters per
// reference.
package idcodec

import (
	"github.com/codeindexer/oci/internal/types"
)

// EncodeSymbolID encodes a SymbolID to a base-63 string.
func EncodeSymbolID(id types.SymbolID) string {
	return Encode(uint64(id))
}

// DecodeSymbolID decodes a base-63 string to a SymbolID.
func DecodeSymbolID(encoded string) (types.SymbolID, error) {
	value, err := Decode(encoded)
	if err != nil {
		return 0, err
	}
	return types.SymbolID(value), nil
}

// MustDecodeSymbolID panics on invalid input; use only when the string is
// known-valid (e.g. just round-tripped from EncodeSymbolID).
func MustDecodeSymbolID(encoded string) types.SymbolID {
	id, err := DecodeSymbolID(encoded)
	if err != nil {
		panic("idcodec: MustDecodeSymbolID: " + err.Error())
	}
	return id
}

// EncodeFileID encodes a FileID to a base-63 string.
func EncodeFileID(id types.FileID) string {
	return Encode(uint64(id))
}

// DecodeFileID decodes a base-63 string to a FileID, rejecting values that
// overflow the 32-bit FileID space.
func DecodeFileID(encoded string) (types.FileID, error) {
	value, err := Decode(encoded)
	if err != nil {
		return 0, err
	}
	if value > uint64(^types.FileID(0)) {
		return 0, ErrOverflow
	}
	return types.FileID(value), nil
}
