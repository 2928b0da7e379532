package idcodec

import (
	"testing"

	"github.com/codeindexer/oci/internal/types"
	"github.com/stretchr/testify/require"
)

func TestSymbolIDRoundTrip(t *testing.T) {
	for _, id := range []types.SymbolID{0, 1, 62, 63, 1 << 40} {
		encoded := EncodeSymbolID(id)
		decoded, err := DecodeSymbolID(encoded)
		require.NoError(t, err)
		require.Equal(t, id, decoded)
	}
}

func TestFileIDOverflowRejected(t *testing.T) {
	encoded := Encode(uint64(1) << 40)
	_, err := DecodeFileID(encoded)
	require.ErrorIs(t, err, ErrOverflow)
}
