package intervention

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSignatureExtractsNameParamsAndReturn(t *testing.T) {
	p := ParseSignature("pub fn authenticate_user(token: &str, retries: i32) -> bool")
	require.Equal(t, "authenticate_user", p.Name)
	require.Equal(t, []string{"str", "i32"}, p.ParamTypes)
	require.True(t, p.HasReturn)
	require.Equal(t, "bool", p.ReturnType)
}

func TestParseSignatureSkipsSelfReceiver(t *testing.T) {
	p := ParseSignature("fn render(&self, ctx: &Context) -> String")
	require.Equal(t, []string{"context"}, p.ParamTypes)
}

func TestParseSignatureToleratesMissingReturn(t *testing.T) {
	p := ParseSignature("fn log(message: &str)")
	require.Equal(t, "log", p.Name)
	require.False(t, p.HasReturn)
}

func TestNormalizeTypeTreatsStrAndStringAsEqual(t *testing.T) {
	require.Equal(t, normalizeType("&str"), normalizeType("String"))
}

func TestNormalizeTypeTreatsVecAndSliceAsEqual(t *testing.T) {
	require.Equal(t, normalizeType("Vec<i32>"), normalizeType("Slice<i32>"))
}
