package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIndexingErrorUnwrap(t *testing.T) {
	underlying := errors.New("disk full")
	err := NewIndexingError("write_cache", underlying).WithFile(3, "src/a.rs")

	require.True(t, errors.Is(err, underlying))
	require.Contains(t, err.Error(), "src/a.rs")
	require.Equal(t, KindIO, err.Kind)
}

func TestMultiErrorFiltersNil(t *testing.T) {
	e1 := errors.New("e1")
	me := NewMultiError([]error{nil, e1, nil})

	require.True(t, me.HasErrors())
	require.Len(t, me.Errors, 1)
	require.Equal(t, "e1", me.Error())
}

func TestMultiErrorEmpty(t *testing.T) {
	me := NewMultiError(nil)
	require.False(t, me.HasErrors())
	require.Equal(t, "no errors", me.Error())
}

func TestQueryErrorKinds(t *testing.T) {
	err := NewQueryError(KindInvalidQuery, "empty query after filter stripping")
	require.Equal(t, "invalid_query: empty query after filter stripping", err.Error())
}
