package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateAndSetDefaultsFillsParallelWorkers(t *testing.T) {
	cfg := Default("/test/root")
	cfg.Index.ParallelWorkers = 0

	require.NoError(t, NewValidator().ValidateAndSetDefaults(cfg))
	require.Greater(t, cfg.Index.ParallelWorkers, 0)
}

func TestValidateRejectsEmptyRoot(t *testing.T) {
	cfg := Default("")
	err := NewValidator().ValidateAndSetDefaults(cfg)
	require.Error(t, err)
}

func TestValidateRejectsOversizedMaxFileSize(t *testing.T) {
	cfg := Default("/test/root")
	cfg.Discovery.MaxFileSize = 200 * 1024 * 1024
	require.Error(t, NewValidator().ValidateAndSetDefaults(cfg))
}

func TestValidateRejectsBOutOfRange(t *testing.T) {
	cfg := Default("/test/root")
	cfg.BM25.B = 1.5
	require.Error(t, NewValidator().ValidateAndSetDefaults(cfg))
}

func TestValidateRejectsNegativeWeight(t *testing.T) {
	cfg := Default("/test/root")
	cfg.BM25.WeightCode = -1
	require.Error(t, NewValidator().ValidateAndSetDefaults(cfg))
}
