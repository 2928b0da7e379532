package config

import (
	"errors"
	"fmt"
	"runtime"

	ocierrors "github.com/codeindexer/oci/internal/errors"
)

// Validator validates a loaded Config and fills in smart defaults.
type Validator struct{}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAndSetDefaults validates cfg and applies smart defaults, returning
// a *errors.ConfigError if any section is invalid.
func (v *Validator) ValidateAndSetDefaults(cfg *Config) error {
	if err := v.validateProject(&cfg.Project); err != nil {
		return ocierrors.NewConfigError("project", "", err)
	}
	if err := v.validateDiscovery(&cfg.Discovery); err != nil {
		return ocierrors.NewConfigError("discovery", "", err)
	}
	if err := v.validateIndex(&cfg.Index); err != nil {
		return ocierrors.NewConfigError("index", "", err)
	}
	if err := v.validateBM25(&cfg.BM25); err != nil {
		return ocierrors.NewConfigError("bm25", "", err)
	}

	v.setSmartDefaults(cfg)
	return nil
}

func (v *Validator) validateProject(project *Project) error {
	if project.Root == "" {
		return errors.New("project root cannot be empty")
	}
	return nil
}

func (v *Validator) validateDiscovery(d *Discovery) error {
	if d.MaxFileSize <= 0 {
		return fmt.Errorf("max_file_size must be positive, got %d", d.MaxFileSize)
	}
	if d.MaxFileSize > 100*1024*1024 {
		return fmt.Errorf("max_file_size should not exceed 100MB, got %d", d.MaxFileSize)
	}
	return nil
}

func (v *Validator) validateIndex(idx *IndexConfig) error {
	if idx.ParallelWorkers < 0 {
		return fmt.Errorf("parallel_workers cannot be negative, got %d", idx.ParallelWorkers)
	}
	if idx.WatchDebounceMs < 0 {
		return fmt.Errorf("watch_debounce_ms cannot be negative, got %d", idx.WatchDebounceMs)
	}
	if idx.CacheDirName == "" {
		return errors.New("cache_dir cannot be empty")
	}
	return nil
}

func (v *Validator) validateBM25(b *BM25Config) error {
	if b.K1 < 0 {
		return fmt.Errorf("k1 cannot be negative, got %v", b.K1)
	}
	if b.B < 0 || b.B > 1 {
		return fmt.Errorf("b must be within [0, 1], got %v", b.B)
	}
	for name, w := range map[string]float64{
		"weight_path":           b.WeightPath,
		"weight_identifier":     b.WeightIdentifier,
		"weight_doc":            b.WeightDoc,
		"weight_string_literal": b.WeightStringLiteral,
		"weight_code":           b.WeightCode,
	} {
		if w < 0 {
			return fmt.Errorf("%s cannot be negative, got %v", name, w)
		}
	}
	return nil
}

// setSmartDefaults fills in CPU-dependent defaults left at zero.
func (v *Validator) setSmartDefaults(cfg *Config) {
	if cfg.Index.ParallelWorkers == 0 {
		cfg.Index.ParallelWorkers = max(1, runtime.NumCPU()-1)
	}
}

// ValidateConfig is a convenience wrapper around Validator.
func ValidateConfig(cfg *Config) error {
	return NewValidator().ValidateAndSetDefaults(cfg)
}
