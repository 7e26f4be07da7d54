package static_analyzer

import (
	"fmt"
)

type BackendType string

const (
	BackendRegex BackendType = "regex"
	BackendNoOp  BackendType = "noop" // No-op implementation for testing
)

type AnalyzerConfig struct {
	Backend BackendType
	Enabled bool // Whether the analyzer is enabled
}

// NewAnalyzer creates an analyzer instance
func NewAnalyzer(cfg AnalyzerConfig) (Analyzer, error) {
	if !cfg.Enabled {
		return NewNoOpAnalyzer(), nil
	}

	switch cfg.Backend {
	case BackendRegex, "":
		return &regexAnalyzer{}, nil

	case BackendNoOp:
		return NewNoOpAnalyzer(), nil

	default:
		return nil, fmt.Errorf("unsupported backend: %s (supported: regex, noop)", cfg.Backend)
	}
}

func DefaultConfig() AnalyzerConfig {
	return AnalyzerConfig{
		Backend: BackendRegex,
		Enabled: true,
	}
}
