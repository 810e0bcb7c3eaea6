package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RunSpec describes one enrichment run, loaded from a YAML file passed to
// the CLI or embedded in a schedule.
type RunSpec struct {
	RunID  string `yaml:"runId,omitempty"`
	Agency string `yaml:"agency,omitempty"`
	Year   int    `yaml:"year,omitempty"`
	Limit  int    `yaml:"limit,omitempty"`

	// SpendingThreshold overrides the default spending match cutoff.
	SpendingThreshold float64 `yaml:"spendingThreshold,omitempty"`

	StagingProvider string `yaml:"stagingProvider,omitempty"`

	Persist bool `yaml:"persist,omitempty"`
	Export  bool `yaml:"export,omitempty"`
	// ExportFormat is "parquet" (default) or "jsonl".
	ExportFormat string `yaml:"exportFormat,omitempty"`
}

// Validate checks spec consistency.
func (s *RunSpec) Validate() error {
	if s.Limit < 0 {
		return fmt.Errorf("runspec: limit must be >= 0")
	}
	if s.Year < 0 {
		return fmt.Errorf("runspec: year must be >= 0")
	}
	if s.SpendingThreshold < 0 || s.SpendingThreshold > 1 {
		return fmt.Errorf("runspec: spendingThreshold must be in [0, 1]")
	}
	switch s.ExportFormat {
	case "", "parquet", "jsonl":
	default:
		return fmt.Errorf("runspec: unknown exportFormat %q", s.ExportFormat)
	}
	if s.Export && !s.Persist {
		return fmt.Errorf("runspec: export requires persist")
	}
	return nil
}

// LoadRunSpec reads and validates a YAML run spec.
func LoadRunSpec(path string) (*RunSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read run spec: %w", err)
	}
	return ParseRunSpec(data)
}

// ParseRunSpec decodes and validates YAML run spec bytes.
func ParseRunSpec(data []byte) (*RunSpec, error) {
	spec := &RunSpec{}
	if err := yaml.Unmarshal(data, spec); err != nil {
		return nil, fmt.Errorf("parse run spec: %w", err)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}
