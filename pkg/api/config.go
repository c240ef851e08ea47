package api

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RuntimeConfig toggles optional runtime behaviours. The zero value is the
// default: every option off.
type RuntimeConfig struct {
	// RenderOnlyWhenStateChanges skips the render pass after a turn in
	// which no state changed. Root outputs are still delivered.
	RenderOnlyWhenStateChanges bool `yaml:"render_only_when_state_changes"`

	// PartialTreeRendering re-runs only the render bodies of nodes whose
	// state changed, plus their ancestors; clean subtrees return their
	// cached rendering.
	PartialTreeRendering bool `yaml:"partial_tree_rendering"`

	// ConflateStaleRenderings applies every action that is already ready
	// before rendering, so intermediate renderings are never published.
	ConflateStaleRenderings bool `yaml:"conflate_stale_renderings"`

	// WorkStealingScheduler wraps the runtime scheduler so queued tasks can
	// be drained from the runtime with AdvanceUntilIdle.
	WorkStealingScheduler bool `yaml:"work_stealing_scheduler"`
}

// DefaultConfig returns the default runtime configuration.
func DefaultConfig() RuntimeConfig { return RuntimeConfig{} }

type configFile struct {
	Runtime RuntimeConfig `yaml:"runtime"`
}

// LoadRuntimeConfig reads the runtime section of a YAML file. A missing
// file yields DefaultConfig; unknown keys are an error.
func LoadRuntimeConfig(path string) (RuntimeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return RuntimeConfig{}, fmt.Errorf("read runtime config: %w", err)
	}
	return ParseRuntimeConfig(data)
}

// ParseRuntimeConfig decodes YAML of the form
//
//	runtime:
//	  partial_tree_rendering: true
func ParseRuntimeConfig(data []byte) (RuntimeConfig, error) {
	cfg := configFile{Runtime: DefaultConfig()}
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg.Runtime, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return RuntimeConfig{}, fmt.Errorf("parse runtime config: %w", err)
	}
	return cfg.Runtime, nil
}
