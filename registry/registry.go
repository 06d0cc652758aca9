// Package registry loads and validates the acceptance-check manifest.
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"gopkg.in/yaml.v3"

	"github.com/platformlab/bindcheck/types"
)

// Registry manages the configured acceptance checks
type Registry struct {
	config Config
	checks []types.CheckConfig
	mu     sync.RWMutex
}

// Config contains registry configuration
type Config struct {
	Log          log.Logger
	ManifestFile string
	SourceDir    string // directory check sources are resolved against
}

// manifest mirrors the YAML layout of the check manifest file
type manifest struct {
	Checks []types.CheckConfig `yaml:"checks"`
}

// NewRegistry creates a new registry instance
func NewRegistry(cfg Config) (*Registry, error) {
	if cfg.ManifestFile == "" {
		return nil, fmt.Errorf("check manifest file is required")
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}

	r := &Registry{config: cfg}
	if err := r.loadChecks(cfg.ManifestFile); err != nil {
		return nil, fmt.Errorf("failed to load check manifest: %w", err)
	}

	cfg.Log.Debug("Registry loaded", "len(checks)", len(r.checks))
	return r, nil
}

// loadChecks parses the manifest and validates every entry
func (r *Registry) loadChecks(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(m.Checks) == 0 {
		return fmt.Errorf("%s declares no checks", path)
	}

	seen := make(map[string]bool)
	for i := range m.Checks {
		check := &m.Checks[i]
		if err := validateCheck(check); err != nil {
			return fmt.Errorf("check %d (%s): %w", i, check.Name, err)
		}
		if seen[check.Name] {
			return fmt.Errorf("duplicate check name %q", check.Name)
		}
		seen[check.Name] = true
		if r.config.SourceDir != "" && !filepath.IsAbs(check.Source) {
			check.Source = filepath.Join(r.config.SourceDir, check.Source)
		}
	}

	r.checks = m.Checks
	return nil
}

// validateCheck applies defaults and rejects malformed manifest entries
func validateCheck(check *types.CheckConfig) error {
	if check.Name == "" {
		return fmt.Errorf("name is required")
	}
	if check.Source == "" {
		return fmt.Errorf("source is required")
	}
	if check.Mode == "" {
		check.Mode = types.CheckModeCompile
	}
	if !check.Mode.IsValid() {
		return fmt.Errorf("unknown mode %q", check.Mode)
	}
	if check.Mode == types.CheckModeEmulate && check.Class == "" {
		return fmt.Errorf("emulate checks require a test class")
	}
	return nil
}

// Checks returns a copy of the configured checks
func (r *Registry) Checks() []types.CheckConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]types.CheckConfig, len(r.checks))
	copy(out, r.checks)
	return out
}
