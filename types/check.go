package types

import (
	"fmt"
	"time"
)

// CheckStatus represents the possible outcomes of an acceptance check
type CheckStatus string

const (
	CheckStatusPass CheckStatus = "pass"
	CheckStatusFail CheckStatus = "fail"
	CheckStatusSkip CheckStatus = "skip"
)

// CheckMode selects how a check exercises the compiled bindings
type CheckMode string

const (
	// CheckModeCompile compiles the check source against the cached bindings
	// archive and discards the result.
	CheckModeCompile CheckMode = "compile"
	// CheckModeEmulate additionally executes the compiled check inside the
	// runtime-emulation harness.
	CheckModeEmulate CheckMode = "emulate"
)

// IsValid reports whether the mode is one of the known check modes
func (m CheckMode) IsValid() bool {
	return m == CheckModeCompile || m == CheckModeEmulate
}

// CheckConfig represents one entry of the check manifest
type CheckConfig struct {
	Name      string    `yaml:"name"`
	Source    string    `yaml:"source"`
	Mode      CheckMode `yaml:"mode,omitempty"`
	Class     string    `yaml:"class,omitempty"`     // emulator test class, emulate mode only
	Platforms []string  `yaml:"platforms,omitempty"` // version filter; empty means every version
	Deps      []string  `yaml:"deps,omitempty"`      // extra dependency archives
}

// AppliesTo reports whether the check should run against the given
// platform version string. An empty filter matches every version.
func (c CheckConfig) AppliesTo(version string) bool {
	if len(c.Platforms) == 0 {
		return true
	}
	for _, v := range c.Platforms {
		if v == version {
			return true
		}
	}
	return false
}

// CheckResult captures the outcome of a single check against one platform version
type CheckResult struct {
	Check       CheckConfig
	Platform    string // platform version string the check ran against
	Status      CheckStatus
	Error       error
	Diagnostics string // captured diagnostic output for failing checks
	Duration    time.Duration
}

// Key returns a stable identifier for the result, unique per check and platform
func (r *CheckResult) Key() string {
	return fmt.Sprintf("%s@%s", r.Check.Name, r.Platform)
}
