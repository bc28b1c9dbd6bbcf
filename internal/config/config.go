// Package config loads the evaluator's resource limits and reporting
// settings from YAML, the way funxy's own cmd/funxy loads its tool
// configuration: a flat struct with package-level defaults, no framework.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/WORLDSTISSUESDAOSPORE1/mm0/internal/lisp"
)

// Version is the current module version, set at release time the same way
// funxy's config.Version is.
var Version = "0.1.0"

// IsTestMode mirrors funxy's package-level test-mode flag; nothing in this
// module sets or reads it.
var IsTestMode = false

// Limits is the YAML-serializable form of lisp.Limits.
type Limits struct {
	MaxStackFrames    int  `yaml:"max_stack_frames"`
	TimeoutCheckEvery *int `yaml:"timeout_check_every,omitempty"`
}

// Reporting records which diagnostic levels are enabled. It is loaded
// from YAML only: the evaluator does not read it, and the set-reporting
// builtin does not change it.
type Reporting struct {
	Info  bool `yaml:"info"`
	Warn  bool `yaml:"warn"`
	Error bool `yaml:"error"`
}

// Config is the top-level document loaded from a mm0lisp.yaml file.
type Config struct {
	Limits    Limits    `yaml:"limits"`
	Reporting Reporting `yaml:"reporting"`
}

func Default() Config {
	return Config{
		Limits:    Limits{MaxStackFrames: 1024},
		Reporting: Reporting{Info: true, Warn: true, Error: true},
	}
}

// Load reads and parses a YAML config file, falling back to Default on a
// missing file (matching funxy's ext/config.go "absent means defaults"
// convention) but surfacing any other read or parse error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ToLispLimits converts the YAML-facing Limits into the evaluator's own
// type, applying the TimeoutCheckEvery wraparound default when unset.
func (l Limits) ToLispLimits() lisp.Limits {
	out := lisp.Limits{MaxStackFrames: l.MaxStackFrames}
	if l.TimeoutCheckEvery != nil {
		out.TimeoutCheckEvery = uint8(*l.TimeoutCheckEvery)
	}
	return out
}
