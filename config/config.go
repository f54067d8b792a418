// Package config reads YAML run profiles. A profile tunes a session
// without editing the Lua definitions: seed, loop count, strictness,
// logging, and picker overrides. Profiles merge default <- file <- file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/nathoo/fancypick/types"
	"gopkg.in/yaml.v3"
)

// Profile is one YAML run profile. Pointer fields distinguish "unset"
// from a zero value so later files can override earlier ones.
type Profile struct {
	Seed           *int64            `yaml:"seed,omitempty"`
	Loops          *int              `yaml:"loops,omitempty"`
	StrictCoverage *bool             `yaml:"strict_coverage,omitempty"`
	LogLevel       string            `yaml:"log_level,omitempty"` // debug | info | warn | error
	SaveDir        string            `yaml:"save_dir,omitempty"`
	PickOnRestart  []string          `yaml:"pick_on_restart,omitempty"`
	Pickers        map[string]string `yaml:"pickers,omitempty"` // name -> Lua definition
}

// Default returns the profile used when no file sets a field.
func Default() Profile {
	return Profile{LogLevel: "warn"}
}

// Load reads the profiles at paths and merges them over Default, later
// files winning. A missing file is skipped; a malformed one is an error.
func Load(paths ...string) (Profile, error) {
	merged := Default()
	for _, path := range paths {
		p, err := readYAML(path)
		if err != nil {
			return Profile{}, fmt.Errorf("read profile %s: %w", path, err)
		}
		merged = Merge(merged, p)
	}
	if _, err := merged.SlogLevel(); err != nil {
		return Profile{}, err
	}
	if merged.Loops != nil && *merged.Loops < 0 {
		return Profile{}, fmt.Errorf("profile loops = %d must not be negative", *merged.Loops)
	}
	return merged, nil
}

// readYAML loads a YAML file into a Profile. Missing files return zero profile, no error.
func readYAML(path string) (Profile, error) {
	var p Profile
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Profile{}, nil
		}
		return Profile{}, err
	}
	if err := yaml.Unmarshal(b, &p); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Merge overlays b on a: b wins where it sets a field. PickOnRestart
// replaces, Pickers merges key by key.
func Merge(a, b Profile) Profile {
	out := a
	if b.Seed != nil {
		out.Seed = b.Seed
	}
	if b.Loops != nil {
		out.Loops = b.Loops
	}
	if b.StrictCoverage != nil {
		out.StrictCoverage = b.StrictCoverage
	}
	if b.LogLevel != "" {
		out.LogLevel = b.LogLevel
	}
	if b.SaveDir != "" {
		out.SaveDir = b.SaveDir
	}
	if b.PickOnRestart != nil {
		out.PickOnRestart = append([]string(nil), b.PickOnRestart...)
	}
	if len(b.Pickers) > 0 {
		m := make(map[string]string, len(a.Pickers)+len(b.Pickers))
		for k, v := range a.Pickers {
			m[k] = v
		}
		for k, v := range b.Pickers {
			m[k] = v
		}
		out.Pickers = m
	}
	return out
}

// Apply overrides the Lua settings with the fields the profile sets.
func (p Profile) Apply(s *types.Settings) {
	if p.Seed != nil {
		s.Seed = *p.Seed
	}
	if p.Loops != nil {
		s.Loops = *p.Loops
	}
}

// Strict reports whether coverage findings should fail commands.
func (p Profile) Strict() bool {
	return p.StrictCoverage != nil && *p.StrictCoverage
}

// SlogLevel parses LogLevel. An empty level means warn.
func (p Profile) SlogLevel() (slog.Level, error) {
	if p.LogLevel == "" {
		return slog.LevelWarn, nil
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(p.LogLevel))); err != nil {
		return 0, fmt.Errorf("profile log_level %q: %w", p.LogLevel, err)
	}
	return lvl, nil
}
