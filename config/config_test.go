package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/nathoo/fancypick/types"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	p, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", p.LogLevel)
	}
	if p.Seed != nil || p.Loops != nil || p.Strict() {
		t.Errorf("unexpected defaults: %+v", p)
	}
}

func TestLoad_Profile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "run.yaml", `
seed: 99
loops: 8
strict_coverage: true
log_level: debug
save_dir: /tmp/saves
pick_on_restart: [dice, deck]
pickers:
  speed: '{"step", 0, 2, 10}'
`)
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Seed == nil || *p.Seed != 99 {
		t.Errorf("Seed = %v, want 99", p.Seed)
	}
	if p.Loops == nil || *p.Loops != 8 {
		t.Errorf("Loops = %v, want 8", p.Loops)
	}
	if !p.Strict() {
		t.Error("expected strict coverage")
	}
	if p.SaveDir != "/tmp/saves" {
		t.Errorf("SaveDir = %q", p.SaveDir)
	}
	if len(p.PickOnRestart) != 2 || p.PickOnRestart[1] != "deck" {
		t.Errorf("PickOnRestart = %v", p.PickOnRestart)
	}
	if p.Pickers["speed"] != `{"step", 0, 2, 10}` {
		t.Errorf("Pickers = %v", p.Pickers)
	}
	lvl, err := p.SlogLevel()
	if err != nil || lvl != slog.LevelDebug {
		t.Errorf("SlogLevel = %v, %v; want debug", lvl, err)
	}
}

func TestLoad_LaterFileWins(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "base.yaml", "seed: 1\nloops: 2\npickers:\n  a: '{1}'\n  b: '{2}'\n")
	over := writeFile(t, dir, "over.yaml", "seed: 5\npickers:\n  b: '{3}'\n")

	p, err := Load(base, over, filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *p.Seed != 5 {
		t.Errorf("Seed = %d, want 5", *p.Seed)
	}
	if *p.Loops != 2 {
		t.Errorf("Loops = %d, want 2 (kept from base)", *p.Loops)
	}
	if p.Pickers["a"] != "{1}" || p.Pickers["b"] != "{3}" {
		t.Errorf("Pickers = %v", p.Pickers)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		body string
	}{
		{"malformed", "seed: [1, 2"},
		{"bad level", "log_level: loud"},
		{"negative loops", "loops: -3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.name+".yaml", tt.body)
			if _, err := Load(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestMerge_DoesNotAlias(t *testing.T) {
	a := Profile{Pickers: map[string]string{"x": "{1}"}}
	b := Profile{Pickers: map[string]string{"y": "{2}"}}
	out := Merge(a, b)
	out.Pickers["z"] = "{3}"
	if _, ok := a.Pickers["z"]; ok {
		t.Error("Merge should not write through to its inputs")
	}
}

func TestApply(t *testing.T) {
	seed, loops := int64(7), 3
	s := types.Settings{Title: "t", Seed: 1, Loops: 1}

	Profile{}.Apply(&s)
	if s.Seed != 1 || s.Loops != 1 {
		t.Errorf("empty profile changed settings: %+v", s)
	}

	Profile{Seed: &seed, Loops: &loops}.Apply(&s)
	if s.Seed != 7 || s.Loops != 3 || s.Title != "t" {
		t.Errorf("settings = %+v", s)
	}
}
