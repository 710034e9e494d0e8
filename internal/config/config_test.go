package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/phasespace/internal/separatrix"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Lattice.Tune != DefaultTune {
		t.Errorf("expected tune %g, got %g", DefaultTune, cfg.Lattice.Tune)
	}
	if cfg.Search != separatrix.DefaultConfig() {
		t.Error("search section should match separatrix defaults")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	doc := "lattice:\n  tune: 0.338\nsearch:\n  turns: 500\n  tolerance: 1.0e-5\n"
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Lattice.Tune != 0.338 {
		t.Errorf("expected tune 0.338, got %g", cfg.Lattice.Tune)
	}
	if cfg.Lattice.Sextupole != DefaultSextupole {
		t.Errorf("sextupole should keep default, got %g", cfg.Lattice.Sextupole)
	}
	if cfg.Search.Turns != 500 || cfg.Search.Tolerance != 1e-5 {
		t.Errorf("search overrides not applied: %+v", cfg.Search)
	}
	if cfg.Search.SeptumX != separatrix.DefaultSeptumX {
		t.Errorf("septum should keep default, got %g", cfg.Search.SeptumX)
	}
	if !cfg.Search.VerifyBracket {
		t.Error("verify_bracket should keep default true")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"malformed", "lattice: [\n"},
		{"negative beta", "lattice:\n  beta: -1\n"},
		{"inverted bracket", "search:\n  stable_start: 0.05\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			if err := os.WriteFile(path, []byte(tt.doc), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")
	cfg := GetPreset("high-beta")
	cfg.Output.Plot = "portrait.png"

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, cfg)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("near-resonance")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Lattice.Tune != 0.338 {
		t.Errorf("expected tune 0.338, got %g", cfg.Lattice.Tune)
	}
	if cfg.Search.Turns != separatrix.DefaultTurns {
		t.Error("preset should carry default search settings")
	}

	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestPresetsAreValid(t *testing.T) {
	names := ListPresets()
	if len(names) != len(Presets) {
		t.Fatalf("expected %d presets, got %d", len(Presets), len(names))
	}
	for i, name := range names {
		if i > 0 && names[i-1] >= name {
			t.Errorf("presets not sorted: %v", names)
		}
		if err := GetPreset(name).Validate(); err != nil {
			t.Errorf("preset %s: %v", name, err)
		}
	}
}

func TestBuild(t *testing.T) {
	r := Presets["strong-sextupole"].Build()
	if r.Sextupole != 60 || r.Beta != DefaultBeta {
		t.Errorf("unexpected lattice %+v", r)
	}
}

func TestOverlayKeepsPreset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "override.yaml")
	if err := os.WriteFile(path, []byte("search:\n  turns: 2000\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := GetPreset("high-beta")
	if err := Overlay(path, cfg); err != nil {
		t.Fatalf("overlay: %v", err)
	}
	if cfg.Lattice != Presets["high-beta"] {
		t.Errorf("preset lattice lost: %+v", cfg.Lattice)
	}
	if cfg.Search.Turns != 2000 {
		t.Errorf("expected 2000 turns, got %d", cfg.Search.Turns)
	}
}
