package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-prewhiten/periodogram"
	"github.com/cwbudde/algo-prewhiten/sinusoid"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if m, err := cfg.PeakMethod(); err != nil || m != periodogram.MethodSLF {
		t.Fatalf("default method = %v, %v", m, err)
	}
	if f, err := cfg.ModelForm(); err != nil || f != sinusoid.Sine {
		t.Fatalf("default form = %v, %v", f, err)
	}
}

func TestLoadMergePrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pw.yaml")
	doc := `
autopw:
  peak_selection_method: poly
  cutoff_iteration: 12
  bounds:
    freq_upper_coeff: 1.3
output:
  dir: from_file
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg, err := Load(path, map[string]any{
		"autopw.cutoff_iteration": 7,
		"output.in_magnitudes":    true,
	})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	// File overrides defaults.
	if cfg.AutoPW.PeakSelectionMethod != "poly" {
		t.Fatalf("method = %q, want poly", cfg.AutoPW.PeakSelectionMethod)
	}
	if cfg.AutoPW.Bounds.FreqUpperCoeff != 1.3 {
		t.Fatalf("freq_upper_coeff = %v, want 1.3", cfg.AutoPW.Bounds.FreqUpperCoeff)
	}
	if cfg.Output.Dir != "from_file" {
		t.Fatalf("dir = %q, want from_file", cfg.Output.Dir)
	}

	// Overrides beat the file.
	if cfg.AutoPW.CutoffIteration != 7 {
		t.Fatalf("cutoff_iteration = %d, want 7", cfg.AutoPW.CutoffIteration)
	}
	if !cfg.Output.InMagnitudes {
		t.Fatal("override in_magnitudes not applied")
	}

	// Untouched leaves keep defaults.
	if cfg.AutoPW.Bounds.FreqLowerCoeff != 0.8 {
		t.Fatalf("freq_lower_coeff = %v, want default 0.8", cfg.AutoPW.Bounds.FreqLowerCoeff)
	}
	if !cfg.Input.SubtractMean {
		t.Fatal("subtract_mean default lost in merge")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/pw.yaml", nil); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown method", func(c *Config) { c.AutoPW.PeakSelectionMethod = "loudest" }},
		{"box cannot gate", func(c *Config) { c.AutoPW.PeakSelectionMethod = "box" }},
		{"unknown form", func(c *Config) { c.Optimization.FrequencyModelType = "tan" }},
		{"unknown residual policy", func(c *Config) { c.AutoPW.NewLCGenerationMethod = "both" }},
		{"inverted grid limits", func(c *Config) { c.Periodograms.LowerLimit = 5; c.Periodograms.UpperLimit = 1 }},
		{"inverted freq coeffs", func(c *Config) { c.AutoPW.Bounds.FreqLowerCoeff = 1.2; c.AutoPW.Bounds.FreqUpperCoeff = 0.8 }},
		{"inverted phase bounds", func(c *Config) { c.AutoPW.Bounds.PhaseLower = 2; c.AutoPW.Bounds.PhaseUpper = 1 }},
		{"negative cutoff sig", func(c *Config) { c.AutoPW.PeakSelectionCutoffSig = -1 }},
		{"negative iterations", func(c *Config) { c.AutoPW.CutoffIteration = -3 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
