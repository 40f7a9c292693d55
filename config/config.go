// Package config loads and validates pre-whitening run configuration.
//
// Options are merged in three layers: built-in defaults, then an optional
// YAML file, then an optional override map mirroring the file structure.
// Closed string options (peak selection method, residual policy, model form)
// are validated into typed values at load time rather than checked at use
// sites.
package config

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/cwbudde/algo-prewhiten/periodogram"
	"github.com/cwbudde/algo-prewhiten/sinusoid"
)

// Config mirrors the configuration tree.
type Config struct {
	Input        Input        `koanf:"input"`
	Periodograms Periodograms `koanf:"periodograms"`
	AutoPW       AutoPW       `koanf:"autopw"`
	Optimization Optimization `koanf:"optimization"`
	Output       Output       `koanf:"output"`
}

// Input configures the initial light curve.
type Input struct {
	SubtractMean bool    `koanf:"subtract_mean"`
	T0           float64 `koanf:"t0"`
}

// Periodograms configures spectrum construction.
type Periodograms struct {
	// LowerLimit and UpperLimit bound the frequency grid; 0 selects the
	// resolution element and the approximate Nyquist frequency.
	LowerLimit          float64 `koanf:"lower_limit"`
	UpperLimit          float64 `koanf:"upper_limit"`
	PointsPerResolution int     `koanf:"points_per_resolution_element"`
	PolyfitOrder        int     `koanf:"polyfit_order"`
	BoxRadius           float64 `koanf:"box_radius_resolutions"`
}

// AutoPW configures the automatic pre-whitening loop.
type AutoPW struct {
	PeakSelectionMethod          string  `koanf:"peak_selection_method"`
	PeakSelectionHighestOverride int     `koanf:"peak_selection_highest_override"`
	PeakSelectionCutoffSig       float64 `koanf:"peak_selection_cutoff_sig"`
	CutoffIteration              int     `koanf:"cutoff_iteration"`
	NewLCGenerationMethod        string  `koanf:"new_lc_generation_method"`
	Bounds                       Bounds  `koanf:"bounds"`
}

// Bounds configures fit parameter boxes and the phase-retry policy.
type Bounds struct {
	PhaseFitRejectionCriterion float64 `koanf:"phase_fit_rejection_criterion"`
	FreqLowerCoeff             float64 `koanf:"freq_lower_coeff"`
	FreqUpperCoeff             float64 `koanf:"freq_upper_coeff"`
	AmpLowerCoeff              float64 `koanf:"amp_lower_coeff"`
	AmpUpperCoeff              float64 `koanf:"amp_upper_coeff"`
	PhaseLower                 float64 `koanf:"phase_lower"`
	PhaseUpper                 float64 `koanf:"phase_upper"`
}

// Optimization configures the fit engine.
type Optimization struct {
	MFIncludeZP        bool    `koanf:"mf_include_zp"`
	MFBoundaryWarnings float64 `koanf:"mf_boundary_warnings"`
	SFPhaseValueCheck  bool    `koanf:"sf_phase_value_check"`
	FrequencyModelType string  `koanf:"frequency_model_type"`
}

// Output configures result persistence.
type Output struct {
	Enabled       bool    `koanf:"enabled"`
	Dir           string  `koanf:"dir"`
	ReferenceFlux float64 `koanf:"reference_flux"`
	InMagnitudes  bool    `koanf:"in_magnitudes"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Input: Input{SubtractMean: true},
		Periodograms: Periodograms{
			PointsPerResolution: 10,
			PolyfitOrder:        3,
			BoxRadius:           5,
		},
		AutoPW: AutoPW{
			PeakSelectionMethod:          "slf",
			PeakSelectionHighestOverride: 5,
			PeakSelectionCutoffSig:       4.0,
			CutoffIteration:              50,
			NewLCGenerationMethod:        "mf",
			Bounds: Bounds{
				PhaseFitRejectionCriterion: 0.1,
				FreqLowerCoeff:             0.8,
				FreqUpperCoeff:             1.2,
				AmpLowerCoeff:              0.8,
				AmpUpperCoeff:              1.2,
				PhaseLower:                 -0.5,
				PhaseUpper:                 1.5,
			},
		},
		Optimization: Optimization{
			MFIncludeZP:        true,
			MFBoundaryWarnings: 0.03,
			SFPhaseValueCheck:  true,
			FrequencyModelType: "sin",
		},
		Output: Output{Dir: "pw_out"},
	}
}

// Load merges the defaults, an optional YAML file, and an optional override
// map (keyed by dotted or nested paths, mirroring the file structure), then
// validates the result.
func Load(path string, overrides map[string]any) (Config, error) {
	k := koanf.New(".")

	def := Default()
	if err := k.Load(confmap.Provider(flatten(def), "."), nil); err != nil {
		return Config{}, fmt.Errorf("config: defaults: %w", err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("config: file %s: %w", path, err)
		}
	}
	if overrides != nil {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return Config{}, fmt.Errorf("config: overrides: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// flatten expresses the defaults as a dotted-key map for the confmap
// provider, so file and override layers merge per leaf instead of per
// section.
func flatten(c Config) map[string]any {
	return map[string]any{
		"input.subtract_mean":                          c.Input.SubtractMean,
		"input.t0":                                     c.Input.T0,
		"periodograms.lower_limit":                     c.Periodograms.LowerLimit,
		"periodograms.upper_limit":                     c.Periodograms.UpperLimit,
		"periodograms.points_per_resolution_element":   c.Periodograms.PointsPerResolution,
		"periodograms.polyfit_order":                   c.Periodograms.PolyfitOrder,
		"periodograms.box_radius_resolutions":          c.Periodograms.BoxRadius,
		"autopw.peak_selection_method":                 c.AutoPW.PeakSelectionMethod,
		"autopw.peak_selection_highest_override":       c.AutoPW.PeakSelectionHighestOverride,
		"autopw.peak_selection_cutoff_sig":             c.AutoPW.PeakSelectionCutoffSig,
		"autopw.cutoff_iteration":                      c.AutoPW.CutoffIteration,
		"autopw.new_lc_generation_method":              c.AutoPW.NewLCGenerationMethod,
		"autopw.bounds.phase_fit_rejection_criterion":  c.AutoPW.Bounds.PhaseFitRejectionCriterion,
		"autopw.bounds.freq_lower_coeff":               c.AutoPW.Bounds.FreqLowerCoeff,
		"autopw.bounds.freq_upper_coeff":               c.AutoPW.Bounds.FreqUpperCoeff,
		"autopw.bounds.amp_lower_coeff":                c.AutoPW.Bounds.AmpLowerCoeff,
		"autopw.bounds.amp_upper_coeff":                c.AutoPW.Bounds.AmpUpperCoeff,
		"autopw.bounds.phase_lower":                    c.AutoPW.Bounds.PhaseLower,
		"autopw.bounds.phase_upper":                    c.AutoPW.Bounds.PhaseUpper,
		"optimization.mf_include_zp":                   c.Optimization.MFIncludeZP,
		"optimization.mf_boundary_warnings":            c.Optimization.MFBoundaryWarnings,
		"optimization.sf_phase_value_check":            c.Optimization.SFPhaseValueCheck,
		"optimization.frequency_model_type":            c.Optimization.FrequencyModelType,
		"output.enabled":                               c.Output.Enabled,
		"output.dir":                                   c.Output.Dir,
		"output.reference_flux":                        c.Output.ReferenceFlux,
		"output.in_magnitudes":                         c.Output.InMagnitudes,
	}
}

// Validate checks consistency and the closed string options.
func (c *Config) Validate() error {
	if _, err := c.PeakMethod(); err != nil {
		return err
	}
	if _, err := c.ModelForm(); err != nil {
		return err
	}
	switch c.AutoPW.NewLCGenerationMethod {
	case "mf", "sf":
	default:
		return fmt.Errorf("config: unknown new_lc_generation_method %q", c.AutoPW.NewLCGenerationMethod)
	}

	p := c.Periodograms
	if p.UpperLimit > 0 && p.LowerLimit > 0 && p.UpperLimit <= p.LowerLimit {
		return fmt.Errorf("config: periodogram upper limit %g <= lower limit %g", p.UpperLimit, p.LowerLimit)
	}
	if p.PointsPerResolution < 0 || p.PolyfitOrder < 0 || p.BoxRadius < 0 {
		return fmt.Errorf("config: negative periodogram parameter")
	}

	b := c.AutoPW.Bounds
	if b.FreqLowerCoeff <= 0 || b.FreqUpperCoeff <= b.FreqLowerCoeff {
		return fmt.Errorf("config: invalid frequency bound coefficients [%g, %g]", b.FreqLowerCoeff, b.FreqUpperCoeff)
	}
	if b.AmpLowerCoeff <= 0 || b.AmpUpperCoeff <= b.AmpLowerCoeff {
		return fmt.Errorf("config: invalid amplitude bound coefficients [%g, %g]", b.AmpLowerCoeff, b.AmpUpperCoeff)
	}
	if b.PhaseUpper <= b.PhaseLower {
		return fmt.Errorf("config: invalid phase bounds [%g, %g]", b.PhaseLower, b.PhaseUpper)
	}

	if c.AutoPW.CutoffIteration < 0 || c.AutoPW.PeakSelectionHighestOverride < 0 {
		return fmt.Errorf("config: negative iteration counts")
	}
	if c.AutoPW.PeakSelectionCutoffSig < 0 {
		return fmt.Errorf("config: negative peak selection cutoff significance")
	}
	return nil
}

// PeakMethod returns the validated peak selection method.
func (c *Config) PeakMethod() (periodogram.Method, error) {
	m, err := periodogram.ParseMethod(c.AutoPW.PeakSelectionMethod)
	if err != nil {
		return "", err
	}
	if m == periodogram.MethodBox {
		return "", fmt.Errorf("config: peak_selection_method %q cannot gate peaks", m)
	}
	return m, nil
}

// ModelForm returns the validated component model form.
func (c *Config) ModelForm() (sinusoid.Form, error) {
	return sinusoid.ParseForm(c.Optimization.FrequencyModelType)
}

// PeriodogramConfig maps the periodogram section onto its package config.
func (c *Config) PeriodogramConfig() periodogram.Config {
	return periodogram.Config{
		LowerLimit:          c.Periodograms.LowerLimit,
		UpperLimit:          c.Periodograms.UpperLimit,
		PointsPerResolution: c.Periodograms.PointsPerResolution,
		PolyOrder:           c.Periodograms.PolyfitOrder,
		BoxRadius:           c.Periodograms.BoxRadius,
	}
}
