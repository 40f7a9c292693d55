package fit

import "github.com/cwbudde/algo-prewhiten/sinusoid"

// Default fit policy values.
const (
	defaultFreqLower      = 0.8
	defaultFreqUpper      = 1.2
	defaultAmpLower       = 0.8
	defaultAmpUpper       = 1.2
	defaultPhaseLower     = -0.5
	defaultPhaseUpper     = 1.5
	defaultPhaseRejection = 0.1
	defaultPhaseStep      = 0.17
	defaultPhaseRetries   = 5
)

// Config holds fit policy parameters.
//
// FreqLower/FreqUpper and AmpLower/AmpUpper are multiplicative coefficients
// applied to the seed (or, in joint fits, current) value of each component.
// PhaseLower/PhaseUpper are absolute bounds: phase is periodic, so the
// intent is a fixed window around the seed, not a relative one.
type Config struct {
	Form  sinusoid.Form
	Epoch float64

	FreqLower  float64
	FreqUpper  float64
	AmpLower   float64
	AmpUpper   float64
	PhaseLower float64
	PhaseUpper float64

	// PhaseCheck enables the stuck-seed heuristic: a single-component fit
	// whose phase lands within PhaseRejection of its seed is retried with
	// the seed shifted by PhaseStep, at most MaxPhaseRetries times.
	PhaseCheck      bool
	PhaseRejection  float64
	PhaseStep       float64
	MaxPhaseRetries int

	// IncludeZeroPoint adds a shared constant offset to joint fits.
	IncludeZeroPoint bool

	// BoundaryWarnFrac flags joint-fit parameters that land within this
	// fraction of their own value from a bound. Zero disables the check.
	BoundaryWarnFrac float64
}

// DefaultConfig returns the stock fit policy.
func DefaultConfig() Config {
	return Config{
		Form:             sinusoid.Sine,
		FreqLower:        defaultFreqLower,
		FreqUpper:        defaultFreqUpper,
		AmpLower:         defaultAmpLower,
		AmpUpper:         defaultAmpUpper,
		PhaseLower:       defaultPhaseLower,
		PhaseUpper:       defaultPhaseUpper,
		PhaseCheck:       true,
		PhaseRejection:   defaultPhaseRejection,
		PhaseStep:        defaultPhaseStep,
		MaxPhaseRetries:  defaultPhaseRetries,
		IncludeZeroPoint: true,
		BoundaryWarnFrac: 0.03,
	}
}

func normalizeConfig(cfg Config) Config {
	if cfg.FreqLower <= 0 {
		cfg.FreqLower = defaultFreqLower
	}
	if cfg.FreqUpper <= 0 {
		cfg.FreqUpper = defaultFreqUpper
	}
	if cfg.AmpLower <= 0 {
		cfg.AmpLower = defaultAmpLower
	}
	if cfg.AmpUpper <= 0 {
		cfg.AmpUpper = defaultAmpUpper
	}
	if cfg.PhaseLower == 0 && cfg.PhaseUpper == 0 {
		cfg.PhaseLower = defaultPhaseLower
		cfg.PhaseUpper = defaultPhaseUpper
	}
	if cfg.PhaseRejection <= 0 {
		cfg.PhaseRejection = defaultPhaseRejection
	}
	if cfg.PhaseStep == 0 {
		cfg.PhaseStep = defaultPhaseStep
	}
	if cfg.MaxPhaseRetries <= 0 {
		cfg.MaxPhaseRetries = defaultPhaseRetries
	}
	return cfg
}

// Optimizer performs single- and joint-component fits under one policy.
type Optimizer struct {
	cfg Config
}

// NewOptimizer creates an optimizer with the given policy. Zero-valued
// policy fields are replaced by defaults.
func NewOptimizer(cfg Config) *Optimizer {
	return &Optimizer{cfg: normalizeConfig(cfg)}
}

// Config returns the normalized policy in effect.
func (o *Optimizer) Config() Config { return o.cfg }
