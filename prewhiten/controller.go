package prewhiten

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/cwbudde/algo-prewhiten/config"
	"github.com/cwbudde/algo-prewhiten/fit"
	"github.com/cwbudde/algo-prewhiten/lightcurve"
	"github.com/cwbudde/algo-prewhiten/periodogram"
	"github.com/cwbudde/algo-prewhiten/sinusoid"
)

// State identifies the controller's position in the iteration cycle.
type State int

// Controller states.
const (
	StateReady State = iota
	StateSelectPeak
	StateFitSingle
	StateFitJoint
	StateMakeResidual
	StateDone
	StateFailed
)

var stateNames = [...]string{"ready", "select_peak", "fit_single", "fit_joint", "make_residual", "done", "failed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Outcome discriminates how an iteration (or the whole run) ended.
type Outcome int

// Iteration outcomes. Exhausted is the clean termination: no candidate peak
// cleared the significance gate. SelectionFailed covers iterations that
// ended before any component fit, either because the controller was already
// terminal or because the noise model needed for selection could not be
// fitted. A non-nil error is always paired with an outcome naming the
// failing stage, never with OutcomeOK.
const (
	OutcomeOK Outcome = iota
	OutcomeExhausted
	OutcomeSingleFitFailed
	OutcomeResidualFailed
	OutcomeSelectionFailed
)

var outcomeNames = [...]string{"ok", "exhausted", "single_fit_failed", "residual_failed", "selection_failed"}

func (o Outcome) String() string {
	if o < 0 || int(o) >= len(outcomeNames) {
		return fmt.Sprintf("outcome(%d)", int(o))
	}
	return outcomeNames[o]
}

// Sink receives intermediate and final results. Implemented by the output
// manager; the controller calls SaveIteration after every completed iteration
// and SaveFinal once after finalization.
type Sink interface {
	SaveIteration(iteration int, lc *lightcurve.Lightcurve, freqs *sinusoid.Container, zeroPoint float64) error
	SaveFinal(lcs []*lightcurve.Lightcurve, freqs *sinusoid.Container, zeroPoint float64) error
}

// Controller owns the pre-whitening loop state: the chain of residual light
// curves, the accepted components, and the shared zero point. A Controller
// is not safe for concurrent use; run one analysis per Controller.
type Controller struct {
	cfg config.Config
	log zerolog.Logger

	opt    *fit.Optimizer
	method periodogram.Method

	lcs   []*lightcurve.Lightcurve
	freqs *sinusoid.Container
	zp    float64

	state State
	sink  Sink
}

// New builds a controller over the raw series. The configuration must have
// passed Validate; enum fields are parsed again here so a hand-assembled
// Config fails loudly instead of mid-run.
func New(time, value, weight []float64, cfg config.Config, logger zerolog.Logger) (*Controller, error) {
	method, err := cfg.PeakMethod()
	if err != nil {
		return nil, err
	}
	form, err := cfg.ModelForm()
	if err != nil {
		return nil, err
	}

	lc, err := lightcurve.New(time, value, weight, lightcurve.Config{
		Periodogram:  cfg.PeriodogramConfig(),
		SubtractMean: cfg.Input.SubtractMean,
	})
	if err != nil {
		return nil, err
	}

	b := cfg.AutoPW.Bounds
	opt := fit.NewOptimizer(fit.Config{
		Form:             form,
		Epoch:            cfg.Input.T0,
		FreqLower:        b.FreqLowerCoeff,
		FreqUpper:        b.FreqUpperCoeff,
		AmpLower:         b.AmpLowerCoeff,
		AmpUpper:         b.AmpUpperCoeff,
		PhaseLower:       b.PhaseLower,
		PhaseUpper:       b.PhaseUpper,
		PhaseCheck:       cfg.Optimization.SFPhaseValueCheck,
		PhaseRejection:   b.PhaseFitRejectionCriterion,
		IncludeZeroPoint: cfg.Optimization.MFIncludeZP,
		BoundaryWarnFrac: cfg.Optimization.MFBoundaryWarnings,
	})

	return &Controller{
		cfg:    cfg,
		log:    logger,
		opt:    opt,
		method: method,
		lcs:    []*lightcurve.Lightcurve{lc},
		freqs:  sinusoid.NewContainer(),
	}, nil
}

// SetSink installs the iteration/final result receiver. nil disables it.
func (c *Controller) SetSink(s Sink) { c.sink = s }

// Lightcurves returns the chain of light curves, iteration 0 first.
func (c *Controller) Lightcurves() []*lightcurve.Lightcurve { return c.lcs }

// Frequencies returns the accepted components.
func (c *Controller) Frequencies() *sinusoid.Container { return c.freqs }

// ZeroPoint returns the current shared offset of the joint model.
func (c *Controller) ZeroPoint() float64 { return c.zp }

// State returns the controller state.
func (c *Controller) State() State { return c.state }

// Iteration returns the number of completed iterations.
func (c *Controller) Iteration() int { return len(c.lcs) - 1 }

// Current returns the most recent residual light curve.
func (c *Controller) Current() *lightcurve.Lightcurve { return c.lcs[len(c.lcs)-1] }

// Step runs one full iteration: peak selection, single fit, joint refinement,
// residual generation. For the first peak_selection_highest_override
// iterations the selection method is forced to highest. Grid points within
// one resolution element of an already accepted frequency are always
// excluded from selection.
//
// Returns OutcomeExhausted (and moves to the done state) when no candidate
// survives; errors move the controller to the failed state.
func (c *Controller) Step() (Outcome, error) {
	if c.state == StateDone || c.state == StateFailed {
		return OutcomeSelectionFailed, fmt.Errorf("prewhiten: step in %s state", c.state)
	}
	iter := c.Iteration()
	c.log.Info().Int("iteration", iter).Msg("iteration start")

	c.state = StateSelectPeak
	method := c.method
	if iter < c.cfg.AutoPW.PeakSelectionHighestOverride {
		method = periodogram.MethodHighest
	}

	pg := c.Current().Periodogram()
	f, a, ok, err := pg.SelectPeak(method, c.cfg.AutoPW.PeakSelectionCutoffSig, c.exclusionMask(pg))
	if err != nil {
		c.state = StateFailed
		return OutcomeSelectionFailed, fmt.Errorf("prewhiten: peak selection: %w", err)
	}
	if !ok {
		c.state = StateDone
		c.log.Info().Int("iteration", iter).Msg("no candidate above significance gate")
		return OutcomeExhausted, nil
	}
	c.log.Info().Int("iteration", iter).
		Float64("freq", f).Float64("amp", a).Str("method", string(method)).
		Msg("candidate selected")

	return c.extract(iter, f, a, 0.5)
}

// StepManual runs one iteration seeded with an expert-supplied candidate,
// bypassing peak selection entirely.
func (c *Controller) StepManual(f, a, p float64) (Outcome, error) {
	if c.state == StateDone || c.state == StateFailed {
		return OutcomeSelectionFailed, fmt.Errorf("prewhiten: step in %s state", c.state)
	}
	iter := c.Iteration()
	c.log.Info().Int("iteration", iter).
		Float64("freq", f).Float64("amp", a).Float64("phase", p).
		Msg("manual candidate")
	return c.extract(iter, f, a, p)
}

// extract runs the fit/refine/subtract tail of an iteration.
func (c *Controller) extract(iter int, f0, a0, p0 float64) (Outcome, error) {
	cur := c.Current()

	c.state = StateFitSingle
	sr, err := c.opt.SingleFit(cur.Time(), cur.Value(), cur.Weight(), f0, a0, p0)
	if err != nil {
		c.state = StateFailed
		return OutcomeSingleFitFailed, fmt.Errorf("prewhiten: single fit: %w", err)
	}
	if sr.Stuck {
		c.log.Warn().Int("iteration", iter).Float64("phase", sr.Phase).
			Msg("phase stuck at seed after retries")
	}
	c.log.Info().Int("iteration", iter).
		Float64("freq", sr.Freq).Float64("amp", sr.Amp).Float64("phase", sr.Phase).
		Int("retries", sr.Retries).
		Msg("single fit")

	form := c.opt.Config().Form
	c.freqs.Add(sinusoid.New(sr.Freq, sr.Amp, sr.Phase, c.cfg.Input.T0, form))

	c.state = StateFitJoint
	first := c.lcs[0]
	jr, err := c.opt.JointFit(first.Time(), first.Value(), first.Weight(), c.freqs.Frequencies(), c.zp)
	if err != nil {
		c.state = StateFailed
		return OutcomeSingleFitFailed, fmt.Errorf("prewhiten: joint fit: %w", err)
	}
	c.zp = jr.ZeroPoint
	for _, w := range jr.Warnings {
		c.log.Warn().Int("iteration", iter).Str("parameter", w.String()).
			Msg("joint fit parameter near bound")
	}
	c.log.Info().Int("iteration", iter).
		Float64("zero_point", c.zp).Int("boundary_warnings", len(jr.Warnings)).
		Msg("joint fit")

	c.state = StateMakeResidual
	var next *lightcurve.Lightcurve
	if c.cfg.AutoPW.NewLCGenerationMethod == "sf" {
		next, err = cur.Residual(sr.Model)
	} else {
		next, err = first.Residual(jr.Model)
	}
	if err != nil {
		c.state = StateFailed
		return OutcomeResidualFailed, fmt.Errorf("prewhiten: residual: %w", err)
	}
	c.lcs = append(c.lcs, next)

	if c.sink != nil {
		if err := c.sink.SaveIteration(iter, next, c.freqs, c.zp); err != nil {
			c.log.Warn().Int("iteration", iter).Err(err).Msg("iteration sink failed")
		}
	}

	c.state = StateReady
	return OutcomeOK, nil
}

// Run iterates until the significance gate exhausts, cutoff_iteration
// components are accepted, or an iteration fails, then finalizes the
// accepted components against the last residual.
func (c *Controller) Run() error {
	for c.state != StateDone && c.state != StateFailed {
		if cut := c.cfg.AutoPW.CutoffIteration; cut > 0 && c.freqs.Len() >= cut {
			c.log.Info().Int("components", c.freqs.Len()).Msg("iteration cutoff reached")
			c.state = StateDone
			break
		}
		out, err := c.Step()
		if err != nil {
			c.log.Error().Err(err).Str("outcome", out.String()).Msg("iteration failed")
			return err
		}
		if out == OutcomeExhausted {
			break
		}
	}
	if c.state == StateDone {
		return c.finalize()
	}
	return nil
}

// finalize computes component significances and uncertainties against the
// final residual, then hands the full result to the sink.
func (c *Controller) finalize() error {
	resid := c.Current()
	pg := resid.Periodogram()

	// Box significance can fail on narrow grids and the noise-model fits on
	// degenerate residual spectra; each estimate that remains computable
	// still stands.
	for _, m := range []sinusoid.Method{sinusoid.MethodBox, sinusoid.MethodPoly, sinusoid.MethodSLF} {
		if err := c.freqs.ComputeSignificances(pg, m); err != nil {
			c.log.Warn().Str("method", string(m)).Err(err).Msg("significance unavailable")
		}
	}
	c.freqs.ComputeUncertainties(resid.StdDev(), resid.Baseline(), resid.EffectiveN())

	c.log.Info().Int("components", c.freqs.Len()).
		Float64("residual_stddev", resid.StdDev()).
		Float64("zero_point", c.zp).
		Msg("analysis finalized")

	if c.sink != nil {
		if err := c.sink.SaveFinal(c.lcs, c.freqs, c.zp); err != nil {
			return fmt.Errorf("prewhiten: final sink: %w", err)
		}
	}
	return nil
}

// exclusionMask marks every grid point within one resolution element of an
// accepted frequency, so repeat extractions of the same peak are impossible
// regardless of selection method.
func (c *Controller) exclusionMask(pg *periodogram.Periodogram) []bool {
	if c.freqs.Len() == 0 {
		return nil
	}
	grid := pg.Grid()
	mask := make([]bool, len(grid))
	for _, fr := range c.freqs.Frequencies() {
		for i, g := range grid {
			if math.Abs(g-fr.Freq) < pg.Resolution() {
				mask[i] = true
			}
		}
	}
	return mask
}
