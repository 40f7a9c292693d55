package fit

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-prewhiten/internal/buf"
	"github.com/cwbudde/algo-prewhiten/sinusoid"
)

// SingleResult holds the outcome of a single-component fit.
type SingleResult struct {
	Freq  float64
	Amp   float64
	Phase float64

	// Model is the fitted component evaluated over the input time axis.
	Model []float64

	// Retries counts phase-seed perturbations taken by the stuck-seed
	// heuristic. Stuck is set when the retry budget ran out and the last
	// best-effort result was accepted anyway.
	Retries int
	Stuck   bool
}

// SingleFit fits one component to the series by bounded weighted least
// squares, seeded at (f0, a0, p0). Frequency and amplitude are bounded
// multiplicatively around their seeds, phase by the absolute policy window.
//
// A fitted phase that stays within PhaseRejection of its seed is treated as
// stuck at the seed rather than converged, and the fit is retried with the
// seed shifted by PhaseStep, at most MaxPhaseRetries times.
func (o *Optimizer) SingleFit(time, value, weight []float64, f0, a0, p0 float64) (SingleResult, error) {
	if err := checkSeries(time, value, weight); err != nil {
		return SingleResult{}, err
	}
	if f0 <= 0 || a0 <= 0 {
		return SingleResult{}, fmt.Errorf("fit: seed must have positive frequency and amplitude: f0=%g a0=%g", f0, a0)
	}

	cfg := o.cfg
	lo := []float64{f0 * cfg.FreqLower, a0 * cfg.AmpLower, cfg.PhaseLower}
	hi := []float64{f0 * cfg.FreqUpper, a0 * cfg.AmpUpper, cfg.PhaseUpper}

	chi := newChiSq(value, weight)
	model := make([]float64, len(time))
	obj := func(p []float64) float64 {
		buf.Zero(model)
		sinusoid.EvalInto(model, cfg.Form, time, cfg.Epoch, p[0], p[1], p[2])
		return chi.of(model)
	}

	guess := clampPhase(p0, cfg.PhaseLower, cfg.PhaseUpper)

	var res SingleResult
	for retry := 0; ; retry++ {
		params, err := minimizeBounded(obj, []float64{f0, a0, guess}, lo, hi)
		if err != nil {
			return SingleResult{}, err
		}
		res.Freq, res.Amp, res.Phase = params[0], params[1], params[2]
		res.Retries = retry

		if !cfg.PhaseCheck || math.Abs(res.Phase-guess) >= cfg.PhaseRejection {
			break
		}
		if retry >= cfg.MaxPhaseRetries {
			res.Stuck = true
			break
		}
		guess = clampPhase(guess+cfg.PhaseStep, cfg.PhaseLower, cfg.PhaseUpper)
	}

	out := make([]float64, len(time))
	sinusoid.EvalInto(out, cfg.Form, time, cfg.Epoch, res.Freq, res.Amp, res.Phase)
	res.Model = out
	return res, nil
}

func clampPhase(p, lo, hi float64) float64 {
	margin := 1e-6 * (hi - lo)
	if p < lo+margin {
		return lo + margin
	}
	if p > hi-margin {
		return hi - margin
	}
	return p
}
