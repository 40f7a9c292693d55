package fit

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-prewhiten/sinusoid"
)

// BoundaryWarning reports a joint-fit parameter that landed suspiciously
// close to one of its bounds, a sign the bound may be too tight. The fit
// itself still succeeded.
type BoundaryWarning struct {
	Component int
	Param     string // "f", "a", or "p"
	Value     float64
	Bound     float64
	Upper     bool
}

func (w BoundaryWarning) String() string {
	side := "lower"
	if w.Upper {
		side = "upper"
	}
	return fmt.Sprintf("component %d: %s = %g within warning distance of %s bound %g",
		w.Component, w.Param, w.Value, side, w.Bound)
}

// JointResult holds the outcome of a joint multi-component fit.
type JointResult struct {
	// Model is the joint model (all components plus zero point) evaluated
	// over the input time axis.
	Model []float64

	// ZeroPoint is the fitted shared offset, or the seed when the policy
	// excludes it from the fit.
	ZeroPoint float64

	Warnings []BoundaryWarning
}

// JointFit refines all supplied components at once, plus one shared zero
// point, against the original (non-residual) series. Per-component bounds
// derive from each component's current values: frequency and amplitude
// multiplicatively, phase by the absolute policy window. The tight default
// bounds keep the refinement from collapsing correlated components onto
// each other; this is not a re-discovery step.
//
// Postcondition: every element of freqs has its parameters updated and
// normalized in place. Uncertainties are not touched here.
func (o *Optimizer) JointFit(time, value, weight []float64, freqs []*sinusoid.Frequency, zp0 float64) (JointResult, error) {
	if err := checkSeries(time, value, weight); err != nil {
		return JointResult{}, err
	}
	if len(freqs) == 0 {
		return JointResult{}, fmt.Errorf("fit: joint fit requires at least one component")
	}

	cfg := o.cfg
	nComp := len(freqs)
	nPar := 3 * nComp
	if cfg.IncludeZeroPoint {
		nPar++
	}

	p0 := make([]float64, nPar)
	lo := make([]float64, nPar)
	hi := make([]float64, nPar)
	for i, fr := range freqs {
		f, a, p := fr.Parameters()
		p0[3*i], p0[3*i+1], p0[3*i+2] = f, a, clampPhase(p, cfg.PhaseLower, cfg.PhaseUpper)
		lo[3*i], hi[3*i] = f*cfg.FreqLower, f*cfg.FreqUpper
		lo[3*i+1], hi[3*i+1] = a*cfg.AmpLower, a*cfg.AmpUpper
		lo[3*i+2], hi[3*i+2] = cfg.PhaseLower, cfg.PhaseUpper
	}
	if cfg.IncludeZeroPoint {
		zlo, zhi := zeroPointBounds(value)
		p0[nPar-1] = math.Min(math.Max(zp0, zlo), zhi)
		lo[nPar-1], hi[nPar-1] = zlo, zhi
	}

	chi := newChiSq(value, weight)
	model := make([]float64, len(time))
	assemble := func(dst []float64, p []float64) {
		zp := 0.0
		if cfg.IncludeZeroPoint {
			zp = p[nPar-1]
		}
		for i := range dst {
			dst[i] = zp
		}
		for i, fr := range freqs {
			sinusoid.EvalInto(dst, fr.Form, time, fr.Epoch, p[3*i], p[3*i+1], p[3*i+2])
		}
	}
	obj := func(p []float64) float64 {
		assemble(model, p)
		return chi.of(model)
	}

	params, err := minimizeBounded(obj, p0, lo, hi)
	if err != nil {
		return JointResult{}, err
	}

	res := JointResult{ZeroPoint: zp0}
	if cfg.IncludeZeroPoint {
		res.ZeroPoint = params[nPar-1]
	}
	if cfg.BoundaryWarnFrac > 0 {
		res.Warnings = boundaryWarnings(params[:3*nComp], lo, hi, cfg.BoundaryWarnFrac)
	}

	out := make([]float64, len(time))
	assemble(out, params)
	res.Model = out

	for i, fr := range freqs {
		fr.Update(params[3*i], params[3*i+1], params[3*i+2])
	}
	return res, nil
}

var paramNames = [3]string{"f", "a", "p"}

func boundaryWarnings(params, lo, hi []float64, frac float64) []BoundaryWarning {
	var warns []BoundaryWarning
	for j, v := range params {
		dist := frac * math.Abs(v)
		switch {
		case math.Abs(v-lo[j]) < dist:
			warns = append(warns, BoundaryWarning{
				Component: j / 3, Param: paramNames[j%3], Value: v, Bound: lo[j],
			})
		case math.Abs(hi[j]-v) < dist:
			warns = append(warns, BoundaryWarning{
				Component: j / 3, Param: paramNames[j%3], Value: v, Bound: hi[j], Upper: true,
			})
		}
	}
	return warns
}

// zeroPointBounds gives the shared offset a generous box around the data
// range; the transform needs finite bounds even for a nearly free parameter.
func zeroPointBounds(value []float64) (zlo, zhi float64) {
	min, max := value[0], value[0]
	for _, v := range value {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	span := max - min
	if span <= 0 {
		span = 1
	}
	return min - span, max + span
}
