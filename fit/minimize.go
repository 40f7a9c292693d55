package fit

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/optimize"
)

// ErrNotConverged reports that the underlying minimizer failed to reach a
// usable minimum even after the derivative-free fallback.
var ErrNotConverged = errors.New("fit: minimizer did not converge")

// boundTransform maps box-bounded parameters to an unbounded internal space
// via p = lo + (hi-lo)*(sin(x)+1)/2, the MINUIT-style transform. The
// minimizer operates on x; the model only ever sees in-bound values.
type boundTransform struct {
	lo, hi []float64
}

func newBoundTransform(lo, hi []float64) (*boundTransform, error) {
	if len(lo) != len(hi) {
		return nil, fmt.Errorf("fit: bound length mismatch: %d vs %d", len(lo), len(hi))
	}
	for i := range lo {
		if !(hi[i] > lo[i]) || math.IsNaN(lo[i]) || math.IsInf(hi[i], 0) || math.IsInf(lo[i], 0) {
			return nil, fmt.Errorf("fit: invalid bounds for parameter %d: [%g, %g]", i, lo[i], hi[i])
		}
	}
	return &boundTransform{lo: lo, hi: hi}, nil
}

// internal maps bounded parameters into the unbounded space, clamping seeds
// that sit exactly on (or outside) a bound slightly inward first.
func (b *boundTransform) internal(p []float64) []float64 {
	x := make([]float64, len(p))
	for i, v := range p {
		span := b.hi[i] - b.lo[i]
		margin := 1e-8 * span
		if v < b.lo[i]+margin {
			v = b.lo[i] + margin
		}
		if v > b.hi[i]-margin {
			v = b.hi[i] - margin
		}
		x[i] = math.Asin(2*(v-b.lo[i])/span - 1)
	}
	return x
}

// externalInto maps internal coordinates back into bounded parameters.
func (b *boundTransform) externalInto(dst, x []float64) {
	for i, v := range x {
		dst[i] = b.lo[i] + (b.hi[i]-b.lo[i])*(math.Sin(v)+1)/2
	}
}

// minimizeBounded minimizes obj over the box [lo, hi] starting from p0.
// obj receives in-bound parameters only. BFGS with finite-difference
// gradients runs first; Nelder-Mead is the fallback when the line search
// fails, which happens routinely near flat chi-square valleys.
func minimizeBounded(obj func(p []float64) float64, p0, lo, hi []float64) ([]float64, error) {
	tr, err := newBoundTransform(lo, hi)
	if err != nil {
		return nil, err
	}

	ext := make([]float64, len(p0))
	fn := func(x []float64) float64 {
		tr.externalInto(ext, x)
		return obj(ext)
	}
	// BFGS demands an explicit gradient; finite differences over the
	// transformed objective keep the model code derivative-free.
	problem := optimize.Problem{
		Func: fn,
		Grad: func(grad, x []float64) {
			fd.Gradient(grad, fn, x, nil)
		},
	}

	x0 := tr.internal(p0)

	best, bestF := []float64(nil), math.Inf(1)
	record := func(res *optimize.Result) {
		if res != nil && len(res.X) == len(p0) && res.F < bestF && !math.IsNaN(res.F) {
			best, bestF = res.X, res.F
		}
	}

	res, err := optimize.Minimize(problem, x0, nil, &optimize.BFGS{})
	record(res)
	if err != nil || best == nil {
		res, err = optimize.Minimize(problem, x0, nil, &optimize.NelderMead{})
		record(res)
		if err != nil && best == nil {
			return nil, fmt.Errorf("%w: %v", ErrNotConverged, err)
		}
	}
	if best == nil || math.IsInf(bestF, 0) {
		return nil, ErrNotConverged
	}

	out := make([]float64, len(p0))
	tr.externalInto(out, best)
	return out, nil
}
