package fit

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-prewhiten/internal/buf"
)

// ModelFunc evaluates a parametric model over x into dst.
// dst and x have equal length; params is the current parameter vector.
type ModelFunc func(dst, x, params []float64)

// CurveResult holds a generic bounded curve-fit outcome.
type CurveResult struct {
	Params []float64

	// Sigma holds per-parameter uncertainties from the approximate
	// covariance at the minimum, or nil when the normal matrix is
	// degenerate.
	Sigma []float64

	ChiSq float64
}

// Curve fits an arbitrary parametric model to (x, y) by bounded weighted
// least squares. w may be nil for uniform weights. Bounds must bracket every
// seed parameter.
func Curve(model ModelFunc, x, y, w, p0, lo, hi []float64) (CurveResult, error) {
	if err := checkSeries(x, y, w); err != nil {
		return CurveResult{}, err
	}
	if len(p0) == 0 || len(p0) != len(lo) || len(p0) != len(hi) {
		return CurveResult{}, fmt.Errorf("fit: seed/bound length mismatch: %d/%d/%d", len(p0), len(lo), len(hi))
	}

	chi := newChiSq(y, w)
	scratch := make([]float64, len(x))
	obj := func(p []float64) float64 {
		model(scratch, x, p)
		return chi.of(scratch)
	}

	params, err := minimizeBounded(obj, p0, lo, hi)
	if err != nil {
		return CurveResult{}, err
	}

	res := CurveResult{Params: params, ChiSq: obj(params)}
	res.Sigma = curveSigma(model, x, chi.weight, params, res.ChiSq)
	return res, nil
}

// curveSigma estimates parameter uncertainties from the weighted Jacobian at
// the minimum: cov = s^2 (J^T J)^-1 with s^2 the reduced chi-square.
func curveSigma(model ModelFunc, x, w, params []float64, chisq float64) []float64 {
	n, m := len(x), len(params)
	dof := n - m
	if dof <= 0 {
		return nil
	}

	base := make([]float64, n)
	pert := make([]float64, n)
	model(base, x, params)

	jac := mat.NewDense(n, m, nil)
	p := buf.Clone(params)
	for j := 0; j < m; j++ {
		h := 1e-6 * (1 + math.Abs(params[j]))
		p[j] = params[j] + h
		model(pert, x, p)
		p[j] = params[j]
		for i := 0; i < n; i++ {
			jac.Set(i, j, w[i]*(pert[i]-base[i])/h)
		}
	}

	var jtj mat.Dense
	jtj.Mul(jac.T(), jac)

	var inv mat.Dense
	if err := inv.Inverse(&jtj); err != nil {
		return nil
	}

	s2 := chisq / float64(dof)
	sigma := make([]float64, m)
	for j := 0; j < m; j++ {
		v := s2 * inv.At(j, j)
		if v < 0 {
			return nil
		}
		sigma[j] = math.Sqrt(v)
	}
	return sigma
}
