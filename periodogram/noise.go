package periodogram

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-prewhiten/fit"
)

// FitLogPolynomial fits a polynomial of the given order to the spectrum in
// log(frequency)-log(amplitude) space by linear least squares and returns
// its coefficients, constant term first. Results are cached per order.
// Zero-amplitude grid points are skipped.
func (p *Periodogram) FitLogPolynomial(order int) ([]float64, error) {
	if order < 1 {
		return nil, fmt.Errorf("periodogram: polynomial order must be >= 1, got %d", order)
	}
	if coef, ok := p.polyCache[order]; ok {
		return coef, nil
	}

	var logf, loga []float64
	for i, a := range p.amp {
		if a > 0 {
			logf = append(logf, math.Log(p.grid[i]))
			loga = append(loga, math.Log(a))
		}
	}
	if len(logf) < order+2 {
		return nil, fmt.Errorf("periodogram: %d usable points for order-%d log-log fit", len(logf), order)
	}

	vand := mat.NewDense(len(logf), order+1, nil)
	rhs := mat.NewVecDense(len(loga), loga)
	for i, lf := range logf {
		v := 1.0
		for j := 0; j <= order; j++ {
			vand.Set(i, j, v)
			v *= lf
		}
	}

	var qr mat.QR
	qr.Factorize(vand)
	coefVec := mat.NewVecDense(order+1, nil)
	if err := qr.SolveVecTo(coefVec, false, rhs); err != nil {
		return nil, fmt.Errorf("periodogram: log-log polynomial solve: %v", err)
	}

	coef := make([]float64, order+1)
	for j := range coef {
		coef[j] = coefVec.AtVec(j)
	}
	if p.polyCache == nil {
		p.polyCache = make(map[int][]float64)
	}
	p.polyCache[order] = coef
	return coef, nil
}

// evalLogPolynomial returns the polynomial noise estimate at frequency f.
func evalLogPolynomial(coef []float64, f float64) float64 {
	lf := math.Log(f)
	sum, v := 0.0, 1.0
	for _, c := range coef {
		sum += c * v
		v *= lf
	}
	return math.Exp(sum)
}

// SLFFit holds the fitted stochastic low-frequency noise model
//
//	amp(f) = Alpha/(1+(f/X0)^Gamma) + White
//
// describing a red-noise plateau Alpha rolling off at characteristic
// frequency X0 with steepness Gamma above a white floor.
type SLFFit struct {
	X0    float64
	Alpha float64
	Gamma float64
	White float64

	// Sigma holds the parameter uncertainties in field order, or nil when
	// the fit's normal matrix was degenerate.
	Sigma []float64
}

// Eval returns the model amplitude at frequency f.
func (s *SLFFit) Eval(f float64) float64 {
	return s.Alpha/(1+math.Pow(f/s.X0, s.Gamma)) + s.White
}

func slfModel(dst, x, p []float64) {
	x0, alpha, gamma, cw := p[0], p[1], p[2], p[3]
	for i, f := range x {
		dst[i] = alpha/(1+math.Pow(f/x0, gamma)) + cw
	}
}

// FitSLFNoise fits the 4-parameter SLF model to the amplitude spectrum by
// bounded nonlinear least squares. The result, including parameter
// uncertainties, is cached; so is a failure.
func (p *Periodogram) FitSLFNoise() (*SLFFit, error) {
	if p.slfDone {
		return p.slf, p.slfErr
	}
	p.slfDone = true

	maxAmp := 0.0
	for _, a := range p.amp {
		if a > maxAmp {
			maxAmp = a
		}
	}
	if maxAmp <= 0 {
		p.slfErr = fmt.Errorf("periodogram: all-zero spectrum, nothing to fit")
		return nil, p.slfErr
	}

	low, high := decileMeans(p.amp)

	white := high
	alpha := low - white
	if alpha < maxAmp*1e-3 {
		alpha = maxAmp * 1e-3
	}
	x0 := math.Sqrt(p.grid[0] * p.grid[len(p.grid)-1])

	p0 := []float64{x0, alpha, 2, white}
	lo := []float64{p.grid[0] / 10, maxAmp * 1e-6, 0.1, 0}
	hi := []float64{p.grid[len(p.grid)-1] * 10, maxAmp * 100, 10, maxAmp}

	res, err := fit.Curve(slfModel, p.grid, p.amp, nil, p0, lo, hi)
	if err != nil {
		p.slfErr = fmt.Errorf("periodogram: SLF noise fit: %w", err)
		return nil, p.slfErr
	}

	p.slf = &SLFFit{
		X0:    res.Params[0],
		Alpha: res.Params[1],
		Gamma: res.Params[2],
		White: res.Params[3],
		Sigma: res.Sigma,
	}
	return p.slf, nil
}

// decileMeans returns the mean amplitude of the lowest-frequency and
// highest-frequency deciles, the seeds for the red plateau and white floor.
func decileMeans(amp []float64) (low, high float64) {
	n := len(amp) / 10
	if n < 1 {
		n = 1
	}
	for i := 0; i < n; i++ {
		low += amp[i]
		high += amp[len(amp)-1-i]
	}
	return low / float64(n), high / float64(n)
}
