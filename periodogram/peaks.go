package periodogram

import (
	"errors"
	"fmt"
	"math"
)

// ErrRadiusTooNarrow reports a box-significance request whose averaging
// radius is smaller than the peak's own footprint: after excluding the peak
// there are no points left to average. Recoverable by choosing a larger
// radius or a different significance method.
var ErrRadiusTooNarrow = errors.New("periodogram: box radius smaller than peak footprint")

// Method selects the noise estimate used for peak significance.
type Method string

// Peak selection / significance methods.
const (
	MethodHighest Method = "highest"
	MethodBox     Method = "box"
	MethodPoly    Method = "poly"
	MethodSLF     Method = "slf"
)

// ParseMethod converts a configuration name into a Method.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodHighest, MethodBox, MethodPoly, MethodSLF:
		return Method(s), nil
	}
	return "", fmt.Errorf("periodogram: unknown method %q", s)
}

// HighestAmplitude returns the frequency and amplitude of the maximum
// unmasked grid point. mask may be nil; mask[i]=true excludes point i.
// Ties break toward the lower frequency. ok=false when every point is
// masked.
func (p *Periodogram) HighestAmplitude(mask []bool) (freq, amp float64, ok bool) {
	best := -1
	for i, a := range p.amp {
		if mask != nil && mask[i] {
			continue
		}
		if best < 0 || a > p.amp[best] {
			best = i
		}
	}
	if best < 0 {
		return 0, 0, false
	}
	return p.grid[best], p.amp[best], true
}

// FindTroughs returns the indices of the nearest local minima left and right
// of centerFreq, the footprint of the peak located there.
func (p *Periodogram) FindTroughs(centerFreq float64) (left, right int) {
	c := p.nearestIndex(centerFreq)

	left = c
	for left > 0 && p.amp[left-1] < p.amp[left] {
		left--
	}
	right = c
	for right < len(p.amp)-1 && p.amp[right+1] < p.amp[right] {
		right++
	}
	return left, right
}

func (p *Periodogram) nearestIndex(freq float64) int {
	best, bestDist := 0, math.Inf(1)
	for i, f := range p.grid {
		if d := math.Abs(f - freq); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// Significance returns amp divided by the local noise estimate at
// centerFreq, with the estimate source chosen by method.
func (p *Periodogram) Significance(method Method, centerFreq, amp float64) (float64, error) {
	switch method {
	case MethodBox:
		return p.SigBox(centerFreq, amp)
	case MethodPoly:
		return p.SigPoly(centerFreq, amp)
	case MethodSLF:
		return p.SigSLF(centerFreq, amp)
	}
	return 0, fmt.Errorf("periodogram: method %q has no noise estimate", method)
}

// SigBox measures significance against the box average around the peak,
// using the configured radius in resolution elements.
func (p *Periodogram) SigBox(centerFreq, amp float64) (float64, error) {
	return p.SigBoxRadius(centerFreq, amp, p.cfg.BoxRadius*p.resolution)
}

// SigBoxRadius measures significance against the mean amplitude of grid
// points within radius (in frequency units) of centerFreq, excluding the
// peak's own footprint between its flanking troughs. Returns
// ErrRadiusTooNarrow when the footprint swallows the whole box.
func (p *Periodogram) SigBoxRadius(centerFreq, amp, radius float64) (float64, error) {
	left, right := p.FindTroughs(centerFreq)

	sum, count := 0.0, 0
	for i, f := range p.grid {
		if math.Abs(f-centerFreq) > radius {
			continue
		}
		if i >= left && i <= right {
			continue
		}
		sum += p.amp[i]
		count++
	}
	if count == 0 {
		return 0, fmt.Errorf("%w: radius %g around %g", ErrRadiusTooNarrow, radius, centerFreq)
	}
	noise := sum / float64(count)
	if noise <= 0 {
		return math.Inf(1), nil
	}
	return amp / noise, nil
}

// SigPoly measures significance against the log-log polynomial noise model
// evaluated at centerFreq.
func (p *Periodogram) SigPoly(centerFreq, amp float64) (float64, error) {
	coef, err := p.FitLogPolynomial(p.cfg.PolyOrder)
	if err != nil {
		return 0, err
	}
	noise := evalLogPolynomial(coef, centerFreq)
	if noise <= 0 {
		return math.Inf(1), nil
	}
	return amp / noise, nil
}

// SigSLF measures significance against the SLF noise model evaluated at
// centerFreq.
func (p *Periodogram) SigSLF(centerFreq, amp float64) (float64, error) {
	slf, err := p.FitSLFNoise()
	if err != nil {
		return 0, err
	}
	noise := slf.Eval(centerFreq)
	if noise <= 0 {
		return math.Inf(1), nil
	}
	return amp / noise, nil
}

// SelectPeak returns the best peak candidate under the given method.
//
// MethodHighest returns the unmasked maximum unconditionally. MethodSLF and
// MethodPoly fit their noise model once, additionally exclude every grid
// point whose amplitude falls below minSig times the local noise estimate,
// and return the highest survivor. ok=false with a nil error means every
// point is excluded: the natural termination signal for iterative
// extraction.
func (p *Periodogram) SelectPeak(method Method, minSig float64, mask []bool) (freq, amp float64, ok bool, err error) {
	switch method {
	case MethodHighest:
		freq, amp, ok = p.HighestAmplitude(mask)
		return freq, amp, ok, nil

	case MethodSLF, MethodPoly:
		noise, err := p.noiseAt(method)
		if err != nil {
			return 0, 0, false, err
		}
		gated := make([]bool, len(p.grid))
		for i := range gated {
			if mask != nil && mask[i] {
				gated[i] = true
				continue
			}
			if p.amp[i] < minSig*noise(p.grid[i]) {
				gated[i] = true
			}
		}
		freq, amp, ok = p.HighestAmplitude(gated)
		return freq, amp, ok, nil
	}
	return 0, 0, false, fmt.Errorf("periodogram: method %q cannot select peaks", method)
}

func (p *Periodogram) noiseAt(method Method) (func(f float64) float64, error) {
	switch method {
	case MethodPoly:
		coef, err := p.FitLogPolynomial(p.cfg.PolyOrder)
		if err != nil {
			return nil, err
		}
		return func(f float64) float64 { return evalLogPolynomial(coef, f) }, nil
	case MethodSLF:
		slf, err := p.FitSLFNoise()
		if err != nil {
			return nil, err
		}
		return slf.Eval, nil
	}
	return nil, fmt.Errorf("periodogram: method %q has no noise model", method)
}
