package periodogram

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-prewhiten/internal/buf"
)

// Default construction parameters.
const (
	defaultPointsPerResolution = 10
	defaultPolyOrder           = 3
	defaultBoxRadius           = 5.0

	// resolutionFactor scales 1/T into the minimum separation at which two
	// sinusoids are independently resolvable (Loumos & Deeming).
	resolutionFactor = 1.5
)

// Config holds periodogram construction parameters.
type Config struct {
	// LowerLimit and UpperLimit bound the auto-generated frequency grid.
	// Values <= 0 select the defaults: the resolution element 1.5/T and
	// the approximate Nyquist frequency N/(2T).
	LowerLimit float64
	UpperLimit float64

	// PointsPerResolution sets the grid density: spacing is the resolution
	// element divided by this count.
	PointsPerResolution int

	// PolyOrder is the order of the log-log polynomial noise model.
	PolyOrder int

	// BoxRadius is the averaging radius of the box significance estimate,
	// in resolution elements.
	BoxRadius float64
}

func normalizeConfig(cfg Config) Config {
	if cfg.PointsPerResolution <= 0 {
		cfg.PointsPerResolution = defaultPointsPerResolution
	}
	if cfg.PolyOrder <= 0 {
		cfg.PolyOrder = defaultPolyOrder
	}
	if cfg.BoxRadius <= 0 {
		cfg.BoxRadius = defaultBoxRadius
	}
	return cfg
}

// Periodogram is an amplitude spectrum over a frequency grid, with cached
// noise-model fits. It is immutable apart from the lazily computed caches.
type Periodogram struct {
	grid []float64
	amp  []float64

	resolution float64
	nyquist    float64
	cfg        Config

	polyCache map[int][]float64
	slf       *SLFFit
	slfErr    error
	slfDone   bool
}

// New computes the amplitude spectrum of (time, value) over an
// auto-generated grid. weight may be nil for uniform weighting; otherwise it
// holds multiplicative residual weights (1/sigma). Fails on fewer than 2
// samples or an inconsistent grid configuration.
func New(time, value, weight []float64, cfg Config) (*Periodogram, error) {
	cfg = normalizeConfig(cfg)

	if err := checkInput(time, value, weight); err != nil {
		return nil, err
	}

	baseline := timeBaseline(time)
	if baseline <= 0 {
		return nil, fmt.Errorf("periodogram: zero time baseline")
	}

	resolution := resolutionFactor / baseline
	nyquist := float64(len(time)) / (2 * baseline)

	lower := cfg.LowerLimit
	if lower <= 0 {
		lower = resolution
	}
	upper := cfg.UpperLimit
	if upper <= 0 {
		upper = nyquist
	}
	if upper <= lower {
		return nil, fmt.Errorf("periodogram: upper limit %g <= lower limit %g", upper, lower)
	}

	step := resolution / float64(cfg.PointsPerResolution)
	n := int((upper-lower)/step) + 1
	grid := make([]float64, n)
	for i := range grid {
		grid[i] = lower + float64(i)*step
	}

	p := &Periodogram{
		grid:       grid,
		resolution: resolution,
		nyquist:    nyquist,
		cfg:        cfg,
	}
	p.amp = computeAmplitudes(time, value, weight, grid)
	return p, nil
}

// NewWithGrid computes the amplitude spectrum over a caller-supplied grid,
// which must be strictly increasing and positive.
func NewWithGrid(time, value, weight, grid []float64, cfg Config) (*Periodogram, error) {
	cfg = normalizeConfig(cfg)

	if err := checkInput(time, value, weight); err != nil {
		return nil, err
	}
	if len(grid) < 2 {
		return nil, fmt.Errorf("periodogram: grid needs at least 2 points, got %d", len(grid))
	}
	if grid[0] <= 0 {
		return nil, fmt.Errorf("periodogram: grid must be positive, starts at %g", grid[0])
	}
	for i := 1; i < len(grid); i++ {
		if grid[i] <= grid[i-1] {
			return nil, fmt.Errorf("periodogram: grid not strictly increasing at index %d", i)
		}
	}

	baseline := timeBaseline(time)
	if baseline <= 0 {
		return nil, fmt.Errorf("periodogram: zero time baseline")
	}

	p := &Periodogram{
		grid:       buf.Clone(grid),
		resolution: resolutionFactor / baseline,
		nyquist:    float64(len(time)) / (2 * baseline),
		cfg:        cfg,
	}
	p.amp = computeAmplitudes(time, value, weight, p.grid)
	return p, nil
}

func checkInput(time, value, weight []float64) error {
	if len(time) < 2 {
		return fmt.Errorf("periodogram: need at least 2 samples, got %d", len(time))
	}
	if len(value) != len(time) {
		return fmt.Errorf("periodogram: time/value length mismatch: %d vs %d", len(time), len(value))
	}
	if weight != nil && len(weight) != len(time) {
		return fmt.Errorf("periodogram: time/weight length mismatch: %d vs %d", len(time), len(weight))
	}
	return nil
}

func timeBaseline(time []float64) float64 {
	min, max := time[0], time[0]
	for _, t := range time {
		if t < min {
			min = t
		}
		if t > max {
			max = t
		}
	}
	return max - min
}

// Grid returns the frequency grid. Read-only.
func (p *Periodogram) Grid() []float64 { return p.grid }

// Amp returns the amplitude array, aligned with Grid. Read-only.
func (p *Periodogram) Amp() []float64 { return p.amp }

// Len returns the number of grid points.
func (p *Periodogram) Len() int { return len(p.grid) }

// Resolution returns the frequency resolution element 1.5/T.
func (p *Periodogram) Resolution() float64 { return p.resolution }

// Nyquist returns the approximate Nyquist frequency N/(2T).
func (p *Periodogram) Nyquist() float64 { return p.nyquist }

// computeAmplitudes evaluates the floating-mean least-squares amplitude at
// every grid frequency, taking the FFT fast path when the sampling allows.
func computeAmplitudes(time, value, weight, grid []float64) []float64 {
	if amp, ok := fftAmplitudes(time, value, weight, grid); ok {
		return amp
	}
	return directAmplitudes(time, value, weight, grid)
}

// directAmplitudes is the generalized Lomb-Scargle evaluation: at each
// frequency the data is projected onto (cos, sin) with the weighted means
// removed, and the two projection coefficients give the best-fit amplitude.
func directAmplitudes(time, value, weight, grid []float64) []float64 {
	n := len(time)

	// Statistical weights proportional to 1/sigma^2, normalized to sum 1.
	w := make([]float64, n)
	if weight == nil {
		for i := range w {
			w[i] = 1 / float64(n)
		}
	} else {
		sum := 0.0
		for i, v := range weight {
			w[i] = v * v
			sum += w[i]
		}
		if sum <= 0 {
			for i := range w {
				w[i] = 1 / float64(n)
			}
		} else {
			for i := range w {
				w[i] /= sum
			}
		}
	}

	ybar := 0.0
	for i := range value {
		ybar += w[i] * value[i]
	}

	coefCos := make([]float64, len(grid))
	coefSin := make([]float64, len(grid))

	for k, f := range grid {
		omega := 2 * math.Pi * f

		var c, s, yc, ys, cc, ss, cs float64
		for i := 0; i < n; i++ {
			sin, cos := math.Sincos(omega * time[i])
			wi := w[i]
			yi := value[i]
			c += wi * cos
			s += wi * sin
			yc += wi * yi * cos
			ys += wi * yi * sin
			cc += wi * cos * cos
			ss += wi * sin * sin
			cs += wi * cos * sin
		}

		yc -= ybar * c
		ys -= ybar * s
		cc -= c * c
		ss -= s * s
		cs -= c * s

		d := cc*ss - cs*cs
		if math.Abs(d) < 1e-300 {
			continue
		}
		coefCos[k] = (yc*ss - ys*cs) / d
		coefSin[k] = (ys*cc - yc*cs) / d
	}

	amp := make([]float64, len(grid))
	vecmath.Magnitude(amp, coefCos, coefSin)
	return amp
}
