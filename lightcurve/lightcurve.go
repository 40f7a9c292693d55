// Package lightcurve holds unevenly sampled time series and their derived
// periodograms.
//
// A Lightcurve is immutable after construction: residual generation always
// builds a new Lightcurve, leaving earlier ones addressable for diagnostics
// and output. The periodogram is computed eagerly so every residual in a
// pre-whitening sequence carries its spectrum.
package lightcurve

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/algo-prewhiten/internal/buf"
	"github.com/cwbudde/algo-prewhiten/periodogram"
)

// ErrNonFinite reports a residual model containing NaN or Inf values.
var ErrNonFinite = errors.New("lightcurve: non-finite model value")

// Config holds construction parameters.
type Config struct {
	// Periodogram configures the derived spectrum.
	Periodogram periodogram.Config

	// SubtractMean removes the series mean before analysis. Applies to the
	// initial light curve only; residuals inherit everything else.
	SubtractMean bool
}

// Lightcurve is a time series (time, value, weight) with its derived
// periodogram. Weight is a multiplicative residual weight (1/sigma);
// unsupplied weights default to uniform 1.
type Lightcurve struct {
	time   []float64
	value  []float64
	weight []float64

	pg  *periodogram.Periodogram
	cfg Config
}

// New constructs a light curve from raw arrays, copying them, and computes
// its periodogram. weight may be nil. Fails on fewer than 2 points, length
// mismatches, or inconsistent periodogram limits.
func New(time, value, weight []float64, cfg Config) (*Lightcurve, error) {
	if len(time) < 2 {
		return nil, fmt.Errorf("lightcurve: need at least 2 points, got %d", len(time))
	}
	if len(value) != len(time) {
		return nil, fmt.Errorf("lightcurve: time/value length mismatch: %d vs %d", len(time), len(value))
	}
	if weight != nil && len(weight) != len(time) {
		return nil, fmt.Errorf("lightcurve: time/weight length mismatch: %d vs %d", len(time), len(weight))
	}

	lc := &Lightcurve{
		time:  buf.Clone(time),
		value: buf.Clone(value),
		cfg:   cfg,
	}
	if weight == nil {
		lc.weight = buf.Filled(len(time), 1)
	} else {
		lc.weight = buf.Clone(weight)
	}

	if cfg.SubtractMean {
		mean := stat.Mean(lc.value, nil)
		for i := range lc.value {
			lc.value[i] -= mean
		}
	}

	pg, err := periodogram.New(lc.time, lc.value, lc.weight, cfg.Periodogram)
	if err != nil {
		return nil, err
	}
	lc.pg = pg
	return lc, nil
}

// Residual builds a new light curve with the model subtracted from the
// values, keeping time and weights. The model must be finite and aligned
// with the series.
func (lc *Lightcurve) Residual(model []float64) (*Lightcurve, error) {
	if len(model) != len(lc.value) {
		return nil, fmt.Errorf("lightcurve: model length %d != series length %d", len(model), len(lc.value))
	}
	resid := make([]float64, len(lc.value))
	for i, m := range model {
		if math.IsNaN(m) || math.IsInf(m, 0) {
			return nil, fmt.Errorf("%w at index %d", ErrNonFinite, i)
		}
		resid[i] = lc.value[i] - m
	}

	cfg := lc.cfg
	cfg.SubtractMean = false
	return New(lc.time, resid, lc.weight, cfg)
}

// Time returns the time axis. Read-only.
func (lc *Lightcurve) Time() []float64 { return lc.time }

// Value returns the data axis. Read-only.
func (lc *Lightcurve) Value() []float64 { return lc.value }

// Weight returns the point weights. Read-only.
func (lc *Lightcurve) Weight() []float64 { return lc.weight }

// Periodogram returns the derived spectrum.
func (lc *Lightcurve) Periodogram() *periodogram.Periodogram { return lc.pg }

// N returns the number of points.
func (lc *Lightcurve) N() int { return len(lc.time) }

// EffectiveN returns the number of points carrying positive finite weight.
func (lc *Lightcurve) EffectiveN() int {
	n := 0
	for _, w := range lc.weight {
		if w > 0 && !math.IsInf(w, 0) {
			n++
		}
	}
	return n
}

// Baseline returns the time span max(time) - min(time).
func (lc *Lightcurve) Baseline() float64 {
	min, max := lc.time[0], lc.time[0]
	for _, t := range lc.time {
		if t < min {
			min = t
		}
		if t > max {
			max = t
		}
	}
	return max - min
}

// Mean returns the weighted mean of the values.
func (lc *Lightcurve) Mean() float64 {
	return stat.Mean(lc.value, lc.weight)
}

// StdDev returns the weighted standard deviation of the values.
func (lc *Lightcurve) StdDev() float64 {
	return stat.StdDev(lc.value, lc.weight)
}
