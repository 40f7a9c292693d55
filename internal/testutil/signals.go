package testutil

import (
	"math"
	"math/rand"
)

// Component describes one sinusoid of a synthetic test signal,
// following the model a*sin(2*pi*(f*t+p)) with phase in cycles.
type Component struct {
	Freq  float64
	Amp   float64
	Phase float64
}

// EvenTime returns n timestamps uniformly covering [0, span].
func EvenTime(span float64, n int) []float64 {
	out := make([]float64, n)
	if n < 2 {
		return out
	}
	step := span / float64(n-1)
	for i := range out {
		out[i] = float64(i) * step
	}
	return out
}

// UnevenTime returns n strictly increasing timestamps covering [0, span]
// with deterministic jitter, mimicking ground-based observing cadence.
func UnevenTime(seed int64, span float64, n int) []float64 {
	out := make([]float64, n)
	if n < 2 {
		return out
	}
	rng := rand.New(rand.NewSource(seed))
	step := span / float64(n-1)
	for i := range out {
		jitter := (rng.Float64() - 0.5) * 0.8 * step
		out[i] = float64(i)*step + jitter
	}
	out[0] = 0
	out[n-1] = span
	for i := 1; i < n; i++ {
		if out[i] <= out[i-1] {
			out[i] = out[i-1] + 1e-6*step
		}
	}
	return out
}

// MultiSine evaluates the sum of the given components at each timestamp.
func MultiSine(time []float64, comps ...Component) []float64 {
	out := make([]float64, len(time))
	for _, c := range comps {
		for i, t := range time {
			out[i] += c.Amp * math.Sin(2*math.Pi*(c.Freq*t+c.Phase))
		}
	}
	return out
}

// AddNoise adds deterministic Gaussian noise with the given sigma in place
// and returns the slice.
func AddNoise(seed int64, sigma float64, data []float64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	for i := range data {
		data[i] += rng.NormFloat64() * sigma
	}
	return data
}

// Ones returns a slice of length n filled with 1.0.
func Ones(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}
