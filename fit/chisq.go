package fit

import (
	"fmt"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-prewhiten/internal/buf"
)

// chiSq evaluates the weighted chi-square of a model array against fixed
// data, reusing scratch buffers across objective evaluations.
type chiSq struct {
	value  []float64
	weight []float64
	resid  []float64
	wres   []float64
}

func newChiSq(value, weight []float64) *chiSq {
	n := len(value)
	if weight == nil {
		weight = buf.Filled(n, 1)
	}
	return &chiSq{
		value:  value,
		weight: weight,
		resid:  make([]float64, n),
		wres:   make([]float64, n),
	}
}

func (c *chiSq) of(model []float64) float64 {
	for i := range c.resid {
		c.resid[i] = c.value[i] - model[i]
	}
	vecmath.MulBlock(c.wres, c.weight, c.resid)
	sum := 0.0
	for _, v := range c.wres {
		sum += v * v
	}
	return sum
}

func checkSeries(time, value, weight []float64) error {
	if len(time) < 2 {
		return fmt.Errorf("fit: need at least 2 samples, got %d", len(time))
	}
	if len(value) != len(time) {
		return fmt.Errorf("fit: time/value length mismatch: %d vs %d", len(time), len(value))
	}
	if weight != nil && len(weight) != len(time) {
		return fmt.Errorf("fit: time/weight length mismatch: %d vs %d", len(time), len(weight))
	}
	return nil
}
