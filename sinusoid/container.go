package sinusoid

import "math"

// NoiseModel evaluates the significance of an (f, a) pair against a
// periodogram assumed to contain only noise. Implemented by
// periodogram.Periodogram.
type NoiseModel interface {
	SigBox(freq, amp float64) (float64, error)
	SigPoly(freq, amp float64) (float64, error)
	SigSLF(freq, amp float64) (float64, error)
}

// Method names a significance estimate source.
type Method string

// Significance methods.
const (
	MethodBox  Method = "box"
	MethodPoly Method = "poly"
	MethodSLF  Method = "slf"
)

// Container is an insertion-ordered collection of components. It assigns
// each added component the next integer index. The component pointers are
// shared with the pre-whitening controller and the optimizer, which updates
// their parameters in place.
type Container struct {
	list []*Frequency
}

// NewContainer creates a container holding the given components, assigning
// indices in argument order.
func NewContainer(freqs ...*Frequency) *Container {
	c := &Container{}
	for _, fr := range freqs {
		c.Add(fr)
	}
	return c
}

// Len returns the number of components.
func (c *Container) Len() int { return len(c.list) }

// At returns the i-th component in insertion order.
func (c *Container) At(i int) *Frequency { return c.list[i] }

// Last returns the most recently added component, or nil when empty.
func (c *Container) Last() *Frequency {
	if len(c.list) == 0 {
		return nil
	}
	return c.list[len(c.list)-1]
}

// Frequencies returns the live component slice. Callers share mutation of
// the members with the container; the slice itself must not be modified.
func (c *Container) Frequencies() []*Frequency { return c.list }

// Add appends a component and assigns it the next index.
func (c *Container) Add(fr *Frequency) {
	fr.Index = len(c.list)
	c.list = append(c.list, fr)
}

// Remove drops the i-th component. Indices of the remaining components are
// left untouched so that already-written reports stay consistent.
func (c *Container) Remove(i int) {
	c.list = append(c.list[:i], c.list[i+1:]...)
}

// JointModel evaluates the sum of all member models plus the zero point over
// the given time axis. It is a pure function of the current member
// parameters and the zero point.
func (c *Container) JointModel(time []float64, zeroPoint float64) []float64 {
	out := make([]float64, len(time))
	for i := range out {
		out[i] = zeroPoint
	}
	for _, fr := range c.list {
		EvalInto(out, fr.Form, time, fr.Epoch, fr.Freq, fr.Amp, fr.Phase)
	}
	return out
}

// MinSeparation returns the smallest pairwise distance between member
// frequencies, or +Inf with fewer than two members.
func (c *Container) MinSeparation() float64 {
	min := math.Inf(1)
	for i := 0; i < len(c.list); i++ {
		for j := i + 1; j < len(c.list); j++ {
			if d := math.Abs(c.list[i].Freq - c.list[j].Freq); d < min {
				min = d
			}
		}
	}
	return min
}

// ComputeSignificances fills the significance fields of every member by
// evaluating its current (f, a) against the supplied noise model, one field
// per requested method. This is the final acceptance check of an analysis,
// run once against the last residual periodogram.
func (c *Container) ComputeSignificances(noise NoiseModel, methods ...Method) error {
	if len(methods) == 0 {
		methods = []Method{MethodBox, MethodPoly, MethodSLF}
	}
	for _, fr := range c.list {
		for _, m := range methods {
			var (
				sig float64
				err error
			)
			switch m {
			case MethodBox:
				sig, err = noise.SigBox(fr.Freq, fr.Amp)
				fr.SigBox = sig
			case MethodPoly:
				sig, err = noise.SigPoly(fr.Freq, fr.Amp)
				fr.SigPoly = sig
			case MethodSLF:
				sig, err = noise.SigSLF(fr.Freq, fr.Amp)
				fr.SigSLF = sig
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// ComputeUncertainties derives parameter uncertainties for every member from
// the residual noise level, following the Montgomery & O'Donoghue (1999)
// relations with the Schwarzenberg-Czerny correlation correction folded into
// the effective point count:
//
//	sigma_a = sqrt(2/N) * sigma_res
//	sigma_f = sqrt(6/N) * sigma_res / (pi * T * a)
//	sigma_p = sqrt(2/N) * sigma_res / a
//
// where sigma_res and T are the standard deviation and time baseline of the
// final residual light curve and N its effective point count. Strictly a
// post-analysis step: the residual must contain no remaining signal.
func (c *Container) ComputeUncertainties(residualStdDev, baseline float64, effectiveN int) {
	if effectiveN <= 0 || baseline <= 0 {
		return
	}
	n := float64(effectiveN)
	for _, fr := range c.list {
		if fr.Amp == 0 {
			continue
		}
		fr.SigmaAmp = math.Sqrt(2/n) * residualStdDev
		fr.SigmaFreq = math.Sqrt(6/n) * residualStdDev / (math.Pi * baseline * fr.Amp)
		fr.SigmaPhase = math.Sqrt(2/n) * residualStdDev / fr.Amp
	}
}
