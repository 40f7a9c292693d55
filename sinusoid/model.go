package sinusoid

import (
	"fmt"
	"math"
)

// Form selects the periodic model form of a component.
type Form int

// Supported model forms.
const (
	Sine Form = iota
	Cosine
)

// String returns the configuration name of the form.
func (m Form) String() string {
	switch m {
	case Sine:
		return "sin"
	case Cosine:
		return "cos"
	}
	return fmt.Sprintf("Form(%d)", int(m))
}

// ParseForm converts a configuration name into a Form.
func ParseForm(s string) (Form, error) {
	switch s {
	case "sin":
		return Sine, nil
	case "cos":
		return Cosine, nil
	}
	return 0, fmt.Errorf("sinusoid: unknown model form %q", s)
}

type modelFunc func(t, f, a, p float64) float64

// Dispatch table indexed by Form. Both entries are pure functions.
var modelFuncs = [...]modelFunc{
	Sine:   func(t, f, a, p float64) float64 { return a * math.Sin(2*math.Pi*(f*t+p)) },
	Cosine: func(t, f, a, p float64) float64 { return a * math.Cos(2*math.Pi*(f*t+p)) },
}

// Eval evaluates one component sample for the given form.
func Eval(form Form, t, t0, f, a, p float64) float64 {
	return modelFuncs[form](t-t0, f, a, p)
}

// EvalInto accumulates the component model over time into dst.
// dst must have the same length as time.
func EvalInto(dst []float64, form Form, time []float64, t0, f, a, p float64) {
	fn := modelFuncs[form]
	for i, t := range time {
		dst[i] += fn(t-t0, f, a, p)
	}
}
