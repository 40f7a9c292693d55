package sinusoid

import "math"

// Frequency holds one sinusoidal component: its current parameters, the
// initial values captured at creation, uncertainties, and significance
// scores filled in by the post-analysis pass.
//
// Identity (Index, Epoch, Form) is immutable after creation; only the
// parameter, uncertainty, and significance fields change.
type Frequency struct {
	// Current parameters.
	Freq  float64
	Amp   float64
	Phase float64

	// Initial values at creation.
	Freq0  float64
	Amp0   float64
	Phase0 float64

	// Parameter uncertainties, zero until ComputeUncertainties runs.
	SigmaFreq  float64
	SigmaAmp   float64
	SigmaPhase float64

	// Significance scores against the final residual periodogram,
	// zero until ComputeSignificances runs.
	SigBox  float64
	SigPoly float64
	SigSLF  float64

	// Identity.
	Index int     // insertion order in the owning Container, 0-based
	Epoch float64 // reference epoch t0 for the phase measurement
	Form  Form
}

// New creates a component with the given parameters and identity.
// The parameters are normalized immediately; the captured initial values
// are the normalized ones. Index is assigned by Container.Add.
func New(f, a, p, t0 float64, form Form) *Frequency {
	fr := &Frequency{
		Freq: f, Amp: a, Phase: p,
		Index: -1, Epoch: t0, Form: form,
	}
	fr.Normalize()
	fr.Freq0, fr.Amp0, fr.Phase0 = fr.Freq, fr.Amp, fr.Phase
	return fr
}

// Parameters returns the current frequency, amplitude, and phase.
func (fr *Frequency) Parameters() (f, a, p float64) {
	return fr.Freq, fr.Amp, fr.Phase
}

// Update replaces the current parameters and normalizes them.
func (fr *Frequency) Update(f, a, p float64) {
	fr.Freq, fr.Amp, fr.Phase = f, a, p
	fr.Normalize()
}

// Normalize enforces a >= 0 and p in [0, 1) without changing the evaluated
// model: a negative amplitude is flipped with a compensating phase shift of
// exactly 0.5 cycles.
func (fr *Frequency) Normalize() {
	if fr.Amp < 0 {
		fr.Amp = -fr.Amp
		fr.Phase += 0.5
	}
	if fr.Phase < 0 || fr.Phase >= 1 {
		fr.Phase = math.Mod(fr.Phase, 1)
		if fr.Phase < 0 {
			fr.Phase++
		}
	}
}

// Eval evaluates the component model at a single timestamp.
func (fr *Frequency) Eval(t float64) float64 {
	return Eval(fr.Form, t, fr.Epoch, fr.Freq, fr.Amp, fr.Phase)
}

// Model evaluates the component model over the given time axis.
func (fr *Frequency) Model(time []float64) []float64 {
	out := make([]float64, len(time))
	EvalInto(out, fr.Form, time, fr.Epoch, fr.Freq, fr.Amp, fr.Phase)
	return out
}
