// Package sinusoid models single-frequency sinusoidal components and ordered
// collections of them, as extracted by iterative pre-whitening.
//
// A component follows the model
//
//	a * sin(2*pi*(f*(t-t0) + p))
//
// (or the cosine analogue, see [Form]) with frequency f, non-negative
// amplitude a, and phase p in cycles, normalized into [0, 1). The reference
// epoch t0 and the model form are fixed at creation.
//
// A [Container] accumulates components in insertion order and evaluates the
// joint model, the sum of all member models plus a zero-point offset:
//
//	c := sinusoid.NewContainer()
//	c.Add(sinusoid.New(0.35, 1.5, 0.2, 0, sinusoid.Sine))
//	model := c.JointModel(time, zp)
package sinusoid
