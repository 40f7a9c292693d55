// Package periodogram computes amplitude spectra of unevenly sampled time
// series and characterizes their noise background.
//
// The spectrum follows Lomb-Scargle semantics with a floating mean: at each
// grid frequency the best-fitting sinusoid amplitude is computed by weighted
// linear least squares, so a pure sinusoid of amplitude A in the data yields
// a peak of height close to A. For uniformly sampled, uniformly weighted
// series an FFT-based fast path produces the same spectrum at a fraction of
// the cost.
//
// The frequency grid is either caller-supplied or auto-generated from the
// time baseline T: spacing is (1.5/T)/PointsPerResolution between the
// resolution element 1.5/T and the approximate Nyquist frequency N/(2T).
//
// Two noise models can be fitted to the spectrum and are cached: a low-order
// polynomial in log-log space and a stochastic low-frequency (SLF) red+white
// model alpha0/(1+(f/x0)^gamma) + Cw. Together with a box average around a
// peak they provide the three significance estimates used to gate peak
// selection and to score extracted components.
package periodogram
