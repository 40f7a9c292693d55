// Package fit performs bounded nonlinear weighted least-squares fits of
// sinusoidal variability models.
//
// Parameters are kept inside their box bounds with the arcsine transform
// used by MINUIT-family fitters: the minimizer walks an unbounded internal
// space while the model only ever sees values inside [lower, upper]. The
// transformed objective is minimized with BFGS (finite-difference
// gradients), falling back to Nelder-Mead when the line search stalls.
//
// Two fit shapes are provided on top of the shared core:
//
//   - [Optimizer.SingleFit] fits one component against a residual series,
//     with a retry policy that perturbs the phase seed when the fit refuses
//     to move away from it.
//   - [Optimizer.JointFit] refines all accepted components at once, plus a
//     shared zero point, against the original series under tight
//     multiplicative bounds. It mutates the supplied components in place.
//
// [Curve] is the generic bounded curve fit used for periodogram noise
// models.
package fit
