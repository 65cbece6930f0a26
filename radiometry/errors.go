package radiometry

import "errors"

var (
	// ErrGeometry is returned when a pixel's viewing ray or depth cannot be
	// resolved, e.g. the rendered surface has no coverage there.
	ErrGeometry = errors.New("viewing geometry unresolved")

	// ErrModelFit is returned when a regression design is degenerate or
	// rank-deficient and no meaningful coefficients exist.
	ErrModelFit = errors.New("regression design is rank-deficient")

	// ErrInsufficientSamples is returned when fewer samples than the
	// required floor remain for a local or global fit.
	ErrInsufficientSamples = errors.New("insufficient samples for fit")

	// ErrNoTiePoints is returned when a camera band has zero usable
	// tie-point observations.
	ErrNoTiePoints = errors.New("no tie points observed in band")

	// ErrNonConvergence is returned when an iterative loop exceeds its
	// defensive pass cap without reaching its stop condition.
	ErrNonConvergence = errors.New("iteration cap exceeded without convergence")

	// ErrRasterShape is returned when raster or angle-field dimensions do
	// not match the image they describe.
	ErrRasterShape = errors.New("raster dimensions mismatch")
)
