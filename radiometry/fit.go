package radiometry

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// LocalObservation is one cross-camera observation of a tie point: the pixel
// intensity in the observing band and the two kernel terms of its geometry.
type LocalObservation struct {
	Intensity float64
	X1        float64
	X2        float64
}

// FitLocalModel fits an ordinary least-squares model with intercept,
// intensity ≈ slope1·x1 + slope2·x2 + intercept, across one tie point's
// observations. Requires at least cfg.MinObservations rows; a rank-deficient
// design surfaces ErrModelFit rather than NaN coefficients.
func FitLocalModel(obs []LocalObservation, cfg FitConfig) (slope1, slope2, intercept float64, err error) {
	if len(obs) < cfg.MinObservations {
		return 0, 0, 0, fmt.Errorf("local fit on %d observations: %w", len(obs), ErrInsufficientSamples)
	}
	x := mat.NewDense(len(obs), 3, nil)
	y := mat.NewVecDense(len(obs), nil)
	for i, o := range obs {
		x.Set(i, 0, o.X1)
		x.Set(i, 1, o.X2)
		x.Set(i, 2, 1)
		y.SetVec(i, o.Intensity)
	}
	coef, err := solveLeastSquares(x, y, cfg.RankTolerance)
	if err != nil {
		return 0, 0, 0, err
	}
	return coef[0], coef[1], coef[2], nil
}

// FitGlobalModel fits the per-feature no-intercept model mapping
// (intensity, x1, x2) to the denoised local intercepts. Requires at least
// cfg.MinSamples denoised samples; fewer is reported as unfit rather than
// producing a degenerate model.
func FitGlobalModel(samples []LocalSample, cfg FitConfig) (GlobalModel, error) {
	if len(samples) < cfg.MinSamples {
		return GlobalModel{}, fmt.Errorf("global fit on %d samples: %w", len(samples), ErrInsufficientSamples)
	}
	x := mat.NewDense(len(samples), 3, nil)
	y := mat.NewVecDense(len(samples), nil)
	for i, s := range samples {
		x.Set(i, 0, s.Intensity)
		x.Set(i, 1, s.X1)
		x.Set(i, 2, s.X2)
		y.SetVec(i, s.Intercept)
	}
	coef, err := solveLeastSquares(x, y, cfg.RankTolerance)
	if err != nil {
		return GlobalModel{}, err
	}
	return GlobalModel{Coef: [3]float64{coef[0], coef[1], coef[2]}}, nil
}

// solveLeastSquares solves min ‖Xβ − y‖₂ by thin SVD with an explicit rank
// check: singular values below rankTol relative to the largest mark the
// design rank-deficient.
func solveLeastSquares(x *mat.Dense, y *mat.VecDense, rankTol float64) ([]float64, error) {
	_, cols := x.Dims()

	var svd mat.SVD
	if !svd.Factorize(x, mat.SVDThin) {
		return nil, fmt.Errorf("svd factorization failed: %w", ErrModelFit)
	}
	values := svd.Values(nil)
	rank := 0
	for _, s := range values {
		if s > rankTol*values[0] {
			rank++
		}
	}
	if rank < cols {
		return nil, fmt.Errorf("design rank %d of %d: %w", rank, cols, ErrModelFit)
	}

	var beta mat.Dense
	svd.SolveTo(&beta, y, rank)
	coef := make([]float64, cols)
	for i := range coef {
		coef[i] = beta.At(i, 0)
	}
	return coef, nil
}
