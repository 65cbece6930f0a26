package radiometry

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// mixtureComponents is fixed at two: the environments this pipeline targets
// contain two dominant features (ground and vegetation-like cover).
const mixtureComponents = 2

// GaussianMixture is an unsupervised two-component density mixture with
// diagonal covariance, fitted over pixel intensities (scalar for a single
// band, vector for multi-band samples). Component labels 0 and 1 carry no
// physical ordering; callers must pair a label only with the model fitted
// for that same label.
type GaussianMixture struct {
	Dim     int
	Weights [mixtureComponents]float64
	Means   [mixtureComponents][]float64
	Vars    [mixtureComponents][]float64
}

// FitGaussianMixture fits the mixture to d-dimensional samples with
// expectation-maximization. Components are initialized at the lower and
// upper intensity quartiles so the fit is deterministic.
func FitGaussianMixture(samples [][]float64, cfg MixtureConfig) (*GaussianMixture, error) {
	if len(samples) < mixtureComponents {
		return nil, fmt.Errorf("mixture fit on %d samples: %w", len(samples), ErrInsufficientSamples)
	}
	dim := len(samples[0])
	m := &GaussianMixture{Dim: dim}
	for k := 0; k < mixtureComponents; k++ {
		m.Weights[k] = 1.0 / mixtureComponents
		m.Means[k] = make([]float64, dim)
		m.Vars[k] = make([]float64, dim)
	}

	// Quartile initialization per dimension, shared variance.
	col := make([]float64, len(samples))
	for d := 0; d < dim; d++ {
		for i, s := range samples {
			col[i] = s[d]
		}
		sort.Float64s(col)
		m.Means[0][d] = stat.Quantile(0.25, stat.Empirical, col, nil)
		m.Means[1][d] = stat.Quantile(0.75, stat.Empirical, col, nil)
		v := stat.Variance(col, nil)
		if v < cfg.VarianceFloor {
			v = cfg.VarianceFloor
		}
		m.Vars[0][d] = v
		m.Vars[1][d] = v
	}

	resp := make([][mixtureComponents]float64, len(samples))
	prevLL := math.Inf(-1)
	for iter := 0; iter < cfg.MaxIterations; iter++ {
		ll := m.expectation(samples, resp)
		m.maximization(samples, resp, cfg.VarianceFloor)
		if math.Abs(ll-prevLL) < cfg.Tolerance*(math.Abs(ll)+1) {
			break
		}
		prevLL = ll
	}
	return m, nil
}

// FitGaussianMixtureScalar fits the mixture over scalar intensities.
func FitGaussianMixtureScalar(values []float64, cfg MixtureConfig) (*GaussianMixture, error) {
	samples := make([][]float64, len(values))
	for i, v := range values {
		samples[i] = []float64{v}
	}
	return FitGaussianMixture(samples, cfg)
}

// expectation fills per-sample responsibilities and returns the mean
// log-likelihood of the data under the current parameters.
func (m *GaussianMixture) expectation(samples [][]float64, resp [][mixtureComponents]float64) float64 {
	sumLL := 0.0
	var lp [mixtureComponents]float64
	for i, s := range samples {
		for k := 0; k < mixtureComponents; k++ {
			lp[k] = math.Log(m.Weights[k]) + m.logProb(k, s)
		}
		norm := floats.LogSumExp(lp[:])
		sumLL += norm
		for k := 0; k < mixtureComponents; k++ {
			resp[i][k] = math.Exp(lp[k] - norm)
		}
	}
	return sumLL / float64(len(samples))
}

func (m *GaussianMixture) maximization(samples [][]float64, resp [][mixtureComponents]float64, varFloor float64) {
	n := float64(len(samples))
	for k := 0; k < mixtureComponents; k++ {
		var nk float64
		mean := make([]float64, m.Dim)
		for i, s := range samples {
			r := resp[i][k]
			nk += r
			for d, x := range s {
				mean[d] += r * x
			}
		}
		if nk < 1e-12 {
			// Emptied component: keep its previous parameters.
			continue
		}
		for d := range mean {
			mean[d] /= nk
		}
		vars := make([]float64, m.Dim)
		for i, s := range samples {
			r := resp[i][k]
			for d, x := range s {
				diff := x - mean[d]
				vars[d] += r * diff * diff
			}
		}
		for d := range vars {
			vars[d] /= nk
			if vars[d] < varFloor {
				vars[d] = varFloor
			}
		}
		m.Weights[k] = nk / n
		m.Means[k] = mean
		m.Vars[k] = vars
	}
}

func (m *GaussianMixture) logProb(k int, s []float64) float64 {
	lp := 0.0
	for d, x := range s {
		n := distuv.Normal{Mu: m.Means[k][d], Sigma: math.Sqrt(m.Vars[k][d])}
		lp += n.LogProb(x)
	}
	return lp
}

// Predict returns the arg-max component label for a d-dimensional sample.
func (m *GaussianMixture) Predict(s []float64) int {
	best, bestLP := 0, math.Inf(-1)
	for k := 0; k < mixtureComponents; k++ {
		lp := math.Log(m.Weights[k]) + m.logProb(k, s)
		if lp > bestLP {
			best, bestLP = k, lp
		}
	}
	return best
}

// PredictScalar returns the arg-max component label for a scalar intensity.
func (m *GaussianMixture) PredictScalar(x float64) int {
	return m.Predict([]float64{x})
}

// PredictRaster labels every pixel of a raster, row-parallel. The result is
// row-major with one label per pixel.
func (m *GaussianMixture) PredictRaster(r *Raster, workers int) []int {
	labels := make([]int, len(r.Pix))
	if workers < 1 {
		workers = 1
	}
	limiter := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for v := 0; v < r.Height; v++ {
		limiter <- struct{}{}
		wg.Add(1)
		go func(v int) {
			defer func() { <-limiter; wg.Done() }()
			row := r.Row(v)
			base := v * r.Width
			for u, x := range row {
				labels[base+u] = m.PredictScalar(x)
			}
		}(v)
	}
	wg.Wait()
	return labels
}
