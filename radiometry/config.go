package radiometry

import "runtime"

// Config holds all tunables for the radiometric correction core.
type Config struct {
	Solar   SolarConfig
	Mixture MixtureConfig
	Prune   PruneConfig
	Fit     FitConfig
	Workers int // Max goroutines for per-pixel loops; 0 = GOMAXPROCS
}

// SolarConfig holds parameters for sun/view geometry synthesis.
type SolarConfig struct {
	UTC       bool // Interpret capture timestamps as UTC instead of host-local time
	Pixelwise bool // Recompute solar angles per pixel instead of reusing the camera centre
}

// MixtureConfig holds parameters for the two-component feature classifier.
type MixtureConfig struct {
	MaxIterations int     // EM iteration cap
	Tolerance     float64 // Log-likelihood change below which EM stops
	VarianceFloor float64 // Lower bound on per-dimension variance
}

// PruneConfig holds parameters for density-based coefficient declustering.
type PruneConfig struct {
	Eps    float64 // Neighborhood radius in (slope1, slope2, intercept) space
	MinPts int     // Points within Eps required to seed a dense cluster
}

// FitConfig holds sample floors for the regression stages.
type FitConfig struct {
	MinObservations int     // Cross-camera observations required per tie point
	MinSamples      int     // Denoised samples required per feature for the global fit
	RankTolerance   float64 // Relative singular-value cutoff for rank checks
}

// DefaultConfig returns the configuration used by the reference workflow.
func DefaultConfig() Config {
	return Config{
		Solar: SolarConfig{
			UTC:       true,
			Pixelwise: false,
		},
		Mixture: MixtureConfig{
			MaxIterations: 200,
			Tolerance:     1e-6,
			VarianceFloor: 1e-6,
		},
		Prune: PruneConfig{
			Eps:    5000,
			MinPts: 5,
		},
		Fit: FitConfig{
			MinObservations: 3,
			MinSamples:      3,
			RankTolerance:   1e-10,
		},
		Workers: runtime.GOMAXPROCS(0),
	}
}

// workers returns the effective worker count for parallel pixel loops.
func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}
