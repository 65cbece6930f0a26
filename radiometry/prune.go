package radiometry

import "fmt"

// PruneOutliers declusters one feature label's local-fit coefficients with
// density-based clustering over (slope1, slope2, intercept) triples and
// discards every sample that belongs to no dense cluster. An emptied sample
// set is reported via ErrInsufficientSamples, never returned silently.
func PruneOutliers(samples []LocalSample, cfg PruneConfig) ([]LocalSample, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("declustering empty sample set: %w", ErrInsufficientSamples)
	}
	labels := dbscan(samples, cfg.Eps, cfg.MinPts)

	kept := make([]LocalSample, 0, len(samples))
	for i, s := range samples {
		if labels[i] != noise {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("all %d samples declustered as noise: %w", len(samples), ErrInsufficientSamples)
	}
	return kept, nil
}

const (
	unvisited = -2
	noise     = -1
)

// dbscan labels each sample with its dense-cluster id, or noise. The
// coefficient sets seen here are small (one entry per tie point), so the
// quadratic neighbor scan is not worth a spatial index.
func dbscan(samples []LocalSample, eps float64, minPts int) []int {
	labels := make([]int, len(samples))
	for i := range labels {
		labels[i] = unvisited
	}

	cluster := 0
	for i := range samples {
		if labels[i] != unvisited {
			continue
		}
		neighbors := regionQuery(samples, i, eps)
		if len(neighbors) < minPts {
			labels[i] = noise
			continue
		}
		labels[i] = cluster
		// Expand the cluster over the density-reachable frontier.
		for qi := 0; qi < len(neighbors); qi++ {
			j := neighbors[qi]
			if labels[j] == noise {
				labels[j] = cluster
			}
			if labels[j] != unvisited {
				continue
			}
			labels[j] = cluster
			more := regionQuery(samples, j, eps)
			if len(more) >= minPts {
				neighbors = append(neighbors, more...)
			}
		}
		cluster++
	}
	return labels
}

func regionQuery(samples []LocalSample, i int, eps float64) []int {
	var neighbors []int
	epsSq := eps * eps
	for j := range samples {
		if coefDistSq(samples[i], samples[j]) <= epsSq {
			neighbors = append(neighbors, j)
		}
	}
	return neighbors
}

func coefDistSq(a, b LocalSample) float64 {
	d1 := a.Slope1 - b.Slope1
	d2 := a.Slope2 - b.Slope2
	d3 := a.Intercept - b.Intercept
	return d1*d1 + d2*d2 + d3*d3
}
