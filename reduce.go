package bandaid

import (
	"fmt"

	"github.com/fieldvision/bandaid/radiometry"
)

// Calibration parameter subsets used while purging outliers. Early passes
// fit focal length, principal point, three radial and two tangential terms;
// once the worst outliers are gone, every parameter is enabled.
var (
	reducedCalibration = CalibrationFit{
		F: true, Cx: true, Cy: true,
		K1: true, K2: true, K3: true,
		P1: true, P2: true,
	}
	fullCalibration = CalibrationFit{
		F: true, Cx: true, Cy: true,
		B1: true, B2: true,
		K1: true, K2: true, K3: true, K4: true,
		P1: true, P2: true, P3: true, P4: true,
	}
)

// tightenedTiePointAccuracy is the a-priori tie-point accuracy (pixels) set
// after the projection-accuracy phase completes.
const tightenedTiePointAccuracy = 0.1

// reductionPolicy fixes the numeric policy of one quality-reduction phase.
type reductionPolicy struct {
	metric   Metric
	initial  float64 // starting selection threshold
	stop     float64 // loop runs while max metric exceeds this
	step     float64 // threshold widening per oversized selection
	cap      float64 // widening stops past this threshold; 0 = uncapped
	fraction float64 // selection is oversized when ≥ total/fraction
	fit      CalibrationFit
}

// ReduceUncertainty removes tie points by reconstruction uncertainty until
// the maximum drops to 10, re-optimizing cameras after each removal.
func (p *Pipeline) ReduceUncertainty(chunk Chunk) error {
	return p.reduce(chunk, reductionPolicy{
		metric:   ReconstructionUncertainty,
		initial:  10,
		stop:     10,
		step:     1,
		cap:      50,
		fraction: 2,
		fit:      reducedCalibration,
	})
}

// ReduceProjectionAccuracy removes tie points by projection accuracy until
// the maximum drops to 2.0, then tightens the a-priori tie-point accuracy
// and re-optimizes once with every parameter enabled.
func (p *Pipeline) ReduceProjectionAccuracy(chunk Chunk) error {
	err := p.reduce(chunk, reductionPolicy{
		metric:   ProjectionAccuracy,
		initial:  2.0,
		stop:     2.0,
		step:     0.1,
		cap:      3.0,
		fraction: 2,
		fit:      reducedCalibration,
	})
	if err != nil {
		return err
	}
	chunk.SetTiePointAccuracy(tightenedTiePointAccuracy)
	return chunk.OptimizeCameras(fullCalibration)
}

// ReduceReprojectionError removes tie points by reprojection error until the
// maximum drops to 0.3. This phase widens its threshold without a cap
// whenever more than a tenth of the points would go in one shot.
func (p *Pipeline) ReduceReprojectionError(chunk Chunk) error {
	return p.reduce(chunk, reductionPolicy{
		metric:   ReprojectionError,
		initial:  0.3,
		stop:     0.3,
		step:     0.01,
		cap:      0,
		fraction: 10,
		fit:      fullCalibration,
	})
}

// reduce runs one quality-reduction phase: select points above the
// threshold, widen the threshold instead when the selection is an outsized
// share of the population, otherwise remove, re-optimize and start over at
// the initial threshold. Terminates when the metric maximum reaches the
// stop value; the pass cap guards against non-convergent inputs.
func (p *Pipeline) reduce(chunk Chunk, pol reductionPolicy) error {
	fltr, err := chunk.NewFilter(pol.metric)
	if err != nil {
		return fmt.Errorf("%s filter: %w", pol.metric, err)
	}

	threshold := pol.initial
	passes := 0
	for fltr.MaxValue() > pol.stop {
		passes++
		if passes > p.opts.MaxPasses {
			return fmt.Errorf("%s after %d passes: %w", pol.metric, p.opts.MaxPasses, radiometry.ErrNonConvergence)
		}

		selected := fltr.Select(threshold)
		total := len(chunk.TiePoints().Points())
		if float64(selected) >= float64(total)/pol.fraction && (pol.cap == 0 || threshold <= pol.cap) {
			fltr.Reset()
			threshold += pol.step
			continue
		}

		if err := fltr.RemoveSelected(); err != nil {
			return fmt.Errorf("%s removal: %w", pol.metric, err)
		}
		p.logger.Debugf("%s: removed %d of %d points at threshold %.2f", pol.metric, selected, total, threshold)

		if err := chunk.OptimizeCameras(pol.fit); err != nil {
			return fmt.Errorf("camera optimization: %w", err)
		}

		fltr, err = chunk.NewFilter(pol.metric)
		if err != nil {
			return fmt.Errorf("%s filter: %w", pol.metric, err)
		}
		threshold = pol.initial
	}
	return nil
}
