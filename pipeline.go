package bandaid

import (
	"fmt"

	"go.viam.com/rdk/logging"

	"github.com/fieldvision/bandaid/radiometry"
)

// Pipeline post-processes reconstructions: it prunes unreliable tie points
// through the three-phase quality-reduction loop and corrects per-pixel
// radiometric inconsistency caused by reflectance and illumination-view
// geometry differences across overlapping images.
type Pipeline struct {
	opts      Options
	cfg       radiometry.Config
	corrector *radiometry.Corrector
	logger    logging.Logger
}

// NewPipeline creates a pipeline with the given options. The options are
// copied and stay fixed for the pipeline's lifetime.
func NewPipeline(opts Options, logger logging.Logger) *Pipeline {
	cfg := opts.radiometryConfig()
	return &Pipeline{
		opts:      opts,
		cfg:       cfg,
		corrector: radiometry.NewCorrector(&cfg),
		logger:    logger,
	}
}

// ProcessChunk runs the full post-processing sequence on one reconstruction:
// the three reduction phases in fixed order, then radiometric correction.
// Chunks are processed start to finish, one at a time; each phase depends on
// the previous phase's surviving tie-point set.
func (p *Pipeline) ProcessChunk(doc Document, chunk Chunk) (*CorrectionReport, error) {
	steps := []struct {
		name string
		fn   func(Chunk) error
	}{
		{"ReduceUncertainty", p.ReduceUncertainty},
		{"ReduceProjectionAccuracy", p.ReduceProjectionAccuracy},
		{"ReduceReprojectionError", p.ReduceReprojectionError},
	}

	for _, step := range steps {
		p.logger.Infof("=== %s (%s) ===", step.name, chunk.Label())
		if err := step.fn(chunk); err != nil {
			return nil, fmt.Errorf("%s: %w", step.name, err)
		}
	}

	p.logger.Infof("=== Correct (%s) ===", chunk.Label())
	return p.CorrectChunk(doc, chunk)
}

// Process runs ProcessChunk over every chunk of the document.
func (p *Pipeline) Process(doc Document) ([]*CorrectionReport, error) {
	var reports []*CorrectionReport
	for _, chunk := range doc.Chunks() {
		report, err := p.ProcessChunk(doc, chunk)
		if err != nil {
			return reports, fmt.Errorf("chunk %s: %w", chunk.Label(), err)
		}
		reports = append(reports, report)
	}
	return reports, nil
}
