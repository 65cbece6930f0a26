package radiometry

import "fmt"

// Corrector runs the per-image radiometric correction pipeline.
type Corrector struct {
	cfg Config
}

// NewCorrector creates a Corrector with the given configuration.
func NewCorrector(cfg *Config) *Corrector {
	if cfg == nil {
		c := DefaultConfig()
		cfg = &c
	}
	return &Corrector{cfg: *cfg}
}

// ImageInputs bundles everything needed to correct one band image: the image
// itself, the dense angle fields and rasters of every band observing its tie
// points, and the filtered correspondence tables.
type ImageInputs struct {
	Band    BandID
	Source  *Raster
	Fields  map[BandID]*AngleField
	Rasters map[BandID]*Raster
	Tables  MatchTables
}

// CorrectImage produces the zenith-normalized image for one band.
//
// For every tie point observed in the band it fits a local multi-linear
// model across the point's cross-camera observations, tags the sample with
// the feature label of its pixel, declusters each feature's coefficients,
// fits the two global no-intercept models, and synthesizes the corrected
// image. ErrNoTiePoints reports a band with zero usable observations;
// geometry, model-fit and sample-floor failures abort this image only.
func (c *Corrector) CorrectImage(in ImageInputs) (*Raster, error) {
	points := in.Tables.CameraMatches[in.Band]
	if len(points) == 0 {
		return nil, fmt.Errorf("band %d: %w", in.Band, ErrNoTiePoints)
	}
	field, ok := in.Fields[in.Band]
	if !ok {
		return nil, fmt.Errorf("band %d has no angle field: %w", in.Band, ErrGeometry)
	}
	if field.Width != in.Source.Width || field.Height != in.Source.Height {
		return nil, fmt.Errorf("band %d: %w", in.Band, ErrRasterShape)
	}

	mixture, err := FitGaussianMixtureScalar(in.Source.Pix, c.cfg.Mixture)
	if err != nil {
		return nil, fmt.Errorf("feature classifier: %w", err)
	}

	// Solve the local model for every tie point visible in this band and
	// bucket the samples by feature label.
	var byLabel [mixtureComponents][]LocalSample
	for pointIndex, coord := range points {
		sample, err := c.fitTiePoint(in, coord, in.Tables.PointMatches[pointIndex])
		if err != nil {
			return nil, fmt.Errorf("tie point %d: %w", pointIndex, err)
		}
		sample.Label = mixture.PredictScalar(sample.Intensity)
		byLabel[sample.Label] = append(byLabel[sample.Label], sample)
	}

	var models [mixtureComponents]GlobalModel
	for label := 0; label < mixtureComponents; label++ {
		denoised, err := PruneOutliers(byLabel[label], c.cfg.Prune)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", label, err)
		}
		models[label], err = FitGlobalModel(denoised, c.cfg.Fit)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", label, err)
		}
	}

	labels := mixture.PredictRaster(in.Source, c.cfg.workers())
	return SynthesizeCorrected(in.Source, labels, field, models, c.cfg.workers())
}

// fitTiePoint builds one regression sample per camera observing the tie
// point and fits the local model. The returned sample carries the point's
// own intensity and kernel terms in the band being corrected.
func (c *Corrector) fitTiePoint(in ImageInputs, coord PixelCoord, observations map[BandID]PixelCoord) (LocalSample, error) {
	obs := make([]LocalObservation, 0, len(observations))
	for band, obsCoord := range observations {
		field, ok := in.Fields[band]
		if !ok {
			return LocalSample{}, fmt.Errorf("observing band %d has no angle field: %w", band, ErrGeometry)
		}
		raster, ok := in.Rasters[band]
		if !ok {
			return LocalSample{}, fmt.Errorf("observing band %d has no raster: %w", band, ErrGeometry)
		}
		u, v, err := clampPixel(obsCoord, field.Width, field.Height)
		if err != nil {
			return LocalSample{}, err
		}
		x1, x2 := field.Kernel(u, v)
		obs = append(obs, LocalObservation{
			Intensity: raster.At(u, v),
			X1:        x1,
			X2:        x2,
		})
	}

	slope1, slope2, intercept, err := FitLocalModel(obs, c.cfg.Fit)
	if err != nil {
		return LocalSample{}, err
	}

	refField := in.Fields[in.Band]
	u, v, err := clampPixel(coord, refField.Width, refField.Height)
	if err != nil {
		return LocalSample{}, err
	}
	x1, x2 := refField.Kernel(u, v)
	return LocalSample{
		Coord:     coord,
		Intensity: in.Source.At(u, v),
		X1:        x1,
		X2:        x2,
		Slope1:    slope1,
		Slope2:    slope2,
		Intercept: intercept,
	}, nil
}

// clampPixel truncates a sub-pixel coordinate to its containing pixel and
// rejects projections that fall outside the image.
func clampPixel(c PixelCoord, width, height int) (u, v int, err error) {
	u, v = int(c.U), int(c.V)
	if u < 0 || u >= width || v < 0 || v >= height {
		return 0, 0, fmt.Errorf("projection (%.1f, %.1f) outside %dx%d image: %w",
			c.U, c.V, width, height, ErrGeometry)
	}
	return u, v, nil
}
