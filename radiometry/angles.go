package radiometry

import (
	"fmt"
	"math"
	"sync"
	"time"

	"gonum.org/v1/gonum/mat"
)

// AngleField holds the per-pixel sun and view angles of one image, row-major.
// Built once per image and immutable afterward.
type AngleField struct {
	Width       int
	Height      int
	SunZenith   []float64
	SunAzimuth  []float64
	ViewZenith  []float64
	ViewAzimuth []float64
}

// NewAngleField allocates an angle field matching the given image dimensions.
func NewAngleField(width, height int) *AngleField {
	n := width * height
	return &AngleField{
		Width:       width,
		Height:      height,
		SunZenith:   make([]float64, n),
		SunAzimuth:  make([]float64, n),
		ViewZenith:  make([]float64, n),
		ViewAzimuth: make([]float64, n),
	}
}

// At returns the four angles at column u, row v.
func (f *AngleField) At(u, v int) (sunZen, sunAz, viewZen, viewAz float64) {
	i := v*f.Width + u
	return f.SunZenith[i], f.SunAzimuth[i], f.ViewZenith[i], f.ViewAzimuth[i]
}

// Kernel returns the two BRDF kernel terms at column u, row v:
// x1 = view_zenith² and x2 = view_zenith · cos(view_azimuth − sun_azimuth).
func (f *AngleField) Kernel(u, v int) (x1, x2 float64) {
	i := v*f.Width + u
	return kernelTerms(f.SunAzimuth[i], f.ViewZenith[i], f.ViewAzimuth[i])
}

func kernelTerms(sunAz, viewZen, viewAz float64) (x1, x2 float64) {
	return viewZen * viewZen, viewZen * cosDeg(viewAz-sunAz)
}

// AngleFieldParams bundles the inputs for building one image's angle field.
type AngleFieldParams struct {
	Width     int
	Height    int
	Unproject Unprojector // pixel → camera-space ray
	Rotation  mat.Matrix  // from ViewRotation
	Geolocate Geolocator  // pixel → geodetic position via the depth surface
	Centre    PixelCoord  // principal point in pixel coordinates
	Time      time.Time   // timezone-aware capture time
}

// BuildAngleField computes the dense sun/view angle field for one image.
// Solar angles are evaluated once at the camera centre and reused for every
// pixel unless cfg.Solar.Pixelwise is set, in which case each pixel is
// geolocated independently. Rows are processed in parallel; the computation
// has no cross-pixel dependency.
func BuildAngleField(cfg Config, p AngleFieldParams) (*AngleField, error) {
	if p.Width <= 0 || p.Height <= 0 {
		return nil, fmt.Errorf("angle field %dx%d: %w", p.Width, p.Height, ErrRasterShape)
	}

	centreGeo, err := p.Geolocate(p.Centre.U, p.Centre.V)
	if err != nil {
		return nil, fmt.Errorf("camera centre: %w", err)
	}
	centreSunZen, centreSunAz := SunAngles(centreGeo, p.Time)

	field := NewAngleField(p.Width, p.Height)

	limiter := make(chan struct{}, cfg.workers())
	errs := make(chan error, p.Height)
	var wg sync.WaitGroup
	for v := 0; v < p.Height; v++ {
		limiter <- struct{}{}
		wg.Add(1)
		go func(v int) {
			defer func() { <-limiter; wg.Done() }()
			errs <- buildAngleRow(cfg, p, field, v, centreSunZen, centreSunAz)
		}(v)
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		if e != nil {
			return nil, e
		}
	}
	return field, nil
}

func buildAngleRow(cfg Config, p AngleFieldParams, field *AngleField, v int, sunZen, sunAz float64) error {
	base := v * p.Width
	for u := 0; u < p.Width; u++ {
		if cfg.Solar.Pixelwise {
			geo, err := p.Geolocate(float64(u), float64(v))
			if err != nil {
				return fmt.Errorf("pixel (%d,%d): %w", u, v, err)
			}
			sunZen, sunAz = SunAngles(geo, p.Time)
		}
		viewZen, viewAz := ViewAngles(p.Unproject(float64(u), float64(v)), p.Rotation)

		field.SunZenith[base+u] = sunZen
		field.SunAzimuth[base+u] = sunAz
		field.ViewZenith[base+u] = viewZen
		field.ViewAzimuth[base+u] = viewAz
	}
	return nil
}

func cosDeg(deg float64) float64 {
	return math.Cos(radians(deg))
}
