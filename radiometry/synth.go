package radiometry

import (
	"fmt"
	"sync"
)

// SynthesizeCorrected evaluates both per-feature models on every pixel,
// selects between them by the pixel's feature label, and clips the result
// into the source datatype's representable range. The output raster has the
// source's dimensions and datatype; the source is not modified. Rows are
// processed in parallel.
func SynthesizeCorrected(src *Raster, labels []int, field *AngleField, models [mixtureComponents]GlobalModel, workers int) (*Raster, error) {
	if field.Width != src.Width || field.Height != src.Height {
		return nil, fmt.Errorf("angle field %dx%d for %dx%d image: %w",
			field.Width, field.Height, src.Width, src.Height, ErrRasterShape)
	}
	if len(labels) != len(src.Pix) {
		return nil, fmt.Errorf("%d labels for %d pixels: %w", len(labels), len(src.Pix), ErrRasterShape)
	}

	out := NewRaster(src.Width, src.Height, src.Type)
	min, max := src.Type.Range()

	if workers < 1 {
		workers = 1
	}
	limiter := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for v := 0; v < src.Height; v++ {
		limiter <- struct{}{}
		wg.Add(1)
		go func(v int) {
			defer func() { <-limiter; wg.Done() }()
			base := v * src.Width
			for u := 0; u < src.Width; u++ {
				x1, x2 := field.Kernel(u, v)
				y := src.Pix[base+u]
				pred := models[labels[base+u]].Predict(y, x1, x2)
				out.Pix[base+u] = clamp(pred, min, max)
			}
		}(v)
	}
	wg.Wait()
	return out, nil
}
