package bandaid

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/fieldvision/bandaid/internal/exiftime"
	"github.com/fieldvision/bandaid/radiometry"
)

// calibrationGroupLabel marks the reserved camera group holding radiometric
// calibration shots; those are never corrected.
const calibrationGroupLabel = "Calibration images"

// ImageFailure records one band image whose correction was aborted. The
// source image is left unmodified.
type ImageFailure struct {
	Band string
	Path string
	Err  error
}

// CorrectionReport summarizes one chunk's correction run for the caller.
type CorrectionReport struct {
	Corrected []string // output paths written
	Skipped   []string // bands left untouched by the skip rules
	Disabled  []string // bands disabled for lack of tie points
	Failures  []ImageFailure
}

// OutputDir returns the corrected-image directory for a chunk:
// <project-name>.<chunk-label>.BRDF_corrected beside the project file.
func OutputDir(projectPath, chunkLabel string) string {
	dir, file := filepath.Split(projectPath)
	name := strings.TrimSuffix(file, filepath.Ext(file))
	return filepath.Join(dir, strings.Join([]string{name, chunkLabel, "BRDF_corrected"}, "."))
}

// correctedPath resolves a band image's destination: same base name with the
// original extension lower-cased, inside the output directory.
func correctedPath(outDir, srcPath string) string {
	base := filepath.Base(srcPath)
	ext := filepath.Ext(base)
	return filepath.Join(outDir, strings.TrimSuffix(base, ext)+strings.ToLower(ext))
}

// CorrectChunk corrects every band image of the chunk for reflectance and
// illumination-view geometry effects, writing results under the chunk's
// output directory and re-pointing each band at its corrected file. Bands in
// the calibration group, bands whose destination equals their source, and
// bands with an already-existing corrected file are skipped; a band with no
// usable tie points is disabled and the run continues.
func (p *Pipeline) CorrectChunk(doc Document, chunk Chunk) (*CorrectionReport, error) {
	report := &CorrectionReport{}

	cams := chunk.Cameras()
	if len(cams) == 0 {
		return report, nil
	}

	outDir := OutputDir(doc.Path(), chunk.Label())
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return report, fmt.Errorf("output dir: %w", err)
	}

	selectors := []BandSelector{SelectMaster()}
	if n := len(cams[0].Planes()); n > 0 {
		selectors = selectors[:0]
		for i := 0; i < n; i++ {
			selectors = append(selectors, SelectBand(i))
		}
	}

	for _, sel := range selectors {
		tables, planes, err := buildMatchTables(chunk, sel)
		if err != nil {
			return report, err
		}

		// Geometry synthesis per plane: depth-derived view angles plus
		// solar angles at the capture instant. Each plane's image is read
		// once and cached for the cross-camera intensity lookups.
		fields := make(map[radiometry.BandID]*radiometry.AngleField, len(planes))
		rasters := make(map[radiometry.BandID]*radiometry.Raster, len(planes))
		for id, plane := range planes {
			field, raster, err := p.bandGeometry(chunk, plane)
			if err != nil {
				p.logger.Warnf("Geometry for %s failed: %v", plane.Label(), err)
				report.Failures = append(report.Failures, ImageFailure{
					Band: plane.Label(),
					Path: plane.Photo().Path(),
					Err:  err,
				})
				continue
			}
			fields[radiometry.BandID(id)] = field
			rasters[radiometry.BandID(id)] = raster
		}

		for id, plane := range planes {
			p.correctBand(plane, radiometry.BandID(id), tables, fields, rasters, outDir, report)
		}
	}
	return report, nil
}

// correctBand corrects a single band image, applying the skip rules first.
func (p *Pipeline) correctBand(
	plane Band,
	id radiometry.BandID,
	tables radiometry.MatchTables,
	fields map[radiometry.BandID]*radiometry.AngleField,
	rasters map[radiometry.BandID]*radiometry.Raster,
	outDir string,
	report *CorrectionReport,
) {
	photo := plane.Photo()
	srcPath := photo.Path()
	newPath := correctedPath(outDir, srcPath)

	if plane.GroupLabel() == calibrationGroupLabel {
		report.Skipped = append(report.Skipped, srcPath)
		return
	}
	if samePath(srcPath, newPath) {
		report.Skipped = append(report.Skipped, srcPath)
		return
	}
	if _, err := os.Stat(newPath); err == nil {
		// Already corrected on a previous run; reuse it.
		if err := photo.Open(newPath); err != nil {
			report.Failures = append(report.Failures, ImageFailure{Band: plane.Label(), Path: newPath, Err: err})
			return
		}
		report.Skipped = append(report.Skipped, newPath)
		return
	}

	src, ok := rasters[id]
	if !ok {
		// Geometry synthesis already failed and was recorded.
		return
	}

	img, err := p.corrector.CorrectImage(radiometry.ImageInputs{
		Band:    id,
		Source:  src,
		Fields:  fields,
		Rasters: rasters,
		Tables:  tables,
	})
	switch {
	case errors.Is(err, radiometry.ErrNoTiePoints):
		p.logger.Warnf("No tie points for %s, disabling", plane.Label())
		plane.SetEnabled(false)
		report.Disabled = append(report.Disabled, plane.Label())
		return
	case err != nil:
		p.logger.Warnf("Correction of %s failed: %v", plane.Label(), err)
		report.Failures = append(report.Failures, ImageFailure{Band: plane.Label(), Path: srcPath, Err: err})
		return
	}

	if err := photo.Write(newPath, img); err != nil {
		report.Failures = append(report.Failures, ImageFailure{Band: plane.Label(), Path: newPath, Err: err})
		return
	}
	if err := photo.Open(newPath); err != nil {
		report.Failures = append(report.Failures, ImageFailure{Band: plane.Label(), Path: newPath, Err: err})
		return
	}
	report.Corrected = append(report.Corrected, newPath)
}

// bandGeometry reads a plane's image and synthesizes its dense sun/view
// angle field from the rendered depth surface, the camera pose and the
// chunk's coordinate reference system.
func (p *Pipeline) bandGeometry(chunk Chunk, plane Band) (*radiometry.AngleField, *radiometry.Raster, error) {
	cal := plane.Calibration()
	width, height := cal.Width(), cal.Height()

	raster, err := plane.Photo().Read()
	if err != nil {
		return nil, nil, err
	}
	if raster.Width != width || raster.Height != height {
		return nil, nil, fmt.Errorf("image %dx%d for %dx%d sensor: %w",
			raster.Width, raster.Height, width, height, radiometry.ErrRasterShape)
	}

	depth, err := chunk.RenderDepth(plane)
	if err != nil {
		return nil, nil, fmt.Errorf("render depth: %w", err)
	}
	scale := chunk.Scale()
	depthScaled := radiometry.NewRaster(depth.Width, depth.Height, radiometry.F32)
	for i, d := range depth.Pix {
		depthScaled.Pix[i] = d * scale
	}

	transform := chunk.Transform()
	worldCenter := applyAffine(transform, plane.Center())
	rotation := radiometry.ViewRotation(chunk.CRS().Localframe(worldCenter), transform, plane.Transform())

	geolocate := func(u, v float64) (radiometry.GeoPoint, error) {
		ui, vi := int(u), int(v)
		if ui < 0 || ui >= depthScaled.Width || vi < 0 || vi >= depthScaled.Height {
			return radiometry.GeoPoint{}, fmt.Errorf("pixel (%g,%g) outside depth field: %w", u, v, radiometry.ErrGeometry)
		}
		d := depthScaled.At(ui, vi)
		if d <= 0 {
			return radiometry.GeoPoint{}, fmt.Errorf("no surface coverage at (%g,%g): %w", u, v, radiometry.ErrGeometry)
		}
		ray := radiometry.RotateRay(plane.Transform(), cal.Unproject(u, v))
		point := radiometry.TraceRay(plane.Center(), ray, d, scale)
		return chunk.CRS().Project(applyAffine(transform, point))
	}

	captured, err := p.captureTime(plane)
	if err != nil {
		return nil, nil, err
	}

	cx, cy := cal.PrincipalPoint()
	field, err := radiometry.BuildAngleField(p.cfg, radiometry.AngleFieldParams{
		Width:     width,
		Height:    height,
		Unproject: cal.Unproject,
		Rotation:  rotation,
		Geolocate: geolocate,
		Centre:    radiometry.PixelCoord{U: float64(width)/2 + cx, V: float64(height)/2 + cy},
		Time:      captured,
	})
	if err != nil {
		return nil, nil, err
	}
	return field, raster, nil
}

// captureTime resolves a plane's capture instant, preferring the engine's
// metadata and falling back to the image file's own EXIF block.
func (p *Pipeline) captureTime(plane Band) (time.Time, error) {
	if s, ok := plane.Photo().CaptureTime(); ok {
		return exiftime.Parse(s, p.opts.UTC)
	}
	return exiftime.FromFile(plane.Photo().Path(), p.opts.UTC)
}

// applyAffine applies a 4×4 homogeneous transform to a 3-D point.
func applyAffine(m mat.Matrix, v r3.Vector) r3.Vector {
	x := m.At(0, 0)*v.X + m.At(0, 1)*v.Y + m.At(0, 2)*v.Z + m.At(0, 3)
	y := m.At(1, 0)*v.X + m.At(1, 1)*v.Y + m.At(1, 2)*v.Z + m.At(1, 3)
	z := m.At(2, 0)*v.X + m.At(2, 1)*v.Y + m.At(2, 2)*v.Z + m.At(2, 3)
	w := m.At(3, 0)*v.X + m.At(3, 1)*v.Y + m.At(3, 2)*v.Z + m.At(3, 3)
	if w != 0 && w != 1 {
		return r3.Vector{X: x / w, Y: y / w, Z: z / w}
	}
	return r3.Vector{X: x, Y: y, Z: z}
}

// samePath reports whether two paths resolve to the same file location.
func samePath(a, b string) bool {
	aa, errA := filepath.Abs(a)
	bb, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return aa == bb
}
