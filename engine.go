package bandaid

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/fieldvision/bandaid/radiometry"
)

// This file defines the surface of the external reconstruction engine. The
// engine owns camera alignment, dense reconstruction, tie-point storage and
// image IO; this module only consumes those capabilities. Tie-point removal
// and camera mutation happen inside the engine and are atomic per call.

// Metric enumerates the engine's per-tie-point reliability metrics.
type Metric int

const (
	ReconstructionUncertainty Metric = iota
	ProjectionAccuracy
	ReprojectionError
)

func (m Metric) String() string {
	switch m {
	case ReconstructionUncertainty:
		return "reconstruction uncertainty"
	case ProjectionAccuracy:
		return "projection accuracy"
	case ReprojectionError:
		return "reprojection error"
	default:
		return "unknown"
	}
}

// CalibrationFit selects the intrinsic parameters the engine adjusts during
// camera optimization.
type CalibrationFit struct {
	F      bool // focal length
	Cx, Cy bool // principal point
	B1, B2 bool // affinity and skew
	K1, K2 bool // radial distortion
	K3, K4 bool
	P1, P2 bool // tangential distortion
	P3, P4 bool
}

// Document is an open project file holding one or more reconstructions.
type Document interface {
	Path() string
	Chunks() []Chunk
}

// Chunk is one reconstruction: aligned cameras, tie points and a renderable
// surface, in a chunk-local coordinate frame.
type Chunk interface {
	Label() string
	Cameras() []Camera
	TiePoints() TiePointStore

	// NewFilter computes the metric distribution over the surviving tie
	// points. The distribution is a snapshot; re-create the filter after
	// any removal.
	NewFilter(m Metric) (PointFilter, error)

	// OptimizeCameras re-optimizes camera parameters, fitting only the
	// selected intrinsic subset. Blocks until done; tie points and camera
	// parameters are mutated in place.
	OptimizeCameras(fit CalibrationFit) error

	// SetTiePointAccuracy tightens the a-priori tie-point accuracy (in
	// pixels) that weighs observations during optimization.
	SetTiePointAccuracy(pixels float64)

	Scale() float64        // spatial scale of the chunk frame
	Transform() mat.Matrix // 4×4 chunk-to-world transform
	CRS() CRS

	// RenderDepth renders the reconstructed surface as a depth image along
	// the band camera's principal ray, in unscaled chunk units.
	RenderDepth(b Band) (*radiometry.Raster, error)
}

// CRS is the reconstruction's coordinate reference system.
type CRS interface {
	// Localframe returns the 4×4 east-north-up frame at a world point.
	Localframe(world r3.Vector) mat.Matrix
	// Project converts a world point to geodetic coordinates.
	Project(world r3.Vector) (radiometry.GeoPoint, error)
}

// TiePointStore exposes the chunk's tie-point table, ordered ascending by
// track id. Points are owned by the engine; this module only reads them and
// toggles validity.
type TiePointStore interface {
	Points() []radiometry.TrackPoint
	SetValid(index int, valid bool)
}

// PointFilter is a metric distribution over the surviving tie points with
// threshold selection, as exposed by the engine.
type PointFilter interface {
	MaxValue() float64
	// Select marks all points with metric above the threshold and returns
	// how many are marked.
	Select(threshold float64) int
	// Reset clears the selection without removing anything.
	Reset()
	// RemoveSelected permanently removes the marked points.
	RemoveSelected() error
}

// Camera is one physical camera station with one or more spectral planes.
type Camera interface {
	Label() string
	// Planes lists the camera's band images; empty for single-band rigs.
	Planes() []Band
	// Master is the camera's master image.
	Master() Band
}

// Band is a single spectral plane of a camera.
type Band interface {
	Label() string
	BandName() string
	GroupLabel() string // camera group, "" when ungrouped
	Enabled() bool
	SetEnabled(enabled bool)

	Center() r3.Vector     // camera centre in chunk coordinates
	Transform() mat.Matrix // 4×4 camera-to-chunk transform
	Calibration() Calibration

	// Projections lists the band's tie-point observations, ascending by
	// track id.
	Projections() ([]radiometry.Projection, error)

	Photo() Photo
}

// Calibration is a band sensor's intrinsic calibration.
type Calibration interface {
	Width() int
	Height() int
	PrincipalPoint() (cx, cy float64)
	// Unproject maps a pixel coordinate to its viewing ray in camera space.
	Unproject(u, v float64) r3.Vector
}

// Photo is a band's image file plus the engine's pixel-level IO primitives.
type Photo interface {
	Path() string
	// CaptureTime returns the EXIF DateTimeOriginal string when present.
	CaptureTime() (string, bool)
	Read() (*radiometry.Raster, error)
	Write(path string, img *radiometry.Raster) error
	// Open re-points the band at another image file.
	Open(path string) error
}
