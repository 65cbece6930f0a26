package bandaid

import (
	"fmt"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/fieldvision/bandaid/radiometry"
)

// In-memory engine fakes. They model the minimum the pipeline exercises:
// a metric filter over a mutable value slice, cameras with band planes,
// pixel IO held in memory, and an identity-frame coordinate system.

func eye4() *mat.Dense {
	return mat.NewDense(4, 4, []float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})
}

type fakeDocument struct {
	path   string
	chunks []Chunk
}

func (d *fakeDocument) Path() string   { return d.path }
func (d *fakeDocument) Chunks() []Chunk { return d.chunks }

type fakeChunk struct {
	label   string
	cameras []Camera
	store   *fakeStore

	// Metric simulation for the reduction loop. optimizeFactor rescales
	// every surviving value on each OptimizeCameras call; 1 models an
	// optimizer that improves nothing.
	values         []float64
	optimizeFactor float64
	optimizeFits   []CalibrationFit
	accuracies     []float64
	filterErr      error
	selections     []selection

	scale     float64
	transform *mat.Dense
	crs       *fakeCRS
	depth     map[string]*radiometry.Raster
}

func newFakeChunk(label string, values ...float64) *fakeChunk {
	return &fakeChunk{
		label:          label,
		store:          &fakeStore{},
		values:         values,
		optimizeFactor: 1,
		scale:          1,
		transform:      eye4(),
		crs:            &fakeCRS{point: radiometry.GeoPoint{Lon: 0, Lat: 45}},
		depth:          map[string]*radiometry.Raster{},
	}
}

func (c *fakeChunk) Label() string    { return c.label }
func (c *fakeChunk) Cameras() []Camera { return c.cameras }

func (c *fakeChunk) TiePoints() TiePointStore {
	if len(c.store.points) == 0 && len(c.values) > 0 {
		// Reduction tests only need the population size.
		pts := make([]radiometry.TrackPoint, len(c.values))
		for i := range pts {
			pts[i] = radiometry.TrackPoint{TrackID: i, Valid: true}
		}
		return &fakeStore{points: pts}
	}
	return c.store
}

func (c *fakeChunk) NewFilter(m Metric) (PointFilter, error) {
	if c.filterErr != nil {
		return nil, c.filterErr
	}
	return &fakeFilter{chunk: c}, nil
}

func (c *fakeChunk) OptimizeCameras(fit CalibrationFit) error {
	c.optimizeFits = append(c.optimizeFits, fit)
	for i := range c.values {
		c.values[i] *= c.optimizeFactor
	}
	return nil
}

func (c *fakeChunk) SetTiePointAccuracy(pixels float64) {
	c.accuracies = append(c.accuracies, pixels)
}

func (c *fakeChunk) Scale() float64        { return c.scale }
func (c *fakeChunk) Transform() mat.Matrix { return c.transform }
func (c *fakeChunk) CRS() CRS              { return c.crs }

func (c *fakeChunk) RenderDepth(b Band) (*radiometry.Raster, error) {
	d, ok := c.depth[b.Label()]
	if !ok {
		return nil, fmt.Errorf("no depth surface for %s", b.Label())
	}
	return d, nil
}

// selection records one threshold probe for loop-invariant assertions.
type selection struct {
	threshold float64
	total     int
}

type fakeFilter struct {
	chunk    *fakeChunk
	selected []int
}

func (f *fakeFilter) MaxValue() float64 {
	max := 0.0
	for _, v := range f.chunk.values {
		if v > max {
			max = v
		}
	}
	return max
}

func (f *fakeFilter) Select(threshold float64) int {
	f.chunk.selections = append(f.chunk.selections, selection{threshold, len(f.chunk.values)})
	f.selected = f.selected[:0]
	for i, v := range f.chunk.values {
		if v > threshold {
			f.selected = append(f.selected, i)
		}
	}
	return len(f.selected)
}

func (f *fakeFilter) Reset() { f.selected = f.selected[:0] }

func (f *fakeFilter) RemoveSelected() error {
	drop := make(map[int]bool, len(f.selected))
	for _, i := range f.selected {
		drop[i] = true
	}
	kept := f.chunk.values[:0]
	for i, v := range f.chunk.values {
		if !drop[i] {
			kept = append(kept, v)
		}
	}
	f.chunk.values = kept
	f.selected = nil
	return nil
}

type fakeStore struct {
	points []radiometry.TrackPoint
	valid  map[int]bool
}

func (s *fakeStore) Points() []radiometry.TrackPoint { return s.points }

func (s *fakeStore) SetValid(index int, valid bool) {
	if s.valid == nil {
		s.valid = map[int]bool{}
	}
	s.valid[index] = valid
	s.points[index].Valid = valid
}

type fakeCamera struct {
	label  string
	planes []Band
	master Band
}

func (c *fakeCamera) Label() string  { return c.label }
func (c *fakeCamera) Planes() []Band { return c.planes }
func (c *fakeCamera) Master() Band   { return c.master }

type fakeBand struct {
	label       string
	bandName    string
	group       string
	enabled     bool
	center      r3.Vector
	transform   *mat.Dense
	cal         *fakeCalibration
	projections []radiometry.Projection
	photo       *fakePhoto
}

func (b *fakeBand) Label() string            { return b.label }
func (b *fakeBand) BandName() string         { return b.bandName }
func (b *fakeBand) GroupLabel() string       { return b.group }
func (b *fakeBand) Enabled() bool            { return b.enabled }
func (b *fakeBand) SetEnabled(enabled bool)  { b.enabled = enabled }
func (b *fakeBand) Center() r3.Vector        { return b.center }
func (b *fakeBand) Transform() mat.Matrix    { return b.transform }
func (b *fakeBand) Calibration() Calibration { return b.cal }
func (b *fakeBand) Photo() Photo             { return b.photo }

func (b *fakeBand) Projections() ([]radiometry.Projection, error) {
	return b.projections, nil
}

type fakeCalibration struct {
	width, height int
	cx, cy        float64
	unproject     func(u, v float64) r3.Vector
}

func (c *fakeCalibration) Width() int  { return c.width }
func (c *fakeCalibration) Height() int { return c.height }

func (c *fakeCalibration) PrincipalPoint() (float64, float64) { return c.cx, c.cy }

func (c *fakeCalibration) Unproject(u, v float64) r3.Vector {
	if c.unproject != nil {
		return c.unproject(u, v)
	}
	return r3.Vector{
		X: (u - float64(c.width)/2) / float64(c.width),
		Y: (v - float64(c.height)/2) / float64(c.height),
		Z: 1,
	}
}

type fakePhoto struct {
	path        string
	captureTime string
	raster      *radiometry.Raster

	written map[string]*radiometry.Raster
	opened  []string
	openErr error
}

func (p *fakePhoto) Path() string { return p.path }

func (p *fakePhoto) CaptureTime() (string, bool) {
	return p.captureTime, p.captureTime != ""
}

func (p *fakePhoto) Read() (*radiometry.Raster, error) {
	if p.raster == nil {
		return nil, fmt.Errorf("no pixels at %s", p.path)
	}
	return p.raster, nil
}

func (p *fakePhoto) Write(path string, img *radiometry.Raster) error {
	if p.written == nil {
		p.written = map[string]*radiometry.Raster{}
	}
	p.written[path] = img
	return nil
}

func (p *fakePhoto) Open(path string) error {
	if p.openErr != nil {
		return p.openErr
	}
	p.opened = append(p.opened, path)
	p.path = path
	return nil
}

type fakeCRS struct {
	point   radiometry.GeoPoint
	project func(world r3.Vector) (radiometry.GeoPoint, error)
}

func (c *fakeCRS) Localframe(world r3.Vector) mat.Matrix { return eye4() }

func (c *fakeCRS) Project(world r3.Vector) (radiometry.GeoPoint, error) {
	if c.project != nil {
		return c.project(world)
	}
	return c.point, nil
}
