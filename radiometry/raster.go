package radiometry

import "math"

// DataType tags the numeric sample type of a raster, mirroring the pixel
// datatypes the reconstruction engine exchanges.
type DataType int

const (
	U8 DataType = iota
	U16
	U32
	F32
	F64
)

func (d DataType) String() string {
	switch d {
	case U8:
		return "U8"
	case U16:
		return "U16"
	case U32:
		return "U32"
	case F32:
		return "F32"
	case F64:
		return "F64"
	default:
		return "unknown"
	}
}

// Range returns the representable [min, max] of the datatype. Integer types
// use the full width of the type; floating types the finite range.
func (d DataType) Range() (min, max float64) {
	switch d {
	case U8:
		return 0, math.MaxUint8
	case U16:
		return 0, math.MaxUint16
	case U32:
		return 0, math.MaxUint32
	case F32:
		return -math.MaxFloat32, math.MaxFloat32
	default:
		return -math.MaxFloat64, math.MaxFloat64
	}
}

// Raster is a single-band row-major pixel buffer with a datatype tag.
// Samples are held as float64 regardless of tag; the tag governs clipping
// and round-tripping through the engine's image primitives.
type Raster struct {
	Width  int
	Height int
	Type   DataType
	Pix    []float64
}

// NewRaster allocates a zeroed raster of the given dimensions and type.
func NewRaster(width, height int, t DataType) *Raster {
	return &Raster{
		Width:  width,
		Height: height,
		Type:   t,
		Pix:    make([]float64, width*height),
	}
}

// At returns the sample at column u, row v.
func (r *Raster) At(u, v int) float64 { return r.Pix[v*r.Width+u] }

// Set stores a sample at column u, row v.
func (r *Raster) Set(u, v int, x float64) { r.Pix[v*r.Width+u] = x }

// Row returns the backing slice for row v.
func (r *Raster) Row(v int) []float64 { return r.Pix[v*r.Width : (v+1)*r.Width] }

// Clip clamps every sample into the raster datatype's representable range,
// in place.
func (r *Raster) Clip() {
	min, max := r.Type.Range()
	for i, x := range r.Pix {
		if x < min {
			r.Pix[i] = min
		} else if x > max {
			r.Pix[i] = max
		}
	}
}

// SameShape reports whether two rasters have identical pixel dimensions.
func (r *Raster) SameShape(o *Raster) bool {
	return r.Width == o.Width && r.Height == o.Height
}
