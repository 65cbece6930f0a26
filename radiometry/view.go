package radiometry

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// Unprojector maps a pixel coordinate to its viewing ray in camera space.
// Supplied by the engine's intrinsic calibration.
type Unprojector func(u, v float64) r3.Vector

// Geolocator resolves a pixel to its geodetic position by tracing the
// depth-scaled viewing ray to the surface and projecting through the
// reconstruction's coordinate reference system.
type Geolocator func(u, v float64) (GeoPoint, error)

// ViewRotation builds the transpose of the rotation part of
//
//	localframe(center) · transform · camera · diag(1, −1, −1, 1)
//
// which maps camera-space rays into the local east-north-up frame. All
// inputs are 4×4 homogeneous matrices.
func ViewRotation(localframe, transform, camera mat.Matrix) *mat.Dense {
	flip := mat.NewDiagDense(4, []float64{1, -1, -1, 1})

	var r mat.Dense
	r.Mul(localframe, transform)
	r.Mul(&r, camera)
	r.Mul(&r, flip)

	rt := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			rt.Set(j, i, r.At(i, j)) // rotation part, transposed
		}
	}
	return rt
}

// ViewAngles rotates a camera-space ray into the local frame and derives the
// viewing zenith and azimuth in degrees. Azimuth is measured from north
// (y negated, axes swapped) and wrapped into [0, 360).
func ViewAngles(ray r3.Vector, rt mat.Matrix) (zenith, azimuth float64) {
	x := rt.At(0, 0)*ray.X + rt.At(0, 1)*ray.Y + rt.At(0, 2)*ray.Z
	y := rt.At(1, 0)*ray.X + rt.At(1, 1)*ray.Y + rt.At(1, 2)*ray.Z
	z := rt.At(2, 0)*ray.X + rt.At(2, 1)*ray.Y + rt.At(2, 2)*ray.Z

	zenith = degrees(math.Atan2(math.Hypot(x, y), z))
	azimuth = degrees(math.Atan2(x, -y))
	if azimuth < 0 {
		azimuth += 360
	}
	return zenith, azimuth
}

// TraceRay returns the chunk-space surface point seen by a pixel: the camera
// centre displaced along the chunk-space ray by the rendered depth, undoing
// the reconstruction's spatial scale.
func TraceRay(center, rayChunk r3.Vector, depth, scale float64) r3.Vector {
	return center.Add(rayChunk.Mul(depth / scale))
}

// RotateRay applies the rotation part of a 4×4 camera-to-chunk transform to
// a camera-space ray.
func RotateRay(transform mat.Matrix, ray r3.Vector) r3.Vector {
	return r3.Vector{
		X: transform.At(0, 0)*ray.X + transform.At(0, 1)*ray.Y + transform.At(0, 2)*ray.Z,
		Y: transform.At(1, 0)*ray.X + transform.At(1, 1)*ray.Y + transform.At(1, 2)*ray.Z,
		Z: transform.At(2, 0)*ray.X + transform.At(2, 1)*ray.Y + transform.At(2, 2)*ray.Z,
	}
}
