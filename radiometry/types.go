package radiometry

// BandID identifies one camera band plane within a chunk. IDs are assigned
// by the caller and only need to be unique and stable for one correction run.
type BandID int

// PixelCoord is a sub-pixel image coordinate (u = column, v = row).
type PixelCoord struct {
	U float64
	V float64
}

// TrackPoint is one entry of the chunk's tie-point table, ordered ascending
// by TrackID.
type TrackPoint struct {
	TrackID int
	Valid   bool
}

// Projection is one tie-point observation in a band image, ordered ascending
// by TrackID within its list.
type Projection struct {
	TrackID int
	Coord   PixelCoord
}

// BandProjections pairs a band plane with its track-sorted projection list.
type BandProjections struct {
	Band        BandID
	Projections []Projection
}

// GeoPoint is a geodetic position in degrees.
type GeoPoint struct {
	Lon float64
	Lat float64
}

// LocalSample is the outcome of fitting one tie point's cross-camera
// observations: the point's own predictors in the reference band plus the
// fitted local model coefficients.
type LocalSample struct {
	Coord     PixelCoord
	Intensity float64
	X1        float64 // view_zenith²
	X2        float64 // view_zenith · cos(view_azimuth − sun_azimuth)
	Slope1    float64
	Slope2    float64
	Intercept float64
	Label     int
}

// GlobalModel is a per-feature no-intercept linear model mapping
// (intensity, x1, x2) to the zenith-normalized intensity.
type GlobalModel struct {
	Coef [3]float64
}

// Predict evaluates the model on one sample.
func (m GlobalModel) Predict(intensity, x1, x2 float64) float64 {
	return m.Coef[0]*intensity + m.Coef[1]*x1 + m.Coef[2]*x2
}
