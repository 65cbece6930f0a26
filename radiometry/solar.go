package radiometry

import (
	"math"
	"time"
)

func radians(deg float64) float64 { return deg * math.Pi / 180 }
func degrees(rad float64) float64 { return rad * 180 / math.Pi }

// SunAngles computes the solar zenith and azimuth for a geodetic position at
// a timezone-aware instant. Zenith is 90 − altitude. Azimuth follows the
// north-zero convention via 180 − south-referenced azimuth; magnitudes at or
// beyond 360 are reduced by a single 360 subtraction only. Known limitation:
// the result is not fully normalized into [0, 360).
func SunAngles(p GeoPoint, t time.Time) (zenith, azimuth float64) {
	altitude, southAz := solarPosition(p, t)
	zenith = 90 - altitude
	azimuth = 180 - southAz
	if math.Abs(azimuth) >= 360 {
		azimuth -= 360
	}
	return zenith, azimuth
}

// solarPosition returns the sun's altitude above the horizon and its
// south-referenced azimuth (0 = due south, positive toward east), both in
// degrees, using the standard low-precision ephemeris formulae (Meeus).
func solarPosition(p GeoPoint, t time.Time) (altitude, southAzimuth float64) {
	utc := t.UTC()

	// Julian centuries since J2000.0.
	jd := julianDay(utc)
	T := (jd - 2451545.0) / 36525.0

	// Geometric mean longitude and mean anomaly of the sun.
	l0 := math.Mod(280.46646+T*(36000.76983+T*0.0003032), 360)
	m := 357.52911 + T*(35999.05029-T*0.0001537)

	// Equation of center and apparent longitude.
	c := math.Sin(radians(m))*(1.914602-T*(0.004817+0.000014*T)) +
		math.Sin(radians(2*m))*(0.019993-0.000101*T) +
		math.Sin(radians(3*m))*0.000289
	trueLong := l0 + c
	omega := 125.04 - 1934.136*T
	lambda := trueLong - 0.00569 - 0.00478*math.Sin(radians(omega))

	// Obliquity of the ecliptic, corrected for nutation.
	eps0 := 23.0 + (26.0+(21.448-T*(46.8150+T*(0.00059-T*0.001813)))/60.0)/60.0
	eps := eps0 + 0.00256*math.Cos(radians(omega))

	// Solar declination.
	decl := math.Asin(math.Sin(radians(eps)) * math.Sin(radians(lambda)))

	// Equation of time, in minutes.
	e := 0.016708634 - T*(0.000042037+T*0.0000001267)
	y := math.Tan(radians(eps)/2) * math.Tan(radians(eps)/2)
	eqTime := 4 * degrees(y*math.Sin(2*radians(l0))-
		2*e*math.Sin(radians(m))+
		4*e*y*math.Sin(radians(m))*math.Cos(2*radians(l0))-
		0.5*y*y*math.Sin(4*radians(l0))-
		1.25*e*e*math.Sin(2*radians(m)))

	// True solar time and hour angle (degrees, afternoon positive).
	minutes := float64(utc.Hour())*60 + float64(utc.Minute()) +
		float64(utc.Second())/60 + float64(utc.Nanosecond())/6e10
	tst := math.Mod(minutes+eqTime+4*p.Lon+1440, 1440)
	hourAngle := tst/4 - 180

	lat := radians(p.Lat)
	ha := radians(hourAngle)

	cosZenith := math.Sin(lat)*math.Sin(decl) + math.Cos(lat)*math.Cos(decl)*math.Cos(ha)
	cosZenith = clamp(cosZenith, -1, 1)
	zen := math.Acos(cosZenith)
	altitude = 90 - degrees(zen)

	// Azimuth from north, then re-referenced to south for the caller.
	var azNorth float64
	sinZen := math.Sin(zen)
	if math.Abs(sinZen) > 1e-9 {
		cosAz := (math.Sin(decl) - cosZenith*math.Sin(lat)) / (sinZen * math.Cos(lat))
		azNorth = degrees(math.Acos(clamp(cosAz, -1, 1)))
		if hourAngle > 0 {
			azNorth = 360 - azNorth
		}
	}
	southAzimuth = 180 - azNorth
	return altitude, southAzimuth
}

// julianDay converts a UTC instant to a fractional Julian day number.
func julianDay(t time.Time) float64 {
	y := t.Year()
	m := int(t.Month())
	if m <= 2 {
		y--
		m += 12
	}
	a := y / 100
	b := 2 - a + a/4
	day := float64(t.Day()) +
		(float64(t.Hour())+float64(t.Minute())/60+float64(t.Second())/3600)/24
	return math.Floor(365.25*float64(y+4716)) +
		math.Floor(30.6001*float64(m+1)) +
		day + float64(b) - 1524.5
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
