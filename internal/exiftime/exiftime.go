// Package exiftime interprets EXIF capture timestamps for solar geometry.
package exiftime

import (
	"fmt"
	"os"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// layout of EXIF DateTimeOriginal values.
const layout = "2006:01:02 15:04:05"

// Parse converts a "YYYY:MM:DD HH:MM:SS" capture-time string to a
// timezone-aware instant, attaching UTC when utc is true and the host
// machine's local zone otherwise.
func Parse(s string, utc bool) (time.Time, error) {
	loc := time.Local
	if utc {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(layout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("capture time %q: %w", s, err)
	}
	return t, nil
}

// FromFile reads DateTimeOriginal out of an image file's EXIF block, for
// engines that carry no capture-time metadata of their own.
func FromFile(path string, utc bool) (time.Time, error) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return time.Time{}, fmt.Errorf("exif of %s: %w", path, err)
	}
	tag, err := x.Get(exif.DateTimeOriginal)
	if err != nil {
		return time.Time{}, fmt.Errorf("exif of %s: %w", path, err)
	}
	s, err := tag.StringVal()
	if err != nil {
		return time.Time{}, fmt.Errorf("exif of %s: %w", path, err)
	}
	return Parse(s, utc)
}
