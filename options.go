package bandaid

import (
	"fmt"
	"os"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v2"

	"github.com/fieldvision/bandaid/radiometry"
)

/* Example options file ...

utc: true
pixelwise: false
maxpasses: 100
radiometry:
  prune:
    eps: 5000
    minpts: 5

*/

// Options is the immutable configuration of one pipeline run. It is set up
// front and threaded through every component; nothing reads shared mutable
// state.
type Options struct {
	// UTC interprets capture timestamps as UTC; otherwise the host
	// machine's local timezone offset is attached.
	UTC bool

	// Pixelwise recomputes solar geometry independently for every pixel.
	// Off, the camera-centre solar angles are reused across the image,
	// which is much cheaper and near-identical in practice.
	Pixelwise bool

	// MaxPasses caps the iterations of each quality-reduction phase as a
	// guard against non-convergent inputs.
	MaxPasses int

	// Radiometry holds the correction core's tunables.
	Radiometry radiometry.Config
}

// DefaultOptions returns the reference workflow's settings.
func DefaultOptions() Options {
	return Options{
		UTC:        true,
		Pixelwise:  false,
		MaxPasses:  100,
		Radiometry: radiometry.DefaultConfig(),
	}
}

// LoadOptions reads options from a YAML file, starting from the defaults.
func LoadOptions(filename string) (Options, error) {
	o := DefaultOptions()
	contents, err := os.ReadFile(filename)
	if err != nil {
		return o, fmt.Errorf("read %s: %w", filename, err)
	}
	if err := yaml.Unmarshal(contents, &o); err != nil {
		return o, fmt.Errorf("parse %s: %w", filename, err)
	}
	return o, o.validate()
}

// ApplyOverrides decodes a generic key/value map over the options, for
// callers embedding the pipeline behind scripted frontends.
func (o *Options) ApplyOverrides(overrides map[string]interface{}) error {
	if err := mapstructure.Decode(overrides, o); err != nil {
		return fmt.Errorf("apply overrides: %w", err)
	}
	return o.validate()
}

func (o *Options) validate() error {
	if o.MaxPasses <= 0 {
		return fmt.Errorf("maxPasses must be positive, got %d", o.MaxPasses)
	}
	if o.Radiometry.Prune.Eps <= 0 {
		return fmt.Errorf("prune eps must be positive, got %g", o.Radiometry.Prune.Eps)
	}
	if o.Radiometry.Fit.MinObservations < 3 {
		return fmt.Errorf("minObservations must be at least 3, got %d", o.Radiometry.Fit.MinObservations)
	}
	return nil
}

// radiometryConfig projects the run options into the correction core's
// configuration, keeping the solar flags in one place.
func (o Options) radiometryConfig() radiometry.Config {
	cfg := o.Radiometry
	cfg.Solar.UTC = o.UTC
	cfg.Solar.Pixelwise = o.Pixelwise
	return cfg
}
