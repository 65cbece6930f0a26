// Command bandaid-check validates a pipeline options file and answers quick
// solar geometry questions for a survey site, without touching a project.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.viam.com/rdk/logging"
	"gopkg.in/yaml.v2"

	"github.com/fieldvision/bandaid"
	"github.com/fieldvision/bandaid/internal/exiftime"
	"github.com/fieldvision/bandaid/radiometry"
)

func main() {
	optionsPath := flag.String("options", "", "path to a pipeline options YAML file to validate")
	lon := flag.Float64("lon", 0, "site longitude in degrees (with -capture)")
	lat := flag.Float64("lat", 0, "site latitude in degrees (with -capture)")
	capture := flag.String("capture", "", "capture time as YYYY:MM:DD HH:MM:SS for a sun angle check")
	local := flag.Bool("local", false, "interpret -capture in the host timezone instead of UTC")
	flag.Parse()

	logger := logging.NewLogger("bandaid-check")

	if *optionsPath == "" && *capture == "" {
		logger.Fatal("nothing to do; pass -options and/or -capture")
	}

	if *optionsPath != "" {
		opts, err := bandaid.LoadOptions(*optionsPath)
		if err != nil {
			logger.Fatal(err)
		}
		out, err := yaml.Marshal(opts)
		if err != nil {
			logger.Fatal(err)
		}
		logger.Infof("%s is valid; effective options:", *optionsPath)
		fmt.Fprint(os.Stdout, string(out))
	}

	if *capture != "" {
		at, err := exiftime.Parse(*capture, !*local)
		if err != nil {
			logger.Fatal(err)
		}
		zenith, azimuth := radiometry.SunAngles(radiometry.GeoPoint{Lon: *lon, Lat: *lat}, at)
		fmt.Printf("sun zenith %.2f° azimuth %.2f° at (%.4f, %.4f) on %s\n",
			zenith, azimuth, *lon, *lat, at.Format("2006-01-02 15:04:05 MST"))
		if zenith > 90 {
			logger.Warn("Sun below the horizon; imagery from this instant is not correctable")
		}
	}
}
