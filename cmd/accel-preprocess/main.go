// accel-preprocess rewrites slicer G-code in place, inserting a Klipper
// SET_VELOCITY_LIMIT command wherever the toolpath feature changes.
//
// Usage:
//
//	accel-preprocess [options] file.gcode...
//
// Options:
//
//	-config string              Acceleration settings (.toml, .yaml or Klipper style .cfg)
//	-z, -z-hop-height float     Safe lift height in mm (default 2)
//	-s, -z-travel-speed float   Safe lift Z speed in mm/s (default 10)
//	-H, -first-layer-height float
//	                            First layer height in mm (default 0.2)
//	-v                          More verbose logging, repeatable
//	-stats                      Print the insertions per file
//
// The safe lift can also be set in the settings file, under safe_lift
// (hop_height, travel_speed, first_layer_height). Flags given on the command
// line take precedence.
//
// Values can also be embedded at the top of the G-code file, e.g. from the
// slicer's start G-code. They take precedence over -config:
//
//	; ACCEL: 1500/750/5 for External perimeter
//
// Examples:
//
//	# PrusaSlicer post-processing script
//	accel-preprocess -config ~/accel.toml
//
//	# Lift 1mm before the first travel move
//	accel-preprocess -z 1 -stats benchy.gcode
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/pterm/pterm"

	"github.com/mjonuschat/acceleration-control/pkg/feature"
	"github.com/mjonuschat/acceleration-control/pkg/gcode"
	"github.com/mjonuschat/acceleration-control/pkg/log"
	"github.com/mjonuschat/acceleration-control/pkg/preprocess"
	"github.com/mjonuschat/acceleration-control/pkg/settings"
)

const (
	exitFailure = 1
	exitUsage   = 2
)

// verbosity counts repeated -v flags.
type verbosity int

func (v *verbosity) String() string {
	return strconv.Itoa(int(*v))
}

func (v *verbosity) Set(s string) error {
	if b, err := strconv.ParseBool(s); err == nil {
		if b {
			*v++
		}
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fmt.Errorf("invalid verbosity %q", s)
	}
	*v = verbosity(n)
	return nil
}

func (v *verbosity) IsBoolFlag() bool { return true }

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("accel-preprocess", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: accel-preprocess [options] file.gcode...\n\nOptions:\n")
		fs.PrintDefaults()
	}

	flagZ := gcode.DefaultZHop()
	var verbose verbosity
	configFile := fs.String("config", "", "Acceleration settings file (.toml, .yaml, .yml, .cfg)")
	fs.Float64Var(&flagZ.HopHeight, "z", flagZ.HopHeight, "Safe lift height in mm")
	fs.Float64Var(&flagZ.HopHeight, "z-hop-height", flagZ.HopHeight, "Safe lift height in mm")
	fs.Float64Var(&flagZ.TravelSpeed, "s", flagZ.TravelSpeed, "Safe lift Z speed in mm/s")
	fs.Float64Var(&flagZ.TravelSpeed, "z-travel-speed", flagZ.TravelSpeed, "Safe lift Z speed in mm/s")
	fs.Float64Var(&flagZ.LayerHeight, "H", flagZ.LayerHeight, "First layer height in mm")
	fs.Float64Var(&flagZ.LayerHeight, "first-layer-height", flagZ.LayerHeight, "First layer height in mm")
	fs.Var(&verbose, "v", "More verbose logging (repeatable)")
	showStats := fs.Bool("stats", false, "Print the control insertions per file")

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return exitUsage
	}
	if os.Getenv("NO_COLOR") != "" {
		pterm.DisableColor()
	}

	logger := log.GetLogger("main")
	if verbose > 0 {
		logger.SetLevel(log.LevelFromVerbosity(int(verbose)))
	}

	files := fs.Args()
	if len(files) == 0 {
		pterm.Error.Println("no G-code files given")
		fs.Usage()
		return exitUsage
	}

	var external feature.Settings
	z := gcode.DefaultZHop()
	if *configFile != "" {
		p, err := settings.Load(*configFile, z)
		if err != nil {
			pterm.Error.Println(err)
			return exitFailure
		}
		external, z = p.Controls, p.SafeLift
		logger.Info("Loaded %d feature controls from %s", len(external), *configFile)
	}
	overrideZHop(fs, &z, flagZ)
	if err := z.Validate(); err != nil {
		pterm.Error.Printfln("invalid safe lift settings: %v", err)
		return exitUsage
	}

	var results []fileResult
	err := preprocess.Files(files, external, z, func(path string, res *preprocess.Result, err error) {
		if err != nil {
			pterm.Error.Println(err)
			return
		}
		pterm.Success.Printfln("%s: %s, %d layers, %d control commands",
			path, res.Dialect, res.Layers, res.Stats.Total())
		results = append(results, fileResult{path, res})
	})

	if *showStats && len(results) > 0 {
		if err := renderStats(results); err != nil {
			logger.Warn("Could not render statistics: %v", err)
		}
	}
	if err != nil {
		return exitFailure
	}
	return 0
}

// overrideZHop copies the safe lift flags given on the command line over z.
// Flags left at their default keep the value from the settings file.
func overrideZHop(fs *flag.FlagSet, z *gcode.ZHop, flags gcode.ZHop) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "z", "z-hop-height":
			z.HopHeight = flags.HopHeight
		case "s", "z-travel-speed":
			z.TravelSpeed = flags.TravelSpeed
		case "H", "first-layer-height":
			z.LayerHeight = flags.LayerHeight
		}
	})
}
