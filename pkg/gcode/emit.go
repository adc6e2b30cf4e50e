// Package gcode formats the G-code text the preprocessor injects: velocity
// limit commands, the first layer safe lift and the trailing report, and
// classifies input lines by the patterns the rewrite engine needs.
package gcode

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/mjonuschat/acceleration-control/pkg/feature"
)

// Z-hop defaults, matching the command line defaults.
const (
	DefaultHopHeight   = 2.0
	DefaultTravelSpeed = 10.0
	DefaultLayerHeight = 0.2
)

const reportNameWidth = 35

var validate = validator.New()

// ZHop configures the safe lift before the first travel move.
type ZHop struct {
	// HopHeight is the relative lift in mm
	HopHeight float64 `validate:"gt=0"`
	// TravelSpeed is the Z speed in mm/s
	TravelSpeed float64 `validate:"gt=0"`
	// LayerHeight is the absolute Z in mm to descend to after the travel
	LayerHeight float64 `validate:"gt=0"`
}

// DefaultZHop returns the default safe lift configuration.
func DefaultZHop() ZHop {
	return ZHop{
		HopHeight:   DefaultHopHeight,
		TravelSpeed: DefaultTravelSpeed,
		LayerHeight: DefaultLayerHeight,
	}
}

// Validate checks that every distance and speed is positive.
func (z ZHop) Validate() error {
	return validate.Struct(z)
}

// Feedrate returns TravelSpeed in mm/min. The product is truncated, not the
// speed, so fractional speeds keep their share: 12.5 mm/s gives F750, where
// truncating the speed first would give F720.
func (z ZHop) Feedrate() int {
	return int(z.TravelSpeed * 60)
}

// SetVelocityLimit formats the control command for ft.
func SetVelocityLimit(ft feature.FeatureType, c feature.Control) string {
	return fmt.Sprintf("%s ; %s\n", c, ft)
}

// SafeLift brackets travel with a relative Z rise and an absolute descent
// to the first layer height.
func SafeLift(travel string, z ZHop) []string {
	feed := z.Feedrate()
	return []string{
		"G91 ; safe lift: relative positioning\n",
		fmt.Sprintf("G1 Z%.3f F%d\n", z.HopHeight, feed),
		"G90 ; safe lift: absolute positioning\n",
		travel + "\n",
		fmt.Sprintf("G1 Z%.3f F%d\n", z.LayerHeight, feed),
	}
}

// DumpSettings lists every control in effect, in feature order.
func DumpSettings(s feature.Settings) []string {
	effective := s.Effective()
	out := []string{"\n", "; Parsed acceleration values:\n", "\n"}
	for _, ft := range effective.Features() {
		out = append(out, fmt.Sprintf("; %-*s%s\n", reportNameWidth, ft, formatControl(effective[ft])))
	}
	return append(out, "\n")
}

// DumpStats lists the number of control commands inserted per feature.
func DumpStats(c feature.Counter) []string {
	out := []string{"\n", "; Number of acceleration control insertions:\n", "\n"}
	for _, ft := range c.Features() {
		out = append(out, fmt.Sprintf("; %-*s%d\n", reportNameWidth, ft, c[ft]))
	}
	return append(out, "\n")
}

func formatControl(c feature.Control) string {
	return fmt.Sprintf("ACCEL=%d ACCEL_TO_DECEL=%d SQUARE_CORNER_VELOCITY=%d", c.Accel, c.AccelToDecel, c.SCV)
}
