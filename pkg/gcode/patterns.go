package gcode

import (
	"regexp"
	"strconv"
	"strings"
)

// Line patterns the rewrite engine classifies by. They are matched against
// trimmed lines.
var (
	reTravel = regexp.MustCompile(`(?i)^G1\s+X[\d.]+\s+Y[\d.]+(?P<feedrate>\s+F[\d.]+)?\s*(;|$)`)
	reZMove  = regexp.MustCompile(`^G1\s+Z[\d.]+(?P<feedrate>\s+F[\d.]+)?\s*(;|$)`)
	reHeight = regexp.MustCompile(`^;\s*HEIGHT\s*:\s*(?P<height>[\d.]+)\s*$`)
)

const (
	// Marlin "set starting acceleration"
	legacyM204 = "M204 S"
	// Klipper velocity limit already present in the slicer output
	legacyVelocityLimit = "SET_VELOCITY_LIMIT"
)

// IsTravel reports whether line is an X/Y move without extrusion.
func IsTravel(line string) bool {
	return reTravel.MatchString(line)
}

// IsZMove reports whether line is a bare Z move.
func IsZMove(line string) bool {
	return reZMove.MatchString(line)
}

// Height parses a "; HEIGHT: <value>" comment. ok is false when line is not
// a height comment; an unparseable value yields DefaultLayerHeight.
func Height(line string) (h float64, ok bool) {
	m := reHeight.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	h, err := strconv.ParseFloat(m[reHeight.SubexpIndex("height")], 64)
	if err != nil {
		return DefaultLayerHeight, true
	}
	return h, true
}

// LegacyDirective reports whether line is a control directive the engine
// drops, and names it.
func LegacyDirective(line string) (string, bool) {
	switch {
	case strings.HasPrefix(line, legacyM204):
		return "Marlin Set Starting Acceleration", true
	case strings.HasPrefix(line, legacyVelocityLimit):
		return "Klipper SET_VELOCITY_LIMIT", true
	}
	return "", false
}
