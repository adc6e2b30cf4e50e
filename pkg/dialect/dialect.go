// Package dialect identifies the slicer that produced a G-code file and
// knows the comment markers it uses to tag toolpath features.
package dialect

import (
	"github.com/mjonuschat/acceleration-control/pkg/feature"
)

// Kind selects the rewrite variant.
type Kind int

const (
	// Slic3r covers PrusaSlicer, SuperSlicer and Slic3r. These files get the
	// first layer safe lift.
	Slic3r Kind = iota
	// Orca covers OrcaSlicer.
	Orca
)

func (k Kind) String() string {
	switch k {
	case Slic3r:
		return "slic3r"
	case Orca:
		return "orca"
	default:
		return "unknown"
	}
}

const layerChangeMarker = ";LAYER_CHANGE"

// Dialect is the detected producer of a file.
type Dialect struct {
	// Producer is the slicer name from the header, e.g. "PrusaSlicer"
	Producer string
	// Version is the token following the producer name, if any
	Version string
	Kind    Kind

	markers *MarkerTable
}

// Marker returns the marker text this dialect uses for ft.
func (d Dialect) Marker(ft feature.FeatureType) (string, bool) {
	if d.markers == nil {
		return "", false
	}
	return d.markers.Marker(ft)
}

// Match returns the feature whose marker equals the trimmed line.
func (d Dialect) Match(line string) (feature.FeatureType, bool) {
	if d.markers == nil {
		return 0, false
	}
	return d.markers.Lookup(line)
}

// LayerChange returns the prefix of layer change comments.
func (d Dialect) LayerChange() string {
	return layerChangeMarker
}

// SafeLift reports whether the first travel move of the first layer is
// bracketed with a Z hop.
func (d Dialect) SafeLift() bool {
	return d.Kind == Slic3r
}

func (d Dialect) String() string {
	if d.Version == "" {
		return d.Producer
	}
	return d.Producer + " " + d.Version
}
