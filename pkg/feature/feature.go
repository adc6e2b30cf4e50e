// Package feature defines the toolpath feature taxonomy shared by every
// slicer dialect, and the acceleration control values attached to each
// feature.
package feature

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

//go:generate go tool stringer -type=FeatureType -linecomment -output=featuretype_string.go

// FeatureType is a category of toolpath segment.
type FeatureType int

const (
	FirstLayer               FeatureType = iota // TYPE:First Layer
	Travel                                      // TYPE:Travel
	ExternalPerimeter                           // TYPE:External perimeter
	OverhangPerimeter                           // TYPE:Overhang perimeter
	InternalPerimeter                           // TYPE:Internal perimeter
	TopSolidInfill                              // TYPE:Top solid infill
	SolidInfill                                 // TYPE:Solid infill
	InternalInfill                              // TYPE:Internal infill
	BridgeInfill                                // TYPE:Bridge infill
	InternalBridgeInfill                        // TYPE:Internal bridge infill
	ThinWall                                    // TYPE:Thin wall
	GapFill                                     // TYPE:Gap fill
	Skirt                                       // TYPE:Skirt
	SupportMaterial                             // TYPE:Support material
	SupportMaterialInterface                    // TYPE:Support material interface
	Custom                                      // TYPE:Custom

	// Count is the number of feature types.
	Count = int(iota)
)

const displayPrefix = "TYPE:"

// ErrUnknownFeature is returned when a name does not denote any feature type.
var ErrUnknownFeature = errors.New("unknown feature type")

var (
	// folded display names, with and without the TYPE: prefix
	byName = func() map[string]FeatureType {
		m := make(map[string]FeatureType, 2*Count)
		for _, ft := range All() {
			m[fold(ft.String())] = ft
			m[fold(ft.DisplayName())] = ft
		}
		return m
	}()

	// display names reduced to letters only, which also covers the Go
	// identifiers and snake/kebab case spellings
	byKey = func() map[string]FeatureType {
		m := make(map[string]FeatureType, Count)
		for _, ft := range All() {
			m[squash(ft.DisplayName())] = ft
		}
		return m
	}()
)

// All returns every feature type in declaration order.
func All() []FeatureType {
	out := make([]FeatureType, Count)
	for i := range out {
		out[i] = FeatureType(i)
	}
	return out
}

// Valid reports whether ft is a member of the taxonomy.
func (ft FeatureType) Valid() bool {
	return ft >= 0 && int(ft) < Count
}

// DisplayName returns the human readable name, e.g. "External perimeter".
func (ft FeatureType) DisplayName() string {
	return strings.TrimPrefix(ft.String(), displayPrefix)
}

// ParseName looks up a feature by display name. Matching is case-insensitive
// and accepts an optional "TYPE:" prefix.
func ParseName(s string) (FeatureType, error) {
	if ft, ok := byName[fold(strings.TrimSpace(s))]; ok {
		return ft, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFeature, s)
}

// ParseKey looks up a feature by a configuration key. In addition to the
// display names it accepts "ExternalPerimeter", "external_perimeter" and
// "external-perimeter".
func ParseKey(s string) (FeatureType, error) {
	if ft, err := ParseName(s); err == nil {
		return ft, nil
	}
	key := strings.TrimSpace(s)
	if len(key) >= len(displayPrefix) && strings.EqualFold(key[:len(displayPrefix)], displayPrefix) {
		key = key[len(displayPrefix):]
	}
	if ft, ok := byKey[squash(key)]; ok {
		return ft, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFeature, s)
}

func fold(s string) string {
	return cases.Fold().String(s)
}

func squash(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-', '\t':
			return -1
		}
		return r
	}, fold(s))
}

// Category is the kind of control command emitted last.
type Category int

const (
	CategoryNone Category = iota
	CategoryPrint
	CategoryTravel
)

func (c Category) String() string {
	switch c {
	case CategoryPrint:
		return "print"
	case CategoryTravel:
		return "travel"
	default:
		return "none"
	}
}
