package feature

import (
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Control is one acceleration/velocity limit triple, in the units Klipper's
// SET_VELOCITY_LIMIT expects.
type Control struct {
	Accel        uint64 `validate:"gt=0"`
	AccelToDecel uint64 `validate:"gt=0"`
	SCV          uint64
}

var (
	// DefaultTravel applies to travel moves without a configured control.
	DefaultTravel = Control{Accel: 4000, AccelToDecel: 2000, SCV: 5}
	// DefaultFirstLayer applies at the first layer change without a configured control.
	DefaultFirstLayer = Control{Accel: 2000, AccelToDecel: 1000, SCV: 5}
)

// Validate checks that accel and accel_to_decel are positive. A zero square
// corner velocity is allowed.
func (c Control) Validate() error {
	return validate.Struct(c)
}

// String renders the control as a Klipper command.
func (c Control) String() string {
	return fmt.Sprintf("SET_VELOCITY_LIMIT ACCEL=%d ACCEL_TO_DECEL=%d SQUARE_CORNER_VELOCITY=%d",
		c.Accel, c.AccelToDecel, c.SCV)
}

// Settings maps feature types to their controls.
type Settings map[FeatureType]Control

// Clone returns a copy of s. A nil receiver yields an empty map.
func (s Settings) Clone() Settings {
	out := make(Settings, len(s))
	for ft, c := range s {
		out[ft] = c
	}
	return out
}

// Merge returns a copy of s with overrides applied on top.
func (s Settings) Merge(overrides Settings) Settings {
	out := s.Clone()
	for ft, c := range overrides {
		out[ft] = c
	}
	return out
}

// Resolve returns the control for ft. Travel and FirstLayer fall back to
// their defaults; other features without an entry report false.
func (s Settings) Resolve(ft FeatureType) (Control, bool) {
	if c, ok := s[ft]; ok {
		return c, true
	}
	switch ft {
	case Travel:
		return DefaultTravel, true
	case FirstLayer:
		return DefaultFirstLayer, true
	}
	return Control{}, false
}

// Effective returns s completed with the Travel and FirstLayer defaults.
func (s Settings) Effective() Settings {
	out := s.Clone()
	for _, ft := range []FeatureType{FirstLayer, Travel} {
		if _, ok := out[ft]; !ok {
			c, _ := s.Resolve(ft)
			out[ft] = c
		}
	}
	return out
}

// Features returns the keys of s in declaration order.
func (s Settings) Features() []FeatureType {
	return sortedKeys(s)
}

// Counter counts control command insertions per feature.
type Counter map[FeatureType]uint64

// Inc increments the count for ft.
func (c Counter) Inc(ft FeatureType) {
	c[ft]++
}

// Get returns the count for ft, zero when absent.
func (c Counter) Get(ft FeatureType) uint64 {
	return c[ft]
}

// Total returns the sum over all features.
func (c Counter) Total() uint64 {
	var n uint64
	for _, v := range c {
		n += v
	}
	return n
}

// Features returns the counted features in declaration order.
func (c Counter) Features() []FeatureType {
	return sortedKeys(c)
}

func sortedKeys[V any](m map[FeatureType]V) []FeatureType {
	keys := make([]FeatureType, 0, len(m))
	for ft := range m {
		keys = append(keys, ft)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
