package settings

import "github.com/mjonuschat/acceleration-control/pkg/feature"

// Resolve merges the override comments over the external settings. Both may
// be nil; overrides win on collision. The inputs are not modified.
func Resolve(external, overrides feature.Settings) feature.Settings {
	return external.Merge(overrides)
}
