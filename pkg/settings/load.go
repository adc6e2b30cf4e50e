package settings

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/mjonuschat/acceleration-control/pkg/config"
	"github.com/mjonuschat/acceleration-control/pkg/errors"
	"github.com/mjonuschat/acceleration-control/pkg/feature"
	"github.com/mjonuschat/acceleration-control/pkg/gcode"
)

const (
	sectionPrefix = "accel "
	safeLiftKey   = "safe_lift"
)

// Profile is an external settings document: per-feature controls and the
// safe lift parameters.
type Profile struct {
	Controls feature.Settings
	SafeLift gcode.ZHop
}

// entry is one table of a TOML or YAML document. Feature tables set the
// control fields, the safe_lift table sets the lift fields.
type entry struct {
	Accel        *uint64 `toml:"accel" yaml:"accel"`
	AccelToDecel *uint64 `toml:"accel_to_decel" yaml:"accel_to_decel"`
	SCV          *uint64 `toml:"scv" yaml:"scv"`

	HopHeight        *float64 `toml:"hop_height" yaml:"hop_height"`
	TravelSpeed      *float64 `toml:"travel_speed" yaml:"travel_speed"`
	FirstLayerHeight *float64 `toml:"first_layer_height" yaml:"first_layer_height"`
}

func (e entry) isControl() bool {
	return e.Accel != nil || e.AccelToDecel != nil || e.SCV != nil
}

func (e entry) isSafeLift() bool {
	return e.HopHeight != nil || e.TravelSpeed != nil || e.FirstLayerHeight != nil
}

// Load reads an external settings document. The format follows the file
// extension:
//
//	.toml               [external_perimeter] accel = 1500 ...
//	.yaml, .yml         external_perimeter: {accel: 1500, ...}
//	.cfg, .conf, .ini   [accel external perimeter] accel: 1500 ...
//
// An optional safe_lift table ([safe_lift] in .cfg files) takes hop_height,
// travel_speed and first_layer_height. Lift values it leaves out keep the
// value from defaults.
//
// Every control must have a positive accel and accel_to_decel, the same rule
// "; ACCEL:" overrides follow.
func Load(path string, defaults gcode.ZHop) (*Profile, error) {
	p := &Profile{
		Controls: make(feature.Settings),
		SafeLift: defaults,
	}

	var err error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = decodeFile(path, p, decodeTOML)
	case ".yaml", ".yml":
		err = decodeFile(path, p, decodeYAML)
	case ".cfg", ".conf", ".ini":
		var cfg *config.Config
		if cfg, err = config.Load(path); err == nil {
			err = fromConfig(cfg, p)
		}
	default:
		return nil, errors.ConfigError(path, fmt.Sprintf("unsupported settings format %q", ext), nil)
	}
	if err != nil {
		return nil, errors.ConfigError(path, "invalid settings", err)
	}

	for _, ft := range p.Controls.Features() {
		if err := p.Controls[ft].Validate(); err != nil {
			return nil, errors.ConfigError(path, "invalid control for "+ft.String(), err)
		}
	}
	if err := p.SafeLift.Validate(); err != nil {
		return nil, errors.ConfigError(path, "invalid safe lift", err)
	}
	logger.WithField("path", path).Debug(fmt.Sprintf("Loaded %d feature controls", len(p.Controls)))
	return p, nil
}

func decodeFile(path string, p *Profile, decode func([]byte) (map[string]entry, error)) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	doc, err := decode(data)
	if err != nil {
		return err
	}
	return fromEntries(doc, p)
}

func decodeTOML(data []byte) (map[string]entry, error) {
	var doc map[string]entry
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func decodeYAML(data []byte) (map[string]entry, error) {
	var doc map[string]entry
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !stderrors.Is(err, io.EOF) {
		return nil, err
	}
	return doc, nil
}

func fromEntries(doc map[string]entry, p *Profile) error {
	for key, e := range doc {
		if key == safeLiftKey {
			if e.isControl() {
				return fmt.Errorf("%s: accel options belong in a feature table", key)
			}
			setFloat(&p.SafeLift.HopHeight, e.HopHeight)
			setFloat(&p.SafeLift.TravelSpeed, e.TravelSpeed)
			setFloat(&p.SafeLift.LayerHeight, e.FirstLayerHeight)
			continue
		}

		if e.isSafeLift() {
			return fmt.Errorf("%s: lift options belong in the %s table", key, safeLiftKey)
		}
		ft, err := feature.ParseKey(key)
		if err != nil {
			return err
		}
		if _, dup := p.Controls[ft]; dup {
			return fmt.Errorf("feature %s configured twice", ft)
		}
		if e.Accel == nil || e.AccelToDecel == nil {
			return fmt.Errorf("%s: accel and accel_to_decel are required", key)
		}
		c := feature.Control{Accel: *e.Accel, AccelToDecel: *e.AccelToDecel}
		if e.SCV != nil {
			c.SCV = *e.SCV
		}
		p.Controls[ft] = c
	}
	return nil
}

func setFloat(dst, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func fromConfig(cfg *config.Config, p *Profile) error {
	for _, sec := range cfg.GetPrefixSections(sectionPrefix) {
		key := strings.TrimPrefix(sec.GetName(), sectionPrefix)
		ft, err := feature.ParseKey(key)
		if err != nil {
			return fmt.Errorf("section [%s]: %w", sec.GetName(), err)
		}
		if _, dup := p.Controls[ft]; dup {
			return fmt.Errorf("section [%s]: feature %s configured twice", sec.GetName(), ft)
		}

		var c feature.Control
		if c.Accel, err = sec.GetUintWithMin("accel", 1); err != nil {
			return err
		}
		if c.AccelToDecel, err = sec.GetUintWithMin("accel_to_decel", 1); err != nil {
			return err
		}
		if c.SCV, err = sec.GetUint("square_corner_velocity", 0); err != nil {
			return err
		}
		p.Controls[ft] = c
	}

	if cfg.HasSection(safeLiftKey) {
		sec, err := cfg.GetSection(safeLiftKey)
		if err != nil {
			return err
		}
		z := &p.SafeLift
		if z.HopHeight, err = sec.GetFloatAbove("hop_height", 0, z.HopHeight); err != nil {
			return err
		}
		if z.TravelSpeed, err = sec.GetFloatAbove("travel_speed", 0, z.TravelSpeed); err != nil {
			return err
		}
		if z.LayerHeight, err = sec.GetFloatAbove("first_layer_height", 0, z.LayerHeight); err != nil {
			return err
		}
		logger.WithField("path", cfg.Name()).Debug("Read [" + safeLiftKey + "] section")
	}

	return cfg.CheckUnused()
}
