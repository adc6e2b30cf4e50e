// Package settings resolves the acceleration controls for one file: the
// external settings document merged with the "; ACCEL:" override comments
// found at the head of the file.
package settings

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mjonuschat/acceleration-control/pkg/errors"
	"github.com/mjonuschat/acceleration-control/pkg/feature"
	"github.com/mjonuschat/acceleration-control/pkg/log"
)

// ScanThreshold is the number of non-matching lines after an override
// comment that end the scan.
const ScanThreshold = 3

var reOverride = regexp.MustCompile(`^;\s*ACCEL\s*:\s*` +
	`(?P<accel>\d+)\s*[/\\]\s*` +
	`(?P<accel_to_decel>\d+)\s*[/\\]\s*` +
	`(?P<scv>\d+)\s+` +
	`for\s+(?P<feature>.+)`)

var logger = log.GetLogger("settings")

// Scanner collects override comments from consecutive lines. It keeps
// scanning until the first override is found, then stops after
// ScanThreshold lines without one.
type Scanner struct {
	overrides feature.Settings
	remaining int
	line      int
	err       error
}

// NewScanner returns a scanner positioned before the first line.
func NewScanner() *Scanner {
	return &Scanner{
		overrides: make(feature.Settings),
		remaining: ScanThreshold,
	}
}

// Scan feeds the next line and reports whether scanning should continue.
// It returns false once the threshold is exhausted or a malformed override
// was seen; Err distinguishes the two.
func (s *Scanner) Scan(line string) bool {
	if s.err != nil {
		return false
	}
	s.line++
	line = strings.TrimSpace(line)

	m := reOverride.FindStringSubmatch(line)
	if m == nil {
		if len(s.overrides) == 0 {
			return true
		}
		s.remaining--
		return s.remaining > 0
	}

	s.remaining = ScanThreshold
	ft, c, err := s.parse(m)
	if err != nil {
		s.err = err
		return false
	}
	if _, ok := s.overrides[ft]; ok {
		logger.WithField("line", s.line).Trace("Ignoring repeated override for " + ft.String())
		return true
	}
	logger.WithField("line", s.line).Trace("Found configuration comment: " + line)
	s.overrides[ft] = c
	return true
}

func (s *Scanner) parse(m []string) (feature.FeatureType, feature.Control, error) {
	var c feature.Control
	fields := []struct {
		name string
		dst  *uint64
	}{
		{"accel", &c.Accel},
		{"accel_to_decel", &c.AccelToDecel},
		{"scv", &c.SCV},
	}
	for _, f := range fields {
		raw := m[reOverride.SubexpIndex(f.name)]
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return 0, c, errors.InvalidNumberError(s.line, f.name, raw, err)
		}
		*f.dst = v
	}
	if err := c.Validate(); err != nil {
		raw := m[reOverride.SubexpIndex("accel")] + "/" + m[reOverride.SubexpIndex("accel_to_decel")]
		return 0, c, errors.InvalidNumberError(s.line, "accel/accel_to_decel", raw, err)
	}

	name := strings.TrimSpace(m[reOverride.SubexpIndex("feature")])
	ft, err := feature.ParseName(name)
	if err != nil {
		return 0, c, errors.InvalidFeatureError(s.line, name, err)
	}
	return ft, c, nil
}

// Overrides returns the overrides collected so far.
func (s *Scanner) Overrides() feature.Settings {
	return s.overrides
}

// Lines returns the number of lines consumed.
func (s *Scanner) Lines() int {
	return s.line
}

// Err returns the first malformed override error, if any.
func (s *Scanner) Err() error {
	return s.err
}
