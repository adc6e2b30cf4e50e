// Package preprocess runs the rewrite over whole files: it identifies the
// producer and the override comments in a first pass, then rewinds and
// streams the rewritten content to the destination.
package preprocess

import (
	"bufio"
	stderrors "errors"
	"io"

	"github.com/mjonuschat/acceleration-control/pkg/dialect"
	"github.com/mjonuschat/acceleration-control/pkg/errors"
	"github.com/mjonuschat/acceleration-control/pkg/feature"
	"github.com/mjonuschat/acceleration-control/pkg/gcode"
	"github.com/mjonuschat/acceleration-control/pkg/log"
	"github.com/mjonuschat/acceleration-control/pkg/rewrite"
	"github.com/mjonuschat/acceleration-control/pkg/settings"
)

var logger = log.GetLogger("preprocess")

// Result describes one completed rewrite.
type Result struct {
	Dialect  dialect.Dialect
	Settings feature.Settings
	Stats    feature.Counter
	Layers   int
	Bytes    int64
}

// Process rewrites in to out. external may be nil. Nothing is written to out
// when the producer cannot be identified or an override comment is
// malformed.
func Process(in io.ReadSeeker, out io.Writer, external feature.Settings, z gcode.ZHop) (*Result, error) {
	d, overrides, err := prescan(in)
	if err != nil {
		return nil, err
	}

	if _, err := in.Seek(0, io.SeekStart); err != nil {
		return nil, errors.IOError("rewind", err)
	}

	resolved := settings.Resolve(external, overrides)
	logger.WithFields(log.Fields{
		"producer":  d.String(),
		"overrides": len(overrides),
		"features":  len(resolved),
	}).Debug("Resolved acceleration settings")

	s := rewrite.New(in, d, resolved, z)
	n, err := s.WriteTo(out)
	if err != nil {
		return nil, err
	}
	return &Result{
		Dialect:  d,
		Settings: resolved,
		Stats:    s.Stats(),
		Layers:   s.Layers(),
		Bytes:    n,
	}, nil
}

// prescan reads from the top until the override scan ends, detecting the
// producer on the way.
func prescan(in io.Reader) (dialect.Dialect, feature.Settings, error) {
	var (
		d     dialect.Dialect
		found bool
	)
	r := bufio.NewReader(in)
	sc := settings.NewScanner()
	for {
		line, err := r.ReadString('\n')
		if err != nil && !stderrors.Is(err, io.EOF) {
			return d, nil, errors.IOError("read", err)
		}
		if line != "" {
			if !found {
				d, found = dialect.Detect(line)
			}
			if !sc.Scan(line) {
				break
			}
		}
		if err != nil {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return d, nil, err
	}
	if !found {
		logger.Error("Could not identify slicer")
		return d, nil, errors.UnknownSlicerError()
	}
	if n := len(sc.Overrides()); n > 0 {
		logger.Debug("Found %d override comments in the first %d lines", n, sc.Lines())
	}
	return d, sc.Overrides(), nil
}
