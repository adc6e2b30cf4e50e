// Package rewrite implements the per-line rewrite of a G-code file: it
// injects a velocity limit command wherever the toolpath feature changes,
// drops conflicting directives and appends a report.
//
// A Stream is consumed like a bufio.Scanner:
//
//	s := rewrite.New(r, d, settings, zhop)
//	for s.Next() {
//		io.WriteString(w, s.Chunk())
//	}
//	if err := s.Err(); err != nil {
//		...
//	}
package rewrite

import (
	"bufio"
	stderrors "errors"
	"io"
	"iter"
	"strings"

	"github.com/mjonuschat/acceleration-control/pkg/dialect"
	"github.com/mjonuschat/acceleration-control/pkg/errors"
	"github.com/mjonuschat/acceleration-control/pkg/feature"
	"github.com/mjonuschat/acceleration-control/pkg/gcode"
	"github.com/mjonuschat/acceleration-control/pkg/log"
)

var logger = log.GetLogger("rewrite")

// Stream produces the rewritten file one chunk at a time. Every chunk ends
// with a newline. A Stream is single use and not safe for concurrent use.
type Stream struct {
	r        *bufio.Reader
	dialect  dialect.Dialect
	settings feature.Settings
	zhop     gcode.ZHop

	pending []string
	chunk   string
	err     error
	eof     bool
	done    bool
	lineNum int

	// run state
	layer     int
	last      feature.Category
	active    feature.FeatureType
	hasActive bool
	lifted    bool
	counter   feature.Counter
}

// New returns a stream reading G-code from r. settings is read but never
// modified.
func New(r io.Reader, d dialect.Dialect, settings feature.Settings, z gcode.ZHop) *Stream {
	return &Stream{
		r:        bufio.NewReader(r),
		dialect:  d,
		settings: settings,
		zhop:     z,
		counter:  make(feature.Counter),
	}
}

// Next advances to the next chunk. It returns false at the end of the
// output or on a read error.
func (s *Stream) Next() bool {
	for len(s.pending) == 0 {
		if s.done || s.err != nil {
			s.chunk = ""
			return false
		}
		if s.eof {
			s.finish()
			continue
		}
		line, err := s.r.ReadString('\n')
		if err != nil {
			if !stderrors.Is(err, io.EOF) {
				s.err = errors.IOError("read", err).SetLine(s.lineNum + 1)
				s.chunk = ""
				return false
			}
			s.eof = true
			if line == "" {
				continue
			}
		}
		s.lineNum++
		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")
		s.classify(line)
	}
	s.chunk = s.pending[0]
	s.pending = s.pending[1:]
	return true
}

// Chunk returns the chunk produced by the last call to Next.
func (s *Stream) Chunk() string {
	return s.chunk
}

// Err returns the first read error.
func (s *Stream) Err() error {
	return s.err
}

// All returns an iterator over the remaining chunks. Check Err afterwards.
func (s *Stream) All() iter.Seq[string] {
	return func(yield func(string) bool) {
		for s.Next() {
			if !yield(s.Chunk()) {
				return
			}
		}
	}
}

// WriteTo writes the remaining chunks to w.
func (s *Stream) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for s.Next() {
		n, err := io.WriteString(w, s.Chunk())
		total += int64(n)
		if err != nil {
			return total, errors.IOError("write", err)
		}
	}
	return total, s.err
}

// Stats returns the number of control commands emitted per feature so far.
func (s *Stream) Stats() feature.Counter {
	return s.counter
}

// Layers returns the number of layer changes seen so far.
func (s *Stream) Layers() int {
	return s.layer
}

func (s *Stream) classify(raw string) {
	line := strings.TrimSpace(raw)

	if strings.HasPrefix(line, s.dialect.LayerChange()) {
		s.layer++
		s.emit(raw)
		if s.layer == 1 {
			c, _ := s.settings.Resolve(feature.FirstLayer)
			s.control(feature.FirstLayer, c)
		}
		return
	}

	if name, ok := gcode.LegacyDirective(line); ok {
		s.trace("Skipping "+name+" command", raw)
		return
	}

	if s.dialect.SafeLift() && s.layer == 1 && !s.lifted {
		switch {
		case gcode.IsTravel(line):
			logger.WithField("line", s.lineNum).Debug("Injecting safe Z move")
			s.emit(gcode.SafeLift(raw, s.zhop)...)
			s.lifted = true
			return
		case gcode.IsZMove(line):
			s.trace("Skipping initial Z move", raw)
			return
		}
		if h, ok := gcode.Height(line); ok {
			s.zhop.LayerHeight = h
			s.trace("Found initial layer height", raw)
		}
	}

	if s.layer >= 1 {
		if ft, ok := s.dialect.Match(line); ok {
			s.active, s.hasActive = ft, true
			s.emit(raw)
			if c, ok := s.settings.Resolve(ft); ok {
				s.control(ft, c)
				s.last = feature.CategoryPrint
			}
			return
		}
	}

	if gcode.IsTravel(line) {
		if s.last != feature.CategoryTravel {
			c, _ := s.settings.Resolve(feature.Travel)
			s.control(feature.Travel, c)
			s.last = feature.CategoryTravel
		}
		s.emit(raw)
		return
	}

	if s.last == feature.CategoryTravel && s.hasActive {
		if c, ok := s.settings.Resolve(s.active); ok {
			s.control(s.active, c)
			s.last = feature.CategoryPrint
		}
	}
	s.emit(raw)
}

func (s *Stream) control(ft feature.FeatureType, c feature.Control) {
	s.pending = append(s.pending, gcode.SetVelocityLimit(ft, c))
	s.counter.Inc(ft)
	if logger.Enabled(log.TRACE) {
		logger.WithFields(log.Fields{"line": s.lineNum, "layer": s.layer}).Trace("Injected control for " + ft.String())
	}
}

func (s *Stream) emit(lines ...string) {
	for _, l := range lines {
		if !strings.HasSuffix(l, "\n") {
			l += "\n"
		}
		s.pending = append(s.pending, l)
	}
}

func (s *Stream) trace(msg, line string) {
	if logger.Enabled(log.TRACE) {
		logger.WithFields(log.Fields{"line": s.lineNum, "text": line}).Trace(msg)
	}
}

func (s *Stream) finish() {
	s.pending = append(s.pending, gcode.DumpSettings(s.settings)...)
	s.pending = append(s.pending, gcode.DumpStats(s.counter)...)
	s.done = true
	logger.WithFields(log.Fields{
		"lines":    s.lineNum,
		"layers":   s.layer,
		"controls": s.counter.Total(),
	}).Debug("Rewrite finished")
}
