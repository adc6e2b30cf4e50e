package dialect

import (
	"strings"

	"github.com/mjonuschat/acceleration-control/pkg/log"
)

var logger = log.GetLogger("detect")

type producer struct {
	prefix  string
	name    string
	kind    Kind
	markers *MarkerTable
}

// Checked in order, first match wins.
var producers = []producer{
	{"; generated by SuperSlicer", "SuperSlicer", Slic3r, slic3rMarkers},
	{"; generated by PrusaSlicer", "PrusaSlicer", Slic3r, prusaMarkers},
	{"; generated by Slic3r", "Slic3r", Slic3r, slic3rMarkers},
	{"; generated by OrcaSlicer", "OrcaSlicer", Orca, orcaMarkers},
}

// Detect identifies the producer from a "generated by" header line.
func Detect(line string) (Dialect, bool) {
	line = strings.TrimSpace(line)
	for _, p := range producers {
		if !strings.HasPrefix(line, p.prefix) {
			continue
		}
		d := Dialect{
			Producer: p.name,
			Version:  version(line[len(p.prefix):]),
			Kind:     p.kind,
			markers:  p.markers,
		}
		logger.WithFields(log.Fields{
			"version": d.Version,
			"markers": p.markers.Name(),
		}).Info("Identified slicer: " + p.name)
		return d, true
	}
	return Dialect{}, false
}

// version extracts "2.7.1+win64" from " 2.7.1+win64 on 2024-01-03 at 10:00:00 UTC".
func version(rest string) string {
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
