package gcode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mjonuschat/acceleration-control/pkg/feature"
)

func TestIsTravel(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"G1 X10.5 Y20", true},
		{"G1 X10.5 Y20 F7800", true},
		{"g1 x10 y20 f7800", true},
		{"G1 X10.5 Y20 F7800 ; move to next", true},
		{"G1 X10.5 Y20;comment", true},
		{"G1 X10.5 Y20 E0.123", false},
		{"G1 X10.5", false},
		{"G1 Z0.2 F7800", false},
		{"G0 X10 Y20", false},
		{"G1 X-10 Y20", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsTravel(tt.line), tt.line)
	}
}

func TestIsZMove(t *testing.T) {
	assert.True(t, IsZMove("G1 Z.2"))
	assert.True(t, IsZMove("G1 Z0.2 F7800"))
	assert.True(t, IsZMove("G1 Z0.6 F9000 ; lift"))
	assert.False(t, IsZMove("G1 Z0.2 E-1"))
	assert.False(t, IsZMove("G1 X1 Y1"))
}

func TestHeight(t *testing.T) {
	h, ok := Height("; HEIGHT: 0.3")
	require.True(t, ok)
	assert.InDelta(t, 0.3, h, 1e-9)

	h, ok = Height(";HEIGHT:0.25")
	require.True(t, ok)
	assert.InDelta(t, 0.25, h, 1e-9)

	h, ok = Height("; HEIGHT: 1.2.3")
	require.True(t, ok)
	assert.Equal(t, DefaultLayerHeight, h)

	_, ok = Height("; LAYER_HEIGHT: 0.3")
	assert.False(t, ok)
}

func TestLegacyDirective(t *testing.T) {
	_, ok := LegacyDirective("M204 S12000")
	assert.True(t, ok)
	_, ok = LegacyDirective("SET_VELOCITY_LIMIT ACCEL=500")
	assert.True(t, ok)
	_, ok = LegacyDirective("M204 P1000")
	assert.False(t, ok)
	_, ok = LegacyDirective("G1 X1 Y1")
	assert.False(t, ok)
}

func TestSetVelocityLimit(t *testing.T) {
	got := SetVelocityLimit(feature.Skirt, feature.Control{Accel: 1000, AccelToDecel: 500, SCV: 3})
	assert.Equal(t, "SET_VELOCITY_LIMIT ACCEL=1000 ACCEL_TO_DECEL=500 SQUARE_CORNER_VELOCITY=3 ; TYPE:Skirt\n", got)
}

func TestSafeLift(t *testing.T) {
	got := SafeLift("G1 X10 Y10 F9000", DefaultZHop())
	require.Len(t, got, 5)
	assert.True(t, strings.HasPrefix(got[0], "G91"))
	assert.Equal(t, "G1 Z2.000 F600\n", got[1])
	assert.True(t, strings.HasPrefix(got[2], "G90"))
	assert.Equal(t, "G1 X10 Y10 F9000\n", got[3])
	assert.Equal(t, "G1 Z0.200 F600\n", got[4])
}

func TestZHop(t *testing.T) {
	z := ZHop{HopHeight: 1.5, TravelSpeed: 12.5, LayerHeight: 0.3}
	assert.Equal(t, 750, z.Feedrate())
	assert.NoError(t, z.Validate())

	z.TravelSpeed = 0
	assert.Error(t, z.Validate())
}

func TestZHopFeedrateTruncatesProduct(t *testing.T) {
	for speed, want := range map[float64]int{
		10:     600,
		12.5:   750,
		10.75:  645,
		0.5:    30,
		0.0125: 0,
	} {
		assert.Equal(t, want, ZHop{TravelSpeed: speed}.Feedrate(), "speed %v", speed)
	}
}

func TestDumpSettings(t *testing.T) {
	out := strings.Join(DumpSettings(feature.Settings{
		feature.Skirt: {Accel: 1000, AccelToDecel: 500, SCV: 3},
	}), "")

	assert.Contains(t, out, "; Parsed acceleration values:\n")
	assert.Contains(t, out, "; TYPE:Skirt                         ACCEL=1000 ACCEL_TO_DECEL=500 SQUARE_CORNER_VELOCITY=3\n")
	assert.Contains(t, out, "; TYPE:Travel                        ACCEL=4000 ACCEL_TO_DECEL=2000 SQUARE_CORNER_VELOCITY=5\n")
	assert.Less(t, strings.Index(out, "TYPE:First Layer"), strings.Index(out, "TYPE:Travel"))
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line != "" {
			assert.True(t, strings.HasPrefix(line, ";"), "report must be comment-only: %q", line)
		}
	}
}

func TestDumpStats(t *testing.T) {
	c := feature.Counter{}
	c.Inc(feature.Travel)
	c.Inc(feature.Travel)
	c.Inc(feature.GapFill)

	got := DumpStats(c)
	assert.Equal(t, []string{
		"\n",
		"; Number of acceleration control insertions:\n",
		"\n",
		"; TYPE:Travel                        2\n",
		"; TYPE:Gap fill                      1\n",
		"\n",
	}, got)
}
