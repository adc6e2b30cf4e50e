package rewrite

import (
	stderrors "errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mjonuschat/acceleration-control/pkg/dialect"
	"github.com/mjonuschat/acceleration-control/pkg/errors"
	"github.com/mjonuschat/acceleration-control/pkg/feature"
	"github.com/mjonuschat/acceleration-control/pkg/gcode"
)

func detect(t *testing.T, header string) dialect.Dialect {
	t.Helper()
	d, ok := dialect.Detect(header)
	require.True(t, ok, header)
	return d
}

func prusa(t *testing.T) dialect.Dialect {
	return detect(t, "; generated by PrusaSlicer 2.7.1")
}

func orca(t *testing.T) dialect.Dialect {
	return detect(t, "; generated by OrcaSlicer 2.0.0")
}

// run rewrites input and returns the body without the trailing report.
func run(t *testing.T, d dialect.Dialect, input string, s feature.Settings) ([]string, *Stream) {
	t.Helper()
	stream := New(strings.NewReader(input), d, s, gcode.DefaultZHop())
	var out []string
	for stream.Next() {
		out = append(out, stream.Chunk())
	}
	require.NoError(t, stream.Err())

	trailer := append(gcode.DumpSettings(s), gcode.DumpStats(stream.Stats())...)
	require.GreaterOrEqual(t, len(out), len(trailer))
	body := out[:len(out)-len(trailer)]
	require.Equal(t, trailer, out[len(body):], "trailing report mismatch:\n%s", spew.Sdump(out))
	return body, stream
}

// controls returns the features named by the control commands in out.
func controls(out []string) []feature.FeatureType {
	var fts []feature.FeatureType
	for _, chunk := range out {
		if !strings.HasPrefix(chunk, "SET_VELOCITY_LIMIT ") {
			continue
		}
		_, name, _ := strings.Cut(strings.TrimSpace(chunk), " ; ")
		ft, err := feature.ParseName(name)
		if err != nil {
			panic(err)
		}
		fts = append(fts, ft)
	}
	return fts
}

func TestEmptyInput(t *testing.T) {
	body, s := run(t, prusa(t), "", nil)
	assert.Empty(t, body)
	assert.Zero(t, s.Stats().Total())
	assert.Zero(t, s.Layers())
}

func TestLegacyDirectivesDropped(t *testing.T) {
	input := "M204 S12000\n;LAYER_CHANGE\n  M204 S500\nSET_VELOCITY_LIMIT ACCEL=500\nG1 X1 Y1 E1\nM204 P1000\n"
	body, _ := run(t, orca(t), input, nil)
	for _, chunk := range body {
		if strings.HasPrefix(chunk, "SET_VELOCITY_LIMIT ") {
			assert.Contains(t, chunk, "; TYPE:")
			continue
		}
		assert.False(t, strings.HasPrefix(strings.TrimSpace(chunk), "M204 S"), chunk)
	}
	assert.Contains(t, body, "M204 P1000\n")
}

func TestLayerChangeEmitsFirstLayerOnce(t *testing.T) {
	input := ";LAYER_CHANGE\n;Z:0.2\n;LAYER_CHANGE\n;Z:0.4\n"
	body, s := run(t, orca(t), input, nil)
	assert.Equal(t, []string{
		";LAYER_CHANGE\n",
		"SET_VELOCITY_LIMIT ACCEL=2000 ACCEL_TO_DECEL=1000 SQUARE_CORNER_VELOCITY=5 ; TYPE:First Layer\n",
		";Z:0.2\n",
		";LAYER_CHANGE\n",
		";Z:0.4\n",
	}, body)
	assert.Equal(t, 2, s.Layers())
	assert.Equal(t, uint64(1), s.Stats().Get(feature.FirstLayer))

	custom := feature.Settings{feature.FirstLayer: {Accel: 500, AccelToDecel: 250, SCV: 2}}
	body, _ = run(t, orca(t), ";LAYER_CHANGE\n", custom)
	assert.Equal(t, "SET_VELOCITY_LIMIT ACCEL=500 ACCEL_TO_DECEL=250 SQUARE_CORNER_VELOCITY=2 ; TYPE:First Layer\n", body[1])
}

func TestFeatureMarker(t *testing.T) {
	settings := feature.Settings{feature.ExternalPerimeter: {Accel: 1500, AccelToDecel: 750, SCV: 5}}

	// Markers before the first layer change are plain lines.
	body, s := run(t, orca(t), ";TYPE:Outer wall\n", settings)
	assert.Equal(t, []string{";TYPE:Outer wall\n"}, body)
	assert.Zero(t, s.Stats().Total())

	body, s = run(t, orca(t), ";LAYER_CHANGE\n  ;TYPE:Outer wall  \nG1 X1 Y2 E.1\n", settings)
	assert.Equal(t, []string{
		";LAYER_CHANGE\n",
		"SET_VELOCITY_LIMIT ACCEL=2000 ACCEL_TO_DECEL=1000 SQUARE_CORNER_VELOCITY=5 ; TYPE:First Layer\n",
		"  ;TYPE:Outer wall  \n",
		"SET_VELOCITY_LIMIT ACCEL=1500 ACCEL_TO_DECEL=750 SQUARE_CORNER_VELOCITY=5 ; TYPE:External perimeter\n",
		"G1 X1 Y2 E.1\n",
	}, body)
	assert.Equal(t, uint64(1), s.Stats().Get(feature.ExternalPerimeter))
}

func TestFeatureMarkerWithoutControl(t *testing.T) {
	input := ";LAYER_CHANGE\n;TYPE:Sparse infill\nG1 X1 Y1 E1\nG1 X5 Y5 F9000\nG1 X6 Y6 E1\nG1 X7 Y7 F9000\n"
	body, s := run(t, orca(t), input, nil)
	assert.Equal(t, []string{
		";LAYER_CHANGE\n",
		"SET_VELOCITY_LIMIT ACCEL=2000 ACCEL_TO_DECEL=1000 SQUARE_CORNER_VELOCITY=5 ; TYPE:First Layer\n",
		";TYPE:Sparse infill\n",
		"G1 X1 Y1 E1\n",
		"SET_VELOCITY_LIMIT ACCEL=4000 ACCEL_TO_DECEL=2000 SQUARE_CORNER_VELOCITY=5 ; TYPE:Travel\n",
		"G1 X5 Y5 F9000\n",
		"G1 X6 Y6 E1\n",
		"G1 X7 Y7 F9000\n",
	}, body)
	assert.Zero(t, s.Stats().Get(feature.InternalInfill))
	assert.Equal(t, uint64(1), s.Stats().Get(feature.Travel))
}

func TestConsecutiveTravelMoves(t *testing.T) {
	settings := feature.Settings{feature.Skirt: {Accel: 1000, AccelToDecel: 500, SCV: 3}}
	input := ";LAYER_CHANGE\n;TYPE:Skirt\n" +
		"G1 X1 Y1 F9000\nG1 X2 Y2\nG1 X3 Y3 F9000 ; travel\n" +
		"G1 X4 Y4 E1\nG1 X4 Y4 E1\n" +
		"G1 X5 Y5 F9000\n"
	body, s := run(t, orca(t), input, settings)

	assert.Equal(t, []feature.FeatureType{
		feature.FirstLayer,
		feature.Skirt,
		feature.Travel,
		feature.Skirt,
		feature.Travel,
	}, controls(body), spew.Sdump(body))
	assert.Equal(t, uint64(2), s.Stats().Get(feature.Travel))
	assert.Equal(t, uint64(2), s.Stats().Get(feature.Skirt))

	// The print control is re-asserted right before the first non-travel line.
	i := indexOf(body, "G1 X4 Y4 E1\n")
	require.Positive(t, i)
	assert.Equal(t, "SET_VELOCITY_LIMIT ACCEL=1000 ACCEL_TO_DECEL=500 SQUARE_CORNER_VELOCITY=3 ; TYPE:Skirt\n", body[i-1])
}

func TestTravelSettings(t *testing.T) {
	settings := feature.Settings{feature.Travel: {Accel: 7000, AccelToDecel: 3500, SCV: 9}}
	body, _ := run(t, orca(t), "G1 X1 Y1\n", settings)
	assert.Equal(t, []string{
		"SET_VELOCITY_LIMIT ACCEL=7000 ACCEL_TO_DECEL=3500 SQUARE_CORNER_VELOCITY=9 ; TYPE:Travel\n",
		"G1 X1 Y1\n",
	}, body)
}

func TestSafeLift(t *testing.T) {
	input := "G1 Z5 F600\n;LAYER_CHANGE\n;Z:0.2\nG1 Z.2 F720\nG1 X10 Y10 F9000\nG1 X20 Y20 F9000\n" +
		"G1 X20 Y30 E1\n;LAYER_CHANGE\nG1 Z.4 F720\nG1 X10 Y10 F9000\n"
	body, s := run(t, prusa(t), input, nil)
	assert.Equal(t, []string{
		"G1 Z5 F600\n",
		";LAYER_CHANGE\n",
		"SET_VELOCITY_LIMIT ACCEL=2000 ACCEL_TO_DECEL=1000 SQUARE_CORNER_VELOCITY=5 ; TYPE:First Layer\n",
		";Z:0.2\n",
		"G91 ; safe lift: relative positioning\n",
		"G1 Z2.000 F600\n",
		"G90 ; safe lift: absolute positioning\n",
		"G1 X10 Y10 F9000\n",
		"G1 Z0.200 F600\n",
		"SET_VELOCITY_LIMIT ACCEL=4000 ACCEL_TO_DECEL=2000 SQUARE_CORNER_VELOCITY=5 ; TYPE:Travel\n",
		"G1 X20 Y20 F9000\n",
		"G1 X20 Y30 E1\n",
		";LAYER_CHANGE\n",
		"G1 Z.4 F720\n",
		"G1 X10 Y10 F9000\n",
	}, body)
	assert.Equal(t, uint64(1), s.Stats().Get(feature.Travel))
}

func TestFirstLayerAfterSafeLift(t *testing.T) {
	settings := feature.Settings{
		feature.ExternalPerimeter: {Accel: 1500, AccelToDecel: 750, SCV: 5},
	}
	input := ";LAYER_CHANGE\nG1 Z.2 F720\nG1 X10 Y10 F9000\n;TYPE:External perimeter\nG1 X11 Y10 E1\n" +
		"G1 X20 Y20 F9000\nG1 X21 Y20 E1\n;LAYER_CHANGE\n"
	body, s := run(t, prusa(t), input, settings)
	assert.Equal(t, []string{
		";LAYER_CHANGE\n",
		"SET_VELOCITY_LIMIT ACCEL=2000 ACCEL_TO_DECEL=1000 SQUARE_CORNER_VELOCITY=5 ; TYPE:First Layer\n",
		"G91 ; safe lift: relative positioning\n",
		"G1 Z2.000 F600\n",
		"G90 ; safe lift: absolute positioning\n",
		"G1 X10 Y10 F9000\n",
		"G1 Z0.200 F600\n",
		";TYPE:External perimeter\n",
		"SET_VELOCITY_LIMIT ACCEL=1500 ACCEL_TO_DECEL=750 SQUARE_CORNER_VELOCITY=5 ; TYPE:External perimeter\n",
		"G1 X11 Y10 E1\n",
		"SET_VELOCITY_LIMIT ACCEL=4000 ACCEL_TO_DECEL=2000 SQUARE_CORNER_VELOCITY=5 ; TYPE:Travel\n",
		"G1 X20 Y20 F9000\n",
		"SET_VELOCITY_LIMIT ACCEL=1500 ACCEL_TO_DECEL=750 SQUARE_CORNER_VELOCITY=5 ; TYPE:External perimeter\n",
		"G1 X21 Y20 E1\n",
		";LAYER_CHANGE\n",
	}, body)
	assert.Equal(t, 2, s.Layers())
	assert.Equal(t, feature.Counter{
		feature.FirstLayer:        1,
		feature.ExternalPerimeter: 2,
		feature.Travel:            1,
	}, s.Stats())
}

func TestSafeLiftHeight(t *testing.T) {
	z := gcode.ZHop{HopHeight: 1.5, TravelSpeed: 12.5, LayerHeight: 0.2}
	input := ";LAYER_CHANGE\n; HEIGHT: 0.3\nG1 X10 Y10\n"
	s := New(strings.NewReader(input), prusa(t), nil, z)
	var out []string
	for chunk := range s.All() {
		out = append(out, chunk)
	}
	require.NoError(t, s.Err())
	assert.Equal(t, []string{
		";LAYER_CHANGE\n",
		"SET_VELOCITY_LIMIT ACCEL=2000 ACCEL_TO_DECEL=1000 SQUARE_CORNER_VELOCITY=5 ; TYPE:First Layer\n",
		"; HEIGHT: 0.3\n",
		"G91 ; safe lift: relative positioning\n",
		"G1 Z1.500 F750\n",
		"G90 ; safe lift: absolute positioning\n",
		"G1 X10 Y10\n",
		"G1 Z0.300 F750\n",
	}, out[:8])
}

func TestNoSafeLiftForOrca(t *testing.T) {
	body, _ := run(t, orca(t), ";LAYER_CHANGE\nG1 Z.2 F720\nG1 X10 Y10 F9000\n", nil)
	assert.Equal(t, []string{
		";LAYER_CHANGE\n",
		"SET_VELOCITY_LIMIT ACCEL=2000 ACCEL_TO_DECEL=1000 SQUARE_CORNER_VELOCITY=5 ; TYPE:First Layer\n",
		"G1 Z.2 F720\n",
		"SET_VELOCITY_LIMIT ACCEL=4000 ACCEL_TO_DECEL=2000 SQUARE_CORNER_VELOCITY=5 ; TYPE:Travel\n",
		"G1 X10 Y10 F9000\n",
	}, body)
}

func TestLineEndings(t *testing.T) {
	body, _ := run(t, orca(t), "G28\r\n\r\nM84", nil)
	assert.Equal(t, []string{"G28\n", "\n", "M84\n"}, body)
}

func TestCounterMatchesEmittedControls(t *testing.T) {
	settings := feature.Settings{
		feature.Skirt:             {Accel: 1000, AccelToDecel: 500, SCV: 3},
		feature.ExternalPerimeter: {Accel: 1500, AccelToDecel: 750, SCV: 5},
	}
	input := ";LAYER_CHANGE\n;TYPE:Skirt\nG1 X1 Y1 E1\nG1 X2 Y2 F9000\nG1 X3 Y3 E1\n" +
		";TYPE:Outer wall\nG1 X4 Y4 F9000\n;TYPE:Skirt\n;LAYER_CHANGE\n;TYPE:Outer wall\nG1 X5 Y5 E1\n"
	body, s := run(t, orca(t), input, settings)

	want := feature.Counter{}
	for _, ft := range controls(body) {
		want.Inc(ft)
	}
	assert.Equal(t, want, s.Stats())
}

func TestReadError(t *testing.T) {
	boom := stderrors.New("boom")
	s := New(iotest.ErrReader(boom), orca(t), nil, gcode.DefaultZHop())
	assert.False(t, s.Next())
	assert.Empty(t, s.Chunk())
	require.Error(t, s.Err())
	assert.ErrorIs(t, s.Err(), boom)
	assert.True(t, errors.Is(s.Err(), errors.ErrIO))
	assert.False(t, s.Next())
}

func TestWriteTo(t *testing.T) {
	var b strings.Builder
	s := New(strings.NewReader("G28\n"), orca(t), nil, gcode.DefaultZHop())
	n, err := s.WriteTo(&b)
	require.NoError(t, err)
	assert.Equal(t, int64(b.Len()), n)
	assert.True(t, strings.HasPrefix(b.String(), "G28\n\n; Parsed acceleration values:\n"))
	assert.True(t, strings.HasSuffix(b.String(), "; Number of acceleration control insertions:\n\n\n"))
	assert.False(t, s.Next())
}

func TestAllStopsEarly(t *testing.T) {
	s := New(strings.NewReader("G28\nG90\nM83\n"), orca(t), nil, gcode.DefaultZHop())
	for chunk := range s.All() {
		assert.Equal(t, "G28\n", chunk)
		break
	}
	require.True(t, s.Next())
	assert.Equal(t, "G90\n", s.Chunk())
}

func indexOf(chunks []string, want string) int {
	for i, c := range chunks {
		if c == want {
			return i
		}
	}
	return -1
}
