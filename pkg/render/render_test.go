package render

import (
	"bytes"
	"image/color"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/track-dominance/pkg/model"
)

func sampleResult() *model.Result {
	return &model.Result{
		Meeting:   &model.Meeting{Year: 2024, Name: "Bahrain Grand Prix"},
		Session:   &model.Session{Name: "Qualifying"},
		Reference: model.Lap{Driver: "VER"},
		Secondary: model.Lap{Driver: "LEC"},
		Legend: []model.DriverColor{
			{Driver: "VER", Color: "#3671C6"},
			{Driver: "LEC", Color: "#E8002D"},
		},
		BinWidth: 10,
		Segments: []model.DominanceSegment{
			{Points: []model.Point{{X: 0, Y: 0}, {X: 5, Y: 0}}, Color: "#3671C6", FasterDriver: "VER"},
			{Points: []model.Point{{X: 5, Y: 0}, {X: 10, Y: 5}}, Color: "#E8002D", FasterDriver: "LEC"},
		},
	}
}

func TestDominanceTitle(t *testing.T) {
	r := sampleResult()
	assert.Equal(t, "Track Dominance: VER vs LEC (2024 Bahrain Grand Prix)", DominanceTitle(r))
	r.Meeting = nil
	assert.Equal(t, "Track Dominance: VER vs LEC", DominanceTitle(r))
}

func TestFilenames(t *testing.T) {
	assert.Equal(t, "Dominance_VER_vs_LEC_2024.html", DominanceFilename(sampleResult(), "html"))
	assert.Equal(t, "telemetry_2024_Bahrain_Grand_Prix.html",
		SpeedTraceFilename(&model.SpeedTrace{Meeting: &model.Meeting{Year: 2024, Name: "Bahrain Grand Prix"}}))
	assert.Equal(t, "telemetry_0_unknown.html", SpeedTraceFilename(&model.SpeedTrace{}))
	assert.Equal(t, "Australian_Grand_Prix_Qualifying_Laps.csv",
		LapsFilename(&model.Meeting{Name: "Australian Grand Prix"}, &model.Session{Name: "Qualifying"}))
}

func TestDominanceHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, DominanceHTML(&buf, sampleResult(), WithAssetsHost("http://localhost/assets/")))
	out := buf.String()
	for _, want := range []string{
		"Track Dominance: VER vs LEC (2024 Bahrain Grand Prix)",
		"Faster: VER",
		"Faster: LEC",
		"#3671C6",
		"#E8002D",
		"http://localhost/assets/",
	} {
		assert.Contains(t, out, want)
	}
}

func TestSpeedTraceHTML(t *testing.T) {
	trace := &model.SpeedTrace{
		Meeting: &model.Meeting{Year: 2024, Name: "Bahrain Grand Prix"},
		Laps: []model.SpeedTraceLap{
			{LapNumber: 3, Lines: []model.SpeedTraceLine{
				{Driver: "VER", Color: "#3671C6", Samples: []model.TelemetrySample{{Distance: 0, Speed: 100}}},
				{Driver: "PER", Color: "#3671C6", Dashed: true, Samples: []model.TelemetrySample{{Distance: 0, Speed: 99}}},
			}},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, SpeedTraceHTML(&buf, trace))
	out := buf.String()
	assert.Contains(t, out, "Speed traces 2024 Bahrain Grand Prix")
	assert.Contains(t, out, "Lap 3")
	assert.Contains(t, out, "PER")
	assert.Contains(t, out, "dashed")
}

func TestDominancePNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, DominancePNG(&buf, sampleResult()))
	assert.True(t, strings.HasPrefix(buf.String(), "\x89PNG"))

	file := filepath.Join(t.TempDir(), DominanceFilename(sampleResult(), "png"))
	require.NoError(t, SaveDominancePNG(file, sampleResult()))
	assert.FileExists(t, file)
}

func TestSquareBounds(t *testing.T) {
	xMin, xMax, yMin, yMax := squareBounds(sampleResult().Segments)
	assert.InDelta(t, xMax-xMin, yMax-yMin, 1e-9)
	assert.Less(t, xMin, 0.0)
	assert.Greater(t, xMax, 10.0)

	xMin, xMax, yMin, yMax = squareBounds(nil)
	assert.Equal(t, []float64{0, 1, 0, 1}, []float64{xMin, xMax, yMin, yMax})
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.Color
	}{
		{"#3671C6", color.RGBA{R: 0x36, G: 0x71, B: 0xC6, A: 0xff}},
		{"3671c6", color.RGBA{R: 0x36, G: 0x71, B: 0xC6, A: 0xff}},
		{"#fff", color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}},
		{"red", color.RGBA{R: 0xff, A: 0xff}},
		{"nonsense", color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseColor(tt.in))
		})
	}
}
