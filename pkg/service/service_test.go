package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/track-dominance/pkg/dominance"
	"github.com/mpapenbr/track-dominance/pkg/model"
)

type fakeSource struct {
	laps      []model.Lap
	drivers   []model.Driver
	traces    map[string]model.TelemetryTrace
	traceErrs map[string]error
	lapsErr   error
	meeting   *model.Meeting
	session   *model.Session
}

func (f *fakeSource) Laps(ctx context.Context, sessionKey int) ([]model.Lap, error) {
	return f.laps, f.lapsErr
}

func (f *fakeSource) Drivers(ctx context.Context, sessionKey int) ([]model.Driver, error) {
	return f.drivers, nil
}

//nolint:whitespace // editor/linter issue
func (f *fakeSource) FastestLapTelemetry(
	ctx context.Context, sessionKey int, lap model.Lap,
) (model.TelemetryTrace, error) {
	if err := f.traceErrs[lap.Driver]; err != nil {
		return model.TelemetryTrace{}, err
	}
	return f.traces[lap.Driver], nil
}

//nolint:whitespace // editor/linter issue
func (f *fakeSource) SessionInfo(
	ctx context.Context, sessionKey int,
) (*model.Meeting, *model.Session, error) {
	return f.meeting, f.session, nil
}

func constTrace(driver string, speed float64) model.TelemetryTrace {
	ret := model.TelemetryTrace{Driver: driver}
	for d := 0.0; d <= 100; d += 5 {
		ret.Samples = append(ret.Samples, model.TelemetrySample{Distance: d, Speed: speed, X: d})
	}
	return ret
}

func sampleSource() *fakeSource {
	return &fakeSource{
		drivers: []model.Driver{
			{Number: 1, Acronym: "VER", Team: "Red Bull Racing", TeamColor: "#3671C6"},
			{Number: 11, Acronym: "PER", Team: "Red Bull Racing", TeamColor: "#3671C6"},
			{Number: 16, Acronym: "LEC", Team: "Ferrari", TeamColor: "#E8002D"},
		},
		laps: []model.Lap{
			{Driver: "VER", DriverNumber: 1, LapNumber: 1, LapTime: 90 * time.Second, Sequence: 1},
			{Driver: "LEC", DriverNumber: 16, LapNumber: 1, LapTime: 91 * time.Second, Sequence: 2},
			{Driver: "PER", DriverNumber: 11, LapNumber: 1, LapTime: 92 * time.Second, Sequence: 3},
		},
		traces: map[string]model.TelemetryTrace{
			"VER": constTrace("VER", 200),
			"LEC": constTrace("LEC", 180),
			"PER": constTrace("PER", 170),
		},
		meeting: &model.Meeting{Year: 2024, Name: "Bahrain Grand Prix"},
		session: &model.Session{Name: "Qualifying"},
	}
}

func TestDominanceService_Compute(t *testing.T) {
	src := sampleSource()
	got, err := NewDominanceService(src).Compute(context.Background(), 1, 10)
	require.NoError(t, err)

	assert.Equal(t, "VER", got.Reference.Driver)
	assert.Equal(t, "LEC", got.Secondary.Driver)
	assert.Equal(t, []model.DriverColor{
		{Driver: "VER", Color: "#3671C6"},
		{Driver: "LEC", Color: "#E8002D"},
	}, got.Legend)
	assert.Equal(t, "Bahrain Grand Prix", got.Meeting.Name)
	assert.Equal(t, 10, len(got.Segments))
	for _, s := range got.Segments {
		assert.Equal(t, "VER", s.FasterDriver)
		assert.Equal(t, "#3671C6", s.Color)
	}
	assert.Equal(t, 10, got.Summary.Reference.Bins)
	assert.InDelta(t, 1.0, got.Summary.Reference.Share, 1e-9)
}

func TestDominanceService_TeammatesGetContrast(t *testing.T) {
	src := sampleSource()
	src.laps[2].LapTime = 90500 * time.Millisecond
	got, err := NewDominanceService(src).Compute(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, "PER", got.Secondary.Driver)
	assert.Equal(t, dominance.ContrastColor, got.Legend[1].Color)
}

func TestDominanceService_Errors(t *testing.T) {
	upstream := errors.New("upstream failed")
	tests := []struct {
		name   string
		modify func(f *fakeSource)
		want   error
	}{
		{
			name:   "laps error",
			modify: func(f *fakeSource) { f.lapsErr = upstream },
			want:   upstream,
		},
		{
			name:   "single driver",
			modify: func(f *fakeSource) { f.laps = f.laps[:1] },
			want:   dominance.ErrInsufficientData,
		},
		{
			name:   "telemetry error",
			modify: func(f *fakeSource) { f.traceErrs = map[string]error{"LEC": upstream} },
			want:   upstream,
		},
		{
			name: "no overlap",
			modify: func(f *fakeSource) {
				f.traces["LEC"] = model.TelemetryTrace{Driver: "LEC"}
			},
			want: dominance.ErrNoOverlappingData,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := sampleSource()
			tt.modify(src)
			_, err := NewDominanceService(src).Compute(context.Background(), 1, 10)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestTeamColorLookup(t *testing.T) {
	lookup := TeamColorLookup([]model.Driver{
		{Number: 1, Acronym: "VER", TeamColor: "#3671C6"},
		{Number: 2, Acronym: "SAR"},
	})
	c, err := lookup("ver")
	require.NoError(t, err)
	assert.Equal(t, "#3671C6", c)

	c, err = lookup("1")
	require.NoError(t, err)
	assert.Equal(t, "#3671C6", c)

	_, err = lookup("SAR")
	require.ErrorIs(t, err, dominance.ErrNoColor)
	_, err = lookup("XXX")
	require.ErrorIs(t, err, dominance.ErrNoColor)
}

func TestSpeedTraceService_Compute(t *testing.T) {
	src := sampleSource()
	src.laps = append(src.laps,
		model.Lap{Driver: "VER", DriverNumber: 1, LapNumber: 2, LapTime: 95 * time.Second},
		model.Lap{Driver: "LEC", DriverNumber: 16, LapNumber: 2, LapTime: 96 * time.Second},
	)
	src.traceErrs = map[string]error{"LEC": errors.New("no car data")}

	got, err := NewSpeedTraceService(src).Compute(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, got.Laps, 2)

	first := got.Laps[0]
	assert.Equal(t, 1, first.LapNumber)
	require.Len(t, first.Lines, 2)
	assert.Equal(t, "VER", first.Lines[0].Driver)
	assert.False(t, first.Lines[0].Dashed)
	assert.Equal(t, "PER", first.Lines[1].Driver)
	assert.True(t, first.Lines[1].Dashed)
	assert.Equal(t, "#3671C6", first.Lines[1].Color)

	assert.Equal(t, map[string]string{
		"LEC lap 1": "no car data",
		"LEC lap 2": "no car data",
	}, got.Skipped)
}

func TestSpeedTraceService_LapNumbers(t *testing.T) {
	src := sampleSource()
	got, err := NewSpeedTraceService(src, WithLapNumbers(1), WithConcurrency(1)).
		Compute(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, got.Laps, 1)
	assert.Len(t, got.Laps[0].Lines, 3)
	assert.Empty(t, got.Skipped)
}

func TestLineStyles(t *testing.T) {
	styles := lineStyles([]model.Driver{
		{Acronym: "A", Team: "X", TeamColor: "#111111"},
		{Acronym: "B", Team: "X", TeamColor: "#111111"},
		{Acronym: "C"},
	})
	assert.False(t, styles.of("A").dashed)
	assert.True(t, styles.of("B").dashed)
	assert.Equal(t, neutralColor, styles.of("C").color)
	assert.Equal(t, 3, styles.of("unknown").order)
}
