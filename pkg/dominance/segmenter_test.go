//nolint:funlen,lll // ok for tests
package dominance

import (
	"errors"
	"math"
	"slices"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/track-dominance/pkg/model"
)

var sampleColors = map[string]string{"REF": "#3671C6", "SEC": "#E8002D"}

// samples at distances [from,to) with position (d, 2d)
func uniform(from, to, step float64, speed func(d float64) float64) []model.TelemetrySample {
	ret := []model.TelemetrySample{}
	for i := 0; ; i++ {
		d := from + float64(i)*step
		if d >= to {
			break
		}
		ret = append(ret, model.TelemetrySample{Distance: d, Speed: speed(d), X: d, Y: 2 * d})
	}
	return ret
}

func constSpeed(v float64) func(float64) float64 {
	return func(float64) float64 { return v }
}

func refTrace(samples []model.TelemetrySample) model.TelemetryTrace {
	return model.TelemetryTrace{Driver: "REF", Samples: samples}
}

func secTrace(samples []model.TelemetrySample) model.TelemetryTrace {
	return model.TelemetryTrace{Driver: "SEC", Samples: samples}
}

func TestComputeSegments_Dominance(t *testing.T) {
	tests := []struct {
		name     string
		speedRef float64
		speedSec float64
		want     string
	}{
		{name: "reference faster", speedRef: 200, speedSec: 180, want: "REF"},
		{name: "secondary faster", speedRef: 180, speedSec: 200, want: "SEC"},
		{name: "tie goes to secondary", speedRef: 200, speedSec: 200, want: "SEC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := refTrace(uniform(0, 10, 1, constSpeed(tt.speedRef)))
			sec := secTrace(uniform(0.5, 10, 1.5, constSpeed(tt.speedSec)))

			got, err := ComputeSegments(ref, sec, 10, sampleColors)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0].FasterDriver)
			assert.Equal(t, sampleColors[tt.want], got[0].Color)
		})
	}
}

func TestComputeSegments_Continuity(t *testing.T) {
	ref := refTrace(uniform(0, 1000, 2.5, func(d float64) float64 { return 200 + 30*math.Sin(d/50) }))
	sec := secTrace(uniform(0, 1000, 3.7, func(d float64) float64 { return 200 + 30*math.Cos(d/40) }))

	got, err := ComputeSegments(ref, sec, 10, sampleColors)
	require.NoError(t, err)
	require.NotEmpty(t, got)

	assert.Len(t, got[0].Points, 4, "first segment must not carry a bridging point")
	for i := 1; i < len(got); i++ {
		prev := got[i-1].Points
		if diff := cmp.Diff(prev[len(prev)-1], got[i].Points[0]); diff != "" {
			t.Errorf("segment %d does not continue segment %d: %s", i, i-1, diff)
		}
	}
}

func TestComputeSegments_PositionsFromReference(t *testing.T) {
	ref := refTrace(uniform(0, 200, 2, constSpeed(200)))
	sec := secTrace([]model.TelemetrySample{})
	for _, s := range uniform(0, 200, 3, constSpeed(210)) {
		// positions of the secondary driver must never show up
		s.X, s.Y = -1, -1
		sec.Samples = append(sec.Samples, s)
	}
	got, err := ComputeSegments(ref, sec, 10, sampleColors)
	require.NoError(t, err)

	refPoints := make(map[model.Point]bool)
	for _, s := range ref.Samples {
		refPoints[model.Point{X: s.X, Y: s.Y}] = true
	}
	for i := range got {
		for _, p := range got[i].Points {
			assert.True(t, refPoints[p], "point %v not part of reference trace", p)
		}
	}
}

func TestComputeSegments_OmissionOnSparseData(t *testing.T) {
	ref := refTrace(uniform(0, 100, 1, constSpeed(200)))
	sec := secTrace(uniform(50, 100, 1, constSpeed(190)))

	got, err := ComputeSegments(ref, sec, 10, sampleColors)
	require.NoError(t, err)
	require.Len(t, got, 5)

	// first emitted segment is bin [50,60) without bridging point
	want := []model.Point{}
	for d := 50.0; d < 60; d++ {
		want = append(want, model.Point{X: d, Y: 2 * d})
	}
	if diff := cmp.Diff(want, got[0].Points); diff != "" {
		t.Errorf("first segment mismatch (-want +got):\n%s", diff)
	}
	assert.Len(t, got[1].Points, 11)
	assert.Equal(t, model.Point{X: 59, Y: 118}, got[1].Points[0])
	for i := range got {
		assert.Equal(t, "REF", got[i].FasterDriver)
	}
}

func TestComputeSegments_BridgeAcrossSkippedBins(t *testing.T) {
	ref := refTrace(uniform(0, 40, 1, constSpeed(200)))
	sec := secTrace(append(
		uniform(0, 10, 1, constSpeed(210)),
		uniform(30, 40, 1, constSpeed(190))...))

	got, err := ComputeSegments(ref, sec, 10, sampleColors)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "SEC", got[0].FasterDriver)
	assert.Equal(t, "REF", got[1].FasterDriver)
	assert.Equal(t, model.Point{X: 9, Y: 18}, got[1].Points[0])
	assert.Equal(t, model.Point{X: 30, Y: 60}, got[1].Points[1])
	assert.Len(t, got[1].Points, 11)
}

func TestComputeSegments_NonFiniteSpeedSkipsBin(t *testing.T) {
	ref := refTrace(uniform(0, 30, 1, constSpeed(200)))
	sec := secTrace(uniform(0, 30, 1, func(d float64) float64 {
		if d >= 10 && d < 20 {
			return math.NaN()
		}
		if d == 25 {
			return math.Inf(1)
		}
		return 100
	}))

	got, err := ComputeSegments(ref, sec, 10, sampleColors)
	require.NoError(t, err)
	require.Len(t, got, 2)
	// bin [20,30) is evaluated with the finite values only
	assert.Equal(t, "REF", got[1].FasterDriver)
	assert.Equal(t, model.Point{X: 9, Y: 18}, got[1].Points[0])
}

func TestComputeSegments_NoOverlappingData(t *testing.T) {
	tests := []struct {
		name string
		ref  model.TelemetryTrace
		sec  model.TelemetryTrace
	}{
		{
			name: "disjoint",
			ref:  refTrace(uniform(0, 50, 1, constSpeed(200))),
			sec:  secTrace(uniform(100, 150, 1, constSpeed(200))),
		},
		{
			name: "empty reference",
			ref:  refTrace(nil),
			sec:  secTrace(uniform(0, 50, 1, constSpeed(200))),
		},
		{
			name: "empty secondary",
			ref:  refTrace(uniform(0, 50, 1, constSpeed(200))),
			sec:  secTrace(nil),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeSegments(tt.ref, tt.sec, 10, sampleColors)
			assert.True(t, errors.Is(err, ErrNoOverlappingData), "got %v", err)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestComputeSegments_InvalidBinWidth(t *testing.T) {
	ref := refTrace(uniform(0, 50, 1, constSpeed(200)))
	sec := secTrace(uniform(0, 50, 1, constSpeed(200)))
	for _, w := range []float64{0, -10, math.NaN(), math.Inf(1)} {
		_, err := ComputeSegments(ref, sec, w, sampleColors)
		assert.ErrorIs(t, err, ErrInvalidBinWidth, "width %v", w)
	}
}

func TestComputeSegments_TooManyBins(t *testing.T) {
	samples := []model.TelemetrySample{
		{Distance: 0, Speed: 200},
		{Distance: 5000, Speed: 210},
	}
	ref := refTrace(samples)
	sec := secTrace(slices.Clone(samples))
	for _, w := range []float64{1e-300, 1e-9, 5000.0 / (MaxBins + 1)} {
		done := make(chan error, 1)
		go func() {
			_, err := ComputeSegments(ref, sec, w, sampleColors)
			done <- err
		}()
		select {
		case err := <-done:
			assert.ErrorIs(t, err, ErrInvalidBinWidth, "width %v", w)
		case <-time.After(5 * time.Second):
			t.Fatalf("ComputeSegments did not return for width %v", w)
		}
	}

	got, err := ComputeSegments(ref, sec, 0.0078125, sampleColors)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestComputeSegments_Idempotent(t *testing.T) {
	ref := refTrace(uniform(0, 500, 2.5, func(d float64) float64 { return 150 + d/10 }))
	sec := secTrace(uniform(0, 500, 3, func(d float64) float64 { return 200 - d/20 }))

	first, err := ComputeSegments(ref, sec, 10, sampleColors)
	require.NoError(t, err)
	second, err := ComputeSegments(ref, sec, 10, sampleColors)
	require.NoError(t, err)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("results differ:\n%s", diff)
	}
}

func TestComputeSegments_UnorderedInput(t *testing.T) {
	refSamples := uniform(0, 100, 1, func(d float64) float64 { return 180 + d })
	sec := secTrace(uniform(0, 100, 2, constSpeed(220)))

	want, err := ComputeSegments(refTrace(refSamples), sec, 10, sampleColors)
	require.NoError(t, err)

	reversed := slices.Clone(refSamples)
	slices.Reverse(reversed)
	got, err := ComputeSegments(refTrace(reversed), sec, 10, sampleColors)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("results differ:\n%s", diff)
	}
	// input must not be modified
	assert.Equal(t, 99.0, reversed[0].Distance)
}

func TestNumBins(t *testing.T) {
	tests := []struct {
		maxDistance float64
		binWidth    float64
		want        int
	}{
		{100, 10, 10},
		{100.5, 10, 11},
		{99, 10, 10},
		{5, 10, 1},
		{0, 10, 0},
		{100, 0, 0},
		{5000, 1e-300, 0},
		{5000, 1e-9, 0},
		{5000, 0.0078125, 640_000},
		{5000, math.NaN(), 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NumBins(tt.maxDistance, tt.binWidth),
			"NumBins(%v,%v)", tt.maxDistance, tt.binWidth)
	}
}

func TestComputeSegments_CoverageMatchesNumBins(t *testing.T) {
	ref := refTrace(uniform(0, 1000, 1, constSpeed(200)))
	sec := secTrace(uniform(0, 1000, 1, constSpeed(201)))

	got, err := ComputeSegments(ref, sec, 10, sampleColors)
	require.NoError(t, err)
	assert.Len(t, got, NumBins(ref.MaxDistance(), 10))
}

func TestSummarize(t *testing.T) {
	segments := []model.DominanceSegment{
		{FasterDriver: "REF"}, {FasterDriver: "SEC"}, {FasterDriver: "REF"}, {FasterDriver: "REF"},
	}
	got := Summarize(segments, "REF", "SEC", 6)
	want := model.DominanceSummary{
		Segments:  4,
		Reference: model.DriverShare{Driver: "REF", Bins: 3, Share: 0.75},
		Secondary: model.DriverShare{Driver: "SEC", Bins: 1, Share: 0.25},
		Skipped:   2,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Summarize() mismatch (-want +got):\n%s", diff)
	}
}
