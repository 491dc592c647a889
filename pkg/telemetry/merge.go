// Package telemetry turns raw time based car and position samples into
// distance indexed traces.
package telemetry

import (
	"cmp"
	"errors"
	"slices"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"

	"github.com/mpapenbr/track-dominance/pkg/model"
)

var (
	ErrNoCarData      = errors.New("no car data")
	ErrNoPositionData = errors.New("no position data")
)

type (
	CarSample struct {
		Date  time.Time
		Speed float64 // km/h
	}
	PosSample struct {
		Date time.Time
		X, Y float64
	}
)

// Merge builds the trace of one lap. Distance is the integral of speed over
// time starting with 0 at the first car sample. Positions are interpolated
// linearly onto the car sample timestamps.
func Merge(driver string, car []CarSample, pos []PosSample) (model.TelemetryTrace, error) {
	ret := model.TelemetryTrace{Driver: driver}
	car = sortedUnique(car, func(s CarSample) time.Time { return s.Date })
	pos = sortedUnique(pos, func(s PosSample) time.Time { return s.Date })
	if len(car) == 0 {
		return ret, ErrNoCarData
	}
	if len(pos) == 0 {
		return ret, ErrNoPositionData
	}

	start := car[0].Date
	secs := func(t time.Time) float64 { return t.Sub(start).Seconds() }

	dist := Distances(car)
	predictX, predictY := positionPredictors(pos, secs)

	ret.Samples = make([]model.TelemetrySample, len(car))
	for i := range car {
		t := secs(car[i].Date)
		ret.Samples[i] = model.TelemetrySample{
			Distance: dist[i],
			Speed:    car[i].Speed,
			X:        predictX.Predict(t),
			Y:        predictY.Predict(t),
		}
	}
	return ret, nil
}

// Distances integrates the speed samples (which must be ordered by time).
// Each sample contributes its speed times the time passed since the previous sample.
func Distances(car []CarSample) []float64 {
	ds := make([]float64, len(car))
	for i := 1; i < len(car); i++ {
		dt := car[i].Date.Sub(car[i-1].Date).Seconds()
		ds[i] = car[i].Speed / 3.6 * dt
	}
	return floats.CumSum(make([]float64, len(ds)), ds)
}

//nolint:whitespace // editor/linter issue
func positionPredictors(
	pos []PosSample, secs func(time.Time) float64,
) (x, y interp.Predictor) {
	if len(pos) == 1 {
		return interp.Constant(pos[0].X), interp.Constant(pos[0].Y)
	}
	ts := make([]float64, len(pos))
	xs := make([]float64, len(pos))
	ys := make([]float64, len(pos))
	for i := range pos {
		ts[i] = secs(pos[i].Date)
		xs[i] = pos[i].X
		ys[i] = pos[i].Y
	}
	var px, py interp.PiecewiseLinear
	// Fit only fails on invalid input which sortedUnique rules out
	_ = px.Fit(ts, xs)
	_ = py.Fit(ts, ys)
	return px, py
}

// sortedUnique returns the samples ordered by time, keeping the first sample
// of duplicate timestamps.
func sortedUnique[T any](in []T, date func(T) time.Time) []T {
	ret := slices.Clone(in)
	slices.SortStableFunc(ret, func(a, b T) int {
		return cmp.Compare(date(a).UnixNano(), date(b).UnixNano())
	})
	return slices.CompactFunc(ret, func(a, b T) bool {
		return date(a).Equal(date(b))
	})
}
