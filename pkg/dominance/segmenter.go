package dominance

import (
	"cmp"
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/mpapenbr/track-dominance/pkg/model"
)

const (
	// DefaultBinWidth is the width of a mini sector in meters
	DefaultBinWidth = 10.0
	// MaxBins limits the number of bins of a single lap
	MaxBins = 1_000_000
)

// ComputeSegments splits the reference lap into bins of binWidth and colors
// each bin by the driver with the higher mean speed. Ties go to the secondary
// driver. Bins lacking data from either driver are skipped; the next emitted
// segment starts at the last point of the previous one so the polyline stays
// connected.
//
// Positions are always taken from the reference trace. The secondary trace
// is assigned to bins by its own distance values.
//
//nolint:whitespace // editor/linter issue
func ComputeSegments(
	ref, sec model.TelemetryTrace,
	binWidth float64,
	colors map[string]string,
) ([]model.DominanceSegment, error) {
	if !(binWidth > 0) || math.IsInf(binWidth, 1) {
		return []model.DominanceSegment{}, ErrInvalidBinWidth
	}
	refSamples := orderedByDistance(ref.Samples)
	secSamples := orderedByDistance(sec.Samples)

	ret := []model.DominanceSegment{}
	n, err := binCount(maxDistanceOf(refSamples), binWidth)
	if err != nil {
		return ret, err
	}
	var last *model.Point

	for k := range n {
		start := float64(k) * binWidth
		end := start + binWidth
		refBin := binSamples(refSamples, start, end)
		secBin := binSamples(secSamples, start, end)
		if len(refBin) == 0 || len(secBin) == 0 {
			continue
		}
		speedRef, ok := meanSpeed(refBin)
		if !ok {
			continue
		}
		speedSec, ok := meanSpeed(secBin)
		if !ok {
			continue
		}

		faster := sec.Driver
		if speedRef > speedSec {
			faster = ref.Driver
		}

		points := make([]model.Point, 0, len(refBin)+1)
		if last != nil {
			points = append(points, *last)
		}
		for i := range refBin {
			points = append(points, model.Point{X: refBin[i].X, Y: refBin[i].Y})
		}
		lastPoint := points[len(points)-1]
		last = &lastPoint

		ret = append(ret, model.DominanceSegment{
			Points:       points,
			Color:        colors[faster],
			FasterDriver: faster,
		})
	}
	if len(ret) == 0 {
		return ret, ErrNoOverlappingData
	}
	return ret, nil
}

// NumBins returns the number of bins considered for a lap of maxDistance.
// It is 0 for widths ComputeSegments rejects.
func NumBins(maxDistance, binWidth float64) int {
	n, err := binCount(maxDistance, binWidth)
	if err != nil {
		return 0
	}
	return n
}

// binCount covers [0,maxDistance) with bins of binWidth.
// More than MaxBins bins are rejected as ErrInvalidBinWidth.
func binCount(maxDistance, binWidth float64) (int, error) {
	if !(binWidth > 0) || math.IsInf(binWidth, 1) {
		return 0, ErrInvalidBinWidth
	}
	if !(maxDistance > 0) {
		return 0, nil
	}
	bins := math.Ceil(maxDistance / binWidth)
	if !(bins <= MaxBins) {
		return 0, ErrInvalidBinWidth
	}
	return int(bins), nil
}

// Summarize counts the segments won by each driver
//
//nolint:whitespace // editor/linter issue
func Summarize(
	segments []model.DominanceSegment, ref, sec string, numBins int,
) model.DominanceSummary {
	ret := model.DominanceSummary{
		Segments:  len(segments),
		Reference: model.DriverShare{Driver: ref},
		Secondary: model.DriverShare{Driver: sec},
		Skipped:   max(numBins-len(segments), 0),
	}
	for i := range segments {
		switch segments[i].FasterDriver {
		case ref:
			ret.Reference.Bins++
		case sec:
			ret.Secondary.Bins++
		}
	}
	if len(segments) > 0 {
		ret.Reference.Share = float64(ret.Reference.Bins) / float64(len(segments))
		ret.Secondary.Share = float64(ret.Secondary.Bins) / float64(len(segments))
	}
	return ret
}

// orderedByDistance drops samples without a finite distance and returns the
// samples ordered by distance. Samples with equal distance keep their order.
func orderedByDistance(samples []model.TelemetrySample) []model.TelemetrySample {
	valid := true
	for i := range samples {
		if !isFinite(samples[i].Distance) {
			valid = false
			break
		}
	}
	cmpDist := func(a, b model.TelemetrySample) int { return cmp.Compare(a.Distance, b.Distance) }
	if valid && slices.IsSortedFunc(samples, cmpDist) {
		return samples
	}
	ret := make([]model.TelemetrySample, 0, len(samples))
	for i := range samples {
		if isFinite(samples[i].Distance) {
			ret = append(ret, samples[i])
		}
	}
	slices.SortStableFunc(ret, cmpDist)
	return ret
}

func maxDistanceOf(samples []model.TelemetrySample) float64 {
	if len(samples) == 0 {
		return 0
	}
	return samples[len(samples)-1].Distance
}

// binSamples returns the samples within [start,end). samples must be ordered.
func binSamples(samples []model.TelemetrySample, start, end float64) []model.TelemetrySample {
	from := sort.Search(len(samples), func(i int) bool { return samples[i].Distance >= start })
	to := sort.Search(len(samples), func(i int) bool { return samples[i].Distance >= end })
	return samples[from:to]
}

// meanSpeed ignores non-finite values. ok is false if no finite value exists.
func meanSpeed(samples []model.TelemetrySample) (mean float64, ok bool) {
	speeds := make([]float64, 0, len(samples))
	for i := range samples {
		if isFinite(samples[i].Speed) {
			speeds = append(speeds, samples[i].Speed)
		}
	}
	if len(speeds) == 0 {
		return 0, false
	}
	mean = stat.Mean(speeds, nil)
	return mean, isFinite(mean)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
