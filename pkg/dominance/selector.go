package dominance

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/mpapenbr/track-dominance/pkg/model"
)

// DefaultQuickLapThreshold keeps laps within 107% of the session's fastest lap.
const DefaultQuickLapThreshold = 1.07

type (
	Selection struct {
		Reference model.Lap // fastest lap of the session
		Secondary model.Lap // fastest lap of any other driver
	}
	SelectOption func(*selectConfig)
	selectConfig struct {
		threshold float64
	}
)

// WithQuickLapThreshold sets the factor applied to the session's fastest lap.
// Laps slower than factor*fastest are not eligible. A value <= 0 disables the check.
func WithQuickLapThreshold(factor float64) SelectOption {
	return func(c *selectConfig) {
		c.threshold = factor
	}
}

// SelectDrivers picks the two drivers to compare. Each driver is reduced to
// the fastest of their eligible laps, so a driver can't occupy both slots.
func SelectDrivers(laps []model.Lap, opts ...SelectOption) (*Selection, error) {
	cfg := &selectConfig{threshold: DefaultQuickLapThreshold}
	for _, opt := range opts {
		opt(cfg)
	}

	eligible := QuickLaps(laps, cfg.threshold)
	byDriver := lo.GroupBy(eligible, func(l model.Lap) string { return l.Driver })
	best := lo.MapToSlice(byDriver, func(_ string, driverLaps []model.Lap) model.Lap {
		return lo.MinBy(driverLaps, func(a, b model.Lap) bool {
			return compareLaps(a, b) < 0
		})
	})
	if len(best) < 2 {
		return nil, ErrInsufficientData
	}
	slices.SortFunc(best, compareLaps)
	return &Selection{Reference: best[0], Secondary: best[1]}, nil
}

// QuickLaps returns the laps which may be used for comparison.
// In/out laps, laps under caution, deleted laps and laps without time are
// dropped. If threshold > 0 laps slower than threshold*fastest are dropped too.
func QuickLaps(laps []model.Lap, threshold float64) []model.Lap {
	ret := lo.Filter(laps, func(l model.Lap, _ int) bool {
		return l.Driver != "" && l.HasTime() && !l.PitOut && !l.PitIn && !l.Caution && !l.Deleted
	})
	if threshold <= 0 || len(ret) == 0 {
		return ret
	}
	fastest := lo.MinBy(ret, func(a, b model.Lap) bool { return a.LapTime < b.LapTime })
	limit := time.Duration(float64(fastest.LapTime) * threshold)
	return lo.Filter(ret, func(l model.Lap, _ int) bool { return l.LapTime <= limit })
}

// equal lap times are resolved by source order, then driver number, then driver id
func compareLaps(a, b model.Lap) int {
	return cmp.Or(
		cmp.Compare(a.LapTime, b.LapTime),
		cmp.Compare(a.Sequence, b.Sequence),
		cmp.Compare(a.DriverNumber, b.DriverNumber),
		strings.Compare(a.Driver, b.Driver),
	)
}
