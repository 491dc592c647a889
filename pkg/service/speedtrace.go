package service

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/mpapenbr/track-dominance/log"
	"github.com/mpapenbr/track-dominance/pkg/model"
)

// used for drivers without a team color
const neutralColor = "#808080"

type (
	SpeedTraceOption  func(*SpeedTraceService)
	SpeedTraceService struct {
		source      Source
		lapNumbers  []int
		concurrency int
		log         *log.Logger
	}
)

// WithLapNumbers restricts the traces to the given laps
func WithLapNumbers(laps ...int) SpeedTraceOption {
	return func(s *SpeedTraceService) {
		s.lapNumbers = laps
	}
}

func WithConcurrency(n int) SpeedTraceOption {
	return func(s *SpeedTraceService) {
		s.concurrency = n
	}
}

func WithSpeedTraceLogger(l *log.Logger) SpeedTraceOption {
	return func(s *SpeedTraceService) {
		s.log = l
	}
}

func NewSpeedTraceService(source Source, opts ...SpeedTraceOption) *SpeedTraceService {
	ret := &SpeedTraceService{
		source:      source,
		concurrency: 4,
		log:         log.Default().Named("service.speedtrace"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Compute collects the speed over distance of every driver for each lap number.
// Laps whose telemetry can't be fetched are skipped and recorded in
// SpeedTrace.Skipped. Only a cancelled context fails the whole run.
//
//nolint:funlen // ok
func (s *SpeedTraceService) Compute(ctx context.Context, sessionKey int) (*model.SpeedTrace, error) {
	ctx, span := tracer.Start(ctx, "speedtrace.compute",
		trace.WithAttributes(attribute.Int("session", sessionKey)))
	defer span.End()

	ret := &model.SpeedTrace{Skipped: map[string]string{}}
	if si, ok := s.source.(SessionInfoSource); ok {
		m, sess, err := si.SessionInfo(ctx, sessionKey)
		if err != nil {
			s.log.Warn("no session info", log.Int("session", sessionKey), log.ErrorField(err))
		}
		ret.Meeting, ret.Session = m, sess
	}

	drivers, err := s.source.Drivers(ctx, sessionKey)
	if err != nil {
		return nil, fmt.Errorf("drivers of session %d: %w", sessionKey, err)
	}
	laps, err := s.source.Laps(ctx, sessionKey)
	if err != nil {
		return nil, fmt.Errorf("laps of session %d: %w", sessionKey, err)
	}
	styles := lineStyles(drivers)

	byLap := lo.GroupBy(laps, func(l model.Lap) int { return l.LapNumber })
	lapNumbers := s.lapNumbers
	if len(lapNumbers) == 0 {
		lapNumbers = slices.Sorted(maps.Keys(byLap))
	}

	var mu sync.Mutex
	lines := map[int][]model.SpeedTraceLine{}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.concurrency, 1))
	for _, num := range lapNumbers {
		for _, lap := range byLap[num] {
			g.Go(func() error {
				tr, err := s.source.FastestLapTelemetry(gctx, sessionKey, lap)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					key := fmt.Sprintf("%s lap %d", lap.Driver, lap.LapNumber)
					ret.Skipped[key] = err.Error()
					s.log.Warn("skipping driver",
						log.String("driver", lap.Driver),
						log.Int("lap", lap.LapNumber),
						log.ErrorField(err))
					return nil
				}
				st := styles.of(lap.Driver)
				lines[num] = append(lines[num], model.SpeedTraceLine{
					Driver:  lap.Driver,
					Color:   st.color,
					Dashed:  st.dashed,
					Samples: tr.Samples,
				})
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, num := range lapNumbers {
		if len(lines[num]) == 0 {
			continue
		}
		ordered := lines[num]
		slices.SortFunc(ordered, func(a, b model.SpeedTraceLine) int {
			return styles.of(a.Driver).order - styles.of(b.Driver).order
		})
		ret.Laps = append(ret.Laps, model.SpeedTraceLap{LapNumber: num, Lines: ordered})
	}
	return ret, nil
}

type (
	lineStyle struct {
		color  string
		dashed bool
		order  int
	}
	styleMap map[string]lineStyle
)

// unknown drivers are drawn last in a neutral color
func (m styleMap) of(driver string) lineStyle {
	if st, ok := m[driver]; ok {
		return st
	}
	return lineStyle{color: neutralColor, order: len(m)}
}

// lineStyles assigns the team color to each driver. The second driver of a
// team (in driver list order) is drawn dashed.
func lineStyles(drivers []model.Driver) styleMap {
	ret := styleMap{}
	seenTeams := map[string]bool{}
	for i := range drivers {
		d := &drivers[i]
		color := d.TeamColor
		if color == "" {
			color = neutralColor
		}
		st := lineStyle{color: color, order: i}
		if d.Team != "" {
			st.dashed = seenTeams[d.Team]
			seenTeams[d.Team] = true
		}
		ret[d.Acronym] = st
	}
	return ret
}
