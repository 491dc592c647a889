package service

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/mpapenbr/track-dominance/log"
	"github.com/mpapenbr/track-dominance/pkg/dominance"
	"github.com/mpapenbr/track-dominance/pkg/model"
)

var tracer = otel.Tracer("github.com/mpapenbr/track-dominance/pkg/service")

type (
	Option           func(*DominanceService)
	DominanceService struct {
		source    Source
		threshold float64
		log       *log.Logger
	}
)

func WithQuickLapThreshold(factor float64) Option {
	return func(s *DominanceService) {
		s.threshold = factor
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *DominanceService) {
		s.log = l
	}
}

func NewDominanceService(source Source, opts ...Option) *DominanceService {
	ret := &DominanceService{
		source:    source,
		threshold: dominance.DefaultQuickLapThreshold,
		log:       log.Default().Named("service.dominance"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Compute runs the dominance analysis for the two fastest drivers of a session.
//
//nolint:funlen // sequence of steps
func (s *DominanceService) Compute(ctx context.Context, sessionKey int, binWidth float64) (
	*model.Result, error,
) {
	ctx, span := tracer.Start(ctx, "dominance.compute",
		trace.WithAttributes(
			attribute.Int("session", sessionKey),
			attribute.Float64("binWidth", binWidth)))
	defer span.End()

	ret := &model.Result{BinWidth: binWidth}
	s.sessionInfo(ctx, sessionKey, ret)

	sel, err := s.selectDrivers(ctx, sessionKey)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	ret.Reference = sel.Reference
	ret.Secondary = sel.Secondary

	drivers, err := s.source.Drivers(ctx, sessionKey)
	if err != nil {
		return nil, fmt.Errorf("drivers of session %d: %w", sessionKey, err)
	}
	colors := dominance.ResolveColors(sel.Reference.Driver, sel.Secondary.Driver,
		TeamColorLookup(drivers))
	for _, o := range colors.Fallbacks() {
		s.log.Warn("driver color not used",
			log.String("driver", o.Driver),
			log.String("status", o.Status.String()),
			log.ErrorField(o.Err))
	}
	ret.Legend = colors.Legend()

	refTrace, secTrace, err := s.traces(ctx, sessionKey, sel)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	_, segSpan := tracer.Start(ctx, "dominance.segments")
	segments, err := dominance.ComputeSegments(refTrace, secTrace, binWidth, colors.Map())
	segSpan.End()
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	ret.Segments = segments
	ret.Summary = dominance.Summarize(segments, refTrace.Driver, secTrace.Driver,
		dominance.NumBins(refTrace.MaxDistance(), binWidth))

	s.log.Info("dominance computed",
		log.Int("session", sessionKey),
		log.String("reference", sel.Reference.Driver),
		log.String("secondary", sel.Secondary.Driver),
		log.Int("segments", ret.Summary.Segments),
		log.Int("skipped", ret.Summary.Skipped))
	return ret, nil
}

func (s *DominanceService) sessionInfo(ctx context.Context, sessionKey int, r *model.Result) {
	si, ok := s.source.(SessionInfoSource)
	if !ok {
		return
	}
	m, sess, err := si.SessionInfo(ctx, sessionKey)
	if err != nil {
		s.log.Warn("no session info", log.Int("session", sessionKey), log.ErrorField(err))
	}
	r.Meeting = m
	r.Session = sess
}

func (s *DominanceService) selectDrivers(ctx context.Context, sessionKey int) (
	*dominance.Selection, error,
) {
	ctx, span := tracer.Start(ctx, "dominance.select")
	defer span.End()
	laps, err := s.source.Laps(ctx, sessionKey)
	if err != nil {
		return nil, fmt.Errorf("laps of session %d: %w", sessionKey, err)
	}
	sel, err := dominance.SelectDrivers(laps, dominance.WithQuickLapThreshold(s.threshold))
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("reference", sel.Reference.Driver),
		attribute.String("secondary", sel.Secondary.Driver))
	s.log.Debug("drivers selected",
		log.String("reference", sel.Reference.Driver),
		log.Duration("referenceTime", sel.Reference.LapTime),
		log.String("secondary", sel.Secondary.Driver),
		log.Duration("secondaryTime", sel.Secondary.LapTime))
	return sel, nil
}

// traces fetches both laps concurrently. The first error cancels the other request.
func (s *DominanceService) traces(ctx context.Context, sessionKey int, sel *dominance.Selection) (
	ref, sec model.TelemetryTrace, err error,
) {
	ctx, span := tracer.Start(ctx, "dominance.traces")
	defer span.End()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ref, err = s.source.FastestLapTelemetry(gctx, sessionKey, sel.Reference)
		if err != nil {
			return fmt.Errorf("telemetry of %s: %w", sel.Reference.Driver, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		sec, err = s.source.FastestLapTelemetry(gctx, sessionKey, sel.Secondary)
		if err != nil {
			return fmt.Errorf("telemetry of %s: %w", sel.Secondary.Driver, err)
		}
		return nil
	})
	if err = g.Wait(); err != nil {
		return ref, sec, err
	}
	// segments are attributed by these names
	ref.Driver = sel.Reference.Driver
	sec.Driver = sel.Secondary.Driver
	return ref, sec, nil
}

// TeamColorLookup returns a lookup resolving a driver acronym (or number)
// to the team color of that driver.
func TeamColorLookup(drivers []model.Driver) dominance.ColorLookup {
	return func(driver string) (string, error) {
		for i := range drivers {
			d := &drivers[i]
			if strings.EqualFold(d.Acronym, driver) || fmt.Sprint(d.Number) == driver {
				if d.TeamColor == "" {
					return "", fmt.Errorf("driver %s: %w", driver, dominance.ErrNoColor)
				}
				return d.TeamColor, nil
			}
		}
		return "", fmt.Errorf("unknown driver %s: %w", driver, dominance.ErrNoColor)
	}
}
