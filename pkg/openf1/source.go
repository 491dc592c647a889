package openf1

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/mpapenbr/track-dominance/log"
	"github.com/mpapenbr/track-dominance/pkg/model"
	"github.com/mpapenbr/track-dominance/pkg/telemetry"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrLapNotTimed  = errors.New("lap has no start time or duration")
	deletedLapRegex = regexp.MustCompile(
		`^CAR (\d+) \(\w+\) (?:LAP )?TIME [0-9:.]+ DELETED.*\bLAP (\d+)\b`)
)

// telemetry windows are padded so the first and last samples of a lap are included
const windowPadding = 250 * time.Millisecond

// Source provides the session data in terms of the model package.
type Source struct {
	client *Client
	log    *log.Logger
}

func NewSource(c *Client) *Source {
	return &Source{client: c, log: log.Default().Named("openf1.source")}
}

// Meetings returns the meetings of a year (without testing) ordered by date.
// Round numbers are assigned in that order.
func (s *Source) Meetings(ctx context.Context, year int) ([]model.Meeting, error) {
	raw, err := s.client.Meetings(ctx, year)
	if err != nil {
		return nil, err
	}
	raw = lo.Filter(raw, func(m Meeting, _ int) bool { return !m.IsTesting() })
	slices.SortStableFunc(raw, func(a, b Meeting) int { return a.DateStart.Compare(b.DateStart) })
	ret := make([]model.Meeting, len(raw))
	for i := range raw {
		ret[i] = raw[i].toModel(i + 1)
	}
	return ret, nil
}

// FindMeeting resolves a meeting by round number (round > 0) or by a
// case-insensitive part of its name, location or country.
func (s *Source) FindMeeting(ctx context.Context, year, round int, name string) (*model.Meeting, error) {
	meetings, err := s.Meetings(ctx, year)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(name))
	m, ok := lo.Find(meetings, func(m model.Meeting) bool {
		if round > 0 {
			return m.Round == round
		}
		return needle != "" && (strings.Contains(strings.ToLower(m.Name), needle) ||
			strings.Contains(strings.ToLower(m.Location), needle) ||
			strings.Contains(strings.ToLower(m.Country), needle))
	})
	if !ok {
		return nil, fmt.Errorf("meeting year=%d round=%d name=%q: %w", year, round, name, ErrNotFound)
	}
	return &m, nil
}

func (s *Source) Sessions(ctx context.Context, meetingKey int) ([]model.Session, error) {
	raw, err := s.client.Sessions(ctx, meetingKey)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(raw, func(a, b Session) int { return a.DateStart.Compare(b.DateStart) })
	return lo.Map(raw, func(item Session, _ int) model.Session { return item.toModel() }), nil
}

// SessionInfo returns the session and its meeting
func (s *Source) SessionInfo(ctx context.Context, sessionKey int) (*model.Meeting, *model.Session, error) {
	sessions, err := s.client.Session(ctx, sessionKey)
	if err != nil {
		return nil, nil, err
	}
	if len(sessions) == 0 {
		return nil, nil, fmt.Errorf("session %d: %w", sessionKey, ErrNotFound)
	}
	sess := sessions[0].toModel()
	meetings, err := s.Meetings(ctx, sessions[0].Year)
	if err != nil {
		return nil, nil, err
	}
	m, ok := lo.Find(meetings, func(m model.Meeting) bool { return m.Key == sess.MeetingKey })
	if !ok {
		return nil, &sess, fmt.Errorf("meeting %d: %w", sess.MeetingKey, ErrNotFound)
	}
	return &m, &sess, nil
}

func (s *Source) Drivers(ctx context.Context, sessionKey int) ([]model.Driver, error) {
	raw, err := s.client.Drivers(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	ret := lo.Map(raw, func(item Driver, _ int) model.Driver { return item.toModel() })
	// the api may list a driver more than once
	return lo.UniqBy(ret, func(d model.Driver) int { return d.Number }), nil
}

// Laps returns all laps of the session in api order.
// In-laps, caution laps and deleted laps are derived from the pit and race
// control data.
func (s *Source) Laps(ctx context.Context, sessionKey int) ([]model.Lap, error) {
	drivers, err := s.Drivers(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	laps, err := s.client.Laps(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	pits, err := s.client.Pits(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	rc, err := s.client.RaceControl(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	return BuildLaps(laps, drivers, pits, rc), nil
}

type lapKey struct{ driver, lap int }

// BuildLaps combines the raw lap data with driver info and derived lap flags.
//
//nolint:whitespace // editor/linter issue
func BuildLaps(
	laps []Lap, drivers []model.Driver, pits []Pit, rc []RaceControl,
) []model.Lap {
	byNumber := lo.KeyBy(drivers, func(d model.Driver) int { return d.Number })
	inLaps := lo.SliceToMap(pits, func(p Pit) (lapKey, bool) {
		return lapKey{p.DriverNumber, p.LapNumber}, true
	})
	deleted := deletedLaps(rc)
	cautions := cautionPeriods(rc)

	ret := make([]model.Lap, 0, len(laps))
	for i := range laps {
		l := &laps[i]
		d := byNumber[l.DriverNumber]
		item := model.Lap{
			Driver:       d.Acronym,
			DriverNumber: l.DriverNumber,
			Team:         d.Team,
			LapNumber:    l.LapNumber,
			LapTime:      lapDuration(l.LapDuration),
			PitOut:       l.IsPitOutLap,
			PitIn:        inLaps[lapKey{l.DriverNumber, l.LapNumber}],
			Deleted:      deleted[lapKey{l.DriverNumber, l.LapNumber}],
			Sequence:     i + 1,
		}
		if item.Driver == "" {
			item.Driver = strconv.Itoa(l.DriverNumber)
		}
		if l.DateStart != nil {
			item.DateStart = *l.DateStart
			item.Caution = cautions.overlaps(item.DateStart, item.DateStart.Add(item.LapTime))
		}
		ret = append(ret, item)
	}
	return ret
}

// ParseDeletedLap extracts driver and lap number of a race control message
// like "CAR 44 (HAM) TIME 1:15.491 DELETED - TRACK LIMITS AT TURN 4 LAP 11 14:10:54"
func ParseDeletedLap(msg string) (driver, lap int, ok bool) {
	m := deletedLapRegex.FindStringSubmatch(strings.ToUpper(msg))
	if m == nil {
		return 0, 0, false
	}
	driver, _ = strconv.Atoi(m[1])
	lap, _ = strconv.Atoi(m[2])
	return driver, lap, true
}

func deletedLaps(rc []RaceControl) map[lapKey]bool {
	ret := map[lapKey]bool{}
	for i := range rc {
		if d, l, ok := ParseDeletedLap(rc[i].Message); ok {
			ret[lapKey{d, l}] = true
		}
	}
	return ret
}

type (
	period  struct{ from, to time.Time }
	periods []period
)

func (p periods) overlaps(from, to time.Time) bool {
	if !to.After(from) {
		return false
	}
	return slices.ContainsFunc(p, func(item period) bool {
		return item.from.Before(to) && item.to.After(from)
	})
}

// cautionPeriods collects the time ranges with track wide yellow or red flags
// or an active safety car. A period ends with the next green/clear flag or
// "IN THIS LAP" safety car message.
func cautionPeriods(rc []RaceControl) periods {
	msgs := slices.Clone(rc)
	slices.SortStableFunc(msgs, func(a, b RaceControl) int { return a.Date.Compare(b.Date) })

	var ret periods
	var open *time.Time
	closePeriod := func(at time.Time) {
		if open != nil {
			ret = append(ret, period{*open, at})
			open = nil
		}
	}
	for i := range msgs {
		m := &msgs[i]
		switch {
		case isCautionStart(m):
			if open == nil {
				open = &m.Date
			}
		case isCautionEnd(m):
			closePeriod(m.Date)
		}
	}
	if open != nil {
		ret = append(ret, period{*open, open.Add(24 * time.Hour)})
	}
	return ret
}

func isCautionStart(m *RaceControl) bool {
	msg := strings.ToUpper(m.Message)
	switch m.Category {
	case "Flag":
		return strings.EqualFold(m.Scope, "Track") &&
			lo.Contains([]string{"YELLOW", "DOUBLE YELLOW", "RED"}, strings.ToUpper(m.Flag))
	case "SafetyCar":
		return strings.Contains(msg, "DEPLOYED")
	}
	return false
}

func isCautionEnd(m *RaceControl) bool {
	msg := strings.ToUpper(m.Message)
	switch m.Category {
	case "Flag":
		return strings.EqualFold(m.Scope, "Track") &&
			lo.Contains([]string{"GREEN", "CLEAR"}, strings.ToUpper(m.Flag))
	case "SafetyCar":
		return strings.Contains(msg, "IN THIS LAP") || strings.Contains(msg, "ENDING")
	}
	return false
}

// FastestLapTelemetry returns the distance indexed trace of the given lap.
func (s *Source) FastestLapTelemetry(ctx context.Context, sessionKey int, lap model.Lap) (
	model.TelemetryTrace, error,
) {
	return s.LapTelemetry(ctx, sessionKey, lap)
}

// LapTelemetry fetches car and position data of the lap's time window and merges them.
func (s *Source) LapTelemetry(ctx context.Context, sessionKey int, lap model.Lap) (
	model.TelemetryTrace, error,
) {
	if lap.DateStart.IsZero() || !lap.HasTime() {
		return model.TelemetryTrace{Driver: lap.Driver},
			fmt.Errorf("%s lap %d: %w", lap.Driver, lap.LapNumber, ErrLapNotTimed)
	}
	from := lap.DateStart.Add(-windowPadding)
	to := lap.DateStart.Add(lap.LapTime + windowPadding)

	car, err := s.client.CarData(ctx, sessionKey, lap.DriverNumber, from, to)
	if err != nil {
		return model.TelemetryTrace{Driver: lap.Driver}, err
	}
	loc, err := s.client.Location(ctx, sessionKey, lap.DriverNumber, from, to)
	if err != nil {
		return model.TelemetryTrace{Driver: lap.Driver}, err
	}
	// only samples within the lap contribute to the distance
	inLap := func(t time.Time) bool {
		return !t.Before(lap.DateStart) && !t.After(lap.DateStart.Add(lap.LapTime))
	}
	carSamples := lo.FilterMap(car, func(c CarData, _ int) (telemetry.CarSample, bool) {
		return telemetry.CarSample{Date: c.Date, Speed: c.Speed}, inLap(c.Date)
	})
	posSamples := lo.Map(loc, func(l Location, _ int) telemetry.PosSample {
		return telemetry.PosSample{Date: l.Date, X: l.X, Y: l.Y}
	})
	s.log.Debug("lap telemetry",
		log.String("driver", lap.Driver),
		log.Int("lap", lap.LapNumber),
		log.Int("car", len(carSamples)),
		log.Int("pos", len(posSamples)))

	trace, err := telemetry.Merge(lap.Driver, carSamples, posSamples)
	if err != nil {
		return trace, fmt.Errorf("%s lap %d: %w", lap.Driver, lap.LapNumber, err)
	}
	return trace, nil
}

// ByLapNumber groups laps by lap number, each group in source order
func ByLapNumber(laps []model.Lap) map[int][]model.Lap {
	ret := lo.GroupBy(laps, func(l model.Lap) int { return l.LapNumber })
	for k := range ret {
		slices.SortStableFunc(ret[k], func(a, b model.Lap) int {
			return cmp.Compare(a.Sequence, b.Sequence)
		})
	}
	return ret
}
