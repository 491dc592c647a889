package openf1

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/track-dominance/pkg/model"
)

var t0 = time.Date(2024, 3, 2, 15, 0, 0, 0, time.UTC)

func secs(f float64) *float64 { return &f }

func at(d time.Duration) *time.Time {
	t := t0.Add(d)
	return &t
}

func TestParseDeletedLap(t *testing.T) {
	tests := []struct {
		name   string
		msg    string
		driver int
		lap    int
		ok     bool
	}{
		{
			name:   "track limits",
			msg:    "CAR 44 (HAM) TIME 1:15.491 DELETED - TRACK LIMITS AT TURN 4 LAP 11 14:10:54",
			driver: 44, lap: 11, ok: true,
		},
		{
			name:   "lap time wording",
			msg:    "CAR 1 (VER) LAP TIME 1:31.002 DELETED - TRACK LIMITS AT TURN 19 LAP 3 15:22:10",
			driver: 1, lap: 3, ok: true,
		},
		{name: "unrelated", msg: "GREEN LIGHT - PIT EXIT OPEN"},
		{name: "reinstated", msg: "CAR 44 (HAM) TIME 1:15.491 REINSTATED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			driver, lap, ok := ParseDeletedLap(tt.msg)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.driver, driver)
			assert.Equal(t, tt.lap, lap)
		})
	}
}

func TestBuildLaps(t *testing.T) {
	drivers := []model.Driver{
		{Number: 1, Acronym: "VER", Team: "Red Bull Racing"},
		{Number: 16, Acronym: "LEC", Team: "Ferrari"},
	}
	laps := []Lap{
		{DriverNumber: 1, LapNumber: 1, IsPitOutLap: true, DateStart: at(0), LapDuration: secs(95.5)},
		{DriverNumber: 16, LapNumber: 1, DateStart: at(0), LapDuration: secs(96.1)},
		{DriverNumber: 1, LapNumber: 2, DateStart: at(100 * time.Second), LapDuration: secs(91.234)},
		{DriverNumber: 16, LapNumber: 2, DateStart: at(100 * time.Second), LapDuration: secs(91.5)},
		{DriverNumber: 1, LapNumber: 3, DateStart: at(200 * time.Second)},
		{DriverNumber: 99, LapNumber: 1, DateStart: at(0), LapDuration: secs(100)},
	}
	pits := []Pit{{DriverNumber: 16, LapNumber: 2}}
	rc := []RaceControl{
		{Category: "Other", Date: t0, Message: "CAR 16 (LEC) TIME 1:31.500 DELETED - TRACK LIMITS AT TURN 4 LAP 2 15:01:50"},
		{Category: "Flag", Scope: "Track", Flag: "YELLOW", Date: t0.Add(300 * time.Second)},
		{Category: "Flag", Scope: "Track", Flag: "CLEAR", Date: t0.Add(310 * time.Second)},
	}

	got := BuildLaps(laps, drivers, pits, rc)
	want := []model.Lap{
		{
			Driver: "VER", DriverNumber: 1, Team: "Red Bull Racing", LapNumber: 1,
			LapTime: 95500 * time.Millisecond, DateStart: t0, PitOut: true, Sequence: 1,
		},
		{
			Driver: "LEC", DriverNumber: 16, Team: "Ferrari", LapNumber: 1,
			LapTime: 96100 * time.Millisecond, DateStart: t0, Sequence: 2,
		},
		{
			Driver: "VER", DriverNumber: 1, Team: "Red Bull Racing", LapNumber: 2,
			LapTime: 91234 * time.Millisecond, DateStart: t0.Add(100 * time.Second), Sequence: 3,
		},
		{
			Driver: "LEC", DriverNumber: 16, Team: "Ferrari", LapNumber: 2,
			LapTime: 91500 * time.Millisecond, DateStart: t0.Add(100 * time.Second),
			PitIn: true, Deleted: true, Sequence: 4,
		},
		{
			Driver: "VER", DriverNumber: 1, Team: "Red Bull Racing", LapNumber: 3,
			DateStart: t0.Add(200 * time.Second), Sequence: 5,
		},
		{
			Driver: "99", DriverNumber: 99, LapNumber: 1,
			LapTime: 100 * time.Second, DateStart: t0, Sequence: 6,
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("BuildLaps() mismatch (-want +got):\n%s", diff)
	}
}

func TestCautionPeriods(t *testing.T) {
	rc := []RaceControl{
		{Category: "SafetyCar", Date: t0.Add(50 * time.Second), Message: "SAFETY CAR DEPLOYED"},
		{Category: "Flag", Scope: "Sector", Flag: "YELLOW", Date: t0.Add(10 * time.Second)},
		{Category: "SafetyCar", Date: t0.Add(200 * time.Second), Message: "SAFETY CAR IN THIS LAP"},
		{Category: "Flag", Scope: "Track", Flag: "RED", Date: t0.Add(400 * time.Second)},
	}
	p := cautionPeriods(rc)
	require.Len(t, p, 2)

	tests := []struct {
		name     string
		from, to time.Duration
		want     bool
	}{
		{"before", 0, 40 * time.Second, false},
		{"sector yellow only", 5 * time.Second, 20 * time.Second, false},
		{"overlaps safety car start", 40 * time.Second, 60 * time.Second, true},
		{"inside safety car", 100 * time.Second, 150 * time.Second, true},
		{"between", 210 * time.Second, 390 * time.Second, false},
		{"open red flag", 500 * time.Second, 600 * time.Second, true},
		{"empty interval", 100 * time.Second, 100 * time.Second, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.overlaps(t0.Add(tt.from), t0.Add(tt.to)))
		})
	}
}

func TestByLapNumber(t *testing.T) {
	laps := []model.Lap{
		{Driver: "B", LapNumber: 1, Sequence: 2},
		{Driver: "A", LapNumber: 1, Sequence: 1},
		{Driver: "A", LapNumber: 2, Sequence: 3},
	}
	got := ByLapNumber(laps)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"A", "B"}, []string{got[1][0].Driver, got[1][1].Driver})
	assert.Len(t, got[2], 1)
}

func newTestSource(t *testing.T, responses map[string]string) *Source {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := responses[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewSource(New(WithBaseURL(srv.URL)))
}

const meetingsJSON = `[
 {"meeting_key":1229,"meeting_name":"Bahrain Grand Prix","location":"Sakhir",
  "country_name":"Bahrain","date_start":"2024-02-29T11:30:00+00:00","year":2024},
 {"meeting_key":1228,"meeting_name":"Pre-Season Testing","location":"Sakhir",
  "country_name":"Bahrain","date_start":"2024-02-21T07:00:00+00:00","year":2024},
 {"meeting_key":1230,"meeting_name":"Saudi Arabian Grand Prix","location":"Jeddah",
  "country_name":"Saudi Arabia","date_start":"2024-03-07T13:30:00+00:00","year":2024}
]`

func TestSource_Meetings(t *testing.T) {
	s := newTestSource(t, map[string]string{"/meetings": meetingsJSON})
	got, err := s.Meetings(context.Background(), 2024)
	require.NoError(t, err)

	type item struct {
		Key   int
		Round int
	}
	want := []item{{1229, 1}, {1230, 2}}
	gotItems := make([]item, len(got))
	for i := range got {
		gotItems[i] = item{got[i].Key, got[i].Round}
	}
	assert.Equal(t, want, gotItems)
}

func TestSource_FindMeeting(t *testing.T) {
	s := newTestSource(t, map[string]string{"/meetings": meetingsJSON})
	ctx := context.Background()

	m, err := s.FindMeeting(ctx, 2024, 2, "")
	require.NoError(t, err)
	assert.Equal(t, 1230, m.Key)

	m, err = s.FindMeeting(ctx, 2024, 0, "bahrain")
	require.NoError(t, err)
	assert.Equal(t, 1229, m.Key)

	m, err = s.FindMeeting(ctx, 2024, 0, "jeddah")
	require.NoError(t, err)
	assert.Equal(t, 1230, m.Key)

	_, err = s.FindMeeting(ctx, 2024, 7, "")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSource_Drivers(t *testing.T) {
	s := newTestSource(t, map[string]string{"/drivers": `[
		{"driver_number":1,"name_acronym":"VER","team_name":"Red Bull Racing","team_colour":"3671C6"},
		{"driver_number":1,"name_acronym":"VER","team_name":"Red Bull Racing","team_colour":"3671C6"},
		{"driver_number":16,"name_acronym":"LEC","team_name":"Ferrari","team_colour":"e8002d"}
	]`})
	got, err := s.Drivers(context.Background(), 9472)
	require.NoError(t, err)
	want := []model.Driver{
		{Number: 1, Acronym: "VER", Team: "Red Bull Racing", TeamColor: "#3671C6"},
		{Number: 16, Acronym: "LEC", Team: "Ferrari", TeamColor: "#E8002D"},
	}
	assert.Equal(t, want, got)
}

func TestSource_LapTelemetry(t *testing.T) {
	s := newTestSource(t, map[string]string{
		"/car_data": `[
			{"date":"2024-03-02T14:59:59.900000+00:00","speed":100},
			{"date":"2024-03-02T15:00:00.000000+00:00","speed":180},
			{"date":"2024-03-02T15:00:01.000000+00:00","speed":180},
			{"date":"2024-03-02T15:00:02.000000+00:00","speed":180}
		]`,
		"/location": `[
			{"date":"2024-03-02T15:00:00.000000+00:00","x":0,"y":0},
			{"date":"2024-03-02T15:00:02.000000+00:00","x":100,"y":0}
		]`,
	})
	lap := model.Lap{Driver: "VER", DriverNumber: 1, LapNumber: 5, DateStart: t0, LapTime: 2 * time.Second}
	got, err := s.LapTelemetry(context.Background(), 9472, lap)
	require.NoError(t, err)

	want := model.TelemetryTrace{
		Driver: "VER",
		Samples: []model.TelemetrySample{
			{Distance: 0, Speed: 180, X: 0, Y: 0},
			{Distance: 50, Speed: 180, X: 50, Y: 0},
			{Distance: 100, Speed: 180, X: 100, Y: 0},
		},
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("LapTelemetry() mismatch (-want +got):\n%s", diff)
	}
}

func TestSource_LapTelemetry_Untimed(t *testing.T) {
	s := newTestSource(t, map[string]string{})
	_, err := s.LapTelemetry(context.Background(), 1, model.Lap{Driver: "VER", DateStart: t0})
	require.ErrorIs(t, err, ErrLapNotTimed)
}
