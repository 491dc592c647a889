package openf1

import (
	"strings"
	"time"

	"github.com/mpapenbr/track-dominance/pkg/model"
)

// raw response types of the OpenF1 api
//
//nolint:tagliatelle // json is that way
type (
	Meeting struct {
		MeetingKey          int       `json:"meeting_key"`
		MeetingName         string    `json:"meeting_name"`
		MeetingOfficialName string    `json:"meeting_official_name"`
		Location            string    `json:"location"`
		CountryName         string    `json:"country_name"`
		CircuitShortName    string    `json:"circuit_short_name"`
		DateStart           time.Time `json:"date_start"`
		Year                int       `json:"year"`
	}
	Session struct {
		SessionKey  int       `json:"session_key"`
		MeetingKey  int       `json:"meeting_key"`
		SessionName string    `json:"session_name"`
		SessionType string    `json:"session_type"`
		DateStart   time.Time `json:"date_start"`
		DateEnd     time.Time `json:"date_end"`
		Year        int       `json:"year"`
	}
	Driver struct {
		DriverNumber int    `json:"driver_number"`
		NameAcronym  string `json:"name_acronym"`
		FullName     string `json:"full_name"`
		TeamName     string `json:"team_name"`
		TeamColour   string `json:"team_colour"`
		SessionKey   int    `json:"session_key"`
	}
	Lap struct {
		DriverNumber int        `json:"driver_number"`
		LapNumber    int        `json:"lap_number"`
		LapDuration  *float64   `json:"lap_duration"`
		IsPitOutLap  bool       `json:"is_pit_out_lap"`
		DateStart    *time.Time `json:"date_start"`
		SessionKey   int        `json:"session_key"`
	}
	Pit struct {
		DriverNumber int       `json:"driver_number"`
		LapNumber    int       `json:"lap_number"`
		Date         time.Time `json:"date"`
		PitDuration  *float64  `json:"pit_duration"`
	}
	RaceControl struct {
		Category     string    `json:"category"`
		Date         time.Time `json:"date"`
		DriverNumber *int      `json:"driver_number"`
		Flag         string    `json:"flag"`
		LapNumber    *int      `json:"lap_number"`
		Message      string    `json:"message"`
		Scope        string    `json:"scope"`
	}
	CarData struct {
		Date         time.Time `json:"date"`
		DriverNumber int       `json:"driver_number"`
		Speed        float64   `json:"speed"`
		Throttle     float64   `json:"throttle"`
		Brake        float64   `json:"brake"`
		NGear        int       `json:"n_gear"`
		RPM          float64   `json:"rpm"`
		DRS          int       `json:"drs"`
	}
	Location struct {
		Date         time.Time `json:"date"`
		DriverNumber int       `json:"driver_number"`
		X            float64   `json:"x"`
		Y            float64   `json:"y"`
		Z            float64   `json:"z"`
	}
)

func (m *Meeting) IsTesting() bool {
	return strings.Contains(strings.ToLower(m.MeetingName), "testing")
}

func (m *Meeting) toModel(round int) model.Meeting {
	return model.Meeting{
		Key:          m.MeetingKey,
		Year:         m.Year,
		Round:        round,
		Name:         m.MeetingName,
		OfficialName: m.MeetingOfficialName,
		Location:     m.Location,
		Country:      m.CountryName,
		Circuit:      m.CircuitShortName,
		DateStart:    m.DateStart,
	}
}

func (s *Session) toModel() model.Session {
	return model.Session{
		Key:        s.SessionKey,
		MeetingKey: s.MeetingKey,
		Name:       s.SessionName,
		Type:       s.SessionType,
		DateStart:  s.DateStart,
		DateEnd:    s.DateEnd,
	}
}

func (d *Driver) toModel() model.Driver {
	return model.Driver{
		Number:    d.DriverNumber,
		Acronym:   d.NameAcronym,
		FullName:  d.FullName,
		Team:      d.TeamName,
		TeamColor: NormalizeColor(d.TeamColour),
	}
}

// NormalizeColor converts the api's "3671C6" into "#3671C6".
// Empty values stay empty.
func NormalizeColor(c string) string {
	c = strings.TrimSpace(c)
	if c == "" {
		return ""
	}
	return "#" + strings.ToUpper(strings.TrimPrefix(c, "#"))
}

// lapDuration converts seconds to a time.Duration with millisecond precision
func lapDuration(secs *float64) time.Duration {
	if secs == nil || *secs <= 0 {
		return 0
	}
	return time.Duration(*secs*1000+0.5) * time.Millisecond
}
