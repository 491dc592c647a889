package model

import "time"

type Meeting struct {
	Key          int       `json:"key"`
	Year         int       `json:"year"`
	Round        int       `json:"round"`
	Name         string    `json:"name"`
	OfficialName string    `json:"officialName"`
	Location     string    `json:"location"`
	Country      string    `json:"country"`
	Circuit      string    `json:"circuit"`
	DateStart    time.Time `json:"dateStart"`
}

type Session struct {
	Key        int       `json:"key"`
	MeetingKey int       `json:"meetingKey"`
	Name       string    `json:"name"` // "Practice 1", "Qualifying", "Race", ...
	Type       string    `json:"type"`
	DateStart  time.Time `json:"dateStart"`
	DateEnd    time.Time `json:"dateEnd"`
}

type Driver struct {
	Number    int    `json:"number"`
	Acronym   string `json:"acronym"`
	FullName  string `json:"fullName"`
	Team      string `json:"team"`
	TeamColor string `json:"teamColor"` // #RRGGBB, empty if unknown
}
