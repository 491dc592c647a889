package model

import "time"

type Lap struct {
	Driver       string        `json:"driver"`
	DriverNumber int           `json:"driverNumber"`
	Team         string        `json:"team"`
	LapNumber    int           `json:"lapNumber"`
	LapTime      time.Duration `json:"lapTime"` // 0 if the lap has no valid time
	DateStart    time.Time     `json:"dateStart"`
	PitOut       bool          `json:"pitOut"`
	PitIn        bool          `json:"pitIn"`
	Caution      bool          `json:"caution"`
	Deleted      bool          `json:"deleted"`
	// position of the lap in the order delivered by the source
	Sequence int `json:"sequence"`
}

// HasTime reports whether the lap carries a usable lap time.
func (l *Lap) HasTime() bool {
	return l.LapTime > 0
}
