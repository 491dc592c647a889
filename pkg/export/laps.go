// Package export writes session data in formats for external tools.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/mpapenbr/track-dominance/pkg/model"
)

var lapHeader = []string{
	"Driver", "DriverNumber", "Team", "LapNumber", "LapTime", "LapTimeSeconds",
	"PitOut", "PitIn", "Caution", "Deleted",
}

// LapsCSV writes one row per lap. Laps without a time have empty time columns.
func LapsCSV(w io.Writer, laps []model.Lap) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(lapHeader); err != nil {
		return err
	}
	for i := range laps {
		if err := cw.Write(lapRecord(&laps[i])); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func lapRecord(l *model.Lap) []string {
	lapTime, seconds := "", ""
	if l.HasTime() {
		lapTime = FormatLapTime(l)
		seconds = decimal.NewFromInt(l.LapTime.Milliseconds()).Shift(-3).StringFixed(3)
	}
	return []string{
		l.Driver,
		strconv.Itoa(l.DriverNumber),
		l.Team,
		strconv.Itoa(l.LapNumber),
		lapTime,
		seconds,
		strconv.FormatBool(l.PitOut),
		strconv.FormatBool(l.PitIn),
		strconv.FormatBool(l.Caution),
		strconv.FormatBool(l.Deleted),
	}
}

// FormatLapTime returns m:ss.SSS
func FormatLapTime(l *model.Lap) string {
	ms := l.LapTime.Milliseconds()
	return fmt.Sprintf("%d:%02d.%03d", ms/60000, ms/1000%60, ms%1000)
}
