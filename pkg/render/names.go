// Package render draws dominance maps and speed traces as HTML (echarts)
// or PNG (gonum/plot).
package render

import (
	"fmt"
	"strings"

	"github.com/mpapenbr/track-dominance/pkg/model"
)

// DominanceTitle returns "Track Dominance: A vs B (YEAR EVENT)".
// The event part is omitted if the meeting is unknown.
func DominanceTitle(r *model.Result) string {
	ret := fmt.Sprintf("Track Dominance: %s vs %s", r.Reference.Driver, r.Secondary.Driver)
	if r.Meeting != nil {
		ret += fmt.Sprintf(" (%d %s)", r.Meeting.Year, r.Meeting.Name)
	}
	return ret
}

// DominanceFilename returns Dominance_<A>_vs_<B>_<year>.<ext>
func DominanceFilename(r *model.Result, ext string) string {
	year := 0
	if r.Meeting != nil {
		year = r.Meeting.Year
	}
	return fmt.Sprintf("Dominance_%s_vs_%s_%d.%s",
		safeName(r.Reference.Driver), safeName(r.Secondary.Driver), year, ext)
}

// SpeedTraceFilename returns telemetry_<year>_<Event_Name>.html
func SpeedTraceFilename(t *model.SpeedTrace) string {
	year, event := 0, "unknown"
	if t.Meeting != nil {
		year, event = t.Meeting.Year, t.Meeting.Name
	}
	return fmt.Sprintf("telemetry_%d_%s.html", year, safeName(event))
}

// LapsFilename returns <Event_Name>_<Session_Name>_Laps.csv
func LapsFilename(m *model.Meeting, s *model.Session) string {
	return fmt.Sprintf("%s_%s_Laps.csv", safeName(m.Name), safeName(s.Name))
}

// safeName replaces whitespace and path separators by '_'
func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '/', '\\', ':':
			return '_'
		}
		return r
	}, strings.TrimSpace(s))
}
