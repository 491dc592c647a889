package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// DominanceRun is a stored Result
type DominanceRun struct {
	ID          uuid.UUID          `json:"id"`
	SessionKey  int                `json:"sessionKey"`
	Year        int                `json:"year"`
	EventName   string             `json:"eventName"`
	SessionName string             `json:"sessionName"`
	Reference   Lap                `json:"reference"`
	Secondary   Lap                `json:"secondary"`
	BinWidth    float64            `json:"binWidth"`
	Legend      []DriverColor      `json:"legend"`
	Segments    []DominanceSegment `json:"segments,omitempty"`
	Summary     DominanceSummary   `json:"summary"`
	CreatedAt   time.Time          `json:"createdAt"`
}

func NewDominanceRun(sessionKey int, r *Result) *DominanceRun {
	ret := &DominanceRun{
		SessionKey: sessionKey,
		Reference:  r.Reference,
		Secondary:  r.Secondary,
		BinWidth:   r.BinWidth,
		Legend:     r.Legend,
		Segments:   r.Segments,
		Summary:    r.Summary,
	}
	if r.Meeting != nil {
		ret.Year = r.Meeting.Year
		ret.EventName = r.Meeting.Name
	}
	if r.Session != nil {
		ret.SessionName = r.Session.Name
	}
	return ret
}

// Result restores the run output. Only the stored parts of meeting and
// session are available.
func (r *DominanceRun) Result() *Result {
	return &Result{
		Meeting:   &Meeting{Year: r.Year, Name: r.EventName},
		Session:   &Session{Key: r.SessionKey, Name: r.SessionName},
		Reference: r.Reference,
		Secondary: r.Secondary,
		Legend:    r.Legend,
		BinWidth:  r.BinWidth,
		Segments:  r.Segments,
		Summary:   r.Summary,
	}
}
