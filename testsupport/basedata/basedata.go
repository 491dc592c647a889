package basedata

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mpapenbr/track-dominance/pkg/model"
	runrepos "github.com/mpapenbr/track-dominance/pkg/repository/dominance"
)

const SampleSessionKey = 9472

func SampleMeeting() *model.Meeting {
	return &model.Meeting{
		Key:       1229,
		Year:      2024,
		Round:     1,
		Name:      "Bahrain Grand Prix",
		Location:  "Sakhir",
		Country:   "Bahrain",
		DateStart: time.Date(2024, 2, 29, 11, 30, 0, 0, time.UTC),
	}
}

func SampleResult() *model.Result {
	return &model.Result{
		Meeting: SampleMeeting(),
		Session: &model.Session{Key: SampleSessionKey, MeetingKey: 1229, Name: "Qualifying"},
		Reference: model.Lap{
			Driver: "VER", DriverNumber: 1, LapNumber: 17, LapTime: 89708 * time.Millisecond,
		},
		Secondary: model.Lap{
			Driver: "LEC", DriverNumber: 16, LapNumber: 18, LapTime: 89936 * time.Millisecond,
		},
		Legend: []model.DriverColor{
			{Driver: "VER", Color: "#3671C6"},
			{Driver: "LEC", Color: "#E8002D"},
		},
		BinWidth: 10,
		Segments: []model.DominanceSegment{
			{Points: []model.Point{{X: 0, Y: 0}, {X: 5, Y: 1}}, Color: "#3671C6", FasterDriver: "VER"},
			{Points: []model.Point{{X: 5, Y: 1}, {X: 9, Y: 4}}, Color: "#E8002D", FasterDriver: "LEC"},
		},
		Summary: model.DominanceSummary{
			Segments:  2,
			Reference: model.DriverShare{Driver: "VER", Bins: 1, Share: 0.5},
			Secondary: model.DriverShare{Driver: "LEC", Bins: 1, Share: 0.5},
		},
	}
}

// CreateSampleRun stores SampleResult within a transaction
func CreateSampleRun(pool *pgxpool.Pool) *model.DominanceRun {
	var ret *model.DominanceRun
	err := pgx.BeginFunc(context.Background(), pool, func(tx pgx.Tx) error {
		var err error
		ret, err = runrepos.Create(context.Background(), tx,
			model.NewDominanceRun(SampleSessionKey, SampleResult()))
		return err
	})
	if err != nil {
		log.Fatalf("CreateSampleRun: %v\n", err)
	}
	return ret
}
