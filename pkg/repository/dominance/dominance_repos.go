//nolint:whitespace // can't make both editor and linter happy
package dominance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/mpapenbr/track-dominance/pkg/db/mytypes"
	"github.com/mpapenbr/track-dominance/pkg/model"
	"github.com/mpapenbr/track-dominance/pkg/repository"
)

var selector = `select r.id, r.session_key, r.year, r.event_name, r.session_name,
	r.reference_driver, r.secondary_driver,
	r.reference_lap_time, r.secondary_lap_time,
	r.bin_width, r.legend, r.summary, r.created_at`

// Create stores the run. ID and CreatedAt of run are set by this function.
func Create(
	ctx context.Context,
	conn repository.Querier,
	run *model.DominanceRun,
) (*model.DominanceRun, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	row := conn.QueryRow(ctx, `
	insert into dominance_run (
		id, session_key, year, event_name, session_name,
		reference_driver, secondary_driver, reference_lap_time, secondary_lap_time,
		bin_width, legend, segments, summary
	) values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	returning created_at
	`,
		id, run.SessionKey, run.Year, run.EventName, run.SessionName,
		run.Reference.Driver, run.Secondary.Driver,
		run.Reference.LapTime.Milliseconds(), run.Secondary.LapTime.Milliseconds(),
		run.BinWidth,
		mytypes.LegendSlice(run.Legend),
		mytypes.SegmentSlice(run.Segments),
		mytypes.Summary(run.Summary),
	)
	if err := row.Scan(&run.CreatedAt); err != nil {
		return nil, err
	}
	run.ID = id
	return run, nil
}

// LoadByID returns the run including its segments
func LoadByID(ctx context.Context, conn repository.Querier, id uuid.UUID) (
	*model.DominanceRun, error,
) {
	row := conn.QueryRow(ctx,
		fmt.Sprintf("%s, r.segments from dominance_run r where r.id=$1", selector), id)
	var segments mytypes.SegmentSlice
	ret, err := readData(row, &segments)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNoData
		}
		return nil, err
	}
	ret.Segments = segments
	return ret, nil
}

// LoadBySession returns the runs of a session, latest first. Segments are
// not loaded.
func LoadBySession(ctx context.Context, conn repository.Querier, sessionKey int) (
	[]*model.DominanceRun, error,
) {
	rows, err := conn.Query(ctx,
		fmt.Sprintf("%s from dominance_run r where r.session_key=$1 order by r.created_at desc",
			selector), sessionKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ret := make([]*model.DominanceRun, 0)
	for rows.Next() {
		item, err := readData(rows)
		if err != nil {
			return nil, err
		}
		ret = append(ret, item)
	}
	return ret, rows.Err()
}

// deletes an entry from the database, returns number of rows deleted.
func DeleteByID(ctx context.Context, conn repository.Querier, id uuid.UUID) (int, error) {
	cmdTag, err := conn.Exec(ctx, "delete from dominance_run where id=$1", id)
	if err != nil {
		return 0, err
	}
	return int(cmdTag.RowsAffected()), nil
}

func readData(row pgx.Row, extra ...any) (*model.DominanceRun, error) {
	var item model.DominanceRun
	var refTime, secTime int64
	var legend mytypes.LegendSlice
	var summary mytypes.Summary
	dest := []any{
		&item.ID,
		&item.SessionKey,
		&item.Year,
		&item.EventName,
		&item.SessionName,
		&item.Reference.Driver,
		&item.Secondary.Driver,
		&refTime,
		&secTime,
		&item.BinWidth,
		&legend,
		&summary,
		&item.CreatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	item.Reference.LapTime = time.Duration(refTime) * time.Millisecond
	item.Secondary.LapTime = time.Duration(secTime) * time.Millisecond
	item.Legend = legend
	item.Summary = model.DominanceSummary(summary)
	return &item, nil
}
