// Package service combines the telemetry source with the dominance
// computation.
package service

import (
	"context"

	"github.com/mpapenbr/track-dominance/pkg/model"
)

// Source provides the session data needed for a run.
type Source interface {
	Laps(ctx context.Context, sessionKey int) ([]model.Lap, error)
	Drivers(ctx context.Context, sessionKey int) ([]model.Driver, error)
	FastestLapTelemetry(ctx context.Context, sessionKey int, lap model.Lap) (
		model.TelemetryTrace, error)
}

// SessionInfoSource is implemented by sources which can describe a session.
// The info is optional for a run.
type SessionInfoSource interface {
	SessionInfo(ctx context.Context, sessionKey int) (*model.Meeting, *model.Session, error)
}
