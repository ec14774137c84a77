package service

import (
	"context"
	"time"

	"cellmon/backend/services/cellular-poller/internal/models"
)

// CommandRunner executes one command on the router and returns its stdout lines, trimmed.
type CommandRunner interface {
	Run(ctx context.Context, command string) ([]string, error)
}

// TelemetrySink persists rows. Write returns the timestamp the store assigned to the row.
type TelemetrySink interface {
	Write(ctx context.Context, row *models.TelemetryRow) (time.Time, error)
}

// SamplePublisher receives every stored row. Publishing is best-effort.
type SamplePublisher interface {
	Publish(ctx context.Context, ts time.Time, row *models.TelemetryRow) error
}

// RemoteSession is an open router session.
type RemoteSession interface {
	CommandRunner
	Close() error
}

// RemoteDialer opens router sessions.
type RemoteDialer interface {
	Dial(ctx context.Context) (RemoteSession, error)
}

// StorageSession is an open database session.
type StorageSession interface {
	TelemetrySink
	// EnsureSchema creates the table if needed and, when hypertable is set, converts it.
	EnsureSchema(ctx context.Context, hypertable bool) error
	Close() error
}

// StorageOpener opens database sessions.
type StorageOpener interface {
	Open(ctx context.Context) (StorageSession, error)
}

// Recorder receives poller and supervisor events for metrics.
type Recorder interface {
	CycleCompleted(elapsed time.Duration)
	CycleFailed(outcome Outcome)
	Reconnecting()
	StateChanged(state State)
}

type nopRecorder struct{}

func (nopRecorder) CycleCompleted(time.Duration) {}
func (nopRecorder) CycleFailed(Outcome)          {}
func (nopRecorder) Reconnecting()                {}
func (nopRecorder) StateChanged(State)           {}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
