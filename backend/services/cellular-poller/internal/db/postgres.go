package db

import (
	"context"

	"go.uber.org/zap"

	libdb "cellmon/backend/libs/db"
	"cellmon/backend/services/cellular-poller/internal/repository"
	"cellmon/backend/services/cellular-poller/internal/service"
)

// Opener opens one PostgreSQL pool per storage session.
type Opener struct {
	dsn     string
	table   string
	options libdb.Options
	logger  *zap.Logger
}

// NewOpener returns an opener for the telemetry table behind dsn.
func NewOpener(dsn, table string, options libdb.Options, logger *zap.Logger) *Opener {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Opener{dsn: dsn, table: table, options: options, logger: logger}
}

// Open connects and pings the database.
func (o *Opener) Open(ctx context.Context) (service.StorageSession, error) {
	sqlDB, err := libdb.NewPostgresDB(ctx, o.dsn, o.options)
	if err != nil {
		return nil, err
	}
	return repository.NewTelemetryRepository(sqlDB, o.table, o.logger), nil
}
