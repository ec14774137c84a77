package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"cellmon/backend/services/cellular-poller/internal/models"
)

// DefaultTable is the table rows go to when none is configured.
const DefaultTable = "teltonika"

// TimescaleDB reports an existing hypertable with this SQLSTATE.
const alreadyHypertableCode = "TS110"

// TelemetryRepository persists telemetry rows into one PostgreSQL table.
type TelemetryRepository struct {
	db     *sql.DB
	table  string
	fields []models.Field
	logger *zap.Logger

	insertQuery string
}

// NewTelemetryRepository returns a repository writing models.Catalog into table.
func NewTelemetryRepository(db *sql.DB, table string, logger *zap.Logger) *TelemetryRepository {
	if table == "" {
		table = DefaultTable
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &TelemetryRepository{
		db:     db,
		table:  pgx.Identifier{table}.Sanitize(),
		fields: models.Catalog,
		logger: logger,
	}
	r.insertQuery = r.buildInsert()
	return r
}

// CreateTableQuery returns the DDL for the telemetry table.
func (r *TelemetryRepository) CreateTableQuery() string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(r.table)
	b.WriteString(" (time TIMESTAMPTZ NOT NULL")
	for _, f := range r.fields {
		b.WriteString(", ")
		b.WriteString(pgx.Identifier{string(f.Name)}.Sanitize())
		b.WriteByte(' ')
		b.WriteString(f.SQLType)
	}
	b.WriteString(")")
	return b.String()
}

// HypertableQuery returns the statement converting the table into a hypertable on time.
func (r *TelemetryRepository) HypertableQuery() string {
	return fmt.Sprintf("SELECT create_hypertable('%s', 'time')", strings.ReplaceAll(r.table, "'", "''"))
}

// InsertQuery returns the parameterised insert statement.
func (r *TelemetryRepository) InsertQuery() string {
	return r.insertQuery
}

func (r *TelemetryRepository) buildInsert() string {
	cols := make([]string, 0, len(r.fields)+1)
	params := make([]string, 0, len(r.fields)+1)
	cols = append(cols, "time")
	params = append(params, "NOW()")
	for i, f := range r.fields {
		cols = append(cols, pgx.Identifier{string(f.Name)}.Sanitize())
		params = append(params, fmt.Sprintf("$%d", i+1))
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING time",
		r.table, strings.Join(cols, ", "), strings.Join(params, ", "))
}

// EnsureSchema creates the table if it is missing and, when hypertable is set, converts it.
// A table that already is a hypertable is not an error.
func (r *TelemetryRepository) EnsureSchema(ctx context.Context, hypertable bool) error {
	if _, err := r.db.ExecContext(ctx, r.CreateTableQuery()); err != nil {
		return fmt.Errorf("create table %s: %w", r.table, err)
	}
	if !hypertable {
		return nil
	}

	_, err := r.db.ExecContext(ctx, r.HypertableQuery())
	switch {
	case err == nil:
		r.logger.Info("table converted to hypertable", zap.String("table", r.table))
	case isAlreadyHypertable(err):
		r.logger.Debug("table already a hypertable", zap.String("table", r.table))
	default:
		return fmt.Errorf("create hypertable %s: %w", r.table, err)
	}
	return nil
}

// Write inserts row and returns the timestamp the server assigned to it.
func (r *TelemetryRepository) Write(ctx context.Context, row *models.TelemetryRow) (time.Time, error) {
	values := row.Values()
	args := make([]any, len(r.fields))
	for i, f := range r.fields {
		args[i] = r.columnValue(f, values[i])
	}

	var ts time.Time
	if err := r.db.QueryRowContext(ctx, r.insertQuery, args...).Scan(&ts); err != nil {
		return time.Time{}, err
	}
	return ts, nil
}

// Close releases the connection pool.
func (r *TelemetryRepository) Close() error {
	return r.db.Close()
}

// columnValue converts a raw value to the column's Go type. Values that do not parse as the
// column's number type are stored as NULL.
func (r *TelemetryRepository) columnValue(f models.Field, v *string) any {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if f.Kind == models.KindText {
		return *v
	}
	if s == "" {
		return nil
	}

	switch f.Kind {
	case models.KindInt, models.KindBigInt:
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
		// Some firmware reports integer columns with a fractional part.
		if fl, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(fl) && !math.IsInf(fl, 0) {
			return int64(math.Round(fl))
		}
	case models.KindFloat:
		if fl, err := strconv.ParseFloat(s, 64); err == nil {
			return fl
		}
	}

	r.logger.Warn("dropping non-numeric value", zap.String("field", string(f.Name)), zap.String("value", s))
	return nil
}

func isAlreadyHypertable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == alreadyHypertableCode || strings.Contains(pgErr.Message, "already a hypertable")
	}
	return strings.Contains(err.Error(), "already a hypertable")
}
