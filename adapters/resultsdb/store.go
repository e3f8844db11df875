// Package resultsdb persists assessments in SQLite or PostgreSQL so the
// results of different sweeps can be compared later.
package resultsdb

import (
	"context"
	"database/sql"
	"math"
	"strings"
	"time"

	"piquant/domain/core"
	"piquant/domain/stats"
	"piquant/internal/errors"
	"piquant/internal/migration"
	"piquant/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// overallBin is the bin index stored for values computed over a whole table
const overallBin = -1

// ResultsRepositoryImpl implements ResultsRepository over sqlx
type ResultsRepositoryImpl struct {
	db *sqlx.DB
}

// Open connects to the store named by dsn and brings its schema up to date.
// postgres:// and postgresql:// DSNs use PostgreSQL; anything else is a
// SQLite path, optionally prefixed with sqlite://.
func Open(ctx context.Context, dsn string) (*ResultsRepositoryImpl, error) {
	driver, source := driverFor(dsn)
	db, err := sqlx.ConnectContext(ctx, driver, source)
	if err != nil {
		return nil, errors.WrapCode(err, errors.CodeDatabaseError, "failed to connect to results store")
	}
	if driver == "sqlite" {
		// an in-memory database exists per connection
		db.SetMaxOpenConns(1)
	}

	if err := migration.NewRunner().Run(ctx, db); err != nil {
		db.Close()
		return nil, errors.WrapCode(err, errors.CodeDatabaseError, "failed to migrate results store")
	}
	return NewResultsRepository(db), nil
}

// NewResultsRepository wraps an already migrated database
func NewResultsRepository(db *sqlx.DB) *ResultsRepositoryImpl {
	return &ResultsRepositoryImpl{db: db}
}

var _ ports.ResultsRepository = (*ResultsRepositoryImpl)(nil)

func driverFor(dsn string) (driver, source string) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres", dsn
	case strings.HasPrefix(dsn, "sqlite://"):
		return "sqlite", strings.TrimPrefix(dsn, "sqlite://")
	default:
		return "sqlite", dsn
	}
}

// SaveAssessment stores every value of an assessment. Saving the same run
// twice within one sweep replaces the earlier rows.
func (r *ResultsRepositoryImpl) SaveAssessment(ctx context.Context, sweepID core.SweepID, a *stats.Assessment) (core.AssessmentID, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", errors.WrapCode(err, errors.CodeDatabaseError, "failed to begin transaction")
	}
	defer tx.Rollback()

	var previous []string
	err = tx.SelectContext(ctx, &previous, tx.Rebind(`
		SELECT id FROM assessments WHERE sweep_id = ? AND run_name = ?
	`), sweepID.String(), a.RunName)
	if err != nil {
		return "", errors.WrapCode(err, errors.CodeDatabaseError, "failed to look up previous assessment of %s", a.RunName)
	}
	for _, id := range previous {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM assessment_values WHERE assessment_id = ?`), id); err != nil {
			return "", errors.WrapCode(err, errors.CodeDatabaseError, "failed to replace assessment of %s", a.RunName)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM assessments WHERE id = ?`), id); err != nil {
			return "", errors.WrapCode(err, errors.CodeDatabaseError, "failed to replace assessment of %s", a.RunName)
		}
	}

	id := core.NewAssessmentID()
	_, err = tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO assessments (id, sweep_id, run_name, created_at)
		VALUES (?, ?, ?, ?)
	`), id.String(), sweepID.String(), a.RunName, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return "", errors.WrapCode(err, errors.CodeDatabaseError, "failed to insert assessment of %s", a.RunName)
	}

	insert := tx.Rebind(`
		INSERT INTO assessment_values (assessment_id, stratifier, bin_index, bin_label, statistic, value)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	for _, name := range a.Statistics {
		if _, err := tx.ExecContext(ctx, insert, id.String(), "", overallBin, "", name, nullable(a.Value(name))); err != nil {
			return "", errors.WrapCode(err, errors.CodeDatabaseError, "failed to insert %s of %s", name, a.RunName)
		}
	}
	for _, s := range a.Strata {
		for _, b := range s.Bins {
			for _, name := range a.Statistics {
				if _, err := tx.ExecContext(ctx, insert, id.String(), s.Stratifier, b.Index, b.Label, name, nullable(b.Value(name))); err != nil {
					return "", errors.WrapCode(err, errors.CodeDatabaseError, "failed to insert %s of %s by %s", name, a.RunName, s.Stratifier)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", errors.WrapCode(err, errors.CodeDatabaseError, "failed to commit assessment of %s", a.RunName)
	}
	return id, nil
}

type resultRow struct {
	ports.StoredResult
	Value sql.NullFloat64 `db:"value"`
}

// ListResults returns every stored value for a run, oldest assessment
// first. Overall values precede stratified ones.
func (r *ResultsRepositoryImpl) ListResults(ctx context.Context, runName string) ([]ports.StoredResult, error) {
	var rows []resultRow
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(`
		SELECT v.assessment_id, a.sweep_id, a.run_name, v.stratifier, v.bin_index, v.bin_label, v.statistic, v.value
		FROM assessment_values v
		JOIN assessments a ON a.id = v.assessment_id
		WHERE a.run_name = ?
		ORDER BY a.created_at ASC, v.stratifier ASC, v.bin_index ASC, v.statistic ASC
	`), runName)
	if err != nil {
		return nil, errors.WrapCode(err, errors.CodeDatabaseError, "failed to list results of %s", runName)
	}

	results := make([]ports.StoredResult, 0, len(rows))
	for _, row := range rows {
		result := row.StoredResult
		result.Value = math.NaN()
		if row.Value.Valid {
			result.Value = row.Value.Float64
		}
		results = append(results, result)
	}
	return results, nil
}

// Close releases the database
func (r *ResultsRepositoryImpl) Close() error {
	return r.db.Close()
}

// nullable stores undefined statistics as NULL
func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}
