package migration

import (
	"context"

	"piquant/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles the results store schema. Statements are plain
// SQL accepted by both SQLite and PostgreSQL.
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createSchemaVersionTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create schema_version table")
	}

	if err := r.createAssessmentsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create assessments table")
	}

	if err := r.createAssessmentValuesTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create assessment_values table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	if err := r.recordVersion(ctx, db); err != nil {
		return errors.Wrap(err, "failed to record schema version")
	}

	return nil
}

func (r *MigrationRunner) createSchemaVersionTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			version VARCHAR(32) PRIMARY KEY
		)
	`)
	return err
}

func (r *MigrationRunner) createAssessmentsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS assessments (
			id VARCHAR(36) PRIMARY KEY,
			sweep_id VARCHAR(36) NOT NULL,
			run_name TEXT NOT NULL,
			created_at VARCHAR(40) NOT NULL,
			UNIQUE (sweep_id, run_name)
		)
	`)
	return err
}

func (r *MigrationRunner) createAssessmentValuesTable(ctx context.Context, db *sqlx.DB) error {
	// value is NULL when the statistic is undefined
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS assessment_values (
			assessment_id VARCHAR(36) NOT NULL REFERENCES assessments(id) ON DELETE CASCADE,
			stratifier TEXT NOT NULL,
			bin_index INTEGER NOT NULL,
			bin_label TEXT NOT NULL,
			statistic TEXT NOT NULL,
			value DOUBLE PRECISION,
			PRIMARY KEY (assessment_id, stratifier, bin_index, statistic)
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_assessments_run_name ON assessments(run_name)`,
		`CREATE INDEX IF NOT EXISTS idx_assessment_values_statistic ON assessment_values(statistic)`,
	}
	for _, stmt := range indexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (r *MigrationRunner) recordVersion(ctx context.Context, db *sqlx.DB) error {
	var count int
	if err := db.GetContext(ctx, &count, db.Rebind(`SELECT COUNT(*) FROM schema_version WHERE version = ?`), r.version); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	_, err := db.ExecContext(ctx, db.Rebind(`INSERT INTO schema_version (version) VALUES (?)`), r.version)
	return err
}
