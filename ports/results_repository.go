package ports

import (
	"context"

	"piquant/domain/core"
	"piquant/domain/stats"
)

// StoredResult is one statistic value as persisted by a ResultsRepository.
// Overall values have an empty Stratifier and BinIndex -1.
type StoredResult struct {
	AssessmentID core.AssessmentID `db:"assessment_id"`
	SweepID      core.SweepID      `db:"sweep_id"`
	RunName      string            `db:"run_name"`
	Stratifier   string            `db:"stratifier"`
	BinIndex     int               `db:"bin_index"`
	BinLabel     string            `db:"bin_label"`
	Statistic    string            `db:"statistic"`
	Value        float64           `db:"-"`
}

// ResultsRepository persists scored runs so sweeps can be compared later
type ResultsRepository interface {
	SaveAssessment(ctx context.Context, sweepID core.SweepID, a *stats.Assessment) (core.AssessmentID, error)
	ListResults(ctx context.Context, runName string) ([]StoredResult, error)
	Close() error
}
