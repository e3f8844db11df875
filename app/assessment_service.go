package app

import (
	"context"
	"os"

	"golang.org/x/sync/errgroup"

	"piquant/adapters/stats/engine"
	"piquant/domain/abundance"
	"piquant/domain/core"
	"piquant/domain/parameters"
	"piquant/domain/stats"
	"piquant/internal"
	"piquant/internal/errors"
	"piquant/internal/report"
	"piquant/internal/tables"
	"piquant/ports"
)

// AssessmentService scores assembled runs against their ground truth
type AssessmentService struct {
	engine    *engine.Engine
	repo      ports.ResultsRepository
	threshold float64
	workers   int
	logger    *internal.Logger
}

// NewAssessmentService creates the service. repo may be nil, in which case
// nothing is stored.
func NewAssessmentService(e *engine.Engine, repo ports.ResultsRepository, threshold float64, workers int, logger *internal.Logger) *AssessmentService {
	if workers <= 0 {
		workers = 1
	}
	return &AssessmentService{
		engine:    e,
		repo:      repo,
		threshold: threshold,
		workers:   workers,
		logger:    logger,
	}
}

// Assess reads a tpms.csv file and scores it
func (s *AssessmentService) Assess(ctx context.Context, sweepID core.SweepID, runName, tpmsPath string) (*stats.Assessment, error) {
	truth, calculated, err := readTPMFile(tpmsPath)
	if err != nil {
		return nil, err
	}

	table := abundance.Merge(truth, abundance.MapLookup(calculated), s.threshold)
	assessment, err := s.engine.Assess(runName, table)
	if err != nil {
		return nil, errors.Wrapf(err, "assess %s", runName)
	}

	if s.repo != nil {
		id, err := s.repo.SaveAssessment(ctx, sweepID, assessment)
		if err != nil {
			return nil, err
		}
		s.logger.Debug("Stored assessment %s of %s", id, runName)
	}
	return assessment, nil
}

// Analyse scores one run and writes its reports under prefix
func (s *AssessmentService) Analyse(ctx context.Context, sweepID core.SweepID, runName, tpmsPath, prefix string) (*stats.Assessment, []string, error) {
	assessment, err := s.Assess(ctx, sweepID, runName, tpmsPath)
	if err != nil {
		return nil, nil, err
	}
	written, err := report.WriteAll(prefix, assessment)
	if err != nil {
		return nil, written, err
	}
	s.logger.Info("Wrote %d report files for %s", len(written), runName)
	return assessment, written, nil
}

// AssessSweep scores every completed run of a sweep concurrently and
// tabulates their overall values. Incomplete runs are reported and left
// out of the summary; summary rows keep the sweep's order.
func (s *AssessmentService) AssessSweep(ctx context.Context, sweep *Sweep, sets []parameters.Set) (report.Summary, error) {
	summary := report.Summary{Statistics: s.engine.Statistics()}
	if len(sets) == 0 {
		return summary, nil
	}
	var present []parameters.Parameter
	for _, p := range sweep.Catalog.Parameters() {
		if sets[0].Has(p.Name) {
			present = append(present, p)
			summary.Parameters = append(summary.Parameters, p.Title)
		}
	}

	assessments := make([]*stats.Assessment, len(sets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, set := range sets {
		i := i
		completion := sweep.Tracker.CheckQuantificationCompletion(set)
		if !completion.Complete {
			sweep.reportCompletion(completion)
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			a, err := s.Assess(gctx, sweep.ID, completion.Name, completion.Path)
			if errors.HasCode(err, errors.CodeIncomplete) {
				sweep.Logger.Warn("Run %s did not complete: %v", completion.Name, err)
				return nil
			}
			if err != nil {
				return err
			}
			assessments[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return summary, err
	}

	for i, set := range sets {
		if assessments[i] == nil {
			continue
		}
		labels := make([]string, len(present))
		for j, p := range present {
			v, _ := set.Value(p.Name)
			labels[j] = p.ValueName(v)
		}
		summary.Rows = append(summary.Rows, report.SummaryRow{Parameters: labels, Assessment: assessments[i]})
	}
	sweep.Logger.Info("Assessed %d of %d runs", len(summary.Rows), len(sets))
	return summary, nil
}

// WriteSummary writes the sweep summary as CSV
func WriteSummary(path string, summary report.Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	if err := report.WriteSummaryCSV(f, summary); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func readTPMFile(path string) ([]abundance.Truth, map[string]float64, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil, errors.Incomplete(path + " has not been assembled")
	}
	if err != nil {
		return nil, nil, errors.WrapCode(err, errors.CodeInvalidInput, "open %s", path)
	}
	defer f.Close()

	truth, calculated, err := tables.ReadTPMs(f)
	if err != nil {
		return nil, nil, errors.WrapCode(err, errors.CodeInvalidInput, "read %s", path)
	}
	return truth, calculated, nil
}
