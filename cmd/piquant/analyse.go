package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"piquant/adapters/stats/engine"
	"piquant/app"
	"piquant/domain/core"
	"piquant/internal/errors"
)

func (c *cli) newAnalyseCmd() *cobra.Command {
	var runName, sweepID string
	var threshold float64
	cmd := &cobra.Command{
		Use:   "analyse <tpms-csv> <output-prefix>",
		Short: "Assess one run and write CSV, XLSX and HTML reports",
		Long: `Score a run's assembled tpms.csv against its ground truth. Writes
<prefix>_overall.csv, one <prefix>_by_<stratifier>.csv per stratifier,
<prefix>.xlsx, <prefix>.html and <prefix>.json. When PIQUANT_RESULTS_DSN is
set the values are also stored; analysing a run again under the same
--sweep-id replaces its stored values.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tpms, prefix := args[0], args[1]
			id := core.NewSweepID()
			if sweepID != "" {
				parsed, err := core.ParseSweepID(sweepID)
				if err != nil {
					return errors.InvalidOption("sweep-id", sweepID, "Sweep ID must be a UUID")
				}
				id = parsed
			}
			if runName == "" {
				runName = filepath.Base(filepath.Dir(tpms))
			}

			repo, err := c.openResults(cmd.Context())
			if err != nil {
				return err
			}
			if repo != nil {
				defer repo.Close()
			}

			svc := app.NewAssessmentService(engine.New(), repo, threshold, c.cfg.Assessment.Workers, c.logger)
			_, written, err := svc.Analyse(cmd.Context(), id, runName, tpms, prefix)
			for _, path := range written {
				c.logger.Debug("Wrote %s", path)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&runName, "run-name", "", "Name recorded for the run (default: the directory holding the tpms file)")
	cmd.Flags().StringVar(&sweepID, "sweep-id", "", "Sweep the stored values belong to (default: a new sweep)")
	cmd.Flags().Float64Var(&threshold, "threshold", c.cfg.Assessment.DetectionThreshold, "TPM above which a transcript counts as expressed")
	return cmd
}

func (c *cli) newAnalyseRunsCmd() *cobra.Command {
	var flags *sweepFlags
	var summaryPath string
	cmd := &cobra.Command{
		Use:   "analyse-runs",
		Short: "Assess every completed run of a sweep and tabulate the results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sweep, sets, err := flags.build(c, sweepOptions{})
			if err != nil {
				return err
			}

			repo, err := c.openResults(cmd.Context())
			if err != nil {
				return err
			}
			if repo != nil {
				defer repo.Close()
			}

			svc := app.NewAssessmentService(engine.New(), repo, sweep.Run.DetectionThreshold(), c.cfg.Assessment.Workers, sweep.Logger)
			summary, err := svc.AssessSweep(cmd.Context(), sweep, sets)
			if err != nil {
				return err
			}
			if summaryPath == "" {
				summaryPath = filepath.Join(sweep.Run.OutputDir(), "overall_stats.csv")
			}
			if err := app.WriteSummary(summaryPath, summary); err != nil {
				return err
			}
			sweep.Logger.Info("Wrote %s", summaryPath)
			return nil
		},
	}
	flags = c.addSweepFlags(cmd)
	cmd.Flags().StringVar(&summaryPath, "summary", "", "Summary CSV path (default: <out-dir>/overall_stats.csv)")
	return cmd
}
