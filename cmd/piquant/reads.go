package main

import (
	"github.com/spf13/cobra"

	"piquant/app"
	"piquant/domain/parameters"
	"piquant/internal/launcher"
	"piquant/internal/runstate"
)

func (c *cli) newReadsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reads",
		Short: "Prepare, create and check simulated reads",
	}
	cmd.AddCommand(c.newReadsPrepareCmd(), c.newReadsCreateCmd(), c.newReadsCheckCmd())
	return cmd
}

func (c *cli) newReadsPrepareCmd() *cobra.Command {
	var flags *sweepFlags
	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Write Flux Simulator parameters and simulation scripts",
		Long: `Create one reads directory per combination of read parameters, holding the
Flux Simulator parameters file and run_simulation.sh. Every directory must
not already exist.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sweep, sets, err := flags.build(c, sweepOptions{ignore: []string{parameters.QuantMethod}, requireInputs: true})
			if err != nil {
				return err
			}
			svc := app.NewReadsService(sweep, launcher.NewNohup(sweep.Logger))
			return svc.Prepare(cmd.Context(), sets)
		},
	}
	flags = c.addSweepFlags(cmd)
	return cmd
}

func (c *cli) newReadsCreateCmd() *cobra.Command {
	var flags *sweepFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Launch read simulation in every prepared reads directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sweep, sets, err := flags.build(c, sweepOptions{ignore: []string{parameters.QuantMethod}})
			if err != nil {
				return err
			}
			svc := app.NewReadsService(sweep, launcher.NewNohup(sweep.Logger))
			return svc.Create(cmd.Context(), sets)
		},
	}
	flags = c.addSweepFlags(cmd)
	return cmd
}

func (c *cli) newReadsCheckCmd() *cobra.Command {
	var flags *sweepFlags
	var follow bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report read simulations that have not completed",
		Long: `Check each reads directory for its simulated reads. Incomplete simulations
are reported as warnings. With --follow, wait until every simulation has
produced its reads.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sweep, sets, err := flags.build(c, sweepOptions{ignore: []string{parameters.QuantMethod}})
			if err != nil {
				return err
			}
			svc := app.NewReadsService(sweep, launcher.NewNohup(sweep.Logger))
			completions, err := svc.Check(cmd.Context(), sets)
			if err != nil || !follow {
				return err
			}
			return runstate.Watch(cmd.Context(), sweep.Logger, completions, func(done runstate.Completion) {
				sweep.Logger.Info("%s", done)
			})
		},
	}
	flags = c.addSweepFlags(cmd)
	cmd.Flags().BoolVar(&follow, "follow", false, "Wait for incomplete simulations to finish")
	return cmd
}
