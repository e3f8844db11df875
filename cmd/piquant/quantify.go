package main

import (
	"os"

	"github.com/spf13/cobra"

	"piquant/app"
	"piquant/internal/launcher"
	"piquant/internal/runstate"
)

// program is the executable the generated scripts call back into
func program() string {
	if path, err := os.Executable(); err == nil {
		return path
	}
	return "piquant"
}

func (c *cli) newQuantifyCmd() *cobra.Command {
	var flags *sweepFlags
	var prepareOnly, runOnly bool
	cmd := &cobra.Command{
		Use:   "quantify",
		Short: "Write and launch quantification scripts",
		Long: `Create one run directory per parameter set, write run_quantification.sh
into it and launch it in the background. --prepare-only writes the scripts
without launching them; --run-only launches scripts written earlier.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sweep, sets, err := flags.build(c, sweepOptions{
				requireInputs: !runOnly,
				prepareOnly:   prepareOnly,
				runOnly:       runOnly,
			})
			if err != nil {
				return err
			}
			svc := app.NewQuantificationService(sweep, launcher.NewNohup(sweep.Logger), program())
			return svc.Quantify(cmd.Context(), sets)
		},
	}
	flags = c.addSweepFlags(cmd)
	cmd.Flags().BoolVar(&prepareOnly, "prepare-only", false, "Only write the quantification scripts")
	cmd.Flags().BoolVar(&runOnly, "run-only", false, "Only launch previously written scripts")
	cmd.AddCommand(c.newQuantifyCheckCmd())
	return cmd
}

func (c *cli) newQuantifyCheckCmd() *cobra.Command {
	var flags *sweepFlags
	var follow bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report quantification runs that have not completed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sweep, sets, err := flags.build(c, sweepOptions{})
			if err != nil {
				return err
			}
			svc := app.NewQuantificationService(sweep, launcher.NewNohup(sweep.Logger), program())
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
	cmd.Flags().BoolVar(&follow, "follow", false, "Wait for incomplete runs to finish")
	return cmd
}
