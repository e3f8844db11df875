package main

import (
	"github.com/spf13/cobra"

	"piquant/adapters/quantifiers"
	"piquant/app"
	"piquant/internal/errors"
)

func (c *cli) newCountTranscriptsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count-transcripts <transcript-gtf>",
		Short: "Write the number of transcripts of each transcript's gene as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.NewAssemblyService(c.logger).CountTranscripts(args[0], cmd.OutOrStdout())
		},
	}
}

func (c *cli) newAssembleCmd() *cobra.Command {
	var req app.AssemblyRequest
	var method string
	cmd := &cobra.Command{
		Use:   "assemble",
		Short: "Join ground truth and a method's output into tpms.csv",
		Long: `Join the Flux Simulator expression profile, per-gene transcript counts,
unique sequence lengths and a quantification method's output into the run
directory's tpms.csv. Every profiled transcript must appear in the counts and
unique lengths files. Usually invoked by run_quantification.sh.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := quantifiers.BuildRegistry().Lookup(method)
			if err != nil {
				return errors.WrapCode(err, errors.CodeConfigInvalid, "Unknown quantification method: '%s'", method)
			}
			req.Method = m
			_, err = app.NewAssemblyService(c.logger).Assemble(req)
			return err
		},
	}
	cmd.Flags().StringVar(&method, "method", "", "Quantification method that produced the run's output")
	cmd.Flags().StringVar(&req.RunDir, "run-dir", ".", "Run directory")
	cmd.Flags().StringVar(&req.ProFile, "pro-file", "", "Flux Simulator expression profile")
	cmd.Flags().StringVar(&req.CountsFile, "counts", "", "CSV of per-gene transcript counts")
	cmd.Flags().StringVar(&req.UniqueLengthsFile, "unique-lengths", "", "CSV of unique sequence lengths")
	_ = cmd.MarkFlagRequired("method")
	_ = cmd.MarkFlagRequired("pro-file")
	_ = cmd.MarkFlagRequired("counts")
	_ = cmd.MarkFlagRequired("unique-lengths")
	return cmd
}
