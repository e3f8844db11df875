// Command piquant simulates RNA-seq reads, runs transcript quantification
// methods over a sweep of parameters and assesses their accuracy.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"piquant/internal"
	"piquant/internal/config"
	"piquant/internal/errors"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// cli carries what every command shares once flags are parsed
type cli struct {
	cfg      *config.Config
	logLevel string
	logger   *internal.Logger
	stderr   io.Writer
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		exitMessage(stderr, err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &cli{cfg: cfg, stderr: stderr}
	root := c.newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		exitMessage(stderr, err)
		return 1
	}
	return 0
}

func exitMessage(w io.Writer, err error) {
	fmt.Fprintf(w, "Exiting. %s\n", err)
}

func (c *cli) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "piquant",
		Short: "Assess the accuracy of RNA-seq transcript quantification methods",
		Long: `piquant simulates RNA-seq reads with Flux Simulator, runs transcript
quantification methods over every combination of sweep parameters, and
scores calculated abundances against the simulated ground truth.

Sweep parameters take comma-separated candidate lists, e.g.
  piquant reads prepare --read-length 50,100 --read-depth 10,30 --paired-end false,true`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, ok := internal.ParseLogLevel(c.logLevel)
			if !ok {
				return errors.InvalidOption("log-level", c.logLevel,
					"Log level must be one of "+strings.Join(internal.LogLevelNames(), ", "))
			}
			c.logger = internal.NewLogger(level)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&c.logLevel, "log-level", c.cfg.LogLevel,
		"Logging verbosity: "+strings.Join(internal.LogLevelNames(), ", "))

	root.AddCommand(
		c.newReadsCmd(),
		c.newQuantifyCmd(),
		c.newCountTranscriptsCmd(),
		c.newAssembleCmd(),
		c.newAnalyseCmd(),
		c.newAnalyseRunsCmd(),
		c.newServeCmd(),
		c.newMigrateCmd(),
	)
	return root
}
