package main

import (
	"github.com/spf13/cobra"

	"piquant/ui"
)

func (c *cli) newServeCmd() *cobra.Command {
	var flags *sweepFlags
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the observed state of every parameter set over HTTP",
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

			return ui.NewServer(sweep, sets, repo).Run(cmd.Context(), addr)
		},
	}
	flags = c.addSweepFlags(cmd)
	cmd.Flags().StringVar(&addr, "addr", c.cfg.Server.Addr, "Listen address")
	return cmd
}
