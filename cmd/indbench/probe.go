package main

import (
	"github.com/spf13/cobra"

	"batch-indicators/internal/bench"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "report device capabilities and run a smoke kernel",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		res, err := bench.Probe(newEngine(cfg))
		if err != nil {
			return err
		}
		res.Render(cmd.OutOrStdout())
		return nil
	},
}

func init() {
	RootCmd.AddCommand(probeCmd)
}
