package main

import (
	"github.com/spf13/cobra"

	"batch-indicators/internal/bench"
	"batch-indicators/internal/indicator"
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "time the batched kernels against the per-symbol baseline",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		opts := bench.DefaultOptions()
		flags := cmd.Flags()
		if opts.Data.Symbols, err = flags.GetInt("symbols"); err != nil {
			return err
		}
		if opts.Data.Length, err = flags.GetInt("length"); err != nil {
			return err
		}
		if opts.Data.Seed, err = flags.GetUint64("seed"); err != nil {
			return err
		}
		if opts.Iterations, err = flags.GetInt("iterations"); err != nil {
			return err
		}
		if opts.SkipBaseline, err = flags.GetBool("skip-baseline"); err != nil {
			return err
		}
		list, err := flags.GetString("indicators")
		if err != nil {
			return err
		}
		if opts.Configs, err = indicator.ParseConfigs(list); err != nil {
			return err
		}

		report, err := bench.Run(newEngine(cfg), opts)
		if err != nil {
			return err
		}
		report.Render(cmd.OutOrStdout())
		return nil
	},
}

func init() {
	d := bench.DefaultOptions()
	benchCmd.Flags().Int("symbols", d.Data.Symbols, "number of synthetic symbols (rows)")
	benchCmd.Flags().Int("length", d.Data.Length, "points per symbol (columns)")
	benchCmd.Flags().Uint64("seed", d.Data.Seed, "random walk seed")
	benchCmd.Flags().Int("iterations", 3, "timed iterations per indicator")
	benchCmd.Flags().String("indicators", "EMA:20,RSI:14,BOLL:20:2,MACD:12:26:9", "indicators to benchmark")
	benchCmd.Flags().Bool("skip-baseline", false, "skip the sequential per-symbol comparison")
	RootCmd.AddCommand(benchCmd)
}
