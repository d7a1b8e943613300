package main

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"batch-indicators/internal/model"
	sqlitestore "batch-indicators/internal/store/sqlite"
	"batch-indicators/internal/synth"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "append synthetic candles to the candle store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		flags := cmd.Flags()

		data := synth.DefaultConfig()
		if data.Symbols, err = flags.GetInt("symbols"); err != nil {
			return err
		}
		if data.Length, err = flags.GetInt("length"); err != nil {
			return err
		}
		if data.Seed, err = flags.GetUint64("seed"); err != nil {
			return err
		}
		interval, err := flags.GetDuration("interval")
		if err != nil {
			return err
		}
		if interval <= 0 {
			return fmt.Errorf("interval must be positive, got %s", interval)
		}

		symbols := cfg.Symbols
		if len(symbols) == 0 {
			symbols = synth.Symbols(data.Symbols)
		}
		data.Symbols = len(symbols)

		w, err := sqlitestore.New(sqlitestore.WriterConfig{DBPath: cfg.SQLitePath})
		if err != nil {
			return err
		}
		defer w.Close()

		ctx := cmd.Context()

		// continue after the newest stored bar so reruns extend the history
		start := time.Now().UTC().Truncate(interval).Add(-time.Duration(data.Length) * interval)
		for _, s := range symbols {
			last, err := w.GetLastTimestamp(ctx, s)
			if err != nil {
				return err
			}
			if !last.IsZero() && !last.Before(start) {
				start = last.Add(interval)
			}
		}

		candles, err := synth.Candles(data, symbols, start, interval)
		if err != nil {
			return err
		}

		ch := make(chan model.Candle, 1024)
		go func() {
			defer close(ch)
			for _, c := range candles {
				ch <- c
			}
		}()
		n := w.Run(ctx, ch)

		log.WithFields(log.Fields{
			"symbols": len(symbols),
			"candles": n,
			"from":    start.Format(time.RFC3339),
			"db":      cfg.SQLitePath,
		}).Info("seeded candle store")
		if n != len(candles) {
			return fmt.Errorf("seed: committed %d of %d candles", n, len(candles))
		}
		return nil
	},
}

func init() {
	d := synth.DefaultConfig()
	seedCmd.Flags().Int("symbols", d.Symbols, "number of synthetic symbols when none are configured")
	seedCmd.Flags().Int("length", d.Length, "candles per symbol")
	seedCmd.Flags().Uint64("seed", d.Seed, "random walk seed")
	seedCmd.Flags().Duration("interval", time.Minute, "bar interval")
	RootCmd.AddCommand(seedCmd)
}
