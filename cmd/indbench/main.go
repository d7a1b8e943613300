// Command indbench probes the parallel device, benchmarks the batched
// indicator kernels, seeds the candle store with synthetic history and shows
// published indicator values.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"batch-indicators/config"
	"batch-indicators/internal/device"
	"batch-indicators/internal/indicator"
	"batch-indicators/internal/logger"
)

var v = viper.New()

var RootCmd = &cobra.Command{
	Use:   "indbench",
	Short: "batched indicator engine tools",

	// SilenceUsage is an option to silence usage when an error occurs.
	SilenceUsage: true,
}

func init() {
	RootCmd.PersistentFlags().String("config", "", "config file")
	RootCmd.PersistentFlags().String("log-level", "info", "log level")
	RootCmd.PersistentFlags().Int("workers", 0, "max concurrent row blocks, 0 = GOMAXPROCS")
	RootCmd.PersistentFlags().Int("block-rows", 0, "rows per block, 0 = default")
	RootCmd.PersistentFlags().Int64("memory-cap", 0, "device pool capacity in bytes, 0 = unlimited")

	bindFlag("log_level", "log-level")
	bindFlag("device.workers", "workers")
	bindFlag("device.block_rows", "block-rows")
	bindFlag("device.memory_cap", "memory-cap")
}

func bindFlag(key, flag string) {
	if err := v.BindPFlag(key, RootCmd.PersistentFlags().Lookup(flag)); err != nil {
		log.WithError(err).Errorf("failed to bind flag %s", flag)
	}
}

// loadConfig loads the configuration with command-line flags taking
// precedence over the environment and the config file.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadViper(v, path)
	if err != nil {
		return nil, err
	}
	logger.Init("indbench", logger.ParseLevel(cfg.LogLevel))
	// tables go to stdout, keep log lines on stderr
	log.SetOutput(os.Stderr)
	return cfg, nil
}

func newEngine(cfg *config.Config) *indicator.Engine {
	dev := device.New(device.Config{
		Workers:   cfg.Device.Workers,
		BlockRows: cfg.Device.BlockRows,
		MemoryCap: cfg.Device.MemoryCap,
		PinnedCap: cfg.Device.PinnedCap,
	})
	return indicator.NewEngine(dev, nil)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := RootCmd.ExecuteContext(ctx); err != nil {
		log.WithError(err).Fatal("cannot execute command")
	}
}
