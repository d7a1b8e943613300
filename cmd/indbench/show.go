package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	redisstore "batch-indicators/internal/store/redis"
	sqlitestore "batch-indicators/internal/store/sqlite"
)

var showCmd = &cobra.Command{
	Use:   "show NAME [SYMBOL...]",
	Short: "show the latest published values of one indicator output, e.g. RSI_14",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		name := args[0]

		symbols := args[1:]
		if len(symbols) == 0 {
			symbols = cfg.Symbols
		}
		if len(symbols) == 0 {
			r, err := sqlitestore.NewReader(cfg.SQLitePath)
			if err != nil {
				return err
			}
			symbols, err = r.Symbols(ctx)
			r.Close()
			if err != nil {
				return err
			}
		}

		reader, err := redisstore.NewReader(redisstore.PublisherConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return err
		}
		defer reader.Close()

		results, err := reader.LatestMany(ctx, name, symbols)
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.SetStyle(table.StyleRounded)
		t.SetTitle(name)
		t.AppendHeader(table.Row{"Symbol", "Value", "As of"})
		for i, s := range symbols {
			r := results[i]
			switch {
			case r == nil:
				t.AppendRow(table.Row{s, "-", "-"})
			case r.Value == nil:
				t.AppendRow(table.Row{s, "warming up", r.TS.Format(time.RFC3339)})
			default:
				t.AppendRow(table.Row{s, strconv.FormatFloat(*r.Value, 'f', 4, 64), r.TS.Format(time.RFC3339)})
			}
		}
		t.AppendFooter(table.Row{"", fmt.Sprintf("%d symbols", len(symbols)), ""})
		t.Render()
		return nil
	},
}

func init() {
	RootCmd.AddCommand(showCmd)
}
