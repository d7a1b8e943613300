package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"batch-indicators/config"
	"batch-indicators/internal/device"
	"batch-indicators/internal/indengine"
	"batch-indicators/internal/indicator"
	"batch-indicators/internal/logger"
	"batch-indicators/internal/metrics"
	"batch-indicators/internal/notification"
	redisstore "batch-indicators/internal/store/redis"
	sqlitestore "batch-indicators/internal/store/sqlite"
)

func main() {
	configPath := flag.String("config", os.Getenv("INDENGINE_CONFIG"), "optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("config load failed")
	}
	l := logger.Init("indengine", logger.ParseLevel(cfg.LogLevel))

	opts, err := indengine.NewOptions(cfg)
	if err != nil {
		l.WithError(err).Fatal("invalid indicator config")
	}

	if dir := filepath.Dir(cfg.SQLitePath); dir != "" {
		os.MkdirAll(dir, 0o755)
	}
	source, err := sqlitestore.NewReader(cfg.SQLitePath)
	if err != nil {
		l.WithError(err).Fatal("sqlite open failed")
	}

	pub, err := redisstore.New(redisstore.PublisherConfig{
		Addr:      cfg.RedisAddr,
		Password:  cfg.RedisPassword,
		DB:        cfg.RedisDB,
		LatestTTL: cfg.LatestTTL,
	})
	if err != nil {
		source.Close()
		l.WithError(err).Fatal("redis connect failed")
	}

	prom := metrics.NewMetrics(nil)
	health := metrics.NewHealthStatus()
	notifier := notification.New(notification.Config{
		WebhookURL:     cfg.Alerts.WebhookURL,
		TelegramToken:  cfg.Alerts.TelegramToken,
		TelegramChatID: cfg.Alerts.TelegramChatID,
	})
	indengine.ObserveBreaker(pub.Breaker(), prom, notifier)

	dev := device.New(device.Config{
		Workers:   cfg.Device.Workers,
		BlockRows: cfg.Device.BlockRows,
		MemoryCap: cfg.Device.MemoryCap,
		PinnedCap: cfg.Device.PinnedCap,
	})
	engine := indicator.NewEngine(dev, prom)
	svc := indengine.New(opts, engine, source, pub, prom, health)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		l.WithField("signal", sig.String()).Info("shutdown signal received")
		cancel()
	}()

	srv := metrics.NewServer(cfg.MetricsAddr, health, nil)
	srv.Handle("/indicators", svc.IndicatorsHandler())
	srv.Handle("/reload", svc.ReloadHandler())
	srv.Start()
	health.CheckRedis(ctx, pub.Client())
	health.StartLivenessChecker(ctx, pub.Client(), 10*time.Second)

	// live indicator set updates over Redis PubSub
	cfgReader := redisstore.NewReaderWithClient(pub.Client())
	updates := make(chan string, 8)
	go func() {
		if err := cfgReader.SubscribeChannel(ctx, indengine.ConfigChannel, updates); err != nil {
			l.WithError(err).Warn("config subscription failed")
		}
	}()
	go svc.WatchConfig(ctx, updates)

	info := dev.Info()
	l.WithFields(log.Fields{
		"device":     info.Name,
		"workers":    info.Workers,
		"block_rows": info.BlockRows,
		"sqlite":     cfg.SQLitePath,
		"redis":      cfg.RedisAddr,
		"metrics":    cfg.MetricsAddr,
	}).Info("indicator engine starting")

	if err := svc.Run(ctx); err != nil {
		l.WithError(err).Error("service stopped with error")
	}

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer shutCancel()
	srv.Stop(shutCtx)

	if err := svc.Close(); err != nil {
		l.WithError(err).Warn("close failed")
	}
	l.Info("shutdown complete")
}
