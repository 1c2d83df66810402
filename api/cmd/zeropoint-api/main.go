package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"zeropoint/api/internal/app"
	"zeropoint/api/internal/config"
	"zeropoint/api/internal/handle"
	"zeropoint/api/internal/httpserver"
	"zeropoint/api/internal/logging"
)

func main() {
	cfgPath := flag.String("config", "", "path to a TOML config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logging.Must("info", false).Fatal("config", zap.Error(err))
	}
	log := logging.Must(cfg.LogLevel, cfg.LogDev)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("startup", zap.Error(err))
	}
	defer a.Close()
	go a.PurgeLoop(ctx, time.Hour)

	mux := http.NewServeMux()
	handle.New(a.Engines, a.Analyzer, log, cfg.RequestTimeout()).Register(mux)

	if err := httpserver.Serve(ctx, ":"+cfg.Port, mux, log); err != nil {
		log.Fatal("http", zap.Error(err))
	}
}
