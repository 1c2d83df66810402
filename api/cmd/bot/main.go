package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"zeropoint/api/internal/app"
	"zeropoint/api/internal/config"
	"zeropoint/api/internal/httpserver"
	"zeropoint/api/internal/llm"
	"zeropoint/api/internal/llm/providers"
	"zeropoint/api/internal/logging"
	"zeropoint/api/internal/telegram"
	"zeropoint/api/internal/util"
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

	token := cfg.TelegramBotToken
	if token == "" {
		_, err := config.MustEnv("TELEGRAM_BOT_TOKEN")
		log.Fatal("telegram", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("startup", zap.Error(err))
	}
	defer a.Close()
	go a.PurgeLoop(ctx, time.Hour)

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		log.Fatal("telegram", zap.Error(err))
	}
	bot.Debug = false
	log.Info("telegram authorized", zap.String("bot", bot.Self.UserName))

	def, err := providers.DefaultEngine(cfg, a.Engines)
	if err != nil {
		log.Fatal("default engine", zap.Error(err))
	}
	r := &telegram.Router{
		Bot:        bot,
		Engines:    a.Engines,
		EngManager: llm.NewManager(def),
		Analyzer:   a.Analyzer,
		Log:        log,
		Timeout:    cfg.RequestTimeout(),
	}
	defer r.Wait()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		pctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		if err := a.Ping(pctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("db: not ok\n" + err.Error()))
			return
		}
		_, _ = w.Write([]byte("ok"))
	})

	addr := "0.0.0.0:" + cfg.Port
	if webhookURL := strings.TrimSpace(cfg.WebhookURL); webhookURL != "" {
		startWebhookMode(ctx, log, addr, mux, bot, r, webhookURL)
		return
	}
	startPollingMode(ctx, log, addr, mux, bot, r)
}

func startWebhookMode(ctx context.Context, log *zap.Logger, addr string, mux *http.ServeMux, bot *tgbotapi.BotAPI, r *telegram.Router, baseURL string) {
	// secret path so random callers cannot post updates
	path := "/webhook/" + util.SHA256Hex([]byte(bot.Token))[:16]
	public := strings.TrimRight(baseURL, "/") + path

	wh, err := tgbotapi.NewWebhook(public)
	if err != nil {
		log.Fatal("webhook", zap.Error(err))
	}
	wh.DropPendingUpdates = true
	if _, err := bot.Request(wh); err != nil {
		log.Fatal("set webhook", zap.Error(err))
	}

	mux.HandleFunc(path, func(w http.ResponseWriter, req *http.Request) {
		upd, err := bot.HandleUpdate(req)
		if err != nil {
			log.Warn("webhook update", zap.Error(err))
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		r.HandleUpdate(*upd)
	})

	log.Info("webhook mode", zap.String("addr", addr), zap.String("path", path))
	if err := httpserver.Serve(ctx, addr, mux, log); err != nil {
		log.Fatal("http", zap.Error(err))
	}
}

func startPollingMode(ctx context.Context, log *zap.Logger, addr string, mux *http.ServeMux, bot *tgbotapi.BotAPI, r *telegram.Router) {
	if _, err := bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		log.Warn("delete webhook", zap.Error(err))
	}
	go func() {
		if err := httpserver.Serve(ctx, addr, mux, log); err != nil {
			log.Error("health server", zap.Error(err))
		}
	}()

	log.Info("polling mode")
	telegram.RunPolling(ctx, bot, log, r.HandleUpdate)
}
