// Package app wires configuration into the engines, cache and analyzer
// shared by every binary.
package app

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"zeropoint/api/internal/assembler"
	"zeropoint/api/internal/config"
	"zeropoint/api/internal/llm"
	"zeropoint/api/internal/llm/providers"
	"zeropoint/api/internal/session"
	"zeropoint/api/internal/store"
)

type App struct {
	Config   *config.Config
	Log      *zap.Logger
	Engines  *llm.Engines
	Analyzer *session.Analyzer

	db   *sql.DB
	repo *store.AnalysisRepo
}

// New builds the app. The analysis cache is enabled only when a database is
// configured (DATABASE_URL or POSTGRES_* variables).
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	a := &App{Config: cfg, Log: log, Engines: providers.New(cfg)}

	dsn := cfg.DatabaseURL
	if dsn == "" {
		dsn = store.DSNFromEnv()
	}
	if dsn != "" {
		db, err := store.Open(ctx, dsn)
		if err != nil {
			return nil, err
		}
		repo := store.NewAnalysisRepo(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		a.db, a.repo = db, repo
		log.Info("db connected", zap.String("dsn", store.SafeSummary(dsn)))
	}

	asm := assembler.New(log)
	asm.Lenient = cfg.Lenient
	var cache session.Cache
	if a.repo != nil {
		cache = a.repo
	}
	a.Analyzer = session.NewAnalyzer(asm, cache, cfg.CacheTTL(), log)

	log.Info("engines ready", zap.Strings("engines", a.Engines.Names()), zap.Bool("cache", a.repo != nil))
	return a, nil
}

// Ping checks the database, if any.
func (a *App) Ping(ctx context.Context) error {
	if a.db == nil {
		return nil
	}
	return a.db.PingContext(ctx)
}

// PurgeLoop deletes expired cache rows every interval until ctx is done.
func (a *App) PurgeLoop(ctx context.Context, interval time.Duration) {
	ttl := a.Config.CacheTTL()
	if a.repo == nil || ttl <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := a.repo.PurgeOlderThan(ctx, ttl)
			if err != nil {
				a.Log.Warn("cache purge failed", zap.Error(err))
				continue
			}
			if n > 0 {
				a.Log.Info("cache purged", zap.Int64("rows", n))
			}
		}
	}
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
