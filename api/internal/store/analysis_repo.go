package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"zeropoint/api/internal/analysis"
	"zeropoint/api/internal/util"
)

var ErrNotFound = sql.ErrNoRows

type AnalysisRepo struct{ DB *sql.DB }

func NewAnalysisRepo(db *sql.DB) *AnalysisRepo { return &AnalysisRepo{DB: db} }

var schema = []string{
	`create table if not exists analyses (
  key         text primary key,
  engine      text not null,
  model       text not null,
  target      text not null default '',
  difficulty  text not null default '',
  result_json jsonb not null,
  created_at  timestamptz not null default now()
)`,
	`create index if not exists analyses_created_at_idx on analyses (created_at)`,
}

func (r *AnalysisRepo) EnsureSchema(ctx context.Context) error {
	for _, q := range schema {
		if _, err := r.DB.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// Key identifies an analysis by engine, model and the exact request content.
func Key(engine, model string, req analysis.Request) string {
	var img []byte
	if req.HasImage() {
		img = req.Image.Data
	}
	return util.Fingerprint([]byte(engine), []byte(model), []byte(req.Text), img)
}

// Find returns the cached result for key. Missing, stale (when maxAge > 0)
// and corrupt rows all report ErrNotFound.
func (r *AnalysisRepo) Find(ctx context.Context, key string, maxAge time.Duration) (*analysis.Result, error) {
	const q = `select result_json, created_at from analyses where key = $1`
	var (
		js []byte
		ts time.Time
	)
	if err := r.DB.QueryRowContext(ctx, q, key).Scan(&js, &ts); err != nil {
		return nil, err
	}
	if maxAge > 0 && time.Since(ts) > maxAge {
		return nil, ErrNotFound
	}
	var res analysis.Result
	if err := json.Unmarshal(js, &res); err != nil {
		return nil, ErrNotFound
	}
	if res.Validate() != nil {
		return nil, ErrNotFound
	}
	return &res, nil
}

// Upsert stores res under key, refreshing created_at.
func (r *AnalysisRepo) Upsert(ctx context.Context, key, engine, model string, res *analysis.Result) error {
	if res == nil {
		return errors.New("nil result")
	}
	js, err := json.Marshal(res)
	if err != nil {
		return err
	}
	const q = `
insert into analyses (key, engine, model, target, difficulty, result_json)
values ($1,$2,$3,$4,$5,$6)
on conflict (key) do update
set engine = excluded.engine,
    model = excluded.model,
    target = excluded.target,
    difficulty = excluded.difficulty,
    result_json = excluded.result_json,
    created_at = now()`
	_, err = r.DB.ExecContext(ctx, q,
		key, engine, model, res.KnowledgeMap.TargetConcept, string(res.DifficultyLevel), js)
	return err
}

func (r *AnalysisRepo) PurgeOlderThan(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, errors.New("olderThan must be > 0")
	}
	cutoff := time.Now().Add(-olderThan)
	res, err := r.DB.ExecContext(ctx, `delete from analyses where created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	aff, _ := res.RowsAffected()
	return aff, nil
}
