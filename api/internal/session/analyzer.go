package session

import (
	"context"
	"errors"
	"time"

	"zeropoint/api/internal/analysis"
	"zeropoint/api/internal/assembler"
	"zeropoint/api/internal/llm"
	"zeropoint/api/internal/store"

	"go.uber.org/zap"
)

// Cache stores finished analyses. store.AnalysisRepo satisfies it.
type Cache interface {
	Find(ctx context.Context, key string, maxAge time.Duration) (*analysis.Result, error)
	Upsert(ctx context.Context, key, engine, model string, res *analysis.Result) error
}

type Analyzer struct {
	Assembler *assembler.Assembler
	Cache     Cache // optional
	CacheTTL  time.Duration
	Log       *zap.Logger

	now func() time.Time
}

func NewAnalyzer(asm *assembler.Assembler, cache Cache, ttl time.Duration, log *zap.Logger) *Analyzer {
	if log == nil {
		log = zap.NewNop()
	}
	if asm == nil {
		asm = assembler.New(log)
	}
	return &Analyzer{Assembler: asm, Cache: cache, CacheTTL: ttl, Log: log, now: time.Now}
}

type Outcome struct {
	RequestID uint64           `json:"request_id,omitempty"`
	Engine    string           `json:"engine"`
	Model     string           `json:"model"`
	Cached    bool             `json:"cached"`
	Duration  time.Duration    `json:"-"`
	Result    *analysis.Result `json:"result"`
}

// Run performs one analysis on eng. Progress is called with the accumulated
// raw text after every fragment.
func (a *Analyzer) Run(ctx context.Context, eng llm.Engine, req analysis.Request, onProgress assembler.ProgressFunc) (*Outcome, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if eng == nil {
		return nil, &analysis.Error{Kind: analysis.StreamFailure, Message: "Failed to analyze content: no engine configured"}
	}
	log := a.logger().With(zap.String("engine", eng.Name()), zap.String("model", eng.GetModel()))
	start := a.clock()
	out := &Outcome{Engine: eng.Name(), Model: eng.GetModel()}

	key := store.Key(eng.Name(), eng.GetModel(), req)
	if a.Cache != nil {
		res, err := a.Cache.Find(ctx, key, a.CacheTTL)
		switch {
		case err == nil:
			log.Debug("analysis cache hit", zap.String("key", key))
			out.Result, out.Cached, out.Duration = res, true, a.clock().Sub(start)
			return out, nil
		case !errors.Is(err, store.ErrNotFound):
			log.Warn("analysis cache lookup failed", zap.Error(err))
		}
	}

	st, err := eng.Stream(ctx, req)
	if err != nil {
		var ae *analysis.Error
		if errors.As(err, &ae) {
			return nil, err
		}
		return nil, &analysis.Error{Kind: analysis.StreamFailure, Message: "Failed to analyze content: " + err.Error(), Err: err}
	}
	defer st.Close()

	asm := a.Assembler
	if asm == nil {
		asm = assembler.New(log)
	}
	res, err := asm.Assemble(ctx, req, st, onProgress)
	if err != nil {
		log.Info("analysis failed", zap.Stringer("kind", analysis.KindOf(err)), zap.Error(err))
		return nil, err
	}
	out.Result = res
	out.Duration = a.clock().Sub(start)
	log.Info("analysis done",
		zap.Duration("took", out.Duration),
		zap.Int("assumptions", len(res.Assumptions)),
		zap.String("target", res.KnowledgeMap.TargetConcept))

	if a.Cache != nil {
		if err := a.Cache.Upsert(ctx, key, eng.Name(), eng.GetModel(), res); err != nil {
			log.Warn("analysis cache store failed", zap.Error(err))
		}
	}
	return out, nil
}

// RunGuarded is Run under g: it supersedes the previous request, drops stale
// progress and reports ErrSuperseded if a newer request started meanwhile.
func (a *Analyzer) RunGuarded(ctx context.Context, g *Guard, eng llm.Engine, req analysis.Request, onProgress assembler.ProgressFunc) (*Outcome, error) {
	t := g.Begin(ctx)
	defer t.Release()

	out, err := a.Run(t.Context(), eng, req, t.Progress(onProgress))
	if !t.Live() {
		return nil, ErrSuperseded
	}
	if err != nil {
		return nil, err
	}
	out.RequestID = t.ID
	return out, nil
}

func (a *Analyzer) logger() *zap.Logger {
	if a.Log == nil {
		return zap.NewNop()
	}
	return a.Log
}

func (a *Analyzer) clock() time.Time {
	if a.now == nil {
		return time.Now()
	}
	return a.now()
}
