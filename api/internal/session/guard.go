package session

import (
	"context"
	"errors"
	"sync"

	"zeropoint/api/internal/assembler"
)

// ErrSuperseded is returned for a request that finished after a newer one
// was started on the same guard.
var ErrSuperseded = errors.New("request superseded by a newer one")

// Guard tracks the single in-flight analysis of one client (chat, browser
// tab, CLI run). Request ids only grow.
type Guard struct {
	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

type Ticket struct {
	ID     uint64
	ctx    context.Context
	cancel context.CancelFunc
	g      *Guard
}

// Begin supersedes whatever is in flight and returns a ticket whose context
// is cancelled by the next Begin or Reset.
func (g *Guard) Begin(parent context.Context) *Ticket {
	ctx, cancel := context.WithCancel(parent)

	g.mu.Lock()
	if g.cancel != nil {
		g.cancel()
	}
	g.seq++
	g.cancel = cancel
	id := g.seq
	g.mu.Unlock()

	return &Ticket{ID: id, ctx: ctx, cancel: cancel, g: g}
}

// Reset supersedes the in-flight request without starting another.
func (g *Guard) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	g.seq++
}

func (g *Guard) Current() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq
}

func (t *Ticket) Context() context.Context { return t.ctx }

// Live reports whether no newer request has been started since t.
func (t *Ticket) Live() bool { return t.g.Current() == t.ID }

// Progress wraps fn so updates from a superseded ticket are dropped.
func (t *Ticket) Progress(fn assembler.ProgressFunc) assembler.ProgressFunc {
	if fn == nil {
		return nil
	}
	return func(raw string) {
		if t.Live() {
			fn(raw)
		}
	}
}

// Release frees the ticket's context. It does not touch the guard.
func (t *Ticket) Release() { t.cancel() }
