package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"zeropoint/api/internal/analysis"
)

// Stream yields response fragments in order. Recv returns io.EOF once the
// model is done; Close releases the underlying connection and may be called
// at any time.
type Stream interface {
	Recv() (string, error)
	Close() error
}

type Engine interface {
	Name() string
	GetModel() string
	// Stream opens a streaming generation for req. The returned stream must
	// be closed by the caller.
	Stream(ctx context.Context, req analysis.Request) (Stream, error)
}

type Engines struct {
	Gemini Engine
	OpenAI Engine
	Claude Engine
}

// GetEngine resolves an engine by user-facing name. An empty name picks the
// first configured engine.
func (e *Engines) GetEngine(llmName string) (Engine, error) {
	var eng Engine
	switch strings.ToLower(strings.TrimSpace(llmName)) {
	case "":
		eng = e.Default()
	case "gemini":
		eng = e.Gemini
	case "gpt", "openai":
		eng = e.OpenAI
	case "claude", "anthropic":
		eng = e.Claude
	default:
		return nil, fmt.Errorf("unknown llm_name %q; use 'gemini', 'gpt' or 'claude'", llmName)
	}
	if eng == nil {
		return nil, fmt.Errorf("llm %q is not configured", llmName)
	}
	return eng, nil
}

func (e *Engines) Default() Engine {
	for _, eng := range []Engine{e.Gemini, e.OpenAI, e.Claude} {
		if eng != nil {
			return eng
		}
	}
	return nil
}

func (e *Engines) Names() []string {
	var out []string
	if e.Gemini != nil {
		out = append(out, "gemini")
	}
	if e.OpenAI != nil {
		out = append(out, "gpt")
	}
	if e.Claude != nil {
		out = append(out, "claude")
	}
	return out
}

// Manager remembers the engine chosen per chat.
type Manager struct {
	def Engine
	m   sync.Map // chatID -> Engine
}

func NewManager(defaultEngine Engine) *Manager {
	return &Manager{def: defaultEngine}
}

func (m *Manager) Get(chatID int64) Engine {
	if v, ok := m.m.Load(chatID); ok {
		return v.(Engine)
	}
	return m.def
}

func (m *Manager) Set(chatID int64, e Engine) {
	m.m.Store(chatID, e)
}

// SliceStream replays fixed fragments. Used for cached answers and tests.
type SliceStream struct {
	Fragments []string
	Err       error
	i         int
}

func (s *SliceStream) Recv() (string, error) {
	if s.i < len(s.Fragments) {
		f := s.Fragments[s.i]
		s.i++
		return f, nil
	}
	if s.Err != nil {
		return "", s.Err
	}
	return "", io.EOF
}

func (s *SliceStream) Close() error { return nil }

// ErrNoAPIKey is returned by engines constructed without a key.
var ErrNoAPIKey = errors.New("api key is empty")
