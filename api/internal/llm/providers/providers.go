package providers

import (
	"zeropoint/api/internal/config"
	"zeropoint/api/internal/llm"
	"zeropoint/api/internal/llm/claude"
	"zeropoint/api/internal/llm/gemini"
	"zeropoint/api/internal/llm/gpt"
)

// New registers an engine for every provider that has a key.
func New(cfg *config.Config) *llm.Engines {
	engs := &llm.Engines{}
	if cfg.Gemini.APIKey != "" {
		engs.Gemini = gemini.New(cfg.Gemini.APIKey, cfg.Gemini.Model)
	}
	if cfg.OpenAI.APIKey != "" {
		engs.OpenAI = gpt.New(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL)
	}
	if cfg.Claude.APIKey != "" {
		engs.Claude = claude.New(cfg.Claude.APIKey, cfg.Claude.Model, cfg.Claude.BaseURL)
	}
	return engs
}

// DefaultEngine honours cfg.DefaultLLM and falls back to the first
// configured engine.
func DefaultEngine(cfg *config.Config, engs *llm.Engines) (llm.Engine, error) {
	return engs.GetEngine(cfg.DefaultLLM)
}
