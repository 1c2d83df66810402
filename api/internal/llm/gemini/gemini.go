package gemini

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"zeropoint/api/internal/analysis"
	"zeropoint/api/internal/llm"
	"zeropoint/api/internal/util"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

const DefaultModel = "gemini-2.5-flash"

type Engine struct {
	APIKey string
	Model  string
}

func New(apiKey, model string) *Engine {
	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultModel
	}
	return &Engine{
		APIKey: strings.TrimSpace(apiKey),
		Model:  model,
	}
}

func (e *Engine) Name() string     { return "gemini" }
func (e *Engine) GetModel() string { return e.Model }

// Stream starts a streaming generation. The image, when present, goes before
// the text part.
func (e *Engine) Stream(ctx context.Context, req analysis.Request) (llm.Stream, error) {
	if e.APIKey == "" {
		return nil, fmt.Errorf("gemini: %w", llm.ErrNoAPIKey)
	}
	system, err := llm.SystemPrompt()
	if err != nil {
		return nil, err
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(e.APIKey))
	if err != nil {
		return nil, err
	}

	m := cl.GenerativeModel(e.Model)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(llm.Temperature),
		ResponseMIMEType: "application/json",
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(system)},
	}

	it := m.GenerateContentStream(ctx, parts(req)...)
	return &stream{cl: cl, it: it}, nil
}

func parts(req analysis.Request) []genai.Part {
	var out []genai.Part
	if req.HasImage() {
		mime := util.PickMIME(req.Image.MIMEType, "", req.Image.Data)
		out = append(out, genai.Blob{MIMEType: mime, Data: req.Image.Data})
	}
	return append(out, genai.Text(llm.UserText(req.Text)))
}

type stream struct {
	cl *genai.Client
	it *genai.GenerateContentResponseIterator
}

// Recv skips chunks that carry no text (safety or usage-only chunks).
func (s *stream) Recv() (string, error) {
	for {
		resp, err := s.it.Next()
		if errors.Is(err, iterator.Done) {
			return "", io.EOF
		}
		if err != nil {
			return "", err
		}
		if t := chunkText(resp); t != "" {
			return t, nil
		}
	}
}

func (s *stream) Close() error { return s.cl.Close() }

// chunkText joins the text parts of the first candidate.
func chunkText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	c := resp.Candidates[0]
	if c.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range c.Content.Parts {
		if t, ok := p.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return sb.String()
}

func ptrFloat32(v float32) *float32 { return &v }
