package gpt

import (
	"context"
	"encoding/base64"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"zeropoint/api/internal/analysis"
	"zeropoint/api/internal/llm"
	"zeropoint/api/internal/util"

	"github.com/sashabaranov/go-openai"
)

const DefaultModel = "gpt-4o-mini"

type Engine struct {
	APIKey string
	Model  string
	client *openai.Client
}

// New builds an engine against the OpenAI API, or any compatible endpoint
// when baseURL is set.
func New(key, model, baseURL string) *Engine {
	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultModel
	}
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 120 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConnsPerHost:   100,
	}
	cfg := openai.DefaultConfig(strings.TrimSpace(key))
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	// no client timeout: the body of a stream is read for as long as the model talks
	cfg.HTTPClient = &http.Client{Transport: tr}

	return &Engine{
		APIKey: strings.TrimSpace(key),
		Model:  model,
		client: openai.NewClientWithConfig(cfg),
	}
}

func (e *Engine) Name() string     { return "gpt" }
func (e *Engine) GetModel() string { return e.Model }

func (e *Engine) Stream(ctx context.Context, req analysis.Request) (llm.Stream, error) {
	if e.APIKey == "" {
		return nil, fmt.Errorf("gpt: %w", llm.ErrNoAPIKey)
	}
	system, err := llm.SystemPrompt()
	if err != nil {
		return nil, err
	}
	user, err := userMessage(req)
	if err != nil {
		return nil, err
	}

	st, err := e.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:       e.Model,
		Temperature: llm.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			user,
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gpt: %w", err)
	}
	return &stream{st: st}, nil
}

func userMessage(req analysis.Request) (openai.ChatCompletionMessage, error) {
	if !req.HasImage() {
		return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: llm.UserText(req.Text)}, nil
	}
	mime := util.PickMIME(req.Image.MIMEType, "", req.Image.Data)
	if !util.IsImage(mime) {
		return openai.ChatCompletionMessage{}, &analysis.Error{
			Kind:    analysis.InvalidRequest,
			Message: fmt.Sprintf("Unsupported image type %s. Use PNG, JPEG, GIF or WebP.", mime),
		}
	}
	dataURL := util.MakeDataURL(mime, base64.StdEncoding.EncodeToString(req.Image.Data))
	return openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{
				Type:     openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{URL: dataURL, Detail: openai.ImageURLDetailAuto},
			},
			{Type: openai.ChatMessagePartTypeText, Text: llm.UserText(req.Text)},
		},
	}, nil
}

type stream struct {
	st *openai.ChatCompletionStream
}

func (s *stream) Recv() (string, error) {
	for {
		resp, err := s.st.Recv()
		if err != nil {
			// io.EOF passes through untouched
			return "", err
		}
		var sb strings.Builder
		for _, c := range resp.Choices {
			sb.WriteString(c.Delta.Content)
		}
		if sb.Len() > 0 {
			return sb.String(), nil
		}
	}
}

func (s *stream) Close() error { return s.st.Close() }
