package claude

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"zeropoint/api/internal/analysis"
	"zeropoint/api/internal/llm"
	"zeropoint/api/internal/util"

	"github.com/liushuangls/go-anthropic/v2"
)

const (
	DefaultModel = "claude-3-5-sonnet-latest"
	maxTokens    = 8192
)

type Engine struct {
	APIKey string
	Model  string
	client *anthropic.Client
}

func New(apiKey, model, baseURL string) *Engine {
	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultModel
	}
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}
	apiKey = strings.TrimSpace(apiKey)
	return &Engine{
		APIKey: apiKey,
		Model:  model,
		client: anthropic.NewClient(apiKey, opts...),
	}
}

func (e *Engine) Name() string     { return "claude" }
func (e *Engine) GetModel() string { return e.Model }

// Stream runs the messages stream on a separate goroutine and hands text
// deltas over as fragments.
func (e *Engine) Stream(ctx context.Context, req analysis.Request) (llm.Stream, error) {
	if e.APIKey == "" {
		return nil, fmt.Errorf("claude: %w", llm.ErrNoAPIKey)
	}
	system, err := llm.SystemPrompt()
	if err != nil {
		return nil, err
	}
	content, err := messageContent(req)
	if err != nil {
		return nil, err
	}
	temp := float32(llm.Temperature)

	return llm.NewPushStream(ctx, func(ctx context.Context, emit llm.EmitFunc) error {
		_, err := e.client.CreateMessagesStream(ctx, anthropic.MessagesStreamRequest{
			MessagesRequest: anthropic.MessagesRequest{
				Model:       anthropic.Model(e.Model),
				System:      system,
				MaxTokens:   maxTokens,
				Temperature: &temp,
				Messages: []anthropic.Message{
					{Role: anthropic.RoleUser, Content: content},
				},
			},
			OnContentBlockDelta: func(data anthropic.MessagesEventContentBlockDeltaData) {
				if data.Delta.Text != nil && *data.Delta.Text != "" {
					emit(*data.Delta.Text)
				}
			},
		})
		if err != nil {
			return fmt.Errorf("claude: %w", err)
		}
		return nil
	}), nil
}

func messageContent(req analysis.Request) ([]anthropic.MessageContent, error) {
	var out []anthropic.MessageContent
	if req.HasImage() {
		mime := util.PickMIME(req.Image.MIMEType, "", req.Image.Data)
		if !util.IsImage(mime) {
			return nil, &analysis.Error{
				Kind:    analysis.InvalidRequest,
				Message: fmt.Sprintf("Unsupported image type %s. Use PNG, JPEG, GIF or WebP.", mime),
			}
		}
		out = append(out, anthropic.NewImageMessageContent(anthropic.MessageContentSource{
			Type:      anthropic.MessagesContentSourceTypeBase64,
			MediaType: mime,
			Data:      base64.StdEncoding.EncodeToString(req.Image.Data),
		}))
	}
	return append(out, anthropic.NewTextMessageContent(llm.UserText(req.Text))), nil
}
