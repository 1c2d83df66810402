package gpt

import (
	"context"
	"strings"
	"testing"

	"zeropoint/api/internal/analysis"
	"zeropoint/api/internal/llm"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserMessage_Text(t *testing.T) {
	m, err := userMessage(analysis.Request{Text: "Find lim x→0 sin x / x"})
	require.NoError(t, err)
	assert.Equal(t, openai.ChatMessageRoleUser, m.Role)
	assert.Equal(t, "Find lim x→0 sin x / x", m.Content)
	assert.Empty(t, m.MultiContent)
}

func TestUserMessage_Image(t *testing.T) {
	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0x10, 'J', 'F', 'I', 'F'}
	m, err := userMessage(analysis.Request{Image: &analysis.Image{Data: jpeg}})
	require.NoError(t, err)
	require.Len(t, m.MultiContent, 2)

	img := m.MultiContent[0]
	assert.Equal(t, openai.ChatMessagePartTypeImageURL, img.Type)
	require.NotNil(t, img.ImageURL)
	assert.True(t, strings.HasPrefix(img.ImageURL.URL, "data:image/jpeg;base64,"))
	assert.Equal(t, llm.UserText(""), m.MultiContent[1].Text)
}

func TestUserMessage_RejectsNonImage(t *testing.T) {
	_, err := userMessage(analysis.Request{Image: &analysis.Image{Data: []byte("%PDF-1.7"), MIMEType: "application/pdf"}})
	assert.ErrorIs(t, err, analysis.ErrInvalidRequest)
}

func TestStream_NoKey(t *testing.T) {
	e := New("", "", "")
	assert.Equal(t, DefaultModel, e.GetModel())
	_, err := e.Stream(context.Background(), analysis.Request{Text: "x"})
	assert.ErrorIs(t, err, llm.ErrNoAPIKey)
}
