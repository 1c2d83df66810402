// Package assembler turns a streamed model answer into an analysis.Result.
//
// Fragments are concatenated in arrival order and the buffer is published to
// a progress observer after each one. Nothing is parsed until the source is
// exhausted; the only clean-up before parsing is removal of a "```json"
// opening fence and a "```" closing fence.
package assembler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"zeropoint/api/internal/analysis"
)

// Source yields fragments until it returns io.EOF.
type Source interface {
	Recv() (string, error)
}

// ProgressFunc receives the whole accumulated text after every fragment.
type ProgressFunc func(raw string)

const (
	openFence  = "```json"
	closeFence = "```"
)

type Assembler struct {
	// Lenient skips the boundary shape check of the parsed result.
	Lenient bool
	Log     *zap.Logger
}

func New(log *zap.Logger) *Assembler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Assembler{Log: log}
}

// Assemble drains src and builds the result for req. A nil Assembler behaves
// like New(nil).
func (a *Assembler) Assemble(ctx context.Context, req analysis.Request, src Source, onProgress ProgressFunc) (*analysis.Result, error) {
	if a == nil {
		a = New(nil)
	}
	log := a.Log
	if log == nil {
		log = zap.NewNop()
	}

	var buf strings.Builder
	fragments := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, &analysis.Error{Kind: analysis.StreamFailure, Message: "Failed to analyze content: " + err.Error(), Err: err}
		}
		frag, err := src.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &analysis.Error{Kind: analysis.StreamFailure, Message: "Failed to analyze content: " + err.Error(), Err: err}
		}
		fragments++
		buf.WriteString(frag)
		if onProgress != nil {
			onProgress(buf.String())
		}
	}

	raw := buf.String()
	log.Debug("stream finished", zap.Int("fragments", fragments), zap.Int("bytes", len(raw)))

	return a.parse(req, raw)
}

func (a *Assembler) parse(req analysis.Request, raw string) (*analysis.Result, error) {
	cleaned := StripFences(raw)

	// An object is required; null, arrays and scalars are malformed.
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil || fields == nil {
		if err == nil {
			err = errors.New("response is not a JSON object")
		}
		return nil, &analysis.Error{Kind: analysis.MalformedResponse, Message: "The AI returned a response that could not be parsed.", Raw: raw, Err: err}
	}

	if msg, ok := fields["error"]; ok {
		if refusal := refusalText(msg); refusal != "" {
			return nil, &analysis.Error{Kind: analysis.ModelRefusal, Message: refusal}
		}
	}

	var res analysis.Result
	if err := json.Unmarshal([]byte(cleaned), &res); err != nil {
		return nil, &analysis.Error{Kind: analysis.MalformedResponse, Message: "The AI response does not match the expected shape.", Raw: raw, Err: err}
	}
	if !a.Lenient {
		if err := res.Validate(); err != nil {
			return nil, &analysis.Error{Kind: analysis.MalformedResponse, Message: "The AI response does not match the expected shape.", Raw: raw, Err: err}
		}
	}

	if res.OriginalContent == "" {
		res.OriginalContent = req.ContentFallback()
	}
	return &res, nil
}

// refusalText extracts a truthy error value. Strings are used verbatim; any
// other non-empty value is rendered as JSON text.
func refusalText(msg json.RawMessage) string {
	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		return s
	}
	t := strings.TrimSpace(string(msg))
	switch t {
	case "", "null", "false", "0":
		return ""
	}
	return t
}

// StripFences removes a leading "```json" marker with the whitespace that
// follows it and a trailing "```" marker. Text without fences is returned
// unchanged and StripFences(StripFences(s)) == StripFences(s).
func StripFences(s string) string {
	for strings.HasPrefix(s, openFence) {
		s = strings.TrimLeftFunc(s[len(openFence):], unicode.IsSpace)
	}
	for strings.HasSuffix(s, closeFence) {
		s = s[:len(s)-len(closeFence)]
	}
	return s
}
