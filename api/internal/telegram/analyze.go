package telegram

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"zeropoint/api/internal/analysis"
	"zeropoint/api/internal/llm"
	"zeropoint/api/internal/session"
)

// startAnalysis posts a progress message and runs the analysis in the
// background. A newer request in the same chat supersedes this one.
func (r *Router) startAnalysis(chatID int64, req analysis.Request) {
	if err := req.Validate(); err != nil {
		r.send(chatID, analysis.UserMessage(err))
		return
	}
	eng := r.EngManager.Get(chatID)
	if eng == nil {
		r.send(chatID, "No LLM is configured on this bot.")
		return
	}
	msg, err := r.Bot.Send(tgbotapi.NewMessage(chatID, progressText(eng, 0)))
	if err != nil {
		r.log().Warn("telegram send", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.runAnalysis(chatID, msg.MessageID, eng, req)
	}()
}

func (r *Router) runAnalysis(chatID int64, msgID int, eng llm.Engine, req analysis.Request) {
	st := r.chat(chatID)
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var last time.Time
	onProgress := func(raw string) {
		if time.Since(last) < progressInterval {
			return
		}
		last = time.Now()
		r.edit(chatID, msgID, progressText(eng, utf8.RuneCountInString(raw)), nil)
	}

	out, err := r.Analyzer.RunGuarded(ctx, &st.guard, eng, req, onProgress)
	switch {
	case errors.Is(err, session.ErrSuperseded):
		r.edit(chatID, msgID, "⏹ Cancelled.", nil)
		return
	case err != nil:
		r.log().Info("telegram analysis failed", zap.Int64("chat_id", chatID), zap.Error(err))
		r.edit(chatID, msgID, "❌ "+esc(analysis.UserMessage(err)), nil)
		return
	}

	st.mu.Lock()
	if st.guard.Current() != out.RequestID {
		st.mu.Unlock()
		r.edit(chatID, msgID, "⏹ Cancelled.", nil)
		return
	}
	st.clear()
	st.out = out
	st.msgID = msgID
	text, kb := renderDashboard(st)
	st.mu.Unlock()

	r.edit(chatID, msgID, text, &kb)
}

func progressText(eng llm.Engine, chars int) string {
	if chars == 0 {
		return fmt.Sprintf("⏳ Analyzing with %s…", eng.Name())
	}
	return fmt.Sprintf("⏳ Analyzing with %s… %d characters received", eng.Name(), chars)
}
