package telegram

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"zeropoint/api/internal/analysis"
	"zeropoint/api/internal/llm"
	"zeropoint/api/internal/session"
)

// Bot is the part of *tgbotapi.BotAPI the router uses.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

type Router struct {
	Bot        Bot
	Engines    *llm.Engines
	EngManager *llm.Manager
	Analyzer   *session.Analyzer
	Log        *zap.Logger
	// Timeout bounds one analysis; zero means three minutes.
	Timeout time.Duration

	chats   sync.Map // chatID -> *chatState
	batches sync.Map // key -> *photoBatch
	wg      sync.WaitGroup
}

// Wait blocks until every analysis started by the router has finished.
func (r *Router) Wait() { r.wg.Wait() }

func (r *Router) HandleUpdate(upd tgbotapi.Update) {
	if upd.CallbackQuery != nil {
		r.handleCallback(*upd.CallbackQuery)
		return
	}
	if upd.Message == nil {
		return
	}
	msg := upd.Message
	switch {
	case msg.IsCommand():
		r.HandleCommand(msg)
	case len(msg.Photo) > 0:
		r.acceptPhoto(*msg)
	case strings.TrimSpace(msg.Text) != "":
		r.startAnalysis(msg.Chat.ID, analysis.Request{Text: msg.Text})
	}
}

func (r *Router) HandleCommand(msg *tgbotapi.Message) {
	cid := msg.Chat.ID
	switch msg.Command() {
	case "start", "help":
		r.send(cid, "Send a JEE Mathematics problem as text or a photo and I will list the prerequisites it assumes, "+
			"map how they depend on each other and give you micro-lessons and quick gap tests.\n\n"+
			"Commands: /engine, /reset, /health")
	case "health":
		r.send(cid, "✅ OK, engines: "+strings.Join(r.Engines.Names(), ", "))
	case "engine":
		r.handleEngineCommand(cid, msg.CommandArguments())
	case "reset":
		st := r.chat(cid)
		st.guard.Reset()
		st.mu.Lock()
		st.clear()
		st.mu.Unlock()
		r.send(cid, "Cleared. Send a new problem whenever you are ready.")
	default:
		r.send(cid, "Unknown command. Try /start")
	}
}

// handleEngineCommand switches the chat's engine:
//
//	/engine
//	/engine gemini|gpt|claude
func (r *Router) handleEngineCommand(chatID int64, args string) {
	name := strings.ToLower(strings.TrimSpace(args))
	if name == "" {
		cur := "none"
		if e := r.EngManager.Get(chatID); e != nil {
			cur = fmt.Sprintf("%s (%s)", e.Name(), e.GetModel())
		}
		r.send(chatID, "Current engine: "+cur+"\nUsage: /engine "+strings.Join(r.Engines.Names(), " | "))
		return
	}
	eng, err := r.Engines.GetEngine(name)
	if err != nil {
		r.send(chatID, "❌ "+err.Error())
		return
	}
	r.EngManager.Set(chatID, eng)
	r.send(chatID, fmt.Sprintf("✅ Engine: %s (%s)", eng.Name(), eng.GetModel()))
}

func (r *Router) send(chatID int64, text string) {
	if _, err := r.Bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		r.log().Warn("telegram send", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// edit replaces the text (and keyboard, when kb is set) of a message sent
// earlier. Text is Markdown.
func (r *Router) edit(chatID int64, msgID int, text string, kb *tgbotapi.InlineKeyboardMarkup) {
	e := tgbotapi.NewEditMessageText(chatID, msgID, text)
	e.ParseMode = tgbotapi.ModeMarkdown
	e.ReplyMarkup = kb
	if _, err := r.Bot.Send(e); err != nil {
		// "message is not modified" is routine when nothing changed
		r.log().Debug("telegram edit", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (r *Router) log() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}
