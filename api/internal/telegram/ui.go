package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Callback data, all well under Telegram's 64 byte limit:
//
//	sec:<section>  les:<lesson>  rev:<lesson>  focus:<assumption>
//	node:<node>    node:-1       quiz:<test>:<option>
const (
	cbSection = "sec"
	cbLesson  = "les"
	cbReveal  = "rev"
	cbFocus   = "focus"
	cbNode    = "node"
	cbQuiz    = "quiz"
)

func cbData(kind string, idx ...int) string {
	parts := []string{kind}
	for _, i := range idx {
		parts = append(parts, fmt.Sprint(i))
	}
	return strings.Join(parts, ":")
}

func button(label, data string) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(truncate(label, 40), data)
}

// rows packs buttons into rows of at most n.
func rows(buttons []tgbotapi.InlineKeyboardButton, n int) [][]tgbotapi.InlineKeyboardButton {
	var out [][]tgbotapi.InlineKeyboardButton
	for len(buttons) > 0 {
		k := min(n, len(buttons))
		out = append(out, tgbotapi.NewInlineKeyboardRow(buttons[:k]...))
		buttons = buttons[k:]
	}
	return out
}

// light Markdown escaping
func esc(s string) string {
	s = strings.ReplaceAll(s, "`", "'")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "[", "\\[")
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
