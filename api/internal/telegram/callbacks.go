package telegram

import (
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"zeropoint/api/internal/dashboard"
	"zeropoint/api/internal/graph"
)

func (r *Router) handleCallback(cb tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		return
	}
	cid := cb.Message.Chat.ID
	msgID := cb.Message.MessageID
	st := r.chat(cid)

	st.mu.Lock()
	if st.out == nil || st.msgID != msgID {
		st.mu.Unlock()
		r.ack(cb.ID, "This analysis is no longer active.")
		_, _ = r.Bot.Send(tgbotapi.NewEditMessageReplyMarkup(cid, msgID, tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}))
		return
	}
	note := st.apply(cb.Data)
	text, kb := renderDashboard(st)
	st.mu.Unlock()

	r.ack(cb.ID, note)
	r.edit(cid, msgID, text, &kb)
}

func (r *Router) ack(callbackID, text string) {
	_, _ = r.Bot.Request(tgbotapi.NewCallback(callbackID, text))
}

// apply updates the view for one button press and returns a toast, if any.
// The caller holds st.mu.
func (st *chatState) apply(data string) string {
	res := st.out.Result
	parts := strings.Split(data, ":")
	idx := make([]int, 0, 2)
	for _, p := range parts[1:] {
		n, err := strconv.Atoi(p)
		if err != nil {
			return ""
		}
		idx = append(idx, n)
	}
	if len(idx) == 0 {
		return ""
	}
	i := idx[0]
	in := func(n int) bool { return i >= 0 && i < n }

	switch parts[0] {
	case cbSection:
		if in(len(dashboard.Sections)) {
			st.view = st.view.ToggleSection(dashboard.Sections[i])
		}
	case cbLesson:
		if in(len(res.MicroLessons)) {
			st.view = st.view.ToggleLesson(res.MicroLessons[i].Prerequisite)
		}
	case cbReveal:
		if in(len(res.MicroLessons)) {
			st.view = st.view.RevealAnswer(res.MicroLessons[i].Prerequisite)
		}
	case cbFocus:
		if in(len(res.Assumptions)) {
			concept := res.Assumptions[i].Concept
			v, ok := st.view.FocusConcept(res, concept)
			if !ok {
				return "No micro-lesson for " + concept
			}
			st.view = v
		}
	case cbNode:
		if i < 0 {
			st.view = st.view.Hover("")
			return ""
		}
		nodes := graph.Compute(res.KnowledgeMap, graph.Options{}).Nodes
		if !in(len(nodes)) {
			return ""
		}
		name := nodes[i].Name
		st.view = st.view.Hover(name)
		if v, ok := st.view.FocusConcept(res, name); ok {
			st.view = v
		}
	case cbQuiz:
		if len(idx) != 2 || !in(len(res.GapTests)) {
			return ""
		}
		t := res.GapTests[i]
		j := idx[1]
		if j < 0 || j >= len(t.Options) {
			return ""
		}
		q := st.quiz[i]
		if q.Answered {
			return "Already answered"
		}
		q = q.Answer(t.Options[j])
		st.quiz[i] = q
		if q.Correct(t) {
			return "✅ Correct!"
		}
		return "❌ Correct answer: " + t.CorrectAnswer
	}
	return ""
}
