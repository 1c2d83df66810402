package telegram

import (
	"sync"
	"time"

	"zeropoint/api/internal/dashboard"
	"zeropoint/api/internal/session"
)

const (
	debounce         = 1200 * time.Millisecond
	maxPixels        = 18_000_000
	progressInterval = 1500 * time.Millisecond
	maxMessageRunes  = 3900
)

// chatState is the dashboard of one chat. Fields below mu are guarded by it.
type chatState struct {
	guard session.Guard

	mu    sync.Mutex
	out   *session.Outcome
	view  dashboard.ViewState
	quiz  map[int]dashboard.QuizState
	msgID int
}

func (st *chatState) clear() {
	st.out = nil
	st.view = dashboard.NewViewState()
	st.quiz = map[int]dashboard.QuizState{}
	st.msgID = 0
}

func (r *Router) chat(chatID int64) *chatState {
	if v, ok := r.chats.Load(chatID); ok {
		return v.(*chatState)
	}
	st := &chatState{}
	st.clear()
	v, _ := r.chats.LoadOrStore(chatID, st)
	return v.(*chatState)
}

type photoBatch struct {
	ChatID  int64
	Key     string // "grp:<mediaGroupID>" | "chat:<chatID>"
	Caption string

	mu     sync.Mutex
	images [][]byte
	timer  *time.Timer
}
