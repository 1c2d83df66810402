package dashboard

import (
	"strings"

	"zeropoint/api/internal/analysis"
)

type OptionMark string

const (
	MarkOpen    OptionMark = "open"
	MarkCorrect OptionMark = "correct"
	MarkWrong   OptionMark = "wrong"
	MarkNeutral OptionMark = "neutral"
)

// OptionLetter is the text before the first ")": "B) 2x" -> "B".
func OptionLetter(option string) string {
	letter, _, _ := strings.Cut(option, ")")
	return letter
}

// QuizState is the answer state of one gap test. The first answer locks it.
type QuizState struct {
	Selected string `json:"selected,omitempty"`
	Answered bool   `json:"answered"`
}

func (q QuizState) Answer(option string) QuizState {
	if q.Answered {
		return q
	}
	return QuizState{Selected: option, Answered: true}
}

func (q QuizState) Correct(t analysis.GapTest) bool {
	return q.Answered && OptionLetter(q.Selected) == t.CorrectAnswer
}

// Marks grades every option of t. Before an answer all options are open.
func (q QuizState) Marks(t analysis.GapTest) []OptionMark {
	out := make([]OptionMark, len(t.Options))
	for i, opt := range t.Options {
		switch {
		case !q.Answered:
			out[i] = MarkOpen
		case OptionLetter(opt) == t.CorrectAnswer:
			out[i] = MarkCorrect
		case OptionLetter(opt) == OptionLetter(q.Selected):
			out[i] = MarkWrong
		default:
			out[i] = MarkNeutral
		}
	}
	return out
}
