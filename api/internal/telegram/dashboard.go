package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"zeropoint/api/internal/analysis"
	"zeropoint/api/internal/dashboard"
	"zeropoint/api/internal/graph"
)

var severityIcon = map[analysis.Severity]string{
	analysis.Critical:         "🔴",
	analysis.Helpful:          "🟡",
	analysis.SeverityAdvanced: "🟢",
}

var toneIcon = map[string]string{
	"green":  "🟢",
	"yellow": "🟡",
	"red":    "🔴",
	"gray":   "⚪",
}

var shortTitle = map[string]string{
	dashboard.SectionAssumptions:  "Assumptions",
	dashboard.SectionKnowledgeMap: "Map",
	dashboard.SectionLessons:      "Lessons",
	dashboard.SectionGapTests:     "Tests",
	dashboard.SectionLearningPath: "Path",
}

// renderDashboard draws the whole dashboard of st. The caller holds st.mu.
func renderDashboard(st *chatState) (string, tgbotapi.InlineKeyboardMarkup) {
	res := st.out.Result
	m := dashboard.ComputeMetrics(res, st.out.Duration)

	var b strings.Builder
	fmt.Fprintf(&b, "*ZeroPoint analysis*\n📝 %s\n\n", esc(truncate(res.OriginalContent, 300)))
	fmt.Fprintf(&b, "%s %s · 🧩 %d assumptions · 📘 %d lessons · 🪜 %d steps · ⏱ %s · ⚡ %s\n",
		toneIcon[dashboard.DifficultyTone(res.DifficultyLevel)], esc(string(res.DifficultyLevel)),
		m.Assumptions, m.MicroLessons, m.LearningSteps, m.MasteryLabel(), m.AnalysisLabel())
	if st.out.Cached {
		b.WriteString("_cached result_\n")
	}

	var kb [][]tgbotapi.InlineKeyboardButton
	var toggles []tgbotapi.InlineKeyboardButton
	for i, title := range dashboard.Sections {
		open := st.view.SectionOpen(title)
		mark := "▸"
		if open {
			mark = "▾"
		}
		toggles = append(toggles, button(mark+" "+shortTitle[title], cbData(cbSection, i)))
		fmt.Fprintf(&b, "\n%s *%s*\n", mark, title)
		if !open {
			continue
		}
		switch title {
		case dashboard.SectionAssumptions:
			kb = append(kb, renderAssumptions(&b, res)...)
		case dashboard.SectionKnowledgeMap:
			kb = append(kb, renderMap(&b, res, st.view.Hovered)...)
		case dashboard.SectionLessons:
			kb = append(kb, renderLessons(&b, res, st.view)...)
		case dashboard.SectionGapTests:
			kb = append(kb, renderTests(&b, res, st.quiz)...)
		case dashboard.SectionLearningPath:
			for i, step := range res.LearningPath {
				fmt.Fprintf(&b, "%d. %s\n", i+1, esc(step))
			}
		}
	}

	kb = append(rows(toggles, 5), kb...)
	return truncate(b.String(), maxMessageRunes), tgbotapi.NewInlineKeyboardMarkup(kb...)
}

func renderAssumptions(b *strings.Builder, res *analysis.Result) [][]tgbotapi.InlineKeyboardButton {
	if len(res.Assumptions) == 0 {
		b.WriteString("No hidden assumptions found.\n")
		return nil
	}
	var focus []tgbotapi.InlineKeyboardButton
	for i, a := range res.Assumptions {
		fmt.Fprintf(b, "%s *%s* (%s, %.0f%%)\n   %s\n",
			severityIcon[a.Severity], esc(a.Concept), a.Severity, float64(a.ConfidenceScore)*100, esc(a.Explanation))
		if _, ok := res.LessonFor(a.Concept); ok {
			focus = append(focus, button("📘 "+a.Concept, cbData(cbFocus, i)))
		}
	}
	return rows(focus, 2)
}

func renderMap(b *strings.Builder, res *analysis.Result, hovered string) [][]tgbotapi.InlineKeyboardButton {
	v := graph.NewView(res.KnowledgeMap, res.Assumptions, hovered, graph.Options{})
	if len(v.Nodes) == 0 {
		b.WriteString("Empty knowledge map.\n")
		return nil
	}
	tierName := []string{"Target", "Direct", "Indirect"}
	var nodes []tgbotapi.InlineKeyboardButton
	tier := -1
	for i, n := range v.Nodes {
		if n.Tier != tier {
			tier = n.Tier
			fmt.Fprintf(b, "%s:\n", tierName[min(tier, len(tierName)-1)])
		}
		dot := "●"
		if v.Highlight.Nodes[n.Name] < graph.NodeFull {
			dot = "○"
		}
		fmt.Fprintf(b, "  %s %s\n", dot, esc(v.Labels[n.Name]))
		nodes = append(nodes, button(v.Labels[n.Name], cbData(cbNode, i)))
	}
	if hovered != "" {
		fmt.Fprintf(b, "Links of *%s*:\n", esc(hovered))
		for i, e := range v.Edges {
			if v.Highlight.Edges[i] == graph.EdgeFull {
				fmt.Fprintf(b, "  %s → %s\n", esc(e.From), esc(e.To))
			}
		}
		nodes = append(nodes, button("✖ clear", cbData(cbNode, -1)))
	}
	return rows(nodes, 3)
}

func renderLessons(b *strings.Builder, res *analysis.Result, view dashboard.ViewState) [][]tgbotapi.InlineKeyboardButton {
	var out []tgbotapi.InlineKeyboardButton
	for i, l := range res.MicroLessons {
		open := view.LessonOpen(l.Prerequisite)
		mark := "▸"
		if open {
			mark = "▾"
		}
		fmt.Fprintf(b, "%s %s (%s)\n", mark, esc(l.Title), esc(l.Duration))
		out = append(out, button(mark+" "+l.Prerequisite, cbData(cbLesson, i)))
		if !open {
			continue
		}
		fmt.Fprintf(b, "%s\n❓ %s\n", esc(l.Content), esc(l.PracticeQuestion))
		if view.AnswerRevealed(l.Prerequisite) {
			fmt.Fprintf(b, "💡 %s\n", esc(l.PracticeAnswer))
		} else {
			out = append(out, button("💡 Answer: "+l.Prerequisite, cbData(cbReveal, i)))
		}
	}
	return rows(out, 2)
}

var markIcon = map[dashboard.OptionMark]string{
	dashboard.MarkOpen:    "▫️",
	dashboard.MarkCorrect: "✅",
	dashboard.MarkWrong:   "❌",
	dashboard.MarkNeutral: "▫️",
}

func renderTests(b *strings.Builder, res *analysis.Result, quiz map[int]dashboard.QuizState) [][]tgbotapi.InlineKeyboardButton {
	var kb [][]tgbotapi.InlineKeyboardButton
	for i, t := range res.GapTests {
		q := quiz[i]
		fmt.Fprintf(b, "%d. %s\n", i+1, esc(t.Question))
		marks := q.Marks(t)
		var opts []tgbotapi.InlineKeyboardButton
		for j, opt := range t.Options {
			fmt.Fprintf(b, "   %s %s\n", markIcon[marks[j]], esc(opt))
			if !q.Answered {
				opts = append(opts, button(dashboard.OptionLetter(opt), cbData(cbQuiz, i, j)))
			}
		}
		if q.Answered {
			fmt.Fprintf(b, "   %s\n", esc(t.Explanation))
		}
		if len(opts) > 0 {
			kb = append(kb, rows(opts, 4)...)
		}
	}
	return kb
}
