// Package dashboard holds the presentation state and derived figures shown
// next to an analysis: which sections and lessons are open, which graph node
// is hovered, quiz answers and the headline metrics.
package dashboard

import (
	"sort"

	"zeropoint/api/internal/analysis"
)

const (
	SectionAssumptions  = "Assumptions Detected"
	SectionKnowledgeMap = "Knowledge Map"
	SectionLessons      = "Micro-Lessons"
	SectionGapTests     = "Knowledge Gap Tests"
	SectionLearningPath = "Recommended Learning Path"
)

// Sections in display order.
var Sections = []string{
	SectionAssumptions,
	SectionKnowledgeMap,
	SectionLessons,
	SectionGapTests,
	SectionLearningPath,
}

// ViewState is plain data so front-ends can keep it per user or send it over
// the wire. Methods return updated copies.
type ViewState struct {
	OpenSections []string `json:"open_sections"`
	OpenLessons  []string `json:"open_lessons"`
	Hovered      string   `json:"hovered,omitempty"`
	// Revealed lists lessons whose practice answer is shown.
	Revealed []string `json:"revealed,omitempty"`
}

func NewViewState() ViewState {
	return ViewState{OpenSections: []string{SectionAssumptions, SectionKnowledgeMap}}
}

func (v ViewState) SectionOpen(title string) bool { return contains(v.OpenSections, title) }
func (v ViewState) LessonOpen(prereq string) bool {
	return contains(v.OpenLessons, analysis.ConceptKey(prereq))
}
func (v ViewState) AnswerRevealed(prereq string) bool {
	return contains(v.Revealed, analysis.ConceptKey(prereq))
}

func (v ViewState) ToggleSection(title string) ViewState {
	v.OpenSections = toggle(v.OpenSections, title)
	return v
}

func (v ViewState) ToggleLesson(prereq string) ViewState {
	v.OpenLessons = toggle(v.OpenLessons, analysis.ConceptKey(prereq))
	return v
}

func (v ViewState) RevealAnswer(prereq string) ViewState {
	v.Revealed = add(v.Revealed, analysis.ConceptKey(prereq))
	return v
}

func (v ViewState) Hover(name string) ViewState {
	v.Hovered = name
	return v
}

// FocusConcept handles a click on a graph node: when the concept has a
// micro-lesson, the lessons section and that lesson are opened. The second
// result reports whether anything changed.
func (v ViewState) FocusConcept(res *analysis.Result, concept string) (ViewState, bool) {
	if res == nil {
		return v, false
	}
	if _, ok := res.LessonFor(concept); !ok {
		return v, false
	}
	v.OpenSections = add(v.OpenSections, SectionLessons)
	v.OpenLessons = add(v.OpenLessons, analysis.ConceptKey(concept))
	return v, true
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

func toggle(list []string, s string) []string {
	if contains(list, s) {
		out := make([]string, 0, len(list)-1)
		for _, x := range list {
			if x != s {
				out = append(out, x)
			}
		}
		return out
	}
	return add(list, s)
}

func add(list []string, s string) []string {
	if contains(list, s) {
		return list
	}
	out := make([]string, 0, len(list)+1)
	out = append(out, list...)
	out = append(out, s)
	sort.Strings(out)
	return out
}
