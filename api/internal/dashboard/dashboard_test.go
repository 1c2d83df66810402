package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"zeropoint/api/internal/analysis"
)

func sample() *analysis.Result {
	return &analysis.Result{
		Assumptions: []analysis.Assumption{{ID: "A1"}, {ID: "A2"}},
		MicroLessons: []analysis.MicroLesson{
			{Prerequisite: "Limits", Duration: "30-60 seconds"},
			{Prerequisite: "Product Rule", Duration: "about a minute"},
			{Prerequisite: "Chain Rule", Duration: "60 seconds"},
		},
		LearningPath: []string{"a", "b", "c", "d"},
	}
}

func TestComputeMetrics(t *testing.T) {
	m := ComputeMetrics(sample(), 2340*time.Millisecond)
	assert.Equal(t, 2, m.Assumptions)
	assert.Equal(t, 3, m.MicroLessons)
	assert.Equal(t, 4, m.LearningSteps)
	// 45 + 45 + 60 = 150s -> round(2.5) = 3
	assert.Equal(t, 3, m.MasteryMinutes)
	assert.Equal(t, "~3 min", m.MasteryLabel())
	assert.Equal(t, "2.3s", m.AnalysisLabel())
}

func TestComputeMetrics_AtLeastOneMinute(t *testing.T) {
	m := ComputeMetrics(&analysis.Result{}, 0)
	assert.Equal(t, 1, m.MasteryMinutes)
}

func TestLessonSeconds(t *testing.T) {
	assert.Equal(t, 45.0, LessonSeconds("30-60 seconds"))
	assert.Equal(t, 45.0, LessonSeconds("quick"))
	assert.Equal(t, 90.0, LessonSeconds("90s"))
}

func TestViewState_Toggles(t *testing.T) {
	v := NewViewState()
	assert.True(t, v.SectionOpen(SectionAssumptions))
	assert.True(t, v.SectionOpen(SectionKnowledgeMap))
	assert.False(t, v.SectionOpen(SectionLessons))

	v2 := v.ToggleSection(SectionAssumptions)
	assert.False(t, v2.SectionOpen(SectionAssumptions))
	assert.True(t, v.SectionOpen(SectionAssumptions), "original state must not change")

	v3 := v2.ToggleLesson("Limits").ToggleLesson("Limits")
	assert.False(t, v3.LessonOpen("Limits"))
}

func TestViewState_FocusConcept(t *testing.T) {
	res := sample()
	v, changed := NewViewState().FocusConcept(res, "Product Rule")
	assert.True(t, changed)
	assert.True(t, v.SectionOpen(SectionLessons))
	assert.True(t, v.LessonOpen("Product Rule"))

	same, changed := v.FocusConcept(res, "Integration")
	assert.False(t, changed)
	assert.Equal(t, v, same)
}

func TestQuiz(t *testing.T) {
	gt := analysis.GapTest{Options: []string{"A) 1", "B) 2x", "C) x", "D) 0"}, CorrectAnswer: "B"}

	var q QuizState
	assert.Equal(t, []OptionMark{MarkOpen, MarkOpen, MarkOpen, MarkOpen}, q.Marks(gt))

	q = q.Answer("C) x")
	assert.False(t, q.Correct(gt))
	assert.Equal(t, []OptionMark{MarkNeutral, MarkCorrect, MarkWrong, MarkNeutral}, q.Marks(gt))

	// locked after the first answer
	q = q.Answer("B) 2x")
	assert.Equal(t, "C) x", q.Selected)

	assert.True(t, QuizState{}.Answer("B) 2x").Correct(gt))
}

func TestOptionLetter(t *testing.T) {
	assert.Equal(t, "A", OptionLetter("A) option"))
	assert.Equal(t, "no paren", OptionLetter("no paren"))
}

func TestDifficultyTone(t *testing.T) {
	assert.Equal(t, "green", DifficultyTone(analysis.Beginner))
	assert.Equal(t, "red", DifficultyTone(analysis.Advanced))
	assert.Equal(t, "gray", DifficultyTone("Expert"))
}
