package formatter

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"zeropoint/api/internal/analysis"
	"zeropoint/api/internal/graph"
	"zeropoint/api/internal/session"
)

func init() { color.NoColor = true }

func outcome() *session.Outcome {
	return &session.Outcome{
		Engine:   "gemini",
		Model:    "gemini-2.5-flash",
		Duration: 2500 * time.Millisecond,
		Result: &analysis.Result{
			OriginalContent: "Find d/dx of x·sin(x)",
			DifficultyLevel: analysis.Intermediate,
			Assumptions: []analysis.Assumption{{
				ID: "A1", SourceText: "x·sin(x)", Concept: "Product Rule",
				Severity: analysis.Critical, Explanation: "Two factors.", ConfidenceScore: 0.9,
			}},
			KnowledgeMap: analysis.KnowledgeMap{
				TargetConcept:         "Derivatives",
				DirectPrerequisites:   []string{"Product Rule"},
				IndirectPrerequisites: []string{"Limits"},
				DependencyChain:       []analysis.Dependency{{From: "Limits", To: "Product Rule", Relationship: "builds_upon"}},
			},
			MicroLessons: []analysis.MicroLesson{{
				Prerequisite: "Product Rule", Title: "The Product Rule", Duration: "60 seconds",
				Content: "(uv)' = u'v + uv'", PracticeQuestion: "d/dx x²?", PracticeAnswer: "2x",
			}},
			GapTests: []analysis.GapTest{{
				Prerequisite: "Product Rule", Question: "d/dx (x·x)?",
				Options: []string{"A) 1", "B) 2x"}, CorrectAnswer: "B", Explanation: "x + x",
			}},
			LearningPath: []string{"Limits", "Product Rule", "Derivatives"},
		},
	}
}

func TestDisplay_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Display(&buf, []Report{NewReport("", outcome(), nil)}, "json"))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "gemini", got["engine"])
	metrics := got["metrics"].(map[string]any)
	assert.EqualValues(t, 1, metrics["mastery_minutes"])
	assert.EqualValues(t, 2.5, metrics["analysis_seconds"])
	result := got["result"].(map[string]any)
	assert.Equal(t, "Intermediate", result["difficulty_level"])
}

func TestDisplay_YAMLUsesWireNames(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Display(&buf, []Report{NewReport("", outcome(), nil)}, "yaml"))

	out := buf.String()
	assert.Contains(t, out, "difficulty_level: Intermediate")
	assert.Contains(t, out, "assumptions_detected:")
	assert.NotContains(t, out, "{")

	var got struct {
		Result analysis.Result `yaml:"result"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "Find d/dx of x·sin(x)", got.Result.OriginalContent)
}

func TestDisplay_BatchIsList(t *testing.T) {
	reports := []Report{
		NewReport("a.txt", outcome(), nil),
		NewReport("b.txt", nil, &analysis.Error{Kind: analysis.ModelRefusal, Message: "I can't help with that."}),
	}
	var buf bytes.Buffer
	require.NoError(t, Display(&buf, reports, "json"))

	var got []Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "a.txt", got[0].Source)
	assert.Equal(t, "model_refusal", got[1].Kind)
	assert.Equal(t, "I can't help with that.", got[1].Error)
	assert.Nil(t, got[1].Result)
}

func TestDisplay_Human(t *testing.T) {
	reports := []Report{
		NewReport("", outcome(), nil),
		NewReport("bad.txt", nil, &analysis.Error{Kind: analysis.StreamFailure, Message: "Failed to analyze content: boom"}),
	}
	var buf bytes.Buffer
	require.NoError(t, Display(&buf, reports, "human"))

	out := buf.String()
	for _, want := range []string{
		"📊 DIFFICULTY: INTERMEDIATE",
		"1 assumptions · 1 lessons · 3 steps · ~1 min to master · analysed in 2.5s by gemini/gemini-2.5-flash",
		"🔴 Product Rule (Critical, 90%)",
		"   Target:\n     • Derivatives",
		"   Indirect:\n     • Limits",
		"Limits → Product Rule",
		"Answer: B  x + x",
		"   3. Derivatives",
		"❌ Failed to analyze content: boom",
		"kind: stream_failure",
	} {
		assert.Contains(t, out, want)
	}
}

func TestDisplay_UnknownFormat(t *testing.T) {
	err := Display(&bytes.Buffer{}, []Report{NewReport("", outcome(), nil)}, "xml")
	assert.ErrorContains(t, err, "unknown output format")
}

func TestWrapText(t *testing.T) {
	assert.Equal(t, "  aa bb\n  cc", wrapText("aa bb cc", 7, "  "))
	assert.Equal(t, "  ", wrapText("   ", 10, "  "))
}

func TestDisplayLayout(t *testing.T) {
	res := outcome().Result
	v := graph.NewView(res.KnowledgeMap, res.Assumptions, "Limits", graph.Options{})

	var buf bytes.Buffer
	require.NoError(t, DisplayLayout(&buf, v, "human"))
	out := buf.String()
	assert.Contains(t, out, "3 nodes, 1 edges, 800x420")
	assert.Regexp(t, `0\s+Derivatives\s+400\.0\s+60\s+\S+\s+0\.3`, out)
	assert.Regexp(t, `2\s+Limits\s+400\.0\s+310\s+\S+\s+1\.0`, out)
	assert.Contains(t, out, "Limits → Product Rule")

	buf.Reset()
	require.NoError(t, DisplayLayout(&buf, v, "json"))
	var got graph.View
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, v.Nodes, got.Nodes)
	assert.Equal(t, "Limits", got.Highlight.Hovered)
}
