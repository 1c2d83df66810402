package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ImagePlaceholder replaces an empty original_content for image-only requests.
const ImagePlaceholder = "Analysis of uploaded image"

// Image is an inline picture of the problem.
type Image struct {
	Data     []byte `json:"-"`
	MIMEType string `json:"mime_type"`
}

// Request is one analysis submission.
type Request struct {
	Text  string `json:"text"`
	Image *Image `json:"image,omitempty"`
}

func (r Request) HasImage() bool { return r.Image != nil && len(r.Image.Data) > 0 }

// Validate rejects a request with neither text nor image.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Text) == "" && !r.HasImage() {
		return &Error{Kind: InvalidRequest, Message: "Please enter a math problem or upload an image to analyze."}
	}
	return nil
}

// ContentFallback is what original_content becomes when the model leaves it empty.
func (r Request) ContentFallback() string {
	if strings.TrimSpace(r.Text) != "" {
		return r.Text
	}
	return ImagePlaceholder
}

type Difficulty string

const (
	Beginner     Difficulty = "Beginner"
	Intermediate Difficulty = "Intermediate"
	Advanced     Difficulty = "Advanced"
)

// Rank orders difficulty levels; unknown levels rank -1.
func (d Difficulty) Rank() int {
	switch d {
	case Beginner:
		return 0
	case Intermediate:
		return 1
	case Advanced:
		return 2
	default:
		return -1
	}
}

func (d Difficulty) Valid() bool { return d.Rank() >= 0 }

type Severity string

const (
	Critical Severity = "Critical"
	Helpful  Severity = "Helpful"
	// SeverityAdvanced shares its wire value with the Advanced difficulty.
	SeverityAdvanced Severity = "Advanced"
)

func (s Severity) Valid() bool {
	switch s {
	case Critical, Helpful, SeverityAdvanced:
		return true
	}
	return false
}

// Confidence accepts both 0.8 and "0.8"; the prompt template shows it quoted.
type Confidence float64

func (c *Confidence) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*c = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("confidence_score %q: %w", s, err)
		}
		*c = Confidence(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*c = Confidence(v)
	return nil
}

type Assumption struct {
	ID              string     `json:"assumption_id" yaml:"assumption_id"`
	SourceText      string     `json:"assumption_text" yaml:"assumption_text"`
	Concept         string     `json:"prerequisite_concept" yaml:"prerequisite_concept"`
	Severity        Severity   `json:"severity" yaml:"severity"`
	Explanation     string     `json:"explanation" yaml:"explanation"`
	ConfidenceScore Confidence `json:"confidence_score" yaml:"confidence_score"`
}

type Dependency struct {
	From         string `json:"from" yaml:"from"`
	To           string `json:"to" yaml:"to"`
	Relationship string `json:"relationship" yaml:"relationship"`
}

type KnowledgeMap struct {
	TargetConcept         string       `json:"target_concept" yaml:"target_concept"`
	DirectPrerequisites   []string     `json:"direct_prerequisites" yaml:"direct_prerequisites"`
	IndirectPrerequisites []string     `json:"indirect_prerequisites" yaml:"indirect_prerequisites"`
	DependencyChain       []Dependency `json:"dependency_chain" yaml:"dependency_chain"`
}

type MicroLesson struct {
	Prerequisite     string `json:"prerequisite" yaml:"prerequisite"`
	Title            string `json:"title" yaml:"title"`
	Duration         string `json:"duration" yaml:"duration"`
	Content          string `json:"content" yaml:"content"`
	PracticeQuestion string `json:"practice_question" yaml:"practice_question"`
	PracticeAnswer   string `json:"practice_answer" yaml:"practice_answer"`
}

type GapTest struct {
	Prerequisite  string   `json:"prerequisite" yaml:"prerequisite"`
	Question      string   `json:"question" yaml:"question"`
	Options       []string `json:"options" yaml:"options"`
	CorrectAnswer string   `json:"correct_answer" yaml:"correct_answer"`
	Explanation   string   `json:"explanation" yaml:"explanation"`
}

// Result is the parsed model answer. It is built once per analysis and never
// mutated afterwards.
type Result struct {
	OriginalContent string        `json:"original_content" yaml:"original_content"`
	DifficultyLevel Difficulty    `json:"difficulty_level" yaml:"difficulty_level"`
	Assumptions     []Assumption  `json:"assumptions_detected" yaml:"assumptions_detected"`
	KnowledgeMap    KnowledgeMap  `json:"knowledge_map" yaml:"knowledge_map"`
	MicroLessons    []MicroLesson `json:"micro_lessons" yaml:"micro_lessons"`
	GapTests        []GapTest     `json:"gap_tests" yaml:"gap_tests"`
	LearningPath    []string      `json:"learning_path" yaml:"learning_path"`
}

// Validate is the boundary shape check applied to model output.
func (r *Result) Validate() error {
	if !r.DifficultyLevel.Valid() {
		return fmt.Errorf("difficulty_level %q is not one of Beginner/Intermediate/Advanced", r.DifficultyLevel)
	}
	for i, a := range r.Assumptions {
		if !a.Severity.Valid() {
			return fmt.Errorf("assumptions_detected[%d]: severity %q is not one of Critical/Helpful/Advanced", i, a.Severity)
		}
		if a.ConfidenceScore < 0 || a.ConfidenceScore > 1 {
			return fmt.Errorf("assumptions_detected[%d]: confidence_score %v out of [0,1]", i, float64(a.ConfidenceScore))
		}
	}
	if strings.TrimSpace(r.KnowledgeMap.TargetConcept) == "" {
		return fmt.Errorf("knowledge_map.target_concept is empty")
	}
	return nil
}

// ConceptKey is the identity used to match concepts across assumptions,
// lessons and graph nodes. Matching is exact string equality.
func ConceptKey(name string) string { return name }

// SeverityByConcept maps each assumed concept to its severity; a later
// assumption on the same concept wins.
func SeverityByConcept(assumptions []Assumption) map[string]Severity {
	out := make(map[string]Severity, len(assumptions))
	for _, a := range assumptions {
		out[ConceptKey(a.Concept)] = a.Severity
	}
	return out
}

// LessonFor returns the micro-lesson teaching concept, if any.
func (r *Result) LessonFor(concept string) (MicroLesson, bool) {
	key := ConceptKey(concept)
	for _, l := range r.MicroLessons {
		if ConceptKey(l.Prerequisite) == key {
			return l, true
		}
	}
	return MicroLesson{}, false
}
