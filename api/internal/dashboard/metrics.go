package dashboard

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"

	"zeropoint/api/internal/analysis"
)

// defaultLessonSeconds is assumed for a lesson whose duration has no number.
const defaultLessonSeconds = 45.0

var digitsRe = regexp.MustCompile(`\d+`)

type Metrics struct {
	Assumptions     int     `json:"assumptions" yaml:"assumptions"`
	MicroLessons    int     `json:"micro_lessons" yaml:"micro_lessons"`
	LearningSteps   int     `json:"learning_steps" yaml:"learning_steps"`
	MasteryMinutes  int     `json:"mastery_minutes" yaml:"mastery_minutes"`
	AnalysisSeconds float64 `json:"analysis_seconds" yaml:"analysis_seconds"`
}

func ComputeMetrics(res *analysis.Result, took time.Duration) Metrics {
	if res == nil {
		return Metrics{MasteryMinutes: 1, AnalysisSeconds: took.Seconds()}
	}
	total := 0.0
	for _, l := range res.MicroLessons {
		total += LessonSeconds(l.Duration)
	}
	return Metrics{
		Assumptions:     len(res.Assumptions),
		MicroLessons:    len(res.MicroLessons),
		LearningSteps:   len(res.LearningPath),
		MasteryMinutes:  int(math.Max(1, math.Round(total/60))),
		AnalysisSeconds: took.Seconds(),
	}
}

// LessonSeconds averages every integer in a duration such as "30-60 seconds".
func LessonSeconds(duration string) float64 {
	matches := digitsRe.FindAllString(duration, -1)
	if len(matches) == 0 {
		return defaultLessonSeconds
	}
	sum := 0.0
	for _, m := range matches {
		n, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		sum += float64(n)
	}
	return sum / float64(len(matches))
}

func (m Metrics) MasteryLabel() string  { return fmt.Sprintf("~%d min", m.MasteryMinutes) }
func (m Metrics) AnalysisLabel() string { return fmt.Sprintf("%.1fs", m.AnalysisSeconds) }

// DifficultyTone is a styling token per difficulty level.
func DifficultyTone(d analysis.Difficulty) string {
	switch d {
	case analysis.Beginner:
		return "green"
	case analysis.Intermediate:
		return "yellow"
	case analysis.Advanced:
		return "red"
	default:
		return "gray"
	}
}
