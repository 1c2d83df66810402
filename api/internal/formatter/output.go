// Package formatter prints analyses for the command line.
package formatter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"zeropoint/api/internal/analysis"
	"zeropoint/api/internal/dashboard"
	"zeropoint/api/internal/graph"
	"zeropoint/api/internal/session"
)

// Report is one analysed input. Exactly one of Result and Error is set.
type Report struct {
	Source  string             `json:"source,omitempty"`
	Engine  string             `json:"engine,omitempty"`
	Model   string             `json:"model,omitempty"`
	Cached  bool               `json:"cached,omitempty"`
	Metrics *dashboard.Metrics `json:"metrics,omitempty"`
	Result  *analysis.Result   `json:"result,omitempty"`
	Error   string             `json:"error,omitempty"`
	Kind    string             `json:"kind,omitempty"`
}

func NewReport(source string, out *session.Outcome, err error) Report {
	rep := Report{Source: source}
	if err != nil {
		rep.Error = analysis.UserMessage(err)
		rep.Kind = analysis.KindOf(err).String()
		return rep
	}
	m := dashboard.ComputeMetrics(out.Result, out.Duration)
	rep.Engine, rep.Model, rep.Cached = out.Engine, out.Model, out.Cached
	rep.Metrics, rep.Result = &m, out.Result
	return rep
}

// Display writes reports in the given format: human (default), json or yaml.
// A single report is written as an object, several as a list.
func Display(w io.Writer, reports []Report, format string) error {
	var v any = reports
	if len(reports) == 1 {
		v = reports[0]
	}
	switch strings.ToLower(format) {
	case "json", "yaml":
		return Encode(w, v, format)
	case "human", "":
		for i, rep := range reports {
			if i > 0 {
				fmt.Fprintln(w, strings.Repeat("═", 80))
			}
			displayHuman(w, rep)
		}
		fmt.Fprintln(w, strings.Repeat("─", 80))
		fmt.Fprintf(w, "💡 %s\n", color.HiBlackString("Run with -o json or -o yaml for machine-readable output"))
		return nil
	default:
		return fmt.Errorf("unknown output format %q; use human, json or yaml", format)
	}
}

// Encode writes v as indented json or as yaml.
func Encode(w io.Writer, v any, format string) error {
	switch strings.ToLower(format) {
	case "json":
		return displayJSON(w, v)
	case "yaml":
		return displayYAML(w, v)
	default:
		return fmt.Errorf("unknown output format %q; use json or yaml", format)
	}
}

func displayJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// displayYAML goes through JSON so the yaml keys match the wire names.
// JSON is valid YAML, so decoding it into a node keeps the key order.
func displayYAML(w io.Writer, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return err
	}
	blockStyle(&doc)
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err = w.Write(buf.Bytes())
	return err
}

func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

func displayHuman(w io.Writer, rep Report) {
	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)
	green := color.New(color.FgGreen, color.Bold)
	cyan := color.New(color.FgCyan, color.Bold)
	white := color.New(color.FgWhite, color.Bold)

	fmt.Fprintln(w)
	if rep.Source != "" {
		white.Fprintf(w, "📄 %s\n", rep.Source)
	}
	if rep.Error != "" {
		red.Fprintf(w, "❌ %s\n", rep.Error)
		fmt.Fprintf(w, "   kind: %s\n\n", rep.Kind)
		return
	}
	res, m := rep.Result, rep.Metrics

	white.Fprintln(w, "📝 PROBLEM:")
	fmt.Fprintf(w, "   %s\n\n", res.OriginalContent)

	difficultyColor(res.DifficultyLevel).Fprintf(w, "📊 DIFFICULTY: %s\n", strings.ToUpper(string(res.DifficultyLevel)))
	cached := ""
	if rep.Cached {
		cached = " (cached)"
	}
	fmt.Fprintf(w, "   %d assumptions · %d lessons · %d steps · %s to master · analysed in %s by %s/%s%s\n\n",
		m.Assumptions, m.MicroLessons, m.LearningSteps, m.MasteryLabel(), m.AnalysisLabel(), rep.Engine, rep.Model, cached)

	yellow.Fprintln(w, "⚠️  "+strings.ToUpper(dashboard.SectionAssumptions)+":")
	if len(res.Assumptions) == 0 {
		fmt.Fprintln(w, "   none")
	}
	for i, a := range res.Assumptions {
		fmt.Fprintf(w, "   %d. %s %s (%s, %.0f%%)\n", i+1, severityIcon(a.Severity), a.Concept, a.Severity, float64(a.ConfidenceScore)*100)
		if a.SourceText != "" {
			fmt.Fprintf(w, "      Found in: %s\n", color.YellowString(a.SourceText))
		}
		fmt.Fprintf(w, "      %s\n", a.Explanation)
	}
	fmt.Fprintln(w)

	cyan.Fprintln(w, "🗺  "+strings.ToUpper(dashboard.SectionKnowledgeMap)+":")
	l := graph.Compute(res.KnowledgeMap, graph.Options{})
	tier := -1
	for _, n := range l.Nodes {
		if n.Tier != tier {
			tier = n.Tier
			fmt.Fprintf(w, "   %s:\n", tierName(tier))
		}
		fmt.Fprintf(w, "     • %s\n", n.Name)
	}
	for _, e := range l.Edges {
		fmt.Fprintf(w, "     %s → %s\n", color.HiBlackString(e.From), color.HiBlackString(e.To))
	}
	fmt.Fprintln(w)

	if len(res.MicroLessons) > 0 {
		green.Fprintln(w, "📘 "+strings.ToUpper(dashboard.SectionLessons)+":")
		for i, ml := range res.MicroLessons {
			fmt.Fprintf(w, "   %d. %s (%s)\n", i+1, ml.Title, ml.Duration)
			fmt.Fprintln(w, wrapText(ml.Content, 80, "      "))
			fmt.Fprintf(w, "      Try: %s\n", ml.PracticeQuestion)
			fmt.Fprintf(w, "      Answer: %s\n", color.GreenString(ml.PracticeAnswer))
		}
		fmt.Fprintln(w)
	}

	if len(res.GapTests) > 0 {
		yellow.Fprintln(w, "🧪 "+strings.ToUpper(dashboard.SectionGapTests)+":")
		for i, t := range res.GapTests {
			fmt.Fprintf(w, "   %d. %s\n", i+1, t.Question)
			for _, opt := range t.Options {
				fmt.Fprintf(w, "      %s\n", opt)
			}
			fmt.Fprintf(w, "      Answer: %s  %s\n", color.GreenString(t.CorrectAnswer), color.HiBlackString(t.Explanation))
		}
		fmt.Fprintln(w)
	}

	cyan.Fprintln(w, "🪜 "+strings.ToUpper(dashboard.SectionLearningPath)+":")
	for i, step := range res.LearningPath {
		fmt.Fprintf(w, "   %d. %s\n", i+1, step)
	}
	fmt.Fprintln(w)
}

func difficultyColor(d analysis.Difficulty) *color.Color {
	switch dashboard.DifficultyTone(d) {
	case "green":
		return color.New(color.FgGreen, color.Bold)
	case "yellow":
		return color.New(color.FgYellow, color.Bold)
	case "red":
		return color.New(color.FgRed, color.Bold)
	default:
		return color.New(color.FgWhite)
	}
}

func severityIcon(s analysis.Severity) string {
	switch s {
	case analysis.Critical:
		return "🔴"
	case analysis.Helpful:
		return "🟡"
	case analysis.SeverityAdvanced:
		return "🟢"
	default:
		return "⚪"
	}
}

func tierName(tier int) string {
	switch tier {
	case 0:
		return "Target"
	case 1:
		return "Direct"
	default:
		return "Indirect"
	}
}

func wrapText(text string, width int, indent string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return indent
	}
	var lines []string
	line := indent + words[0]
	for _, word := range words[1:] {
		if len(line)+1+len(word) > width {
			lines = append(lines, line)
			line = indent + word
			continue
		}
		line += " " + word
	}
	return strings.Join(append(lines, line), "\n")
}
