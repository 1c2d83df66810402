package graph

import "zeropoint/api/internal/analysis"

var tierColors = map[int]string{
	TierTarget:   "#3b82f6",
	TierDirect:   "#1e3a8a",
	TierIndirect: "#1e293b",
}

var severityColors = map[analysis.Severity]string{
	analysis.Critical:         "#ef4444",
	analysis.Helpful:          "#f59e0b",
	analysis.SeverityAdvanced: "#10b981",
}

// NodeColor prefers the severity of an assumption on the concept, then the
// tier colour.
func NodeColor(n Node, severities map[string]analysis.Severity) string {
	if s, ok := severities[n.Name]; ok {
		if c, ok := severityColors[s]; ok {
			return c
		}
	}
	if c, ok := tierColors[n.Tier]; ok {
		return c
	}
	return tierColors[TierIndirect]
}

// Label shortens long concept names for drawing.
func Label(name string) string {
	r := []rune(name)
	if len(r) > 25 {
		return string(r[:22]) + "..."
	}
	return name
}
