package graph

import "zeropoint/api/internal/analysis"

// View is everything a front-end needs to draw the knowledge map once.
// It is rebuilt from scratch on every change.
type View struct {
	Layout
	Highlight Highlight         `json:"highlight"`
	Colors    map[string]string `json:"colors"`
	Labels    map[string]string `json:"labels"`
}

func NewView(km analysis.KnowledgeMap, assumptions []analysis.Assumption, hovered string, opts Options) View {
	l := Compute(km, opts)
	sev := analysis.SeverityByConcept(assumptions)
	v := View{
		Layout:    l,
		Highlight: Emphasis(l, km.DependencyChain, hovered),
		Colors:    make(map[string]string, len(l.Nodes)),
		Labels:    make(map[string]string, len(l.Nodes)),
	}
	for _, n := range l.Nodes {
		v.Colors[n.Name] = NodeColor(n, sev)
		v.Labels[n.Name] = Label(n.Name)
	}
	return v
}
