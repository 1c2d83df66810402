package graph

import "zeropoint/api/internal/analysis"

const (
	NodeFull   = 1.0
	NodeDimmed = 0.3
	EdgeFull   = 0.6
	EdgeDimmed = 0.1
)

// Connected returns hovered plus every name one dependency away from it in
// either direction. The set is derived from the chain itself, so it may name
// concepts that are not placed on the canvas.
func Connected(chain []analysis.Dependency, hovered string) map[string]bool {
	key := analysis.ConceptKey(hovered)
	set := map[string]bool{key: true}
	for _, dep := range chain {
		from, to := analysis.ConceptKey(dep.From), analysis.ConceptKey(dep.To)
		if from == key {
			set[to] = true
		}
		if to == key {
			set[from] = true
		}
	}
	return set
}

// Highlight is the emphasis of each node and edge of a layout for a given
// hovered node. Positions are never touched.
type Highlight struct {
	Hovered   string             `json:"hovered,omitempty"`
	Connected []string           `json:"connected,omitempty"`
	Nodes     map[string]float64 `json:"nodes"`
	// Edges is indexed like Layout.Edges.
	Edges []float64 `json:"edges"`
}

// Emphasis computes the highlight of l for hovered; an empty hovered name
// means nothing is hovered and everything is drawn at full emphasis.
func Emphasis(l Layout, chain []analysis.Dependency, hovered string) Highlight {
	h := Highlight{
		Hovered: hovered,
		Nodes:   make(map[string]float64, len(l.Nodes)),
		Edges:   make([]float64, len(l.Edges)),
	}
	if hovered == "" {
		for _, n := range l.Nodes {
			h.Nodes[n.Name] = NodeFull
		}
		for i := range l.Edges {
			h.Edges[i] = EdgeFull
		}
		return h
	}

	set := Connected(chain, hovered)
	for _, n := range l.Nodes {
		if set[n.Name] {
			h.Connected = append(h.Connected, n.Name)
			h.Nodes[n.Name] = NodeFull
		} else {
			h.Nodes[n.Name] = NodeDimmed
		}
	}
	for i, e := range l.Edges {
		if set[e.From] && set[e.To] {
			h.Edges[i] = EdgeFull
		} else {
			h.Edges[i] = EdgeDimmed
		}
	}
	return h
}
