package handle

import (
	"net/http"

	"zeropoint/api/internal/analysis"
	"zeropoint/api/internal/graph"
)

type LayoutRequest struct {
	KnowledgeMap          analysis.KnowledgeMap `json:"knowledge_map"`
	Assumptions           []analysis.Assumption `json:"assumptions_detected"`
	Hovered               string                `json:"hovered,omitempty"`
	Width                 float64               `json:"width,omitempty"`
	IncludeChainEndpoints bool                  `json:"include_chain_endpoints,omitempty"`
}

// Layout recomputes the graph for a knowledge map, optionally with a
// hovered node. It calls no model.
func (h *Handle) Layout(w http.ResponseWriter, r *http.Request) {
	var in LayoutRequest
	if !decode(w, r, &in) {
		return
	}
	if in.Width < 0 {
		writeError(w, &analysis.Error{Kind: analysis.InvalidRequest, Message: "width must not be negative"})
		return
	}
	v := graph.NewView(in.KnowledgeMap, in.Assumptions, in.Hovered, graph.Options{
		Width:                 in.Width,
		IncludeChainEndpoints: in.IncludeChainEndpoints,
	})
	writeJSON(w, http.StatusOK, v)
}
