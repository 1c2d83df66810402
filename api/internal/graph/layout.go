// Package graph places knowledge-map concepts on a tiered canvas.
//
// Tier 0 holds the target concept, tier 1 direct prerequisites and tier 2
// indirect ones. Nodes on a tier are spread evenly across the canvas width;
// there is no iteration or randomness, so the same map always yields the same
// coordinates.
package graph

import (
	"sort"

	"zeropoint/api/internal/analysis"
)

const (
	DefaultWidth  = 800.0
	DefaultHeight = 420.0
	TierSpacing   = 125.0
	TopMargin     = 60.0
)

const (
	TierTarget   = 0
	TierDirect   = 1
	TierIndirect = 2
)

type Node struct {
	Name string  `json:"name"`
	Tier int     `json:"tier"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type Edge struct {
	From string  `json:"from"`
	To   string  `json:"to"`
	X1   float64 `json:"x1"`
	Y1   float64 `json:"y1"`
	X2   float64 `json:"x2"`
	Y2   float64 `json:"y2"`
}

type Layout struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Nodes  []Node  `json:"nodes"`
	Edges  []Edge  `json:"edges"`
}

type Options struct {
	// Width of the canvas; zero means DefaultWidth.
	Width float64
	// IncludeChainEndpoints also places names that only occur in the
	// dependency chain, on their fallback tier. Off by default, in which case
	// edges touching them are dropped.
	IncludeChainEndpoints bool
}

// Compute lays out km. It never fails: unknown endpoints are dropped and
// names without an explicit tier fall back to 1 (seen as a target) or 2.
func Compute(km analysis.KnowledgeMap, opts Options) Layout {
	width := opts.Width
	if width <= 0 {
		width = DefaultWidth
	}

	names := nodeNames(km, opts.IncludeChainEndpoints)
	tiers := Tiers(km)

	type placed struct {
		name  string
		tier  int
		order int
	}
	ordered := make([]placed, len(names))
	perTier := map[int]int{}
	for i, n := range names {
		tier, ok := tiers[n]
		if !ok {
			tier = TierIndirect
		}
		ordered[i] = placed{name: n, tier: tier, order: i}
		perTier[tier]++
	}
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].tier < ordered[j].tier })

	out := Layout{Width: width, Height: DefaultHeight, Nodes: make([]Node, 0, len(ordered))}
	pos := make(map[string]Node, len(ordered))
	seenOnTier := map[int]int{}
	for _, p := range ordered {
		n := perTier[p.tier]
		i := seenOnTier[p.tier]
		seenOnTier[p.tier]++

		node := Node{
			Name: p.name,
			Tier: p.tier,
			X:    width / float64(n+1) * float64(i+1),
			Y:    float64(p.tier)*TierSpacing + TopMargin,
		}
		out.Nodes = append(out.Nodes, node)
		pos[p.name] = node
	}

	out.Edges = make([]Edge, 0, len(km.DependencyChain))
	for _, dep := range km.DependencyChain {
		from, ok1 := pos[analysis.ConceptKey(dep.From)]
		to, ok2 := pos[analysis.ConceptKey(dep.To)]
		if !ok1 || !ok2 {
			continue
		}
		out.Edges = append(out.Edges, Edge{
			From: from.Name, To: to.Name,
			X1: from.X, Y1: from.Y,
			X2: to.X, Y2: to.Y,
		})
	}
	return out
}

// Tiers assigns a tier to every name mentioned by km. Explicit lists are
// applied in order target, direct, indirect, so a name listed twice keeps the
// later tier. Chain-only names get 1 if they are ever a "to" endpoint, else 2.
func Tiers(km analysis.KnowledgeMap) map[string]int {
	tiers := map[string]int{}
	tiers[analysis.ConceptKey(km.TargetConcept)] = TierTarget
	for _, p := range km.DirectPrerequisites {
		tiers[analysis.ConceptKey(p)] = TierDirect
	}
	for _, p := range km.IndirectPrerequisites {
		tiers[analysis.ConceptKey(p)] = TierIndirect
	}

	fallback := map[string]int{}
	for _, dep := range km.DependencyChain {
		from, to := analysis.ConceptKey(dep.From), analysis.ConceptKey(dep.To)
		if _, ok := tiers[to]; !ok {
			fallback[to] = TierDirect
		}
		if _, ok := tiers[from]; !ok {
			if _, seen := fallback[from]; !seen {
				fallback[from] = TierIndirect
			}
		}
	}
	for n, t := range fallback {
		tiers[n] = t
	}
	return tiers
}

// nodeNames is the deduplicated node set in first-seen order.
func nodeNames(km analysis.KnowledgeMap, withChain bool) []string {
	seen := map[string]bool{}
	var out []string
	add := func(name string) {
		k := analysis.ConceptKey(name)
		if seen[k] {
			return
		}
		seen[k] = true
		out = append(out, k)
	}

	add(km.TargetConcept)
	for _, p := range km.DirectPrerequisites {
		add(p)
	}
	for _, p := range km.IndirectPrerequisites {
		add(p)
	}
	if withChain {
		for _, dep := range km.DependencyChain {
			add(dep.From)
			add(dep.To)
		}
	}
	return out
}
