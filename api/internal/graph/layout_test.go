package graph

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zeropoint/api/internal/analysis"
)

func calculusMap() analysis.KnowledgeMap {
	return analysis.KnowledgeMap{
		TargetConcept:         "Integration by Parts",
		DirectPrerequisites:   []string{"Derivatives", "Product Rule"},
		IndirectPrerequisites: []string{"Limits"},
		DependencyChain: []analysis.Dependency{
			{From: "Limits", To: "Derivatives", Relationship: "builds_upon"},
			{From: "Derivatives", To: "Integration by Parts", Relationship: "required_for"},
			{From: "Product Rule", To: "Integration by Parts", Relationship: "required_for"},
		},
	}
}

func byName(l Layout) map[string]Node {
	m := map[string]Node{}
	for _, n := range l.Nodes {
		m[n.Name] = n
	}
	return m
}

func TestCompute_Positions(t *testing.T) {
	l := Compute(calculusMap(), Options{})
	want := []Node{
		{Name: "Integration by Parts", Tier: 0, X: 400, Y: 60},
		{Name: "Derivatives", Tier: 1, X: 800.0 / 3, Y: 185},
		{Name: "Product Rule", Tier: 1, X: 800.0 / 3 * 2, Y: 185},
		{Name: "Limits", Tier: 2, X: 400, Y: 310},
	}
	if diff := cmp.Diff(want, l.Nodes); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, l.Edges, 3)
	assert.Equal(t, Edge{From: "Limits", To: "Derivatives", X1: 400, Y1: 310, X2: 800.0 / 3, Y2: 185}, l.Edges[0])
	assert.Equal(t, DefaultWidth, l.Width)
}

func TestCompute_Deterministic(t *testing.T) {
	km := calculusMap()
	a := Compute(km, Options{Width: 640})
	b := Compute(km, Options{Width: 640})
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("layout is not deterministic:\n%s", diff)
	}
}

func TestCompute_TierOrderAndMargins(t *testing.T) {
	km := analysis.KnowledgeMap{
		TargetConcept:         "T",
		IndirectPrerequisites: []string{"I1", "I2", "I3"},
		DirectPrerequisites:   []string{"D1"},
	}
	l := Compute(km, Options{Width: 400})
	nodes := byName(l)
	assert.Equal(t, 100.0, nodes["I1"].X)
	assert.Equal(t, 200.0, nodes["I2"].X)
	assert.Equal(t, 300.0, nodes["I3"].X)
	assert.Less(t, nodes["T"].Y, nodes["D1"].Y)
	assert.Less(t, nodes["D1"].Y, nodes["I1"].Y)
	for i := 1; i < len(l.Nodes); i++ {
		assert.LessOrEqual(t, l.Nodes[i-1].Tier, l.Nodes[i].Tier)
	}
}

func TestCompute_DeduplicatesByName(t *testing.T) {
	km := analysis.KnowledgeMap{
		TargetConcept:         "Limits",
		DirectPrerequisites:   []string{"Functions", "Functions"},
		IndirectPrerequisites: []string{"Functions"},
	}
	l := Compute(km, Options{})
	require.Len(t, l.Nodes, 2)
	// the indirect list is applied last
	assert.Equal(t, 2, byName(l)["Functions"].Tier)
}

func TestCompute_DropsDanglingEdges(t *testing.T) {
	km := calculusMap()
	km.DependencyChain = append(km.DependencyChain,
		analysis.Dependency{From: "Set Theory", To: "Limits"},
		analysis.Dependency{From: "Derivatives", To: "Nowhere"},
	)
	l := Compute(km, Options{})
	assert.Len(t, l.Nodes, 4)
	assert.Len(t, l.Edges, 3)
	for _, e := range l.Edges {
		assert.NotEqual(t, "Set Theory", e.From)
		assert.NotEqual(t, "Nowhere", e.To)
	}
}

func TestCompute_IncludeChainEndpoints(t *testing.T) {
	km := calculusMap()
	km.DependencyChain = append(km.DependencyChain,
		analysis.Dependency{From: "Set Theory", To: "Functions"},
		analysis.Dependency{From: "Functions", To: "Limits"},
	)
	l := Compute(km, Options{IncludeChainEndpoints: true})
	nodes := byName(l)
	require.Contains(t, nodes, "Set Theory")
	require.Contains(t, nodes, "Functions")
	assert.Equal(t, 2, nodes["Set Theory"].Tier)
	assert.Equal(t, 1, nodes["Functions"].Tier)
	assert.Len(t, l.Edges, 5)
}

func TestTiers_ExplicitWinsOverFallback(t *testing.T) {
	km := analysis.KnowledgeMap{
		TargetConcept:       "Chain Rule",
		DirectPrerequisites: []string{"Composite Functions"},
		DependencyChain: []analysis.Dependency{
			{From: "Chain Rule", To: "Composite Functions"},
			{From: "Composite Functions", To: "Orphan"},
			{From: "Orphan", To: "Chain Rule"},
			{From: "Root", To: "Orphan"},
		},
	}
	tiers := Tiers(km)
	assert.Equal(t, 0, tiers["Chain Rule"])
	assert.Equal(t, 1, tiers["Composite Functions"])
	assert.Equal(t, 1, tiers["Orphan"])
	assert.Equal(t, 2, tiers["Root"])
}

func TestTiers_ToSeenAfterFrom(t *testing.T) {
	km := analysis.KnowledgeMap{
		TargetConcept: "T",
		DependencyChain: []analysis.Dependency{
			{From: "X", To: "T"},
			{From: "W", To: "X"},
		},
	}
	tiers := Tiers(km)
	assert.Equal(t, 1, tiers["X"])
	assert.Equal(t, 2, tiers["W"])
}

func TestCompute_EmptyMap(t *testing.T) {
	l := Compute(analysis.KnowledgeMap{}, Options{})
	require.Len(t, l.Nodes, 1)
	assert.Empty(t, l.Edges)
}

func TestNodeColorAndLabel(t *testing.T) {
	sev := analysis.SeverityByConcept([]analysis.Assumption{
		{Concept: "Limits", Severity: analysis.Helpful},
		{Concept: "Limits", Severity: analysis.Critical},
	})
	assert.Equal(t, "#ef4444", NodeColor(Node{Name: "Limits", Tier: 2}, sev))
	assert.Equal(t, "#3b82f6", NodeColor(Node{Name: "Target", Tier: 0}, sev))
	assert.Equal(t, "Fundamental Theorem of...", Label("Fundamental Theorem of Calculus"))
	assert.Equal(t, "Limits", Label("Limits"))
}
