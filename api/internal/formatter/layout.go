package formatter

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"zeropoint/api/internal/graph"
)

// DisplayLayout prints a computed knowledge-map view: a node table in human
// format, the whole view in json or yaml.
func DisplayLayout(w io.Writer, v graph.View, format string) error {
	switch strings.ToLower(format) {
	case "json", "yaml":
		return Encode(w, v, format)
	case "human", "":
	default:
		return fmt.Errorf("unknown output format %q; use human, json or yaml", format)
	}

	color.New(color.FgCyan, color.Bold).Fprintf(w, "🗺  %d nodes, %d edges, %.0fx%.0f\n", len(v.Nodes), len(v.Edges), v.Width, v.Height)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIER\tNODE\tX\tY\tCOLOR\tOPACITY")
	for _, n := range v.Nodes {
		fmt.Fprintf(tw, "%d\t%s\t%.1f\t%.0f\t%s\t%.1f\n", n.Tier, v.Labels[n.Name], n.X, n.Y, v.Colors[n.Name], v.Highlight.Nodes[n.Name])
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for i, e := range v.Edges {
		line := fmt.Sprintf("%s → %s", e.From, e.To)
		if v.Highlight.Edges[i] < graph.EdgeFull {
			line = color.HiBlackString(line)
		}
		fmt.Fprintf(w, "  %s\n", line)
	}
	return nil
}
