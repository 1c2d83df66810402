package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"zeropoint/api/internal/analysis"
	"zeropoint/api/internal/formatter"
	"zeropoint/api/internal/graph"
)

func newLayoutCmd() *cobra.Command {
	var (
		hovered        string
		width          float64
		chainEndpoints bool
		output         string
	)
	cmd := &cobra.Command{
		Use:   "layout FILE",
		Short: "Compute the knowledge-map layout of a saved analysis",
		Long: `Read an analysis JSON (for example from "zeropoint analyze -o json") and print
where each concept sits on the canvas. FILE may be "-" for stdin, and may be
either a bare result or a full report with a "result" field.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := readResult(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			v := graph.NewView(res.KnowledgeMap, res.Assumptions, hovered, graph.Options{
				Width:                 width,
				IncludeChainEndpoints: chainEndpoints,
			})
			return formatter.DisplayLayout(cmd.OutOrStdout(), v, output)
		},
	}

	cmd.Flags().StringVar(&hovered, "hover", "", "Concept to highlight together with its neighbours")
	cmd.Flags().Float64Var(&width, "width", graph.DefaultWidth, "Canvas width")
	cmd.Flags().BoolVar(&chainEndpoints, "chain-endpoints", false, "Also place concepts that only appear in the dependency chain")
	cmd.Flags().StringVarP(&output, "output", "o", "human", "Output format (human, json, yaml)")

	return cmd
}

func readResult(stdin io.Reader, path string) (*analysis.Result, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	var wrapped struct {
		Result *analysis.Result `json:"result"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if wrapped.Result != nil {
		return wrapped.Result, nil
	}
	var res analysis.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if res.KnowledgeMap.TargetConcept == "" {
		return nil, fmt.Errorf("%s: no knowledge_map.target_concept", path)
	}
	return &res, nil
}
