package llm

import (
	"context"

	"zeropoint/api/internal/analysis"
)

type fakeEngine struct {
	name string
}

func (f *fakeEngine) Name() string     { return f.name }
func (f *fakeEngine) GetModel() string { return f.name + "-model" }
func (f *fakeEngine) Stream(ctx context.Context, req analysis.Request) (Stream, error) {
	return &SliceStream{Fragments: []string{"{}"}}, nil
}
