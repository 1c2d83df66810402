package handle

import (
	"net/http"

	"zeropoint/api/internal/analysis"
	"zeropoint/api/internal/dashboard"
	"zeropoint/api/internal/graph"
	"zeropoint/api/internal/llm"
	"zeropoint/api/internal/session"
	"zeropoint/api/internal/util"

	"go.uber.org/zap"
)

type AnalyzeRequest struct {
	LLMName string `json:"llm_name"`
	Text    string `json:"text"`
	// Image is raw base64 or a data: URL.
	Image    string `json:"image,omitempty"`
	MIMEType string `json:"mime_type,omitempty"`
}

type AnalyzeResponse struct {
	*session.Outcome
	Metrics dashboard.Metrics `json:"metrics"`
	Graph   graph.View        `json:"graph"`
}

func (in AnalyzeRequest) toRequest() (analysis.Request, error) {
	req := analysis.Request{Text: in.Text}
	if in.Image == "" {
		return req, nil
	}
	data, hint, err := util.DecodeImage(in.Image)
	if err != nil {
		return req, &analysis.Error{Kind: analysis.InvalidRequest, Message: "Bad image: " + err.Error(), Err: err}
	}
	req.Image = &analysis.Image{Data: data, MIMEType: util.PickMIME(in.MIMEType, hint, data)}
	return req, nil
}

// prepare decodes and validates the body and resolves the engine.
func (h *Handle) prepare(w http.ResponseWriter, r *http.Request) (analysis.Request, llm.Engine, bool) {
	var in AnalyzeRequest
	if !decode(w, r, &in) {
		return analysis.Request{}, nil, false
	}
	req, err := in.toRequest()
	if err == nil {
		err = req.Validate()
	}
	if err != nil {
		writeError(w, err)
		return req, nil, false
	}
	eng, err := h.engs.GetEngine(in.LLMName)
	if err != nil {
		writeError(w, &analysis.Error{Kind: analysis.InvalidRequest, Message: err.Error(), Err: err})
		return req, nil, false
	}
	return req, eng, true
}

func newResponse(out *session.Outcome) AnalyzeResponse {
	res := out.Result
	return AnalyzeResponse{
		Outcome: out,
		Metrics: dashboard.ComputeMetrics(res, out.Duration),
		Graph:   graph.NewView(res.KnowledgeMap, res.Assumptions, "", graph.Options{}),
	}
}

func (h *Handle) Analyze(w http.ResponseWriter, r *http.Request) {
	req, eng, ok := h.prepare(w, r)
	if !ok {
		return
	}
	ctx, cancel, log := h.begin(w, r)
	defer cancel()

	out, err := h.analyzer.RunGuarded(ctx, h.guard(r), eng, req, nil)
	if err != nil {
		log.Info("analyze failed", zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newResponse(out))
}
