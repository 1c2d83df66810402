package handle

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

type progressEvent struct {
	Raw   string `json:"raw"`
	Bytes int    `json:"bytes"`
}

// AnalyzeStream answers with server-sent events: one "progress" event per
// fragment carrying the whole text so far, then a single "result" or
// "error" event. Request errors found before streaming starts are plain JSON.
func (h *Handle) AnalyzeStream(w http.ResponseWriter, r *http.Request) {
	fl, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "streaming unsupported", Kind: "unknown_failure"})
		return
	}
	req, eng, ok := h.prepare(w, r)
	if !ok {
		return
	}
	ctx, cancel, log := h.begin(w, r)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fl.Flush()

	send := func(event string, v any) {
		b, err := json.Marshal(v)
		if err != nil {
			log.Error("sse marshal", zap.String("event", event), zap.Error(err))
			return
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, b); err != nil {
			log.Debug("sse write", zap.Error(err))
			return
		}
		fl.Flush()
	}

	out, err := h.analyzer.RunGuarded(ctx, h.guard(r), eng, req, func(raw string) {
		send("progress", progressEvent{Raw: raw, Bytes: len(raw)})
	})
	if err != nil {
		log.Info("analyze stream failed", zap.Error(err))
		_, body := errorResponse(err)
		send("error", body)
		return
	}
	send("result", newResponse(out))
}
