package handle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"zeropoint/api/internal/analysis"
	"zeropoint/api/internal/llm"
	"zeropoint/api/internal/session"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxBodyBytes = 16 << 20

type Handle struct {
	engs     *llm.Engines
	analyzer *session.Analyzer
	log      *zap.Logger
	timeout  time.Duration

	guards sync.Map // client id -> *session.Guard
}

func New(engs *llm.Engines, analyzer *session.Analyzer, log *zap.Logger, timeout time.Duration) *Handle {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 180 * time.Second
	}
	return &Handle{engs: engs, analyzer: analyzer, log: log, timeout: timeout}
}

// Register mounts every endpoint on mux.
func (h *Handle) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", h.Health)
	mux.HandleFunc("/v1/analyze", h.Analyze)
	mux.HandleFunc("/v1/analyze/stream", h.AnalyzeStream)
	mux.HandleFunc("/v1/graph/layout", h.Layout)
}

func (h *Handle) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "engines": h.engs.Names()})
}

// deadline reads X-Request-Timeout or ?timeoutSec=, in seconds.
func (h *Handle) deadline(r *http.Request) time.Duration {
	if ts := r.Header.Get("X-Request-Timeout"); ts != "" {
		if v, _ := strconv.Atoi(ts); v > 0 {
			return time.Duration(v) * time.Second
		}
	} else if ts := r.URL.Query().Get("timeoutSec"); ts != "" {
		if v, _ := strconv.Atoi(ts); v > 0 {
			return time.Duration(v) * time.Second
		}
	}
	return h.timeout
}

// guard returns the per-client guard named by X-Client-ID; requests without
// the header never supersede each other.
func (h *Handle) guard(r *http.Request) *session.Guard {
	id := strings.TrimSpace(r.Header.Get("X-Client-ID"))
	if id == "" {
		return &session.Guard{}
	}
	g, _ := h.guards.LoadOrStore(id, &session.Guard{})
	return g.(*session.Guard)
}

// begin tags the request with an id and returns a logger carrying it.
func (h *Handle) begin(w http.ResponseWriter, r *http.Request) (context.Context, context.CancelFunc, *zap.Logger) {
	rid := uuid.NewString()
	w.Header().Set("X-Request-ID", rid)
	log := h.log.With(zap.String("request_id", rid), zap.String("path", r.URL.Path))
	ctx, cancel := context.WithTimeout(r.Context(), h.deadline(r))
	return ctx, cancel, log
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	Raw   string `json:"raw,omitempty"`
}

func errorResponse(err error) (int, errorBody) {
	if errors.Is(err, session.ErrSuperseded) {
		return http.StatusConflict, errorBody{Error: err.Error(), Kind: "superseded"}
	}
	kind := analysis.KindOf(err)
	body := errorBody{Error: analysis.UserMessage(err), Kind: kind.String()}
	var ae *analysis.Error
	if errors.As(err, &ae) {
		body.Raw = ae.Raw
	}
	return statusFor(kind), body
}

func statusFor(k analysis.Kind) int {
	switch k {
	case analysis.InvalidRequest:
		return http.StatusBadRequest
	case analysis.StreamFailure, analysis.MalformedResponse:
		return http.StatusBadGateway
	case analysis.ModelRefusal:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	code, body := errorResponse(err)
	writeJSON(w, code, body)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "POST only", Kind: analysis.InvalidRequest.String()})
		return false
	}
	defer r.Body.Close()
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad json: " + err.Error(), Kind: analysis.InvalidRequest.String()})
		return false
	}
	return true
}
