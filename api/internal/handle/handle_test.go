package handle

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"zeropoint/api/internal/analysis"
	"zeropoint/api/internal/graph"
	"zeropoint/api/internal/llm"
	"zeropoint/api/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validJSON = `{"original_content":"∫ x·eˣ dx","difficulty_level":"Intermediate",` +
	`"assumptions_detected":[{"assumption_id":"A1","assumption_text":"x·eˣ","prerequisite_concept":"Product Rule","severity":"Critical","explanation":"parts","confidence_score":0.8}],` +
	`"knowledge_map":{"target_concept":"Integration by Parts","direct_prerequisites":["Product Rule"],"indirect_prerequisites":["Derivatives"],` +
	`"dependency_chain":[{"from":"Derivatives","to":"Product Rule","relationship":"builds_upon"},{"from":"Product Rule","to":"Integration by Parts","relationship":"required_for"}]},` +
	`"micro_lessons":[{"prerequisite":"Product Rule","title":"t","duration":"60 seconds","content":"c","practice_question":"q","practice_answer":"a"}],` +
	`"gap_tests":[],"learning_path":["Derivatives","Product Rule","Integration by Parts"]}`

type scriptedEngine struct {
	name      string
	fragments []string
	openErr   error

	mu      sync.Mutex
	lastReq analysis.Request
}

func (e *scriptedEngine) Name() string     { return e.name }
func (e *scriptedEngine) GetModel() string { return e.name + "-test" }
func (e *scriptedEngine) Stream(ctx context.Context, req analysis.Request) (llm.Stream, error) {
	e.mu.Lock()
	e.lastReq = req
	e.mu.Unlock()
	if e.openErr != nil {
		return nil, e.openErr
	}
	return &llm.SliceStream{Fragments: e.fragments}, nil
}

func newServer(t *testing.T, eng *scriptedEngine) *httptest.Server {
	t.Helper()
	h := New(&llm.Engines{Gemini: eng}, session.NewAnalyzer(nil, nil, 0, nil), nil, time.Minute)
	mux := http.NewServeMux()
	h.Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", strings.NewReader(string(b)))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestAnalyze_OK(t *testing.T) {
	eng := &scriptedEngine{name: "gemini", fragments: []string{validJSON[:50], validJSON[50:]}}
	srv := newServer(t, eng)

	resp := post(t, srv.URL+"/v1/analyze", AnalyzeRequest{Text: "∫ x·eˣ dx"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	var out struct {
		Engine  string          `json:"engine"`
		Result  analysis.Result `json:"result"`
		Metrics struct {
			Assumptions    int `json:"assumptions"`
			MasteryMinutes int `json:"mastery_minutes"`
		} `json:"metrics"`
		Graph graph.View `json:"graph"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "gemini", out.Engine)
	assert.Equal(t, "Integration by Parts", out.Result.KnowledgeMap.TargetConcept)
	assert.Equal(t, 1, out.Metrics.Assumptions)
	assert.Equal(t, 1, out.Metrics.MasteryMinutes)
	assert.Len(t, out.Graph.Nodes, 3)
	assert.Equal(t, "#ef4444", out.Graph.Colors["Product Rule"])
}

func TestAnalyze_ImageOnly(t *testing.T) {
	eng := &scriptedEngine{name: "gemini", fragments: []string{strings.Replace(validJSON, `"original_content":"∫ x·eˣ dx",`, "", 1)}}
	srv := newServer(t, eng)

	png := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
	resp := post(t, srv.URL+"/v1/analyze", AnalyzeRequest{Image: "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Result analysis.Result `json:"result"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, analysis.ImagePlaceholder, out.Result.OriginalContent)
	eng.mu.Lock()
	defer eng.mu.Unlock()
	require.NotNil(t, eng.lastReq.Image)
	assert.Equal(t, "image/png", eng.lastReq.Image.MIMEType)
}

func TestAnalyze_StatusByKind(t *testing.T) {
	cases := []struct {
		name   string
		eng    *scriptedEngine
		body   any
		status int
		kind   string
	}{
		{"empty request", &scriptedEngine{name: "gemini"}, AnalyzeRequest{Text: "  "}, http.StatusBadRequest, "invalid_request"},
		{"bad image", &scriptedEngine{name: "gemini"}, AnalyzeRequest{Image: "%%%"}, http.StatusBadRequest, "invalid_request"},
		{"unknown llm", &scriptedEngine{name: "gemini"}, AnalyzeRequest{LLMName: "llama", Text: "x"}, http.StatusBadRequest, "invalid_request"},
		{"refusal", &scriptedEngine{name: "gemini", fragments: []string{`{"error":"Please provide JEE Mathematics content for analysis"}`}}, AnalyzeRequest{Text: "hi"}, http.StatusUnprocessableEntity, "model_refusal"},
		{"malformed", &scriptedEngine{name: "gemini", fragments: []string{"not json"}}, AnalyzeRequest{Text: "x"}, http.StatusBadGateway, "malformed_response"},
		{"stream failure", &scriptedEngine{name: "gemini", openErr: assert.AnError}, AnalyzeRequest{Text: "x"}, http.StatusBadGateway, "stream_failure"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newServer(t, tc.eng)
			resp := post(t, srv.URL+"/v1/analyze", tc.body)
			assert.Equal(t, tc.status, resp.StatusCode)

			var body errorBody
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tc.kind, body.Kind)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestAnalyze_MalformedKeepsRaw(t *testing.T) {
	srv := newServer(t, &scriptedEngine{name: "gemini", fragments: []string{"{oops"}})
	resp := post(t, srv.URL+"/v1/analyze", AnalyzeRequest{Text: "x"})
	var body errorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "{oops", body.Raw)
}

func TestAnalyze_MethodAndJSON(t *testing.T) {
	srv := newServer(t, &scriptedEngine{name: "gemini"})

	resp, err := http.Get(srv.URL + "/v1/analyze")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/v1/analyze", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAnalyzeStream_Events(t *testing.T) {
	srv := newServer(t, &scriptedEngine{name: "gemini", fragments: []string{validJSON[:10], validJSON[10:]}})
	resp := post(t, srv.URL+"/v1/analyze/stream", AnalyzeRequest{Text: "x"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	var events []string
	var progress []progressEvent
	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 1<<20), 1<<20)
	var event string
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
			events = append(events, event)
		case strings.HasPrefix(line, "data: ") && event == "progress":
			var p progressEvent
			require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &p))
			progress = append(progress, p)
		}
	}
	assert.Equal(t, []string{"progress", "progress", "result"}, events)
	require.Len(t, progress, 2)
	assert.Equal(t, validJSON[:10], progress[0].Raw)
	assert.Equal(t, validJSON, progress[1].Raw)
}

func TestAnalyzeStream_ErrorEvent(t *testing.T) {
	srv := newServer(t, &scriptedEngine{name: "gemini", fragments: []string{`{"error":"no"}`}})
	resp := post(t, srv.URL+"/v1/analyze/stream", AnalyzeRequest{Text: "x"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	b := new(strings.Builder)
	_, err := bufio.NewReader(resp.Body).WriteTo(b)
	require.NoError(t, err)
	assert.Contains(t, b.String(), "event: progress")
	assert.Contains(t, b.String(), "event: error\ndata: {\"error\":\"no\",\"kind\":\"model_refusal\"")
}

func TestLayout(t *testing.T) {
	srv := newServer(t, &scriptedEngine{name: "gemini"})
	resp := post(t, srv.URL+"/v1/graph/layout", LayoutRequest{
		KnowledgeMap: analysis.KnowledgeMap{
			TargetConcept:       "Limits",
			DirectPrerequisites: []string{"Functions"},
			DependencyChain:     []analysis.Dependency{{From: "Functions", To: "Limits"}, {From: "Ghost", To: "Limits"}},
		},
		Hovered: "Limits",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var v graph.View
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	assert.Len(t, v.Nodes, 2)
	assert.Len(t, v.Edges, 1)
	assert.Equal(t, "Limits", v.Highlight.Hovered)
	assert.Equal(t, graph.NodeFull, v.Highlight.Nodes["Functions"])
}

func TestDeadline(t *testing.T) {
	h := New(&llm.Engines{}, nil, nil, 0)
	r := httptest.NewRequest(http.MethodPost, "/v1/analyze?timeoutSec=5", nil)
	assert.Equal(t, 5*time.Second, h.deadline(r))
	r.Header.Set("X-Request-Timeout", "9")
	assert.Equal(t, 9*time.Second, h.deadline(r))
	r = httptest.NewRequest(http.MethodPost, "/v1/analyze", nil)
	assert.Equal(t, 180*time.Second, h.deadline(r))
}

func TestErrorResponse_Superseded(t *testing.T) {
	code, body := errorResponse(session.ErrSuperseded)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "superseded", body.Kind)
}

func TestHealth(t *testing.T) {
	srv := newServer(t, &scriptedEngine{name: "gemini"})
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	var body struct {
		Status  string   `json:"status"`
		Engines []string `json:"engines"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, []string{"gemini"}, body.Engines)
}
