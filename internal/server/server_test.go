package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rfielding/lispy/internal/config"
	"github.com/rfielding/lispy/internal/logging"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Config{
		MaxDepth:     1000,
		SessionTTL:   time.Minute,
		AllowOrigins: []string{"http://localhost:3000"},
	}
	return New(cfg, logging.Discard())
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func evalBody(t *testing.T, src string) string {
	t.Helper()
	b, err := json.Marshal(evalRequest{Source: src})
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func decodeResult(t *testing.T, w *httptest.ResponseRecorder) EvalResult {
	t.Helper()
	var res EvalResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("Expected JSON eval result, got %q: %v", w.Body.String(), err)
	}
	return res
}

func createSession(t *testing.T, s *Server) string {
	t.Helper()
	w := do(t, s, "POST", "/api/sessions", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil || len(out.ID) != 26 {
		t.Fatalf("Expected a ULID session id, got %q (%v)", w.Body.String(), err)
	}
	return out.ID
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := do(t, s, "GET", "/healthz", "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("Expected a request id header")
	}
}

func TestEvalOnce(t *testing.T) {
	s := newTestServer(t)
	w := do(t, s, "POST", "/api/eval", evalBody(t, `(define square (lambda (x) (* x x))) (map square (list 1 2 3)) (print "hi")`))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	res := decodeResult(t, w)
	if len(res.Results) != 3 {
		t.Fatalf("Expected 3 results, got %+v", res.Results)
	}
	if !res.Results[0].Void || res.Results[1].Value != "(1 4 9)" || !res.Results[2].Void {
		t.Errorf("Unexpected results %+v", res.Results)
	}
	if res.Output != "hi\n" {
		t.Errorf("Expected print output, got %q", res.Output)
	}
	if s.sessions.Len() != 0 {
		t.Errorf("Expected one-shot eval not to keep a session, got %d", s.sessions.Len())
	}
}

func TestSessionKeepsEnvironment(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	w := do(t, s, "POST", "/api/sessions/"+id+"/eval", evalBody(t, "(define y 123)"))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	w = do(t, s, "POST", "/api/sessions/"+id+"/eval", evalBody(t, `(if (> y 124) "test1" "test2")`))
	res := decodeResult(t, w)
	if len(res.Results) != 1 || res.Results[0].Value != "'test2'" {
		t.Errorf("Expected 'test2', got %+v", res.Results)
	}

	other := createSession(t, s)
	w = do(t, s, "POST", "/api/sessions/"+other+"/eval", evalBody(t, "y"))
	res = decodeResult(t, w)
	if res.Results[0].Error == "" {
		t.Errorf("Expected y to be undefined in another session, got %+v", res.Results)
	}
}

func TestSessionErrorsArePerForm(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)
	w := do(t, s, "POST", "/api/sessions/"+id+"/eval", evalBody(t, "(foo 1 2) (+ 1 2)"))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	res := decodeResult(t, w)
	if !strings.Contains(res.Results[0].Error, "Undefined symbol foo") {
		t.Errorf("Expected undefined symbol error, got %+v", res.Results[0])
	}
	if res.Results[1].Value != "3" {
		t.Errorf("Expected evaluation to continue, got %+v", res.Results[1])
	}
	if got := s.metrics.Value(metricEvalErrors); got != 1 {
		t.Errorf("Expected 1 eval error counted, got %v", got)
	}
	if got := s.metrics.Value(metricEvals); got != 2 {
		t.Errorf("Expected 2 evaluations counted, got %v", got)
	}
}

func TestParseErrorIsUnprocessable(t *testing.T) {
	s := newTestServer(t)
	w := do(t, s, "POST", "/api/eval", evalBody(t, "(+ 1 2"))
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected 422, got %d", w.Code)
	}
	res := decodeResult(t, w)
	if !strings.Contains(res.Error, "Unmatched parenthesis") {
		t.Errorf("Expected unmatched paren message, got %q", res.Error)
	}
	if got := s.metrics.Value(metricParseErrors); got != 1 {
		t.Errorf("Expected 1 parse error counted, got %v", got)
	}
}

func TestBadRequest(t *testing.T) {
	s := newTestServer(t)
	if w := do(t, s, "POST", "/api/eval", "{not json"); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad JSON, got %d", w.Code)
	}
	if w := do(t, s, "POST", "/api/eval", `{}`); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing source, got %d", w.Code)
	}
}

func TestUnknownAndDeletedSessions(t *testing.T) {
	s := newTestServer(t)
	if w := do(t, s, "POST", "/api/sessions/nope/eval", evalBody(t, "1")); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown session, got %d", w.Code)
	}
	id := createSession(t, s)
	if w := do(t, s, "DELETE", "/api/sessions/"+id, ""); w.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", w.Code)
	}
	if w := do(t, s, "DELETE", "/api/sessions/"+id, ""); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", w.Code)
	}
	if got := s.metrics.Value(metricSessionsDeleted); got != 1 {
		t.Errorf("Expected 1 deletion counted, got %v", got)
	}
}

func TestStackOverflowReported(t *testing.T) {
	s := newTestServer(t)
	w := do(t, s, "POST", "/api/eval", evalBody(t, "(define f (lambda (x) (f x))) (f 1) (+ 2 2)"))
	res := decodeResult(t, w)
	if !strings.Contains(res.Results[1].Error, "Stack overflow") {
		t.Errorf("Expected stack overflow, got %+v", res.Results[1])
	}
	if res.Results[2].Value != "4" {
		t.Errorf("Expected evaluation to continue, got %+v", res.Results[2])
	}
}

func TestEvalTimeout(t *testing.T) {
	s := New(config.Config{MaxDepth: 1000, EvalTimeout: 100 * time.Millisecond}, logging.Discard())
	src := `(define f (lambda (n) (if (< n 2) n (+ (f (- n 1)) (f (- n 2)))))) (f 40)`

	start := time.Now()
	w := do(t, s, "POST", "/api/eval", evalBody(t, src))
	elapsed := time.Since(start)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if elapsed > 5*time.Second {
		t.Errorf("Expected the request to stop near the timeout, ran %s", elapsed)
	}
	res := decodeResult(t, w)
	if !res.Results[1].TimedOut || !strings.Contains(res.Results[1].Error, "timed out") {
		t.Errorf("Expected the second form to time out, got %+v", res.Results)
	}
	if got := s.metrics.Value(metricEvalTimeouts); got != 1 {
		t.Errorf("Expected 1 timeout counted, got %v", got)
	}
}

func TestSessionUsableAfterTimeout(t *testing.T) {
	s := New(config.Config{MaxDepth: 1000, SessionTTL: time.Minute, EvalTimeout: 100 * time.Millisecond}, logging.Discard())
	id := createSession(t, s)
	do(t, s, "POST", "/api/sessions/"+id+"/eval",
		evalBody(t, `(define f (lambda (n) (if (< n 2) n (+ (f (- n 1)) (f (- n 2)))))) (f 40)`))

	w := do(t, s, "POST", "/api/sessions/"+id+"/eval", evalBody(t, "(f 10)"))
	if res := decodeResult(t, w); len(res.Results) != 1 || res.Results[0].Value != "55" {
		t.Errorf("Expected 55 after a timed out request, got %+v", res.Results)
	}
}

func TestExpireIdleSessions(t *testing.T) {
	s := newTestServer(t)
	createSession(t, s)
	createSession(t, s)

	if n := s.expireIdle(); n != 0 {
		t.Errorf("Expected fresh sessions to stay, expired %d", n)
	}
	s.sessions.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if n := s.expireIdle(); n != 2 {
		t.Errorf("Expected 2 sessions expired, got %d", n)
	}
	if got := s.metrics.Value(metricSessionsExpired); got != 2 {
		t.Errorf("Expected 2 expirations counted, got %v", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	createSession(t, s)
	w := do(t, s, "GET", "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.HasPrefix(body, "| Metric |") {
		t.Errorf("Expected markdown table, got %q", body)
	}
	if !strings.Contains(body, "| lisp_sessions_created_total | counter | 1 |") {
		t.Errorf("Expected created counter of 1, got %q", body)
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest("OPTIONS", "/api/eval", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Expected allowed origin echoed, got %q", got)
	}
}

func TestConcurrentSessionEval(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)
	body := evalBody(t, "(define x (list 1 2 3)) (car x)")
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			req := httptest.NewRequest("POST", "/api/sessions/"+id+"/eval", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			s.Handler().ServeHTTP(httptest.NewRecorder(), req)
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
	w := do(t, s, "POST", "/api/sessions/"+id+"/eval", evalBody(t, "(cdr x)"))
	if res := decodeResult(t, w); res.Results[0].Value != "(2 3)" {
		t.Errorf("Expected (2 3), got %+v", res.Results)
	}
}
