package server

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/rfielding/lispy/internal/logging"
	"github.com/rfielding/lispy/lisp"
)

// Session owns one evaluator and its global environment. Requests against
// the same session are serialized by mu.
type Session struct {
	ID string

	mu       sync.Mutex
	ev       *lisp.Evaluator
	out      bytes.Buffer
	lastUsed time.Time
}

// FormResult is the outcome of one top-level form.
type FormResult struct {
	Value string `json:"value,omitempty"`
	Void  bool   `json:"void,omitempty"`
	Error string `json:"error,omitempty"`

	TimedOut bool `json:"timed_out,omitempty"`
}

// EvalResult is the outcome of evaluating a source text in a session.
type EvalResult struct {
	Results []FormResult `json:"results"`
	Output  string       `json:"output"`
	Error   string       `json:"error,omitempty"`
}

// Eval parses src and evaluates each form under ctx. A failing form is
// reported in its slot and evaluation continues with the next one; once
// ctx is done every remaining form reports the timeout. Only a parse error
// is returned as an error, since nothing was evaluated.
func (s *Session) Eval(ctx context.Context, src string) (EvalResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = time.Now()
	s.out.Reset()

	exprs, err := lisp.Parse(src)
	if err != nil {
		return EvalResult{Results: []FormResult{}, Error: err.Error()}, err
	}

	res := EvalResult{Results: make([]FormResult, 0, len(exprs))}
	for _, expr := range exprs {
		v, err := s.ev.EvalContext(ctx, expr, nil)
		switch {
		case err != nil:
			res.Results = append(res.Results, FormResult{Error: err.Error(), TimedOut: errors.Is(err, lisp.ErrTimeout)})
		case v.IsVoid():
			res.Results = append(res.Results, FormResult{Void: true})
		default:
			res.Results = append(res.Results, FormResult{Value: lisp.Render(v)})
		}
	}
	res.Output = s.out.String()
	return res, nil
}

// TimedOut counts the forms stopped by the evaluation deadline.
func (r EvalResult) TimedOut() int {
	n := 0
	for _, f := range r.Results {
		if f.TimedOut {
			n++
		}
	}
	return n
}

// Failed counts the forms that returned an error.
func (r EvalResult) Failed() int {
	n := 0
	for _, f := range r.Results {
		if f.Error != "" {
			n++
		}
	}
	return n
}

// SessionStore hands out sessions keyed by ULID and expires idle ones.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	maxDepth int
	ttl      time.Duration
	logger   *slog.Logger
	evalLog  *slog.Logger
	now      func() time.Time
}

// NewSessionStore logs lifecycle events on the session channel and gives
// each evaluator a logger on the eval channel.
func NewSessionStore(maxDepth int, ttl time.Duration, logger *slog.Logger) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		maxDepth: maxDepth,
		ttl:      ttl,
		logger:   logging.For(logger, logging.ChannelSession),
		evalLog:  logging.For(logger, logging.ChannelEval),
		now:      time.Now,
	}
}

// New creates and registers a session with a fresh global environment.
func (st *SessionStore) New() *Session {
	s := newSession(st.maxDepth, st.evalLog, st.now())
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

func newSession(maxDepth int, logger *slog.Logger, now time.Time) *Session {
	s := &Session{ID: ulid.Make().String(), lastUsed: now}
	s.ev = lisp.NewEvaluator(
		lisp.WithOutput(&s.out),
		lisp.WithMaxDepth(maxDepth),
		lisp.WithLogger(logger.With("session", s.ID)),
	)
	return s
}

func (st *SessionStore) Get(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	return s, ok
}

func (st *SessionStore) Delete(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[id]; !ok {
		return false
	}
	delete(st.sessions, id)
	return true
}

func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Expire drops sessions idle for longer than the TTL and returns how many
// were removed. A zero TTL keeps sessions forever.
func (st *SessionStore) Expire() int {
	if st.ttl <= 0 {
		return 0
	}
	cutoff := st.now().Add(-st.ttl)

	st.mu.Lock()
	defer st.mu.Unlock()
	n := 0
	for id, s := range st.sessions {
		s.mu.Lock()
		idle := s.lastUsed.Before(cutoff)
		s.mu.Unlock()
		if idle {
			delete(st.sessions, id)
			st.logger.Debug("session expired", "id", id)
			n++
		}
	}
	return n
}
