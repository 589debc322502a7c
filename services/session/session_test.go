package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"synced-lyrics-go/circuitbreaker"
)

type sleepRecorder struct {
	calls []time.Duration
}

func (r *sleepRecorder) Sleep(_ context.Context, d time.Duration) error {
	r.calls = append(r.calls, d)
	return nil
}

func newTestSession(opts Options) (*Session, *sleepRecorder) {
	rec := &sleepRecorder{}
	opts.Sleep = rec.Sleep
	if opts.Name == "" {
		opts.Name = "test"
	}
	return New(opts), rec
}

func TestSession_RotatesAfterBudget(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	s, _ := newTestSession(Options{RotateEvery: 7})
	if s.Generation() != 1 {
		t.Fatalf("Expected initial generation 1, got %d", s.Generation())
	}

	for i := 1; i <= 7; i++ {
		if _, err := s.GetBody(context.Background(), server.URL, nil); err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
		if s.Generation() != 1 {
			t.Fatalf("Session rotated early at request %d (generation %d)", i, s.Generation())
		}
	}

	if _, err := s.GetBody(context.Background(), server.URL, nil); err != nil {
		t.Fatalf("request 8 failed: %v", err)
	}
	if s.Generation() != 2 {
		t.Errorf("Expected new session at request 8, got generation %d", s.Generation())
	}
}

func TestSession_RetriesCountAgainstBudget(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	s, _ := newTestSession(Options{RotateEvery: 2, MaxRetries: 3})
	if _, err := s.GetBody(context.Background(), server.URL, nil); !errors.Is(err, ErrServerError) {
		t.Fatalf("Expected ErrServerError, got %v", err)
	}
	if hits.Load() != 4 {
		t.Fatalf("Expected 4 attempts, got %d", hits.Load())
	}
	// attempts 1-2 use the first client, 3-4 the second
	if s.Generation() != 2 {
		t.Errorf("Expected retries to rotate the session once, got generation %d", s.Generation())
	}
}

func TestSession_SetsUserAgentFromPool(t *testing.T) {
	var got atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.Store(r.Header.Get("User-Agent"))
	}))
	defer server.Close()

	s, _ := newTestSession(Options{UserAgents: []string{"agent/1.0"}})
	if _, err := s.GetBody(context.Background(), server.URL, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Load() != "agent/1.0" {
		t.Errorf("Expected pooled user agent, got %v", got.Load())
	}
}

func TestSession_RetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	s, rec := newTestSession(Options{MaxRetries: 3, RetryBackoff: 100 * time.Millisecond})
	body, err := s.GetBody(context.Background(), server.URL, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != "ok" {
		t.Errorf("Expected body 'ok', got %q", body)
	}
	if hits.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", hits.Load())
	}

	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}
	if len(rec.calls) != len(want) {
		t.Fatalf("Expected backoffs %v, got %v", want, rec.calls)
	}
	for i := range want {
		if rec.calls[i] != want[i] {
			t.Errorf("backoff %d = %v, want %v", i, rec.calls[i], want[i])
		}
	}
}

func TestSession_GivesUpAfterRetries(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	s, _ := newTestSession(Options{MaxRetries: 2})
	_, err := s.GetBody(context.Background(), server.URL, nil)
	if !errors.Is(err, ErrServerError) {
		t.Fatalf("Expected ErrServerError, got %v", err)
	}
	if hits.Load() != 3 {
		t.Errorf("Expected 1 attempt + 2 retries, got %d", hits.Load())
	}
}

func TestSession_RateLimitBacksOff(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	s, rec := newTestSession(Options{
		MaxRetries:          3,
		RateLimitBackoffMin: 60 * time.Second,
		RateLimitBackoffMax: 120 * time.Second,
	})
	_, err := s.GetBody(context.Background(), server.URL, nil)
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("Expected ErrRateLimited, got %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("Expected no retry after 429, got %d requests", hits.Load())
	}
	if len(rec.calls) != 1 {
		t.Fatalf("Expected one backoff sleep, got %v", rec.calls)
	}
	if d := rec.calls[0]; d < 60*time.Second || d > 120*time.Second {
		t.Errorf("Backoff %v outside [60s, 120s]", d)
	}
}

func TestSession_TransportFailureRotates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	s, rec := newTestSession(Options{MaxRetries: 3})
	if _, err := s.GetBody(context.Background(), url, nil); err == nil {
		t.Fatal("Expected transport error")
	}
	if s.Generation() != 2 {
		t.Errorf("Expected session rotation after transport failure, got generation %d", s.Generation())
	}
	if len(rec.calls) != 0 {
		t.Errorf("Expected no retries after transport failure, got sleeps %v", rec.calls)
	}
}

func TestSession_TLSFailureRotates(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	// default transport does not trust the test certificate
	s, _ := newTestSession(Options{})
	if _, err := s.GetBody(context.Background(), server.URL, nil); err == nil {
		t.Fatal("Expected certificate error")
	}
	if s.Generation() != 2 {
		t.Errorf("Expected session rotation after TLS failure, got generation %d", s.Generation())
	}
}

func TestSession_CircuitBreakerBlocks(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cb := circuitbreaker.New(circuitbreaker.Config{Name: "test", Threshold: 1, Cooldown: time.Hour})
	s, _ := newTestSession(Options{Breaker: cb})

	if _, err := s.GetBody(context.Background(), server.URL, nil); !errors.Is(err, ErrServerError) {
		t.Fatalf("Expected ErrServerError, got %v", err)
	}
	_, err := s.GetBody(context.Background(), server.URL, nil)
	if !errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		t.Fatalf("Expected ErrCircuitOpen, got %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("Expected open breaker to block the request, server saw %d", hits.Load())
	}
}

func TestSession_PacingSleepsBeforeRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	s, rec := newTestSession(Options{Pacer: &Pacer{Mean: 5 * time.Second, Jitter: 0.3, Floor: 3 * time.Second}})
	if _, err := s.GetBody(context.Background(), server.URL, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rec.calls) != 1 || rec.calls[0] < 3*time.Second {
		t.Errorf("Expected one pacing sleep of at least 3s, got %v", rec.calls)
	}
}

func TestPacer_Floor(t *testing.T) {
	p := NewPacer(5, 0.3, 3)
	for i := 0; i < 1000; i++ {
		if d := p.Next(); d < 3*time.Second {
			t.Fatalf("Pacer returned %v below floor", d)
		}
	}

	huge := &Pacer{Mean: time.Second, Jitter: 10, Floor: 2 * time.Second}
	for i := 0; i < 100; i++ {
		if d := huge.Next(); d < 2*time.Second {
			t.Fatalf("Pacer returned %v below floor", d)
		}
	}
}
