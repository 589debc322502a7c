package session

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"synced-lyrics-go/circuitbreaker"
	"synced-lyrics-go/logcolors"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var (
	ErrRateLimited = errors.New("rate limited")
	ErrServerError = errors.New("server error")
)

// Options configures a Session. Zero values fall back to the defaults below.
type Options struct {
	Name                string
	Timeout             time.Duration
	RotateEvery         int
	MaxRetries          int
	RetryBackoff        time.Duration
	RateLimitBackoffMin time.Duration
	RateLimitBackoffMax time.Duration
	RequestsPerSecond   float64
	Pacer               *Pacer
	Breaker             *circuitbreaker.CircuitBreaker
	UserAgents          []string

	// Test hooks
	Sleep        func(ctx context.Context, d time.Duration) error
	NewTransport func() http.RoundTripper
}

const (
	defaultTimeout      = 10 * time.Second
	defaultRotateEvery  = 7
	defaultRetryBackoff = 500 * time.Millisecond
)

// Session owns one provider's HTTP client. It hands out a fresh client and user agent
// every RotateEvery requests and right after any transport failure.
// A Session is meant for a single owner and is not shared between providers.
type Session struct {
	opts    Options
	limiter *rate.Limiter
	sleep   func(ctx context.Context, d time.Duration) error

	mu         sync.Mutex
	client     *http.Client
	userAgent  string
	requests   int
	generation int
}

// New creates a session with its first client already built
func New(opts Options) *Session {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.RotateEvery <= 0 {
		opts.RotateEvery = defaultRotateEvery
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = defaultRetryBackoff
	}
	if opts.RateLimitBackoffMin <= 0 {
		opts.RateLimitBackoffMin = 60 * time.Second
	}
	if opts.RateLimitBackoffMax < opts.RateLimitBackoffMin {
		opts.RateLimitBackoffMax = opts.RateLimitBackoffMin * 2
	}
	if len(opts.UserAgents) == 0 {
		opts.UserAgents = DefaultUserAgents
	}
	if opts.NewTransport == nil {
		opts.NewTransport = func() http.RoundTripper {
			return http.DefaultTransport.(*http.Transport).Clone()
		}
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	s := &Session{
		opts:    opts,
		limiter: rate.NewLimiter(limit, 1),
		sleep:   opts.Sleep,
	}
	if s.sleep == nil {
		s.sleep = sleepContext
	}

	s.mu.Lock()
	s.rotateLocked("new session")
	s.mu.Unlock()
	return s
}

// Name returns the owning provider's name
func (s *Session) Name() string {
	return s.opts.Name
}

// Generation identifies the current underlying client. It increases on every rotation.
func (s *Session) Generation() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// UserAgent returns the user agent of the current client
func (s *Session) UserAgent() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userAgent
}

// Rotate discards the current client and builds a new one
func (s *Session) Rotate(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rotateLocked(reason)
}

// must hold mu
func (s *Session) rotateLocked(reason string) {
	if s.client != nil {
		s.client.CloseIdleConnections()
	}
	s.client = &http.Client{
		Timeout:   s.opts.Timeout,
		Transport: s.opts.NewTransport(),
	}
	s.userAgent = s.opts.UserAgents[rand.IntN(len(s.opts.UserAgents))]
	s.requests = 0
	s.generation++
	if s.generation > 1 {
		log.Debugf("%s Rotated to session #%d (%s)", logcolors.SessionPrefix(s.opts.Name), s.generation, reason)
	}
}

// acquire counts one request against the current client, rotating first when its budget is spent
func (s *Session) acquire() (*http.Client, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.requests >= s.opts.RotateEvery {
		s.rotateLocked("request budget reached")
	}
	s.requests++
	return s.client, s.userAgent
}

// Close releases idle connections held by the current client
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		s.client.CloseIdleConnections()
	}
}

// Do sends a replayable (bodiless) request. 5xx responses are retried with exponential
// backoff; a 429 sleeps for a random backoff and returns ErrRateLimited; a transport
// failure rotates the session and is returned without retrying.
func (s *Session) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	if b := s.opts.Breaker; b != nil && !b.Allow() {
		return nil, fmt.Errorf("%s: %w (retry in %v)", s.opts.Name, circuitbreaker.ErrCircuitOpen, b.TimeUntilRetry().Round(time.Second))
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	if s.opts.Pacer != nil {
		d := s.opts.Pacer.Next()
		log.Debugf("%s Waiting %v before request", logcolors.LogPacing, d.Round(time.Millisecond))
		if err := s.sleep(ctx, d); err != nil {
			return nil, err
		}
	}

	for attempt := 0; ; attempt++ {
		client, userAgent := s.acquire()
		r := req.Clone(ctx)
		if r.Header.Get("User-Agent") == "" {
			r.Header.Set("User-Agent", userAgent)
		}

		resp, err := client.Do(r)
		if err != nil {
			reason := "transport failure"
			if isTLSError(err) {
				reason = "TLS failure"
			}
			s.Rotate(reason)
			s.recordFailure()
			return nil, fmt.Errorf("%s: %w", s.opts.Name, err)
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			discard(resp)
			s.recordFailure()
			wait := s.rateLimitBackoff()
			log.Warnf("%s %s returned 429, backing off for %v", logcolors.LogRateLimit, s.opts.Name, wait.Round(time.Second))
			if err := s.sleep(ctx, wait); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("%s: %w", s.opts.Name, ErrRateLimited)

		case resp.StatusCode >= 500:
			discard(resp)
			if attempt >= s.opts.MaxRetries {
				s.recordFailure()
				return nil, fmt.Errorf("%s: %w: status %d after %d attempts", s.opts.Name, ErrServerError, resp.StatusCode, attempt+1)
			}
			backoff := s.opts.RetryBackoff << attempt
			log.Debugf("%s %s returned %d, retrying in %v", logcolors.LogRetry, s.opts.Name, resp.StatusCode, backoff)
			if err := s.sleep(ctx, backoff); err != nil {
				return nil, err
			}
			continue
		}

		s.recordSuccess()
		return resp, nil
	}
}

// Get issues a GET with the given extra headers
func (s *Session) Get(ctx context.Context, rawURL string, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range header {
		req.Header[k] = v
	}
	return s.Do(req)
}

// GetBody issues a GET and returns the body of a 200 response
func (s *Session) GetBody(ctx context.Context, rawURL string, header http.Header) ([]byte, error) {
	resp, err := s.Get(ctx, rawURL, header)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status %d", s.opts.Name, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// GetJSON issues a GET and decodes a 200 JSON response into v
func (s *Session) GetJSON(ctx context.Context, rawURL string, header http.Header, v any) error {
	body, err := s.GetBody(ctx, rawURL, header)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%s: decode response: %w", s.opts.Name, err)
	}
	return nil
}

func (s *Session) rateLimitBackoff() time.Duration {
	spread := s.opts.RateLimitBackoffMax - s.opts.RateLimitBackoffMin
	if spread <= 0 {
		return s.opts.RateLimitBackoffMin
	}
	return s.opts.RateLimitBackoffMin + rand.N(spread+1)
}

func (s *Session) recordFailure() {
	if s.opts.Breaker != nil {
		s.opts.Breaker.RecordFailure()
	}
}

func (s *Session) recordSuccess() {
	if s.opts.Breaker != nil {
		s.opts.Breaker.RecordSuccess()
	}
}

func isTLSError(err error) bool {
	var (
		recordErr   tls.RecordHeaderError
		verifyErr   *tls.CertificateVerificationError
		authErr     x509.UnknownAuthorityError
		hostnameErr x509.HostnameError
		invalidErr  x509.CertificateInvalidError
	)
	return errors.As(err, &recordErr) || errors.As(err, &verifyErr) ||
		errors.As(err, &authErr) || errors.As(err, &hostnameErr) || errors.As(err, &invalidErr)
}

func discard(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
