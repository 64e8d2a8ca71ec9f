package ratelimit

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(cfg *Config) (*Limiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := NewLimiter(cfg)
	l.now = clock.now
	return l, clock
}

func TestTokenBucket(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	b := newTokenBucket(3, 1, start)

	for i := range 3 {
		ok, remaining, _ := b.take(start)
		require.True(t, ok, "request %d", i+1)
		assert.Equal(t, 2-i, remaining)
	}
	ok, _, full := b.take(start)
	assert.False(t, ok)
	assert.Equal(t, start.Add(3*time.Second), full)

	ok, _, _ = b.take(start.Add(1100 * time.Millisecond))
	assert.True(t, ok, "one token refilled")
}

func TestLimiter_DefaultLimit(t *testing.T) {
	l, clock := newTestLimiter(&Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute})
	defer l.Stop()

	for i := range 10 {
		allowed, info := l.Allow("127.0.0.1", "/interviews", http.MethodGet)
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 10, info.Limit)
		assert.Equal(t, 9-i, info.Remaining)
	}

	allowed, info := l.Allow("127.0.0.1", "/interviews", http.MethodGet)
	assert.False(t, allowed)
	assert.Equal(t, 6*time.Second, info.RetryAfter)

	clock.advance(7 * time.Second)
	allowed, _ = l.Allow("127.0.0.1", "/interviews", http.MethodGet)
	assert.True(t, allowed)
}

func TestLimiter_WhitelistBlacklistDisabled(t *testing.T) {
	l, _ := newTestLimiter(&Config{
		Enabled:      true,
		DefaultLimit: 1,
		Whitelist:    map[string]bool{"10.0.0.1": true},
		Blacklist:    map[string]bool{"10.0.0.2": true},
	})
	defer l.Stop()

	for range 5 {
		allowed, _ := l.Allow("10.0.0.1", "/x", http.MethodGet)
		assert.True(t, allowed)
	}
	allowed, _ := l.Allow("10.0.0.2", "/x", http.MethodGet)
	assert.False(t, allowed)

	off, _ := newTestLimiter(&Config{Enabled: false, DefaultLimit: 1})
	for range 5 {
		allowed, _ := off.Allow("10.0.0.3", "/x", http.MethodGet)
		assert.True(t, allowed)
	}
}

func TestLimiter_RoutePatternsShareBucket(t *testing.T) {
	l, _ := newTestLimiter(&Config{
		Enabled:         true,
		DefaultLimit:    100,
		DefaultWindow:   time.Minute,
		EndpointConfigs: []EndpointConfig{{Path: "/calls/{id}/stop", Method: http.MethodPost, Limit: 2, Window: time.Hour}},
	})
	defer l.Stop()

	allowed, _ := l.Allow("c", "/calls/a/stop", http.MethodPost)
	assert.True(t, allowed)
	allowed, _ = l.Allow("c", "/calls/b/stop", http.MethodPost)
	assert.True(t, allowed)
	allowed, _ = l.Allow("c", "/calls/c/stop", http.MethodPost)
	assert.False(t, allowed)

	allowed, _ = l.Allow("other-client", "/calls/a/stop", http.MethodPost)
	assert.True(t, allowed, "buckets are per client")
}

func TestLimiter_Burst(t *testing.T) {
	l, _ := newTestLimiter(&Config{
		Enabled: true,
		EndpointConfigs: []EndpointConfig{
			{Path: "/vapi/generate", Method: http.MethodPost, Limit: 10, Window: time.Minute, Burst: 5},
		},
	})
	defer l.Stop()

	for range 5 {
		allowed, _ := l.Allow("c", "/vapi/generate", http.MethodPost)
		require.True(t, allowed)
	}
	allowed, _ := l.Allow("c", "/vapi/generate", http.MethodPost)
	assert.False(t, allowed)
}

func TestLimiter_Concurrent(t *testing.T) {
	l, _ := newTestLimiter(&Config{Enabled: true, DefaultLimit: 100, DefaultWindow: time.Hour})
	defer l.Stop()

	var allowedCount atomic.Int64
	var wg sync.WaitGroup
	for range 200 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := l.Allow("c", "/interviews", http.MethodGet); ok {
				allowedCount.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 100, allowedCount.Load())
}

func TestLimiter_Cleanup(t *testing.T) {
	l, clock := newTestLimiter(&Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute})
	defer l.Stop()

	for i := range 4 {
		l.Allow(fmt.Sprintf("10.0.0.%d", i), "/x", http.MethodGet)
	}
	clock.advance(2 * time.Hour)
	l.Allow("10.0.0.9", "/x", http.MethodGet)

	l.cleanup(clock.now().Add(-time.Hour))
	assert.Equal(t, 1, l.Len())
}

func TestLimiter_StopIdempotent(t *testing.T) {
	l := NewLimiter(nil)
	l.Stop()
	l.Stop()
}

func TestMatchEndpoint(t *testing.T) {
	configs := DefaultEndpointConfigs()

	assert.Equal(t, 0, MatchEndpoint("/health", http.MethodGet, configs).Limit)
	assert.Equal(t, 0, MatchEndpoint("/metrics", http.MethodGet, configs).Limit)

	m := MatchEndpoint("/calls", http.MethodPost, configs)
	require.NotNil(t, m)
	assert.Equal(t, "/calls", m.Path)

	m = MatchEndpoint("/calls/123/stop", http.MethodPost, configs)
	require.NotNil(t, m)
	assert.Equal(t, "/calls/{id}/stop", m.Path)

	assert.Nil(t, MatchEndpoint("/calls//stop", http.MethodPost, configs))
	assert.Nil(t, MatchEndpoint("/calls", http.MethodGet, configs))
	assert.Nil(t, MatchEndpoint("/interviews/1", http.MethodGet, configs))
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_DEFAULT_LIMIT", "50")
	t.Setenv("RATE_LIMIT_WHITELIST", "10.0.0.1, 10.0.0.2")

	cfg := LoadConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 50, cfg.DefaultLimit)
	assert.True(t, cfg.Whitelist["10.0.0.2"])
	assert.NotEmpty(t, cfg.EndpointConfigs)

	t.Setenv("RATE_LIMIT_ENABLED", "false")
	assert.False(t, LoadConfig().Enabled)
}

func TestMiddleware(t *testing.T) {
	l, _ := newTestLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute})
	defer l.Stop()

	h := Middleware(l, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/interviews", nil)
	req.RemoteAddr = "192.0.2.1:5555"

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))

	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "rate_limit_exceeded")
}

func TestClientID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.7:443"
	assert.Equal(t, "203.0.113.7", ClientID(req))

	req.RemoteAddr = "weird"
	assert.Equal(t, "weird", ClientID(req))
}
