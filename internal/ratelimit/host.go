package ratelimit

import (
	"context"
	"net/http"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// HostLimiter rate-limits outbound requests per hostname with a token bucket.
type HostLimiter struct {
	mu sync.Mutex
	m  map[string]*rate.Limiter
	r  rate.Limit
	b  int
}

func NewHostLimiter(reqPerSec float64, burst int) *HostLimiter {
	if burst < 1 {
		burst = 1
	}
	return &HostLimiter{
		m: make(map[string]*rate.Limiter),
		r: rate.Limit(reqPerSec),
		b: burst,
	}
}

func (hl *HostLimiter) limiterFor(host string) *rate.Limiter {
	hl.mu.Lock()
	defer hl.mu.Unlock()

	if lim, ok := hl.m[host]; ok {
		return lim
	}
	lim := rate.NewLimiter(hl.r, hl.b)
	hl.m[host] = lim
	return lim
}

// WaitURL blocks until a request to raw's host is allowed. Unparseable URLs
// share one bucket.
func (hl *HostLimiter) WaitURL(ctx context.Context, raw string) error {
	return hl.limiterFor(HostKey(raw)).Wait(ctx)
}

// HostKey returns the limiter key for raw: its host, or "_" when it has none.
func HostKey(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "_"
	}
	return u.Host
}

// Transport is an http.RoundTripper that waits on a HostLimiter before every
// request.
type Transport struct {
	Limiter *HostLimiter
	Base    http.RoundTripper
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.Limiter.limiterFor(req.URL.Host).Wait(req.Context()); err != nil {
		return nil, err
	}
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

// Client returns an http.Client whose requests are throttled by hl.
func (hl *HostLimiter) Client(base *http.Client) *http.Client {
	c := &http.Client{}
	if base != nil {
		*c = *base
	}
	c.Transport = &Transport{Limiter: hl, Base: c.Transport}
	return c
}
