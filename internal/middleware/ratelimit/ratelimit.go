// Package ratelimit limits requests per session with fixed-window
// counters kept in a bounded LRU store.
package ratelimit

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"fintrack/internal/cache"
)

// Window is the request count of one key in the current interval.
type Window struct {
	start    time.Time
	requests int
}

// Limiter allows up to RequestsPerWindow requests per key in each window.
// Keys beyond the store's capacity evict the least recently seen ones.
type Limiter struct {
	windows  *cache.LRUCache[Window]
	limit    int
	interval time.Duration
	now      func() time.Time
	rejected atomic.Int64
}

type Config struct {
	RequestsPerWindow int
	Window            time.Duration
	MaxKeys           int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		RequestsPerWindow: 60,
		Window:            time.Minute,
		MaxKeys:           10000,
	}
}

// NewStore builds the bounded window store a Limiter runs on; its TTL equals
// the window so idle keys expire on their own.
func NewStore(config Config) *cache.LRUCache[Window] {
	config = withDefaults(config)
	return cache.NewLRUCache[Window](config.MaxKeys, config.Window)
}

// NewLimiter creates a limiter over store. Register the store with a
// cache.Manager to sweep expired windows.
func NewLimiter(config Config, store *cache.LRUCache[Window]) *Limiter {
	config = withDefaults(config)
	if store == nil {
		store = NewStore(config)
	}
	return &Limiter{
		windows:  store,
		limit:    config.RequestsPerWindow,
		interval: config.Window,
		now:      time.Now,
	}
}

func withDefaults(config Config) Config {
	def := DefaultConfig()
	if config.RequestsPerWindow <= 0 {
		config.RequestsPerWindow = def.RequestsPerWindow
	}
	if config.Window <= 0 {
		config.Window = def.Window
	}
	if config.MaxKeys <= 0 {
		config.MaxKeys = def.MaxKeys
	}
	return config
}

// WithClock replaces the clock used to open windows.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// Allow counts a request for key and reports whether it is within the limit.
func (l *Limiter) Allow(key string) bool {
	now := l.now()
	w := l.windows.Update(key, func(w Window, found bool) Window {
		if !found || now.Sub(w.start) >= l.interval {
			return Window{start: now, requests: 1}
		}
		w.requests++
		return w
	})
	if w.requests > l.limit {
		l.rejected.Add(1)
		return false
	}
	return true
}

// ActiveKeys returns the number of tracked keys.
func (l *Limiter) ActiveKeys() int {
	return l.windows.Size()
}

type Metrics struct {
	Rejected   int64
	ActiveKeys int
}

func (l *Limiter) GetMetrics() Metrics {
	return Metrics{
		Rejected:   l.rejected.Load(),
		ActiveKeys: l.ActiveKeys(),
	}
}

// Middleware rejects requests over the limit. Requests whose key is empty
// pass through untouched.
func (l *Limiter) Middleware(extractKey func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := extractKey(r)
			if key != "" && !l.Allow(key) {
				w.Header().Set("Retry-After", strconv.Itoa(int(l.interval.Seconds())))
				if onLimit != nil {
					onLimit(w, r)
				} else {
					http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
