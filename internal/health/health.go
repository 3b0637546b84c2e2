// Package health backs the /healthz and /readyz probes of the LifeOS API.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Status of one dependency.
type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
	StatusDown     Status = "down"
)

// SlowPing is the latency above which a reachable dependency is reported degraded.
const SlowPing = 500 * time.Millisecond

// DefaultTimeout bounds each check run by a Checker.
const DefaultTimeout = 5 * time.Second

// CheckFunc reports the status of one dependency.
type CheckFunc func(ctx context.Context) Status

// Pinger is anything that can report reachability, such as the SQLite store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck is down when p.Ping fails and degraded when it answers slower
// than SlowPing.
func PingCheck(name string, p Pinger, logger zerolog.Logger) CheckFunc {
	return func(ctx context.Context) Status {
		start := time.Now()
		if err := p.Ping(ctx); err != nil {
			logger.Warn().Err(err).Str("check", name).Msg("Health check failed")
			return StatusDown
		}
		if took := time.Since(start); took > SlowPing {
			logger.Warn().Str("check", name).Dur("took", took).Msg("Health check slow")
			return StatusDegraded
		}
		return StatusOK
	}
}

// Report is the readiness response body.
type Report struct {
	Status    string            `json:"status"`
	Checks    map[string]Status `json:"checks"`
	CheckedAt time.Time         `json:"checked_at"`
}

// Ready is false only when some check is down; degraded still serves traffic.
func (r Report) Ready() bool {
	for _, s := range r.Checks {
		if s == StatusDown {
			return false
		}
	}
	return true
}

// Checker runs the registered checks concurrently, each under Timeout.
type Checker struct {
	Timeout time.Duration

	mu     sync.RWMutex
	checks map[string]CheckFunc
	last   Report
	logger zerolog.Logger
}

// NewChecker creates a checker with no checks; it is ready until one is registered.
func NewChecker(logger zerolog.Logger) *Checker {
	return &Checker{
		Timeout: DefaultTimeout,
		checks:  make(map[string]CheckFunc),
		logger:  logger.With().Str("component", "health").Logger(),
	}
}

// Register adds or replaces the check called name.
func (c *Checker) Register(name string, fn CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = fn
}

// Run executes every check and remembers the report.
func (c *Checker) Run(ctx context.Context) Report {
	c.mu.RLock()
	checks := make(map[string]CheckFunc, len(c.checks))
	for k, v := range c.checks {
		checks[k] = v
	}
	timeout := c.Timeout
	c.mu.RUnlock()

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	rep := Report{Checks: make(map[string]Status, len(checks)), CheckedAt: time.Now().UTC()}
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for name, fn := range checks {
		name, fn := name, fn
		wg.Add(1)
		go func() {
			defer wg.Done()
			checkCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			s := fn(checkCtx)
			mu.Lock()
			rep.Checks[name] = s
			mu.Unlock()
		}()
	}
	wg.Wait()

	rep.Status = "ready"
	if !rep.Ready() {
		rep.Status = "not_ready"
	}

	c.mu.Lock()
	c.last = rep
	c.mu.Unlock()
	return rep
}

// Last returns the statuses of the most recent Run.
func (c *Checker) Last() map[string]Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]Status, len(c.last.Checks))
	for k, v := range c.last.Checks {
		out[k] = v
	}
	return out
}

// IsReady runs the checks and reports whether none is down.
func (c *Checker) IsReady(ctx context.Context) bool {
	return c.Run(ctx).Ready()
}

// LivenessHandler answers 200 as long as the process serves HTTP.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// ReadinessHandler answers 200 with a Report, or 503 when a check is down.
func (c *Checker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep := c.Run(r.Context())
		code := http.StatusOK
		if !rep.Ready() {
			for name, s := range rep.Checks {
				if s == StatusDown {
					c.logger.Debug().Str("check", name).Msg("Not ready")
				}
			}
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, rep)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
