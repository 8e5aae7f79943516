package health

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Check tests one dependency. A nil error means healthy.
type Check func(ctx context.Context) error

// Service runs the registered dependency checks.
type Service struct {
	timeout time.Duration

	mu     sync.RWMutex
	checks map[string]Check
}

// Status is the health payload.
type Status struct {
	OK     bool              `json:"ok"`
	Checks map[string]string `json:"checks,omitempty"`
}

// NewService constructs a health service. Each check gets timeout to answer.
func NewService(timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Service{timeout: timeout, checks: make(map[string]Check)}
}

// Register adds or replaces a named check.
func (s *Service) Register(name string, check Check) {
	if check == nil {
		return
	}
	s.mu.Lock()
	s.checks[name] = check
	s.mu.Unlock()
}

// Status runs every check concurrently and reports "ok" or the error text per check.
func (s *Service) Status(ctx context.Context) Status {
	s.mu.RLock()
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	checks := make([]Check, len(names))
	for i, name := range names {
		checks[i] = s.checks[name]
	}
	s.mu.RUnlock()

	results := make([]string, len(names))
	var wg sync.WaitGroup
	for i := range names {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			if err := checks[i](cctx); err != nil {
				results[i] = err.Error()
				return
			}
			results[i] = "ok"
		}(i)
	}
	wg.Wait()

	out := Status{OK: true}
	if len(names) > 0 {
		out.Checks = make(map[string]string, len(names))
	}
	for i, name := range names {
		out.Checks[name] = results[i]
		if results[i] != "ok" {
			out.OK = false
		}
	}
	return out
}
