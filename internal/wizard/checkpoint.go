package wizard

import (
	"context"
	"sync"
	"time"

	"resume-wizard/internal/resume"
	"resume-wizard/internal/sessions"
	"resume-wizard/internal/shared/metrics"
	"resume-wizard/internal/shared/telemetry"
)

const defaultSaveTimeout = 5 * time.Second

// Checkpointer saves session documents in the background. Saves for one
// session run one at a time and coalesce: while a save is running only the
// newest pending document is kept, so the stored value always ends at the
// latest checkpoint. Failures are logged and never reach the caller.
type Checkpointer struct {
	store   sessions.Store
	timeout time.Duration

	mu      sync.Mutex
	idle    *sync.Cond
	pending map[string]*pendingSave
	active  int
}

type pendingSave struct {
	doc     resume.Document
	queued  bool
	running bool
}

// NewCheckpointer builds a Checkpointer. A zero timeout uses the default.
func NewCheckpointer(store sessions.Store, timeout time.Duration) *Checkpointer {
	if timeout <= 0 {
		timeout = defaultSaveTimeout
	}
	c := &Checkpointer{
		store:   store,
		timeout: timeout,
		pending: make(map[string]*pendingSave),
	}
	c.idle = sync.NewCond(&c.mu)
	return c
}

// Checkpoint schedules a save of doc for id and returns immediately.
func (c *Checkpointer) Checkpoint(id string, doc resume.Document) {
	snap := doc.Clone()

	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pending[id]
	if !ok {
		p = &pendingSave{}
		c.pending[id] = p
	}
	p.doc = snap
	p.queued = true
	if p.running {
		return
	}
	p.running = true
	c.active++
	go c.drain(id, p)
}

// Wait blocks until every scheduled save has finished.
func (c *Checkpointer) Wait() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.active > 0 {
		c.idle.Wait()
	}
}

func (c *Checkpointer) drain(id string, p *pendingSave) {
	for {
		c.mu.Lock()
		if !p.queued {
			p.running = false
			delete(c.pending, id)
			c.active--
			if c.active == 0 {
				c.idle.Broadcast()
			}
			c.mu.Unlock()
			return
		}
		doc := p.doc
		p.queued = false
		c.mu.Unlock()

		c.save(id, doc)
	}
}

func (c *Checkpointer) save(id string, doc resume.Document) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	if err := c.store.Save(ctx, id, doc); err != nil {
		metrics.IncSessionSave("error")
		telemetry.Error("session.save_failed", map[string]any{
			"session_id": id,
			"error":      err,
		})
		return
	}
	metrics.IncSessionSave("ok")
}
