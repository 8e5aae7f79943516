package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"resume-wizard/internal/resume"
	"resume-wizard/internal/sessions"
	"resume-wizard/internal/shared/metrics"
	"resume-wizard/internal/shared/telemetry"
)

// Generator produces a scored artifact from a document.
type Generator interface {
	Generate(ctx context.Context, doc resume.Document) (resume.ScoredArtifact, error)
}

// Options tunes a Service.
type Options struct {
	SaveTimeout time.Duration
	LoadTimeout time.Duration
	Now         func() time.Time

	// IdleTTL is how long an untouched session stays in memory. Zero keeps
	// sessions until End.
	IdleTTL time.Duration
}

// Service owns the active wizard sessions of the process.
type Service struct {
	store       sessions.Store
	generator   Generator
	checkpoints *Checkpointer
	seq         Sequencer
	loadTimeout time.Duration
	idleTTL     time.Duration
	now         func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewService constructs a Service.
func NewService(store sessions.Store, generator Generator, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = defaultSaveTimeout
	}
	return &Service{
		store:       store,
		generator:   generator,
		checkpoints: NewCheckpointer(store, opts.SaveTimeout),
		loadTimeout: opts.LoadTimeout,
		idleTTL:     opts.IdleTTL,
		now:         opts.Now,
		sessions:    make(map[string]*Session),
	}
}

// Checkpoints exposes the background saver, mainly so shutdown can drain it.
func (s *Service) Checkpoints() *Checkpointer { return s.checkpoints }

// Start resumes an active session or begins one from the stored document.
// A blank id gets a fresh uuid. A store failure starts from the empty document.
func (s *Service) Start(ctx context.Context, id string) (View, error) {
	v, _, err := s.Open(ctx, id)
	return v, err
}

// Open is Start that also reports whether a new active session was created.
// It is false when an already active session was resumed.
func (s *Service) Open(ctx context.Context, id string) (View, bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		id = uuid.NewString()
	}

	if sess, ok := s.lookup(id); ok {
		return s.snapshot(sess), false, nil
	}

	doc := s.loadOrEmpty(ctx, id)

	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		sess = newSession(id, doc, s.now())
		s.sessions[id] = sess
	}
	count := len(s.sessions)
	s.mu.Unlock()

	metrics.SetActiveSessions(count)
	if !ok {
		telemetry.Info("session.started", map[string]any{"session_id": id})
	}
	return s.snapshot(sess), !ok, nil
}

func (s *Service) loadOrEmpty(ctx context.Context, id string) resume.Document {
	ctx, cancel := context.WithTimeout(ctx, s.loadTimeout)
	defer cancel()

	doc, found, err := s.store.Load(ctx, id)
	if err != nil {
		telemetry.Warn("session.load_failed", map[string]any{
			"session_id": id,
			"error":      err,
		})
		return resume.Empty()
	}
	if !found {
		return resume.Empty()
	}
	return doc
}

// Get returns a snapshot of an active session.
func (s *Service) Get(id string) (View, error) {
	sess, ok := s.lookup(id)
	if !ok {
		return View{}, ErrSessionNotFound
	}
	return s.snapshot(sess), nil
}

// Update replaces one section and checkpoints the new document.
func (s *Service) Update(_ context.Context, id string, section resume.Section, raw json.RawMessage) (View, error) {
	sess, ok := s.lookup(id)
	if !ok {
		return View{}, ErrSessionNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	doc, err := sess.doc.Update(section, raw)
	if err != nil {
		return sess.view(), err
	}
	sess.doc = doc
	sess.updatedAt = s.now()
	s.checkpoints.Checkpoint(sess.id, doc)
	return sess.view(), nil
}

// Advance checkpoints the document and moves forward. Preview is only
// reachable through Submit.
func (s *Service) Advance(_ context.Context, id string) (View, error) {
	sess, ok := s.lookup(id)
	if !ok {
		return View{}, ErrSessionNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.inFlight {
		return sess.view(), ErrSubmitInFlight
	}
	if s.seq.IsSubmitStep(sess.step) {
		return sess.view(), ErrSubmitRequired
	}
	next, err := s.seq.Advance(sess.step)
	if err != nil {
		return sess.view(), err
	}
	s.checkpoints.Checkpoint(sess.id, sess.doc)
	sess.step = next
	sess.updatedAt = s.now()
	return sess.view(), nil
}

// Retreat moves back one step without persisting. Like Advance it is
// rejected while a submission is outstanding.
func (s *Service) Retreat(_ context.Context, id string) (View, error) {
	sess, ok := s.lookup(id)
	if !ok {
		return View{}, ErrSessionNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.inFlight {
		return sess.view(), ErrSubmitInFlight
	}
	prev, err := s.seq.Retreat(sess.step)
	if err != nil {
		return sess.view(), err
	}
	sess.step = prev
	sess.updatedAt = s.now()
	return sess.view(), nil
}

// Reset returns the session to step 0 with the canonical empty document and
// no artifact. An outstanding generation finishes but its result is dropped.
func (s *Service) Reset(_ context.Context, id string) (View, error) {
	sess, ok := s.lookup(id)
	if !ok {
		return View{}, ErrSessionNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.step = s.seq.Reset()
	sess.doc = resume.Empty()
	sess.artifact = nil
	sess.status = StatusEditing
	sess.lastError = ""
	sess.epoch++
	sess.updatedAt = s.now()
	s.checkpoints.Checkpoint(sess.id, sess.doc)
	return sess.view(), nil
}

// Submit generates an artifact from the template step. At most one
// submission per session is outstanding; a second one is rejected, never
// queued. On success the session moves to preview; on failure it stays on
// the template step with the error recorded.
func (s *Service) Submit(ctx context.Context, id string) (View, error) {
	sess, ok := s.lookup(id)
	if !ok {
		return View{}, ErrSessionNotFound
	}

	sess.mu.Lock()
	if !s.seq.IsSubmitStep(sess.step) {
		v := sess.view()
		sess.mu.Unlock()
		return v, ErrNotSubmitStep
	}
	if sess.inFlight {
		v := sess.view()
		sess.mu.Unlock()
		metrics.IncSubmitRejected()
		return v, ErrSubmitInFlight
	}
	sess.inFlight = true
	sess.status = StatusGenerating
	sess.lastError = ""
	epoch := sess.epoch
	doc := sess.doc.Clone()
	sess.mu.Unlock()

	telemetry.Info("session.submit", map[string]any{"session_id": id, "template_id": doc.TemplateID()})
	artifact, genErr := s.generator.Generate(ctx, doc)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.inFlight = false
	if sess.epoch != epoch || !s.seq.IsSubmitStep(sess.step) {
		if sess.status == StatusGenerating {
			sess.status = StatusEditing
		}
		telemetry.Info("session.submit_discarded", map[string]any{"session_id": id, "step": int(sess.step)})
		return sess.view(), ErrSubmitSuperseded
	}
	sess.updatedAt = s.now()
	if genErr != nil {
		sess.status = StatusFailed
		sess.lastError = genErr.Error()
		return sess.view(), genErr
	}

	next, err := s.seq.Advance(sess.step)
	if err != nil {
		return sess.view(), err
	}
	sess.artifact = &artifact
	sess.status = StatusReady
	sess.step = next
	s.checkpoints.Checkpoint(sess.id, sess.doc)
	return sess.view(), nil
}

// End forgets an active session. The stored document is kept.
func (s *Service) End(id string) error {
	id = strings.TrimSpace(id)
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	count := len(s.sessions)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	metrics.SetActiveSessions(count)
	telemetry.Info("session.ended", map[string]any{"session_id": id})
	return nil
}

// EvictIdle ends every session untouched for longer than the idle TTL and
// returns how many were removed. Sessions with a submission outstanding are
// kept. Stored documents are not affected; a later Start resumes from them.
func (s *Service) EvictIdle() int {
	if s.idleTTL <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.idleTTL)

	s.mu.Lock()
	var evicted []string
	for id, sess := range s.sessions {
		sess.mu.Lock()
		idle := !sess.inFlight && sess.updatedAt.Before(cutoff)
		sess.mu.Unlock()
		if idle {
			delete(s.sessions, id)
			evicted = append(evicted, id)
		}
	}
	count := len(s.sessions)
	s.mu.Unlock()

	if len(evicted) > 0 {
		metrics.SetActiveSessions(count)
		telemetry.Info("session.evicted", map[string]any{"count": len(evicted), "active": count})
	}
	return len(evicted)
}

// RunJanitor calls EvictIdle every interval until ctx is done.
func (s *Service) RunJanitor(ctx context.Context, interval time.Duration) {
	if s.idleTTL <= 0 {
		return
	}
	if interval <= 0 {
		interval = min(s.idleTTL/2, 5*time.Minute)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.EvictIdle()
		}
	}
}

// Load reads a stored document directly, bypassing active sessions.
func (s *Service) Load(ctx context.Context, id string) (resume.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, s.loadTimeout)
	defer cancel()
	doc, found, err := s.store.Load(ctx, id)
	if err != nil {
		return resume.Document{}, err
	}
	if !found {
		return resume.Empty(), nil
	}
	return doc, nil
}

// Save writes a document synchronously. An active session with the same id
// adopts the document so later checkpoints do not overwrite it.
func (s *Service) Save(ctx context.Context, id string, doc resume.Document) error {
	ctx, cancel := context.WithTimeout(ctx, s.checkpoints.timeout)
	defer cancel()
	if err := s.store.Save(ctx, id, doc); err != nil {
		metrics.IncSessionSave("error")
		if !errors.Is(err, sessions.ErrInvalidSessionID) {
			telemetry.Error("session.save_failed", map[string]any{"session_id": id, "error": err})
		}
		return err
	}
	metrics.IncSessionSave("ok")

	if sess, ok := s.lookup(id); ok {
		sess.mu.Lock()
		sess.doc = doc.Clone()
		sess.updatedAt = s.now()
		s.checkpoints.Checkpoint(sess.id, sess.doc)
		sess.mu.Unlock()
	}
	return nil
}

func (s *Service) lookup(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[strings.TrimSpace(id)]
	return sess, ok
}

func (s *Service) snapshot(sess *Session) View {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.view()
}
