package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"

	"resume-wizard/internal/generation"
	"resume-wizard/internal/resume"
	"resume-wizard/internal/sessions"
)

// recordingStore wraps a MemoryStore, logs every save, and can be told to fail.
type recordingStore struct {
	inner *sessions.MemoryStore

	mu    sync.Mutex
	saves []resume.Document
	fail  bool
	// gate, when set, blocks each Save until a value is received.
	gate chan struct{}
}

func newRecordingStore() *recordingStore {
	return &recordingStore{inner: sessions.NewMemoryStore()}
}

func (s *recordingStore) setFail(fail bool) {
	s.mu.Lock()
	s.fail = fail
	s.mu.Unlock()
}

func (s *recordingStore) saved() []resume.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]resume.Document(nil), s.saves...)
}

func (s *recordingStore) Load(ctx context.Context, id string) (resume.Document, bool, error) {
	s.mu.Lock()
	fail := s.fail
	s.mu.Unlock()
	if fail {
		return resume.Document{}, false, sessions.ErrUnavailable
	}
	return s.inner.Load(ctx, id)
}

func (s *recordingStore) Save(ctx context.Context, id string, doc resume.Document) error {
	if s.gate != nil {
		<-s.gate
	}
	s.mu.Lock()
	fail := s.fail
	if !fail {
		s.saves = append(s.saves, doc.Clone())
	}
	s.mu.Unlock()
	if fail {
		return errors.New("disk full: " + sessions.ErrUnavailable.Error())
	}
	return s.inner.Save(ctx, id, doc)
}

// stubGenerator returns a fixed result and counts calls. When release is
// non-nil each call blocks until it is closed or receives a value.
type stubGenerator struct {
	calls    int32
	started  chan struct{}
	release  chan struct{}
	artifact resume.ScoredArtifact
	err      error
}

func (g *stubGenerator) Generate(ctx context.Context, doc resume.Document) (resume.ScoredArtifact, error) {
	atomic.AddInt32(&g.calls, 1)
	if g.started != nil {
		g.started <- struct{}{}
	}
	if g.release != nil {
		select {
		case <-g.release:
		case <-ctx.Done():
			return resume.ScoredArtifact{}, ctx.Err()
		}
	}
	return g.artifact, g.err
}

func (g *stubGenerator) Run(ctx context.Context, req generation.Request) (resume.ScoredArtifact, error) {
	return g.Generate(ctx, req.Document)
}

func (g *stubGenerator) callCount() int {
	return int(atomic.LoadInt32(&g.calls))
}

func scoredArtifact(score float64) resume.ScoredArtifact {
	return resume.ScoredArtifact{
		Content:  map[string]json.RawMessage{"summary": json.RawMessage(`"Builder of engines"`)},
		ATSScore: score,
	}
}
