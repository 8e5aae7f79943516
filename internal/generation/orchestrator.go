package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"resume-wizard/internal/llm"
	"resume-wizard/internal/resume"
	"resume-wizard/internal/shared/metrics"
	"resume-wizard/internal/shared/telemetry"
)

// Orchestrator turns a document into a scored artifact with one generator call.
// It has no side effects on the document or on persistence.
type Orchestrator struct {
	Client llm.Client
	Now    func() time.Time
}

// NewOrchestrator constructs an Orchestrator. A nil client behaves as unconfigured.
func NewOrchestrator(client llm.Client) *Orchestrator {
	if client == nil {
		client = llm.PlaceholderClient{}
	}
	return &Orchestrator{Client: client, Now: time.Now}
}

// Generate snapshots doc and runs a generation for it.
func (o *Orchestrator) Generate(ctx context.Context, doc resume.Document) (resume.ScoredArtifact, error) {
	return o.Run(ctx, NewRequest(doc))
}

// Run performs exactly one generator call for req. Failures are either
// ErrGenerationUnavailable or ErrMalformedResponse; there are no retries.
func (o *Orchestrator) Run(ctx context.Context, req Request) (resume.ScoredArtifact, error) {
	now := o.now
	start := now()
	metrics.IncGenerationStarted()
	defer func() {
		metrics.ObserveGenerationDurationMs(float64(now().Sub(start).Milliseconds()))
	}()

	messages, err := BuildPrompt(req)
	if err != nil {
		metrics.IncGenerationFailed("prompt")
		return resume.ScoredArtifact{}, fmt.Errorf("%w: %v", ErrGenerationUnavailable, err)
	}

	body, err := o.Client.Complete(ctx, messages)
	if err != nil {
		metrics.IncGenerationFailed("unavailable")
		telemetry.Error("generation.unavailable", map[string]any{
			"template_id": req.TemplateID,
			"error":       err,
		})
		return resume.ScoredArtifact{}, fmt.Errorf("%w: %v", ErrGenerationUnavailable, err)
	}

	artifact, err := ParseArtifact(body)
	if err != nil {
		metrics.IncGenerationFailed("malformed")
		fields := map[string]any{
			"template_id":   req.TemplateID,
			"response_size": len(body),
			"error":         err,
		}
		var malformed *MalformedError
		if errors.As(err, &malformed) {
			fields["violations"] = len(malformed.Errors)
		}
		telemetry.Warn("generation.malformed", fields)
		return resume.ScoredArtifact{}, err
	}

	metrics.IncGenerationCompleted()
	telemetry.Info("generation.completed", map[string]any{
		"template_id": req.TemplateID,
		"ats_score":   artifact.ATSScore,
		"duration_ms": now().Sub(start).Milliseconds(),
	})
	return artifact, nil
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}
