package generation

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"resume-wizard/internal/llm"
	"resume-wizard/internal/resume"
)

type countingClient struct {
	calls int32
	body  string
	err   error
	last  []llm.Message
}

func (c *countingClient) Complete(_ context.Context, messages []llm.Message) (string, error) {
	atomic.AddInt32(&c.calls, 1)
	c.last = messages
	return c.body, c.err
}

func sampleDocument() resume.Document {
	doc := resume.Empty()
	doc.Personal = map[string]any{"name": "Ada"}
	doc.Skills = []any{"go"}
	doc.Template = "modern"
	return doc
}

func TestGeneratePreservesScore(t *testing.T) {
	client := &countingClient{body: `{"summary":"Engine builder","atsScore":87}`}
	o := NewOrchestrator(client)

	artifact, err := o.Generate(context.Background(), sampleDocument())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if artifact.ATSScore != 87 {
		t.Fatalf("ATSScore = %v, want 87", artifact.ATSScore)
	}
	if string(artifact.Content["summary"]) != `"Engine builder"` {
		t.Fatalf("summary = %s", artifact.Content["summary"])
	}
	if client.calls != 1 {
		t.Fatalf("expected exactly one generator call, got %d", client.calls)
	}
}

func TestGenerateMalformedYieldsNoArtifact(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "Here is your resume!"},
		{name: "fenced json", body: "```json\n{\"atsScore\":80}\n```"},
		{name: "array", body: `[{"atsScore":80}]`},
		{name: "missing score", body: `{"summary":"x"}`},
		{name: "string score", body: `{"atsScore":"80"}`},
		{name: "score above range", body: `{"atsScore":101}`},
		{name: "score below range", body: `{"atsScore":-1}`},
		{name: "empty", body: "   "},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			client := &countingClient{body: tt.body}
			artifact, err := NewOrchestrator(client).Generate(context.Background(), sampleDocument())
			if !errors.Is(err, ErrMalformedResponse) {
				t.Fatalf("expected ErrMalformedResponse, got %v", err)
			}
			if diff := cmp.Diff(resume.ScoredArtifact{}, artifact); diff != "" {
				t.Fatalf("expected zero artifact (-want +got):\n%s", diff)
			}
			if client.calls != 1 {
				t.Fatalf("expected one call without retry, got %d", client.calls)
			}
		})
	}
}

func TestGenerateMalformedCarriesFieldDetails(t *testing.T) {
	client := &countingClient{body: `{"atsScore":150}`}
	_, err := NewOrchestrator(client).Generate(context.Background(), sampleDocument())

	var malformed *MalformedError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected *MalformedError, got %T", err)
	}
	if len(malformed.Errors) == 0 || malformed.Errors[0].Field != "atsScore" {
		t.Fatalf("unexpected details %+v", malformed.Errors)
	}
}

func TestGenerateClientFailureIsUnavailable(t *testing.T) {
	client := &countingClient{err: errors.New("connection reset")}
	_, err := NewOrchestrator(client).Generate(context.Background(), sampleDocument())
	if !errors.Is(err, ErrGenerationUnavailable) {
		t.Fatalf("expected ErrGenerationUnavailable, got %v", err)
	}
	if client.calls != 1 {
		t.Fatalf("expected one call, got %d", client.calls)
	}
}

func TestGenerateUnconfiguredClientIsUnavailable(t *testing.T) {
	_, err := NewOrchestrator(nil).Generate(context.Background(), sampleDocument())
	if !errors.Is(err, ErrGenerationUnavailable) {
		t.Fatalf("expected ErrGenerationUnavailable, got %v", err)
	}
}

func TestGenerateDoesNotMutateDocument(t *testing.T) {
	doc := sampleDocument()
	before := doc.Clone()

	client := &countingClient{body: `{"atsScore":50}`}
	if _, err := NewOrchestrator(client).Generate(context.Background(), doc); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if diff := cmp.Diff(before, doc); diff != "" {
		t.Fatalf("document mutated (-before +after):\n%s", diff)
	}
}

func TestBuildPromptCarriesDocumentAndTemplate(t *testing.T) {
	req := NewRequest(sampleDocument()).WithTemplate(" classic ")
	messages, err := BuildPrompt(req)
	if err != nil {
		t.Fatalf("BuildPrompt: %v", err)
	}
	if len(messages) != 2 || messages[0].Role != llm.RoleSystem || messages[0].Content != "You are a resume generator." {
		t.Fatalf("unexpected system message %+v", messages)
	}
	user := messages[1].Content
	if !strings.Contains(user, "Use template: classic") {
		t.Fatalf("template missing from prompt: %s", user)
	}
	encoded, _ := json.Marshal(req.Document)
	if !strings.Contains(user, string(encoded)) {
		t.Fatalf("document missing from prompt")
	}
}

func TestNewRequestSnapshotIsIndependent(t *testing.T) {
	doc := sampleDocument()
	req := NewRequest(doc)
	doc.Personal["name"] = "changed"
	doc.Template = "other"

	if req.Document.Personal["name"] != "Ada" {
		t.Fatalf("snapshot aliased the document")
	}
	if req.TemplateID != "modern" {
		t.Fatalf("TemplateID = %q", req.TemplateID)
	}
	if got := NewRequest(resume.Document{}).TemplateID; got != resume.DefaultTemplate {
		t.Fatalf("default template = %q", got)
	}
	if got := req.WithTemplate("  ").TemplateID; got != "modern" {
		t.Fatalf("blank override changed template to %q", got)
	}
}
