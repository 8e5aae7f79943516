package bootstrap_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"resume-wizard/internal/bootstrap"
	"resume-wizard/internal/sessions"
	"resume-wizard/internal/shared/config"
)

func post(router http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func get(router http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestBuildWiresWizardRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		Port:            "0",
		CORSAllowOrigin: []string{"http://localhost:3000"},
		Env:             "dev",
		SessionStore:    "memory",
		LLMProvider:     "none",
	}
	app, err := bootstrap.Build(cfg)
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	t.Cleanup(app.Shutdown)
	router := app.Router

	rec := post(router, "/api/save-data", `{"sessionId":"abc","data":{"personal":{"name":"Ada"}}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("save-data status = %d body=%s", rec.Code, rec.Body.String())
	}

	rec = get(router, "/api/load-data/abc")
	if rec.Code != http.StatusOK {
		t.Fatalf("load-data status = %d", rec.Code)
	}
	var doc map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc["personal"].(map[string]any)["name"] != "Ada" {
		t.Fatalf("unexpected document %v", doc)
	}
	if doc["template"] != "professional" {
		t.Fatalf("template = %v", doc["template"])
	}

	// No provider configured: every generation is unavailable.
	rec = post(router, "/api/generate-resume", `{"userInput":{},"templateId":"modern"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("generate status = %d body=%s", rec.Code, rec.Body.String())
	}

	if get(router, "/api/health").Code != http.StatusOK {
		t.Fatalf("health not wired")
	}
}

func TestBuildWithSQLiteStore(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		Env:          "dev",
		SessionStore: "sqlite",
		SQLitePath:   filepath.Join(t.TempDir(), "resumeBuilder.db"),
		LLMProvider:  "none",
	}
	app, err := bootstrap.Build(cfg)
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	t.Cleanup(app.Shutdown)

	if _, ok := app.SessionStore.(*sessions.SQLiteStore); !ok {
		t.Fatalf("expected SQLiteStore, got %T", app.SessionStore)
	}

	rec := post(app.Router, "/api/sessions", `{"sessionId":"cli"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("start status = %d", rec.Code)
	}
	req := httptest.NewRequest(http.MethodPut, "/api/sessions/cli/sections/skills", bytes.NewBufferString(`["go"]`))
	req.Header.Set("Content-Type", "application/json")
	out := httptest.NewRecorder()
	app.Router.ServeHTTP(out, req)
	if out.Code != http.StatusOK {
		t.Fatalf("update status = %d", out.Code)
	}
	app.WizardService.Checkpoints().Wait()

	doc, found, err := app.SessionStore.Load(t.Context(), "cli")
	if err != nil || !found {
		t.Fatalf("Load = %v, %v", found, err)
	}
	if len(doc.Skills) != 1 || doc.Skills[0] != "go" {
		t.Fatalf("skills = %v", doc.Skills)
	}
}

func TestBuildPostgresWithoutURLFails(t *testing.T) {
	_, err := bootstrap.Build(config.Config{Env: "production", SessionStore: "postgres", LLMProvider: "none"})
	if err == nil {
		t.Fatalf("expected error when DATABASE_URL is missing")
	}
}
