package wizard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"resume-wizard/internal/generation"
	"resume-wizard/internal/resume"
	"resume-wizard/internal/sessions"
	"resume-wizard/internal/shared/metrics"
	"resume-wizard/internal/shared/server/middleware"
	"resume-wizard/internal/shared/server/respond"
)

const maxBodySize = 1 << 20

// Runner executes a prepared generation request.
type Runner interface {
	Run(ctx context.Context, req generation.Request) (resume.ScoredArtifact, error)
}

// Handler wires HTTP handlers to the wizard service.
type Handler struct {
	Svc       *Service
	Generator Runner
	// GenerateLimit throttles generation endpoints; nil disables it.
	GenerateLimit gin.HandlerFunc
	// StartLimit throttles session creation; nil disables it.
	StartLimit gin.HandlerFunc

	validate *validator.Validate
	inflight *inflightSet
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, generator Runner, generateLimit, startLimit gin.HandlerFunc) *Handler {
	return &Handler{
		Svc:           svc,
		Generator:     generator,
		GenerateLimit: generateLimit,
		StartLimit:    startLimit,
		validate:      validator.New(),
		inflight:      newInflightSet(),
	}
}

// RegisterRoutes attaches wizard routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	limit := orPassThrough(h.GenerateLimit)
	startLimit := orPassThrough(h.StartLimit)

	rg.GET("/load-data/:sessionId", h.loadData)
	rg.POST("/save-data", h.saveData)
	rg.POST("/generate-resume", limit, h.generateResume)

	rg.POST("/sessions", startLimit, h.start)
	rg.GET("/sessions/:id", h.get)
	rg.DELETE("/sessions/:id", h.end)
	rg.PUT("/sessions/:id/sections/:section", h.updateSection)
	rg.POST("/sessions/:id/advance", h.advance)
	rg.POST("/sessions/:id/retreat", h.retreat)
	rg.POST("/sessions/:id/reset", h.reset)
	rg.POST("/sessions/:id/submit", limit, h.submit)
}

func orPassThrough(h gin.HandlerFunc) gin.HandlerFunc {
	if h != nil {
		return h
	}
	return func(c *gin.Context) { c.Next() }
}

type saveDataRequest struct {
	SessionID string          `json:"sessionId" validate:"required,max=128"`
	Data      json.RawMessage `json:"data" validate:"required"`
}

type generateRequest struct {
	UserInput  json.RawMessage `json:"userInput" validate:"required"`
	TemplateID string          `json:"templateId" validate:"max=64"`
	SessionID  string          `json:"sessionId" validate:"max=128"`
}

type startRequest struct {
	SessionID string `json:"sessionId" validate:"max=128"`
}

func (h *Handler) loadData(c *gin.Context) {
	id := strings.TrimSpace(c.Param("sessionId"))
	middleware.SetSessionID(c, id)

	doc, err := h.Svc.Load(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, sessions.ErrInvalidSessionID) {
			respond.Error(c, http.StatusBadRequest, "validation_error", "sessionId is required", nil)
			return
		}
		respond.Error(c, http.StatusServiceUnavailable, "persistence_unavailable", "Failed to load data", nil)
		return
	}
	respond.OK(c, doc)
}

func (h *Handler) saveData(c *gin.Context) {
	var req saveDataRequest
	if !h.bind(c, &req) {
		return
	}
	middleware.SetSessionID(c, req.SessionID)

	doc, ok := decodeDocument(c, req.Data, "data")
	if !ok {
		return
	}
	if err := h.Svc.Save(c.Request.Context(), req.SessionID, doc); err != nil {
		if errors.Is(err, sessions.ErrInvalidSessionID) {
			respond.Error(c, http.StatusBadRequest, "validation_error", "sessionId is required", nil)
			return
		}
		respond.Failure(c, http.StatusServiceUnavailable, "persistence_unavailable", "Failed to save data")
		return
	}
	respond.OK(c, gin.H{"success": true})
}

func (h *Handler) generateResume(c *gin.Context) {
	var req generateRequest
	if !h.bind(c, &req) {
		return
	}
	key := strings.TrimSpace(req.SessionID)
	if key == "" {
		key = strings.TrimSpace(c.GetHeader(middleware.SessionHeader))
	}
	middleware.SetSessionID(c, key)

	doc, ok := decodeDocument(c, req.UserInput, "userInput")
	if !ok {
		return
	}

	if key != "" {
		if !h.inflight.acquire(key) {
			metrics.IncSubmitRejected()
			respond.Error(c, http.StatusConflict, "submit_in_flight", ErrSubmitInFlight.Error(), nil)
			return
		}
		defer h.inflight.release(key)
	}

	genReq := generation.NewRequest(doc).WithTemplate(req.TemplateID)
	artifact, err := h.Generator.Run(c.Request.Context(), genReq)
	if err != nil {
		writeGenerationError(c, err)
		return
	}
	respond.OK(c, artifact)
}

func (h *Handler) start(c *gin.Context) {
	var req startRequest
	if c.Request.ContentLength != 0 {
		if !h.bind(c, &req) {
			return
		}
	}
	view, created, err := h.Svc.Open(c.Request.Context(), req.SessionID)
	if err != nil {
		writeSessionError(c, err)
		return
	}
	middleware.SetSessionID(c, view.SessionID)
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respond.JSON(c, status, view)
}

func (h *Handler) get(c *gin.Context) {
	view, err := h.Svc.Get(c.Param("id"))
	if err != nil {
		writeSessionError(c, err)
		return
	}
	respond.OK(c, view)
}

func (h *Handler) end(c *gin.Context) {
	if err := h.Svc.End(c.Param("id")); err != nil {
		writeSessionError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) updateSection(c *gin.Context) {
	section, err := resume.ParseSection(c.Param("section"))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "unknown_section", err.Error(), nil)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodySize)
	var raw json.RawMessage
	if err := c.ShouldBindJSON(&raw); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	view, err := h.Svc.Update(c.Request.Context(), c.Param("id"), section, raw)
	if err != nil {
		writeSessionError(c, err)
		return
	}
	respond.OK(c, view)
}

func (h *Handler) advance(c *gin.Context) {
	h.transition(c, "advance", h.Svc.Advance)
}

func (h *Handler) retreat(c *gin.Context) {
	h.transition(c, "retreat", h.Svc.Retreat)
}

func (h *Handler) reset(c *gin.Context) {
	h.transition(c, "reset", h.Svc.Reset)
}

func (h *Handler) submit(c *gin.Context) {
	h.transition(c, "submit", h.Svc.Submit)
}

func (h *Handler) transition(c *gin.Context, name string, fn func(context.Context, string) (View, error)) {
	id := c.Param("id")
	before, err := h.Svc.Get(id)
	if err != nil {
		writeSessionError(c, err)
		return
	}

	view, err := fn(c.Request.Context(), id)
	if err != nil {
		writeSessionError(c, err)
		return
	}
	middleware.SetStepTransition(c, fmt.Sprintf("%s:%d->%d", name, before.Step, view.Step))
	respond.OK(c, view)
}

func (h *Handler) bind(c *gin.Context, dst any) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodySize)
	if err := c.ShouldBindJSON(dst); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", validationDetails(err))
		return false
	}
	return true
}

func decodeDocument(c *gin.Context, raw json.RawMessage, field string) (resume.Document, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		respond.Error(c, http.StatusBadRequest, "validation_error", field+" must be an object", nil)
		return resume.Document{}, false
	}
	var doc resume.Document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", field+" has an invalid shape", nil)
		return resume.Document{}, false
	}
	return doc, true
}

func validationDetails(err error) []map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]map[string]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, map[string]string{"field": fe.Field(), "rule": fe.Tag()})
	}
	return out
}

func writeGenerationError(c *gin.Context, err error) {
	var malformed *generation.MalformedError
	switch {
	case errors.As(err, &malformed):
		respond.Error(c, http.StatusBadGateway, "malformed_response", "Invalid JSON response from generator", malformed.Errors)
	case errors.Is(err, generation.ErrMalformedResponse):
		respond.Error(c, http.StatusBadGateway, "malformed_response", "Invalid JSON response from generator", nil)
	case errors.Is(err, generation.ErrGenerationUnavailable):
		respond.Error(c, http.StatusServiceUnavailable, "generation_unavailable", "Failed to generate resume", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "Failed to generate resume", nil)
	}
}

func writeSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		respond.Error(c, http.StatusNotFound, "session_not_found", err.Error(), nil)
	case errors.Is(err, ErrInvalidStep):
		respond.Error(c, http.StatusConflict, "invalid_step", err.Error(), nil)
	case errors.Is(err, ErrSubmitInFlight):
		respond.Error(c, http.StatusConflict, "submit_in_flight", err.Error(), nil)
	case errors.Is(err, ErrSubmitRequired):
		respond.Error(c, http.StatusConflict, "submit_required", err.Error(), nil)
	case errors.Is(err, ErrNotSubmitStep):
		respond.Error(c, http.StatusConflict, "not_submit_step", err.Error(), nil)
	case errors.Is(err, ErrSubmitSuperseded):
		respond.Error(c, http.StatusConflict, "submit_superseded", err.Error(), nil)
	case errors.Is(err, resume.ErrUnknownSection):
		respond.Error(c, http.StatusBadRequest, "unknown_section", err.Error(), nil)
	case errors.Is(err, resume.ErrInvalidSectionValue):
		respond.Error(c, http.StatusBadRequest, "invalid_section_value", err.Error(), nil)
	case errors.Is(err, generation.ErrMalformedResponse), errors.Is(err, generation.ErrGenerationUnavailable):
		writeGenerationError(c, err)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "internal error", nil)
	}
}
