package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/brandforge-ai/brandforge/internal/api"
	"github.com/brandforge-ai/brandforge/internal/domain"
	"github.com/brandforge-ai/brandforge/internal/service"
	"github.com/go-chi/chi/v5"
)

type GenerationEnqueuer interface {
	EnqueueGeneration(ctx context.Context, input service.EnqueueGenerationInput) (*service.EnqueueGenerationResult, error)
}

type ContentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Content, error)
}

type RequestReader interface {
	GetByID(ctx context.Context, id string) (*domain.ContentRequest, error)
}

type VersionReader interface {
	GetVersion(ctx context.Context, contentID string, version int64) (*domain.ContentVersion, error)
	ListVersions(ctx context.Context, contentID string) ([]*domain.ContentVersion, error)
}

type ContentHandler struct {
	generation GenerationEnqueuer
	contents   ContentReader
	requests   RequestReader
	versions   VersionReader
}

func NewContentHandler(generation GenerationEnqueuer, contents ContentReader, requests RequestReader, versions VersionReader) *ContentHandler {
	return &ContentHandler{
		generation: generation,
		contents:   contents,
		requests:   requests,
		versions:   versions,
	}
}

type CreateContentRequest struct {
	AgentID     string `json:"agent_id"`
	Description string `json:"description"`
}

type EnqueueResponse struct {
	RequestID string `json:"request_id"`
	ContentID string `json:"content_id"`
	JobID     string `json:"job_id"`
}

type ContentResponse struct {
	ID             string              `json:"id"`
	AgentID        string              `json:"agent_id"`
	RequestID      string              `json:"request_id"`
	Status         string              `json:"status"`
	Body           string              `json:"body"`
	Meta           domain.ContentMeta  `json:"meta"`
	Stats          domain.ContentStats `json:"stats"`
	CurrentVersion int64               `json:"current_version"`
	CreatedAt      string              `json:"created_at"`
	UpdatedAt      string              `json:"updated_at"`
}

type VersionResponse struct {
	ID            string             `json:"id"`
	ContentID     string             `json:"content_id"`
	Version       int64              `json:"version"`
	Body          string             `json:"body"`
	Meta          domain.ContentMeta `json:"meta"`
	Diff          string             `json:"diff"`
	LineDiff      string             `json:"line_diff"`
	ChangedFields []string           `json:"changed_fields"`
	UserID        string             `json:"user_id"`
	CreatedAt     string             `json:"created_at"`
}

type RequestStatusResponse struct {
	ID          string `json:"id"`
	AgentID     string `json:"agent_id"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func contentToResponse(c *domain.Content) *ContentResponse {
	return &ContentResponse{
		ID:             c.ID,
		AgentID:        c.AgentID,
		RequestID:      c.RequestID,
		Status:         string(c.Status),
		Body:           c.Body,
		Meta:           c.Meta,
		Stats:          c.Stats,
		CurrentVersion: c.CurrentVersion,
		CreatedAt:      c.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:      c.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func versionToResponse(v *domain.ContentVersion) *VersionResponse {
	return &VersionResponse{
		ID:            v.ID,
		ContentID:     v.ContentID,
		Version:       v.Version,
		Body:          v.Body,
		Meta:          v.Meta,
		Diff:          v.Diff,
		LineDiff:      v.LineDiff,
		ChangedFields: v.ChangedFields,
		UserID:        v.UserID,
		CreatedAt:     v.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func requestToResponse(req *domain.ContentRequest) *RequestStatusResponse {
	return &RequestStatusResponse{
		ID:          req.ID,
		AgentID:     req.AgentID,
		Description: req.Description,
		Status:      string(req.Status),
		Error:       req.Error,
		CreatedAt:   req.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:   req.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func (h *ContentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.AgentID == "" {
		api.Error(w, http.StatusBadRequest, "agent_id is required")
		return
	}

	result, err := h.generation.EnqueueGeneration(r.Context(), service.EnqueueGenerationInput{
		AgentID:     req.AgentID,
		Description: req.Description,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusAccepted, &EnqueueResponse{
		RequestID: result.RequestID,
		ContentID: result.ContentID,
		JobID:     result.JobID,
	})
}

func (h *ContentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	content, err := h.contents.GetByID(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, contentToResponse(content))
}

func (h *ContentHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	versions, err := h.versions.ListVersions(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := make([]*VersionResponse, 0, len(versions))
	for _, v := range versions {
		resp = append(resp, versionToResponse(v))
	}

	api.Success(w, http.StatusOK, resp)
}

func (h *ContentHandler) GetVersion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	version, err := strconv.ParseInt(chi.URLParam(r, "version"), 10, 64)
	if err != nil || version < 1 {
		api.Error(w, http.StatusBadRequest, "invalid version number")
		return
	}

	v, err := h.versions.GetVersion(r.Context(), id, version)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, versionToResponse(v))
}

func (h *ContentHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	request, err := h.requests.GetByID(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, requestToResponse(request))
}
