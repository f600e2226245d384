package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/brandforge-ai/brandforge/internal/api"
	"github.com/brandforge-ai/brandforge/internal/domain"
	"github.com/brandforge-ai/brandforge/internal/service"
	"github.com/go-chi/chi/v5"
)

type BrandKnowledgeService interface {
	EnqueueAutoBrandKnowledge(ctx context.Context, input service.BrandKnowledgeJobPayload) (string, error)
	ResetKnowledge(ctx context.Context, agentID string) (int64, error)
}

type JobReader interface {
	GetByID(ctx context.Context, id string) (*domain.PipelineJob, error)
}

type BrandHandler struct {
	svc  BrandKnowledgeService
	jobs JobReader
}

func NewBrandHandler(svc BrandKnowledgeService, jobs JobReader) *BrandHandler {
	return &BrandHandler{svc: svc, jobs: jobs}
}

type BuildBrandKnowledgeRequest struct {
	WebsiteURL string `json:"website_url"`
	UserID     string `json:"user_id"`
}

type BuildBrandKnowledgeResponse struct {
	JobID string `json:"job_id"`
}

type ResetKnowledgeResponse struct {
	Deleted int64 `json:"deleted"`
}

type JobResponse struct {
	ID          string `json:"id"`
	Queue       string `json:"queue"`
	ParentID    string `json:"parent_id,omitempty"`
	Status      string `json:"status"`
	Attempts    int    `json:"attempts"`
	MaxAttempts int    `json:"max_attempts"`
	LastError   string `json:"last_error,omitempty"`
	AvailableAt string `json:"available_at"`
	CreatedAt   string `json:"created_at"`
	ProcessedAt string `json:"processed_at,omitempty"`
}

func jobToResponse(j *domain.PipelineJob) *JobResponse {
	resp := &JobResponse{
		ID:          j.ID,
		Queue:       j.Queue,
		ParentID:    j.ParentID,
		Status:      string(j.Status),
		Attempts:    j.Attempts,
		MaxAttempts: j.MaxAttempts,
		LastError:   j.LastError,
		AvailableAt: j.AvailableAt.Format("2006-01-02T15:04:05Z"),
		CreatedAt:   j.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if j.ProcessedAt != nil {
		resp.ProcessedAt = j.ProcessedAt.Format("2006-01-02T15:04:05Z")
	}
	return resp
}

func (h *BrandHandler) Build(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "id")
	if agentID == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	var req BuildBrandKnowledgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.WebsiteURL == "" {
		api.Error(w, http.StatusBadRequest, "website_url is required")
		return
	}

	jobID, err := h.svc.EnqueueAutoBrandKnowledge(r.Context(), service.BrandKnowledgeJobPayload{
		AgentID:    agentID,
		UserID:     req.UserID,
		WebsiteURL: req.WebsiteURL,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusAccepted, &BuildBrandKnowledgeResponse{JobID: jobID})
}

func (h *BrandHandler) ResetKnowledge(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "id")
	if agentID == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	deleted, err := h.svc.ResetKnowledge(r.Context(), agentID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, &ResetKnowledgeResponse{Deleted: deleted})
}

func (h *BrandHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	job, err := h.jobs.GetByID(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, jobToResponse(job))
}
