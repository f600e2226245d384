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

type AgentService interface {
	Create(ctx context.Context, input service.CreateAgentInput) (*domain.Agent, error)
	GetByID(ctx context.Context, id string) (*domain.Agent, error)
	Update(ctx context.Context, id string, input service.UpdateAgentInput) (*domain.Agent, error)
}

type AgentHandler struct {
	svc AgentService
}

func NewAgentHandler(svc AgentService) *AgentHandler {
	return &AgentHandler{svc: svc}
}

type CreateAgentRequest struct {
	Name         string `json:"name"`
	Purpose      string `json:"purpose"`
	SystemPrompt string `json:"system_prompt"`
	WebsiteURL   string `json:"website_url"`
}

type UpdateAgentRequest struct {
	Name         string `json:"name"`
	Purpose      string `json:"purpose"`
	SystemPrompt string `json:"system_prompt"`
	WebsiteURL   string `json:"website_url"`
}

type AgentResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Purpose      string `json:"purpose"`
	SystemPrompt string `json:"system_prompt"`
	WebsiteURL   string `json:"website_url"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

func agentToResponse(a *domain.Agent) *AgentResponse {
	return &AgentResponse{
		ID:           a.ID,
		Name:         a.Name,
		Purpose:      string(a.Purpose),
		SystemPrompt: a.SystemPrompt,
		WebsiteURL:   a.WebsiteURL,
		CreatedAt:    a.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:    a.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func (h *AgentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		api.Error(w, http.StatusBadRequest, "name is required")
		return
	}

	agent, err := h.svc.Create(r.Context(), service.CreateAgentInput{
		Name:         req.Name,
		Purpose:      domain.ContentPurpose(req.Purpose),
		SystemPrompt: req.SystemPrompt,
		WebsiteURL:   req.WebsiteURL,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, agentToResponse(agent))
}

func (h *AgentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	agent, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, agentToResponse(agent))
}

func (h *AgentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	var req UpdateAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		api.Error(w, http.StatusBadRequest, "name is required")
		return
	}

	agent, err := h.svc.Update(r.Context(), id, service.UpdateAgentInput{
		Name:         req.Name,
		Purpose:      domain.ContentPurpose(req.Purpose),
		SystemPrompt: req.SystemPrompt,
		WebsiteURL:   req.WebsiteURL,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, agentToResponse(agent))
}
