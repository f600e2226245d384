package service

import (
	"context"
	"time"

	"github.com/brandforge-ai/brandforge/internal/domain"
)

// AgentService manages the agents that own knowledge and content.
type AgentService struct {
	agentRepo AgentRepositoryInterface
	uuidGen   UUIDGenerator
}

func NewAgentService(agentRepo AgentRepositoryInterface) *AgentService {
	return &AgentService{
		agentRepo: agentRepo,
		uuidGen:   &DefaultUUIDGenerator{},
	}
}

func NewAgentServiceWithUUIDGen(agentRepo AgentRepositoryInterface, uuidGen UUIDGenerator) *AgentService {
	return &AgentService{
		agentRepo: agentRepo,
		uuidGen:   uuidGen,
	}
}

type CreateAgentInput struct {
	Name         string
	Purpose      domain.ContentPurpose
	SystemPrompt string
	WebsiteURL   string
}

func (s *AgentService) Create(ctx context.Context, input CreateAgentInput) (*domain.Agent, error) {
	agent := domain.NewAgent(s.uuidGen.NewString(), input.Name, input.Purpose, input.SystemPrompt, input.WebsiteURL, time.Now().UTC())
	if err := domain.ValidateAgent(agent); err != nil {
		return nil, err
	}
	if err := s.agentRepo.Create(ctx, agent); err != nil {
		return nil, domain.NewPersistenceError("failed to create agent", err)
	}
	return agent, nil
}

func (s *AgentService) GetByID(ctx context.Context, id string) (*domain.Agent, error) {
	return s.agentRepo.GetByID(ctx, id)
}

type UpdateAgentInput struct {
	Name         string
	Purpose      domain.ContentPurpose
	SystemPrompt string
	WebsiteURL   string
}

func (s *AgentService) Update(ctx context.Context, id string, input UpdateAgentInput) (*domain.Agent, error) {
	agent, err := s.agentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	agent.Name = input.Name
	agent.Purpose = input.Purpose
	agent.SystemPrompt = input.SystemPrompt
	agent.WebsiteURL = input.WebsiteURL
	agent.UpdatedAt = time.Now().UTC()

	if err := domain.ValidateAgent(agent); err != nil {
		return nil, err
	}
	if err := s.agentRepo.Update(ctx, agent); err != nil {
		return nil, domain.NewPersistenceError("failed to update agent", err)
	}
	return agent, nil
}
