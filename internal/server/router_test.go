package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brandforge-ai/brandforge/internal/api/handlers"
	"github.com/brandforge-ai/brandforge/internal/domain"
	"github.com/brandforge-ai/brandforge/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAgentService struct {
	mock.Mock
}

func (m *MockAgentService) Create(ctx context.Context, input service.CreateAgentInput) (*domain.Agent, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Agent), args.Error(1)
}

func (m *MockAgentService) GetByID(ctx context.Context, id string) (*domain.Agent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Agent), args.Error(1)
}

func (m *MockAgentService) Update(ctx context.Context, id string, input service.UpdateAgentInput) (*domain.Agent, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Agent), args.Error(1)
}

type MockGenerationEnqueuer struct {
	mock.Mock
}

func (m *MockGenerationEnqueuer) EnqueueGeneration(ctx context.Context, input service.EnqueueGenerationInput) (*service.EnqueueGenerationResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.EnqueueGenerationResult), args.Error(1)
}

type MockContentReader struct {
	mock.Mock
}

func (m *MockContentReader) GetByID(ctx context.Context, id string) (*domain.Content, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Content), args.Error(1)
}

type MockRequestReader struct {
	mock.Mock
}

func (m *MockRequestReader) GetByID(ctx context.Context, id string) (*domain.ContentRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ContentRequest), args.Error(1)
}

type MockVersionReader struct {
	mock.Mock
}

func (m *MockVersionReader) GetVersion(ctx context.Context, contentID string, version int64) (*domain.ContentVersion, error) {
	args := m.Called(ctx, contentID, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ContentVersion), args.Error(1)
}

func (m *MockVersionReader) ListVersions(ctx context.Context, contentID string) ([]*domain.ContentVersion, error) {
	args := m.Called(ctx, contentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ContentVersion), args.Error(1)
}

type MockBrandKnowledgeService struct {
	mock.Mock
}

func (m *MockBrandKnowledgeService) EnqueueAutoBrandKnowledge(ctx context.Context, input service.BrandKnowledgeJobPayload) (string, error) {
	args := m.Called(ctx, input)
	return args.String(0), args.Error(1)
}

func (m *MockBrandKnowledgeService) ResetKnowledge(ctx context.Context, agentID string) (int64, error) {
	args := m.Called(ctx, agentID)
	return args.Get(0).(int64), args.Error(1)
}

type MockJobReader struct {
	mock.Mock
}

func (m *MockJobReader) GetByID(ctx context.Context, id string) (*domain.PipelineJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PipelineJob), args.Error(1)
}

type routerMocks struct {
	agents   *MockAgentService
	gen      *MockGenerationEnqueuer
	contents *MockContentReader
	requests *MockRequestReader
	versions *MockVersionReader
	brand    *MockBrandKnowledgeService
	jobs     *MockJobReader
}

func setupRouter() (http.Handler, *routerMocks) {
	m := &routerMocks{
		agents:   new(MockAgentService),
		gen:      new(MockGenerationEnqueuer),
		contents: new(MockContentReader),
		requests: new(MockRequestReader),
		versions: new(MockVersionReader),
		brand:    new(MockBrandKnowledgeService),
		jobs:     new(MockJobReader),
	}
	router := NewRouter(RouterConfig{
		AgentHandler:   handlers.NewAgentHandler(m.agents),
		ContentHandler: handlers.NewContentHandler(m.gen, m.contents, m.requests, m.versions),
		BrandHandler:   handlers.NewBrandHandler(m.brand, m.jobs),
	})
	return router, m
}

func TestRouter_HealthEndpoint(t *testing.T) {
	router, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "ok", data["status"])
}

func TestRouter_GetContent_RoutesURLParam(t *testing.T) {
	router, m := setupRouter()

	now := time.Now().UTC()
	m.contents.On("GetByID", mock.Anything, "content-1").Return(&domain.Content{
		ID:        "content-1",
		AgentID:   "agent-1",
		RequestID: "request-1",
		Status:    domain.ContentStatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/content/content-1", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	m.contents.AssertExpectations(t)
}

func TestRouter_GetVersion_RoutesBothParams(t *testing.T) {
	router, m := setupRouter()

	m.versions.On("GetVersion", mock.Anything, "content-1", int64(3)).Return(&domain.ContentVersion{
		ID:        "v-3",
		ContentID: "content-1",
		Version:   3,
		CreatedAt: time.Now().UTC(),
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/content/content-1/versions/3", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	m.versions.AssertExpectations(t)
}

func TestRouter_GetJob_Routes(t *testing.T) {
	router, m := setupRouter()

	now := time.Now().UTC()
	m.jobs.On("GetByID", mock.Anything, "job-1").Return(&domain.PipelineJob{
		ID:          "job-1",
		Queue:       domain.QueueContentGeneration,
		Status:      domain.PipelineJobStatusPending,
		MaxAttempts: 3,
		AvailableAt: now,
		CreatedAt:   now,
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/jobs/job-1", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	m.jobs.AssertExpectations(t)
}

func TestRouter_UnknownRoute_NotFound(t *testing.T) {
	router, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
