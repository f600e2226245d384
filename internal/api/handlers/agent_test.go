package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brandforge-ai/brandforge/internal/domain"
	"github.com/brandforge-ai/brandforge/internal/service"
	"github.com/go-chi/chi/v5"
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

func newTestAgent() *domain.Agent {
	now := time.Now().UTC()
	return &domain.Agent{
		ID:         "agent-123",
		Name:       "Acme Brand",
		Purpose:    domain.PurposeBlogPost,
		WebsiteURL: "https://acme.example",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func requestWithURLParam(method, url, param, value string, body []byte) *http.Request {
	req := httptest.NewRequest(method, url, bytes.NewReader(body))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(param, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestAgentHandler_Create_Success(t *testing.T) {
	mockSvc := new(MockAgentService)
	handler := NewAgentHandler(mockSvc)

	expected := newTestAgent()
	mockSvc.On("Create", mock.Anything, mock.MatchedBy(func(input service.CreateAgentInput) bool {
		return input.Name == "Acme Brand" && input.Purpose == domain.PurposeBlogPost
	})).Return(expected, nil)

	body := `{"name":"Acme Brand","purpose":"blog_post","website_url":"https://acme.example"}`
	req := httptest.NewRequest(http.MethodPost, "/agents", bytes.NewReader([]byte(body)))
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "agent-123", data["id"])
	mockSvc.AssertExpectations(t)
}

func TestAgentHandler_Create_InvalidJSON(t *testing.T) {
	mockSvc := new(MockAgentService)
	handler := NewAgentHandler(mockSvc)

	req := httptest.NewRequest(http.MethodPost, "/agents", bytes.NewReader([]byte(`{invalid`)))
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request body")
}

func TestAgentHandler_Create_MissingName(t *testing.T) {
	mockSvc := new(MockAgentService)
	handler := NewAgentHandler(mockSvc)

	req := httptest.NewRequest(http.MethodPost, "/agents", bytes.NewReader([]byte(`{"purpose":"blog_post"}`)))
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "name is required")
}

func TestAgentHandler_Create_InvalidPurpose(t *testing.T) {
	mockSvc := new(MockAgentService)
	handler := NewAgentHandler(mockSvc)

	mockSvc.On("Create", mock.Anything, mock.Anything).Return(nil, domain.ErrInvalidPurpose)

	body := `{"name":"Acme Brand","purpose":"carrier_pigeon"}`
	req := httptest.NewRequest(http.MethodPost, "/agents", bytes.NewReader([]byte(body)))
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid content purpose")
}

func TestAgentHandler_Get_Success(t *testing.T) {
	mockSvc := new(MockAgentService)
	handler := NewAgentHandler(mockSvc)

	mockSvc.On("GetByID", mock.Anything, "agent-123").Return(newTestAgent(), nil)

	req := requestWithURLParam(http.MethodGet, "/agents/agent-123", "id", "agent-123", nil)
	w := httptest.NewRecorder()

	handler.Get(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestAgentHandler_Get_NotFound(t *testing.T) {
	mockSvc := new(MockAgentService)
	handler := NewAgentHandler(mockSvc)

	mockSvc.On("GetByID", mock.Anything, "ghost").Return(nil, domain.ErrAgentNotFound)

	req := requestWithURLParam(http.MethodGet, "/agents/ghost", "id", "ghost", nil)
	w := httptest.NewRecorder()

	handler.Get(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAgentHandler_Update_Success(t *testing.T) {
	mockSvc := new(MockAgentService)
	handler := NewAgentHandler(mockSvc)

	updated := newTestAgent()
	updated.Name = "Acme Rebrand"
	mockSvc.On("Update", mock.Anything, "agent-123", mock.MatchedBy(func(input service.UpdateAgentInput) bool {
		return input.Name == "Acme Rebrand"
	})).Return(updated, nil)

	body := `{"name":"Acme Rebrand","purpose":"blog_post"}`
	req := requestWithURLParam(http.MethodPut, "/agents/agent-123", "id", "agent-123", []byte(body))
	w := httptest.NewRecorder()

	handler.Update(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "Acme Rebrand", data["name"])
	mockSvc.AssertExpectations(t)
}
