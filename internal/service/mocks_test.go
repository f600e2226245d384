package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/brandforge-ai/brandforge/internal/domain"
)

// MockUUIDGenerator returns a fixed sequence of ids.
type MockUUIDGenerator struct {
	callCount int
	uuids     []string
}

func NewMockUUIDGenerator(uuids ...string) *MockUUIDGenerator {
	return &MockUUIDGenerator{uuids: uuids}
}

func (m *MockUUIDGenerator) NewString() string {
	if m.callCount < len(m.uuids) {
		uuid := m.uuids[m.callCount]
		m.callCount++
		return uuid
	}
	return "default-uuid"
}

// MockLLMClient is a mock implementation of LLMClient
type MockLLMClient struct {
	mock.Mock
}

func (m *MockLLMClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*GenerateResult), args.Error(1)
}

// MockEmbeddingClient is a mock implementation of EmbeddingClient
type MockEmbeddingClient struct {
	mock.Mock
}

func (m *MockEmbeddingClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

// MockKnowledgePointRepository is a mock implementation of KnowledgePointRepositoryInterface
type MockKnowledgePointRepository struct {
	mock.Mock
}

func (m *MockKnowledgePointRepository) Upsert(ctx context.Context, kp *domain.KnowledgePoint, embedding []float32) error {
	args := m.Called(ctx, kp, embedding)
	return args.Error(0)
}

func (m *MockKnowledgePointRepository) CountByAgent(ctx context.Context, agentID string) (int64, error) {
	args := m.Called(ctx, agentID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockKnowledgePointRepository) DeleteByAgent(ctx context.Context, agentID string) (int64, error) {
	args := m.Called(ctx, agentID)
	return args.Get(0).(int64), args.Error(1)
}

// MockVectorSearcher is a mock implementation of VectorSearcher
type MockVectorSearcher struct {
	mock.Mock
}

func (m *MockVectorSearcher) QueryNearest(ctx context.Context, agentID string, embedding []float32, k int) ([]*RetrievedPoint, error) {
	args := m.Called(ctx, agentID, embedding, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*RetrievedPoint), args.Error(1)
}

// MockAgentRepository is a mock implementation of AgentRepositoryInterface
type MockAgentRepository struct {
	mock.Mock
}

func (m *MockAgentRepository) Create(ctx context.Context, a *domain.Agent) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAgentRepository) GetByID(ctx context.Context, id string) (*domain.Agent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Agent), args.Error(1)
}

func (m *MockAgentRepository) Update(ctx context.Context, a *domain.Agent) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

// MockContentRequestRepository is a mock implementation of ContentRequestRepositoryInterface
type MockContentRequestRepository struct {
	mock.Mock
}

func (m *MockContentRequestRepository) Create(ctx context.Context, req *domain.ContentRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockContentRequestRepository) GetByID(ctx context.Context, id string) (*domain.ContentRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ContentRequest), args.Error(1)
}

func (m *MockContentRequestRepository) UpdateStatus(ctx context.Context, id string, status domain.RequestStatus, errMsg string) error {
	args := m.Called(ctx, id, status, errMsg)
	return args.Error(0)
}

// MockContentRepository is a mock implementation of ContentRepositoryInterface
type MockContentRepository struct {
	mock.Mock
}

func (m *MockContentRepository) Create(ctx context.Context, c *domain.Content) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockContentRepository) GetByID(ctx context.Context, id string) (*domain.Content, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Content), args.Error(1)
}

func (m *MockContentRepository) GetByRequestID(ctx context.Context, requestID string) (*domain.Content, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Content), args.Error(1)
}

func (m *MockContentRepository) UpdateDraft(ctx context.Context, id, body string, meta domain.ContentMeta, stats domain.ContentStats) error {
	args := m.Called(ctx, id, body, meta, stats)
	return args.Error(0)
}

func (m *MockContentRepository) LockForVersioning(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockContentRepository) NextVersionNumber(ctx context.Context, contentID string) (int64, error) {
	args := m.Called(ctx, contentID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockContentRepository) SetCurrentVersion(ctx context.Context, id string, version int64) error {
	args := m.Called(ctx, id, version)
	return args.Error(0)
}

func (m *MockContentRepository) CreateVersion(ctx context.Context, v *domain.ContentVersion) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *MockContentRepository) GetVersion(ctx context.Context, contentID string, version int64) (*domain.ContentVersion, error) {
	args := m.Called(ctx, contentID, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ContentVersion), args.Error(1)
}

func (m *MockContentRepository) GetLatestVersion(ctx context.Context, contentID string) (*domain.ContentVersion, error) {
	args := m.Called(ctx, contentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ContentVersion), args.Error(1)
}

func (m *MockContentRepository) ListVersions(ctx context.Context, contentID string) ([]*domain.ContentVersion, error) {
	args := m.Called(ctx, contentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ContentVersion), args.Error(1)
}

// MockPipelineJobRepository is a mock implementation of PipelineJobRepositoryInterface
type MockPipelineJobRepository struct {
	mock.Mock
}

func (m *MockPipelineJobRepository) Create(ctx context.Context, job *domain.PipelineJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockPipelineJobRepository) GetByID(ctx context.Context, id string) (*domain.PipelineJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PipelineJob), args.Error(1)
}

func (m *MockPipelineJobRepository) ListChildren(ctx context.Context, parentID string) ([]*domain.PipelineJob, error) {
	args := m.Called(ctx, parentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PipelineJob), args.Error(1)
}

// MockWebSearcher is a mock implementation of WebSearcher
type MockWebSearcher struct {
	mock.Mock
}

func (m *MockWebSearcher) Search(ctx context.Context, query string) ([]WebSearchResult, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]WebSearchResult), args.Error(1)
}

// MockRetrievalEngine is a mock implementation of RetrievalEngine
type MockRetrievalEngine struct {
	mock.Mock
}

func (m *MockRetrievalEngine) Retrieve(ctx context.Context, input RetrieveInput) (*RetrievalResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*RetrievalResult), args.Error(1)
}

// MockVersionSaver is a mock implementation of VersionSaver
type MockVersionSaver struct {
	mock.Mock
}

func (m *MockVersionSaver) SaveVersion(ctx context.Context, input SaveVersionInput) (*domain.ContentVersion, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ContentVersion), args.Error(1)
}

// MockStatusNotifier is a mock implementation of StatusNotifier
type MockStatusNotifier struct {
	mock.Mock
}

func (m *MockStatusNotifier) NotifyStatusChanged(ctx context.Context, event domain.StatusEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockWebCrawler is a mock implementation of WebCrawler
type MockWebCrawler struct {
	mock.Mock
}

func (m *MockWebCrawler) Crawl(ctx context.Context, seedURL string) ([]CrawledPage, error) {
	args := m.Called(ctx, seedURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]CrawledPage), args.Error(1)
}

// MockDocumentArchive is a mock implementation of DocumentArchive
type MockDocumentArchive struct {
	mock.Mock
}

func (m *MockDocumentArchive) Store(ctx context.Context, key string, body []byte) error {
	args := m.Called(ctx, key, body)
	return args.Error(0)
}

// MockBrandDocumentRepository is a mock implementation of BrandDocumentRepositoryInterface
type MockBrandDocumentRepository struct {
	mock.Mock
}

func (m *MockBrandDocumentRepository) Upsert(ctx context.Context, doc *domain.BrandDocument) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockBrandDocumentRepository) GetByAgent(ctx context.Context, agentID string) (*domain.BrandDocument, error) {
	args := m.Called(ctx, agentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BrandDocument), args.Error(1)
}

// MockChunkDistiller is a mock implementation of ChunkDistiller
type MockChunkDistiller struct {
	mock.Mock
}

func (m *MockChunkDistiller) DistillBatch(ctx context.Context, agentID string, sourceType domain.KnowledgeSourceType, chunks []domain.Chunk) (int, error) {
	args := m.Called(ctx, agentID, sourceType, chunks)
	return args.Int(0), args.Error(1)
}

// fakeTxRepos hands fixed repositories to a transaction body.
type fakeTxRepos struct {
	contents ContentRepositoryInterface
	jobs     PipelineJobRepositoryInterface
}

func (f *fakeTxRepos) Contents() ContentRepositoryInterface { return f.contents }
func (f *fakeTxRepos) Jobs() PipelineJobRepositoryInterface { return f.jobs }

// fakeTxRunner runs the transaction body directly, or fails the
// transaction without running it when err is set.
type fakeTxRunner struct {
	repos TxRepositories
	err   error
}

func (f *fakeTxRunner) WithTx(ctx context.Context, fn func(repos TxRepositories) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(f.repos)
}
