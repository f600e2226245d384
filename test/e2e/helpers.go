//go:build e2e

package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/brandforge-ai/brandforge/internal/api/handlers"
	"github.com/brandforge-ai/brandforge/internal/domain"
	"github.com/brandforge-ai/brandforge/internal/events"
	"github.com/brandforge-ai/brandforge/internal/jobs"
	"github.com/brandforge-ai/brandforge/internal/repository"
	"github.com/brandforge-ai/brandforge/internal/server"
	"github.com/brandforge-ai/brandforge/internal/service"
	"github.com/brandforge-ai/brandforge/internal/testutil"
	"github.com/jackc/pgx/v5/pgxpool"
)

// scriptedLLM returns canned completions in call order. The pipeline
// calls the model a fixed number of times per run, so a FIFO script is
// deterministic.
type scriptedLLM struct {
	mu        sync.Mutex
	responses []string
}

func (s *scriptedLLM) push(responses ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses = append(s.responses, responses...)
}

func (s *scriptedLLM) Generate(ctx context.Context, req service.GenerateRequest) (*service.GenerateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.responses) == 0 {
		return nil, fmt.Errorf("scripted model has no responses left")
	}
	text := s.responses[0]
	s.responses = s.responses[1:]
	return &service.GenerateResult{Text: text, PromptTokens: 10, CompletionTokens: 20}, nil
}

type fixedEmbedder struct{}

func (fixedEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	emb := make([]float32, 1536)
	emb[0] = 1
	return emb, nil
}

type stubSearcher struct{}

func (stubSearcher) Search(ctx context.Context, query string) ([]service.WebSearchResult, error) {
	return []service.WebSearchResult{
		{Title: "Industry report", URL: "https://example.com/report", Content: "Relevant industry facts."},
	}, nil
}

type stubCrawler struct{}

func (stubCrawler) Crawl(ctx context.Context, websiteURL string) ([]service.CrawledPage, error) {
	return []service.CrawledPage{
		{URL: websiteURL, Title: "Acme Home", Text: "Acme builds rugged outdoor gear and speaks plainly about durability."},
	}, nil
}

type nullArchive struct{}

func (nullArchive) Store(ctx context.Context, key string, body []byte) error { return nil }

// Env is a full in-process deployment: real Postgres, real repositories
// and workers, scripted model and web collaborators.
type Env struct {
	T      *testing.T
	Ctx    context.Context
	Pool   *pgxpool.Pool
	Server *httptest.Server
	LLM    *scriptedLLM

	AgentRepo  *repository.AgentRepository
	PointsRepo *repository.KnowledgePointRepository
	JobRepo    *repository.PipelineJobRepository

	pgC        *testutil.PostgresContainer
	workerPool *jobs.Pool
	cancel     context.CancelFunc
}

func SetupEnv(t *testing.T) *Env {
	ctx, cancel := context.WithCancel(context.Background())

	pgC := testutil.NewPostgresContainer(ctx, t)
	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	agentRepo := repository.NewAgentRepository(pool)
	requestRepo := repository.NewContentRequestRepository(pool)
	contentRepo := repository.NewContentRepository(pool)
	pointsRepo := repository.NewKnowledgePointRepository(pool)
	jobRepo := repository.NewPipelineJobRepository(pool)
	docRepo := repository.NewBrandDocumentRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	llm := &scriptedLLM{}
	embed := fixedEmbedder{}

	retrievalSvc := service.NewRetrievalService(embed, pointsRepo, llm)
	versionSvc := service.NewVersionService(contentRepo, txRunner, events.LogNotifier{})
	generationSvc := service.NewGenerationService(agentRepo, requestRepo, retrievalSvc, stubSearcher{}, llm, versionSvc, txRunner, 3)
	agentSvc := service.NewAgentService(agentRepo)
	distillerSvc := service.NewDistillerService(llm, embed, pointsRepo)
	segmenter := service.NewSegmenter(service.DefaultSegmentConfig())
	brandSvc := service.NewBrandKnowledgeService(stubCrawler{}, nullArchive{}, docRepo, segmenter, distillerSvc, pointsRepo, jobRepo, 3)

	pipelineWorker := jobs.NewPipelineWorker(jobRepo, 100)
	pipelineWorker.Register(domain.QueueContentGeneration, jobs.NewGenerationHandler(generationSvc))
	pipelineWorker.Register(domain.QueueBrandKnowledge, jobs.NewBrandKnowledgeHandler(jobRepo, pipelineWorker, 3).WithWaitPolicy(50*time.Millisecond, time.Minute))
	pipelineWorker.Register(domain.QueueCrawl, jobs.NewCrawlHandler(brandSvc))
	pipelineWorker.Register(domain.QueueChunkDistill, jobs.NewChunkDistillHandler(brandSvc))

	workerPool := jobs.NewPool(pipelineWorker, 2, 50*time.Millisecond)
	workerPool.Start(ctx)

	router := server.NewRouter(server.RouterConfig{
		AgentHandler:   handlers.NewAgentHandler(agentSvc),
		ContentHandler: handlers.NewContentHandler(generationSvc, contentRepo, requestRepo, versionSvc),
		BrandHandler:   handlers.NewBrandHandler(brandSvc, jobRepo),
	})
	srv := httptest.NewServer(router)

	return &Env{
		T:          t,
		Ctx:        ctx,
		Pool:       pool,
		Server:     srv,
		LLM:        llm,
		AgentRepo:  agentRepo,
		PointsRepo: pointsRepo,
		JobRepo:    jobRepo,
		pgC:        pgC,
		workerPool: workerPool,
		cancel:     cancel,
	}
}

func (e *Env) Teardown() {
	e.Server.Close()
	e.workerPool.Stop()
	e.cancel()
	e.Pool.Close()
	_ = e.pgC.Terminate(context.Background())
}

// PostJSON posts a JSON body and decodes the enveloped data field.
func (e *Env) PostJSON(path string, body string) (int, map[string]interface{}) {
	resp, err := http.Post(e.Server.URL+path, "application/json", strings.NewReader(body))
	if err != nil {
		e.T.Fatalf("POST %s failed: %v", path, err)
	}
	defer resp.Body.Close()
	return resp.StatusCode, decodeData(e.T, resp)
}

func (e *Env) GetJSON(path string) (int, map[string]interface{}) {
	resp, err := http.Get(e.Server.URL + path)
	if err != nil {
		e.T.Fatalf("GET %s failed: %v", path, err)
	}
	defer resp.Body.Close()
	return resp.StatusCode, decodeData(e.T, resp)
}

func (e *Env) DeleteJSON(path string) (int, map[string]interface{}) {
	req, err := http.NewRequest(http.MethodDelete, e.Server.URL+path, nil)
	if err != nil {
		e.T.Fatalf("building DELETE %s failed: %v", path, err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		e.T.Fatalf("DELETE %s failed: %v", path, err)
	}
	defer resp.Body.Close()
	return resp.StatusCode, decodeData(e.T, resp)
}

// WaitFor polls fn until it reports done or the deadline passes.
func (e *Env) WaitFor(what string, timeout time.Duration, fn func() bool) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	e.T.Fatalf("timed out waiting for %s", what)
}

func decodeData(t *testing.T, resp *http.Response) map[string]interface{} {
	var envelope map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if data, ok := envelope["data"].(map[string]interface{}); ok {
		return data
	}
	return envelope
}
