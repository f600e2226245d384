package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brandforge-ai/brandforge/internal/api/handlers"
	"github.com/brandforge-ai/brandforge/internal/config"
	"github.com/brandforge-ai/brandforge/internal/crawler"
	"github.com/brandforge-ai/brandforge/internal/database"
	"github.com/brandforge-ai/brandforge/internal/domain"
	"github.com/brandforge-ai/brandforge/internal/events"
	"github.com/brandforge-ai/brandforge/internal/jobs"
	"github.com/brandforge-ai/brandforge/internal/openai"
	"github.com/brandforge-ai/brandforge/internal/repository"
	"github.com/brandforge-ai/brandforge/internal/search"
	"github.com/brandforge-ai/brandforge/internal/server"
	"github.com/brandforge-ai/brandforge/internal/service"
	"github.com/brandforge-ai/brandforge/internal/storage"
	"github.com/brandforge-ai/brandforge/internal/telemetry"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server and pipeline workers",
		Long:  "Start the brandforge API server and the generation pipeline worker pool",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")
	cmd.Flags().Bool("no-workers", false, "Serve HTTP only, without the pipeline worker pool")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		env := os.Getenv("ENVIRONMENT")
		if env == "" {
			env = "development"
		}
		// Sample everything in development, a tenth elsewhere.
		rate := 0.1
		if env == "development" {
			rate = 1.0
		}

		flushTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              dsn,
			Environment:      env,
			TracesSampleRate: rate,
		})
		if err != nil {
			log.Printf("Telemetry unavailable: %v", err)
		} else {
			defer flushTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := database.NewPool(ctx, database.Config{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Println("connected to database")

	// Run migrations unless --no-migrate flag is set
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	agentRepo := repository.NewAgentRepository(pool)
	requestRepo := repository.NewContentRequestRepository(pool)
	contentRepo := repository.NewContentRepository(pool)
	pointsRepo := repository.NewKnowledgePointRepository(pool)
	jobRepo := repository.NewPipelineJobRepository(pool)
	docRepo := repository.NewBrandDocumentRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	if !cfg.HasOpenAI() {
		return fmt.Errorf("OPENAI_API_KEY is required: the pipeline cannot generate without a model provider")
	}
	llmClient := openai.NewClient(cfg.OpenAIAPIKey)

	var archive service.DocumentArchive
	if cfg.HasS3() {
		s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)
		archive = s3Client
	} else {
		archive = noOpArchive{}
	}

	var notifier service.StatusNotifier
	if cfg.StatusWebhookURL != "" {
		notifier = events.NewWebhookNotifier(cfg.StatusWebhookURL, cfg.ExternalCallTimeout)
		log.Printf("status events will be posted to %s", cfg.StatusWebhookURL)
	} else {
		notifier = events.LogNotifier{}
	}

	var searcher service.WebSearcher
	if cfg.HasSearch() {
		searcher = &searchAdapter{client: search.NewClient(search.Config{
			BaseURL: cfg.SearchAPIURL,
			APIKey:  cfg.SearchAPIKey,
			Timeout: cfg.ExternalCallTimeout,
		})}
	} else {
		log.Println("SEARCH_API_URL not set: generation runs will fail at the research stage")
		searcher = noOpSearcher{}
	}

	llm := &llmAdapter{client: llmClient}
	retrievalSvc := service.NewRetrievalService(llmClient, pointsRepo, llm)
	versionSvc := service.NewVersionService(contentRepo, txRunner, notifier)
	generationSvc := service.NewGenerationService(agentRepo, requestRepo, retrievalSvc, searcher, llm, versionSvc, txRunner, cfg.JobMaxAttempts)
	agentSvc := service.NewAgentService(agentRepo)
	distillerSvc := service.NewDistillerService(llm, llmClient, pointsRepo)

	webCrawler := &crawlAdapter{crawler: crawler.New(crawler.Config{
		MaxPages: cfg.CrawlMaxPages,
		Timeout:  cfg.ExternalCallTimeout,
	})}
	segmenter := service.NewSegmenter(service.DefaultSegmentConfig())
	brandSvc := service.NewBrandKnowledgeService(webCrawler, archive, docRepo, segmenter, distillerSvc, pointsRepo, jobRepo, cfg.JobMaxAttempts)

	// Pipeline worker pool
	var workerPool *jobs.Pool
	noWorkers, _ := cmd.Flags().GetBool("no-workers")
	if !noWorkers {
		pipelineWorker := jobs.NewPipelineWorker(jobRepo, cfg.CompletedJobsKept)
		pipelineWorker.Register(domain.QueueContentGeneration, jobs.NewGenerationHandler(generationSvc))
		pipelineWorker.Register(domain.QueueBrandKnowledge, jobs.NewBrandKnowledgeHandler(jobRepo, pipelineWorker, cfg.JobMaxAttempts))
		pipelineWorker.Register(domain.QueueCrawl, jobs.NewCrawlHandler(brandSvc))
		pipelineWorker.Register(domain.QueueChunkDistill, jobs.NewChunkDistillHandler(brandSvc))

		workerPool = jobs.NewPool(pipelineWorker, cfg.WorkerCount, cfg.WorkerPollInterval)
		workerPool.Start(ctx)
		log.Printf("pipeline worker pool started (%d workers)", cfg.WorkerCount)
	}

	routerCfg := server.RouterConfig{
		AgentHandler:   handlers.NewAgentHandler(agentSvc),
		ContentHandler: handlers.NewContentHandler(generationSvc, contentRepo, requestRepo, versionSvc),
		BrandHandler:   handlers.NewBrandHandler(brandSvc, jobRepo),
	}

	router := server.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if workerPool != nil {
		workerPool.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

// llmAdapter bridges the openai client to the service-level model
// interface.
type llmAdapter struct {
	client *openai.Client
}

func (a *llmAdapter) Generate(ctx context.Context, req service.GenerateRequest) (*service.GenerateResult, error) {
	result, err := a.client.Generate(ctx, openai.GenerateRequest{System: req.System, Prompt: req.Prompt})
	if err != nil {
		return nil, err
	}
	return &service.GenerateResult{
		Text:             result.Text,
		PromptTokens:     result.PromptTokens,
		CompletionTokens: result.CompletionTokens,
	}, nil
}

type searchAdapter struct {
	client *search.Client
}

func (a *searchAdapter) Search(ctx context.Context, query string) ([]service.WebSearchResult, error) {
	results, err := a.client.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	out := make([]service.WebSearchResult, 0, len(results))
	for _, r := range results {
		out = append(out, service.WebSearchResult{Title: r.Title, URL: r.URL, Content: r.Content})
	}
	return out, nil
}

type crawlAdapter struct {
	crawler *crawler.Crawler
}

func (a *crawlAdapter) Crawl(ctx context.Context, websiteURL string) ([]service.CrawledPage, error) {
	pages, err := a.crawler.Crawl(ctx, websiteURL)
	if err != nil {
		return nil, err
	}
	out := make([]service.CrawledPage, 0, len(pages))
	for _, p := range pages {
		out = append(out, service.CrawledPage{URL: p.URL, Title: p.Title, Text: p.Text})
	}
	return out, nil
}

type noOpSearcher struct{}

func (noOpSearcher) Search(ctx context.Context, query string) ([]service.WebSearchResult, error) {
	return nil, fmt.Errorf("web search not configured: SEARCH_API_URL required")
}

type noOpArchive struct{}

func (noOpArchive) Store(ctx context.Context, key string, body []byte) error {
	return nil
}

// runMigrations brings the schema up to date. A dirty version aborts
// startup so a half-applied migration is never papered over.
func runMigrations(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open migration connection: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to prepare migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to build migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	switch {
	case err == migrate.ErrNilVersion:
		log.Println("schema is empty, no migrations to report")
	case err != nil:
		return fmt.Errorf("failed to read migration version: %w", err)
	case dirty:
		return fmt.Errorf("schema version %d is dirty and needs manual repair", version)
	default:
		log.Printf("schema at migration version %d", version)
	}

	return nil
}
