package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/brandforge-ai/brandforge/internal/domain"
)

func newBrandKnowledgeService(
	crawler WebCrawler,
	archive DocumentArchive,
	docRepo BrandDocumentRepositoryInterface,
	distiller ChunkDistiller,
	pointsRepo KnowledgePointRepositoryInterface,
	jobRepo PipelineJobRepositoryInterface,
) *BrandKnowledgeService {
	return NewBrandKnowledgeService(crawler, archive, docRepo, NewSegmenter(DefaultSegmentConfig()), distiller, pointsRepo, jobRepo, 3)
}

func TestBrandKnowledgeService_EnqueueAutoBrandKnowledge(t *testing.T) {
	ctx := context.Background()

	t.Run("schedules the parent job with the crawl payload", func(t *testing.T) {
		mockJobs := new(MockPipelineJobRepository)
		service := newBrandKnowledgeService(new(MockWebCrawler), nil, new(MockBrandDocumentRepository), new(MockChunkDistiller), new(MockKnowledgePointRepository), mockJobs).
			WithUUIDGen(NewMockUUIDGenerator("job-id-1"))

		mockJobs.On("Create", mock.Anything, mock.MatchedBy(func(job *domain.PipelineJob) bool {
			var p BrandKnowledgeJobPayload
			if err := json.Unmarshal(job.Payload, &p); err != nil {
				return false
			}
			return job.ID == "job-id-1" &&
				job.Queue == domain.QueueBrandKnowledge &&
				p.AgentID == "agent-1" &&
				p.WebsiteURL == "https://acme.example"
		})).Return(nil)

		jobID, err := service.EnqueueAutoBrandKnowledge(ctx, BrandKnowledgeJobPayload{
			AgentID:    "agent-1",
			UserID:     "user-1",
			WebsiteURL: "https://acme.example",
		})

		require.NoError(t, err)
		assert.Equal(t, "job-id-1", jobID)
		mockJobs.AssertExpectations(t)
	})

	t.Run("rejects a missing website url", func(t *testing.T) {
		mockJobs := new(MockPipelineJobRepository)
		service := newBrandKnowledgeService(new(MockWebCrawler), nil, new(MockBrandDocumentRepository), new(MockChunkDistiller), new(MockKnowledgePointRepository), mockJobs)

		_, err := service.EnqueueAutoBrandKnowledge(ctx, BrandKnowledgeJobPayload{AgentID: "agent-1"})

		require.ErrorIs(t, err, domain.ErrMissingRequiredField)
		mockJobs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestBrandKnowledgeService_BuildBrandDocument(t *testing.T) {
	ctx := context.Background()

	pages := []CrawledPage{
		{URL: "https://acme.example", Title: "Acme", Text: "We ship widgets."},
		{URL: "https://acme.example/about", Title: "About", Text: "Founded in 2019."},
	}

	t.Run("stores concatenated pages under a fresh source id", func(t *testing.T) {
		mockCrawler := new(MockWebCrawler)
		mockDocs := new(MockBrandDocumentRepository)
		mockArchive := new(MockDocumentArchive)
		service := newBrandKnowledgeService(mockCrawler, mockArchive, mockDocs, new(MockChunkDistiller), new(MockKnowledgePointRepository), new(MockPipelineJobRepository)).
			WithUUIDGen(NewMockUUIDGenerator("source-id-1"))

		mockCrawler.On("Crawl", mock.Anything, "https://acme.example").Return(pages, nil)
		mockDocs.On("Upsert", mock.Anything, mock.MatchedBy(func(doc *domain.BrandDocument) bool {
			return doc.AgentID == "agent-1" &&
				doc.SourceID == "source-id-1" &&
				len(doc.Text) > 0
		})).Return(nil)
		mockArchive.On("Store", mock.Anything, "agents/agent-1/brand-document.txt", mock.Anything).Return(nil)

		sourceID, err := service.BuildBrandDocument(ctx, "agent-1", "https://acme.example")

		require.NoError(t, err)
		assert.Equal(t, "source-id-1", sourceID)
		mockDocs.AssertExpectations(t)
		mockArchive.AssertExpectations(t)
	})

	t.Run("archive failure does not fail the build", func(t *testing.T) {
		mockCrawler := new(MockWebCrawler)
		mockDocs := new(MockBrandDocumentRepository)
		mockArchive := new(MockDocumentArchive)
		service := newBrandKnowledgeService(mockCrawler, mockArchive, mockDocs, new(MockChunkDistiller), new(MockKnowledgePointRepository), new(MockPipelineJobRepository))

		mockCrawler.On("Crawl", mock.Anything, mock.Anything).Return(pages, nil)
		mockDocs.On("Upsert", mock.Anything, mock.Anything).Return(nil)
		mockArchive.On("Store", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("bucket gone"))

		_, err := service.BuildBrandDocument(ctx, "agent-1", "https://acme.example")

		require.NoError(t, err)
	})

	t.Run("crawl failure is retryable", func(t *testing.T) {
		mockCrawler := new(MockWebCrawler)
		service := newBrandKnowledgeService(mockCrawler, nil, new(MockBrandDocumentRepository), new(MockChunkDistiller), new(MockKnowledgePointRepository), new(MockPipelineJobRepository))

		mockCrawler.On("Crawl", mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))

		_, err := service.BuildBrandDocument(ctx, "agent-1", "https://acme.example")

		require.Error(t, err)
		assert.True(t, domain.Retryable(err))
	})
}

func TestBrandKnowledgeService_ChunkAndDistill(t *testing.T) {
	ctx := context.Background()

	t.Run("segments the stored document and distills the chunks", func(t *testing.T) {
		mockDocs := new(MockBrandDocumentRepository)
		mockDistiller := new(MockChunkDistiller)
		service := newBrandKnowledgeService(new(MockWebCrawler), nil, mockDocs, mockDistiller, new(MockKnowledgePointRepository), new(MockPipelineJobRepository))

		mockDocs.On("GetByAgent", mock.Anything, "agent-1").Return(&domain.BrandDocument{
			AgentID:  "agent-1",
			SourceID: "source-id-1",
			Text:     "We ship widgets. Founded in 2019.",
		}, nil)
		mockDistiller.On("DistillBatch", mock.Anything, "agent-1", domain.KnowledgeSourceWebsite, mock.MatchedBy(func(chunks []domain.Chunk) bool {
			return len(chunks) == 1 && chunks[0].SourceID == "source-id-1"
		})).Return(2, nil)

		written, err := service.ChunkAndDistill(ctx, "agent-1")

		require.NoError(t, err)
		assert.Equal(t, 2, written)
		mockDistiller.AssertExpectations(t)
	})

	t.Run("fails when no document was built", func(t *testing.T) {
		mockDocs := new(MockBrandDocumentRepository)
		service := newBrandKnowledgeService(new(MockWebCrawler), nil, mockDocs, new(MockChunkDistiller), new(MockKnowledgePointRepository), new(MockPipelineJobRepository))

		mockDocs.On("GetByAgent", mock.Anything, "agent-1").Return(nil, domain.ErrBrandDocumentNotFound)

		_, err := service.ChunkAndDistill(ctx, "agent-1")

		require.ErrorIs(t, err, domain.ErrBrandDocumentNotFound)
	})
}

func TestBrandKnowledgeService_ResetKnowledge(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes every point of the agent", func(t *testing.T) {
		mockPoints := new(MockKnowledgePointRepository)
		service := newBrandKnowledgeService(new(MockWebCrawler), nil, new(MockBrandDocumentRepository), new(MockChunkDistiller), mockPoints, new(MockPipelineJobRepository))

		mockPoints.On("DeleteByAgent", mock.Anything, "agent-1").Return(int64(12), nil)

		deleted, err := service.ResetKnowledge(ctx, "agent-1")

		require.NoError(t, err)
		assert.Equal(t, int64(12), deleted)
	})
}
