package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/brandforge-ai/brandforge/internal/diff"
	"github.com/brandforge-ai/brandforge/internal/domain"
	"github.com/brandforge-ai/brandforge/internal/telemetry"
)

type ContentRepositoryInterface interface {
	Create(ctx context.Context, c *domain.Content) error
	GetByID(ctx context.Context, id string) (*domain.Content, error)
	GetByRequestID(ctx context.Context, requestID string) (*domain.Content, error)
	UpdateDraft(ctx context.Context, id, body string, meta domain.ContentMeta, stats domain.ContentStats) error
	LockForVersioning(ctx context.Context, id string) error
	NextVersionNumber(ctx context.Context, contentID string) (int64, error)
	SetCurrentVersion(ctx context.Context, id string, version int64) error
	CreateVersion(ctx context.Context, v *domain.ContentVersion) error
	GetVersion(ctx context.Context, contentID string, version int64) (*domain.ContentVersion, error)
	GetLatestVersion(ctx context.Context, contentID string) (*domain.ContentVersion, error)
	ListVersions(ctx context.Context, contentID string) ([]*domain.ContentVersion, error)
}

// StatusNotifier delivers content status change events to interested
// consumers.
type StatusNotifier interface {
	NotifyStatusChanged(ctx context.Context, event domain.StatusEvent) error
}

// VersionService persists draft content and maintains its version
// trail. The content row is the authoritative write; the version trail
// is best effort and must never block or fail a save.
type VersionService struct {
	contentRepo ContentRepositoryInterface
	txRunner    TxRunner
	notifier    StatusNotifier
	uuidGen     UUIDGenerator
}

func NewVersionService(contentRepo ContentRepositoryInterface, txRunner TxRunner, notifier StatusNotifier) *VersionService {
	return &VersionService{
		contentRepo: contentRepo,
		txRunner:    txRunner,
		notifier:    notifier,
		uuidGen:     &DefaultUUIDGenerator{},
	}
}

func NewVersionServiceWithUUIDGen(contentRepo ContentRepositoryInterface, txRunner TxRunner, notifier StatusNotifier, uuidGen UUIDGenerator) *VersionService {
	return &VersionService{
		contentRepo: contentRepo,
		txRunner:    txRunner,
		notifier:    notifier,
		uuidGen:     uuidGen,
	}
}

type SaveVersionInput struct {
	ContentID string
	Body      string
	Meta      domain.ContentMeta
	Stats     domain.ContentStats
	UserID    string

	// BaseVersion pins the version to diff against. When nil the
	// latest stored version is used, or an empty base for the first
	// save.
	BaseVersion *int64
}

// SaveVersion writes the draft body and metadata to the content row,
// emits the status change event, and records a new version snapshot.
// A failure while recording the snapshot is logged and swallowed: the
// caller still gets a nil error because the content itself was saved.
func (s *VersionService) SaveVersion(ctx context.Context, input SaveVersionInput) (*domain.ContentVersion, error) {
	if err := s.contentRepo.UpdateDraft(ctx, input.ContentID, input.Body, input.Meta, input.Stats); err != nil {
		return nil, domain.NewPersistenceError("failed to save content draft", err)
	}

	if s.notifier != nil {
		event := domain.StatusEvent{ContentID: input.ContentID, Status: string(domain.ContentStatusDraft)}
		if err := s.notifier.NotifyStatusChanged(ctx, event); err != nil {
			log.Printf("Failed to notify status change for content %s: %v", input.ContentID, err)
		}
	}

	version, err := s.recordVersion(ctx, input)
	if err != nil {
		log.Printf("Failed to record version for content %s: %v", input.ContentID, err)
		telemetry.CaptureError(ctx, err)
		return nil, nil
	}
	return version, nil
}

// recordVersion runs the version trail write in one transaction. The
// content row is locked first so concurrent saves serialize and each
// gets a distinct version number.
func (s *VersionService) recordVersion(ctx context.Context, input SaveVersionInput) (*domain.ContentVersion, error) {
	var version *domain.ContentVersion
	err := s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		contents := repos.Contents()

		if err := contents.LockForVersioning(ctx, input.ContentID); err != nil {
			return err
		}

		baseBody, baseMeta, err := s.resolveBase(ctx, contents, input)
		if err != nil {
			return err
		}

		next, err := contents.NextVersionNumber(ctx, input.ContentID)
		if err != nil {
			return err
		}

		lineDiff, err := diff.ComputeLines(baseBody, input.Body)
		if err != nil {
			return err
		}

		v := &domain.ContentVersion{
			ID:            s.uuidGen.NewString(),
			ContentID:     input.ContentID,
			Version:       next,
			Body:          input.Body,
			Meta:          input.Meta,
			Diff:          diff.Compute(baseBody, input.Body),
			LineDiff:      lineDiff,
			ChangedFields: diff.ChangedFields(baseBody, baseMeta, input.Body, input.Meta),
			UserID:        input.UserID,
			CreatedAt:     time.Now().UTC(),
		}
		if err := contents.CreateVersion(ctx, v); err != nil {
			return err
		}
		if err := contents.SetCurrentVersion(ctx, input.ContentID, next); err != nil {
			return err
		}
		version = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return version, nil
}

func (s *VersionService) resolveBase(ctx context.Context, contents ContentRepositoryInterface, input SaveVersionInput) (string, domain.ContentMeta, error) {
	if input.BaseVersion != nil {
		base, err := contents.GetVersion(ctx, input.ContentID, *input.BaseVersion)
		if err != nil {
			return "", domain.ContentMeta{}, err
		}
		return base.Body, base.Meta, nil
	}

	base, err := contents.GetLatestVersion(ctx, input.ContentID)
	if errors.Is(err, domain.ErrContentVersionNotFound) {
		return "", domain.ContentMeta{}, nil
	}
	if err != nil {
		return "", domain.ContentMeta{}, err
	}
	return base.Body, base.Meta, nil
}

// GetVersion returns one stored snapshot of a content.
func (s *VersionService) GetVersion(ctx context.Context, contentID string, version int64) (*domain.ContentVersion, error) {
	return s.contentRepo.GetVersion(ctx, contentID, version)
}

// ListVersions returns all snapshots of a content, newest first.
func (s *VersionService) ListVersions(ctx context.Context, contentID string) ([]*domain.ContentVersion, error) {
	return s.contentRepo.ListVersions(ctx, contentID)
}
