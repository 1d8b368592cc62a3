package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path"
	"time"

	"go.uber.org/zap"

	"github.com/jizzpi-arm/book-deposit-api/internal/certificate"
	"github.com/jizzpi-arm/book-deposit-api/internal/dto"
	"github.com/jizzpi-arm/book-deposit-api/internal/models"
	appErrors "github.com/jizzpi-arm/book-deposit-api/pkg/errors"
	"github.com/jizzpi-arm/book-deposit-api/pkg/jobs"
	"github.com/jizzpi-arm/book-deposit-api/pkg/storage"
)

const jobTypePrerender = "documents.prerender"

type documentStore interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Exists(filename string) bool
	DeletePrefix(prefix string) error
}

// DocumentConfig carries the public path under which signed downloads are
// served, e.g. /api/v1/documents.
type DocumentConfig struct {
	DownloadPath     string
	PrerenderWorkers int
}

// DocumentService renders and serves the printable certificates of an
// accepted submission. PDFs are rendered once, cached on disk, and handed
// out through short-lived signed tokens. Acceptance enqueues a background
// pre-render so the admin's first download does not pay the rendering
// cost.
type DocumentService struct {
	repo     submissionFinder
	renderer *certificate.Renderer
	store    documentStore
	signer   *storage.SignedURLSigner
	queue    *jobs.Queue
	logger   *zap.Logger
	cfg      DocumentConfig
}

// NewDocumentService constructs the service and its pre-render queue.
func NewDocumentService(repo submissionFinder, renderer *certificate.Renderer, store documentStore, signer *storage.SignedURLSigner, logger *zap.Logger, cfg DocumentConfig) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DownloadPath == "" {
		cfg.DownloadPath = "/api/v1/documents"
	}
	s := &DocumentService{
		repo:     repo,
		renderer: renderer,
		store:    store,
		signer:   signer,
		logger:   logger,
		cfg:      cfg,
	}
	s.queue = jobs.NewQueue("documents", s.handleJob, jobs.Config{
		Workers: cfg.PrerenderWorkers,
		Logger:  logger,
	})
	return s
}

// Start launches the pre-render workers.
func (s *DocumentService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the pre-render workers.
func (s *DocumentService) Stop() {
	s.queue.Stop()
}

// Links returns signed download URLs for both certificates of an accepted
// submission, rendering them first if needed. Documents exist only for
// RECEIVED records; asking earlier is a conflict, not an error in the
// request shape.
func (s *DocumentService) Links(ctx context.Context, id string) (*dto.DocumentLinks, error) {
	sub, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.Status != models.StatusReceived {
		return nil, appErrors.ErrNotReceived
	}

	refName, err := s.ensure(sub, certificate.KindReference)
	if err != nil {
		return nil, err
	}
	consentName, err := s.ensure(sub, certificate.KindConsent)
	if err != nil {
		return nil, err
	}

	refToken, expiresAt, err := s.signer.Generate(sub.ID, refName)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign document link")
	}
	consentToken, _, err := s.signer.Generate(sub.ID, consentName)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign document link")
	}

	return &dto.DocumentLinks{
		Reference: fmt.Sprintf("%s/%s", s.cfg.DownloadPath, refToken),
		Consent:   fmt.Sprintf("%s/%s", s.cfg.DownloadPath, consentToken),
		ExpiresAt: expiresAt.Unix(),
	}, nil
}

// Open resolves a signed token to the stored PDF. The returned name is
// the user-facing download filename.
func (s *DocumentService) Open(token string) (*os.File, string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid or expired document link")
	}

	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, "", appErrors.ErrNotFound
	}
	return file, path.Base(relPath), nil
}

// EnqueuePrerender schedules background rendering for a freshly accepted
// submission.
func (s *DocumentService) EnqueuePrerender(id string) {
	err := s.queue.Enqueue(jobs.Job{
		ID:      fmt.Sprintf("%s-%d", id, time.Now().UnixNano()),
		Type:    jobTypePrerender,
		Payload: id,
	})
	if err != nil {
		s.logger.Warn("failed to enqueue document prerender", zap.String("submission_id", id), zap.Error(err))
	}
}

// RemoveFor deletes all stored documents of a submission. Called on
// submission deletion so revoked certificates stop being downloadable.
func (s *DocumentService) RemoveFor(id string) error {
	return s.store.DeletePrefix(id)
}

// Prerender renders both certificates for the submission if it is still
// RECEIVED. A record that was deleted or never accepted is skipped, not
// retried.
func (s *DocumentService) Prerender(ctx context.Context, id string) error {
	sub, err := s.fetch(ctx, id)
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) && appErr.Code == appErrors.ErrNotFound.Code {
			return nil
		}
		return err
	}
	if sub.Status != models.StatusReceived {
		return nil
	}

	if _, err := s.ensure(sub, certificate.KindReference); err != nil {
		return err
	}
	_, err = s.ensure(sub, certificate.KindConsent)
	return err
}

func (s *DocumentService) handleJob(ctx context.Context, job jobs.Job) error {
	id, ok := job.Payload.(string)
	if !ok {
		s.logger.Error("malformed prerender job payload", zap.String("job_id", job.ID))
		return nil
	}
	return s.Prerender(ctx, id)
}

func (s *DocumentService) fetch(ctx context.Context, id string) (*models.BookSubmission, error) {
	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to fetch submission")
	}
	return sub, nil
}

func (s *DocumentService) ensure(sub *models.BookSubmission, kind certificate.Kind) (string, error) {
	name := certificate.Filename(sub.ID, kind)
	if s.store.Exists(name) {
		return name, nil
	}

	data, err := s.renderer.Render(sub, kind)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render document")
	}
	if _, err := s.store.Save(name, data); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store document")
	}
	return name, nil
}
