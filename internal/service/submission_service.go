package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jizzpi-arm/book-deposit-api/internal/dto"
	"github.com/jizzpi-arm/book-deposit-api/internal/models"
	appErrors "github.com/jizzpi-arm/book-deposit-api/pkg/errors"
)

type submissionStore interface {
	Create(ctx context.Context, sub *models.BookSubmission) error
	GetByID(ctx context.Context, id string) (*models.BookSubmission, error)
	UpdateStatus(ctx context.Context, id string, status models.SubmissionStatus) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.SubmissionFilter) ([]models.BookSubmission, error)
	Count(ctx context.Context, filter models.SubmissionFilter) (int, error)
	CountByStatus(ctx context.Context, from, until *time.Time) (*models.StatusCounts, error)
}

type auditLogger interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

type changeFeed interface {
	NotifyChanged(ctx context.Context)
}

// StatsCache is the cache surface the dashboard counters use. A nil
// StatsCache disables caching entirely.
type StatsCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type documentIssuer interface {
	EnqueuePrerender(id string)
	RemoveFor(id string) error
}

// SubmissionConfig tunes service behaviour.
type SubmissionConfig struct {
	// MaxBooks caps the form payload, mirroring the entry UI. The store
	// beneath enforces no upper bound.
	MaxBooks int
	StatsTTL time.Duration
}

// SubmissionService owns the record lifecycle: creation with server-side
// field assignment, the guarded status transition table, unconditional
// deletion, and the dashboard read models. It is the sole publisher of
// collection change notifications.
type SubmissionService struct {
	repo      submissionStore
	audit     auditLogger
	feed      changeFeed
	cache     StatsCache
	documents documentIssuer
	validator *validator.Validate
	logger    *zap.Logger
	cfg       SubmissionConfig
	now       func() time.Time
}

// NewSubmissionService constructs the service.
func NewSubmissionService(repo submissionStore, audit auditLogger, feed changeFeed, cache StatsCache, documents documentIssuer, validate *validator.Validate, logger *zap.Logger, cfg SubmissionConfig) *SubmissionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.StatsTTL <= 0 {
		cfg.StatsTTL = 5 * time.Minute
	}
	return &SubmissionService{
		repo:      repo,
		audit:     audit,
		feed:      feed,
		cache:     cache,
		documents: documents,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create validates the staff form payload and persists a new PENDING
// record. The id, status and submittedAt come from the store, never the
// client. A failed write surfaces as StoreUnavailable and leaves nothing
// behind, so the form can be resubmitted as-is.
func (s *SubmissionService) Create(ctx context.Context, req dto.CreateSubmissionRequest) (*models.BookSubmission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}
	if s.cfg.MaxBooks > 0 && len(req.Books) > s.cfg.MaxBooks {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("at most %d books per submission", s.cfg.MaxBooks))
	}

	sub := &models.BookSubmission{
		FullName:       strings.TrimSpace(req.FullName),
		Institution:    strings.TrimSpace(req.Institution),
		Department:     strings.TrimSpace(req.Department),
		Position:       strings.TrimSpace(req.Position),
		IsExternal:     req.IsExternal,
		SubmissionDate: strings.TrimSpace(req.SubmissionDate),
		Books:          models.BookList(req.Books),
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to store submission")
	}

	s.afterChange(ctx)
	return sub, nil
}

// Get returns a single record by id.
func (s *SubmissionService) Get(ctx context.Context, id string) (*models.BookSubmission, error) {
	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to fetch submission")
	}
	return sub, nil
}

// UpdateStatus applies a reviewer decision. Only the transitions
// PENDING->RECEIVED and PENDING->REJECTED exist; anything else is a
// conflict, not a silent overwrite. receivedAt is stamped on acceptance
// and absent otherwise.
func (s *SubmissionService) UpdateStatus(ctx context.Context, id string, status models.SubmissionStatus, actor *models.JWTClaims) (*models.BookSubmission, error) {
	if status != models.StatusReceived && status != models.StatusRejected {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot transition to %s", status))
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Either the record is gone or it already left PENDING.
			if _, getErr := s.repo.GetByID(ctx, id); getErr != nil {
				if errors.Is(getErr, sql.ErrNoRows) {
					return nil, appErrors.ErrNotFound
				}
				return nil, appErrors.Wrap(getErr, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to fetch submission")
			}
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "submission has already been reviewed")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to update submission status")
	}

	sub, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, actor, models.AuditActionStatusChange, id, map[string]interface{}{"status": status})
	if status == models.StatusReceived && s.documents != nil {
		s.documents.EnqueuePrerender(id)
	}
	s.afterChange(ctx)
	return sub, nil
}

// Delete removes the record unconditionally and irreversibly. Because
// verification resolves ids against live records only, deletion is also
// revocation; the audit entry keeps the trace.
func (s *SubmissionService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	old, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to delete submission")
	}

	oldValues, _ := json.Marshal(old)
	s.emitAuditRaw(ctx, actor, models.AuditActionSubmissionDelete, id, oldValues, nil)

	if s.documents != nil {
		if err := s.documents.RemoveFor(id); err != nil {
			s.logger.Warn("failed to remove stored documents", zap.String("submission_id", id), zap.Error(err))
		}
	}
	s.afterChange(ctx)
	return nil
}

// List returns the admin dashboard page for the query.
func (s *SubmissionService) List(ctx context.Context, query dto.SubmissionQuery) ([]models.BookSubmission, *models.Pagination, error) {
	filter, err := s.buildFilter(query)
	if err != nil {
		return nil, nil, err
	}

	subs, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to list submissions")
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to count submissions")
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	return subs, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Stats returns status counters for the period, cached briefly.
func (s *SubmissionService) Stats(ctx context.Context, period models.Period) (*models.StatusCounts, error) {
	if period == "" {
		period = models.PeriodAll
	}
	if !period.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown period %q", period))
	}

	cacheKey := "submissions:stats:" + string(period)
	if s.cache != nil {
		var cached models.StatusCounts
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	from, until := periodBounds(s.now(), period)
	counts, err := s.repo.CountByStatus(ctx, from, until)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to count submissions")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, counts, s.cfg.StatsTTL); err != nil {
			s.logger.Warn("failed to cache submission stats", zap.Error(err))
		}
	}
	return counts, nil
}

func (s *SubmissionService) buildFilter(query dto.SubmissionQuery) (models.SubmissionFilter, error) {
	period := query.Period
	if period == "" {
		period = models.PeriodAll
	}
	if !period.Valid() {
		return models.SubmissionFilter{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown period %q", period))
	}
	for _, status := range query.Status {
		if !status.Valid() {
			return models.SubmissionFilter{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", status))
		}
	}

	from, until := periodBounds(s.now(), period)
	return models.SubmissionFilter{
		Status:   query.Status,
		Search:   strings.TrimSpace(query.Search),
		From:     from,
		Until:    until,
		Page:     query.Page,
		PageSize: query.Limit,
	}, nil
}

// periodBounds translates a dashboard window into submittedAt bounds.
// daily and monthly and yearly are calendar windows; weekly is a rolling
// seven days, matching the entry UI.
func periodBounds(now time.Time, period models.Period) (*time.Time, *time.Time) {
	switch period {
	case models.PeriodDaily:
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		return &start, nil
	case models.PeriodWeekly:
		start := now.Add(-7 * 24 * time.Hour)
		return &start, nil
	case models.PeriodMonthly:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return &start, nil
	case models.PeriodYearly:
		start := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
		return &start, nil
	default:
		return nil, nil
	}
}

func (s *SubmissionService) afterChange(ctx context.Context) {
	if s.cache != nil {
		if err := s.cache.DeleteByPattern(ctx, "submissions:stats:*"); err != nil {
			s.logger.Warn("failed to invalidate stats cache", zap.Error(err))
		}
	}
	if s.feed != nil {
		s.feed.NotifyChanged(ctx)
	}
}

func (s *SubmissionService) emitAudit(ctx context.Context, actor *models.JWTClaims, action, resourceID string, newValues map[string]interface{}) {
	payload, _ := json.Marshal(newValues)
	s.emitAuditRaw(ctx, actor, action, resourceID, nil, payload)
}

func (s *SubmissionService) emitAuditRaw(ctx context.Context, actor *models.JWTClaims, action, resourceID string, oldValues, newValues []byte) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{
		Action:     action,
		Resource:   "submission",
		ResourceID: &resourceID,
		OldValues:  oldValues,
		NewValues:  newValues,
	}
	if actor != nil {
		log.UserID = &actor.UserID
	}
	if err := s.audit.Create(ctx, log); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
	}
}
