package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jizzpi-arm/book-deposit-api/internal/dto"
	"github.com/jizzpi-arm/book-deposit-api/internal/models"
	appErrors "github.com/jizzpi-arm/book-deposit-api/pkg/errors"
)

type fakeStore struct {
	createErr    error
	created      *models.BookSubmission
	byID         map[string]*models.BookSubmission
	getErr       error
	updateErr    error
	updated      []models.SubmissionStatus
	deleteErr    error
	deleted      []string
	listResult   []models.BookSubmission
	listFilter   models.SubmissionFilter
	countResult  int
	countsResult *models.StatusCounts
	countsFrom   *time.Time
}

func (f *fakeStore) Create(ctx context.Context, sub *models.BookSubmission) error {
	if f.createErr != nil {
		return f.createErr
	}
	sub.ID = "11111111-2222-3333-4444-555555555555"
	sub.Status = models.StatusPending
	sub.SubmittedAt = time.Now().UTC()
	f.created = sub
	return nil
}

func (f *fakeStore) GetByID(ctx context.Context, id string) (*models.BookSubmission, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	sub, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return sub, nil
}

func (f *fakeStore) UpdateStatus(ctx context.Context, id string, status models.SubmissionStatus) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated = append(f.updated, status)
	if sub, ok := f.byID[id]; ok {
		sub.Status = status
	}
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	delete(f.byID, id)
	return nil
}

func (f *fakeStore) List(ctx context.Context, filter models.SubmissionFilter) ([]models.BookSubmission, error) {
	f.listFilter = filter
	return f.listResult, nil
}

func (f *fakeStore) Count(ctx context.Context, filter models.SubmissionFilter) (int, error) {
	return f.countResult, nil
}

func (f *fakeStore) CountByStatus(ctx context.Context, from, until *time.Time) (*models.StatusCounts, error) {
	f.countsFrom = from
	if f.countsResult == nil {
		return &models.StatusCounts{}, nil
	}
	return f.countsResult, nil
}

type fakeAudit struct {
	logs []*models.AuditLog
}

func (f *fakeAudit) Create(ctx context.Context, log *models.AuditLog) error {
	f.logs = append(f.logs, log)
	return nil
}

type fakeFeed struct {
	notified int
}

func (f *fakeFeed) NotifyChanged(ctx context.Context) { f.notified++ }

type fakeIssuer struct {
	enqueued []string
	removed  []string
}

func (f *fakeIssuer) EnqueuePrerender(id string) { f.enqueued = append(f.enqueued, id) }
func (f *fakeIssuer) RemoveFor(id string) error { f.removed = append(f.removed, id); return nil }

func newTestService(store *fakeStore) (*SubmissionService, *fakeAudit, *fakeFeed, *fakeIssuer) {
	audit := &fakeAudit{}
	feed := &fakeFeed{}
	issuer := &fakeIssuer{}
	svc := NewSubmissionService(store, audit, feed, nil, issuer, validator.New(), zap.NewNop(), SubmissionConfig{MaxBooks: 6})
	return svc, audit, feed, issuer
}

func validCreateRequest() dto.CreateSubmissionRequest {
	return dto.CreateSubmissionRequest{
		FullName:    "Aziza Karimova",
		Institution: "JizzPI",
		Department:  "Axborot texnologiyalari",
		Position:    "Dotsent",
		Books: []models.BookItem{
			{Title: "Algoritmlar asoslari", Type: "Darslik", Authors: "A. Karimova", Quantity: 2},
		},
	}
}

func TestCreateAssignsServerFields(t *testing.T) {
	store := &fakeStore{}
	svc, _, feed, _ := newTestService(store)

	sub, err := svc.Create(context.Background(), validCreateRequest())

	require.NoError(t, err)
	assert.NotEmpty(t, sub.ID)
	assert.Equal(t, models.StatusPending, sub.Status)
	assert.False(t, sub.SubmittedAt.IsZero())
	assert.Nil(t, sub.ReceivedAt)
	assert.Equal(t, 1, feed.notified)
}

func TestCreateRejectsEmptyBooks(t *testing.T) {
	store := &fakeStore{}
	svc, _, feed, _ := newTestService(store)

	req := validCreateRequest()
	req.Books = nil
	_, err := svc.Create(context.Background(), req)

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Nil(t, store.created)
	assert.Zero(t, feed.notified)
}

func TestCreateRejectsIncompleteBookRow(t *testing.T) {
	store := &fakeStore{}
	svc, _, _, _ := newTestService(store)

	req := validCreateRequest()
	req.Books[0].Authors = ""
	_, err := svc.Create(context.Background(), req)

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCreateEnforcesBookCap(t *testing.T) {
	store := &fakeStore{}
	svc, _, _, _ := newTestService(store)

	req := validCreateRequest()
	for i := 0; i < 7; i++ {
		req.Books = append(req.Books, req.Books[0])
	}
	_, err := svc.Create(context.Background(), req)

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCreateStoreFailureLeavesNothingBehind(t *testing.T) {
	store := &fakeStore{createErr: errors.New("connection refused")}
	svc, _, feed, _ := newTestService(store)

	_, err := svc.Create(context.Background(), validCreateRequest())

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrStoreUnavailable.Code, appErrors.FromError(err).Code)
	assert.Zero(t, feed.notified)
}

func TestUpdateStatusAcceptsPending(t *testing.T) {
	id := "sub-1"
	store := &fakeStore{byID: map[string]*models.BookSubmission{
		id: {ID: id, Status: models.StatusPending},
	}}
	svc, audit, feed, issuer := newTestService(store)

	actor := &models.JWTClaims{UserID: "admin-1"}
	sub, err := svc.UpdateStatus(context.Background(), id, models.StatusReceived, actor)

	require.NoError(t, err)
	assert.Equal(t, models.StatusReceived, sub.Status)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionStatusChange, audit.logs[0].Action)
	assert.Equal(t, []string{id}, issuer.enqueued)
	assert.Equal(t, 1, feed.notified)
}

func TestUpdateStatusRejectDoesNotPrerender(t *testing.T) {
	id := "sub-1"
	store := &fakeStore{byID: map[string]*models.BookSubmission{
		id: {ID: id, Status: models.StatusPending},
	}}
	svc, _, _, issuer := newTestService(store)

	_, err := svc.UpdateStatus(context.Background(), id, models.StatusRejected, nil)

	require.NoError(t, err)
	assert.Empty(t, issuer.enqueued)
}

func TestUpdateStatusRefusesPendingTarget(t *testing.T) {
	svc, _, _, _ := newTestService(&fakeStore{})

	_, err := svc.UpdateStatus(context.Background(), "sub-1", models.StatusPending, nil)

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestUpdateStatusAlreadyReviewedIsConflict(t *testing.T) {
	id := "sub-1"
	store := &fakeStore{
		updateErr: sql.ErrNoRows,
		byID: map[string]*models.BookSubmission{
			id: {ID: id, Status: models.StatusReceived},
		},
	}
	svc, _, feed, _ := newTestService(store)

	_, err := svc.UpdateStatus(context.Background(), id, models.StatusRejected, nil)

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
	assert.Zero(t, feed.notified)
}

func TestUpdateStatusMissingRecordIsNotFound(t *testing.T) {
	store := &fakeStore{updateErr: sql.ErrNoRows, byID: map[string]*models.BookSubmission{}}
	svc, _, _, _ := newTestService(store)

	_, err := svc.UpdateStatus(context.Background(), "ghost", models.StatusReceived, nil)

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDeleteRemovesRecordAndDocuments(t *testing.T) {
	id := "sub-1"
	store := &fakeStore{byID: map[string]*models.BookSubmission{
		id: {ID: id, Status: models.StatusReceived},
	}}
	svc, audit, feed, issuer := newTestService(store)

	err := svc.Delete(context.Background(), id, &models.JWTClaims{UserID: "admin-1"})

	require.NoError(t, err)
	assert.Equal(t, []string{id}, store.deleted)
	assert.Equal(t, []string{id}, issuer.removed)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionSubmissionDelete, audit.logs[0].Action)
	assert.NotEmpty(t, audit.logs[0].OldValues)
	assert.Equal(t, 1, feed.notified)
}

func TestDeleteMissingRecordIsNotFound(t *testing.T) {
	store := &fakeStore{byID: map[string]*models.BookSubmission{}}
	svc, _, feed, _ := newTestService(store)

	err := svc.Delete(context.Background(), "ghost", nil)

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Zero(t, feed.notified)
}

func TestListTranslatesPeriodToBounds(t *testing.T) {
	store := &fakeStore{listResult: []models.BookSubmission{{ID: "a"}}, countResult: 1}
	svc, _, _, _ := newTestService(store)
	svc.now = func() time.Time { return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC) }

	_, page, err := svc.List(context.Background(), dto.SubmissionQuery{Period: models.PeriodMonthly})

	require.NoError(t, err)
	require.NotNil(t, store.listFilter.From)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), *store.listFilter.From)
	assert.Nil(t, store.listFilter.Until)
	assert.Equal(t, 1, page.TotalCount)
}

func TestListRejectsUnknownPeriod(t *testing.T) {
	svc, _, _, _ := newTestService(&fakeStore{})

	_, _, err := svc.List(context.Background(), dto.SubmissionQuery{Period: models.Period("decade")})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStatsUsesCalendarWindows(t *testing.T) {
	store := &fakeStore{countsResult: &models.StatusCounts{Total: 4, Pending: 1, Received: 2, Rejected: 1}}
	svc, _, _, _ := newTestService(store)
	svc.now = func() time.Time { return time.Date(2026, 8, 31, 9, 30, 0, 0, time.UTC) }

	counts, err := svc.Stats(context.Background(), models.PeriodYearly)

	require.NoError(t, err)
	assert.Equal(t, 4, counts.Total)
	require.NotNil(t, store.countsFrom)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), *store.countsFrom)
}

func TestStatsAllPeriodHasNoBounds(t *testing.T) {
	store := &fakeStore{countsResult: &models.StatusCounts{Total: 9}}
	svc, _, _, _ := newTestService(store)

	counts, err := svc.Stats(context.Background(), models.PeriodAll)

	require.NoError(t, err)
	assert.Equal(t, 9, counts.Total)
	assert.Nil(t, store.countsFrom)
}
