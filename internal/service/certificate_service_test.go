package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jizzpi-arm/book-deposit-api/internal/certificate"
	"github.com/jizzpi-arm/book-deposit-api/internal/models"
	appErrors "github.com/jizzpi-arm/book-deposit-api/pkg/errors"
	"github.com/jizzpi-arm/book-deposit-api/pkg/storage"
)

func receivedSubmission(id string) *models.BookSubmission {
	received := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	return &models.BookSubmission{
		ID:          id,
		FullName:    "Aziza Karimova",
		Institution: "JizzPI",
		Department:  "Axborot texnologiyalari",
		Position:    "Dotsent",
		Status:      models.StatusReceived,
		SubmittedAt: received.Add(-24 * time.Hour),
		ReceivedAt:  &received,
		Books: models.BookList{
			{Title: "Algoritmlar asoslari", Type: "Darslik", Authors: "A. Karimova", Quantity: 2},
		},
	}
}

func newTestDocumentService(t *testing.T, finder *fakeFinder) *DocumentService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	renderer := certificate.NewRenderer(certificate.Config{
		Institution: "Jizzax politexnika instituti",
		Ministry:    "O'zbekiston Respublikasi Oliy ta'lim vazirligi",
		BaseURL:     "https://arm.jizzpi.uz",
		QRSize:      256,
	})
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	return NewDocumentService(finder, renderer, store, signer, zap.NewNop(), DocumentConfig{})
}

func TestLinksRendersAndSignsBothDocuments(t *testing.T) {
	sub := receivedSubmission("sub-1")
	svc := newTestDocumentService(t, &fakeFinder{sub: sub})

	links, err := svc.Links(context.Background(), sub.ID)

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(links.Reference, "/api/v1/documents/"))
	assert.True(t, strings.HasPrefix(links.Consent, "/api/v1/documents/"))
	assert.NotEqual(t, links.Reference, links.Consent)
	assert.Greater(t, links.ExpiresAt, time.Now().Unix())

	assert.True(t, svc.store.Exists(certificate.Filename(sub.ID, certificate.KindReference)))
	assert.True(t, svc.store.Exists(certificate.Filename(sub.ID, certificate.KindConsent)))
}

func TestLinksRefusedBeforeAcceptance(t *testing.T) {
	sub := receivedSubmission("sub-1")
	sub.Status = models.StatusPending
	sub.ReceivedAt = nil
	svc := newTestDocumentService(t, &fakeFinder{sub: sub})

	_, err := svc.Links(context.Background(), sub.ID)

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotReceived.Code, appErrors.FromError(err).Code)
}

func TestOpenServesSignedDocument(t *testing.T) {
	sub := receivedSubmission("sub-1")
	svc := newTestDocumentService(t, &fakeFinder{sub: sub})

	links, err := svc.Links(context.Background(), sub.ID)
	require.NoError(t, err)

	token := strings.TrimPrefix(links.Reference, "/api/v1/documents/")
	file, name, err := svc.Open(token)

	require.NoError(t, err)
	defer file.Close()
	assert.Equal(t, "malumotnoma.pdf", name)

	data, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))
}

func TestOpenRejectsTamperedToken(t *testing.T) {
	svc := newTestDocumentService(t, &fakeFinder{sub: receivedSubmission("sub-1")})

	_, _, err := svc.Open("not-a-real-token")

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestPrerenderSkipsNonReceived(t *testing.T) {
	sub := receivedSubmission("sub-1")
	sub.Status = models.StatusRejected
	sub.ReceivedAt = nil
	svc := newTestDocumentService(t, &fakeFinder{sub: sub})

	require.NoError(t, svc.Prerender(context.Background(), sub.ID))
	assert.False(t, svc.store.Exists(certificate.Filename(sub.ID, certificate.KindReference)))
}

func TestRemoveForDeletesStoredDocuments(t *testing.T) {
	sub := receivedSubmission("sub-1")
	svc := newTestDocumentService(t, &fakeFinder{sub: sub})

	_, err := svc.Links(context.Background(), sub.ID)
	require.NoError(t, err)
	require.True(t, svc.store.Exists(certificate.Filename(sub.ID, certificate.KindReference)))

	require.NoError(t, svc.RemoveFor(sub.ID))
	assert.False(t, svc.store.Exists(certificate.Filename(sub.ID, certificate.KindReference)))
}
