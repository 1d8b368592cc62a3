package certificate

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jizzpi-arm/book-deposit-api/internal/models"
)

func sampleSubmission() *models.BookSubmission {
	return &models.BookSubmission{
		ID:             "7f3c9a44-1b2d-4e5f-8a6b-0c1d2e3f4a5b",
		FullName:       "Alisherov Olimjon",
		Institution:    "Jizzax Politexnika Instituti",
		Department:     "Fizika",
		Position:       "Dotsent",
		SubmissionDate: "2024-03-05",
		Status:         models.StatusReceived,
		Books: models.BookList{
			{Title: "Fizika asoslari", Type: "Darslik", Authors: "Karimov A.", ISBN: "978-9943-01", Quantity: 1, PublishedYear: 2020},
			{Title: "Mexanika", Type: "O'quv qo'llanma", Authors: "Toirov S.", Quantity: 1, PublishedYear: 2019},
		},
	}
}

func testRenderer() *Renderer {
	return NewRenderer(Config{
		Institution: "JIZZAX POLITEXNIKA INSTITUTI",
		BaseURL:     "https://arm.jizzpi.uz",
		QRSize:      100,
	})
}

func TestVerifyURL(t *testing.T) {
	url := VerifyURL("https://arm.jizzpi.uz", "abc-123")
	require.Equal(t, "https://arm.jizzpi.uz/?verify=abc-123", url)
}

func TestQRPNGProducesImage(t *testing.T) {
	png, err := QRPNG("https://arm.jizzpi.uz/?verify=abc-123", 100)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}

func TestRendererReference(t *testing.T) {
	pdf, err := testRenderer().Reference(sampleSubmission())
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
	require.Greater(t, len(pdf), 1000)
}

func TestRendererConsent(t *testing.T) {
	pdf, err := testRenderer().Consent(sampleSubmission())
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
	require.Greater(t, len(pdf), 1000)
}

func TestRendererConsentManyBooksUsesCompactLayout(t *testing.T) {
	sub := sampleSubmission()
	for i := 0; i < 4; i++ {
		sub.Books = append(sub.Books, models.BookItem{
			Title: "Qo'shimcha adabiyot", Type: "Monografiya", Authors: "Karimov A.", Quantity: 1, PublishedYear: 2021,
		})
	}
	pdf, err := testRenderer().Consent(sub)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
}

func TestRendererRenderDispatch(t *testing.T) {
	r := testRenderer()
	sub := sampleSubmission()

	ref, err := r.Render(sub, KindReference)
	require.NoError(t, err)
	consent, err := r.Render(sub, KindConsent)
	require.NoError(t, err)
	require.NotEqual(t, ref, consent)

	_, err = r.Render(sub, Kind("unknown"))
	require.Error(t, err)
	_, err = r.Render(nil, KindReference)
	require.Error(t, err)
}

func TestFilename(t *testing.T) {
	require.Equal(t, "sub-1/malumotnoma.pdf", Filename("sub-1", KindReference))
	require.Equal(t, "sub-1/rozilik-xati.pdf", Filename("sub-1", KindConsent))
}
