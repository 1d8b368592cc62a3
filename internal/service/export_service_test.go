package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jizzpi-arm/book-deposit-api/internal/models"
	appErrors "github.com/jizzpi-arm/book-deposit-api/pkg/errors"
)

type fakeLister struct {
	subs []models.BookSubmission
	err  error
}

func (f *fakeLister) ListAll(ctx context.Context) ([]models.BookSubmission, error) {
	return f.subs, f.err
}

func exportFixture() []models.BookSubmission {
	return []models.BookSubmission{
		{
			FullName:    "Aziza Karimova",
			Institution: "JizzPI",
			Department:  "Axborot texnologiyalari",
			Position:    "Dotsent",
			Status:      models.StatusReceived,
			SubmittedAt: time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
			Books: models.BookList{
				{Title: "Algoritmlar", Type: "Darslik", Authors: "A. Karimova", Quantity: 2},
				{Title: "Fizika", Type: "Qo'llanma", Authors: "B. Tursunov", Quantity: 1},
			},
		},
		{
			FullName:    "Bekzod Tursunov",
			Institution: "JizzPI",
			Department:  "Mexanika",
			Position:    "Assistent",
			Status:      models.StatusRejected,
			SubmittedAt: time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC),
			Books: models.BookList{
				{Title: "Nazariy mexanika", Type: "Darslik", Authors: "B. Tursunov", Quantity: 4},
			},
		},
	}
}

func parseCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	require.True(t, bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}), "missing UTF-8 BOM")
	records, err := csv.NewReader(bytes.NewReader(data[3:])).ReadAll()
	require.NoError(t, err)
	return records
}

func TestGenerateReportColumnsAndLabels(t *testing.T) {
	svc := NewExportService(&fakeLister{subs: exportFixture()}, zap.NewNop())

	filename, data, err := svc.Generate(context.Background(), models.PeriodAll)

	require.NoError(t, err)
	assert.Equal(t, "ARM_Hisobot_all.csv", filename)

	records := parseCSV(t, data)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"F.I.Sh", "Muassasa", "Kafedra", "Lavozim", "Kitoblar Soni", "Holati", "Sana"}, records[0])
	// Kitoblar Soni counts entries (two books), not the three copies.
	assert.Equal(t, []string{"Aziza Karimova", "JizzPI", "Axborot texnologiyalari", "Dotsent", "2", "Qabul", "20.08.2026"}, records[1])
	// Rejected rows read the same as pending ones in the registry report.
	assert.Equal(t, "Kutilmoqda", records[2][5])
}

func TestGenerateReportFiltersByPeriod(t *testing.T) {
	svc := NewExportService(&fakeLister{subs: exportFixture()}, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC) }

	filename, data, err := svc.Generate(context.Background(), models.PeriodMonthly)

	require.NoError(t, err)
	assert.Equal(t, "ARM_Hisobot_monthly.csv", filename)

	records := parseCSV(t, data)
	require.Len(t, records, 2)
	assert.Equal(t, "Aziza Karimova", records[1][0])
}

func TestGenerateReportEmptyPeriodStillHasHeaders(t *testing.T) {
	svc := NewExportService(&fakeLister{}, zap.NewNop())

	_, data, err := svc.Generate(context.Background(), models.PeriodDaily)

	require.NoError(t, err)
	records := parseCSV(t, data)
	require.Len(t, records, 1)
}

func TestGenerateReportUnknownPeriod(t *testing.T) {
	svc := NewExportService(&fakeLister{}, zap.NewNop())

	_, _, err := svc.Generate(context.Background(), models.Period("quarterly"))

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestGenerateReportStoreOutage(t *testing.T) {
	svc := NewExportService(&fakeLister{err: errors.New("connection refused")}, zap.NewNop())

	_, _, err := svc.Generate(context.Background(), models.PeriodAll)

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrStoreUnavailable.Code, appErrors.FromError(err).Code)
}
