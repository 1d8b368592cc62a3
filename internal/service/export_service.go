package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/jizzpi-arm/book-deposit-api/internal/models"
	appErrors "github.com/jizzpi-arm/book-deposit-api/pkg/errors"
	"github.com/jizzpi-arm/book-deposit-api/pkg/export"
)

type submissionLister interface {
	ListAll(ctx context.Context) ([]models.BookSubmission, error)
}

// exportHeaders are the spreadsheet columns, in Uzbek, in the order the
// registry office expects them.
var exportHeaders = []string{
	"F.I.Sh",
	"Muassasa",
	"Kafedra",
	"Lavozim",
	"Kitoblar Soni",
	"Holati",
	"Sana",
}

// ExportService produces the downloadable CSV report of submissions for a
// dashboard period.
type ExportService struct {
	repo     submissionLister
	exporter *export.CSVExporter
	logger   *zap.Logger
	now      func() time.Time
}

// NewExportService constructs the service.
func NewExportService(repo submissionLister, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		repo:     repo,
		exporter: export.NewCSVExporter(),
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Generate renders the CSV for the period and returns the suggested
// download filename alongside the bytes. Status labels collapse to two
// values: everything not yet accepted reads "Kutilmoqda".
func (s *ExportService) Generate(ctx context.Context, period models.Period) (string, []byte, error) {
	if period == "" {
		period = models.PeriodAll
	}
	if !period.Valid() {
		return "", nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown period %q", period))
	}

	subs, err := s.repo.ListAll(ctx)
	if err != nil {
		return "", nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to list submissions")
	}

	from, _ := periodBounds(s.now(), period)
	rows := make([]map[string]string, 0, len(subs))
	for _, sub := range subs {
		if from != nil && sub.SubmittedAt.Before(*from) {
			continue
		}
		rows = append(rows, exportRow(sub))
	}

	data, err := s.exporter.Render(export.Dataset{Headers: exportHeaders, Rows: rows})
	if err != nil {
		return "", nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}

	filename := fmt.Sprintf("ARM_Hisobot_%s.csv", period)
	return filename, data, nil
}

func exportRow(sub models.BookSubmission) map[string]string {
	return map[string]string{
		"F.I.Sh":        sub.FullName,
		"Muassasa":      sub.Institution,
		"Kafedra":       sub.Department,
		"Lavozim":       sub.Position,
		// Entry count, not copy count; quantity is informational only.
		"Kitoblar Soni": strconv.Itoa(len(sub.Books)),
		"Holati":        statusLabel(sub.Status),
		"Sana":          sub.SubmittedAt.Format("02.01.2006"),
	}
}

func statusLabel(status models.SubmissionStatus) string {
	if status == models.StatusReceived {
		return "Qabul"
	}
	return "Kutilmoqda"
}
