package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/jizzpi-arm/book-deposit-api/internal/dto"
	"github.com/jizzpi-arm/book-deposit-api/internal/models"
	appErrors "github.com/jizzpi-arm/book-deposit-api/pkg/errors"
)

type submissionFinder interface {
	GetByID(ctx context.Context, id string) (*models.BookSubmission, error)
}

// VerificationService resolves scanned certificate identifiers against
// live records. It is deliberately read-only and unauthenticated: anyone
// holding a printed certificate can check it.
type VerificationService struct {
	repo   submissionFinder
	logger *zap.Logger
}

// NewVerificationService constructs the resolver.
func NewVerificationService(repo submissionFinder, logger *zap.Logger) *VerificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VerificationService{repo: repo, logger: logger}
}

// Verify looks up the identifier from a scanned QR code. A missing or
// deleted record yields NotFound; a store outage yields StoreUnavailable
// so the caller can distinguish "forged or revoked" from "try again
// later". Neither outcome ever shows a verified card.
func (s *VerificationService) Verify(ctx context.Context, id string) (*dto.VerificationResult, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "empty verification id")
	}

	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		s.logger.Error("verification lookup failed", zap.String("id", id), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "verification temporarily unavailable")
	}

	// The card counts entries, not copies; per-book quantity is
	// informational only.
	return &dto.VerificationResult{
		Verified:   true,
		Submission: sub,
		BookCount:  len(sub.Books),
	}, nil
}
