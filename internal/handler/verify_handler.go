package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jizzpi-arm/book-deposit-api/internal/dto"
	"github.com/jizzpi-arm/book-deposit-api/pkg/response"
)

type verificationService interface {
	Verify(ctx context.Context, id string) (*dto.VerificationResult, error)
}

// VerifyHandler serves the public certificate authenticity check.
type VerifyHandler struct {
	service verificationService
}

// NewVerifyHandler creates a new handler.
func NewVerifyHandler(svc verificationService) *VerifyHandler {
	return &VerifyHandler{service: svc}
}

// Verify godoc
// @Summary Verify a certificate
// @Description Resolve the identifier embedded in a certificate QR code
// @Tags Verification
// @Produce json
// @Param verify query string true "Submission id from the QR code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /verify [get]
func (h *VerifyHandler) Verify(c *gin.Context) {
	result, err := h.service.Verify(c.Request.Context(), c.Query("verify"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result, nil)
}
