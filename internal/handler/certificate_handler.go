package handler

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jizzpi-arm/book-deposit-api/internal/dto"
	"github.com/jizzpi-arm/book-deposit-api/internal/service"
	"github.com/jizzpi-arm/book-deposit-api/pkg/response"
)

type documentService interface {
	Links(ctx context.Context, id string) (*dto.DocumentLinks, error)
	Open(token string) (*os.File, string, error)
}

// CertificateHandler serves certificate download links and the signed
// downloads themselves.
type CertificateHandler struct {
	service documentService
	metrics *service.MetricsService
}

// NewCertificateHandler creates a new handler.
func NewCertificateHandler(svc documentService, metrics *service.MetricsService) *CertificateHandler {
	return &CertificateHandler{service: svc, metrics: metrics}
}

// Documents godoc
// @Summary Certificate download links
// @Description Signed download URLs for an accepted submission's documents
// @Tags Documents
// @Produce json
// @Param id path string true "Submission id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /submissions/{id}/documents [get]
func (h *CertificateHandler) Documents(c *gin.Context) {
	links, err := h.service.Links(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, links, nil)
}

// Download godoc
// @Summary Download a certificate
// @Description Stream the PDF behind a signed download token
// @Tags Documents
// @Produce application/pdf
// @Param token path string true "Signed download token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /documents/{token} [get]
func (h *CertificateHandler) Download(c *gin.Context) {
	file, name, err := h.service.Open(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	h.metrics.CountDocumentDownload()
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))

	modTime := time.Time{}
	if info, statErr := file.Stat(); statErr == nil {
		modTime = info.ModTime()
	}
	c.Header("Content-Type", "application/pdf")
	http.ServeContent(c.Writer, c.Request, name, modTime, file)
}
