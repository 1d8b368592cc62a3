package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jizzpi-arm/book-deposit-api/internal/dto"
	"github.com/jizzpi-arm/book-deposit-api/internal/feed"
	"github.com/jizzpi-arm/book-deposit-api/internal/models"
	"github.com/jizzpi-arm/book-deposit-api/internal/service"
	appErrors "github.com/jizzpi-arm/book-deposit-api/pkg/errors"
	"github.com/jizzpi-arm/book-deposit-api/pkg/response"
)

const feedHeartbeat = 25 * time.Second

type submissionService interface {
	Create(ctx context.Context, req dto.CreateSubmissionRequest) (*models.BookSubmission, error)
	Get(ctx context.Context, id string) (*models.BookSubmission, error)
	UpdateStatus(ctx context.Context, id string, status models.SubmissionStatus, actor *models.JWTClaims) (*models.BookSubmission, error)
	Delete(ctx context.Context, id string, actor *models.JWTClaims) error
	List(ctx context.Context, query dto.SubmissionQuery) ([]models.BookSubmission, *models.Pagination, error)
	Stats(ctx context.Context, period models.Period) (*models.StatusCounts, error)
}

type exportService interface {
	Generate(ctx context.Context, period models.Period) (string, []byte, error)
}

type feedSource interface {
	Subscribe() (<-chan feed.Snapshot, func())
}

// SubmissionHandler wires HTTP endpoints to the submission services.
type SubmissionHandler struct {
	service submissionService
	export  exportService
	feed    feedSource
	metrics *service.MetricsService
}

// NewSubmissionHandler creates a new handler.
func NewSubmissionHandler(svc submissionService, export exportService, feed feedSource, metrics *service.MetricsService) *SubmissionHandler {
	return &SubmissionHandler{service: svc, export: export, feed: feed, metrics: metrics}
}

// Create godoc
// @Summary Submit books
// @Description Register a new book hand-over from the public staff form
// @Tags Submissions
// @Accept json
// @Produce json
// @Param payload body dto.CreateSubmissionRequest true "Submission payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /submissions [post]
func (h *SubmissionHandler) Create(c *gin.Context) {
	var req dto.CreateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid submission payload"))
		return
	}

	sub, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.metrics.CountSubmissionEvent("created")
	response.Created(c, sub)
}

// List godoc
// @Summary List submissions
// @Description List submissions with status, period and search filters
// @Tags Submissions
// @Produce json
// @Param status query string false "Status filter, comma separated"
// @Param period query string false "Period filter: all, daily, weekly, monthly, yearly"
// @Param q query string false "Search over name, institution, department and book titles"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Security BearerAuth
// @Router /submissions [get]
func (h *SubmissionHandler) List(c *gin.Context) {
	query := dto.SubmissionQuery{
		Period: models.Period(c.DefaultQuery("period", "all")),
		Search: c.Query("q"),
		Status: parseStatuses(c),
	}
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))

	subs, pagination, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, subs, pagination)
}

// Get godoc
// @Summary Get a submission
// @Tags Submissions
// @Produce json
// @Param id path string true "Submission id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /submissions/{id} [get]
func (h *SubmissionHandler) Get(c *gin.Context) {
	sub, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, sub, nil)
}

// UpdateStatus godoc
// @Summary Review a submission
// @Description Accept or reject a pending submission
// @Tags Submissions
// @Accept json
// @Produce json
// @Param id path string true "Submission id"
// @Param payload body dto.UpdateStatusRequest true "Review decision"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /submissions/{id}/status [patch]
func (h *SubmissionHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}

	sub, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	h.metrics.CountSubmissionEvent(strings.ToLower(string(req.Status)))
	response.JSON(c, http.StatusOK, sub, nil)
}

// Delete godoc
// @Summary Delete a submission
// @Description Remove a submission permanently, revoking its certificates
// @Tags Submissions
// @Param id path string true "Submission id"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /submissions/{id} [delete]
func (h *SubmissionHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}

	h.metrics.CountSubmissionEvent("deleted")
	response.NoContent(c)
}

// Stats godoc
// @Summary Submission counters
// @Description Status counters for a dashboard period
// @Tags Submissions
// @Produce json
// @Param period query string false "Period filter: all, daily, weekly, monthly, yearly"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /submissions/stats [get]
func (h *SubmissionHandler) Stats(c *gin.Context) {
	counts, err := h.service.Stats(c.Request.Context(), models.Period(c.DefaultQuery("period", "all")))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, counts, nil)
}

// Export godoc
// @Summary Export submissions report
// @Description Download the CSV registry report for a period
// @Tags Submissions
// @Produce text/csv
// @Param period query string false "Period filter: all, daily, weekly, monthly, yearly"
// @Success 200 {file} file
// @Security BearerAuth
// @Router /submissions/export [get]
func (h *SubmissionHandler) Export(c *gin.Context) {
	filename, data, err := h.export.Generate(c.Request.Context(), models.Period(c.DefaultQuery("period", "all")))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

// Feed godoc
// @Summary Live submissions feed
// @Description Server-sent events stream delivering full collection snapshots
// @Tags Submissions
// @Produce text/event-stream
// @Success 200
// @Security BearerAuth
// @Router /submissions/feed [get]
func (h *SubmissionHandler) Feed(c *gin.Context) {
	ch, unsubscribe := h.feed.Subscribe()
	defer unsubscribe()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Writer.Flush()

	heartbeat := time.NewTicker(feedHeartbeat)
	defer heartbeat.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-ch:
			if !ok {
				return
			}
			payload, err := json.Marshal(snap)
			if err != nil {
				continue
			}
			fmt.Fprintf(c.Writer, "event: snapshot\ndata: %s\n\n", payload)
			c.Writer.Flush()
		case <-heartbeat.C:
			fmt.Fprint(c.Writer, ": ping\n\n")
			c.Writer.Flush()
		}
	}
}

func parseStatuses(c *gin.Context) []models.SubmissionStatus {
	var statuses []models.SubmissionStatus
	for _, raw := range c.QueryArray("status") {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			statuses = append(statuses, models.SubmissionStatus(strings.ToUpper(part)))
		}
	}
	return statuses
}
