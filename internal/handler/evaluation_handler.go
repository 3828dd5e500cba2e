package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hackeval/hackeval-api/internal/models"
	"github.com/hackeval/hackeval-api/internal/service"
	appErrors "github.com/hackeval/hackeval-api/pkg/errors"
	"github.com/hackeval/hackeval-api/pkg/response"
)

// EvaluationHandler wires HTTP endpoints to the evaluation service.
type EvaluationHandler struct {
	service *service.EvaluationService
	export  *service.ExportService
}

// NewEvaluationHandler creates a new handler.
func NewEvaluationHandler(svc *service.EvaluationService, export *service.ExportService) *EvaluationHandler {
	return &EvaluationHandler{service: svc, export: export}
}

// Create godoc
// @Summary Grade a conversation
// @Description Record the calling examiner's note for a conversation; one grade per examiner per conversation
// @Tags Evaluations
// @Accept json
// @Produce json
// @Param payload body models.CreateEvaluationRequest true "Evaluation payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /evaluations [post]
func (h *EvaluationHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.CreateEvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid evaluation payload"))
		return
	}

	ev, err := h.service.Create(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, ev, nil)
}

// ListMine godoc
// @Summary List own evaluations
// @Description Returns the calling examiner's grades; "all" disables a filter
// @Tags Evaluations
// @Produce json
// @Param hackathonId query string false "Hackathon id or all"
// @Param taskId query string false "Task id or all"
// @Success 200 {object} response.Envelope
// @Router /evaluations [get]
func (h *EvaluationHandler) ListMine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	items, err := h.service.ListByExaminer(c.Request.Context(), claims.UserID, evaluationFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, items, nil)
}

// ListByExaminer godoc
// @Summary List an examiner's evaluations
// @Description Examiners can read their own grades; admins can read any examiner's
// @Tags Evaluations
// @Produce json
// @Param id path string true "Examiner id"
// @Param hackathonId query string false "Hackathon id or all"
// @Param taskId query string false "Task id or all"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /evaluations/examiner/{id} [get]
func (h *EvaluationHandler) ListByExaminer(c *gin.Context) {
	items, err := h.service.ListByExaminer(c.Request.Context(), c.Param("id"), evaluationFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, items, nil)
}

// ListByStudent godoc
// @Summary List a student's evaluations
// @Tags Evaluations
// @Produce json
// @Param id path string true "Student id"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /evaluations/student/{id} [get]
func (h *EvaluationHandler) ListByStudent(c *gin.Context) {
	items, err := h.service.ListByStudent(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, items, nil)
}

// Export godoc
// @Summary Export own evaluations
// @Description Download the calling examiner's grades as CSV or PDF
// @Tags Evaluations
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Param hackathonId query string false "Hackathon id or all"
// @Param taskId query string false "Task id or all"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /evaluations/export [get]
func (h *EvaluationHandler) Export(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	format := c.DefaultQuery("format", service.ExportFormatCSV)
	result, err := h.export.Evaluations(c.Request.Context(), claims.UserID, format, evaluationFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	if result.DownloadToken != "" {
		c.Header("X-Export-Token", result.DownloadToken)
	}
	c.Header("Content-Disposition", "attachment; filename="+result.Filename)
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}

// DownloadArchived godoc
// @Summary Re-download an archived export
// @Description Fetch a previously generated export using its signed token
// @Tags Evaluations
// @Produce text/csv
// @Produce application/pdf
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /evaluations/export/archived/{token} [get]
func (h *EvaluationHandler) DownloadArchived(c *gin.Context) {
	result, err := h.export.Archived(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+result.Filename)
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}

func evaluationFilterFromQuery(c *gin.Context) models.EvaluationFilter {
	filter := models.EvaluationFilter{}
	if raw := c.Query("hackathonId"); raw != "" && raw != "all" {
		filter.HackathonID = raw
	}
	if raw := c.Query("taskId"); raw != "" && raw != "all" {
		filter.TaskID = raw
	}
	return filter
}
