package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hackeval/hackeval-api/internal/models"
	"github.com/hackeval/hackeval-api/internal/service"
	appErrors "github.com/hackeval/hackeval-api/pkg/errors"
	"github.com/hackeval/hackeval-api/pkg/response"
)

// HackathonHandler wires HTTP endpoints to the catalog service.
type HackathonHandler struct {
	service *service.HackathonService
}

// NewHackathonHandler creates a new handler.
func NewHackathonHandler(svc *service.HackathonService) *HackathonHandler {
	return &HackathonHandler{service: svc}
}

// List godoc
// @Summary List hackathons
// @Tags Hackathons
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /hackathons [get]
func (h *HackathonHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, items, nil)
}

// Get godoc
// @Summary Get one hackathon
// @Tags Hackathons
// @Produce json
// @Param id path string true "Hackathon id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /hackathons/{id} [get]
func (h *HackathonHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, item, nil)
}

// Tasks godoc
// @Summary List hackathon tasks
// @Description Returns positional task references for the task picker
// @Tags Hackathons
// @Produce json
// @Param id path string true "Hackathon id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /hackathons/{id}/tasks [get]
func (h *HackathonHandler) Tasks(c *gin.Context) {
	refs, err := h.service.Tasks(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, refs, nil)
}

// Create godoc
// @Summary Create hackathon
// @Tags Hackathons
// @Accept json
// @Produce json
// @Param payload body models.CreateHackathonRequest true "Hackathon payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /hackathons [post]
func (h *HackathonHandler) Create(c *gin.Context) {
	var req models.CreateHackathonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid hackathon payload"))
		return
	}

	actorID := ""
	if claims := claimsFromContext(c); claims != nil {
		actorID = claims.UserID
	}

	item, err := h.service.Create(c.Request.Context(), req, actorID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, item)
}

// Update godoc
// @Summary Update hackathon
// @Tags Hackathons
// @Accept json
// @Produce json
// @Param id path string true "Hackathon id"
// @Param payload body models.CreateHackathonRequest true "Hackathon payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /hackathons/{id} [put]
func (h *HackathonHandler) Update(c *gin.Context) {
	var req models.CreateHackathonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid hackathon payload"))
		return
	}

	actorID := ""
	if claims := claimsFromContext(c); claims != nil {
		actorID = claims.UserID
	}

	item, err := h.service.Update(c.Request.Context(), c.Param("id"), req, actorID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, item, nil)
}

// Delete godoc
// @Summary Delete hackathon
// @Tags Hackathons
// @Param id path string true "Hackathon id"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /hackathons/{id} [delete]
func (h *HackathonHandler) Delete(c *gin.Context) {
	actorID := ""
	if claims := claimsFromContext(c); claims != nil {
		actorID = claims.UserID
	}

	if err := h.service.Delete(c.Request.Context(), c.Param("id"), actorID); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
