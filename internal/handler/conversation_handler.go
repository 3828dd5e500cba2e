package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hackeval/hackeval-api/internal/models"
	"github.com/hackeval/hackeval-api/internal/service"
	appErrors "github.com/hackeval/hackeval-api/pkg/errors"
	"github.com/hackeval/hackeval-api/pkg/response"
)

// ConversationHandler wires HTTP endpoints to the conversation service.
type ConversationHandler struct {
	service *service.ConversationService
}

// NewConversationHandler creates a new handler.
func NewConversationHandler(svc *service.ConversationService) *ConversationHandler {
	return &ConversationHandler{service: svc}
}

// Create godoc
// @Summary Open a conversation
// @Description Start a new AI thread for the calling student
// @Tags Conversations
// @Accept json
// @Produce json
// @Param payload body models.CreateConversationRequest true "Conversation payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /conversations [post]
func (h *ConversationHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid conversation payload"))
		return
	}

	conv, err := h.service.Create(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, conv)
}

// Get godoc
// @Summary Get one conversation
// @Tags Conversations
// @Produce json
// @Param id path string true "Conversation id"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /conversations/{id} [get]
func (h *ConversationHandler) Get(c *gin.Context) {
	conv, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, conv, nil)
}

// SendPrompt godoc
// @Summary Send a prompt
// @Description Append a student prompt and the AI completion to the thread; returns the updated conversation and the raw reply text
// @Tags Conversations
// @Accept json
// @Produce json
// @Param id path string true "Conversation id"
// @Param payload body models.SendPromptRequest true "Prompt payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /conversations/{id}/messages [post]
func (h *ConversationHandler) SendPrompt(c *gin.Context) {
	var req models.SendPromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid prompt payload"))
		return
	}

	conv, reply, err := h.service.SendPrompt(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, models.PromptExchange{Conversation: conv, Response: reply}, nil)
}

// SubmitFinal godoc
// @Summary Submit the final answer
// @Description Lock in the student's final prompt and response for grading
// @Tags Conversations
// @Accept json
// @Produce json
// @Param id path string true "Conversation id"
// @Param payload body models.FinalSubmissionRequest true "Final submission payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /conversations/{id}/final-submission [post]
func (h *ConversationHandler) SubmitFinal(c *gin.Context) {
	var req models.FinalSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid final submission payload"))
		return
	}

	conv, err := h.service.SubmitFinal(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, conv, nil)
}

// ListByStudent godoc
// @Summary List a student's conversations
// @Description Returns previews by default; includeMessages=true returns the full threads
// @Tags Conversations
// @Produce json
// @Param id path string true "Student id"
// @Param includeMessages query bool false "Return full message history"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /conversations/student/{id} [get]
func (h *ConversationHandler) ListByStudent(c *gin.Context) {
	if c.Query("includeMessages") == "true" {
		items, err := h.service.ListByStudent(c.Request.Context(), c.Param("id"), claimsFromContext(c))
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, items, nil)
		return
	}

	previews, err := h.service.ListPreviewsByStudent(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, previews, nil)
}

// List godoc
// @Summary List conversations for grading
// @Description Filter by hackathon and task; "all" disables a filter
// @Tags Conversations
// @Produce json
// @Param hackathonId query string false "Hackathon id or all"
// @Param taskId query string false "Task id or all"
// @Param withFinalVersion query bool false "Only submitted conversations"
// @Success 200 {object} response.Envelope
// @Router /conversations [get]
func (h *ConversationHandler) List(c *gin.Context) {
	filter := models.ConversationFilter{
		WithFinalVersion: c.Query("withFinalVersion") == "true",
	}
	if raw := c.Query("hackathonId"); raw != "" && raw != "all" {
		filter.HackathonID = raw
	}
	if raw := c.Query("taskId"); raw != "" && raw != "all" {
		filter.TaskID = raw
	}

	items, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, items, nil)
}
