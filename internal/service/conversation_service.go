package service

import (
	"context"
	"database/sql"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hackeval/hackeval-api/internal/models"
	appErrors "github.com/hackeval/hackeval-api/pkg/errors"
	"github.com/hackeval/hackeval-api/pkg/llm"
)

const previewLength = 120

type conversationRepository interface {
	Create(ctx context.Context, conv *models.Conversation) error
	FindByID(ctx context.Context, id string) (*models.Conversation, error)
	AppendMessage(ctx context.Context, id string, msg models.Message) (*models.Conversation, error)
	SetFinalSubmission(ctx context.Context, id string, final models.FinalSubmission) (*models.Conversation, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Conversation, error)
	List(ctx context.Context, filter models.ConversationFilter) ([]models.Conversation, error)
}

type usageRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	IncrementUsage(ctx context.Context, id string, prompts, tokens int) error
}

type quotaSource interface {
	FindByID(ctx context.Context, id string) (*models.Hackathon, error)
}

type completionRouter interface {
	Generate(ctx context.Context, prompt, model string, history []llm.Turn) (*llm.Completion, error)
	DefaultModel() string
}

// ConversationService provides the AI conversation use cases. The prompt
// pipeline is deliberately not transactional: a student prompt stays in the
// thread even when the provider call fails, so the student can see what was
// sent and retry.
type ConversationService struct {
	repo      conversationRepository
	users     usageRepository
	catalog   quotaSource
	generator completionRouter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewConversationService constructs a ConversationService instance.
func NewConversationService(repo conversationRepository, users usageRepository, catalog quotaSource, generator completionRouter, validate *validator.Validate, logger *zap.Logger) *ConversationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ConversationService{repo: repo, users: users, catalog: catalog, generator: generator, validator: validate, logger: logger}
}

// Create opens a new conversation thread owned by the calling student.
func (s *ConversationService) Create(ctx context.Context, req models.CreateConversationRequest, studentID string) (*models.Conversation, error) {
	conv := &models.Conversation{
		StudentID: &studentID,
		Messages:  models.MessageList{},
	}
	if req.HackathonID != "" {
		v := req.HackathonID
		conv.HackathonID = &v
	}
	if req.TaskID != "" {
		v := req.TaskID
		conv.TaskID = &v
	}
	if req.GroupID != "" {
		v := req.GroupID
		conv.GroupID = &v
	}
	model := req.ModelName
	if model == "" && s.generator != nil {
		model = s.generator.DefaultModel()
	}
	if model != "" {
		conv.ModelName = &model
	}

	if err := s.repo.Create(ctx, conv); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create conversation")
	}
	return conv, nil
}

// Get returns one conversation. Students can only read their own threads.
func (s *ConversationService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Conversation, error) {
	conv, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(conv, actor); err != nil {
		return nil, err
	}
	return conv, nil
}

// SendPrompt appends the student's prompt, asks the provider for a completion
// and appends the assistant reply. It returns the updated conversation along
// with the raw reply text. Quotas are checked before the prompt is persisted;
// usage counters grow only after a successful generation.
func (s *ConversationService) SendPrompt(ctx context.Context, id string, req models.SendPromptRequest, actor *models.JWTClaims) (*models.Conversation, string, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid prompt payload")
	}

	conv, err := s.load(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if err := s.authorize(conv, actor); err != nil {
		return nil, "", err
	}
	if conv.FinalSubmission.Present() {
		return nil, "", appErrors.Clone(appErrors.ErrConflict, "conversation already has a final submission")
	}

	if err := s.checkQuotas(ctx, conv, actor.UserID); err != nil {
		return nil, "", err
	}

	now := time.Now().UTC()
	conv, err = s.repo.AppendMessage(ctx, id, models.Message{
		Role:      models.MessageRoleStudent,
		Content:   req.Content,
		CreatedAt: now,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "Conversation introuvable")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to append prompt")
	}

	model := req.ModelName
	if model == "" && conv.ModelName != nil {
		model = *conv.ModelName
	}

	history := make([]llm.Turn, 0, len(conv.Messages))
	for _, msg := range conv.Messages[:len(conv.Messages)-1] {
		history = append(history, llm.Turn{Role: msg.Role, Content: msg.Content})
	}

	completion, err := s.generator.Generate(ctx, req.Content, model, history)
	if err != nil {
		s.logger.Error("generation failed, prompt kept in thread",
			zap.String("conversation_id", id), zap.String("model", model), zap.Error(err))
		return nil, "", appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "AI generation failed")
	}

	usedModel := model
	tokenCount := completion.TokenCount
	conv, err = s.repo.AppendMessage(ctx, id, models.Message{
		Role:       models.MessageRoleAssistant,
		Content:    completion.Content,
		CreatedAt:  time.Now().UTC(),
		TokenCount: &tokenCount,
		ModelUsed:  &usedModel,
	})
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to append completion")
	}

	if err := s.users.IncrementUsage(ctx, actor.UserID, 1, completion.TokenCount); err != nil {
		s.logger.Warn("failed to update usage counters", zap.String("user_id", actor.UserID), zap.Error(err))
	}

	return conv, completion.Content, nil
}

// SubmitFinal locks in the student's answer. A conversation can be submitted
// at most once.
func (s *ConversationService) SubmitFinal(ctx context.Context, id string, req models.FinalSubmissionRequest, actor *models.JWTClaims) (*models.Conversation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid final submission payload")
	}

	conv, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(conv, actor); err != nil {
		return nil, err
	}
	if conv.FinalSubmission.Present() {
		return nil, appErrors.Clone(appErrors.ErrConflict, "conversation already has a final submission")
	}

	now := time.Now().UTC()
	conv, err = s.repo.SetFinalSubmission(ctx, id, models.FinalSubmission{
		PromptFinal:   req.PromptFinal,
		FinalResponse: req.FinalResponse,
		SubmittedAt:   &now,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Conversation introuvable")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record final submission")
	}
	return conv, nil
}

// ListByStudent returns one student's full conversation threads, newest first.
func (s *ConversationService) ListByStudent(ctx context.Context, studentID string, actor *models.JWTClaims) ([]models.Conversation, error) {
	if actor.Role == models.RoleStudent && actor.UserID != studentID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "students can only list their own conversations")
	}

	items, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list conversations")
	}
	return items, nil
}

// ListPreviewsByStudent returns the same threads reduced to previews built
// from each thread's first message.
func (s *ConversationService) ListPreviewsByStudent(ctx context.Context, studentID string, actor *models.JWTClaims) ([]models.ConversationPreview, error) {
	items, err := s.ListByStudent(ctx, studentID, actor)
	if err != nil {
		return nil, err
	}

	previews := make([]models.ConversationPreview, 0, len(items))
	for i := range items {
		previews = append(previews, buildPreview(&items[i]))
	}
	return previews, nil
}

// List returns conversations matching the filter for grading views.
func (s *ConversationService) List(ctx context.Context, filter models.ConversationFilter) ([]models.Conversation, error) {
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list conversations")
	}
	return items, nil
}

func (s *ConversationService) load(ctx context.Context, id string) (*models.Conversation, error) {
	conv, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Conversation introuvable")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load conversation")
	}
	return conv, nil
}

func (s *ConversationService) authorize(conv *models.Conversation, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.Clone(appErrors.ErrUnauthorized, "missing caller identity")
	}
	if actor.Role != models.RoleStudent {
		return nil
	}
	if conv.StudentID == nil || *conv.StudentID != actor.UserID {
		return appErrors.Clone(appErrors.ErrForbidden, "students can only access their own conversations")
	}
	return nil
}

func (s *ConversationService) checkQuotas(ctx context.Context, conv *models.Conversation, userID string) error {
	if conv.HackathonID == nil || s.catalog == nil || s.users == nil {
		return nil
	}

	hackathon, err := s.catalog.FindByID(ctx, *conv.HackathonID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load hackathon quotas")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load usage counters")
	}

	if q := hackathon.Quotas.PromptsPerStudent; q > 0 && user.PromptUsage >= q {
		return appErrors.Clone(appErrors.ErrQuotaExceeded, "prompt quota exceeded for this hackathon")
	}
	if q := hackathon.Quotas.TokensPerStudent; q > 0 && user.TokenUsage >= q {
		return appErrors.Clone(appErrors.ErrQuotaExceeded, "token quota exceeded for this hackathon")
	}
	return nil
}

func buildPreview(conv *models.Conversation) models.ConversationPreview {
	preview := ""
	if len(conv.Messages) > 0 {
		preview = truncate(conv.Messages[0].Content, previewLength)
	}
	return models.ConversationPreview{
		ID:           conv.ID,
		HackathonID:  conv.HackathonID,
		TaskID:       conv.TaskID,
		StudentID:    conv.StudentID,
		Preview:      preview,
		MessageCount: len(conv.Messages),
		Submitted:    conv.FinalSubmission.Present(),
		SubmittedAt:  conv.FinalSubmission.SubmittedAt,
		CreatedAt:    conv.CreatedAt,
		UpdatedAt:    conv.UpdatedAt,
	}
}

func truncate(raw string, limit int) string {
	if utf8.RuneCountInString(raw) <= limit {
		return raw
	}
	runes := []rune(raw)
	return string(runes[:limit]) + "…"
}
