package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hackeval/hackeval-api/internal/models"
	appErrors "github.com/hackeval/hackeval-api/pkg/errors"
)

type evaluationRepository interface {
	Create(ctx context.Context, ev *models.Evaluation) error
	ListByExaminer(ctx context.Context, examinerID string, filter models.EvaluationFilter) ([]models.Evaluation, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Evaluation, error)
}

type gradedConversationSource interface {
	FindByID(ctx context.Context, id string) (*models.Conversation, error)
}

// EvaluationService provides grading use cases. Each examiner can grade a
// conversation once; the unique constraint on (examiner_id, conversation_id)
// is the arbiter, not a pre-check, so concurrent grading stays correct.
type EvaluationService struct {
	repo          evaluationRepository
	conversations gradedConversationSource
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewEvaluationService constructs an EvaluationService instance.
func NewEvaluationService(repo evaluationRepository, conversations gradedConversationSource, validate *validator.Validate, logger *zap.Logger) *EvaluationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &EvaluationService{repo: repo, conversations: conversations, validator: validate, logger: logger}
}

// Create records an examiner's grade for a conversation. Hackathon and task
// identifiers are snapshotted from the conversation at grading time.
func (s *EvaluationService) Create(ctx context.Context, req models.CreateEvaluationRequest, examinerID string) (*models.Evaluation, error) {
	req.Comment = strings.TrimSpace(req.Comment)
	if req.Comment == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "comment must not be empty")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid evaluation payload")
	}
	if req.ExaminerID != "" && req.ExaminerID != examinerID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "examinerId does not match the authenticated examiner")
	}

	conv, err := s.conversations.FindByID(ctx, req.ConversationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Conversation introuvable")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load conversation")
	}

	if conv.StudentID == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "conversation has no owning student")
	}
	if req.StudentID != "" && req.StudentID != *conv.StudentID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "studentId does not match the conversation owner")
	}

	ev := &models.Evaluation{
		ConversationID: conv.ID,
		StudentID:      *conv.StudentID,
		ExaminerID:     examinerID,
		HackathonID:    conv.HackathonID,
		TaskID:         conv.TaskID,
		Note:           req.Note,
		Comment:        req.Comment,
	}

	if err := s.repo.Create(ctx, ev); err != nil {
		if isDuplicateErr(err) {
			return nil, appErrors.Clone(appErrors.ErrDuplicateEvaluation, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create evaluation")
	}

	s.logger.Info("evaluation recorded",
		zap.String("evaluation_id", ev.ID),
		zap.String("conversation_id", ev.ConversationID),
		zap.Int("note", ev.Note))
	return ev, nil
}

// ListByExaminer returns the examiner's own grades, most recent first.
func (s *EvaluationService) ListByExaminer(ctx context.Context, examinerID string, filter models.EvaluationFilter) ([]models.Evaluation, error) {
	items, err := s.repo.ListByExaminer(ctx, examinerID, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list evaluations")
	}
	return items, nil
}

// ListByStudent returns every grade recorded for a student. Students can only
// read their own results.
func (s *EvaluationService) ListByStudent(ctx context.Context, studentID string, actor *models.JWTClaims) ([]models.Evaluation, error) {
	if actor != nil && actor.Role == models.RoleStudent && actor.UserID != studentID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "students can only read their own evaluations")
	}

	items, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list evaluations")
	}
	return items, nil
}
