package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackeval/hackeval-api/internal/models"
	appErrors "github.com/hackeval/hackeval-api/pkg/errors"
)

type fakeEvaluationRepo struct {
	items []*models.Evaluation
}

func (f *fakeEvaluationRepo) Create(_ context.Context, ev *models.Evaluation) error {
	for _, existing := range f.items {
		if existing.ExaminerID == ev.ExaminerID && existing.ConversationID == ev.ConversationID {
			return &pq.Error{Code: "23505", Constraint: "evaluations_examiner_conversation_key"}
		}
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.GradedAt.IsZero() {
		ev.GradedAt = time.Now().UTC()
	}
	f.items = append(f.items, ev)
	return nil
}

func (f *fakeEvaluationRepo) ListByExaminer(_ context.Context, examinerID string, filter models.EvaluationFilter) ([]models.Evaluation, error) {
	var out []models.Evaluation
	for _, ev := range f.items {
		if ev.ExaminerID != examinerID {
			continue
		}
		if filter.HackathonID != "" && (ev.HackathonID == nil || *ev.HackathonID != filter.HackathonID) {
			continue
		}
		if filter.TaskID != "" && (ev.TaskID == nil || *ev.TaskID != filter.TaskID) {
			continue
		}
		out = append(out, *ev)
	}
	return out, nil
}

func (f *fakeEvaluationRepo) ListByStudent(_ context.Context, studentID string) ([]models.Evaluation, error) {
	var out []models.Evaluation
	for _, ev := range f.items {
		if ev.StudentID == studentID {
			out = append(out, *ev)
		}
	}
	return out, nil
}

type fakeGradedConversations struct {
	items map[string]*models.Conversation
}

func (f *fakeGradedConversations) FindByID(_ context.Context, id string) (*models.Conversation, error) {
	if c, ok := f.items[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func evaluationFixture() (*EvaluationService, *fakeEvaluationRepo) {
	student := "s1"
	hackathon := "h1"
	task := "h1-task-0"
	conversations := &fakeGradedConversations{items: map[string]*models.Conversation{
		"c1": {ID: "c1", StudentID: &student, HackathonID: &hackathon, TaskID: &task},
	}}
	repo := &fakeEvaluationRepo{}
	return NewEvaluationService(repo, conversations, nil, nil), repo
}

func TestCreateEvaluationSnapshotsConversationContext(t *testing.T) {
	svc, repo := evaluationFixture()

	ev, err := svc.Create(context.Background(), models.CreateEvaluationRequest{
		ConversationID: "c1",
		Note:           8,
		Comment:        "  solid reasoning  ",
	}, "x1")
	require.NoError(t, err)
	assert.Equal(t, "s1", ev.StudentID)
	require.NotNil(t, ev.HackathonID)
	assert.Equal(t, "h1", *ev.HackathonID)
	assert.Equal(t, "solid reasoning", ev.Comment)
	require.Len(t, repo.items, 1)
}

func TestCreateEvaluationBlankCommentRejected(t *testing.T) {
	svc, repo := evaluationFixture()

	for _, comment := range []string{"", "   ", "\t\n"} {
		_, err := svc.Create(context.Background(), models.CreateEvaluationRequest{
			ConversationID: "c1",
			Note:           8,
			Comment:        comment,
		}, "x1")
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
	assert.Empty(t, repo.items)
}

func TestCreateEvaluationIdentityMismatchRejected(t *testing.T) {
	svc, repo := evaluationFixture()

	_, err := svc.Create(context.Background(), models.CreateEvaluationRequest{
		ConversationID: "c1",
		StudentID:      "s2",
		Note:           8,
		Comment:        "bien",
	}, "x1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Create(context.Background(), models.CreateEvaluationRequest{
		ConversationID: "c1",
		ExaminerID:     "x9",
		Note:           8,
		Comment:        "bien",
	}, "x1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.items)
}

func TestCreateEvaluationMatchingIdentityAccepted(t *testing.T) {
	svc, _ := evaluationFixture()

	ev, err := svc.Create(context.Background(), models.CreateEvaluationRequest{
		ConversationID: "c1",
		StudentID:      "s1",
		ExaminerID:     "x1",
		Note:           8,
		Comment:        "bien",
	}, "x1")
	require.NoError(t, err)
	assert.Equal(t, "s1", ev.StudentID)
}

func TestCreateEvaluationDuplicateMapped(t *testing.T) {
	svc, _ := evaluationFixture()

	req := models.CreateEvaluationRequest{ConversationID: "c1", Note: 8, Comment: "ok"}
	_, err := svc.Create(context.Background(), req, "x1")
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), req, "x1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicateEvaluation.Code, appErrors.FromError(err).Code)
}

func TestCreateEvaluationSecondExaminerAllowed(t *testing.T) {
	svc, repo := evaluationFixture()

	req := models.CreateEvaluationRequest{ConversationID: "c1", Note: 8, Comment: "ok"}
	_, err := svc.Create(context.Background(), req, "x1")
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), req, "x2")
	require.NoError(t, err)
	assert.Len(t, repo.items, 2)
}

func TestCreateEvaluationNoteOutOfRange(t *testing.T) {
	svc, _ := evaluationFixture()

	_, err := svc.Create(context.Background(), models.CreateEvaluationRequest{ConversationID: "c1", Note: 11, Comment: "trop"}, "x1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Create(context.Background(), models.CreateEvaluationRequest{ConversationID: "c1", Note: 0, Comment: "rien"}, "x1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCreateEvaluationMissingConversation(t *testing.T) {
	svc, _ := evaluationFixture()

	_, err := svc.Create(context.Background(), models.CreateEvaluationRequest{ConversationID: "missing", Note: 5, Comment: "bien"}, "x1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Equal(t, "Conversation introuvable", appErr.Message)
}

func TestListByStudentSelfOnly(t *testing.T) {
	svc, _ := evaluationFixture()

	_, err := svc.Create(context.Background(), models.CreateEvaluationRequest{ConversationID: "c1", Note: 7, Comment: "bien"}, "x1")
	require.NoError(t, err)

	items, err := svc.ListByStudent(context.Background(), "s1", &models.JWTClaims{UserID: "s1", Role: models.RoleStudent})
	require.NoError(t, err)
	assert.Len(t, items, 1)

	_, err = svc.ListByStudent(context.Background(), "s1", &models.JWTClaims{UserID: "s2", Role: models.RoleStudent})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestListByExaminerFiltered(t *testing.T) {
	svc, _ := evaluationFixture()

	_, err := svc.Create(context.Background(), models.CreateEvaluationRequest{ConversationID: "c1", Note: 7, Comment: "bien"}, "x1")
	require.NoError(t, err)

	items, err := svc.ListByExaminer(context.Background(), "x1", models.EvaluationFilter{HackathonID: "h1"})
	require.NoError(t, err)
	assert.Len(t, items, 1)

	items, err = svc.ListByExaminer(context.Background(), "x1", models.EvaluationFilter{HackathonID: "other"})
	require.NoError(t, err)
	assert.Empty(t, items)
}
