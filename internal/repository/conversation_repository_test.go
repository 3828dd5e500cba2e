package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackeval/hackeval-api/internal/models"
)

func conversationRows(now time.Time, messages string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "hackathon_id", "task_id", "student_id", "group_id", "model_name", "messages",
		"final.prompt_final", "final.final_response", "final.submitted_at",
		"created_at", "updated_at",
	}).AddRow(
		"c1", "h1", "h1-task-1", "s1", nil, "mistral-small-latest", []byte(messages),
		"", "", nil,
		now, now,
	)
}

func TestCreateConversation(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewConversationRepository(db)

	mock.ExpectExec("INSERT INTO conversations").WillReturnResult(sqlmock.NewResult(1, 1))

	studentID := "s1"
	conv := &models.Conversation{StudentID: &studentID}
	err := repo.Create(context.Background(), conv)
	require.NoError(t, err)
	assert.NotEmpty(t, conv.ID)
	assert.NotNil(t, conv.Messages)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindConversationByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewConversationRepository(db)

	now := time.Now()
	mock.ExpectQuery("FROM conversations WHERE id").
		WithArgs("c1").
		WillReturnRows(conversationRows(now, `[{"role":"student","content":"hello","createdAt":"2026-01-10T10:00:00Z"}]`))

	conv, err := repo.FindByID(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", conv.ID)
	require.Len(t, conv.Messages, 1)
	assert.Equal(t, models.MessageRoleStudent, conv.Messages[0].Role)
	assert.False(t, conv.FinalSubmission.Present())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendMessage(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewConversationRepository(db)

	now := time.Now()
	mock.ExpectQuery("UPDATE conversations SET messages").
		WithArgs("c1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(conversationRows(now, `[{"role":"student","content":"hello","createdAt":"2026-01-10T10:00:00Z"}]`))

	conv, err := repo.AppendMessage(context.Background(), "c1", models.Message{Role: models.MessageRoleStudent, Content: "hello", CreatedAt: now})
	require.NoError(t, err)
	assert.Len(t, conv.Messages, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendMessageMissingConversation(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewConversationRepository(db)

	mock.ExpectQuery("UPDATE conversations SET messages").
		WithArgs("missing", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.AppendMessage(context.Background(), "missing", models.Message{Role: models.MessageRoleStudent, Content: "hello"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetFinalSubmission(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewConversationRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "hackathon_id", "task_id", "student_id", "group_id", "model_name", "messages",
		"final.prompt_final", "final.final_response", "final.submitted_at",
		"created_at", "updated_at",
	}).AddRow("c1", "h1", "h1-task-1", "s1", nil, nil, []byte("[]"), "my prompt", "the answer", now, now, now)

	mock.ExpectQuery("UPDATE conversations SET prompt_final").
		WithArgs("c1", "my prompt", "the answer", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(rows)

	conv, err := repo.SetFinalSubmission(context.Background(), "c1", models.FinalSubmission{PromptFinal: "my prompt", FinalResponse: "the answer", SubmittedAt: &now})
	require.NoError(t, err)
	assert.True(t, conv.FinalSubmission.Present())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListConversationsWithFinalVersion(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewConversationRepository(db)

	now := time.Now()
	mock.ExpectQuery("FROM conversations WHERE 1=1 AND prompt_final").
		WillReturnRows(conversationRows(now, "[]"))

	items, err := repo.List(context.Background(), models.ConversationFilter{WithFinalVersion: true})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
