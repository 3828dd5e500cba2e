package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackeval/hackeval-api/internal/models"
)

func hackathonRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "description", "objectives",
		"dates.debut", "dates.fin", "dates.archived_at",
		"anonymity_enabled",
		"quotas.prompts_per_student", "quotas.tokens_per_student",
		"tasks", "status", "created_at", "updated_at",
	}).AddRow(
		"h1", "AI Sprint", "desc", "objectives",
		now, now.Add(48*time.Hour), nil,
		true,
		50, 100000,
		pq.StringArray{"Build a chatbot", "Write the pitch"}, models.HackathonStatusActive, now, now,
	)
}

func TestFindHackathonByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewHackathonRepository(db)

	now := time.Now()
	mock.ExpectQuery("FROM hackathons WHERE id").
		WithArgs("h1").
		WillReturnRows(hackathonRows(now))

	h, err := repo.FindByID(context.Background(), "h1")
	require.NoError(t, err)
	assert.Equal(t, "AI Sprint", h.Name)
	assert.Equal(t, 50, h.Quotas.PromptsPerStudent)
	assert.Len(t, h.Tasks, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindHackathonByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewHackathonRepository(db)

	mock.ExpectQuery("FROM hackathons WHERE id").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListHackathons(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewHackathonRepository(db)

	now := time.Now()
	mock.ExpectQuery("FROM hackathons ORDER BY created_at DESC").
		WillReturnRows(hackathonRows(now))

	items, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateHackathon(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewHackathonRepository(db)

	mock.ExpectExec("INSERT INTO hackathons").WillReturnResult(sqlmock.NewResult(1, 1))

	h := &models.Hackathon{
		Name:   "AI Sprint",
		Status: models.HackathonStatusDraft,
		Dates:  models.DateRange{Debut: time.Now(), Fin: time.Now().Add(24 * time.Hour)},
		Quotas: models.Quotas{PromptsPerStudent: 50, TokensPerStudent: 100000},
		Tasks:  pq.StringArray{"Build a chatbot"},
	}
	err := repo.Create(context.Background(), h)
	require.NoError(t, err)
	assert.NotEmpty(t, h.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateHackathonNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewHackathonRepository(db)

	mock.ExpectExec("UPDATE hackathons SET").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.Hackathon{ID: "missing"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteHackathon(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewHackathonRepository(db)

	mock.ExpectExec("DELETE FROM hackathons WHERE id").
		WithArgs("h1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Delete(context.Background(), "h1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
