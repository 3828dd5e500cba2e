package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackeval/hackeval-api/internal/middleware"
	"github.com/hackeval/hackeval-api/internal/models"
	"github.com/hackeval/hackeval-api/internal/service"
)

type evalRepoStub struct {
	items []models.Evaluation
}

func (s *evalRepoStub) Create(_ context.Context, ev *models.Evaluation) error {
	for _, existing := range s.items {
		if existing.ExaminerID == ev.ExaminerID && existing.ConversationID == ev.ConversationID {
			return &pq.Error{Code: "23505"}
		}
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	s.items = append(s.items, *ev)
	return nil
}

func (s *evalRepoStub) ListByExaminer(_ context.Context, examinerID string, _ models.EvaluationFilter) ([]models.Evaluation, error) {
	var out []models.Evaluation
	for _, ev := range s.items {
		if ev.ExaminerID == examinerID {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (s *evalRepoStub) ListByStudent(_ context.Context, studentID string) ([]models.Evaluation, error) {
	var out []models.Evaluation
	for _, ev := range s.items {
		if ev.StudentID == studentID {
			out = append(out, ev)
		}
	}
	return out, nil
}

type gradedConvStub struct {
	conv *models.Conversation
}

func (s *gradedConvStub) FindByID(_ context.Context, id string) (*models.Conversation, error) {
	if s.conv != nil && s.conv.ID == id {
		return s.conv, nil
	}
	return nil, sql.ErrNoRows
}

func newEvaluationHandlerFixture() (*EvaluationHandler, *evalRepoStub) {
	repo := &evalRepoStub{}
	student := "s1"
	hackathon := "h1"
	task := "h1-task-0"
	conversations := &gradedConvStub{conv: &models.Conversation{
		ID:          "c1",
		StudentID:   &student,
		HackathonID: &hackathon,
		TaskID:      &task,
	}}
	svc := service.NewEvaluationService(repo, conversations, nil, nil)
	export := service.NewExportService(repo, nil, nil, nil)
	return NewEvaluationHandler(svc, export), repo
}

func examinerContext(w *httptest.ResponseRecorder, method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	c, _ := gin.CreateTestContext(w)
	var req *http.Request
	if body != nil {
		req, _ = http.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, target, nil)
	}
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "x1", Role: models.RoleExaminer})
	return c, w
}

func TestEvaluationHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, repo := newEvaluationHandlerFixture()

	payload, _ := json.Marshal(models.CreateEvaluationRequest{ConversationID: "c1", Note: 8, Comment: "bien"})
	c, w := examinerContext(httptest.NewRecorder(), http.MethodPost, "/evaluations", payload)

	handler.Create(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, repo.items, 1)
	assert.Equal(t, "s1", repo.items[0].StudentID)
}

func TestEvaluationHandlerCreateBlankComment(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, repo := newEvaluationHandlerFixture()

	payload, _ := json.Marshal(models.CreateEvaluationRequest{ConversationID: "c1", Note: 8, Comment: "   "})
	c, w := examinerContext(httptest.NewRecorder(), http.MethodPost, "/evaluations", payload)

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
	assert.Empty(t, repo.items)
}

func TestEvaluationHandlerCreateDuplicate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, repo := newEvaluationHandlerFixture()
	repo.items = append(repo.items, models.Evaluation{ExaminerID: "x1", ConversationID: "c1"})

	payload, _ := json.Marshal(models.CreateEvaluationRequest{ConversationID: "c1", Note: 5, Comment: "encore"})
	c, w := examinerContext(httptest.NewRecorder(), http.MethodPost, "/evaluations", payload)

	handler.Create(c)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "DUPLICATE_EVALUATION")
}

func TestEvaluationHandlerListMine(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, repo := newEvaluationHandlerFixture()
	repo.items = append(repo.items, models.Evaluation{ID: "e1", ExaminerID: "x1", ConversationID: "c1", GradedAt: time.Now().UTC()})

	c, w := examinerContext(httptest.NewRecorder(), http.MethodGet, "/evaluations", nil)

	handler.ListMine(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "e1")
}

func TestEvaluationHandlerListByExaminer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, repo := newEvaluationHandlerFixture()
	repo.items = append(repo.items,
		models.Evaluation{ID: "e1", ExaminerID: "x1", ConversationID: "c1", GradedAt: time.Now().UTC()},
		models.Evaluation{ID: "e2", ExaminerID: "x2", ConversationID: "c2", GradedAt: time.Now().UTC()},
	)

	c, w := examinerContext(httptest.NewRecorder(), http.MethodGet, "/evaluations/examiner/x2", nil)
	c.Params = gin.Params{{Key: "id", Value: "x2"}}

	handler.ListByExaminer(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "e2")
	assert.NotContains(t, w.Body.String(), "e1")
}

func TestEvaluationHandlerExportCSV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, repo := newEvaluationHandlerFixture()
	repo.items = append(repo.items, models.Evaluation{ID: "e1", ExaminerID: "x1", ConversationID: "c1", StudentID: "s1", Note: 9, GradedAt: time.Now().UTC()})

	c, w := examinerContext(httptest.NewRecorder(), http.MethodGet, "/evaluations/export?format=csv", nil)

	handler.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, w.Body.String(), "e1")
}

func TestEvaluationHandlerExportUnknownFormat(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newEvaluationHandlerFixture()

	c, w := examinerContext(httptest.NewRecorder(), http.MethodGet, "/evaluations/export?format=xlsx", nil)

	handler.Export(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
