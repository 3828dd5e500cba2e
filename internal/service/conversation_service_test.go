package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackeval/hackeval-api/internal/models"
	appErrors "github.com/hackeval/hackeval-api/pkg/errors"
	"github.com/hackeval/hackeval-api/pkg/llm"
)

type fakeConversationRepo struct {
	items map[string]*models.Conversation
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{items: map[string]*models.Conversation{}}
}

func (f *fakeConversationRepo) Create(_ context.Context, conv *models.Conversation) error {
	if conv.ID == "" {
		conv.ID = uuid.NewString()
	}
	f.items[conv.ID] = conv
	return nil
}

func (f *fakeConversationRepo) FindByID(_ context.Context, id string) (*models.Conversation, error) {
	if c, ok := f.items[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeConversationRepo) AppendMessage(_ context.Context, id string, msg models.Message) (*models.Conversation, error) {
	c, ok := f.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = time.Now().UTC()
	copied := *c
	return &copied, nil
}

func (f *fakeConversationRepo) SetFinalSubmission(_ context.Context, id string, final models.FinalSubmission) (*models.Conversation, error) {
	c, ok := f.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	c.FinalSubmission = final
	copied := *c
	return &copied, nil
}

func (f *fakeConversationRepo) ListByStudent(_ context.Context, studentID string) ([]models.Conversation, error) {
	var out []models.Conversation
	for _, c := range f.items {
		if c.StudentID != nil && *c.StudentID == studentID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeConversationRepo) List(_ context.Context, filter models.ConversationFilter) ([]models.Conversation, error) {
	var out []models.Conversation
	for _, c := range f.items {
		if filter.WithFinalVersion && !c.FinalSubmission.Present() {
			continue
		}
		if filter.HackathonID != "" && (c.HackathonID == nil || *c.HackathonID != filter.HackathonID) {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

type fakeUsageRepo struct {
	users       map[string]*models.User
	promptDelta int
	tokenDelta  int
}

func (f *fakeUsageRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUsageRepo) IncrementUsage(_ context.Context, id string, prompts, tokens int) error {
	f.promptDelta += prompts
	f.tokenDelta += tokens
	if u, ok := f.users[id]; ok {
		u.PromptUsage += prompts
		u.TokenUsage += tokens
	}
	return nil
}

type fakeQuotaSource struct {
	hackathons map[string]*models.Hackathon
}

func (f *fakeQuotaSource) FindByID(_ context.Context, id string) (*models.Hackathon, error) {
	if h, ok := f.hackathons[id]; ok {
		return h, nil
	}
	return nil, sql.ErrNoRows
}

type fakeGenerator struct {
	completion *llm.Completion
	err        error
	lastPrompt string
	lastModel  string
	history    []llm.Turn
}

func (f *fakeGenerator) Generate(_ context.Context, prompt, model string, history []llm.Turn) (*llm.Completion, error) {
	f.lastPrompt = prompt
	f.lastModel = model
	f.history = history
	if f.err != nil {
		return nil, f.err
	}
	return f.completion, nil
}

func (f *fakeGenerator) DefaultModel() string { return "mistral-small-latest" }

func studentClaims(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleStudent}
}

func newConversationFixture(gen *fakeGenerator) (*ConversationService, *fakeConversationRepo, *fakeUsageRepo) {
	repo := newFakeConversationRepo()
	users := &fakeUsageRepo{users: map[string]*models.User{
		"s1": {ID: "s1", Role: models.RoleStudent},
	}}
	catalog := &fakeQuotaSource{hackathons: map[string]*models.Hackathon{
		"h1": {ID: "h1", Quotas: models.Quotas{PromptsPerStudent: 2, TokensPerStudent: 1000}},
	}}
	svc := NewConversationService(repo, users, catalog, gen, nil, nil)
	return svc, repo, users
}

func TestCreateConversationUsesDefaultModel(t *testing.T) {
	gen := &fakeGenerator{}
	svc, _, _ := newConversationFixture(gen)

	conv, err := svc.Create(context.Background(), models.CreateConversationRequest{HackathonID: "h1", TaskID: "h1-task-0"}, "s1")
	require.NoError(t, err)
	require.NotNil(t, conv.ModelName)
	assert.Equal(t, "mistral-small-latest", *conv.ModelName)
	require.NotNil(t, conv.StudentID)
	assert.Equal(t, "s1", *conv.StudentID)
}

func TestSendPromptAppendsBothMessages(t *testing.T) {
	gen := &fakeGenerator{completion: &llm.Completion{Content: "bonjour", TokenCount: 42}}
	svc, repo, users := newConversationFixture(gen)

	conv, err := svc.Create(context.Background(), models.CreateConversationRequest{HackathonID: "h1"}, "s1")
	require.NoError(t, err)

	updated, reply, err := svc.SendPrompt(context.Background(), conv.ID, models.SendPromptRequest{Content: "salut"}, studentClaims("s1"))
	require.NoError(t, err)
	assert.Equal(t, "bonjour", reply)
	require.Len(t, updated.Messages, 2)
	assert.Equal(t, models.MessageRoleStudent, updated.Messages[0].Role)
	assert.Equal(t, models.MessageRoleAssistant, updated.Messages[1].Role)
	require.NotNil(t, updated.Messages[1].TokenCount)
	assert.Equal(t, 42, *updated.Messages[1].TokenCount)
	require.NotNil(t, updated.Messages[1].ModelUsed)
	assert.Equal(t, "mistral-small-latest", *updated.Messages[1].ModelUsed)
	assert.Equal(t, 1, users.promptDelta)
	assert.Equal(t, 42, users.tokenDelta)
	assert.Len(t, repo.items[conv.ID].Messages, 2)
}

func TestSendPromptGenerationFailureKeepsPrompt(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("provider down")}
	svc, repo, users := newConversationFixture(gen)

	conv, err := svc.Create(context.Background(), models.CreateConversationRequest{HackathonID: "h1"}, "s1")
	require.NoError(t, err)

	_, _, err = svc.SendPrompt(context.Background(), conv.ID, models.SendPromptRequest{Content: "salut"}, studentClaims("s1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUpstream.Code, appErrors.FromError(err).Code)

	stored := repo.items[conv.ID]
	require.Len(t, stored.Messages, 1)
	assert.Equal(t, models.MessageRoleStudent, stored.Messages[0].Role)
	assert.Equal(t, 0, users.promptDelta)
}

func TestSendPromptQuotaExceeded(t *testing.T) {
	gen := &fakeGenerator{completion: &llm.Completion{Content: "ok"}}
	svc, repo, users := newConversationFixture(gen)
	users.users["s1"].PromptUsage = 2

	conv, err := svc.Create(context.Background(), models.CreateConversationRequest{HackathonID: "h1"}, "s1")
	require.NoError(t, err)

	_, _, err = svc.SendPrompt(context.Background(), conv.ID, models.SendPromptRequest{Content: "salut"}, studentClaims("s1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrQuotaExceeded.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.items[conv.ID].Messages)
}

func TestSendPromptForbiddenForOtherStudent(t *testing.T) {
	gen := &fakeGenerator{completion: &llm.Completion{Content: "ok"}}
	svc, _, _ := newConversationFixture(gen)

	conv, err := svc.Create(context.Background(), models.CreateConversationRequest{}, "s1")
	require.NoError(t, err)

	_, _, err = svc.SendPrompt(context.Background(), conv.ID, models.SendPromptRequest{Content: "salut"}, studentClaims("s2"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestSendPromptPassesHistory(t *testing.T) {
	gen := &fakeGenerator{completion: &llm.Completion{Content: "two", TokenCount: 1}}
	svc, _, _ := newConversationFixture(gen)

	conv, err := svc.Create(context.Background(), models.CreateConversationRequest{}, "s1")
	require.NoError(t, err)

	_, _, err = svc.SendPrompt(context.Background(), conv.ID, models.SendPromptRequest{Content: "first"}, studentClaims("s1"))
	require.NoError(t, err)

	_, _, err = svc.SendPrompt(context.Background(), conv.ID, models.SendPromptRequest{Content: "second"}, studentClaims("s1"))
	require.NoError(t, err)

	assert.Equal(t, "second", gen.lastPrompt)
	require.Len(t, gen.history, 2)
	assert.Equal(t, "first", gen.history[0].Content)
	assert.Equal(t, models.MessageRoleAssistant, gen.history[1].Role)
}

func TestSubmitFinalOnce(t *testing.T) {
	gen := &fakeGenerator{}
	svc, _, _ := newConversationFixture(gen)

	conv, err := svc.Create(context.Background(), models.CreateConversationRequest{}, "s1")
	require.NoError(t, err)

	req := models.FinalSubmissionRequest{PromptFinal: "my prompt", FinalResponse: "the answer"}
	updated, err := svc.SubmitFinal(context.Background(), conv.ID, req, studentClaims("s1"))
	require.NoError(t, err)
	assert.True(t, updated.FinalSubmission.Present())
	require.NotNil(t, updated.FinalSubmission.SubmittedAt)

	_, err = svc.SubmitFinal(context.Background(), conv.ID, req, studentClaims("s1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestSendPromptAfterFinalSubmissionConflict(t *testing.T) {
	gen := &fakeGenerator{completion: &llm.Completion{Content: "ok"}}
	svc, _, _ := newConversationFixture(gen)

	conv, err := svc.Create(context.Background(), models.CreateConversationRequest{}, "s1")
	require.NoError(t, err)

	_, err = svc.SubmitFinal(context.Background(), conv.ID, models.FinalSubmissionRequest{PromptFinal: "p", FinalResponse: "r"}, studentClaims("s1"))
	require.NoError(t, err)

	_, _, err = svc.SendPrompt(context.Background(), conv.ID, models.SendPromptRequest{Content: "more"}, studentClaims("s1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestGetConversationNotFound(t *testing.T) {
	gen := &fakeGenerator{}
	svc, _, _ := newConversationFixture(gen)

	_, err := svc.Get(context.Background(), "missing", studentClaims("s1"))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Equal(t, "Conversation introuvable", appErr.Message)
}

func TestListByStudentBuildsPreviews(t *testing.T) {
	gen := &fakeGenerator{completion: &llm.Completion{Content: "ok", TokenCount: 1}}
	svc, _, _ := newConversationFixture(gen)

	conv, err := svc.Create(context.Background(), models.CreateConversationRequest{}, "s1")
	require.NoError(t, err)

	long := strings.Repeat("x", 200)
	_, _, err = svc.SendPrompt(context.Background(), conv.ID, models.SendPromptRequest{Content: long}, studentClaims("s1"))
	require.NoError(t, err)

	previews, err := svc.ListPreviewsByStudent(context.Background(), "s1", studentClaims("s1"))
	require.NoError(t, err)
	require.Len(t, previews, 1)
	assert.Equal(t, 2, previews[0].MessageCount)
	assert.Less(t, len([]rune(previews[0].Preview)), 200)
	assert.False(t, previews[0].Submitted)
}

func TestListPreviewsUseFirstMessage(t *testing.T) {
	gen := &fakeGenerator{}
	svc, repo, _ := newConversationFixture(gen)

	student := "s1"
	repo.items["c9"] = &models.Conversation{
		ID:        "c9",
		StudentID: &student,
		Messages: models.MessageList{
			{Role: models.MessageRoleSystem, Content: "contexte de la tâche"},
			{Role: models.MessageRoleStudent, Content: "ma question"},
		},
	}

	previews, err := svc.ListPreviewsByStudent(context.Background(), "s1", studentClaims("s1"))
	require.NoError(t, err)
	require.Len(t, previews, 1)
	assert.Equal(t, "contexte de la tâche", previews[0].Preview)
	assert.Equal(t, 2, previews[0].MessageCount)
}

func TestListByStudentReturnsFullThreads(t *testing.T) {
	gen := &fakeGenerator{completion: &llm.Completion{Content: "ok", TokenCount: 1}}
	svc, _, _ := newConversationFixture(gen)

	conv, err := svc.Create(context.Background(), models.CreateConversationRequest{}, "s1")
	require.NoError(t, err)

	_, _, err = svc.SendPrompt(context.Background(), conv.ID, models.SendPromptRequest{Content: "salut"}, studentClaims("s1"))
	require.NoError(t, err)

	items, err := svc.ListByStudent(context.Background(), "s1", studentClaims("s1"))
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Len(t, items[0].Messages, 2)
	assert.Equal(t, "salut", items[0].Messages[0].Content)
}

func TestListByStudentForbiddenForOthers(t *testing.T) {
	gen := &fakeGenerator{}
	svc, _, _ := newConversationFixture(gen)

	_, err := svc.ListByStudent(context.Background(), "s1", studentClaims("s2"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
