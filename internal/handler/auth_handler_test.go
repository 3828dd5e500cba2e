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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hackeval/hackeval-api/internal/middleware"
	"github.com/hackeval/hackeval-api/internal/models"
	"github.com/hackeval/hackeval-api/internal/service"
	"github.com/hackeval/hackeval-api/pkg/jobs"
)

type authRepoStub struct {
	user *models.User
}

func (s *authRepoStub) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if s.user != nil && s.user.Email == email {
		return s.user, nil
	}
	return nil, sql.ErrNoRows
}

func (s *authRepoStub) FindByID(_ context.Context, id string) (*models.User, error) {
	if s.user != nil && s.user.ID == id {
		return s.user, nil
	}
	return nil, sql.ErrNoRows
}

func (s *authRepoStub) CreateMagicLinkToken(_ context.Context, _ *models.MagicLinkToken) error {
	return nil
}

func (s *authRepoStub) FindMagicLinkToken(_ context.Context, _ string) (*models.MagicLinkToken, error) {
	return nil, sql.ErrNoRows
}

func (s *authRepoStub) ConsumeMagicLinkToken(_ context.Context, _ string, _ time.Time) error {
	return nil
}

func (s *authRepoStub) CreateAuditLog(_ context.Context, _ *models.AuditLog) error {
	return nil
}

type queueStub struct{}

func (queueStub) Enqueue(_ jobs.Job) error { return nil }

func newAuthHandlerFixture(user *models.User) *AuthHandler {
	svc := service.NewAuthService(&authRepoStub{user: user}, queueStub{}, nil, nil, service.AuthConfig{
		AccessTokenSecret: "test-secret",
		AccessTokenExpiry: time.Hour,
		MagicLinkExpiry:   time.Hour,
		Issuer:            "hackeval-test",
		MagicLinkBaseURL:  "http://localhost:3000/login/verify",
	})
	return NewAuthHandler(svc)
}

func TestAuthHandlerLoginSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cretpass"), bcrypt.MinCost)
	require.NoError(t, err)
	handler := newAuthHandlerFixture(&models.User{
		ID:           "a1",
		Email:        "admin@hackeval.local",
		Role:         models.RoleAdmin,
		PasswordHash: string(hash),
	})

	payload, _ := json.Marshal(models.LoginRequest{Email: "admin@hackeval.local", Password: "s3cretpass"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/auth/credentials", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Login(c)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data models.LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Data.Token)
	assert.Equal(t, "a1", body.Data.User.ID)
}

func TestAuthHandlerLoginInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAuthHandlerFixture(nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/auth/credentials", bytes.NewBufferString(`{"email":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Login(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandlerRequestMagicLinkAlwaysAccepted(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAuthHandlerFixture(nil)

	payload, _ := json.Marshal(models.MagicLinkRequest{Email: "nobody@hackeval.local"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/auth/magic-link", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.RequestMagicLink(c)
	require.Equal(t, http.StatusAccepted, w.Code)
}

func TestAuthHandlerVerifyMagicLinkMissingToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAuthHandlerFixture(nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/auth/magic-link/verify", nil)
	c.Request = req

	handler.VerifyMagicLink(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandlerVerifyMagicLinkUnknownToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAuthHandlerFixture(nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/auth/magic-link/verify?token=bogus", nil)
	c.Request = req

	handler.VerifyMagicLink(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandlerMe(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAuthHandlerFixture(nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/auth/me", nil)
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "s1", Email: "s1@hackeval.local", Role: models.RoleStudent})

	handler.Me(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "s1@hackeval.local")
}

func TestAuthHandlerMeUnauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAuthHandlerFixture(nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/auth/me", nil)
	c.Request = req

	handler.Me(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
