package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackeval/hackeval-api/internal/models"
	appErrors "github.com/hackeval/hackeval-api/pkg/errors"
)

type fakeUserRepo struct {
	users     map[string]*models.User
	auditLogs []*models.AuditLog
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*models.User{}}
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserRepo) List(_ context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var out []models.User
	for _, u := range f.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (f *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	for _, u := range f.users {
		if u.Email == user.Email {
			return &pq.Error{Code: "23505", Constraint: "users_email_key"}
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *models.User) error {
	for id, u := range f.users {
		if id != user.ID && u.Email == user.Email {
			return &pq.Error{Code: "23505", Constraint: "users_email_key"}
		}
	}
	if _, ok := f.users[user.ID]; !ok {
		return sql.ErrNoRows
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.users[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUserRepo) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	f.auditLogs = append(f.auditLogs, log)
	return nil
}

func TestCreateUserNormalizesRoleAlias(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo, nil, nil)

	user, err := svc.Create(context.Background(), models.CreateUserRequest{
		GivenName:  "Lea",
		FamilyName: "Martin",
		Email:      "Lea@Example.com",
		Role:       "étudiant",
	}, "admin1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.Equal(t, "lea@example.com", user.Email)
	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionUserCreate, repo.auditLogs[0].Action)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo, nil, nil)

	_, err := svc.Create(context.Background(), models.CreateUserRequest{
		GivenName: "A", FamilyName: "B", Email: "dup@example.com", Role: "student",
	}, "admin1")
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), models.CreateUserRequest{
		GivenName: "C", FamilyName: "D", Email: "dup@example.com", Role: "student",
	}, "admin1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCreateStaffUserRequiresPassword(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo, nil, nil)

	for _, role := range []string{"examiner", "admin"} {
		_, err := svc.Create(context.Background(), models.CreateUserRequest{
			GivenName: "A", FamilyName: "B", Email: role + "@example.com", Role: role,
		}, "admin1")
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
	assert.Empty(t, repo.users)

	user, err := svc.Create(context.Background(), models.CreateUserRequest{
		GivenName: "A", FamilyName: "B", Email: "x@example.com", Role: "examiner", Password: "changeme123",
	}, "admin1")
	require.NoError(t, err)
	assert.NotEmpty(t, user.PasswordHash)
}

func TestCreateUserUnknownRole(t *testing.T) {
	svc := NewUserService(newFakeUserRepo(), nil, nil)

	_, err := svc.Create(context.Background(), models.CreateUserRequest{
		GivenName: "A", FamilyName: "B", Email: "a@example.com", Role: "wizard",
	}, "admin1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUpdateUserEmailConflict(t *testing.T) {
	repo := newFakeUserRepo()
	repo.users["u1"] = &models.User{ID: "u1", Email: "first@example.com", Role: models.RoleStudent}
	repo.users["u2"] = &models.User{ID: "u2", Email: "second@example.com", Role: models.RoleStudent}
	svc := NewUserService(repo, nil, nil)

	email := "second@example.com"
	_, err := svc.Update(context.Background(), "u1", models.UpdateUserRequest{Email: &email}, "admin1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestUpdateUserNotFound(t *testing.T) {
	svc := NewUserService(newFakeUserRepo(), nil, nil)

	name := "New"
	_, err := svc.Update(context.Background(), "missing", models.UpdateUserRequest{GivenName: &name}, "admin1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDeleteUserNotFoundMapped(t *testing.T) {
	svc := NewUserService(newFakeUserRepo(), nil, nil)

	err := svc.Delete(context.Background(), "missing", "admin1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestImportRoster(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo, nil, nil)

	csvInput := strings.Join([]string{
		"givenName,familyName,email,role,studentNumber",
		"Lea,Martin,lea@example.com,etudiant,S-001",
		"Paul,Durand,paul@example.com,examinateur,",
		"Bad,Row,bad@example.com,wizard,",
		"Dup,User,lea@example.com,student,",
	}, "\n")

	report, err := svc.Import(context.Background(), strings.NewReader(csvInput), "admin1")
	require.NoError(t, err)
	assert.Equal(t, 2, report.Created)
	assert.Equal(t, 2, report.Skipped)
	assert.Len(t, report.Errors, 2)

	lea, err := repo.FindByEmail(context.Background(), "lea@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, lea.Role)
	require.NotNil(t, lea.StudentNumber)
	assert.Equal(t, "S-001", *lea.StudentNumber)

	paul, err := repo.FindByEmail(context.Background(), "paul@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleExaminer, paul.Role)
}

func TestListUsersPaginationDefaults(t *testing.T) {
	repo := newFakeUserRepo()
	repo.users["u1"] = &models.User{ID: "u1", Email: "a@example.com", Role: models.RoleStudent}
	svc := NewUserService(repo, nil, nil)

	users, pagination, err := svc.List(context.Background(), models.UserFilter{})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 1, pagination.TotalCount)
}
