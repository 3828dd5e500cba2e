package service

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/hackeval/hackeval-api/internal/models"
	appErrors "github.com/hackeval/hackeval-api/pkg/errors"
)

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// UserService provides account administration use cases.
type UserService struct {
	repo      userRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs a UserService instance.
func NewUserService(repo userRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, validator: validate, logger: logger}
}

// List returns users matching the filter plus pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	return users, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns one user by id.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// Create provisions a new account. The email must be unique; the role must
// resolve to the canonical set.
func (s *UserService) Create(ctx context.Context, req models.CreateUserRequest, actorID string) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}

	role, ok := models.NormalizeRole(req.Role)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown role "+req.Role)
	}
	// Students authenticate with magic links; staff need a password to log in.
	if role != models.RoleStudent && req.Password == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "a password is required for examiner and admin accounts")
	}

	user := &models.User{
		GivenName:  strings.TrimSpace(req.GivenName),
		FamilyName: strings.TrimSpace(req.FamilyName),
		Email:      strings.ToLower(strings.TrimSpace(req.Email)),
		Role:       role,
	}
	if req.StudentNumber != "" {
		num := req.StudentNumber
		user.StudentNumber = &num
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
		}
		user.PasswordHash = string(hash)
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if isDuplicateErr(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a user with this email already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	s.audit(ctx, actorID, models.AuditActionUserCreate, user.ID)
	return user, nil
}

// Update applies partial changes to an existing account.
func (s *UserService) Update(ctx context.Context, id string, req models.UpdateUserRequest, actorID string) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if req.GivenName != nil {
		user.GivenName = strings.TrimSpace(*req.GivenName)
	}
	if req.FamilyName != nil {
		user.FamilyName = strings.TrimSpace(*req.FamilyName)
	}
	if req.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Role != nil {
		role, ok := models.NormalizeRole(*req.Role)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown role "+*req.Role)
		}
		user.Role = role
	}
	if req.StudentNumber != nil {
		user.StudentNumber = req.StudentNumber
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
		}
		user.PasswordHash = string(hash)
	}

	if err := s.repo.Update(ctx, user); err != nil {
		if isDuplicateErr(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a user with this email already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}

	s.audit(ctx, actorID, models.AuditActionUserUpdate, user.ID)
	return user, nil
}

// Delete removes an account permanently.
func (s *UserService) Delete(ctx context.Context, id string, actorID string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}

	s.audit(ctx, actorID, models.AuditActionUserDelete, id)
	return nil
}

// Import ingests a CSV roster. Expected columns in order: givenName,
// familyName, email, role, studentNumber. Locale role spellings are accepted;
// rows that fail validation are skipped and reported, never aborting the run.
func (s *UserService) Import(ctx context.Context, reader io.Reader, actorID string) (*models.ImportReport, error) {
	r := csv.NewReader(reader)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	report := &models.ImportReport{}
	line := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "malformed csv input")
		}
		line++

		if line == 1 && looksLikeHeader(record) {
			continue
		}
		if len(record) < 4 {
			report.Skipped++
			report.Errors = append(report.Errors, fmt.Sprintf("line %d: expected at least 4 columns", line))
			continue
		}

		role, ok := models.NormalizeRole(record[3])
		if !ok {
			report.Skipped++
			report.Errors = append(report.Errors, fmt.Sprintf("line %d: unknown role %q", line, record[3]))
			continue
		}

		user := &models.User{
			GivenName:  strings.TrimSpace(record[0]),
			FamilyName: strings.TrimSpace(record[1]),
			Email:      strings.ToLower(strings.TrimSpace(record[2])),
			Role:       role,
		}
		if user.Email == "" {
			report.Skipped++
			report.Errors = append(report.Errors, fmt.Sprintf("line %d: missing email", line))
			continue
		}
		if len(record) > 4 && strings.TrimSpace(record[4]) != "" {
			num := strings.TrimSpace(record[4])
			user.StudentNumber = &num
		}

		if err := s.repo.Create(ctx, user); err != nil {
			report.Skipped++
			if isDuplicateErr(err) {
				report.Errors = append(report.Errors, fmt.Sprintf("line %d: email %s already exists", line, user.Email))
			} else {
				report.Errors = append(report.Errors, fmt.Sprintf("line %d: %v", line, err))
			}
			continue
		}
		report.Created++
	}

	s.audit(ctx, actorID, models.AuditActionUserImport, "")
	s.logger.Info("roster import finished", zap.Int("created", report.Created), zap.Int("skipped", report.Skipped))
	return report, nil
}

func (s *UserService) audit(ctx context.Context, actorID, action, resourceID string) {
	log := &models.AuditLog{Action: action, Resource: "users"}
	if actorID != "" {
		log.UserID = &actorID
	}
	if resourceID != "" {
		log.ResourceID = &resourceID
	}
	if err := s.repo.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
	}
}

func looksLikeHeader(record []string) bool {
	if len(record) == 0 {
		return false
	}
	first := strings.ToLower(strings.TrimSpace(record[0]))
	return first == "givenname" || first == "given_name" || first == "prenom" || first == "prénom"
}
