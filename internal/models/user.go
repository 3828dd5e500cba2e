package models

import (
	"strings"
	"time"
)

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleStudent  UserRole = "student"
	RoleExaminer UserRole = "examiner"
	RoleAdmin    UserRole = "admin"
)

// roleAliases maps locale spellings seen in imported rosters onto the
// canonical role set. Normalization happens at the ingestion edge only.
var roleAliases = map[string]UserRole{
	"student":        RoleStudent,
	"etudiant":       RoleStudent,
	"étudiant":       RoleStudent,
	"examiner":       RoleExaminer,
	"examinateur":    RoleExaminer,
	"admin":          RoleAdmin,
	"administrateur": RoleAdmin,
}

// NormalizeRole resolves a raw role string to the canonical enumeration.
// Returns false when the value matches no known role or alias.
func NormalizeRole(raw string) (UserRole, bool) {
	role, ok := roleAliases[strings.ToLower(strings.TrimSpace(raw))]
	return role, ok
}

// User represents an account stored in the users table.
type User struct {
	ID            string    `db:"id" json:"id"`
	GivenName     string    `db:"given_name" json:"givenName"`
	FamilyName    string    `db:"family_name" json:"familyName"`
	Email         string    `db:"email" json:"email"`
	PasswordHash  string    `db:"password_hash" json:"-"`
	Role          UserRole  `db:"role" json:"role"`
	StudentNumber *string   `db:"student_number" json:"studentNumber,omitempty"`
	PromptUsage   int       `db:"prompt_usage" json:"promptUsage"`
	TokenUsage    int       `db:"token_usage" json:"tokenUsage"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}

// FullName renders the display name used in emails and exports.
func (u *User) FullName() string {
	return strings.TrimSpace(u.GivenName + " " + u.FamilyName)
}

// CreateUserRequest is the admin payload for provisioning an account.
type CreateUserRequest struct {
	GivenName     string `json:"givenName" validate:"required"`
	FamilyName    string `json:"familyName" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"omitempty,min=8"`
	Role          string `json:"role" validate:"required"`
	StudentNumber string `json:"studentNumber"`
}

// UpdateUserRequest carries optional field updates; nil means unchanged.
type UpdateUserRequest struct {
	GivenName     *string `json:"givenName"`
	FamilyName    *string `json:"familyName"`
	Email         *string `json:"email" validate:"omitempty,email"`
	Password      *string `json:"password" validate:"omitempty,min=8"`
	Role          *string `json:"role"`
	StudentNumber *string `json:"studentNumber"`
}

// ImportReport summarises a roster import run.
type ImportReport struct {
	Created int      `json:"created"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role     *UserRole
	Search   string
	Page     int
	PageSize int
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
