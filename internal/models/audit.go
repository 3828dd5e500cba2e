package models

import "time"

// Audit actions recorded against administrative and auth activity.
const (
	AuditActionLogin           = "auth.login"
	AuditActionMagicLinkVerify = "auth.magic_link_verify"
	AuditActionUserCreate      = "users.create"
	AuditActionUserUpdate      = "users.update"
	AuditActionUserDelete      = "users.delete"
	AuditActionUserImport      = "users.import"
	AuditActionHackathonWrite  = "hackathons.write"
)

// AuditLog stores a trace of who changed what.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"userId,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resourceId,omitempty"`
	OldValues  []byte    `db:"old_values" json:"-"`
	NewValues  []byte    `db:"new_values" json:"-"`
	IPAddress  string    `db:"ip_address" json:"ipAddress,omitempty"`
	UserAgent  string    `db:"user_agent" json:"userAgent,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}
