package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Message roles within a conversation thread.
const (
	MessageRoleStudent   = "student"
	MessageRoleAssistant = "assistant"
	MessageRoleSystem    = "system"
)

// Message is one entry in a conversation's append-only thread.
type Message struct {
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
	TokenCount *int      `json:"tokenCount,omitempty"`
	ModelUsed  *string   `json:"modelUsed,omitempty"`
}

// MessageList maps the messages JSONB column onto a Go slice. Appends go
// through a single-row atomic JSONB concatenation, never a read-modify-write.
type MessageList []Message

// Value marshals the list for storage.
func (m MessageList) Value() (driver.Value, error) {
	if m == nil {
		return "[]", nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal messages: %w", err)
	}
	return string(raw), nil
}

// Scan unmarshals the JSONB column.
func (m *MessageList) Scan(src interface{}) error {
	if src == nil {
		*m = MessageList{}
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported messages column type %T", src)
	}
	return json.Unmarshal(raw, m)
}

// FinalSubmission is the student's locked-in answer. Empty fields mean the
// conversation has not been submitted yet; once set it is treated as
// immutable history.
type FinalSubmission struct {
	PromptFinal   string     `db:"prompt_final" json:"promptFinal"`
	FinalResponse string     `db:"final_response" json:"finalResponse"`
	SubmittedAt   *time.Time `db:"submitted_at" json:"submittedAt,omitempty"`
}

// Present reports whether both submission fields carry content.
func (f FinalSubmission) Present() bool {
	return f.PromptFinal != "" && f.FinalResponse != ""
}

// Conversation is a per-student AI thread within a hackathon/task context.
type Conversation struct {
	ID              string          `db:"id" json:"id"`
	HackathonID     *string         `db:"hackathon_id" json:"hackathonId,omitempty"`
	TaskID          *string         `db:"task_id" json:"taskId,omitempty"`
	StudentID       *string         `db:"student_id" json:"studentId,omitempty"`
	GroupID         *string         `db:"group_id" json:"groupId,omitempty"`
	ModelName       *string         `db:"model_name" json:"modelName,omitempty"`
	Messages        MessageList     `db:"messages" json:"messages"`
	FinalSubmission FinalSubmission `db:"final" json:"finalSubmission"`
	CreatedAt       time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updatedAt"`
}

// ConversationFilter narrows conversation listings. The literal value "all"
// is a no-filter sentinel kept for UI compatibility.
type ConversationFilter struct {
	WithFinalVersion bool
	HackathonID      string
	TaskID           string
}

// CreateConversationRequest opens a new thread for the calling student.
type CreateConversationRequest struct {
	HackathonID string `json:"hackathonId"`
	TaskID      string `json:"taskId"`
	GroupID     string `json:"groupId"`
	ModelName   string `json:"modelName"`
}

// SendPromptRequest appends a student prompt and asks for a completion.
type SendPromptRequest struct {
	Content   string `json:"content" validate:"required"`
	ModelName string `json:"modelName"`
}

// FinalSubmissionRequest locks in the student's answer for grading.
type FinalSubmissionRequest struct {
	PromptFinal   string `json:"promptFinal" validate:"required"`
	FinalResponse string `json:"finalResponse" validate:"required"`
}

// PromptExchange pairs the updated conversation with the raw assistant reply
// produced by the prompt that triggered it.
type PromptExchange struct {
	Conversation *Conversation `json:"conversation"`
	Response     string        `json:"response"`
}

// ConversationPreview is the list projection of a conversation. Preview holds
// the truncated first message.
type ConversationPreview struct {
	ID           string     `json:"id"`
	HackathonID  *string    `json:"hackathonId,omitempty"`
	TaskID       *string    `json:"taskId,omitempty"`
	StudentID    *string    `json:"studentId,omitempty"`
	Preview      string     `json:"preview"`
	MessageCount int        `json:"messageCount"`
	Submitted    bool       `json:"submitted"`
	SubmittedAt  *time.Time `json:"submittedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}
