package models

import "time"

// Evaluation is an examiner's grade for one conversation. The pair
// (examiner_id, conversation_id) is unique at the store; hackathon/task ids
// are snapshots taken from the conversation at creation time and never
// refreshed afterwards.
type Evaluation struct {
	ID             string    `db:"id" json:"id"`
	ConversationID string    `db:"conversation_id" json:"conversationId"`
	StudentID      string    `db:"student_id" json:"studentId"`
	ExaminerID     string    `db:"examiner_id" json:"examinerId"`
	HackathonID    *string   `db:"hackathon_id" json:"hackathonId,omitempty"`
	TaskID         *string   `db:"task_id" json:"taskId,omitempty"`
	Note           int       `db:"note" json:"note"`
	Comment        string    `db:"comment" json:"comment"`
	GradedAt       time.Time `db:"graded_at" json:"gradedAt"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// CreateEvaluationRequest is the examiner payload for grading a conversation.
// StudentID and ExaminerID are optional; when supplied they must match the
// conversation owner and the authenticated examiner respectively.
type CreateEvaluationRequest struct {
	ConversationID string `json:"conversationId" validate:"required"`
	StudentID      string `json:"studentId"`
	ExaminerID     string `json:"examinerId"`
	Note           int    `json:"note" validate:"required,min=1,max=10"`
	Comment        string `json:"comment" validate:"required"`
}

// EvaluationFilter narrows examiner listings; "all" means no filter.
type EvaluationFilter struct {
	HackathonID string
	TaskID      string
}
