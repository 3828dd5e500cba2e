package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hackeval/hackeval-api/internal/models"
)

const conversationColumns = `id, hackathon_id, task_id, student_id, group_id, model_name, messages,
	prompt_final AS "final.prompt_final", final_response AS "final.final_response", submitted_at AS "final.submitted_at",
	created_at, updated_at`

// ConversationRepository provides database access for conversation threads.
// The messages column is a JSONB array; appends happen in a single UPDATE so
// ordering is whatever the row-level serialization of the store provides.
type ConversationRepository struct {
	db *sqlx.DB
}

// NewConversationRepository creates a new instance of ConversationRepository.
func NewConversationRepository(db *sqlx.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Create inserts a conversation with an empty thread and submission.
func (r *ConversationRepository) Create(ctx context.Context, conv *models.Conversation) error {
	if conv.ID == "" {
		conv.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = now
	}
	conv.UpdatedAt = now
	if conv.Messages == nil {
		conv.Messages = models.MessageList{}
	}

	const query = `INSERT INTO conversations (id, hackathon_id, task_id, student_id, group_id, model_name, messages, prompt_final, final_response, submitted_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	if _, err := r.db.ExecContext(ctx, query,
		conv.ID, conv.HackathonID, conv.TaskID, conv.StudentID, conv.GroupID, conv.ModelName,
		conv.Messages, conv.FinalSubmission.PromptFinal, conv.FinalSubmission.FinalResponse, conv.FinalSubmission.SubmittedAt,
		conv.CreatedAt, conv.UpdatedAt,
	); err != nil {
		return fmt.Errorf("create conversation: %w", err)
	}
	return nil
}

// FindByID returns a conversation by identifier.
func (r *ConversationRepository) FindByID(ctx context.Context, id string) (*models.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE id = $1 LIMIT 1`
	var conv models.Conversation
	if err := r.db.GetContext(ctx, &conv, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find conversation by id: %w", err)
	}
	return &conv, nil
}

// AppendMessage appends one message atomically and returns the updated row.
// Returns sql.ErrNoRows when the conversation does not exist.
func (r *ConversationRepository) AppendMessage(ctx context.Context, id string, msg models.Message) (*models.Conversation, error) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal message: %w", err)
	}

	query := `UPDATE conversations SET messages = messages || $2::jsonb, updated_at = $3 WHERE id = $1 RETURNING ` + conversationColumns
	var conv models.Conversation
	if err := r.db.QueryRowxContext(ctx, query, id, string(raw), time.Now().UTC()).StructScan(&conv); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("append message: %w", err)
	}
	return &conv, nil
}

// SetFinalSubmission records the student's locked-in answer.
func (r *ConversationRepository) SetFinalSubmission(ctx context.Context, id string, final models.FinalSubmission) (*models.Conversation, error) {
	query := `UPDATE conversations SET prompt_final = $2, final_response = $3, submitted_at = $4, updated_at = $5 WHERE id = $1 RETURNING ` + conversationColumns
	var conv models.Conversation
	if err := r.db.QueryRowxContext(ctx, query, id, final.PromptFinal, final.FinalResponse, final.SubmittedAt, time.Now().UTC()).StructScan(&conv); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("set final submission: %w", err)
	}
	return &conv, nil
}

// ListByStudent returns all conversations owned by a student, newest first.
func (r *ConversationRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE student_id = $1 ORDER BY created_at DESC`
	var items []models.Conversation
	if err := r.db.SelectContext(ctx, &items, query, studentID); err != nil {
		return nil, fmt.Errorf("list conversations by student: %w", err)
	}
	return items, nil
}

// List returns conversations matching the filter, newest first.
func (r *ConversationRepository) List(ctx context.Context, filter models.ConversationFilter) ([]models.Conversation, error) {
	baseQuery := `FROM conversations WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.WithFinalVersion {
		conditions = append(conditions, "prompt_final <> '' AND final_response <> ''")
	}
	if filter.HackathonID != "" {
		conditions = append(conditions, fmt.Sprintf("hackathon_id = $%d", len(args)+1))
		args = append(args, filter.HackathonID)
	}
	if filter.TaskID != "" {
		conditions = append(conditions, fmt.Sprintf("task_id = $%d", len(args)+1))
		args = append(args, filter.TaskID)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	query := `SELECT ` + conversationColumns + ` ` + baseQuery + ` ORDER BY created_at DESC`
	var items []models.Conversation
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return items, nil
}
