package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hackeval/hackeval-api/internal/models"
)

const evaluationColumns = `id, conversation_id, student_id, examiner_id, hackathon_id, task_id, note, comment, graded_at, created_at, updated_at`

// EvaluationRepository provides database access for examiner evaluations.
// Uniqueness of (examiner_id, conversation_id) is a store constraint; the
// insert error is the only reliable duplicate signal.
type EvaluationRepository struct {
	db *sqlx.DB
}

// NewEvaluationRepository creates a new instance of EvaluationRepository.
func NewEvaluationRepository(db *sqlx.DB) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

// Create inserts an evaluation. A unique violation surfaces through the
// wrapped error; use IsUniqueViolation to detect it.
func (r *EvaluationRepository) Create(ctx context.Context, ev *models.Evaluation) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = now
	}
	if ev.GradedAt.IsZero() {
		ev.GradedAt = now
	}
	ev.UpdatedAt = now

	const query = `INSERT INTO evaluations (id, conversation_id, student_id, examiner_id, hackathon_id, task_id, note, comment, graded_at, created_at, updated_at)
		VALUES (:id, :conversation_id, :student_id, :examiner_id, :hackathon_id, :task_id, :note, :comment, :graded_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, ev); err != nil {
		return fmt.Errorf("create evaluation: %w", err)
	}
	return nil
}

// ListByExaminer returns an examiner's evaluations, most recent grade first.
func (r *EvaluationRepository) ListByExaminer(ctx context.Context, examinerID string, filter models.EvaluationFilter) ([]models.Evaluation, error) {
	baseQuery := `FROM evaluations WHERE examiner_id = $1`
	args := []interface{}{examinerID}
	var conditions []string

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

	query := `SELECT ` + evaluationColumns + ` ` + baseQuery + ` ORDER BY graded_at DESC`
	var items []models.Evaluation
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list evaluations by examiner: %w", err)
	}
	return items, nil
}

// ListByStudent returns every evaluation for a student, most recent first.
func (r *EvaluationRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Evaluation, error) {
	query := `SELECT ` + evaluationColumns + ` FROM evaluations WHERE student_id = $1 ORDER BY graded_at DESC`
	var items []models.Evaluation
	if err := r.db.SelectContext(ctx, &items, query, studentID); err != nil {
		return nil, fmt.Errorf("list evaluations by student: %w", err)
	}
	return items, nil
}
