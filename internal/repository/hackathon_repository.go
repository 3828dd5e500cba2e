package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hackeval/hackeval-api/internal/models"
)

const hackathonColumns = `id, name, description, objectives,
	start_date AS "dates.debut", end_date AS "dates.fin", archived_at AS "dates.archived_at",
	anonymity_enabled,
	prompts_per_student AS "quotas.prompts_per_student", tokens_per_student AS "quotas.tokens_per_student",
	tasks, status, created_at, updated_at`

// HackathonRepository provides database access for the hackathon catalog.
type HackathonRepository struct {
	db *sqlx.DB
}

// NewHackathonRepository creates a new instance of HackathonRepository.
func NewHackathonRepository(db *sqlx.DB) *HackathonRepository {
	return &HackathonRepository{db: db}
}

// FindByID returns a hackathon by identifier.
func (r *HackathonRepository) FindByID(ctx context.Context, id string) (*models.Hackathon, error) {
	query := `SELECT ` + hackathonColumns + ` FROM hackathons WHERE id = $1 LIMIT 1`
	var h models.Hackathon
	if err := r.db.GetContext(ctx, &h, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find hackathon by id: %w", err)
	}
	return &h, nil
}

// List returns the full catalog, newest first.
func (r *HackathonRepository) List(ctx context.Context) ([]models.Hackathon, error) {
	query := `SELECT ` + hackathonColumns + ` FROM hackathons ORDER BY created_at DESC`
	var items []models.Hackathon
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list hackathons: %w", err)
	}
	return items, nil
}

// Create inserts a new hackathon definition.
func (r *HackathonRepository) Create(ctx context.Context, h *models.Hackathon) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if h.CreatedAt.IsZero() {
		h.CreatedAt = now
	}
	h.UpdatedAt = now

	const query = `INSERT INTO hackathons (id, name, description, objectives, start_date, end_date, archived_at, anonymity_enabled, prompts_per_student, tokens_per_student, tasks, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	if _, err := r.db.ExecContext(ctx, query,
		h.ID, h.Name, h.Description, h.Objectives,
		h.Dates.Debut, h.Dates.Fin, h.Dates.ArchivedAt,
		h.AnonymityEnabled, h.Quotas.PromptsPerStudent, h.Quotas.TokensPerStudent,
		h.Tasks, h.Status, h.CreatedAt, h.UpdatedAt,
	); err != nil {
		return fmt.Errorf("create hackathon: %w", err)
	}
	return nil
}

// Update replaces the mutable fields of a hackathon.
func (r *HackathonRepository) Update(ctx context.Context, h *models.Hackathon) error {
	h.UpdatedAt = time.Now().UTC()
	const query = `UPDATE hackathons SET name = $2, description = $3, objectives = $4, start_date = $5, end_date = $6, archived_at = $7, anonymity_enabled = $8, prompts_per_student = $9, tokens_per_student = $10, tasks = $11, status = $12, updated_at = $13 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query,
		h.ID, h.Name, h.Description, h.Objectives,
		h.Dates.Debut, h.Dates.Fin, h.Dates.ArchivedAt,
		h.AnonymityEnabled, h.Quotas.PromptsPerStudent, h.Quotas.TokensPerStudent,
		h.Tasks, h.Status, h.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update hackathon: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update hackathon rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a hackathon permanently.
func (r *HackathonRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM hackathons WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete hackathon: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete hackathon rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
