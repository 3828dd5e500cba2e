package models

import (
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Hackathon lifecycle states.
const (
	HackathonStatusDraft    = "draft"
	HackathonStatusActive   = "active"
	HackathonStatusArchived = "archived"
)

// DateRange bounds a hackathon. Debut must not be after Fin.
type DateRange struct {
	Debut      time.Time  `db:"debut" json:"debut"`
	Fin        time.Time  `db:"fin" json:"fin"`
	ArchivedAt *time.Time `db:"archived_at" json:"archivedAt,omitempty"`
}

// Quotas caps per-student AI usage inside a hackathon. Zero means unlimited.
type Quotas struct {
	PromptsPerStudent int `db:"prompts_per_student" json:"promptsPerStudent"`
	TokensPerStudent  int `db:"tokens_per_student" json:"tokensPerStudent"`
}

// Hackathon represents an event definition in the catalog.
type Hackathon struct {
	ID               string         `db:"id" json:"id"`
	Name             string         `db:"name" json:"name"`
	Description      string         `db:"description" json:"description"`
	Objectives       string         `db:"objectives" json:"objectives"`
	Dates            DateRange      `db:"dates" json:"dates"`
	AnonymityEnabled bool           `db:"anonymity_enabled" json:"anonymityEnabled"`
	Quotas           Quotas         `db:"quotas" json:"quotas"`
	Tasks            pq.StringArray `db:"tasks" json:"tasks" swaggertype:"array,string"`
	Status           string         `db:"status" json:"status"`
	CreatedAt        time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updatedAt"`
}

// DateRangeRequest carries hackathon bounds as ISO strings.
type DateRangeRequest struct {
	Debut string `json:"debut" validate:"required"`
	Fin   string `json:"fin" validate:"required"`
}

// CreateHackathonRequest is the admin payload for defining an event.
type CreateHackathonRequest struct {
	Name             string           `json:"name" validate:"required"`
	Description      string           `json:"description"`
	Objectives       string           `json:"objectives"`
	Dates            DateRangeRequest `json:"dates" validate:"required"`
	AnonymityEnabled bool             `json:"anonymityEnabled"`
	Quotas           Quotas           `json:"quotas"`
	Tasks            []string         `json:"tasks"`
	Status           string           `json:"status"`
}

// TaskRef is the lightweight task-picker projection of a hackathon task.
type TaskRef struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	HackathonID string `json:"hackathonId"`
}

// TaskRefs expands the ordered task list into picker entries. Task ids are
// positional: "<hackathonId>-task-<index>".
func (h *Hackathon) TaskRefs() []TaskRef {
	refs := make([]TaskRef, 0, len(h.Tasks))
	for i, name := range h.Tasks {
		refs = append(refs, TaskRef{
			ID:          fmt.Sprintf("%s-task-%d", h.ID, i),
			Name:        name,
			HackathonID: h.ID,
		})
	}
	return refs
}
