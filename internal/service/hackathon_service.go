package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/hackeval/hackeval-api/internal/models"
	appErrors "github.com/hackeval/hackeval-api/pkg/errors"
)

const (
	hackathonListCacheKey   = "hackathons:list"
	hackathonCacheKeyPrefix = "hackathons:id:"
)

type hackathonRepository interface {
	FindByID(ctx context.Context, id string) (*models.Hackathon, error)
	List(ctx context.Context) ([]models.Hackathon, error)
	Create(ctx context.Context, h *models.Hackathon) error
	Update(ctx context.Context, h *models.Hackathon) error
	Delete(ctx context.Context, id string) error
}

type catalogCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// HackathonService provides catalog use cases. Reads go through the cache
// when one is configured; every write invalidates the whole catalog keyspace.
type HackathonService struct {
	repo      hackathonRepository
	cache     catalogCache
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
	cacheTTL  time.Duration
}

// NewHackathonService constructs a HackathonService instance.
func NewHackathonService(repo hackathonRepository, cache catalogCache, audit auditRecorder, validate *validator.Validate, logger *zap.Logger, cacheTTL time.Duration) *HackathonService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &HackathonService{repo: repo, cache: cache, audit: audit, validator: validate, logger: logger, cacheTTL: cacheTTL}
}

// List returns the whole catalog, newest first.
func (s *HackathonService) List(ctx context.Context) ([]models.Hackathon, error) {
	if s.cache != nil {
		var cached []models.Hackathon
		if err := s.cache.Get(ctx, hackathonListCacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list hackathons")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, hackathonListCacheKey, items, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache hackathon list", zap.Error(err))
		}
	}
	return items, nil
}

// Get returns one hackathon by id.
func (s *HackathonService) Get(ctx context.Context, id string) (*models.Hackathon, error) {
	if s.cache != nil {
		var cached models.Hackathon
		if err := s.cache.Get(ctx, hackathonCacheKeyPrefix+id, &cached); err == nil {
			return &cached, nil
		}
	}

	h, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Hackathon non trouvé")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load hackathon")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, hackathonCacheKeyPrefix+id, h, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache hackathon", zap.Error(err))
		}
	}
	return h, nil
}

// Tasks returns the positional task references for one hackathon.
func (s *HackathonService) Tasks(ctx context.Context, id string) ([]models.TaskRef, error) {
	h, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return h.TaskRefs(), nil
}

// Create defines a new hackathon.
func (s *HackathonService) Create(ctx context.Context, req models.CreateHackathonRequest, actorID string) (*models.Hackathon, error) {
	h, err := s.buildFromRequest(req)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, h); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create hackathon")
	}

	s.invalidate(ctx)
	s.recordWrite(ctx, actorID, h.ID)
	return h, nil
}

// Update replaces the definition of an existing hackathon.
func (s *HackathonService) Update(ctx context.Context, id string, req models.CreateHackathonRequest, actorID string) (*models.Hackathon, error) {
	h, err := s.buildFromRequest(req)
	if err != nil {
		return nil, err
	}
	h.ID = id

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Hackathon non trouvé")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load hackathon")
	}
	h.CreatedAt = existing.CreatedAt

	if h.Status == models.HackathonStatusArchived && existing.Status != models.HackathonStatusArchived {
		now := time.Now().UTC()
		h.Dates.ArchivedAt = &now
	} else if h.Status == existing.Status {
		h.Dates.ArchivedAt = existing.Dates.ArchivedAt
	}

	if err := s.repo.Update(ctx, h); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Hackathon non trouvé")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update hackathon")
	}

	s.invalidate(ctx)
	s.recordWrite(ctx, actorID, id)
	return h, nil
}

// Delete removes a hackathon permanently.
func (s *HackathonService) Delete(ctx context.Context, id string, actorID string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "Hackathon non trouvé")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete hackathon")
	}

	s.invalidate(ctx)
	s.recordWrite(ctx, actorID, id)
	return nil
}

func (s *HackathonService) buildFromRequest(req models.CreateHackathonRequest) (*models.Hackathon, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid hackathon payload")
	}

	debut, err := parseEventDate(req.Dates.Debut)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid start date "+req.Dates.Debut)
	}
	fin, err := parseEventDate(req.Dates.Fin)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid end date "+req.Dates.Fin)
	}
	if debut.After(fin) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start date must not be after end date")
	}

	status := req.Status
	if status == "" {
		status = models.HackathonStatusDraft
	}
	switch status {
	case models.HackathonStatusDraft, models.HackathonStatusActive, models.HackathonStatusArchived:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown status "+status)
	}

	if req.Quotas.PromptsPerStudent < 0 || req.Quotas.TokensPerStudent < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "quotas must not be negative")
	}

	tasks := make(pq.StringArray, 0, len(req.Tasks))
	for _, task := range req.Tasks {
		trimmed := strings.TrimSpace(task)
		if trimmed != "" {
			tasks = append(tasks, trimmed)
		}
	}

	return &models.Hackathon{
		Name:             strings.TrimSpace(req.Name),
		Description:      req.Description,
		Objectives:       req.Objectives,
		Dates:            models.DateRange{Debut: debut, Fin: fin},
		AnonymityEnabled: req.AnonymityEnabled,
		Quotas:           req.Quotas,
		Tasks:            tasks,
		Status:           status,
	}, nil
}

func (s *HackathonService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "hackathons:*"); err != nil {
		s.logger.Warn("failed to invalidate hackathon cache", zap.Error(err))
	}
}

func (s *HackathonService) recordWrite(ctx context.Context, actorID, id string) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{Action: models.AuditActionHackathonWrite, Resource: "hackathons", ResourceID: &id}
	if actorID != "" {
		log.UserID = &actorID
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record hackathon audit log", zap.Error(err))
	}
}

func parseEventDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", raw)
}
