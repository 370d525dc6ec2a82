package service

import (
	"context"
	"errors"
	"fmt"

	"gmao-data/internal/domain"
	"gmao-data/internal/repository"

	"go.uber.org/zap"
)

// LevelService exposes level listing and creation, including the template
// replication side effect.
type LevelService struct {
	levels     repository.LevelsRepository
	replicator *SubtreeReplicator
	logger     *zap.Logger
}

func NewLevelService(levels repository.LevelsRepository, replicator *SubtreeReplicator, logger *zap.Logger) *LevelService {
	return &LevelService{
		levels:     levels,
		replicator: replicator,
		logger:     logger,
	}
}

// ListLevelsRequest carries the optional ListLevels filters.
type ListLevelsRequest struct {
	Name             string
	HierarchyID      *int64
	ParentID         *int64
	Template         *bool
	DisciplineID     *int64
	MaintainableUnit *bool
}

func (s *LevelService) ListLevels(ctx context.Context, req ListLevelsRequest) ([]*domain.Level, error) {
	levels, err := s.levels.ListLevels(ctx, repository.LevelFilters{
		Name:             req.Name,
		HierarchyID:      req.HierarchyID,
		ParentID:         req.ParentID,
		Template:         req.Template,
		DisciplineID:     req.DisciplineID,
		MaintainableUnit: req.MaintainableUnit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list levels: %w", err)
	}
	if levels == nil {
		levels = []*domain.Level{}
	}
	return levels, nil
}

// CreateLevelRequest carries the fields of a new level.
type CreateLevelRequest struct {
	HierarchyID      int64   `json:"hierarchy_id"`
	ParentID         *int64  `json:"parent_id"`
	Name             string  `json:"name"`
	Template         bool    `json:"template"`
	Generic          bool    `json:"generic"`
	PlanCount        int     `json:"plan_count"`
	Icon             string  `json:"icon"`
	Comment          string  `json:"comment"`
	UserID           int64   `json:"user_id"`
	DisciplineID     *int64  `json:"discipline_id"`
	MaintainableUnit bool    `json:"maintainable_unit"`
}

// CreateLevel validates and inserts a level. When the new level is a
// template, the generic parent's subtree is replicated under it; a
// replication failure is logged and suppressed, the level itself stays.
func (s *LevelService) CreateLevel(ctx context.Context, req CreateLevelRequest) (*domain.Level, error) {
	if req.Name == "" {
		return nil, invalidf("name is required")
	}
	if req.HierarchyID == 0 {
		return nil, invalidf("hierarchy_id is required")
	}
	if req.Template && req.Generic {
		return nil, invalidf("a level cannot be both template and generic")
	}
	if req.Template {
		if req.ParentID == nil {
			return nil, invalidf("a template level requires a generic parent")
		}
		parent, err := s.levels.GetLevel(ctx, *req.ParentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, invalidf("parent level %d not found", *req.ParentID)
			}
			return nil, fmt.Errorf("failed to get parent level %d: %w", *req.ParentID, err)
		}
		if !parent.Generic {
			return nil, invalidf("a template level's parent must be generic")
		}
	}

	level := &domain.Level{
		HierarchyID:      req.HierarchyID,
		ParentID:         req.ParentID,
		Name:             req.Name,
		Template:         req.Template,
		Generic:          req.Generic,
		PlanCount:        req.PlanCount,
		Icon:             req.Icon,
		Comment:          req.Comment,
		UserID:           req.UserID,
		DisciplineID:     req.DisciplineID,
		MaintainableUnit: req.MaintainableUnit,
	}

	id, err := s.levels.CreateLevel(ctx, level)
	if err != nil {
		return nil, fmt.Errorf("failed to create level: %w", err)
	}
	level.ID = id

	if req.Template {
		// Best effort: the template level is kept even when replication
		// fails; callers must treat an empty template subtree as a valid
		// but incomplete outcome.
		if err := s.replicator.Replicate(ctx, *req.ParentID, id); err != nil {
			s.logger.Error("template subtree replication failed",
				zap.Int64("template_level_id", id),
				zap.Int64("source_parent_id", *req.ParentID),
				zap.Error(err),
			)
		}
	}

	return level, nil
}
