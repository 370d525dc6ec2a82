package service

import (
	"context"
	"fmt"

	"gmao-data/internal/domain"
	"gmao-data/internal/repository"

	"go.uber.org/zap"
)

// SubtreeReplicator deep-copies a level subtree (levels, their activities
// and the activities' attribute values) from a source parent to a
// destination parent. Copies are strictly additive: nothing is ever deleted,
// and a failed child is skipped without aborting its siblings.
type SubtreeReplicator struct {
	levels     repository.LevelsRepository
	activities repository.ActivitiesRepository
	logger     *zap.Logger
}

func NewSubtreeReplicator(levels repository.LevelsRepository, activities repository.ActivitiesRepository, logger *zap.Logger) *SubtreeReplicator {
	return &SubtreeReplicator{
		levels:     levels,
		activities: activities,
		logger:     logger,
	}
}

// Replicate copies the subtree under sourceParentID to destParentID. At the
// first level, children flagged template or generic are excluded; deeper
// levels copy all children, because a template's internal structure may
// legitimately contain further organizational nodes.
func (r *SubtreeReplicator) Replicate(ctx context.Context, sourceParentID, destParentID int64) error {
	visited := map[int64]bool{sourceParentID: true}
	return r.replicate(ctx, sourceParentID, destParentID, true, visited)
}

func (r *SubtreeReplicator) replicate(ctx context.Context, sourceParentID, destParentID int64, firstLevel bool, visited map[int64]bool) error {
	children, err := r.levels.ListChildren(ctx, sourceParentID, firstLevel)
	if err != nil {
		return fmt.Errorf("failed to list children of level %d: %w", sourceParentID, err)
	}

	for _, child := range children {
		if visited[child.ID] {
			return fmt.Errorf("cycle detected in level hierarchy at level %d", child.ID)
		}
		visited[child.ID] = true

		newLevelID, err := r.levels.InsertLevelCopy(ctx, child, destParentID)
		if err != nil {
			// A failed child skips its whole subtree; siblings continue.
			r.logger.Warn("skipping subtree, level copy failed",
				zap.Int64("source_level_id", child.ID),
				zap.Int64("dest_parent_id", destParentID),
				zap.Error(err),
			)
			continue
		}

		r.copyActivities(ctx, child.ID, newLevelID)

		if err := r.replicate(ctx, child.ID, newLevelID, false, visited); err != nil {
			return err
		}
	}
	return nil
}

// copyActivities copies all activities of sourceLevelID, and each activity's
// attribute values, under destLevelID. A failed activity or value is logged
// and skipped; already-copied rows stay.
func (r *SubtreeReplicator) copyActivities(ctx context.Context, sourceLevelID, destLevelID int64) {
	activities, err := r.activities.ListByLevel(ctx, sourceLevelID)
	if err != nil {
		r.logger.Warn("failed to list activities for copy",
			zap.Int64("source_level_id", sourceLevelID),
			zap.Error(err),
		)
		return
	}

	for _, act := range activities {
		newActivityID, err := r.activities.InsertActivityCopy(ctx, act, destLevelID)
		if err != nil {
			r.logger.Warn("failed to copy activity",
				zap.Int64("source_activity_id", act.ID),
				zap.Int64("dest_level_id", destLevelID),
				zap.Error(err),
			)
			continue
		}
		r.copyAttributeValues(ctx, act, newActivityID)
	}
}

func (r *SubtreeReplicator) copyAttributeValues(ctx context.Context, src *domain.Activity, destActivityID int64) {
	values, err := r.activities.ListAttributeValues(ctx, src.ID)
	if err != nil {
		r.logger.Warn("failed to list attribute values for copy",
			zap.Int64("source_activity_id", src.ID),
			zap.Error(err),
		)
		return
	}
	for _, v := range values {
		if err := r.activities.InsertAttributeValueCopy(ctx, v, destActivityID); err != nil {
			r.logger.Warn("failed to copy attribute value",
				zap.Int64("source_value_id", v.ID),
				zap.Int64("dest_activity_id", destActivityID),
				zap.Error(err),
			)
		}
	}
}
