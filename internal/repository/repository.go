package repository

import (
	"context"
	"errors"

	"gmao-data/internal/domain"
)

// ErrNotFound marks lookups whose target row does not exist. Services use it
// to tell a bad identifier apart from a store failure.
var ErrNotFound = errors.New("not found")

// LevelFilters narrows ListLevels. Zero values mean "no filter".
type LevelFilters struct {
	Name             string
	HierarchyID      *int64
	ParentID         *int64
	Template         *bool
	DisciplineID     *int64
	MaintainableUnit *bool
}

// LevelsRepository provides access to the level hierarchy (nivel).
type LevelsRepository interface {
	ListLevels(ctx context.Context, filters LevelFilters) ([]*domain.Level, error)
	GetLevel(ctx context.Context, levelID int64) (*domain.Level, error)
	CreateLevel(ctx context.Context, level *domain.Level) (int64, error)

	// ListChildren returns the direct children of parentID ordered by id
	// ascending. With excludeTemplateGeneric set, children flagged template
	// or generic are left out (first-level replication filtering).
	ListChildren(ctx context.Context, parentID int64, excludeTemplateGeneric bool) ([]*domain.Level, error)

	// InsertLevelCopy inserts a copy of src under parentID. The copy is
	// never a template or generic regardless of the source flags.
	InsertLevelCopy(ctx context.Context, src *domain.Level, parentID int64) (int64, error)
}

// ActivitiesRepository provides access to activities (actividad_nivel) and
// their attribute values (atributo_valor).
type ActivitiesRepository interface {
	ListByLevel(ctx context.Context, levelID int64) ([]*domain.Activity, error)
	ListByIDs(ctx context.Context, ids []int64) ([]*domain.Activity, error)
	InsertActivityCopy(ctx context.Context, src *domain.Activity, levelID int64) (int64, error)
	ListAttributeValues(ctx context.Context, activityID int64) ([]*domain.AttributeValue, error)
	InsertAttributeValueCopy(ctx context.Context, src *domain.AttributeValue, activityID int64) error
}

// PlanFilters narrows ListPlans.
type PlanFilters struct {
	LevelID    *int64
	Sequence   *int
	AssemblyID *int64
	Status     string
}

// PlansRepository provides access to maintenance plans (pm) and their
// snapshot tables (rep_nivel, rep_actividad).
type PlansRepository interface {
	ListPlans(ctx context.Context, filters PlanFilters) ([]*domain.MaintenancePlan, error)
	GetPlan(ctx context.Context, planID int64) (*domain.MaintenancePlan, error)

	// CreatePlan inserts the plan row with an explicitly allocated key, in
	// its own transaction, and returns the new plan id.
	CreatePlan(ctx context.Context, plan *domain.MaintenancePlan) (int64, error)

	// PopulateTemplateSnapshot builds the snapshot rows for a plan created
	// from a template: one SnapshotLevel per direct child of the template,
	// and one SnapshotActivity per unparameterized (attribute-type-less)
	// activity of each child. Runs in its own transaction; the caller
	// decides whether a failure is fatal.
	PopulateTemplateSnapshot(ctx context.Context, planID, templateLevelID int64) error

	// CreatePlanFromActivities inserts the plan and its full snapshot
	// derived from the given activity ids in one transaction. Any failure
	// rolls back everything including the plan row.
	CreatePlanFromActivities(ctx context.Context, plan *domain.MaintenancePlan, activityIDs []int64) (int64, error)

	// ReplaceActivities tears down the plan's entire snapshot and rebuilds
	// it from activityIDs in one transaction. An empty list leaves the plan
	// with no snapshot rows.
	ReplaceActivities(ctx context.Context, planID int64, activityIDs []int64) error

	ListPlanActivities(ctx context.Context, planID int64) ([]*domain.PlanActivityView, error)
}
