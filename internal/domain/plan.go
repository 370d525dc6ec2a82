package domain

import "time"

// Plan status values kept as stored in the legacy schema.
const (
	PlanStatusPending   = "PENDIENTE"
	PlanStatusCompleted = "COMPLETADO"
)

// Snapshot activities always carry these fixed values.
const (
	SnapshotReference = "-"
	SnapshotDuration  = 1
)

// MaintenancePlan (PM) is a scheduled, dated instance of maintenance work.
// Its snapshot rows (SnapshotLevel/SnapshotActivity) are fully owned by it
// and are rebuilt wholesale on edit, never patched.
type MaintenancePlan struct {
	ID            int64      `json:"id"`
	LevelID       int64      `json:"level_id"`
	Sequence      int        `json:"sequence"`
	AssemblyID    int64      `json:"assembly_id"`
	TemplateID    *int64     `json:"template_id,omitempty"` // source template (PLT)
	ScheduledDate *time.Time `json:"scheduled_date,omitempty"`
	Status        string     `json:"status"`
	MeterReading  *float64   `json:"meter_reading,omitempty"`
	StartDate     *time.Time `json:"start_date,omitempty"`
	EndDate       *time.Time `json:"end_date,omitempty"`
}

// SnapshotLevel (rep_nivel) is a denormalized copy of a level as it existed
// at plan-creation time. Keys are allocated manually, not store-generated.
type SnapshotLevel struct {
	ID          int64  `json:"id"`
	PlanID      int64  `json:"plan_id"`
	LevelID     int64  `json:"level_id"`
	HierarchyID int64  `json:"hierarchy_id"`
	ParentID    int64  `json:"parent_id"` // 0 = no parent within this snapshot
	Description string `json:"description"`
}

// SnapshotActivity (rep_actividad) is a denormalized copy of an activity
// within a specific SnapshotLevel of the same plan.
type SnapshotActivity struct {
	ID              int64  `json:"id"`
	SnapshotLevelID int64  `json:"snapshot_level_id"`
	Order           int    `json:"order"`
	Description     string `json:"description"`
	Reference       string `json:"reference"`
	Duration        int    `json:"duration"`
}

// PlanActivityView is one row of the denormalized activity set attached to a
// plan, joined back to live level metadata for display.
type PlanActivityView struct {
	SnapshotActivityID int64  `json:"snapshot_activity_id"`
	SnapshotLevelID    int64  `json:"snapshot_level_id"`
	LevelID            int64  `json:"level_id"`
	LevelName          string `json:"level_name"`
	HierarchyID        int64  `json:"hierarchy_id"`
	Order              int    `json:"order"`
	Description        string `json:"description"`
	Reference          string `json:"reference"`
	Duration           int    `json:"duration"`
}
