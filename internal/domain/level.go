package domain

import "time"

// Level is a node in the maintenance hierarchy
// (site / process / system / assembly / component).
// A level is never both template and generic; a template's parent
// must be a generic level.
type Level struct {
	ID               int64     `json:"id"`
	HierarchyID      int64     `json:"hierarchy_id"`
	ParentID         *int64    `json:"parent_id,omitempty"` // nil = root
	Name             string    `json:"name"`
	Template         bool      `json:"template"`
	Generic          bool      `json:"generic"`
	PlanCount        int       `json:"plan_count"`
	Icon             string    `json:"icon,omitempty"`
	Comment          string    `json:"comment,omitempty"`
	UserID           int64     `json:"user_id"`
	CreatedAt        time.Time `json:"created_at"`
	DisciplineID     *int64    `json:"discipline_id,omitempty"`
	MaintainableUnit bool      `json:"maintainable_unit"`
}
