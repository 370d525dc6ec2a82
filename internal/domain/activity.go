package domain

// Activity is a maintenance task definition attached to one level.
// Order is used for display and tie-breaking within a level.
type Activity struct {
	ID              int64  `json:"id"`
	LevelID         int64  `json:"level_id"`
	AttributeTypeID *int64 `json:"attribute_type_id,omitempty"` // nil = unparameterized
	Order           int    `json:"order"`
	Description     string `json:"description"`

	// FMEA-style fields, all optional.
	FailureMode      string `json:"failure_mode,omitempty"`
	MTTF             *int   `json:"mttf,omitempty"`
	MaintenanceClass string `json:"maintenance_class,omitempty"`
	Frequency        *int   `json:"frequency,omitempty"`
	Duration         *int   `json:"duration,omitempty"`
	AccessCondition  string `json:"access_condition,omitempty"`
	TaskDisciplineID *int64 `json:"task_discipline_id,omitempty"`
}

// AttributeValue is a value recorded against one activity. Copied verbatim
// (minus identifier) alongside its activity during subtree replication.
type AttributeValue struct {
	ID         int64  `json:"id"`
	ActivityID int64  `json:"activity_id"`
	Value      string `json:"value"`
}
