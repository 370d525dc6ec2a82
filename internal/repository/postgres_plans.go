package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"gmao-data/internal/domain"

	"github.com/lib/pq"
)

// PostgresPlansRepository implements PlansRepository over the legacy pm,
// rep_nivel and rep_actividad tables. The three tables use explicit-key
// insert mode; keys come from NextKey seeded once per transaction.
type PostgresPlansRepository struct {
	db *sql.DB
}

func NewPostgresPlansRepository(db *sql.DB) *PostgresPlansRepository {
	return &PostgresPlansRepository{db: db}
}

var _ PlansRepository = (*PostgresPlansRepository)(nil)

const planColumns = `
	idpm,
	idn,
	secuencia,
	conjunto,
	plt,
	fecha_programada,
	estado,
	horometro,
	fecha_inicio,
	fecha_fin`

func scanPlan(s interface{ Scan(...any) error }) (*domain.MaintenancePlan, error) {
	var plan domain.MaintenancePlan
	var templateID sql.NullInt64
	var scheduled, start, end sql.NullTime
	var meter sql.NullFloat64
	if err := s.Scan(
		&plan.ID,
		&plan.LevelID,
		&plan.Sequence,
		&plan.AssemblyID,
		&templateID,
		&scheduled,
		&plan.Status,
		&meter,
		&start,
		&end,
	); err != nil {
		return nil, err
	}
	if templateID.Valid {
		plan.TemplateID = &templateID.Int64
	}
	if scheduled.Valid {
		plan.ScheduledDate = &scheduled.Time
	}
	if meter.Valid {
		plan.MeterReading = &meter.Float64
	}
	if start.Valid {
		plan.StartDate = &start.Time
	}
	if end.Valid {
		plan.EndDate = &end.Time
	}
	return &plan, nil
}

// ListPlans returns plans matching the given filters, newest first.
func (r *PostgresPlansRepository) ListPlans(ctx context.Context, filters PlanFilters) ([]*domain.MaintenancePlan, error) {
	where := []string{"1=1"}
	args := []any{}
	argN := 1

	if filters.LevelID != nil {
		where = append(where, fmt.Sprintf("idn = $%d", argN))
		args = append(args, *filters.LevelID)
		argN++
	}
	if filters.Sequence != nil {
		where = append(where, fmt.Sprintf("secuencia = $%d", argN))
		args = append(args, *filters.Sequence)
		argN++
	}
	if filters.AssemblyID != nil {
		where = append(where, fmt.Sprintf("conjunto = $%d", argN))
		args = append(args, *filters.AssemblyID)
		argN++
	}
	if filters.Status != "" {
		where = append(where, fmt.Sprintf("estado = $%d", argN))
		args = append(args, filters.Status)
		argN++
	}

	query := `SELECT ` + planColumns + `
		FROM pm
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY idpm DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	var plans []*domain.MaintenancePlan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		plans = append(plans, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate plans: %w", err)
	}
	return plans, nil
}

// GetPlan returns one plan by id.
func (r *PostgresPlansRepository) GetPlan(ctx context.Context, planID int64) (*domain.MaintenancePlan, error) {
	query := `SELECT ` + planColumns + `
		FROM pm
		WHERE idpm = $1`

	plan, err := scanPlan(r.db.QueryRowContext(ctx, query, planID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("plan %d: %w", planID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return plan, nil
}

// insertPlanTx allocates the plan's explicit key and inserts the pm row
// within tx.
func insertPlanTx(ctx context.Context, tx *sql.Tx, plan *domain.MaintenancePlan) (int64, error) {
	planID, err := NextKey(ctx, tx, "pm")
	if err != nil {
		return 0, err
	}

	// Defaults are written back so the caller returns the stored state.
	if plan.Status == "" {
		plan.Status = domain.PlanStatusPending
	}
	if plan.ScheduledDate == nil {
		now := time.Now()
		plan.ScheduledDate = &now
	}

	var templateArg, meterArg, startArg, endArg any
	if plan.TemplateID != nil {
		templateArg = *plan.TemplateID
	}
	if plan.MeterReading != nil {
		meterArg = *plan.MeterReading
	}
	if plan.StartDate != nil {
		startArg = *plan.StartDate
	}
	if plan.EndDate != nil {
		endArg = *plan.EndDate
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO pm (
			idpm, idn, secuencia, conjunto, plt,
			fecha_programada, estado, horometro, fecha_inicio, fecha_fin
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		planID, plan.LevelID, plan.Sequence, plan.AssemblyID, templateArg,
		*plan.ScheduledDate, plan.Status, meterArg, startArg, endArg,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert plan: %w", err)
	}
	return planID, nil
}

// CreatePlan inserts the plan row in its own transaction and returns the new
// plan id. Snapshot population, if any, happens afterwards so that a failure
// there never erases the plan itself.
func (r *PostgresPlansRepository) CreatePlan(ctx context.Context, plan *domain.MaintenancePlan) (int64, error) {
	if plan == nil {
		return 0, fmt.Errorf("plan is required")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	planID, err := insertPlanTx(ctx, tx, plan)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return planID, nil
}

// PopulateTemplateSnapshot snapshots the direct children of the template
// level and their unparameterized activities (idt IS NULL). Template-born
// plans take only default tasks; parameterized activities are excluded on
// this path, unlike the manual path.
func (r *PostgresPlansRepository) PopulateTemplateSnapshot(ctx context.Context, planID, templateLevelID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT idn, idh, idnp, nombre
		FROM nivel
		WHERE idnp = $1
		ORDER BY idn ASC`,
		templateLevelID,
	)
	if err != nil {
		return fmt.Errorf("failed to list template children: %w", err)
	}

	type childLevel struct {
		id          int64
		hierarchyID int64
		parentID    int64
		name        string
	}
	var children []childLevel
	for rows.Next() {
		var c childLevel
		var parent sql.NullInt64
		if err := rows.Scan(&c.id, &c.hierarchyID, &parent, &c.name); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan template child: %w", err)
		}
		if parent.Valid {
			c.parentID = parent.Int64
		} else {
			c.parentID = templateLevelID
		}
		children = append(children, c)
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("failed to close template children rows: %w", err)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate template children: %w", err)
	}
	if len(children) == 0 {
		return tx.Commit()
	}

	// Seed both counters once; increment locally per insert.
	snapshotLevelID, err := NextKey(ctx, tx, "rep_nivel")
	if err != nil {
		return err
	}
	snapshotActivityID, err := NextKey(ctx, tx, "rep_actividad")
	if err != nil {
		return err
	}

	for _, child := range children {
		levelKey := snapshotLevelID
		snapshotLevelID++

		_, err := tx.ExecContext(ctx, `
			INSERT INTO rep_nivel (idrn, idpm, idn, idh, idnp, descripcion)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			levelKey, planID, child.id, child.hierarchyID, child.parentID, child.name,
		)
		if err != nil {
			return fmt.Errorf("failed to insert snapshot level for level %d: %w", child.id, err)
		}

		actRows, err := tx.QueryContext(ctx, `
			SELECT orden, descripcion
			FROM actividad_nivel
			WHERE idn = $1 AND idt IS NULL
			ORDER BY orden ASC, ida ASC`,
			child.id,
		)
		if err != nil {
			return fmt.Errorf("failed to list default activities of level %d: %w", child.id, err)
		}

		type defaultActivity struct {
			order       int
			description string
		}
		var activities []defaultActivity
		for actRows.Next() {
			var a defaultActivity
			if err := actRows.Scan(&a.order, &a.description); err != nil {
				actRows.Close()
				return fmt.Errorf("failed to scan default activity: %w", err)
			}
			activities = append(activities, a)
		}
		if err := actRows.Close(); err != nil {
			return fmt.Errorf("failed to close default activity rows: %w", err)
		}
		if err := actRows.Err(); err != nil {
			return fmt.Errorf("failed to iterate default activities: %w", err)
		}

		for _, act := range activities {
			activityKey := snapshotActivityID
			snapshotActivityID++

			_, err := tx.ExecContext(ctx, `
				INSERT INTO rep_actividad (idra, idrn, orden, descripcion, referencia, duracion)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				activityKey, levelKey, act.order, act.description,
				domain.SnapshotReference, domain.SnapshotDuration,
			)
			if err != nil {
				return fmt.Errorf("failed to insert snapshot activity: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// CreatePlanFromActivities inserts the plan and its snapshot in a single
// transaction. Any failure rolls back everything, plan row included.
func (r *PostgresPlansRepository) CreatePlanFromActivities(ctx context.Context, plan *domain.MaintenancePlan, activityIDs []int64) (int64, error) {
	if plan == nil {
		return 0, fmt.Errorf("plan is required")
	}
	if len(activityIDs) == 0 {
		return 0, fmt.Errorf("activity ids are required")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	planID, err := insertPlanTx(ctx, tx, plan)
	if err != nil {
		return 0, err
	}
	if err := buildSnapshotTx(ctx, tx, planID, activityIDs); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return planID, nil
}

// ReplaceActivities deletes the plan's entire snapshot and rebuilds it from
// activityIDs within one transaction. An empty list is a valid reconciliation
// target and leaves zero snapshot rows.
func (r *PostgresPlansRepository) ReplaceActivities(ctx context.Context, planID int64, activityIDs []int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		DELETE FROM rep_actividad
		WHERE idrn IN (SELECT idrn FROM rep_nivel WHERE idpm = $1)`,
		planID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot activities: %w", err)
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM rep_nivel WHERE idpm = $1`, planID)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot levels: %w", err)
	}

	if len(activityIDs) > 0 {
		if err := buildSnapshotTx(ctx, tx, planID, activityIDs); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// buildSnapshotTx constructs the plan's snapshot rows from an explicit
// activity selection: one rep_nivel row per distinct owning level, one
// rep_actividad row per selected activity, keys seeded once and incremented
// locally.
func buildSnapshotTx(ctx context.Context, tx *sql.Tx, planID int64, activityIDs []int64) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT ida, idn, orden, descripcion
		FROM actividad_nivel
		WHERE ida = ANY($1)
		ORDER BY idn ASC, orden ASC, ida ASC`,
		pq.Array(activityIDs),
	)
	if err != nil {
		return fmt.Errorf("failed to query selected activities: %w", err)
	}

	type selectedActivity struct {
		id          int64
		levelID     int64
		order       int
		description string
	}
	var activities []selectedActivity
	for rows.Next() {
		var a selectedActivity
		if err := rows.Scan(&a.id, &a.levelID, &a.order, &a.description); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan selected activity: %w", err)
		}
		activities = append(activities, a)
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("failed to close selected activity rows: %w", err)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate selected activities: %w", err)
	}
	distinct := make(map[int64]bool, len(activityIDs))
	for _, id := range activityIDs {
		distinct[id] = true
	}
	if len(activities) != len(distinct) {
		return fmt.Errorf("selected activities not found: requested %d, found %d", len(distinct), len(activities))
	}

	// Distinct owning levels, in activity query order.
	var levelIDs []int64
	seen := make(map[int64]bool, len(activities))
	for _, a := range activities {
		if !seen[a.levelID] {
			seen[a.levelID] = true
			levelIDs = append(levelIDs, a.levelID)
		}
	}

	levelRows, err := tx.QueryContext(ctx, `
		SELECT idn, idh, idnp, nombre
		FROM nivel
		WHERE idn = ANY($1)`,
		pq.Array(levelIDs),
	)
	if err != nil {
		return fmt.Errorf("failed to query owning levels: %w", err)
	}

	type owningLevel struct {
		hierarchyID int64
		parentID    int64
		name        string
	}
	levelsByID := make(map[int64]owningLevel, len(levelIDs))
	for levelRows.Next() {
		var id int64
		var l owningLevel
		var parent sql.NullInt64
		if err := levelRows.Scan(&id, &l.hierarchyID, &parent, &l.name); err != nil {
			levelRows.Close()
			return fmt.Errorf("failed to scan owning level: %w", err)
		}
		if parent.Valid {
			l.parentID = parent.Int64
		}
		levelsByID[id] = l
	}
	if err := levelRows.Close(); err != nil {
		return fmt.Errorf("failed to close owning level rows: %w", err)
	}
	if err := levelRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate owning levels: %w", err)
	}

	snapshotLevelID, err := NextKey(ctx, tx, "rep_nivel")
	if err != nil {
		return err
	}
	snapshotActivityID, err := NextKey(ctx, tx, "rep_actividad")
	if err != nil {
		return err
	}

	snapshotLevelByLevel := make(map[int64]int64, len(levelIDs))
	for _, levelID := range levelIDs {
		level, ok := levelsByID[levelID]
		if !ok {
			return fmt.Errorf("level %d not found for selected activities", levelID)
		}

		levelKey := snapshotLevelID
		snapshotLevelID++

		_, err := tx.ExecContext(ctx, `
			INSERT INTO rep_nivel (idrn, idpm, idn, idh, idnp, descripcion)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			levelKey, planID, levelID, level.hierarchyID, level.parentID, level.name,
		)
		if err != nil {
			return fmt.Errorf("failed to insert snapshot level for level %d: %w", levelID, err)
		}
		snapshotLevelByLevel[levelID] = levelKey
	}

	for _, act := range activities {
		levelKey, ok := snapshotLevelByLevel[act.levelID]
		if !ok {
			return fmt.Errorf("snapshot level not found for level %d", act.levelID)
		}

		activityKey := snapshotActivityID
		snapshotActivityID++

		_, err := tx.ExecContext(ctx, `
			INSERT INTO rep_actividad (idra, idrn, orden, descripcion, referencia, duracion)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			activityKey, levelKey, act.order, act.description,
			domain.SnapshotReference, domain.SnapshotDuration,
		)
		if err != nil {
			return fmt.Errorf("failed to insert snapshot activity for activity %d: %w", act.id, err)
		}
	}

	return nil
}

// ListPlanActivities returns the denormalized activity set attached to a
// plan, joined back to the live level metadata.
func (r *PostgresPlansRepository) ListPlanActivities(ctx context.Context, planID int64) ([]*domain.PlanActivityView, error) {
	query := `
		SELECT
			ra.idra,
			rn.idrn,
			rn.idn,
			COALESCE(n.nombre, rn.descripcion),
			rn.idh,
			ra.orden,
			ra.descripcion,
			ra.referencia,
			ra.duracion
		FROM rep_actividad ra
		INNER JOIN rep_nivel rn ON rn.idrn = ra.idrn
		LEFT JOIN nivel n ON n.idn = rn.idn
		WHERE rn.idpm = $1
		ORDER BY rn.idrn ASC, ra.orden ASC, ra.idra ASC`

	rows, err := r.db.QueryContext(ctx, query, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to list plan activities: %w", err)
	}
	defer rows.Close()

	var views []*domain.PlanActivityView
	for rows.Next() {
		var v domain.PlanActivityView
		if err := rows.Scan(
			&v.SnapshotActivityID,
			&v.SnapshotLevelID,
			&v.LevelID,
			&v.LevelName,
			&v.HierarchyID,
			&v.Order,
			&v.Description,
			&v.Reference,
			&v.Duration,
		); err != nil {
			return nil, fmt.Errorf("failed to scan plan activity: %w", err)
		}
		views = append(views, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate plan activities: %w", err)
	}
	return views, nil
}
