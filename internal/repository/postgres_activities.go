package repository

import (
	"context"
	"database/sql"
	"fmt"

	"gmao-data/internal/domain"

	"github.com/lib/pq"
)

// PostgresActivitiesRepository implements ActivitiesRepository over the
// legacy actividad_nivel and atributo_valor tables.
type PostgresActivitiesRepository struct {
	db *sql.DB
}

func NewPostgresActivitiesRepository(db *sql.DB) *PostgresActivitiesRepository {
	return &PostgresActivitiesRepository{db: db}
}

var _ ActivitiesRepository = (*PostgresActivitiesRepository)(nil)

const activityColumns = `
	ida,
	idn,
	idt,
	orden,
	descripcion,
	COALESCE(modo_fallo, ''),
	mttf,
	COALESCE(clase_mant, ''),
	frecuencia,
	duracion,
	COALESCE(condicion_acceso, ''),
	idd_tarea`

func scanActivity(s interface{ Scan(...any) error }) (*domain.Activity, error) {
	var act domain.Activity
	var attrType, taskDiscipline sql.NullInt64
	var mttf, frequency, duration sql.NullInt64
	if err := s.Scan(
		&act.ID,
		&act.LevelID,
		&attrType,
		&act.Order,
		&act.Description,
		&act.FailureMode,
		&mttf,
		&act.MaintenanceClass,
		&frequency,
		&duration,
		&act.AccessCondition,
		&taskDiscipline,
	); err != nil {
		return nil, err
	}
	if attrType.Valid {
		act.AttributeTypeID = &attrType.Int64
	}
	if taskDiscipline.Valid {
		act.TaskDisciplineID = &taskDiscipline.Int64
	}
	if mttf.Valid {
		v := int(mttf.Int64)
		act.MTTF = &v
	}
	if frequency.Valid {
		v := int(frequency.Int64)
		act.Frequency = &v
	}
	if duration.Valid {
		v := int(duration.Int64)
		act.Duration = &v
	}
	return &act, nil
}

// ListByLevel returns a level's activities ordered by display order.
func (r *PostgresActivitiesRepository) ListByLevel(ctx context.Context, levelID int64) ([]*domain.Activity, error) {
	query := `SELECT ` + activityColumns + `
		FROM actividad_nivel
		WHERE idn = $1
		ORDER BY orden ASC, ida ASC`

	rows, err := r.db.QueryContext(ctx, query, levelID)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities of level %d: %w", levelID, err)
	}
	defer rows.Close()
	return collectActivities(rows)
}

// ListByIDs returns full activity rows for the given ids, ordered by owning
// level then display order. Ids that do not exist are simply absent from the
// result; callers decide whether that is an error.
func (r *PostgresActivitiesRepository) ListByIDs(ctx context.Context, ids []int64) ([]*domain.Activity, error) {
	if len(ids) == 0 {
		return []*domain.Activity{}, nil
	}

	query := `SELECT ` + activityColumns + `
		FROM actividad_nivel
		WHERE ida = ANY($1)
		ORDER BY idn ASC, orden ASC, ida ASC`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to list activities by ids: %w", err)
	}
	defer rows.Close()
	return collectActivities(rows)
}

func collectActivities(rows *sql.Rows) ([]*domain.Activity, error) {
	var activities []*domain.Activity
	for rows.Next() {
		act, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, act)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activities: %w", err)
	}
	return activities, nil
}

// InsertActivityCopy inserts a copy of src under levelID and returns the new
// activity id.
func (r *PostgresActivitiesRepository) InsertActivityCopy(ctx context.Context, src *domain.Activity, levelID int64) (int64, error) {
	if src == nil {
		return 0, fmt.Errorf("source activity is required")
	}

	query := `
		INSERT INTO actividad_nivel (
			idn, idt, orden, descripcion, modo_fallo, mttf,
			clase_mant, frecuencia, duracion, condicion_acceso, idd_tarea
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ida`

	var attrTypeArg, taskDisciplineArg, mttfArg, frequencyArg, durationArg any
	if src.AttributeTypeID != nil {
		attrTypeArg = *src.AttributeTypeID
	}
	if src.TaskDisciplineID != nil {
		taskDisciplineArg = *src.TaskDisciplineID
	}
	if src.MTTF != nil {
		mttfArg = *src.MTTF
	}
	if src.Frequency != nil {
		frequencyArg = *src.Frequency
	}
	if src.Duration != nil {
		durationArg = *src.Duration
	}

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		levelID, attrTypeArg, src.Order, src.Description, src.FailureMode,
		mttfArg, src.MaintenanceClass, frequencyArg, durationArg,
		src.AccessCondition, taskDisciplineArg,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to copy activity %d: %w", src.ID, err)
	}
	return id, nil
}

// ListAttributeValues returns the attribute values recorded for one activity.
func (r *PostgresActivitiesRepository) ListAttributeValues(ctx context.Context, activityID int64) ([]*domain.AttributeValue, error) {
	query := `
		SELECT idav, ida, valor
		FROM atributo_valor
		WHERE ida = $1
		ORDER BY idav ASC`

	rows, err := r.db.QueryContext(ctx, query, activityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attribute values of activity %d: %w", activityID, err)
	}
	defer rows.Close()

	var values []*domain.AttributeValue
	for rows.Next() {
		var v domain.AttributeValue
		if err := rows.Scan(&v.ID, &v.ActivityID, &v.Value); err != nil {
			return nil, fmt.Errorf("failed to scan attribute value: %w", err)
		}
		values = append(values, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attribute values: %w", err)
	}
	return values, nil
}

// InsertAttributeValueCopy inserts a copy of src under activityID. The key
// is store-generated; attribute values never carry explicit keys.
func (r *PostgresActivitiesRepository) InsertAttributeValueCopy(ctx context.Context, src *domain.AttributeValue, activityID int64) error {
	if src == nil {
		return fmt.Errorf("source attribute value is required")
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO atributo_valor (ida, valor) VALUES ($1, $2)`,
		activityID, src.Value,
	)
	if err != nil {
		return fmt.Errorf("failed to copy attribute value %d: %w", src.ID, err)
	}
	return nil
}
