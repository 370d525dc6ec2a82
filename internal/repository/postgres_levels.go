package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"gmao-data/internal/domain"
)

// PostgresLevelsRepository implements LevelsRepository over the legacy
// nivel table.
type PostgresLevelsRepository struct {
	db *sql.DB
}

func NewPostgresLevelsRepository(db *sql.DB) *PostgresLevelsRepository {
	return &PostgresLevelsRepository{db: db}
}

var _ LevelsRepository = (*PostgresLevelsRepository)(nil)

const levelColumns = `
	idn,
	idh,
	idnp,
	nombre,
	plantilla,
	generico,
	num_planes,
	COALESCE(icono, ''),
	COALESCE(comentario, ''),
	idu,
	fecha_creacion,
	idd,
	unidad_mantenible`

func scanLevel(s interface{ Scan(...any) error }) (*domain.Level, error) {
	var level domain.Level
	var parentID, disciplineID sql.NullInt64
	if err := s.Scan(
		&level.ID,
		&level.HierarchyID,
		&parentID,
		&level.Name,
		&level.Template,
		&level.Generic,
		&level.PlanCount,
		&level.Icon,
		&level.Comment,
		&level.UserID,
		&level.CreatedAt,
		&disciplineID,
		&level.MaintainableUnit,
	); err != nil {
		return nil, err
	}
	if parentID.Valid {
		level.ParentID = &parentID.Int64
	}
	if disciplineID.Valid {
		level.DisciplineID = &disciplineID.Int64
	}
	return &level, nil
}

// ListLevels returns levels matching the given filters, ordered by id.
func (r *PostgresLevelsRepository) ListLevels(ctx context.Context, filters LevelFilters) ([]*domain.Level, error) {
	where := []string{"1=1"}
	args := []any{}
	argN := 1

	if filters.Name != "" {
		where = append(where, fmt.Sprintf("nombre ILIKE $%d", argN))
		args = append(args, "%"+filters.Name+"%")
		argN++
	}
	if filters.HierarchyID != nil {
		where = append(where, fmt.Sprintf("idh = $%d", argN))
		args = append(args, *filters.HierarchyID)
		argN++
	}
	if filters.ParentID != nil {
		where = append(where, fmt.Sprintf("idnp = $%d", argN))
		args = append(args, *filters.ParentID)
		argN++
	}
	if filters.Template != nil {
		where = append(where, fmt.Sprintf("plantilla = $%d", argN))
		args = append(args, *filters.Template)
		argN++
	}
	if filters.DisciplineID != nil {
		where = append(where, fmt.Sprintf("idd = $%d", argN))
		args = append(args, *filters.DisciplineID)
		argN++
	}
	if filters.MaintainableUnit != nil {
		where = append(where, fmt.Sprintf("unidad_mantenible = $%d", argN))
		args = append(args, *filters.MaintainableUnit)
		argN++
	}

	query := `SELECT ` + levelColumns + `
		FROM nivel
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY idn ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list levels: %w", err)
	}
	defer rows.Close()

	var levels []*domain.Level
	for rows.Next() {
		level, err := scanLevel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan level: %w", err)
		}
		levels = append(levels, level)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate levels: %w", err)
	}
	return levels, nil
}

// GetLevel returns one level by id.
func (r *PostgresLevelsRepository) GetLevel(ctx context.Context, levelID int64) (*domain.Level, error) {
	query := `SELECT ` + levelColumns + `
		FROM nivel
		WHERE idn = $1`

	level, err := scanLevel(r.db.QueryRowContext(ctx, query, levelID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("level %d: %w", levelID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get level: %w", err)
	}
	return level, nil
}

// CreateLevel inserts a new level and returns its generated id.
func (r *PostgresLevelsRepository) CreateLevel(ctx context.Context, level *domain.Level) (int64, error) {
	if level == nil {
		return 0, fmt.Errorf("level is required")
	}
	if level.Name == "" {
		return 0, fmt.Errorf("name is required")
	}
	if level.HierarchyID == 0 {
		return 0, fmt.Errorf("hierarchy_id is required")
	}
	if level.CreatedAt.IsZero() {
		level.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO nivel (
			idh, idnp, nombre, plantilla, generico, num_planes,
			icono, comentario, idu, fecha_creacion, idd, unidad_mantenible
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING idn`

	var parentArg, disciplineArg any
	if level.ParentID != nil {
		parentArg = *level.ParentID
	}
	if level.DisciplineID != nil {
		disciplineArg = *level.DisciplineID
	}

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		level.HierarchyID, parentArg, level.Name, level.Template, level.Generic,
		level.PlanCount, level.Icon, level.Comment, level.UserID,
		level.CreatedAt, disciplineArg, level.MaintainableUnit,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create level: %w", err)
	}
	return id, nil
}

// ListChildren returns the direct children of parentID in ascending id order
// so replication copies siblings deterministically.
func (r *PostgresLevelsRepository) ListChildren(ctx context.Context, parentID int64, excludeTemplateGeneric bool) ([]*domain.Level, error) {
	query := `SELECT ` + levelColumns + `
		FROM nivel
		WHERE idnp = $1`
	if excludeTemplateGeneric {
		query += `
		  AND plantilla = FALSE
		  AND generico = FALSE`
	}
	query += `
		ORDER BY idn ASC`

	rows, err := r.db.QueryContext(ctx, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list children of level %d: %w", parentID, err)
	}
	defer rows.Close()

	var children []*domain.Level
	for rows.Next() {
		child, err := scanLevel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan child level: %w", err)
		}
		children = append(children, child)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate child levels: %w", err)
	}
	return children, nil
}

// InsertLevelCopy inserts a copy of src re-parented under parentID. Copies
// are never templates or generics themselves.
func (r *PostgresLevelsRepository) InsertLevelCopy(ctx context.Context, src *domain.Level, parentID int64) (int64, error) {
	if src == nil {
		return 0, fmt.Errorf("source level is required")
	}

	query := `
		INSERT INTO nivel (
			idh, idnp, nombre, plantilla, generico, num_planes,
			icono, comentario, idu, fecha_creacion, idd, unidad_mantenible
		) VALUES ($1, $2, $3, FALSE, FALSE, $4, $5, $6, $7, $8, $9, $10)
		RETURNING idn`

	var disciplineArg any
	if src.DisciplineID != nil {
		disciplineArg = *src.DisciplineID
	}

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		src.HierarchyID, parentID, src.Name, src.PlanCount,
		src.Icon, src.Comment, src.UserID, src.CreatedAt,
		disciplineArg, src.MaintainableUnit,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to copy level %d: %w", src.ID, err)
	}
	return id, nil
}
