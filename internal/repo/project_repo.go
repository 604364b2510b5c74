package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Foreman/internal/domain"
	"github.com/shaiso/Foreman/internal/engine"
)

// ProjectRepo — репозиторий проектов и каталога задач.
// Реализует engine.ProjectCatalog.
type ProjectRepo struct {
	pool *pgxpool.Pool
}

// NewProjectRepo создаёт новый ProjectRepo.
func NewProjectRepo(pool *pgxpool.Pool) *ProjectRepo {
	return &ProjectRepo{pool: pool}
}

// Create создаёт новый project.
func (r *ProjectRepo) Create(ctx context.Context, p *domain.Project) error {
	query := `
		INSERT INTO projects (id, name, center_latitude, center_longitude,
		                      radius_meters, strict_mode, allowed_variance_meters,
		                      is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.pool.Exec(ctx, query,
		p.ID,
		p.Name,
		p.Region.CenterLatitude,
		p.Region.CenterLongitude,
		p.Region.RadiusMeters,
		p.Region.StrictMode,
		p.Region.AllowedVarianceMeters,
		p.IsActive,
		p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

// GetByID возвращает project по ID.
func (r *ProjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	query := `
		SELECT id, name, center_latitude, center_longitude, radius_meters,
		       strict_mode, allowed_variance_meters, is_active, created_at
		FROM projects
		WHERE id = $1
	`
	var p domain.Project
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.Region.CenterLatitude,
		&p.Region.CenterLongitude,
		&p.Region.RadiusMeters,
		&p.Region.StrictMode,
		&p.Region.AllowedVarianceMeters,
		&p.IsActive,
		&p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, engine.ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan project: %w", err)
	}
	return &p, nil
}

// List возвращает все активные projects.
func (r *ProjectRepo) List(ctx context.Context) ([]domain.Project, error) {
	query := `
		SELECT id, name, center_latitude, center_longitude, radius_meters,
		       strict_mode, allowed_variance_meters, is_active, created_at
		FROM projects
		WHERE is_active = true
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		var p domain.Project
		err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.Region.CenterLatitude,
			&p.Region.CenterLongitude,
			&p.Region.RadiusMeters,
			&p.Region.StrictMode,
			&p.Region.AllowedVarianceMeters,
			&p.IsActive,
			&p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// Region возвращает геозону проекта (engine.ProjectCatalog).
func (r *ProjectRepo) Region(ctx context.Context, projectID uuid.UUID) (domain.GeofenceRegion, error) {
	p, err := r.GetByID(ctx, projectID)
	if err != nil {
		return domain.GeofenceRegion{}, err
	}
	return p.Region, nil
}

// MissingTasks возвращает ID задач, которые не принадлежат проекту
// (engine.ProjectCatalog).
func (r *ProjectRepo) MissingTasks(ctx context.Context, projectID uuid.UUID, taskIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(taskIDs) == 0 {
		return nil, nil
	}

	var missing []uuid.UUID
	for _, id := range taskIDs {
		var exists bool
		err := r.pool.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1 AND project_id = $2)
		`, id, projectID).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("check task %s: %w", id, err)
		}
		if !exists {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// CreateTask добавляет задачу в каталог проекта.
func (r *ProjectRepo) CreateTask(ctx context.Context, t *domain.Task) error {
	query := `
		INSERT INTO tasks (id, project_id, name, description, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query,
		t.ID,
		t.ProjectID,
		t.Name,
		nullString(t.Description),
		t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// ListTasks возвращает каталог задач проекта.
func (r *ProjectRepo) ListTasks(ctx context.Context, projectID uuid.UUID) ([]domain.Task, error) {
	query := `
		SELECT id, project_id, name, description, created_at
		FROM tasks
		WHERE project_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		var t domain.Task
		var description *string
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Name, &description, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		if description != nil {
			t.Description = *description
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}
