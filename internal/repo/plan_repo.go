package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Foreman/internal/domain"
	"github.com/shaiso/Foreman/internal/engine"
)

// PlanRepo — репозиторий повторяющихся планов назначения.
type PlanRepo struct {
	pool *pgxpool.Pool
}

// NewPlanRepo создаёт новый PlanRepo.
func NewPlanRepo(pool *pgxpool.Pool) *PlanRepo {
	return &PlanRepo{pool: pool}
}

// Create создаёт новый work plan.
func (r *PlanRepo) Create(ctx context.Context, plan *domain.WorkPlan) error {
	tasksJSON, err := json.Marshal(plan.TaskIDs)
	if err != nil {
		return fmt.Errorf("marshal task_ids: %w", err)
	}

	query := `
		INSERT INTO work_plans (id, project_id, worker_id, name, task_ids, priority,
		                        estimated_minutes, cron_expr, interval_sec, timezone,
		                        enabled, next_due_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err = r.pool.Exec(ctx, query,
		plan.ID,
		plan.ProjectID,
		plan.WorkerID,
		nullString(plan.Name),
		tasksJSON,
		plan.Priority,
		nullInt(plan.EstimatedMinutes),
		nullString(plan.CronExpr),
		nullInt(plan.IntervalSec),
		plan.Timezone,
		plan.Enabled,
		plan.NextDueAt,
		plan.CreatedAt,
		plan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert work plan: %w", err)
	}
	return nil
}

// GetByID возвращает work plan по ID.
func (r *PlanRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.WorkPlan, error) {
	query := `
		SELECT id, project_id, worker_id, name, task_ids, priority,
		       estimated_minutes, cron_expr, interval_sec, timezone,
		       enabled, next_due_at, last_run_at, created_at, updated_at
		FROM work_plans
		WHERE id = $1
	`
	plan, err := scanPlanRow(r.pool.QueryRow(ctx, query, id).Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, engine.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan work plan: %w", err)
	}
	return plan, nil
}

// List возвращает список work plans с фильтрацией.
func (r *PlanRepo) List(ctx context.Context, filter PlanFilter) ([]domain.WorkPlan, error) {
	query := `
		SELECT id, project_id, worker_id, name, task_ids, priority,
		       estimated_minutes, cron_expr, interval_sec, timezone,
		       enabled, next_due_at, last_run_at, created_at, updated_at
		FROM work_plans
		WHERE ($1::uuid IS NULL OR project_id = $1)
		  AND ($2::uuid IS NULL OR worker_id = $2)
		  AND ($3::boolean IS NULL OR enabled = $3)
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5
	`
	rows, err := r.pool.Query(ctx, query,
		nullUUID(filter.ProjectID),
		nullUUID(filter.WorkerID),
		filter.Enabled,
		filter.Limit,
		filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list work plans: %w", err)
	}
	defer rows.Close()

	return collectPlans(rows)
}

// ListDue возвращает планы, готовые к материализации.
func (r *PlanRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]domain.WorkPlan, error) {
	query := `
		SELECT id, project_id, worker_id, name, task_ids, priority,
		       estimated_minutes, cron_expr, interval_sec, timezone,
		       enabled, next_due_at, last_run_at, created_at, updated_at
		FROM work_plans
		WHERE enabled = true
		  AND next_due_at IS NOT NULL
		  AND next_due_at <= $1
		ORDER BY next_due_at ASC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list due work plans: %w", err)
	}
	defer rows.Close()

	return collectPlans(rows)
}

// Update обновляет work plan.
func (r *PlanRepo) Update(ctx context.Context, plan *domain.WorkPlan) error {
	tasksJSON, err := json.Marshal(plan.TaskIDs)
	if err != nil {
		return fmt.Errorf("marshal task_ids: %w", err)
	}

	query := `
		UPDATE work_plans
		SET name = $2, task_ids = $3, priority = $4, estimated_minutes = $5,
		    cron_expr = $6, interval_sec = $7, timezone = $8, enabled = $9,
		    next_due_at = $10, last_run_at = $11, updated_at = $12
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		plan.ID,
		nullString(plan.Name),
		tasksJSON,
		plan.Priority,
		nullInt(plan.EstimatedMinutes),
		nullString(plan.CronExpr),
		nullInt(plan.IntervalSec),
		plan.Timezone,
		plan.Enabled,
		plan.NextDueAt,
		plan.LastRunAt,
		plan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update work plan: %w", err)
	}
	if result.RowsAffected() == 0 {
		return engine.ErrNotFound
	}
	return nil
}

// Delete удаляет work plan.
func (r *PlanRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM work_plans WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete work plan: %w", err)
	}
	if result.RowsAffected() == 0 {
		return engine.ErrNotFound
	}
	return nil
}

// SetEnabled включает/выключает work plan.
func (r *PlanRepo) SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE work_plans SET enabled = $2, updated_at = NOW() WHERE id = $1
	`, id, enabled)
	if err != nil {
		return fmt.Errorf("set enabled: %w", err)
	}
	if result.RowsAffected() == 0 {
		return engine.ErrNotFound
	}
	return nil
}

// --- Helpers ---

// PlanFilter — параметры фильтрации work plans.
type PlanFilter struct {
	ProjectID *uuid.UUID
	WorkerID  *uuid.UUID
	Enabled   *bool
	Limit     int
	Offset    int
}

func collectPlans(rows pgx.Rows) ([]domain.WorkPlan, error) {
	var plans []domain.WorkPlan
	for rows.Next() {
		plan, err := scanPlanRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan work plan: %w", err)
		}
		plans = append(plans, *plan)
	}
	return plans, rows.Err()
}

func scanPlanRow(scan func(dest ...any) error) (*domain.WorkPlan, error) {
	var p domain.WorkPlan
	var name, cronExpr *string
	var estimatedMinutes, intervalSec *int
	var tasksJSON []byte

	err := scan(
		&p.ID,
		&p.ProjectID,
		&p.WorkerID,
		&name,
		&tasksJSON,
		&p.Priority,
		&estimatedMinutes,
		&cronExpr,
		&intervalSec,
		&p.Timezone,
		&p.Enabled,
		&p.NextDueAt,
		&p.LastRunAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if name != nil {
		p.Name = *name
	}
	if cronExpr != nil {
		p.CronExpr = *cronExpr
	}
	if estimatedMinutes != nil {
		p.EstimatedMinutes = *estimatedMinutes
	}
	if intervalSec != nil {
		p.IntervalSec = *intervalSec
	}
	if tasksJSON != nil {
		if err := json.Unmarshal(tasksJSON, &p.TaskIDs); err != nil {
			return nil, fmt.Errorf("unmarshal task_ids: %w", err)
		}
	}

	return &p, nil
}
