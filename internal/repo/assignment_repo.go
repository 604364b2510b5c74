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

// AssignmentRepo — pgx-реализация engine.AssignmentStore.
//
// Контракт по ошибкам выражается сентинелами engine:
// ErrNotFound для отсутствующих записей, ErrConcurrencyConflict
// для устаревшей версии в UpdateWithVersionCheck.
type AssignmentRepo struct {
	pool *pgxpool.Pool
}

// NewAssignmentRepo создаёт новый AssignmentRepo.
func NewAssignmentRepo(pool *pgxpool.Pool) *AssignmentRepo {
	return &AssignmentRepo{pool: pool}
}

const assignmentColumns = `
	id, worker_id, project_id, task_id, date, status, sequence, priority,
	depends_on, target, estimated_minutes, elapsed_minutes, remaining_minutes,
	progress_percent, geofence, photo_count,
	started_at, finished_at, completed_at, version, created_at
`

// FindByID возвращает assignment по ID.
func (r *AssignmentRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE id = $1`
	return r.scanAssignment(r.pool.QueryRow(ctx, query, id))
}

// FindByIDs возвращает найденные assignments из списка ID.
// Отсутствующие ID просто не попадают в результат.
func (r *AssignmentRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Assignment, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	idsJSON, err := json.Marshal(ids)
	if err != nil {
		return nil, fmt.Errorf("marshal ids: %w", err)
	}

	query := `
		SELECT ` + assignmentColumns + `
		FROM assignments
		WHERE id IN (SELECT value::uuid FROM jsonb_array_elements_text($1::jsonb))
	`
	rows, err := r.pool.Query(ctx, query, idsJSON)
	if err != nil {
		return nil, fmt.Errorf("find assignments by ids: %w", err)
	}
	defer rows.Close()

	return r.collect(rows)
}

// FindByWorkerAndDate возвращает все assignments работника на день.
func (r *AssignmentRepo) FindByWorkerAndDate(ctx context.Context, workerID uuid.UUID, date time.Time) ([]domain.Assignment, error) {
	query := `
		SELECT ` + assignmentColumns + `
		FROM assignments
		WHERE worker_id = $1 AND date = $2
		ORDER BY sequence ASC
	`
	rows, err := r.pool.Query(ctx, query, workerID, date)
	if err != nil {
		return nil, fmt.Errorf("find assignments by worker and date: %w", err)
	}
	defer rows.Close()

	return r.collect(rows)
}

// FindByWorkerProjectDate возвращает assignments работника в рамках
// проекта на день, отсортированные по sequence.
func (r *AssignmentRepo) FindByWorkerProjectDate(ctx context.Context, workerID, projectID uuid.UUID, date time.Time) ([]domain.Assignment, error) {
	query := `
		SELECT ` + assignmentColumns + `
		FROM assignments
		WHERE worker_id = $1 AND project_id = $2 AND date = $3
		ORDER BY sequence ASC
	`
	rows, err := r.pool.Query(ctx, query, workerID, projectID, date)
	if err != nil {
		return nil, fmt.Errorf("find assignments by worker, project and date: %w", err)
	}
	defer rows.Close()

	return r.collect(rows)
}

// ExistsForTask проверяет, назначена ли уже задача работнику на день.
func (r *AssignmentRepo) ExistsForTask(ctx context.Context, workerID, taskID uuid.UUID, date time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM assignments
			WHERE worker_id = $1 AND task_id = $2 AND date = $3
		)
	`, workerID, taskID, date).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check assignment exists: %w", err)
	}
	return exists, nil
}

// NextSequence возвращает max(sequence)+1 для (worker, project, date).
func (r *AssignmentRepo) NextSequence(ctx context.Context, workerID, projectID uuid.UUID, date time.Time) (int, error) {
	var next int
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(MAX(sequence), 0) + 1
		FROM assignments
		WHERE worker_id = $1 AND project_id = $2 AND date = $3
	`, workerID, projectID, date).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return next, nil
}

// InsertBatch создаёт assignments в одной транзакции (все или ни одного).
func (r *AssignmentRepo) InsertBatch(ctx context.Context, assignments []*domain.Assignment) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO assignments (` + assignmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
		        $14, $15, $16, $17, $18, $19, $20, $21)
	`
	for _, a := range assignments {
		dependsJSON, targetJSON, geofenceJSON, err := marshalAssignmentJSON(a)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, query,
			a.ID,
			a.WorkerID,
			a.ProjectID,
			a.TaskID,
			a.Date,
			a.Status,
			a.Sequence,
			a.Priority,
			dependsJSON,
			targetJSON,
			a.Estimate.EstimatedMinutes,
			a.Estimate.ElapsedMinutes,
			a.Estimate.RemainingMinutes,
			a.ProgressPercent,
			geofenceJSON,
			a.PhotoCount,
			a.StartedAt,
			a.FinishedAt,
			a.CompletedAt,
			a.Version,
			a.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert assignment %s: %w", a.ID, err)
		}
	}

	return tx.Commit(ctx)
}

// UpdateWithVersionCheck сохраняет assignment с проверкой версии.
//
// WHERE id AND version реализует optimistic locking: ноль затронутых
// строк означает либо отсутствие записи, либо конкурентное изменение.
func (r *AssignmentRepo) UpdateWithVersionCheck(ctx context.Context, a *domain.Assignment) error {
	dependsJSON, targetJSON, geofenceJSON, err := marshalAssignmentJSON(a)
	if err != nil {
		return err
	}

	query := `
		UPDATE assignments
		SET status = $3, sequence = $4, priority = $5, depends_on = $6,
		    target = $7, estimated_minutes = $8, elapsed_minutes = $9,
		    remaining_minutes = $10, progress_percent = $11, geofence = $12,
		    photo_count = $13, started_at = $14, finished_at = $15,
		    completed_at = $16, version = version + 1
		WHERE id = $1 AND version = $2
	`
	result, err := r.pool.Exec(ctx, query,
		a.ID,
		a.Version,
		a.Status,
		a.Sequence,
		a.Priority,
		dependsJSON,
		targetJSON,
		a.Estimate.EstimatedMinutes,
		a.Estimate.ElapsedMinutes,
		a.Estimate.RemainingMinutes,
		a.ProgressPercent,
		geofenceJSON,
		a.PhotoCount,
		a.StartedAt,
		a.FinishedAt,
		a.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update assignment: %w", err)
	}

	if result.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM assignments WHERE id = $1)`, a.ID).Scan(&exists); err != nil {
			return fmt.Errorf("check assignment exists: %w", err)
		}
		if !exists {
			return engine.ErrNotFound
		}
		return engine.ErrConcurrencyConflict
	}

	a.Version++
	return nil
}

// Delete удаляет assignment.
func (r *AssignmentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM assignments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return engine.ErrNotFound
	}
	return nil
}

// AppendProgress добавляет запись аудита прогресса.
func (r *AssignmentRepo) AppendProgress(ctx context.Context, rec *domain.ProgressRecord) error {
	query := `
		INSERT INTO progress_records (id, assignment_id, worker_id, percent,
		                              description, latitude, longitude, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		rec.ID,
		rec.AssignmentID,
		rec.WorkerID,
		rec.Percent,
		rec.Description,
		rec.Latitude,
		rec.Longitude,
		rec.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("insert progress record: %w", err)
	}
	return nil
}

// ListProgress возвращает историю прогресса assignment
// в порядке отправки.
func (r *AssignmentRepo) ListProgress(ctx context.Context, assignmentID uuid.UUID) ([]domain.ProgressRecord, error) {
	query := `
		SELECT id, assignment_id, worker_id, percent, description,
		       latitude, longitude, submitted_at
		FROM progress_records
		WHERE assignment_id = $1
		ORDER BY submitted_at ASC
	`
	rows, err := r.pool.Query(ctx, query, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("list progress records: %w", err)
	}
	defer rows.Close()

	var records []domain.ProgressRecord
	for rows.Next() {
		var rec domain.ProgressRecord
		err := rows.Scan(
			&rec.ID,
			&rec.AssignmentID,
			&rec.WorkerID,
			&rec.Percent,
			&rec.Description,
			&rec.Latitude,
			&rec.Longitude,
			&rec.SubmittedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan progress record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// --- Helpers ---

func marshalAssignmentJSON(a *domain.Assignment) (depends, target, geofence []byte, err error) {
	if len(a.DependsOn) > 0 {
		depends, err = json.Marshal(a.DependsOn)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("marshal depends_on: %w", err)
		}
	}
	target, err = json.Marshal(a.Target)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("marshal target: %w", err)
	}
	if a.Geofence != nil {
		geofence, err = json.Marshal(a.Geofence)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("marshal geofence: %w", err)
		}
	}
	return depends, target, geofence, nil
}

func (r *AssignmentRepo) collect(rows pgx.Rows) ([]domain.Assignment, error) {
	var assignments []domain.Assignment
	for rows.Next() {
		a, err := r.scanAssignmentFromRows(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, *a)
	}
	return assignments, rows.Err()
}

func (r *AssignmentRepo) scanAssignment(row pgx.Row) (*domain.Assignment, error) {
	a, err := scanAssignmentRow(row.Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, engine.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan assignment: %w", err)
	}
	return a, nil
}

func (r *AssignmentRepo) scanAssignmentFromRows(rows pgx.Rows) (*domain.Assignment, error) {
	return scanAssignmentRow(rows.Scan)
}

func scanAssignmentRow(scan func(dest ...any) error) (*domain.Assignment, error) {
	var a domain.Assignment
	var dependsJSON, targetJSON, geofenceJSON []byte

	err := scan(
		&a.ID,
		&a.WorkerID,
		&a.ProjectID,
		&a.TaskID,
		&a.Date,
		&a.Status,
		&a.Sequence,
		&a.Priority,
		&dependsJSON,
		&targetJSON,
		&a.Estimate.EstimatedMinutes,
		&a.Estimate.ElapsedMinutes,
		&a.Estimate.RemainingMinutes,
		&a.ProgressPercent,
		&geofenceJSON,
		&a.PhotoCount,
		&a.StartedAt,
		&a.FinishedAt,
		&a.CompletedAt,
		&a.Version,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if dependsJSON != nil {
		if err := json.Unmarshal(dependsJSON, &a.DependsOn); err != nil {
			return nil, fmt.Errorf("unmarshal depends_on: %w", err)
		}
	}
	if targetJSON != nil {
		if err := json.Unmarshal(targetJSON, &a.Target); err != nil {
			return nil, fmt.Errorf("unmarshal target: %w", err)
		}
	}
	if geofenceJSON != nil {
		a.Geofence = &domain.GeofenceSnapshot{}
		if err := json.Unmarshal(geofenceJSON, a.Geofence); err != nil {
			return nil, fmt.Errorf("unmarshal geofence: %w", err)
		}
	}

	// Дата хранится как date — нормализуем к UTC-полуночи.
	a.Date = domain.DateOnly(a.Date)

	return &a, nil
}

// nullString возвращает nil для пустой строки (для NULL в БД).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// nullInt возвращает nil для нулевого int.
func nullInt(i int) *int {
	if i == 0 {
		return nil
	}
	return &i
}

// nullUUID возвращает nil для пустого UUID.
func nullUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil || *id == uuid.Nil {
		return nil
	}
	return id
}
