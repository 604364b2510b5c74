package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Foreman/internal/domain"
)

// CheckInRepo — репозиторий отметок присутствия.
// Реализует engine.AttendanceService.
type CheckInRepo struct {
	pool *pgxpool.Pool
}

// NewCheckInRepo создаёт новый CheckInRepo.
func NewCheckInRepo(pool *pgxpool.Pool) *CheckInRepo {
	return &CheckInRepo{pool: pool}
}

// Create создаёт отметку присутствия.
// Повторная отметка за тот же день перезаписывает координаты
// и результат геопроверки.
func (r *CheckInRepo) Create(ctx context.Context, c *domain.CheckIn) error {
	query := `
		INSERT INTO checkins (id, worker_id, project_id, date, latitude,
		                      longitude, inside_geofence, checked_in_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (worker_id, project_id, date)
		DO UPDATE SET latitude = EXCLUDED.latitude,
		              longitude = EXCLUDED.longitude,
		              inside_geofence = EXCLUDED.inside_geofence,
		              checked_in_at = EXCLUDED.checked_in_at
	`
	_, err := r.pool.Exec(ctx, query,
		c.ID,
		c.WorkerID,
		c.ProjectID,
		c.Date,
		c.Latitude,
		c.Longitude,
		c.InsideGeofence,
		c.CheckedInAt,
	)
	if err != nil {
		return fmt.Errorf("insert checkin: %w", err)
	}
	return nil
}

// IsCheckedInInsideGeofence проверяет, отмечен ли работник внутри
// геозоны проекта в указанный день (engine.AttendanceService).
func (r *CheckInRepo) IsCheckedInInsideGeofence(ctx context.Context, workerID, projectID uuid.UUID, date time.Time) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM checkins
			WHERE worker_id = $1 AND project_id = $2 AND date = $3
			  AND inside_geofence = true
		)
	`, workerID, projectID, date).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check attendance: %w", err)
	}
	return ok, nil
}
