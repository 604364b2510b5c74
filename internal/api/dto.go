package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Foreman/internal/domain"
	"github.com/shaiso/Foreman/internal/engine"
)

// Project DTOs

// CreateProjectRequest — запрос на создание project.
type CreateProjectRequest struct {
	Name                  string  `json:"name"`
	CenterLatitude        float64 `json:"center_latitude"`
	CenterLongitude       float64 `json:"center_longitude"`
	RadiusMeters          float64 `json:"radius_meters"`
	StrictMode            bool    `json:"strict_mode"`
	AllowedVarianceMeters float64 `json:"allowed_variance_meters,omitempty"`
}

// ProjectResponse — ответ с project.
type ProjectResponse struct {
	ID        uuid.UUID             `json:"id"`
	Name      string                `json:"name"`
	Region    domain.GeofenceRegion `json:"region"`
	IsActive  bool                  `json:"is_active"`
	CreatedAt time.Time             `json:"created_at"`
}

// ProjectFromDomain конвертирует domain.Project в ProjectResponse.
func ProjectFromDomain(p domain.Project) ProjectResponse {
	return ProjectResponse{
		ID:        p.ID,
		Name:      p.Name,
		Region:    p.Region,
		IsActive:  p.IsActive,
		CreatedAt: p.CreatedAt,
	}
}

// CreateTaskRequest — запрос на добавление задачи в каталог.
type CreateTaskRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// TaskResponse — ответ с задачей каталога.
type TaskResponse struct {
	ID          uuid.UUID `json:"id"`
	ProjectID   uuid.UUID `json:"project_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// TaskFromDomain конвертирует domain.Task в TaskResponse.
func TaskFromDomain(t domain.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		ProjectID:   t.ProjectID,
		Name:        t.Name,
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
	}
}

// Assignment DTOs

// TaskSpecRequest — одна задача в запросе назначения.
type TaskSpecRequest struct {
	TaskID           uuid.UUID          `json:"task_id"`
	DependsOn        []uuid.UUID        `json:"depends_on,omitempty"`
	EstimatedMinutes int                `json:"estimated_minutes,omitempty"`
	Target           domain.DailyTarget `json:"target,omitempty"`
}

// AssignTasksRequest — запрос на bulk-назначение задач.
type AssignTasksRequest struct {
	WorkerID         uuid.UUID         `json:"worker_id"`
	ProjectID        uuid.UUID         `json:"project_id"`
	Date             string            `json:"date"` // YYYY-MM-DD
	Priority         domain.Priority   `json:"priority,omitempty"`
	EstimatedMinutes int               `json:"estimated_minutes,omitempty"`
	Tasks            []TaskSpecRequest `json:"tasks"`
}

// AssignTasksResponse — результат назначения.
type AssignTasksResponse struct {
	Created int `json:"created"`
}

// AssignmentResponse — ответ с assignment.
type AssignmentResponse struct {
	ID              uuid.UUID                `json:"id"`
	WorkerID        uuid.UUID                `json:"worker_id"`
	ProjectID       uuid.UUID                `json:"project_id"`
	TaskID          uuid.UUID                `json:"task_id"`
	Date            string                   `json:"date"`
	Status          domain.AssignmentStatus  `json:"status"`
	Sequence        int                      `json:"sequence"`
	Priority        domain.Priority          `json:"priority"`
	DependsOn       []uuid.UUID              `json:"depends_on,omitempty"`
	Target          domain.DailyTarget       `json:"target"`
	Estimate        domain.TimeEstimate      `json:"estimate"`
	ProgressPercent float64                  `json:"progress_percent"`
	Geofence        *domain.GeofenceSnapshot `json:"geofence,omitempty"`
	PhotoCount      int                      `json:"photo_count"`
	StartedAt       *time.Time               `json:"started_at,omitempty"`
	CompletedAt     *time.Time               `json:"completed_at,omitempty"`
	Version         int                      `json:"version"`
	CreatedAt       time.Time                `json:"created_at"`
}

// AssignmentFromDomain конвертирует domain.Assignment в AssignmentResponse.
func AssignmentFromDomain(a *domain.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:              a.ID,
		WorkerID:        a.WorkerID,
		ProjectID:       a.ProjectID,
		TaskID:          a.TaskID,
		Date:            a.Date.Format("2006-01-02"),
		Status:          a.Status,
		Sequence:        a.Sequence,
		Priority:        a.Priority,
		DependsOn:       a.DependsOn,
		Target:          a.Target,
		Estimate:        a.Estimate,
		ProgressPercent: a.ProgressPercent,
		Geofence:        a.Geofence,
		PhotoCount:      a.PhotoCount,
		StartedAt:       a.StartedAt,
		CompletedAt:     a.CompletedAt,
		Version:         a.Version,
		CreatedAt:       a.CreatedAt,
	}
}

// Lifecycle DTOs

// StartRequest — запрос на старт assignment.
type StartRequest struct {
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	AccuracyMeters float64 `json:"accuracy_meters,omitempty"`
}

// ProgressRequest — запрос на отправку прогресса.
type ProgressRequest struct {
	Percent     float64  `json:"percent"`
	Description string   `json:"description"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
}

// ProgressRecordResponse — одна запись истории прогресса.
type ProgressRecordResponse struct {
	ID          uuid.UUID `json:"id"`
	Percent     float64   `json:"percent"`
	Description string    `json:"description"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// ProgressRecordFromDomain конвертирует domain.ProgressRecord.
func ProgressRecordFromDomain(rec domain.ProgressRecord) ProgressRecordResponse {
	return ProgressRecordResponse{
		ID:          rec.ID,
		Percent:     rec.Percent,
		Description: rec.Description,
		Latitude:    rec.Latitude,
		Longitude:   rec.Longitude,
		SubmittedAt: rec.SubmittedAt,
	}
}

// ReportIssueRequest — запрос на создание issue.
type ReportIssueRequest struct {
	Type        domain.IssueType `json:"type"`
	Priority    domain.Priority  `json:"priority,omitempty"`
	Description string           `json:"description"`
}

// IssueResponse — ответ с issue.
type IssueResponse struct {
	ID           uuid.UUID        `json:"id"`
	AssignmentID uuid.UUID        `json:"assignment_id"`
	WorkerID     uuid.UUID        `json:"worker_id"`
	Type         domain.IssueType `json:"type"`
	Priority     domain.Priority  `json:"priority"`
	Description  string           `json:"description"`
	CreatedAt    time.Time        `json:"created_at"`
}

// IssueFromDomain конвертирует domain.Issue в IssueResponse.
func IssueFromDomain(issue domain.Issue) IssueResponse {
	return IssueResponse{
		ID:           issue.ID,
		AssignmentID: issue.AssignmentID,
		WorkerID:     issue.WorkerID,
		Type:         issue.Type,
		Priority:     issue.Priority,
		Description:  issue.Description,
		CreatedAt:    issue.CreatedAt,
	}
}

// CheckIn DTOs

// CheckInRequest — запрос на отметку присутствия.
type CheckInRequest struct {
	WorkerID       uuid.UUID `json:"worker_id"`
	ProjectID      uuid.UUID `json:"project_id"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	AccuracyMeters float64   `json:"accuracy_meters,omitempty"`
}

// CheckInResponse — ответ с результатом отметки.
type CheckInResponse struct {
	ID             uuid.UUID `json:"id"`
	WorkerID       uuid.UUID `json:"worker_id"`
	ProjectID      uuid.UUID `json:"project_id"`
	Date           string    `json:"date"`
	InsideGeofence bool      `json:"inside_geofence"`
	DistanceMeters float64   `json:"distance_meters"`
	CheckedInAt    time.Time `json:"checked_in_at"`
}

// WorkPlan DTOs

// CreatePlanRequest — запрос на создание work plan.
type CreatePlanRequest struct {
	ProjectID        uuid.UUID       `json:"project_id"`
	WorkerID         uuid.UUID       `json:"worker_id"`
	Name             string          `json:"name,omitempty"`
	TaskIDs          []uuid.UUID     `json:"task_ids"`
	Priority         domain.Priority `json:"priority,omitempty"`
	EstimatedMinutes int             `json:"estimated_minutes,omitempty"`
	CronExpr         string          `json:"cron_expr,omitempty"`
	IntervalSec      int             `json:"interval_sec,omitempty"`
	Timezone         string          `json:"timezone,omitempty"`
	Enabled          bool            `json:"enabled"`
}

// UpdatePlanRequest — запрос на обновление work plan.
type UpdatePlanRequest struct {
	Name             *string          `json:"name,omitempty"`
	TaskIDs          []uuid.UUID      `json:"task_ids,omitempty"`
	Priority         *domain.Priority `json:"priority,omitempty"`
	EstimatedMinutes *int             `json:"estimated_minutes,omitempty"`
	CronExpr         *string          `json:"cron_expr,omitempty"`
	IntervalSec      *int             `json:"interval_sec,omitempty"`
	Timezone         *string          `json:"timezone,omitempty"`
}

// SetPlanEnabledRequest — запрос на включение/выключение плана.
type SetPlanEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

// PlanResponse — ответ с work plan.
type PlanResponse struct {
	ID               uuid.UUID       `json:"id"`
	ProjectID        uuid.UUID       `json:"project_id"`
	WorkerID         uuid.UUID       `json:"worker_id"`
	Name             string          `json:"name,omitempty"`
	TaskIDs          []uuid.UUID     `json:"task_ids"`
	Priority         domain.Priority `json:"priority"`
	EstimatedMinutes int             `json:"estimated_minutes,omitempty"`
	CronExpr         string          `json:"cron_expr,omitempty"`
	IntervalSec      int             `json:"interval_sec,omitempty"`
	Timezone         string          `json:"timezone"`
	Enabled          bool            `json:"enabled"`
	NextDueAt        *time.Time      `json:"next_due_at,omitempty"`
	LastRunAt        *time.Time      `json:"last_run_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// PlanFromDomain конвертирует domain.WorkPlan в PlanResponse.
func PlanFromDomain(p *domain.WorkPlan) PlanResponse {
	return PlanResponse{
		ID:               p.ID,
		ProjectID:        p.ProjectID,
		WorkerID:         p.WorkerID,
		Name:             p.Name,
		TaskIDs:          p.TaskIDs,
		Priority:         p.Priority,
		EstimatedMinutes: p.EstimatedMinutes,
		CronExpr:         p.CronExpr,
		IntervalSec:      p.IntervalSec,
		Timezone:         p.Timezone,
		Enabled:          p.Enabled,
		NextDueAt:        p.NextDueAt,
		LastRunAt:        p.LastRunAt,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

// --- Helpers ---

// authFromRequest извлекает контекст вызывающего из заголовков.
// X-Worker-ID — UUID вызывающего, X-Role — worker|supervisor.
func authFromRequest(r *http.Request) engine.AuthContext {
	auth := engine.AuthContext{Role: engine.RoleWorker}

	if idStr := r.Header.Get("X-Worker-ID"); idStr != "" {
		if id, err := uuid.Parse(idStr); err == nil {
			auth.ActorID = id
		}
	}
	if role := r.Header.Get("X-Role"); role == string(engine.RoleSupervisor) {
		auth.Role = engine.RoleSupervisor
	}

	return auth
}

// parseDate парсит дату YYYY-MM-DD; пустая строка — сегодня.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return domain.DateOnly(time.Now()), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	return domain.DateOnly(t), nil
}
