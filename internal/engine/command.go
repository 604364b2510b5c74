package engine

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Foreman/internal/domain"
)

// AuthContext — явный контекст вызывающего.
//
// Передаётся в каждую операцию LifecycleController вместо неявного
// request-scoped состояния: движок не знает про HTTP.
type AuthContext struct {
	// ActorID — кто выполняет операцию (работник или супервайзер).
	ActorID uuid.UUID

	// Role — роль вызывающего.
	Role Role
}

// Role — роль вызывающего.
type Role string

const (
	RoleWorker     Role = "worker"
	RoleSupervisor Role = "supervisor"
)

// Команды — типизированные, полностью заполненные входы операций.
// Normalize() — единственная точка приведения и валидации входа;
// ни один гейт не запускается до успешной нормализации.

// TaskSpec — одна задача в команде назначения.
type TaskSpec struct {
	// TaskID — задача из каталога проекта.
	TaskID uuid.UUID

	// DependsOn — assignments, которые должны завершиться до этой задачи.
	DependsOn []uuid.UUID

	// EstimatedMinutes — плановая длительность; 0 — взять из команды.
	EstimatedMinutes int

	// Target — дневная цель; пустая — взять описание задачи как есть.
	Target domain.DailyTarget
}

// AssignTasksCommand — bulk-назначение задач работнику на день.
// Порядок Tasks определяет порядок sequence.
type AssignTasksCommand struct {
	Auth      AuthContext
	WorkerID  uuid.UUID
	ProjectID uuid.UUID
	Date      time.Time
	Priority  domain.Priority

	// EstimatedMinutes — длительность по умолчанию для задач без своей.
	EstimatedMinutes int

	Tasks []TaskSpec
}

// Normalize валидирует команду и приводит дату к календарному дню.
func (c *AssignTasksCommand) Normalize() error {
	if c.WorkerID == uuid.Nil {
		return NewValidationError("worker_id", "required")
	}
	if c.ProjectID == uuid.Nil {
		return NewValidationError("project_id", "required")
	}
	if c.Date.IsZero() {
		return NewValidationError("date", "required")
	}
	if len(c.Tasks) == 0 {
		return NewValidationError("tasks", "at least one task required")
	}

	seen := make(map[uuid.UUID]bool, len(c.Tasks))
	for i := range c.Tasks {
		t := &c.Tasks[i]
		if t.TaskID == uuid.Nil {
			return NewValidationError("tasks", "task_id required")
		}
		if seen[t.TaskID] {
			return NewValidationError("tasks", "duplicate task_id "+t.TaskID.String())
		}
		seen[t.TaskID] = true

		if t.EstimatedMinutes < 0 {
			return NewValidationError("tasks", "estimated_minutes cannot be negative")
		}
		if t.EstimatedMinutes == 0 {
			t.EstimatedMinutes = c.EstimatedMinutes
		}
	}

	if c.Priority == "" {
		c.Priority = domain.PriorityMedium
	}
	if !c.Priority.IsValid() {
		return NewValidationError("priority", "unknown priority "+string(c.Priority))
	}
	if c.EstimatedMinutes < 0 {
		return NewValidationError("estimated_minutes", "cannot be negative")
	}

	c.Date = domain.DateOnly(c.Date)
	return nil
}

// StartCommand — начало работы над assignment.
type StartCommand struct {
	Auth         AuthContext
	AssignmentID uuid.UUID
	Location     domain.Location
}

// Normalize валидирует команду.
func (c *StartCommand) Normalize() error {
	if c.AssignmentID == uuid.Nil {
		return NewValidationError("assignment_id", "required")
	}
	if c.Location.Latitude < -90 || c.Location.Latitude > 90 {
		return NewValidationError("location", "latitude out of range")
	}
	if c.Location.Longitude < -180 || c.Location.Longitude > 180 {
		return NewValidationError("location", "longitude out of range")
	}
	if c.Location.AccuracyMeters < 0 {
		c.Location.AccuracyMeters = 0
	}
	return nil
}

// ProgressCommand — отправка прогресса.
type ProgressCommand struct {
	Auth         AuthContext
	AssignmentID uuid.UUID
	Percent      float64
	Description  string

	// Location — координаты на момент отправки (опционально).
	Location *domain.Location
}

// Normalize валидирует команду.
func (c *ProgressCommand) Normalize() error {
	if c.AssignmentID == uuid.Nil {
		return NewValidationError("assignment_id", "required")
	}
	if c.Percent < 0 || c.Percent > 100 {
		return NewValidationError("percent", "must be within [0,100]")
	}
	c.Description = strings.TrimSpace(c.Description)
	if c.Description == "" {
		return NewValidationError("description", "required")
	}
	return nil
}

// IssueCommand — сообщение о проблеме.
type IssueCommand struct {
	Auth         AuthContext
	AssignmentID uuid.UUID
	Type         domain.IssueType
	Priority     domain.Priority
	Description  string
}

// Normalize валидирует команду.
func (c *IssueCommand) Normalize() error {
	if c.AssignmentID == uuid.Nil {
		return NewValidationError("assignment_id", "required")
	}
	if c.Type == "" {
		c.Type = domain.IssueTypeOther
	}
	if !c.Type.IsValid() {
		return NewValidationError("type", "unknown issue type "+string(c.Type))
	}
	if c.Priority == "" {
		c.Priority = domain.PriorityMedium
	}
	if !c.Priority.IsValid() {
		return NewValidationError("priority", "unknown priority "+string(c.Priority))
	}
	c.Description = strings.TrimSpace(c.Description)
	if c.Description == "" {
		return NewValidationError("description", "required")
	}
	return nil
}
