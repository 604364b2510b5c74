package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/shaiso/Foreman/internal/domain"
)

// Ошибки движка. Каждый отказ гейта оставляет сохранённое состояние
// без изменений — частичных мутаций не бывает.
var (
	// ErrNotFound — assignment не найден в хранилище.
	// Возвращается также реализациями AssignmentStore.
	ErrNotFound = errors.New("assignment not found")

	// ErrProjectNotFound — проект не найден в каталоге.
	ErrProjectNotFound = errors.New("project not found")

	// ErrInvalidTask — задача не принадлежит проекту.
	ErrInvalidTask = errors.New("task does not belong to project")

	// ErrDuplicateAssignment — (worker, task, date) уже назначены.
	ErrDuplicateAssignment = errors.New("assignment already exists for worker, task and date")

	// ErrStateConflict — операция невозможна в текущем статусе.
	ErrStateConflict = errors.New("operation not allowed in current status")

	// ErrConcurrencyConflict — запись изменена конкурентно (stale version).
	// Возвращается реализациями AssignmentStore из UpdateWithVersionCheck.
	ErrConcurrencyConflict = errors.New("assignment was modified concurrently")

	// ErrDependencyUnmet — не все зависимости completed.
	ErrDependencyUnmet = errors.New("dependencies not completed")

	// ErrSequenceViolation — более ранние по sequence assignments не завершены.
	ErrSequenceViolation = errors.New("earlier assignments in sequence not completed")

	// ErrConcurrentActiveTask — у работника уже есть in_progress assignment на этот день.
	ErrConcurrentActiveTask = errors.New("worker already has an active assignment")

	// ErrOutsideGeofence — локация вне геозоны проекта.
	ErrOutsideGeofence = errors.New("location outside project geofence")

	// ErrProgressDecrease — заявленный прогресс меньше текущего.
	ErrProgressDecrease = errors.New("progress percent cannot decrease")

	// ErrPhotoLimitExceeded — превышен лимит фото на assignment.
	ErrPhotoLimitExceeded = errors.New("photo limit exceeded")

	// ErrValidation — некорректный вход (до запуска гейтов).
	ErrValidation = errors.New("invalid input")
)

// ValidationError — ошибка нормализации команды с указанием поля.
type ValidationError struct {
	Field   string // поле, вызвавшее ошибку
	Message string // описание ошибки
}

// Error реализует интерфейс error.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}

// Unwrap возвращает базовую ошибку.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError создаёт новую ошибку валидации.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// StateError — операция вызвана в недопустимом статусе.
type StateError struct {
	Current  domain.AssignmentStatus
	Expected domain.AssignmentStatus
}

func (e *StateError) Error() string {
	return fmt.Sprintf("assignment is %s, expected %s", e.Current, e.Expected)
}

func (e *StateError) Unwrap() error {
	return ErrStateConflict
}

// TaskError — часть задач не принадлежит проекту.
type TaskError struct {
	ProjectID uuid.UUID
	TaskIDs   []uuid.UUID
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("%d task(s) do not belong to project %s", len(e.TaskIDs), e.ProjectID)
}

func (e *TaskError) Unwrap() error {
	return ErrInvalidTask
}

// DuplicateError — задача уже назначена работнику на этот день.
type DuplicateError struct {
	WorkerID uuid.UUID
	TaskID   uuid.UUID
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("task %s already assigned to worker %s for this date", e.TaskID, e.WorkerID)
}

func (e *DuplicateError) Unwrap() error {
	return ErrDuplicateAssignment
}

// DependencyError — отказ DependencyResolver со структурированной детализацией.
type DependencyError struct {
	Result DependencyResult
}

func (e *DependencyError) Error() string {
	parts := make([]string, 0, len(e.Result.MissingIDs)+len(e.Result.Incomplete))
	for _, id := range e.Result.MissingIDs {
		parts = append(parts, id.String()+" (missing)")
	}
	for _, dep := range e.Result.Incomplete {
		parts = append(parts, fmt.Sprintf("%s (%s)", dep.ID, dep.Status))
	}
	return "unmet dependencies: " + strings.Join(parts, ", ")
}

func (e *DependencyError) Unwrap() error {
	return ErrDependencyUnmet
}

// SequenceError — отказ SequenceGate со списком блокирующих assignments.
type SequenceError struct {
	Result SequenceResult
}

func (e *SequenceError) Error() string {
	ids := make([]string, len(e.Result.BlockingIDs))
	for i, id := range e.Result.BlockingIDs {
		ids[i] = id.String()
	}
	return "blocked by earlier assignments: " + strings.Join(ids, ", ")
}

func (e *SequenceError) Unwrap() error {
	return ErrSequenceViolation
}

// ActiveTaskError — у работника уже выполняется другой assignment.
type ActiveTaskError struct {
	ActiveID uuid.UUID
}

func (e *ActiveTaskError) Error() string {
	return "another assignment is already in progress: " + e.ActiveID.String()
}

func (e *ActiveTaskError) Unwrap() error {
	return ErrConcurrentActiveTask
}

// GeofenceError — отказ геовалидации с измеренной дистанцией.
type GeofenceError struct {
	Result GeofenceResult
}

func (e *GeofenceError) Error() string {
	return e.Result.Message
}

func (e *GeofenceError) Unwrap() error {
	return ErrOutsideGeofence
}

// ProgressError — попытка уменьшить прогресс.
type ProgressError struct {
	Current   float64
	Submitted float64
}

func (e *ProgressError) Error() string {
	return fmt.Sprintf("submitted %.1f%% is below current %.1f%%", e.Submitted, e.Current)
}

func (e *ProgressError) Unwrap() error {
	return ErrProgressDecrease
}

// PhotoLimitError — превышен лимит фото.
type PhotoLimitError struct {
	Count int
	Limit int
}

func (e *PhotoLimitError) Error() string {
	return fmt.Sprintf("assignment already has %d of %d photos", e.Count, e.Limit)
}

func (e *PhotoLimitError) Unwrap() error {
	return ErrPhotoLimitExceeded
}
