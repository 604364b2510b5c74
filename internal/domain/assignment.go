package domain

import (
	"time"

	"github.com/google/uuid"
)

// Assignment — единица работы одного работника по одной задаче
// в рамках проекта на конкретный календарный день.
//
// Assignment создаётся когда:
// - Супервайзер назначает задачи работнику на день (bulk, через API/CLI)
// - Scheduler материализует recurring work plan на текущий день
//
// Мутируется действиями работника (start, progress, issue) и
// удалением супервайзером (только пока queued).
type Assignment struct {
	// ID — уникальный идентификатор assignment.
	ID uuid.UUID `json:"id"`

	// WorkerID — работник, которому назначена задача.
	WorkerID uuid.UUID `json:"worker_id"`

	// ProjectID — проект (строительная площадка).
	ProjectID uuid.UUID `json:"project_id"`

	// TaskID — задача из каталога проекта.
	TaskID uuid.UUID `json:"task_id"`

	// Date — календарный день (UTC полночь, см. DateOnly).
	Date time.Time `json:"date"`

	// Status — текущий статус выполнения.
	Status AssignmentStatus `json:"status"`

	// Sequence — порядковый номер выполнения среди assignments
	// этого работника в рамках (project, date). Уникален и непрерывен
	// (1..N) среди нетерминальных assignments.
	Sequence int `json:"sequence"`

	// Priority — приоритет задачи.
	Priority Priority `json:"priority"`

	// DependsOn — assignments, которые должны быть completed
	// до начала этого.
	DependsOn []uuid.UUID `json:"depends_on,omitempty"`

	// Target — дневная цель по объёму работ.
	Target DailyTarget `json:"target"`

	// Estimate — оценка времени и производные elapsed/remaining.
	Estimate TimeEstimate `json:"estimate"`

	// ProgressPercent — накопленный прогресс [0,100].
	// Инвариант: не убывает на протяжении жизни assignment.
	ProgressPercent float64 `json:"progress_percent"`

	// Geofence — снапшот последней успешной геовалидации.
	Geofence *GeofenceSnapshot `json:"geofence,omitempty"`

	// PhotoCount — количество прикреплённых фото (максимум 5).
	PhotoCount int `json:"photo_count"`

	// StartedAt — время перехода в in_progress.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время окончания работы.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// CompletedAt — время перехода в completed.
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Version — версия записи для optimistic locking.
	// Инкрементируется хранилищем при каждом UpdateWithVersionCheck.
	Version int `json:"version"`

	// CreatedAt — время создания assignment.
	CreatedAt time.Time `json:"created_at"`
}

// DailyTarget — дневная цель по объёму работ.
type DailyTarget struct {
	// Description — что именно нужно сделать.
	Description string `json:"description"`

	// Quantity — целевой объём в единицах Unit.
	Quantity float64 `json:"quantity,omitempty"`

	// Unit — единица измерения ("m2", "шт", "points").
	Unit string `json:"unit,omitempty"`

	// TargetPercent — целевой процент завершения на конец дня.
	TargetPercent float64 `json:"target_percent,omitempty"`
}

// TimeEstimate — оценка времени выполнения.
type TimeEstimate struct {
	// EstimatedMinutes — плановая длительность.
	EstimatedMinutes int `json:"estimated_minutes"`

	// ElapsedMinutes — вычисленное затраченное время (по прогрессу).
	ElapsedMinutes int `json:"elapsed_minutes"`

	// RemainingMinutes — вычисленное оставшееся время.
	RemainingMinutes int `json:"remaining_minutes"`
}

// GeofenceSnapshot — зафиксированный результат геовалидации при старте.
type GeofenceSnapshot struct {
	// ValidatedAt — время валидации.
	ValidatedAt time.Time `json:"validated_at"`

	// Latitude, Longitude — координаты работника в момент валидации.
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	// DistanceMeters — измеренное расстояние до центра геозоны.
	DistanceMeters float64 `json:"distance_meters"`
}

// Duration возвращает продолжительность выполнения.
// Возвращает 0, если assignment ещё не завершён.
func (a *Assignment) Duration() time.Duration {
	if a.StartedAt == nil || a.FinishedAt == nil {
		return 0
	}
	return a.FinishedAt.Sub(*a.StartedAt)
}

// IsFinished возвращает true, если assignment завершён.
func (a *Assignment) IsFinished() bool {
	return a.Status.IsTerminal()
}

// MarkInProgress переводит assignment в in_progress и фиксирует
// снапшот геовалидации.
func (a *Assignment) MarkInProgress(snapshot GeofenceSnapshot) {
	now := snapshot.ValidatedAt
	a.Status = StatusInProgress
	a.StartedAt = &now
	a.Geofence = &snapshot
}

// MarkCompleted переводит assignment в completed.
func (a *Assignment) MarkCompleted(at time.Time) {
	a.Status = StatusCompleted
	a.FinishedAt = &at
	a.CompletedAt = &at
}

// MarkBlocked переводит assignment в blocked.
func (a *Assignment) MarkBlocked() {
	a.Status = StatusBlocked
}

// ApplyProgress записывает новый прогресс и пересчитанную оценку времени.
// Монотонность percent проверяется контроллером до вызова.
func (a *Assignment) ApplyProgress(percent float64, estimate TimeEstimate) {
	a.ProgressPercent = percent
	a.Estimate = estimate
}

// DateOnly нормализует время к календарному дню: UTC полночь.
// Все (worker, date) сравнения в системе идут по нормализованной дате.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
