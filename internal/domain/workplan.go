package domain

import (
	"time"

	"github.com/google/uuid"
)

// WorkPlan — повторяющийся план назначения задач.
//
// WorkPlan позволяет супервайзеру один раз описать типовой день
// работника, а scheduler материализует assignments:
// - По cron-выражению: "0 6 * * 1-5" (рабочие дни в 6:00)
// - По интервалу: каждые N секунд (для тестов и нестандартных смен)
//
// Scheduler проверяет next_due_at и создаёт assignments на текущий
// день, когда время подошло.
type WorkPlan struct {
	// ID — уникальный идентификатор плана.
	ID uuid.UUID `json:"id"`

	// ProjectID — проект, в рамках которого назначаются задачи.
	ProjectID uuid.UUID `json:"project_id"`

	// WorkerID — работник, которому назначаются задачи.
	WorkerID uuid.UUID `json:"worker_id"`

	// Name — имя плана для удобства.
	Name string `json:"name,omitempty"`

	// TaskIDs — задачи в порядке выполнения (порядок определяет sequence).
	TaskIDs []uuid.UUID `json:"task_ids"`

	// Priority — приоритет создаваемых assignments.
	Priority Priority `json:"priority"`

	// EstimatedMinutes — плановая длительность каждой задачи.
	EstimatedMinutes int `json:"estimated_minutes,omitempty"`

	// CronExpr — cron-выражение.
	// Формат: "минуты часы дни месяцы дни_недели"
	// Если задан CronExpr, IntervalSec игнорируется.
	CronExpr string `json:"cron_expr,omitempty"`

	// IntervalSec — интервал в секундах между срабатываниями.
	// Используется если CronExpr не задан.
	IntervalSec int `json:"interval_sec,omitempty"`

	// Timezone — часовой пояс для вычисления времени.
	// По умолчанию: "UTC".
	Timezone string `json:"timezone"`

	// Enabled — флаг активности плана.
	Enabled bool `json:"enabled"`

	// NextDueAt — время следующего срабатывания.
	NextDueAt *time.Time `json:"next_due_at,omitempty"`

	// LastRunAt — время последнего срабатывания.
	LastRunAt *time.Time `json:"last_run_at,omitempty"`

	// CreatedAt — время создания плана.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt — время последнего обновления.
	UpdatedAt time.Time `json:"updated_at"`
}

// IsCron возвращает true, если план использует cron-выражение.
func (p *WorkPlan) IsCron() bool {
	return p.CronExpr != ""
}

// IsInterval возвращает true, если план использует интервал.
func (p *WorkPlan) IsInterval() bool {
	return p.CronExpr == "" && p.IntervalSec > 0
}

// IsDue проверяет, пора ли материализовать план.
func (p *WorkPlan) IsDue(now time.Time) bool {
	if !p.Enabled {
		return false
	}
	if p.NextDueAt == nil {
		return false
	}
	return now.After(*p.NextDueAt) || now.Equal(*p.NextDueAt)
}

// RecordRun записывает срабатывание плана.
func (p *WorkPlan) RecordRun(nextDue time.Time) {
	now := time.Now()
	p.LastRunAt = &now
	p.NextDueAt = &nextDue
	p.UpdatedAt = now
}
