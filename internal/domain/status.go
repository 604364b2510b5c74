package domain

// AssignmentStatus — статус выполнения assignment.
//
// Жизненный цикл:
//
//	queued → in_progress → completed
//	                     ↘ blocked (high/critical issue)
//
// Из queued assignment может быть удалён супервайзером;
// после выхода из queued удаление невозможно.
type AssignmentStatus string

const (
	// StatusQueued — assignment создан и ожидает начала работы.
	StatusQueued AssignmentStatus = "queued"

	// StatusInProgress — работник начал выполнение.
	StatusInProgress AssignmentStatus = "in_progress"

	// StatusCompleted — работа завершена.
	StatusCompleted AssignmentStatus = "completed"

	// StatusBlocked — выполнение заблокировано (зарегистрирован high/critical issue).
	StatusBlocked AssignmentStatus = "blocked"
)

// IsTerminal возвращает true, если статус финальный.
func (s AssignmentStatus) IsTerminal() bool {
	return s == StatusCompleted
}

// IsValid проверяет, что статус — один из известных.
func (s AssignmentStatus) IsValid() bool {
	switch s {
	case StatusQueued, StatusInProgress, StatusCompleted, StatusBlocked:
		return true
	default:
		return false
	}
}

// Priority — приоритет assignment или issue.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// IsValid проверяет, что приоритет — один из известных.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	default:
		return false
	}
}

// IsBlocking возвращает true для приоритетов, которые переводят assignment
// в blocked при создании issue (high и critical).
func (p Priority) IsBlocking() bool {
	return p == PriorityHigh || p == PriorityCritical
}
