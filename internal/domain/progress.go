package domain

import (
	"time"

	"github.com/google/uuid"
)

// ProgressRecord — одна запись аудита прогресса.
//
// Записи append-only: создаются при каждом SubmitProgress и
// никогда не изменяются. Принадлежат assignment (one-to-many).
type ProgressRecord struct {
	// ID — уникальный идентификатор записи.
	ID uuid.UUID `json:"id"`

	// AssignmentID — ссылка на assignment.
	AssignmentID uuid.UUID `json:"assignment_id"`

	// WorkerID — работник, отправивший прогресс.
	WorkerID uuid.UUID `json:"worker_id"`

	// Percent — заявленный прогресс [0,100].
	Percent float64 `json:"percent"`

	// Description — описание выполненной работы.
	Description string `json:"description"`

	// Latitude, Longitude — координаты на момент отправки (опционально).
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	// SubmittedAt — время отправки.
	SubmittedAt time.Time `json:"submitted_at"`
}
