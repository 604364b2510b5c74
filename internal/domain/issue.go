package domain

import (
	"time"

	"github.com/google/uuid"
)

// IssueType — тип проблемы, о которой сообщает работник.
type IssueType string

const (
	IssueTypeMaterial  IssueType = "material"  // нехватка материалов
	IssueTypeEquipment IssueType = "equipment" // неисправное оборудование
	IssueTypeSafety    IssueType = "safety"    // нарушение техники безопасности
	IssueTypeWeather   IssueType = "weather"   // погодные условия
	IssueTypeOther     IssueType = "other"
)

// IsValid проверяет, что тип — один из известных.
func (t IssueType) IsValid() bool {
	switch t {
	case IssueTypeMaterial, IssueTypeEquipment, IssueTypeSafety, IssueTypeWeather, IssueTypeOther:
		return true
	default:
		return false
	}
}

// Issue — тикет о проблеме на площадке, привязанный к assignment.
//
// Issue с приоритетом high/critical блокирует assignment
// (документированный побочный эффект ReportIssue).
type Issue struct {
	// ID — уникальный идентификатор issue.
	ID uuid.UUID `json:"id"`

	// AssignmentID — assignment, к которому относится проблема.
	AssignmentID uuid.UUID `json:"assignment_id"`

	// WorkerID — кто сообщил.
	WorkerID uuid.UUID `json:"worker_id"`

	// Type — тип проблемы.
	Type IssueType `json:"type"`

	// Priority — приоритет (high/critical блокируют assignment).
	Priority Priority `json:"priority"`

	// Description — описание проблемы.
	Description string `json:"description"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`
}
