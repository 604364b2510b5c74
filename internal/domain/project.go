package domain

import (
	"time"

	"github.com/google/uuid"
)

// Project — строительная площадка с привязанной геозоной.
type Project struct {
	// ID — уникальный идентификатор проекта.
	ID uuid.UUID `json:"id"`

	// Name — имя проекта.
	Name string `json:"name"`

	// Region — геозона площадки.
	Region GeofenceRegion `json:"region"`

	// IsActive — флаг активности. По неактивным проектам
	// задачи не назначаются.
	IsActive bool `json:"is_active"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`
}

// Task — задача из каталога проекта.
//
// Каталог задач наполняется супервайзером; assignment ссылается
// на задачу по TaskID.
type Task struct {
	// ID — уникальный идентификатор задачи.
	ID uuid.UUID `json:"id"`

	// ProjectID — проект, которому принадлежит задача.
	ProjectID uuid.UUID `json:"project_id"`

	// Name — имя задачи ("стяжка 3 этаж", "монтаж опалубки").
	Name string `json:"name"`

	// Description — описание работ.
	Description string `json:"description,omitempty"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`
}

// CheckIn — отметка присутствия работника на площадке.
//
// Используется AttendanceService как peer-gate перед стартом
// assignment: работник должен быть отмечен внутри геозоны
// в текущий день.
type CheckIn struct {
	// ID — уникальный идентификатор отметки.
	ID uuid.UUID `json:"id"`

	// WorkerID — работник.
	WorkerID uuid.UUID `json:"worker_id"`

	// ProjectID — проект.
	ProjectID uuid.UUID `json:"project_id"`

	// Date — календарный день отметки (UTC полночь).
	Date time.Time `json:"date"`

	// Latitude, Longitude — координаты отметки.
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	// InsideGeofence — находился ли работник внутри геозоны.
	InsideGeofence bool `json:"inside_geofence"`

	// CheckedInAt — время отметки.
	CheckedInAt time.Time `json:"checked_in_at"`
}
