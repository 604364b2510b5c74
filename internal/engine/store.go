package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Foreman/internal/domain"
)

// AssignmentStore — абстракция хранилища assignments.
//
// Движок агностичен к способу хранения; pgx-реализация живёт
// в internal/repo. Контракт по ошибкам:
//   - FindByID возвращает ErrNotFound, если записи нет
//   - UpdateWithVersionCheck возвращает ErrConcurrencyConflict,
//     если версия записи устарела, и ErrNotFound, если записи нет
//   - InsertBatch атомарен: либо созданы все записи, либо ни одной
type AssignmentStore interface {
	// FindByID возвращает assignment по ID.
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Assignment, error)

	// FindByIDs возвращает найденные assignments из списка ID.
	// Отсутствующие ID просто не попадают в результат.
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Assignment, error)

	// FindByWorkerAndDate возвращает все assignments работника на день.
	FindByWorkerAndDate(ctx context.Context, workerID uuid.UUID, date time.Time) ([]domain.Assignment, error)

	// FindByWorkerProjectDate возвращает assignments работника
	// в рамках проекта на день, отсортированные по sequence.
	FindByWorkerProjectDate(ctx context.Context, workerID, projectID uuid.UUID, date time.Time) ([]domain.Assignment, error)

	// ExistsForTask проверяет, назначена ли уже задача работнику на день.
	ExistsForTask(ctx context.Context, workerID, taskID uuid.UUID, date time.Time) (bool, error)

	// NextSequence возвращает max(sequence)+1 для (worker, project, date).
	// Для пустого дня возвращает 1.
	NextSequence(ctx context.Context, workerID, projectID uuid.UUID, date time.Time) (int, error)

	// InsertBatch создаёт assignments атомарно (все или ни одного).
	InsertBatch(ctx context.Context, assignments []*domain.Assignment) error

	// UpdateWithVersionCheck сохраняет assignment, если его версия
	// в хранилище совпадает с a.Version. При успехе инкрементирует
	// версию в хранилище и в a.
	UpdateWithVersionCheck(ctx context.Context, a *domain.Assignment) error

	// Delete удаляет assignment.
	Delete(ctx context.Context, id uuid.UUID) error

	// AppendProgress добавляет запись аудита прогресса.
	// Записи никогда не изменяются и не удаляются.
	AppendProgress(ctx context.Context, rec *domain.ProgressRecord) error
}

// ProjectCatalog — каталог проектов и задач.
type ProjectCatalog interface {
	// Region возвращает геозону проекта.
	// Возвращает ErrProjectNotFound, если проекта нет.
	Region(ctx context.Context, projectID uuid.UUID) (domain.GeofenceRegion, error)

	// MissingTasks возвращает ID задач из списка, которые
	// не принадлежат проекту.
	MissingTasks(ctx context.Context, projectID uuid.UUID, taskIDs []uuid.UUID) ([]uuid.UUID, error)
}

// IssueTracker — внешняя подсистема тикетов.
// Движок только создаёт тикеты; эскалация — не его забота.
type IssueTracker interface {
	Create(ctx context.Context, issue *domain.Issue) error
}

// StatusPublisher — шина событий о переходах статусов.
//
// Подсистема алертинга наблюдает переходы (blocked, completed)
// и строит на них нотификации супервайзеров. Публикация best-effort:
// ошибка публикации не откатывает переход.
type StatusPublisher interface {
	PublishStatusChanged(ctx context.Context, a *domain.Assignment, previous domain.AssignmentStatus) error
	PublishIssueReported(ctx context.Context, issue *domain.Issue) error
}

// AttendanceService — peer-гейт посещаемости.
//
// Движок его не вызывает: проверка применяется вызывающей стороной
// (API handler) до StartAssignment.
type AttendanceService interface {
	IsCheckedInInsideGeofence(ctx context.Context, workerID, projectID uuid.UUID, date time.Time) (bool, error)
}
