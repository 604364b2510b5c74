package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Foreman/internal/domain"
)

// MaxPhotosPerAssignment — лимит фото на один assignment.
const MaxPhotosPerAssignment = 5

// LifecycleController — state machine жизненного цикла assignments.
//
// Единственный компонент, который вызывают снаружи. Каждая операция:
//  1. Нормализует команду
//  2. Загружает состояние через AssignmentStore
//  3. Прогоняет гейты (первый отказ выигрывает, состояние не меняется)
//  4. Атомарно фиксирует переход через UpdateWithVersionCheck
//  5. Публикует событие перехода (best-effort)
//
// Check-then-act инварианты защищены двумя механизмами:
//   - single-writer lock на (worker, date) — два конкурентных
//     StartAssignment одного работника не пройдут оба
//   - optimistic version check на каждой записи — stale write
//     завершается ErrConcurrencyConflict, а не тихой перезаписью
type LifecycleController struct {
	store     AssignmentStore
	catalog   ProjectCatalog
	issues    IssueTracker
	publisher StatusPublisher // может быть nil

	resolver *DependencyResolver
	gate     *SequenceGate

	logger *slog.Logger
	now    func() time.Time

	// Локи по (worker, date).
	mu          sync.Mutex
	workerLocks map[string]*sync.Mutex
}

// Config — конфигурация LifecycleController.
type Config struct {
	Store     AssignmentStore
	Catalog   ProjectCatalog
	Issues    IssueTracker
	Publisher StatusPublisher // опционально

	// Logger — логгер; по умолчанию slog.Default().
	Logger *slog.Logger

	// Now — источник времени (для тестов); по умолчанию time.Now.
	Now func() time.Time
}

// New создаёт новый LifecycleController.
func New(cfg Config) *LifecycleController {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &LifecycleController{
		store:       cfg.Store,
		catalog:     cfg.Catalog,
		issues:      cfg.Issues,
		publisher:   cfg.Publisher,
		resolver:    NewDependencyResolver(cfg.Store),
		gate:        NewSequenceGate(cfg.Store),
		logger:      logger,
		now:         now,
		workerLocks: make(map[string]*sync.Mutex),
	}
}

// lockWorkerDay берёт single-writer lock на (worker, date).
func (c *LifecycleController) lockWorkerDay(workerID uuid.UUID, date time.Time) func() {
	key := workerID.String() + "|" + date.Format("2006-01-02")

	c.mu.Lock()
	l, ok := c.workerLocks[key]
	if !ok {
		l = &sync.Mutex{}
		c.workerLocks[key] = l
	}
	c.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// AssignTasks назначает задачи работнику на день (bulk, all-or-nothing).
//
// Sequence выдаются начиная с max(существующий sequence)+1 в порядке
// списка задач. Возвращает количество созданных assignments.
func (c *LifecycleController) AssignTasks(ctx context.Context, cmd AssignTasksCommand) (int, error) {
	if err := cmd.Normalize(); err != nil {
		return 0, err
	}

	taskIDs := make([]uuid.UUID, len(cmd.Tasks))
	for i, t := range cmd.Tasks {
		taskIDs[i] = t.TaskID
	}

	missing, err := c.catalog.MissingTasks(ctx, cmd.ProjectID, taskIDs)
	if err != nil {
		return 0, fmt.Errorf("check task catalog: %w", err)
	}
	if len(missing) > 0 {
		return 0, &TaskError{ProjectID: cmd.ProjectID, TaskIDs: missing}
	}

	for _, t := range cmd.Tasks {
		exists, err := c.store.ExistsForTask(ctx, cmd.WorkerID, t.TaskID, cmd.Date)
		if err != nil {
			return 0, fmt.Errorf("check duplicate assignment: %w", err)
		}
		if exists {
			return 0, &DuplicateError{WorkerID: cmd.WorkerID, TaskID: t.TaskID}
		}
	}

	unlock := c.lockWorkerDay(cmd.WorkerID, cmd.Date)
	defer unlock()

	base, err := c.store.NextSequence(ctx, cmd.WorkerID, cmd.ProjectID, cmd.Date)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}

	now := c.now()
	assignments := make([]*domain.Assignment, len(cmd.Tasks))
	for i, t := range cmd.Tasks {
		assignments[i] = &domain.Assignment{
			ID:        uuid.New(),
			WorkerID:  cmd.WorkerID,
			ProjectID: cmd.ProjectID,
			TaskID:    t.TaskID,
			Date:      cmd.Date,
			Status:    domain.StatusQueued,
			Sequence:  base + i,
			Priority:  cmd.Priority,
			DependsOn: t.DependsOn,
			Target:    t.Target,
			Estimate:  RecomputeEstimate(t.EstimatedMinutes, 0),
			CreatedAt: now,
		}
	}

	if err := c.store.InsertBatch(ctx, assignments); err != nil {
		return 0, fmt.Errorf("insert assignments: %w", err)
	}

	c.logger.Info("assignments created",
		"worker_id", cmd.WorkerID,
		"project_id", cmd.ProjectID,
		"date", cmd.Date.Format("2006-01-02"),
		"count", len(assignments),
		"first_sequence", base,
	)

	return len(assignments), nil
}

// StartAssignment переводит queued assignment в in_progress.
//
// Предусловия в порядке проверки (первый отказ выигрывает):
//  1. assignment существует и queued
//  2. все зависимости completed
//  3. все более ранние по sequence задачи completed
//  4. у работника нет другого in_progress assignment на этот день
//  5. локация валидна против геозоны проекта
func (c *LifecycleController) StartAssignment(ctx context.Context, cmd StartCommand) (*domain.Assignment, error) {
	if err := cmd.Normalize(); err != nil {
		return nil, err
	}

	a, err := c.store.FindByID(ctx, cmd.AssignmentID)
	if err != nil {
		return nil, err
	}

	unlock := c.lockWorkerDay(a.WorkerID, a.Date)
	defer unlock()

	// Перечитываем под локом: между первым чтением и взятием лока
	// другой вызов мог изменить состояние.
	a, err = c.store.FindByID(ctx, cmd.AssignmentID)
	if err != nil {
		return nil, err
	}

	if a.Status != domain.StatusQueued {
		return nil, &StateError{Current: a.Status, Expected: domain.StatusQueued}
	}

	depRes, err := c.resolver.Check(ctx, a.DependsOn)
	if err != nil {
		return nil, err
	}
	if !depRes.CanStart {
		return nil, &DependencyError{Result: depRes}
	}

	seqRes, err := c.gate.Validate(ctx, a)
	if err != nil {
		return nil, err
	}
	if !seqRes.CanStart {
		return nil, &SequenceError{Result: seqRes}
	}

	dayAssignments, err := c.store.FindByWorkerAndDate(ctx, a.WorkerID, a.Date)
	if err != nil {
		return nil, fmt.Errorf("find worker assignments: %w", err)
	}
	for i := range dayAssignments {
		if dayAssignments[i].ID != a.ID && dayAssignments[i].Status == domain.StatusInProgress {
			return nil, &ActiveTaskError{ActiveID: dayAssignments[i].ID}
		}
	}

	region, err := c.catalog.Region(ctx, a.ProjectID)
	if err != nil {
		return nil, err
	}

	geo := ValidateLocation(cmd.Location, region)
	if !geo.IsValid {
		return nil, &GeofenceError{Result: geo}
	}

	a.MarkInProgress(domain.GeofenceSnapshot{
		ValidatedAt:    c.now(),
		Latitude:       cmd.Location.Latitude,
		Longitude:      cmd.Location.Longitude,
		DistanceMeters: geo.DistanceMeters,
	})

	if err := c.store.UpdateWithVersionCheck(ctx, a); err != nil {
		return nil, err
	}

	c.logger.Info("assignment started",
		"assignment_id", a.ID,
		"worker_id", a.WorkerID,
		"sequence", a.Sequence,
		"distance_m", geo.DistanceMeters,
		"accuracy_adjusted", geo.AccuracyAdjusted,
	)

	c.publishStatus(ctx, a, domain.StatusQueued)
	return a, nil
}

// ProgressResult — результат SubmitProgress.
type ProgressResult struct {
	PreviousPercent float64                 `json:"previous_percent"`
	NewPercent      float64                 `json:"new_percent"`
	Status          domain.AssignmentStatus `json:"status"`
}

// SubmitProgress записывает прогресс по in_progress assignment.
//
// Прогресс монотонен: percent < текущего отклоняется без изменения
// состояния. percent ≥ 100 завершает assignment. Queued assignment
// должен пройти StartAssignment — неявный старт через прогресс
// обходил бы гейты и поэтому запрещён.
func (c *LifecycleController) SubmitProgress(ctx context.Context, cmd ProgressCommand) (*ProgressResult, error) {
	if err := cmd.Normalize(); err != nil {
		return nil, err
	}

	a, err := c.store.FindByID(ctx, cmd.AssignmentID)
	if err != nil {
		return nil, err
	}

	unlock := c.lockWorkerDay(a.WorkerID, a.Date)
	defer unlock()

	a, err = c.store.FindByID(ctx, cmd.AssignmentID)
	if err != nil {
		return nil, err
	}

	if a.Status != domain.StatusInProgress {
		return nil, &StateError{Current: a.Status, Expected: domain.StatusInProgress}
	}

	if cmd.Percent < a.ProgressPercent {
		return nil, &ProgressError{Current: a.ProgressPercent, Submitted: cmd.Percent}
	}

	previous := a.ProgressPercent
	previousStatus := a.Status

	a.ApplyProgress(cmd.Percent, RecomputeEstimate(a.Estimate.EstimatedMinutes, cmd.Percent))
	if cmd.Percent >= 100 {
		a.MarkCompleted(c.now())
	}

	// Сначала version check: stale write не должен оставить след в аудите.
	if err := c.store.UpdateWithVersionCheck(ctx, a); err != nil {
		return nil, err
	}

	rec := &domain.ProgressRecord{
		ID:           uuid.New(),
		AssignmentID: a.ID,
		WorkerID:     a.WorkerID,
		Percent:      cmd.Percent,
		Description:  cmd.Description,
		SubmittedAt:  c.now(),
	}
	if cmd.Location != nil {
		lat, lng := cmd.Location.Latitude, cmd.Location.Longitude
		rec.Latitude = &lat
		rec.Longitude = &lng
	}

	if err := c.store.AppendProgress(ctx, rec); err != nil {
		return nil, fmt.Errorf("append progress record: %w", err)
	}

	c.logger.Info("progress submitted",
		"assignment_id", a.ID,
		"worker_id", a.WorkerID,
		"previous", previous,
		"percent", cmd.Percent,
		"status", a.Status,
	)

	if a.Status != previousStatus {
		c.publishStatus(ctx, a, previousStatus)
	}

	return &ProgressResult{
		PreviousPercent: previous,
		NewPercent:      cmd.Percent,
		Status:          a.Status,
	}, nil
}

// CompleteAssignment явно завершает in_progress assignment
// независимо от процента прогресса.
func (c *LifecycleController) CompleteAssignment(ctx context.Context, auth AuthContext, id uuid.UUID) (*domain.Assignment, error) {
	if id == uuid.Nil {
		return nil, NewValidationError("assignment_id", "required")
	}

	a, err := c.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	unlock := c.lockWorkerDay(a.WorkerID, a.Date)
	defer unlock()

	a, err = c.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if a.Status != domain.StatusInProgress {
		return nil, &StateError{Current: a.Status, Expected: domain.StatusInProgress}
	}

	a.MarkCompleted(c.now())

	if err := c.store.UpdateWithVersionCheck(ctx, a); err != nil {
		return nil, err
	}

	c.logger.Info("assignment completed",
		"assignment_id", a.ID,
		"worker_id", a.WorkerID,
		"progress", a.ProgressPercent,
	)

	c.publishStatus(ctx, a, domain.StatusInProgress)
	return a, nil
}

// RemoveQueuedAssignment удаляет queued assignment и перенумеровывает
// оставшиеся queued assignments для (worker, project, date) в 1..N
// с сохранением относительного порядка.
func (c *LifecycleController) RemoveQueuedAssignment(ctx context.Context, auth AuthContext, id uuid.UUID) error {
	if id == uuid.Nil {
		return NewValidationError("assignment_id", "required")
	}

	a, err := c.store.FindByID(ctx, id)
	if err != nil {
		return err
	}

	unlock := c.lockWorkerDay(a.WorkerID, a.Date)
	defer unlock()

	a, err = c.store.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if a.Status != domain.StatusQueued {
		return &StateError{Current: a.Status, Expected: domain.StatusQueued}
	}

	if err := c.store.Delete(ctx, a.ID); err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}

	siblings, err := c.store.FindByWorkerProjectDate(ctx, a.WorkerID, a.ProjectID, a.Date)
	if err != nil {
		return fmt.Errorf("find siblings for resequence: %w", err)
	}

	var queued []*domain.Assignment
	for i := range siblings {
		if siblings[i].Status == domain.StatusQueued {
			queued = append(queued, &siblings[i])
		}
	}
	sort.Slice(queued, func(i, j int) bool { return queued[i].Sequence < queued[j].Sequence })

	for i, s := range queued {
		want := i + 1
		if s.Sequence == want {
			continue
		}
		s.Sequence = want
		if err := c.store.UpdateWithVersionCheck(ctx, s); err != nil {
			return fmt.Errorf("resequence %s: %w", s.ID, err)
		}
	}

	c.logger.Info("assignment removed",
		"assignment_id", a.ID,
		"worker_id", a.WorkerID,
		"resequenced", len(queued),
	)

	return nil
}

// ReportIssue создаёт issue-тикет по assignment.
//
// Явный документированный side effect: high/critical issue переводит
// незавершённый assignment в blocked.
func (c *LifecycleController) ReportIssue(ctx context.Context, cmd IssueCommand) (*domain.Issue, error) {
	if err := cmd.Normalize(); err != nil {
		return nil, err
	}

	a, err := c.store.FindByID(ctx, cmd.AssignmentID)
	if err != nil {
		return nil, err
	}

	issue := &domain.Issue{
		ID:           uuid.New(),
		AssignmentID: a.ID,
		WorkerID:     cmd.Auth.ActorID,
		Type:         cmd.Type,
		Priority:     cmd.Priority,
		Description:  cmd.Description,
		CreatedAt:    c.now(),
	}

	if err := c.issues.Create(ctx, issue); err != nil {
		return nil, fmt.Errorf("create issue: %w", err)
	}

	if c.publisher != nil {
		if err := c.publisher.PublishIssueReported(ctx, issue); err != nil {
			c.logger.Warn("failed to publish issue event", "issue_id", issue.ID, "error", err)
		}
	}

	if cmd.Priority.IsBlocking() && !a.IsFinished() && a.Status != domain.StatusBlocked {
		unlock := c.lockWorkerDay(a.WorkerID, a.Date)
		defer unlock()

		a, err = c.store.FindByID(ctx, cmd.AssignmentID)
		if err != nil {
			return nil, err
		}
		if !a.IsFinished() && a.Status != domain.StatusBlocked {
			previous := a.Status
			a.MarkBlocked()
			if err := c.store.UpdateWithVersionCheck(ctx, a); err != nil {
				return nil, err
			}

			c.logger.Info("assignment blocked by issue",
				"assignment_id", a.ID,
				"issue_id", issue.ID,
				"priority", cmd.Priority,
			)
			c.publishStatus(ctx, a, previous)
		}
	}

	return issue, nil
}

// AttachPhoto регистрирует прикрепление фото к assignment.
//
// Движок проверяет только лимит (не более MaxPhotosPerAssignment);
// само хранение файлов — забота внешней подсистемы.
func (c *LifecycleController) AttachPhoto(ctx context.Context, auth AuthContext, id uuid.UUID) (*domain.Assignment, error) {
	if id == uuid.Nil {
		return nil, NewValidationError("assignment_id", "required")
	}

	a, err := c.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if a.PhotoCount >= MaxPhotosPerAssignment {
		return nil, &PhotoLimitError{Count: a.PhotoCount, Limit: MaxPhotosPerAssignment}
	}

	a.PhotoCount++

	if err := c.store.UpdateWithVersionCheck(ctx, a); err != nil {
		return nil, err
	}

	return a, nil
}

// publishStatus публикует переход статуса (best-effort).
func (c *LifecycleController) publishStatus(ctx context.Context, a *domain.Assignment, previous domain.AssignmentStatus) {
	if c.publisher == nil {
		return
	}
	if err := c.publisher.PublishStatusChanged(ctx, a, previous); err != nil {
		c.logger.Warn("failed to publish status change",
			"assignment_id", a.ID,
			"status", a.Status,
			"error", err,
		)
	}
}
