package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Foreman/internal/domain"
)

var testNow = time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

// Геозона тестового проекта: центр в Москве, радиус 100 м, строгий режим.
var testRegion = domain.GeofenceRegion{
	CenterLatitude:  55.7558,
	CenterLongitude: 37.6173,
	RadiusMeters:    100,
	StrictMode:      true,
}

// Смещения широты от центра (1 градус ≈ 111195 м).
const (
	offset150m = 0.00135  // ≈ 150 м
	offset110m = 0.00099  // ≈ 110 м
	offset130m = 0.00117  // ≈ 130 м
)

// memStore — in-memory реализация AssignmentStore, ProjectCatalog,
// IssueTracker и StatusPublisher для тестов контроллера.
type memStore struct {
	mu          sync.Mutex
	assignments map[uuid.UUID]*domain.Assignment
	progress    []*domain.ProgressRecord
	issues      []*domain.Issue
	events      []string

	region domain.GeofenceRegion
	tasks  map[uuid.UUID]bool

	// beforeUpdate вызывается внутри UpdateWithVersionCheck до проверки
	// версии — симулирует конкурентное изменение записи.
	beforeUpdate func()
}

func newMemStore() *memStore {
	return &memStore{
		assignments: make(map[uuid.UUID]*domain.Assignment),
		region:      testRegion,
		tasks:       make(map[uuid.UUID]bool),
	}
}

func cloneAssignment(a *domain.Assignment) *domain.Assignment {
	c := *a
	if a.DependsOn != nil {
		c.DependsOn = append([]uuid.UUID(nil), a.DependsOn...)
	}
	if a.Geofence != nil {
		g := *a.Geofence
		c.Geofence = &g
	}
	return &c
}

func (m *memStore) FindByID(_ context.Context, id uuid.UUID) (*domain.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assignments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneAssignment(a), nil
}

func (m *memStore) FindByIDs(_ context.Context, ids []uuid.UUID) ([]domain.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Assignment
	for _, id := range ids {
		if a, ok := m.assignments[id]; ok {
			out = append(out, *cloneAssignment(a))
		}
	}
	return out, nil
}

func (m *memStore) FindByWorkerAndDate(_ context.Context, workerID uuid.UUID, date time.Time) ([]domain.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Assignment
	for _, a := range m.assignments {
		if a.WorkerID == workerID && a.Date.Equal(date) {
			out = append(out, *cloneAssignment(a))
		}
	}
	return out, nil
}

func (m *memStore) FindByWorkerProjectDate(_ context.Context, workerID, projectID uuid.UUID, date time.Time) ([]domain.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Assignment
	for _, a := range m.assignments {
		if a.WorkerID == workerID && a.ProjectID == projectID && a.Date.Equal(date) {
			out = append(out, *cloneAssignment(a))
		}
	}
	return out, nil
}

func (m *memStore) ExistsForTask(_ context.Context, workerID, taskID uuid.UUID, date time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.assignments {
		if a.WorkerID == workerID && a.TaskID == taskID && a.Date.Equal(date) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) NextSequence(_ context.Context, workerID, projectID uuid.UUID, date time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	max := 0
	for _, a := range m.assignments {
		if a.WorkerID == workerID && a.ProjectID == projectID && a.Date.Equal(date) && a.Sequence > max {
			max = a.Sequence
		}
	}
	return max + 1, nil
}

func (m *memStore) InsertBatch(_ context.Context, assignments []*domain.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range assignments {
		m.assignments[a.ID] = cloneAssignment(a)
	}
	return nil
}

func (m *memStore) UpdateWithVersionCheck(_ context.Context, a *domain.Assignment) error {
	if m.beforeUpdate != nil {
		m.beforeUpdate()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.assignments[a.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != a.Version {
		return ErrConcurrencyConflict
	}
	a.Version++
	m.assignments[a.ID] = cloneAssignment(a)
	return nil
}

func (m *memStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.assignments[id]; !ok {
		return ErrNotFound
	}
	delete(m.assignments, id)
	return nil
}

func (m *memStore) AppendProgress(_ context.Context, rec *domain.ProgressRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.progress = append(m.progress, rec)
	return nil
}

func (m *memStore) Region(_ context.Context, _ uuid.UUID) (domain.GeofenceRegion, error) {
	return m.region, nil
}

func (m *memStore) MissingTasks(_ context.Context, _ uuid.UUID, taskIDs []uuid.UUID) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var missing []uuid.UUID
	for _, id := range taskIDs {
		if !m.tasks[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (m *memStore) Create(_ context.Context, issue *domain.Issue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.issues = append(m.issues, issue)
	return nil
}

func (m *memStore) PublishStatusChanged(_ context.Context, a *domain.Assignment, previous domain.AssignmentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, string(previous)+"->"+string(a.Status))
	return nil
}

func (m *memStore) PublishIssueReported(_ context.Context, _ *domain.Issue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, "issue")
	return nil
}

func (m *memStore) addTask() uuid.UUID {
	id := uuid.New()
	m.mu.Lock()
	m.tasks[id] = true
	m.mu.Unlock()
	return id
}

func (m *memStore) get(t *testing.T, id uuid.UUID) *domain.Assignment {
	t.Helper()
	a, err := m.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("FindByID(%s): %v", id, err)
	}
	return a
}

func newTestController(ms *memStore) *LifecycleController {
	return New(Config{
		Store:     ms,
		Catalog:   ms,
		Issues:    ms,
		Publisher: ms,
		Now:       func() time.Time { return testNow },
	})
}

// seed вставляет assignment напрямую, минуя AssignTasks.
func seed(t *testing.T, ms *memStore, a *domain.Assignment) *domain.Assignment {
	t.Helper()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = domain.StatusQueued
	}
	if a.Priority == "" {
		a.Priority = domain.PriorityMedium
	}
	if a.Date.IsZero() {
		a.Date = domain.DateOnly(testNow)
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = testNow
	}
	if err := ms.InsertBatch(context.Background(), []*domain.Assignment{a}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return a
}

func centerLocation() domain.Location {
	return domain.Location{Latitude: testRegion.CenterLatitude, Longitude: testRegion.CenterLongitude}
}

func supervisorAuth() AuthContext {
	return AuthContext{ActorID: uuid.New(), Role: RoleSupervisor}
}

func workerAuth(id uuid.UUID) AuthContext {
	return AuthContext{ActorID: id, Role: RoleWorker}
}

func TestAssignTasks(t *testing.T) {
	ms := newMemStore()
	c := newTestController(ms)
	ctx := context.Background()

	workerID := uuid.New()
	projectID := uuid.New()
	t1, t2, t3 := ms.addTask(), ms.addTask(), ms.addTask()

	n, err := c.AssignTasks(ctx, AssignTasksCommand{
		Auth:             supervisorAuth(),
		WorkerID:         workerID,
		ProjectID:        projectID,
		Date:             testNow,
		Priority:         domain.PriorityHigh,
		EstimatedMinutes: 120,
		Tasks:            []TaskSpec{{TaskID: t1}, {TaskID: t2}, {TaskID: t3}},
	})
	if err != nil {
		t.Fatalf("AssignTasks: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 assignments, got %d", n)
	}

	list, err := ms.FindByWorkerProjectDate(ctx, workerID, projectID, domain.DateOnly(testNow))
	if err != nil {
		t.Fatalf("FindByWorkerProjectDate: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 stored assignments, got %d", len(list))
	}

	seen := make(map[int]bool)
	for _, a := range list {
		seen[a.Sequence] = true
		if a.Status != domain.StatusQueued {
			t.Errorf("assignment %s: status = %s, want queued", a.ID, a.Status)
		}
		if a.Estimate.EstimatedMinutes != 120 {
			t.Errorf("assignment %s: estimated = %d, want 120", a.ID, a.Estimate.EstimatedMinutes)
		}
		if a.Estimate.RemainingMinutes != 120 {
			t.Errorf("assignment %s: remaining = %d, want 120", a.ID, a.Estimate.RemainingMinutes)
		}
		// Дата нормализована к UTC-полуночи.
		if !a.Date.Equal(domain.DateOnly(testNow)) {
			t.Errorf("assignment %s: date not normalized: %v", a.ID, a.Date)
		}
	}
	for want := 1; want <= 3; want++ {
		if !seen[want] {
			t.Errorf("sequence %d not assigned", want)
		}
	}
}

func TestAssignTasksAppendsSequence(t *testing.T) {
	ms := newMemStore()
	c := newTestController(ms)
	ctx := context.Background()

	workerID := uuid.New()
	projectID := uuid.New()
	date := domain.DateOnly(testNow)

	// День уже содержит две задачи — новые получают sequence 3..4.
	seed(t, ms, &domain.Assignment{WorkerID: workerID, ProjectID: projectID, TaskID: ms.addTask(), Sequence: 1, Status: domain.StatusCompleted})
	seed(t, ms, &domain.Assignment{WorkerID: workerID, ProjectID: projectID, TaskID: ms.addTask(), Sequence: 2})

	t3, t4 := ms.addTask(), ms.addTask()
	if _, err := c.AssignTasks(ctx, AssignTasksCommand{
		Auth: supervisorAuth(), WorkerID: workerID, ProjectID: projectID, Date: testNow,
		Tasks: []TaskSpec{{TaskID: t3}, {TaskID: t4}},
	}); err != nil {
		t.Fatalf("AssignTasks: %v", err)
	}

	list, _ := ms.FindByWorkerProjectDate(ctx, workerID, projectID, date)
	maxSeq := 0
	for _, a := range list {
		if a.Sequence > maxSeq {
			maxSeq = a.Sequence
		}
	}
	if maxSeq != 4 {
		t.Errorf("max sequence = %d, want 4", maxSeq)
	}
}

func TestAssignTasksRejectsUnknownTask(t *testing.T) {
	ms := newMemStore()
	c := newTestController(ms)

	known := ms.addTask()
	unknown := uuid.New()

	_, err := c.AssignTasks(context.Background(), AssignTasksCommand{
		Auth: supervisorAuth(), WorkerID: uuid.New(), ProjectID: uuid.New(), Date: testNow,
		Tasks: []TaskSpec{{TaskID: known}, {TaskID: unknown}},
	})
	if !errors.Is(err, ErrInvalidTask) {
		t.Fatalf("expected ErrInvalidTask, got %v", err)
	}

	var te *TaskError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TaskError, got %T", err)
	}
	if len(te.TaskIDs) != 1 || te.TaskIDs[0] != unknown {
		t.Errorf("TaskError.TaskIDs = %v, want [%s]", te.TaskIDs, unknown)
	}

	// All-or-nothing: известная задача тоже не создана.
	if len(ms.assignments) != 0 {
		t.Errorf("expected no assignments created, got %d", len(ms.assignments))
	}
}

func TestAssignTasksRejectsDuplicate(t *testing.T) {
	ms := newMemStore()
	c := newTestController(ms)
	ctx := context.Background()

	workerID := uuid.New()
	projectID := uuid.New()
	taskID := ms.addTask()

	if _, err := c.AssignTasks(ctx, AssignTasksCommand{
		Auth: supervisorAuth(), WorkerID: workerID, ProjectID: projectID, Date: testNow,
		Tasks: []TaskSpec{{TaskID: taskID}},
	}); err != nil {
		t.Fatalf("first AssignTasks: %v", err)
	}

	_, err := c.AssignTasks(ctx, AssignTasksCommand{
		Auth: supervisorAuth(), WorkerID: workerID, ProjectID: projectID, Date: testNow,
		Tasks: []TaskSpec{{TaskID: taskID}},
	})
	if !errors.Is(err, ErrDuplicateAssignment) {
		t.Fatalf("expected ErrDuplicateAssignment, got %v", err)
	}
}

func TestAssignTasksValidation(t *testing.T) {
	ms := newMemStore()
	c := newTestController(ms)
	taskID := ms.addTask()

	cases := []struct {
		name string
		cmd  AssignTasksCommand
	}{
		{"no worker", AssignTasksCommand{ProjectID: uuid.New(), Date: testNow, Tasks: []TaskSpec{{TaskID: taskID}}}},
		{"no project", AssignTasksCommand{WorkerID: uuid.New(), Date: testNow, Tasks: []TaskSpec{{TaskID: taskID}}}},
		{"no date", AssignTasksCommand{WorkerID: uuid.New(), ProjectID: uuid.New(), Tasks: []TaskSpec{{TaskID: taskID}}}},
		{"no tasks", AssignTasksCommand{WorkerID: uuid.New(), ProjectID: uuid.New(), Date: testNow}},
		{"duplicate task in command", AssignTasksCommand{WorkerID: uuid.New(), ProjectID: uuid.New(), Date: testNow,
			Tasks: []TaskSpec{{TaskID: taskID}, {TaskID: taskID}}}},
		{"bad priority", AssignTasksCommand{WorkerID: uuid.New(), ProjectID: uuid.New(), Date: testNow,
			Priority: "urgent", Tasks: []TaskSpec{{TaskID: taskID}}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.AssignTasks(context.Background(), tc.cmd)
			if !errors.Is(err, ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestStartAssignment(t *testing.T) {
	ms := newMemStore()
	c := newTestController(ms)

	workerID := uuid.New()
	a := seed(t, ms, &domain.Assignment{WorkerID: workerID, ProjectID: uuid.New(), TaskID: uuid.New(), Sequence: 1})

	started, err := c.StartAssignment(context.Background(), StartCommand{
		Auth:         workerAuth(workerID),
		AssignmentID: a.ID,
		Location:     centerLocation(),
	})
	if err != nil {
		t.Fatalf("StartAssignment: %v", err)
	}

	if started.Status != domain.StatusInProgress {
		t.Errorf("status = %s, want in_progress", started.Status)
	}
	if started.StartedAt == nil || !started.StartedAt.Equal(testNow) {
		t.Errorf("StartedAt = %v, want %v", started.StartedAt, testNow)
	}
	if started.Geofence == nil {
		t.Fatal("geofence snapshot not recorded")
	}
	// Работник в центре геозоны — дистанция нулевая.
	if started.Geofence.DistanceMeters != 0 {
		t.Errorf("snapshot distance = %f, want 0", started.Geofence.DistanceMeters)
	}

	stored := ms.get(t, a.ID)
	if stored.Status != domain.StatusInProgress {
		t.Errorf("stored status = %s, want in_progress", stored.Status)
	}
	if stored.Version != 1 {
		t.Errorf("stored version = %d, want 1", stored.Version)
	}
}

func TestStartAssignmentNotFound(t *testing.T) {
	c := newTestController(newMemStore())

	_, err := c.StartAssignment(context.Background(), StartCommand{
		Auth:         workerAuth(uuid.New()),
		AssignmentID: uuid.New(),
		Location:     centerLocation(),
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStartAssignmentWrongStatus(t *testing.T) {
	for _, status := range []domain.AssignmentStatus{domain.StatusInProgress, domain.StatusCompleted, domain.StatusBlocked} {
		t.Run(string(status), func(t *testing.T) {
			ms := newMemStore()
			c := newTestController(ms)

			workerID := uuid.New()
			a := seed(t, ms, &domain.Assignment{WorkerID: workerID, ProjectID: uuid.New(), TaskID: uuid.New(), Sequence: 1, Status: status})

			_, err := c.StartAssignment(context.Background(), StartCommand{
				Auth: workerAuth(workerID), AssignmentID: a.ID, Location: centerLocation(),
			})
			if !errors.Is(err, ErrStateConflict) {
				t.Fatalf("expected ErrStateConflict, got %v", err)
			}
		})
	}
}

func TestStartAssignmentDependencyGate(t *testing.T) {
	ms := newMemStore()
	c := newTestController(ms)
	ctx := context.Background()

	workerID := uuid.New()
	projectID := uuid.New()

	dep := seed(t, ms, &domain.Assignment{WorkerID: uuid.New(), ProjectID: projectID, TaskID: uuid.New(), Sequence: 1, Status: domain.StatusInProgress})
	a := seed(t, ms, &domain.Assignment{
		WorkerID: workerID, ProjectID: projectID, TaskID: uuid.New(), Sequence: 1,
		DependsOn: []uuid.UUID{dep.ID},
	})

	_, err := c.StartAssignment(ctx, StartCommand{Auth: workerAuth(workerID), AssignmentID: a.ID, Location: centerLocation()})
	if !errors.Is(err, ErrDependencyUnmet) {
		t.Fatalf("expected ErrDependencyUnmet, got %v", err)
	}

	var de *DependencyError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DependencyError, got %T", err)
	}
	if len(de.Result.Incomplete) != 1 || de.Result.Incomplete[0].ID != dep.ID {
		t.Errorf("Incomplete = %+v, want [%s in_progress]", de.Result.Incomplete, dep.ID)
	}

	// Отказ гейта не меняет состояние.
	if got := ms.get(t, a.ID); got.Status != domain.StatusQueued {
		t.Errorf("status after rejected start = %s, want queued", got.Status)
	}

	// Завершаем зависимость — старт проходит.
	depStored := ms.get(t, dep.ID)
	depStored.MarkCompleted(testNow)
	if err := ms.UpdateWithVersionCheck(ctx, depStored); err != nil {
		t.Fatalf("complete dependency: %v", err)
	}

	if _, err := c.StartAssignment(ctx, StartCommand{Auth: workerAuth(workerID), AssignmentID: a.ID, Location: centerLocation()}); err != nil {
		t.Fatalf("StartAssignment after dependency completed: %v", err)
	}
}

func TestStartAssignmentMissingDependency(t *testing.T) {
	ms := newMemStore()
	c := newTestController(ms)

	workerID := uuid.New()
	ghost := uuid.New()
	a := seed(t, ms, &domain.Assignment{
		WorkerID: workerID, ProjectID: uuid.New(), TaskID: uuid.New(), Sequence: 1,
		DependsOn: []uuid.UUID{ghost},
	})

	_, err := c.StartAssignment(context.Background(), StartCommand{Auth: workerAuth(workerID), AssignmentID: a.ID, Location: centerLocation()})
	if !errors.Is(err, ErrDependencyUnmet) {
		t.Fatalf("expected ErrDependencyUnmet, got %v", err)
	}

	var de *DependencyError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DependencyError, got %T", err)
	}
	if len(de.Result.MissingIDs) != 1 || de.Result.MissingIDs[0] != ghost {
		t.Errorf("MissingIDs = %v, want [%s]", de.Result.MissingIDs, ghost)
	}
}

func TestStartAssignmentSequenceGate(t *testing.T) {
	ms := newMemStore()
	c := newTestController(ms)
	ctx := context.Background()

	workerID := uuid.New()
	projectID := uuid.New()

	t1 := seed(t, ms, &domain.Assignment{WorkerID: workerID, ProjectID: projectID, TaskID: uuid.New(), Sequence: 1})
	t2 := seed(t, ms, &domain.Assignment{WorkerID: workerID, ProjectID: projectID, TaskID: uuid.New(), Sequence: 2})

	// T2 не стартует, пока T1 не completed.
	_, err := c.StartAssignment(ctx, StartCommand{Auth: workerAuth(workerID), AssignmentID: t2.ID, Location: centerLocation()})
	if !errors.Is(err, ErrSequenceViolation) {
		t.Fatalf("expected ErrSequenceViolation, got %v", err)
	}

	var se *SequenceError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SequenceError, got %T", err)
	}
	if len(se.Result.BlockingIDs) != 1 || se.Result.BlockingIDs[0] != t1.ID {
		t.Errorf("BlockingIDs = %v, want [%s]", se.Result.BlockingIDs, t1.ID)
	}

	// T1 стартует и завершается — T2 открывается.
	if _, err := c.StartAssignment(ctx, StartCommand{Auth: workerAuth(workerID), AssignmentID: t1.ID, Location: centerLocation()}); err != nil {
		t.Fatalf("start T1: %v", err)
	}
	if _, err := c.CompleteAssignment(ctx, workerAuth(workerID), t1.ID); err != nil {
		t.Fatalf("complete T1: %v", err)
	}
	if _, err := c.StartAssignment(ctx, StartCommand{Auth: workerAuth(workerID), AssignmentID: t2.ID, Location: centerLocation()}); err != nil {
		t.Fatalf("start T2 after T1 completed: %v", err)
	}
}

func TestStartAssignmentSingleActive(t *testing.T) {
	ms := newMemStore()
	c := newTestController(ms)
	ctx := context.Background()

	workerID := uuid.New()

	// Разные проекты: sequence-гейт обоих пропускает.
	a1 := seed(t, ms, &domain.Assignment{WorkerID: workerID, ProjectID: uuid.New(), TaskID: uuid.New(), Sequence: 1})
	a2 := seed(t, ms, &domain.Assignment{WorkerID: workerID, ProjectID: uuid.New(), TaskID: uuid.New(), Sequence: 1})

	if _, err := c.StartAssignment(ctx, StartCommand{Auth: workerAuth(workerID), AssignmentID: a1.ID, Location: centerLocation()}); err != nil {
		t.Fatalf("start a1: %v", err)
	}

	_, err := c.StartAssignment(ctx, StartCommand{Auth: workerAuth(workerID), AssignmentID: a2.ID, Location: centerLocation()})
	if !errors.Is(err, ErrConcurrentActiveTask) {
		t.Fatalf("expected ErrConcurrentActiveTask, got %v", err)
	}

	var ae *ActiveTaskError
	if !errors.As(err, &ae) {
		t.Fatalf("expected *ActiveTaskError, got %T", err)
	}
	if ae.ActiveID != a1.ID {
		t.Errorf("ActiveID = %s, want %s", ae.ActiveID, a1.ID)
	}
}

func TestStartAssignmentConcurrentStarts(t *testing.T) {
	ms := newMemStore()
	c := newTestController(ms)
	ctx := context.Background()

	workerID := uuid.New()
	a1 := seed(t, ms, &domain.Assignment{WorkerID: workerID, ProjectID: uuid.New(), TaskID: uuid.New(), Sequence: 1})
	a2 := seed(t, ms, &domain.Assignment{WorkerID: workerID, ProjectID: uuid.New(), TaskID: uuid.New(), Sequence: 1})

	// Два конкурентных старта одного работника — ровно один проходит.
	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for _, id := range []uuid.UUID{a1.ID, a2.ID} {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			_, err := c.StartAssignment(ctx, StartCommand{Auth: workerAuth(workerID), AssignmentID: id, Location: centerLocation()})
			errs <- err
		}(id)
	}
	wg.Wait()
	close(errs)

	ok, conflicts := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrConcurrentActiveTask):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || conflicts != 1 {
		t.Errorf("got %d successes and %d conflicts, want 1 and 1", ok, conflicts)
	}
}

func TestStartAssignmentOutsideGeofence(t *testing.T) {
	ms := newMemStore()
	c := newTestController(ms)

	workerID := uuid.New()
	a := seed(t, ms, &domain.Assignment{WorkerID: workerID, ProjectID: uuid.New(), TaskID: uuid.New(), Sequence: 1})

	// ≈150 м от центра при радиусе 100 м, строгий режим.
	_, err := c.StartAssignment(context.Background(), StartCommand{
		Auth:         workerAuth(workerID),
		AssignmentID: a.ID,
		Location: domain.Location{
			Latitude:  testRegion.CenterLatitude + offset150m,
			Longitude: testRegion.CenterLongitude,
		},
	})
	if !errors.Is(err, ErrOutsideGeofence) {
		t.Fatalf("expected ErrOutsideGeofence, got %v", err)
	}

	var ge *GeofenceError
	if !errors.As(err, &ge) {
		t.Fatalf("expected *GeofenceError, got %T", err)
	}
	if ge.Result.DistanceMeters < 140 || ge.Result.DistanceMeters > 160 {
		t.Errorf("distance = %.1f, want ≈150", ge.Result.DistanceMeters)
	}

	if got := ms.get(t, a.ID); got.Status != domain.StatusQueued || got.Geofence != nil {
		t.Errorf("rejected start must not mutate assignment: status=%s geofence=%v", got.Status, got.Geofence)
	}
}

func TestStartAssignmentVersionConflict(t *testing.T) {
	ms := newMemStore()
	c := newTestController(ms)
	ctx := context.Background()

	workerID := uuid.New()
	a := seed(t, ms, &domain.Assignment{WorkerID: workerID, ProjectID: uuid.New(), TaskID: uuid.New(), Sequence: 1})

	// Запись меняется между чтением контроллера и его записью.
	ms.beforeUpdate = func() {
		ms.mu.Lock()
		ms.assignments[a.ID].Version++
		ms.mu.Unlock()
		ms.beforeUpdate = nil
	}

	_, err := c.StartAssignment(ctx, StartCommand{Auth: workerAuth(workerID), AssignmentID: a.ID, Location: centerLocation()})
	if !errors.Is(err, ErrConcurrencyConflict) {
		t.Fatalf("expected ErrConcurrencyConflict, got %v", err)
	}
}

func TestSubmitProgress(t *testing.T) {
	ms := newMemStore()
	c := newTestController(ms)
	ctx := context.Background()

	workerID := uuid.New()
	a := seed(t, ms, &domain.Assignment{
		WorkerID: workerID, ProjectID: uuid.New(), TaskID: uuid.New(), Sequence: 1,
		Status:   domain.StatusInProgress,
		Estimate: domain.TimeEstimate{EstimatedMinutes: 200, RemainingMinutes: 200},
	})

	res, err := c.SubmitProgress(ctx, ProgressCommand{
		Auth: workerAuth(workerID), AssignmentID: a.ID, Percent: 40, Description: "formwork done on east wall",
	})
	if err != nil {
		t.Fatalf("SubmitProgress: %v", err)
	}
	if res.PreviousPercent != 0 || res.NewPercent != 40 {
		t.Errorf("result = %+v, want previous 0 new 40", res)
	}
	if res.Status != domain.StatusInProgress {
		t.Errorf("status = %s, want in_progress", res.Status)
	}

	stored := ms.get(t, a.ID)
	if stored.ProgressPercent != 40 {
		t.Errorf("stored percent = %.1f, want 40", stored.ProgressPercent)
	}
	// 40% от 200 минут: elapsed 80, remaining 120.
	if stored.Estimate.ElapsedMinutes != 80 || stored.Estimate.RemainingMinutes != 120 {
		t.Errorf("estimate = %+v, want elapsed 80 remaining 120", stored.Estimate)
	}

	if len(ms.progress) != 1 {
		t.Fatalf("expected 1 progress record, got %d", len(ms.progress))
	}
	rec := ms.progress[0]
	if rec.AssignmentID != a.ID || rec.Percent != 40 || rec.Description != "formwork done on east wall" {
		t.Errorf("progress record = %+v", rec)
	}
}

func TestSubmitProgressMonotonic(t *testing.T) {
	ms := newMemStore()
	c := newTestController(ms)
	ctx := context.Background()

	workerID := uuid.New()
	a := seed(t, ms, &domain.Assignment{
		WorkerID: workerID, ProjectID: uuid.New(), TaskID: uuid.New(), Sequence: 1,
		Status: domain.StatusInProgress, ProgressPercent: 60,
	})

	// Откат прогресса запрещён.
	_, err := c.SubmitProgress(ctx, ProgressCommand{
		Auth: workerAuth(workerID), AssignmentID: a.ID, Percent: 45, Description: "recount",
	})
	if !errors.Is(err, ErrProgressDecrease) {
		t.Fatalf("expected ErrProgressDecrease, got %v", err)
	}

	var pe *ProgressError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ProgressError, got %T", err)
	}
	if pe.Current != 60 || pe.Submitted != 45 {
		t.Errorf("ProgressError = %+v, want current 60 submitted 45", pe)
	}

	if got := ms.get(t, a.ID); got.ProgressPercent != 60 {
		t.Errorf("stored percent = %.1f, want unchanged 60", got.ProgressPercent)
	}
	if len(ms.progress) != 0 {
		t.Errorf("rejected progress must not leave audit records, got %d", len(ms.progress))
	}

	// Повтор того же процента допустим.
	if _, err := c.SubmitProgress(ctx, ProgressCommand{
		Auth: workerAuth(workerID), AssignmentID: a.ID, Percent: 60, Description: "same after remeasure",
	}); err != nil {
		t.Fatalf("resubmitting equal percent: %v", err)
	}
}

func TestSubmitProgressCompletesAtHundred(t *testing.T) {
	ms := newMemStore()
	c := newTestController(ms)

	workerID := uuid.New()
	a := seed(t, ms, &domain.Assignment{
		WorkerID: workerID, ProjectID: uuid.New(), TaskID: uuid.New(), Sequence: 1,
		Status:   domain.StatusInProgress,
		Estimate: domain.TimeEstimate{EstimatedMinutes: 90, RemainingMinutes: 90},
	})

	res, err := c.SubmitProgress(context.Background(), ProgressCommand{
		Auth: workerAuth(workerID), AssignmentID: a.ID, Percent: 100, Description: "slab poured and cured",
	})
	if err != nil {
		t.Fatalf("SubmitProgress: %v", err)
	}
	if res.Status != domain.StatusCompleted {
		t.Errorf("status = %s, want completed", res.Status)
	}

	stored := ms.get(t, a.ID)
	if stored.Status != domain.StatusCompleted {
		t.Errorf("stored status = %s, want completed", stored.Status)
	}
	if stored.CompletedAt == nil || !stored.CompletedAt.Equal(testNow) {
		t.Errorf("CompletedAt = %v, want %v", stored.CompletedAt, testNow)
	}
	if stored.Estimate.RemainingMinutes != 0 {
		t.Errorf("remaining = %d, want 0", stored.Estimate.RemainingMinutes)
	}
}

func TestSubmitProgressRequiresInProgress(t *testing.T) {
	// Прогресс по queued assignment не стартует его неявно:
	// это обошло бы геовалидацию и остальные гейты.
	for _, status := range []domain.AssignmentStatus{domain.StatusQueued, domain.StatusCompleted, domain.StatusBlocked} {
		t.Run(string(status), func(t *testing.T) {
			ms := newMemStore()
			c := newTestController(ms)

			workerID := uuid.New()
			a := seed(t, ms, &domain.Assignment{WorkerID: workerID, ProjectID: uuid.New(), TaskID: uuid.New(), Sequence: 1, Status: status})

			_, err := c.SubmitProgress(context.Background(), ProgressCommand{
				Auth: workerAuth(workerID), AssignmentID: a.ID, Percent: 10, Description: "early report",
			})
			if !errors.Is(err, ErrStateConflict) {
				t.Fatalf("expected ErrStateConflict, got %v", err)
			}
		})
	}
}

func TestSubmitProgressValidation(t *testing.T) {
	ms := newMemStore()
	c := newTestController(ms)
	workerID := uuid.New()
	a := seed(t, ms, &domain.Assignment{WorkerID: workerID, ProjectID: uuid.New(), TaskID: uuid.New(), Sequence: 1, Status: domain.StatusInProgress})

	cases := []struct {
		name string
		cmd  ProgressCommand
	}{
		{"negative percent", ProgressCommand{AssignmentID: a.ID, Percent: -5, Description: "x"}},
		{"over hundred", ProgressCommand{AssignmentID: a.ID, Percent: 101, Description: "x"}},
		{"empty description", ProgressCommand{AssignmentID: a.ID, Percent: 50, Description: "   "}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := c.SubmitProgress(context.Background(), tc.cmd); !errors.Is(err, ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestCompleteAssignment(t *testing.T) {
	ms := newMemStore()
	c := newTestController(ms)
	ctx := context.Background()

	workerID := uuid.New()
	a := seed(t, ms, &domain.Assignment{
		WorkerID: workerID, ProjectID: uuid.New(), TaskID: uuid.New(), Sequence: 1,
		Status: domain.StatusInProgress, ProgressPercent: 70,
	})

	done, err := c.CompleteAssignment(ctx, workerAuth(workerID), a.ID)
	if err != nil {
		t.Fatalf("CompleteAssignment: %v", err)
	}
	if done.Status != domain.StatusCompleted {
		t.Errorf("status = %s, want completed", done.Status)
	}
	// Явное завершение не требует 100%.
	if done.ProgressPercent != 70 {
		t.Errorf("percent = %.1f, want unchanged 70", done.ProgressPercent)
	}

	// completed — терминальный статус.
	if _, err := c.CompleteAssignment(ctx, workerAuth(workerID), a.ID); !errors.Is(err, ErrStateConflict) {
		t.Errorf("completing twice: expected ErrStateConflict, got %v", err)
	}
}

func TestRemoveQueuedAssignment(t *testing.T) {
	ms := newMemStore()
	c := newTestController(ms)
	ctx := context.Background()

	workerID := uuid.New()
	projectID := uuid.New()

	a1 := seed(t, ms, &domain.Assignment{WorkerID: workerID, ProjectID: projectID, TaskID: uuid.New(), Sequence: 1})
	a2 := seed(t, ms, &domain.Assignment{WorkerID: workerID, ProjectID: projectID, TaskID: uuid.New(), Sequence: 2})
	a3 := seed(t, ms, &domain.Assignment{WorkerID: workerID, ProjectID: projectID, TaskID: uuid.New(), Sequence: 3})

	if err := c.RemoveQueuedAssignment(ctx, supervisorAuth(), a2.ID); err != nil {
		t.Fatalf("RemoveQueuedAssignment: %v", err)
	}

	if _, err := ms.FindByID(ctx, a2.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("removed assignment still present: %v", err)
	}

	// Оставшиеся перенумерованы в 1..N с сохранением порядка.
	if got := ms.get(t, a1.ID).Sequence; got != 1 {
		t.Errorf("a1 sequence = %d, want 1", got)
	}
	if got := ms.get(t, a3.ID).Sequence; got != 2 {
		t.Errorf("a3 sequence = %d, want 2", got)
	}
}

func TestRemoveQueuedAssignmentSkipsNonQueued(t *testing.T) {
	ms := newMemStore()
	c := newTestController(ms)
	ctx := context.Background()

	workerID := uuid.New()
	projectID := uuid.New()

	// completed сосед не участвует в перенумерации.
	done := seed(t, ms, &domain.Assignment{WorkerID: workerID, ProjectID: projectID, TaskID: uuid.New(), Sequence: 1, Status: domain.StatusCompleted})
	a2 := seed(t, ms, &domain.Assignment{WorkerID: workerID, ProjectID: projectID, TaskID: uuid.New(), Sequence: 2})
	a3 := seed(t, ms, &domain.Assignment{WorkerID: workerID, ProjectID: projectID, TaskID: uuid.New(), Sequence: 3})

	if err := c.RemoveQueuedAssignment(ctx, supervisorAuth(), a2.ID); err != nil {
		t.Fatalf("RemoveQueuedAssignment: %v", err)
	}

	if got := ms.get(t, done.ID).Sequence; got != 1 {
		t.Errorf("completed sequence = %d, want untouched 1", got)
	}
	if got := ms.get(t, a3.ID).Sequence; got != 1 {
		t.Errorf("a3 sequence = %d, want 1", got)
	}
}

func TestRemoveRejectsNonQueued(t *testing.T) {
	ms := newMemStore()
	c := newTestController(ms)

	a := seed(t, ms, &domain.Assignment{WorkerID: uuid.New(), ProjectID: uuid.New(), TaskID: uuid.New(), Sequence: 1, Status: domain.StatusInProgress})

	err := c.RemoveQueuedAssignment(context.Background(), supervisorAuth(), a.ID)
	if !errors.Is(err, ErrStateConflict) {
		t.Fatalf("expected ErrStateConflict, got %v", err)
	}
}

func TestReportIssueBlocking(t *testing.T) {
	ms := newMemStore()
	c := newTestController(ms)
	ctx := context.Background()

	workerID := uuid.New()
	a := seed(t, ms, &domain.Assignment{WorkerID: workerID, ProjectID: uuid.New(), TaskID: uuid.New(), Sequence: 1, Status: domain.StatusInProgress})

	issue, err := c.ReportIssue(ctx, IssueCommand{
		Auth:         workerAuth(workerID),
		AssignmentID: a.ID,
		Type:         domain.IssueTypeMaterial,
		Priority:     domain.PriorityCritical,
		Description:  "rebar delivery missing",
	})
	if err != nil {
		t.Fatalf("ReportIssue: %v", err)
	}
	if issue.Type != domain.IssueTypeMaterial || issue.Priority != domain.PriorityCritical {
		t.Errorf("issue = %+v", issue)
	}
	if len(ms.issues) != 1 {
		t.Fatalf("expected 1 issue in tracker, got %d", len(ms.issues))
	}

	// high/critical блокирует assignment.
	if got := ms.get(t, a.ID); got.Status != domain.StatusBlocked {
		t.Errorf("status = %s, want blocked", got.Status)
	}
}

func TestReportIssueNonBlocking(t *testing.T) {
	ms := newMemStore()
	c := newTestController(ms)

	workerID := uuid.New()
	a := seed(t, ms, &domain.Assignment{WorkerID: workerID, ProjectID: uuid.New(), TaskID: uuid.New(), Sequence: 1, Status: domain.StatusInProgress})

	if _, err := c.ReportIssue(context.Background(), IssueCommand{
		Auth:         workerAuth(workerID),
		AssignmentID: a.ID,
		Type:         domain.IssueTypeWeather,
		Priority:     domain.PriorityLow,
		Description:  "light rain, work continues",
	}); err != nil {
		t.Fatalf("ReportIssue: %v", err)
	}

	if got := ms.get(t, a.ID); got.Status != domain.StatusInProgress {
		t.Errorf("status = %s, want in_progress (low priority must not block)", got.Status)
	}
}

func TestReportIssueOnCompleted(t *testing.T) {
	ms := newMemStore()
	c := newTestController(ms)

	workerID := uuid.New()
	a := seed(t, ms, &domain.Assignment{WorkerID: workerID, ProjectID: uuid.New(), TaskID: uuid.New(), Sequence: 1, Status: domain.StatusCompleted})

	// Тикет создаётся, но completed не переводится в blocked.
	if _, err := c.ReportIssue(context.Background(), IssueCommand{
		Auth:         workerAuth(workerID),
		AssignmentID: a.ID,
		Type:         domain.IssueTypeSafety,
		Priority:     domain.PriorityCritical,
		Description:  "handrail missing, found during handover",
	}); err != nil {
		t.Fatalf("ReportIssue: %v", err)
	}

	if len(ms.issues) != 1 {
		t.Errorf("expected issue created, got %d", len(ms.issues))
	}
	if got := ms.get(t, a.ID); got.Status != domain.StatusCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
}

func TestAttachPhoto(t *testing.T) {
	ms := newMemStore()
	c := newTestController(ms)
	ctx := context.Background()

	workerID := uuid.New()
	a := seed(t, ms, &domain.Assignment{WorkerID: workerID, ProjectID: uuid.New(), TaskID: uuid.New(), Sequence: 1, Status: domain.StatusInProgress})

	for i := 1; i <= MaxPhotosPerAssignment; i++ {
		got, err := c.AttachPhoto(ctx, workerAuth(workerID), a.ID)
		if err != nil {
			t.Fatalf("AttachPhoto #%d: %v", i, err)
		}
		if got.PhotoCount != i {
			t.Errorf("photo count = %d, want %d", got.PhotoCount, i)
		}
	}

	_, err := c.AttachPhoto(ctx, workerAuth(workerID), a.ID)
	if !errors.Is(err, ErrPhotoLimitExceeded) {
		t.Fatalf("expected ErrPhotoLimitExceeded, got %v", err)
	}
	if got := ms.get(t, a.ID); got.PhotoCount != MaxPhotosPerAssignment {
		t.Errorf("photo count = %d, want %d", got.PhotoCount, MaxPhotosPerAssignment)
	}
}

func TestStatusEventsPublished(t *testing.T) {
	ms := newMemStore()
	c := newTestController(ms)
	ctx := context.Background()

	workerID := uuid.New()
	a := seed(t, ms, &domain.Assignment{WorkerID: workerID, ProjectID: uuid.New(), TaskID: uuid.New(), Sequence: 1})

	if _, err := c.StartAssignment(ctx, StartCommand{Auth: workerAuth(workerID), AssignmentID: a.ID, Location: centerLocation()}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := c.SubmitProgress(ctx, ProgressCommand{Auth: workerAuth(workerID), AssignmentID: a.ID, Percent: 100, Description: "done"}); err != nil {
		t.Fatalf("progress: %v", err)
	}

	want := []string{"queued->in_progress", "in_progress->completed"}
	if len(ms.events) != len(want) {
		t.Fatalf("events = %v, want %v", ms.events, want)
	}
	for i := range want {
		if ms.events[i] != want[i] {
			t.Errorf("event[%d] = %s, want %s", i, ms.events[i], want[i])
		}
	}
}
