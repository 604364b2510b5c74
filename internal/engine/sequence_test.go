package engine

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/shaiso/Foreman/internal/domain"
)

func TestSequenceGateFirstInLine(t *testing.T) {
	ms := newMemStore()
	g := NewSequenceGate(ms)

	a := seed(t, ms, &domain.Assignment{WorkerID: uuid.New(), ProjectID: uuid.New(), TaskID: uuid.New(), Sequence: 1})

	res, err := g.Validate(context.Background(), a)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !res.CanStart {
		t.Errorf("sequence 1 must pass trivially: %+v", res)
	}
}

func TestSequenceGateBlockedByEarlier(t *testing.T) {
	ms := newMemStore()
	g := NewSequenceGate(ms)
	ctx := context.Background()

	workerID := uuid.New()
	projectID := uuid.New()

	t1 := seed(t, ms, &domain.Assignment{WorkerID: workerID, ProjectID: projectID, TaskID: uuid.New(), Sequence: 1, Status: domain.StatusInProgress})
	t2 := seed(t, ms, &domain.Assignment{WorkerID: workerID, ProjectID: projectID, TaskID: uuid.New(), Sequence: 2, Status: domain.StatusBlocked})
	t3 := seed(t, ms, &domain.Assignment{WorkerID: workerID, ProjectID: projectID, TaskID: uuid.New(), Sequence: 3})

	res, err := g.Validate(ctx, t3)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if res.CanStart {
		t.Fatalf("incomplete earlier assignments must block: %+v", res)
	}
	// Блокеры отсортированы по sequence.
	if len(res.BlockingIDs) != 2 || res.BlockingIDs[0] != t1.ID || res.BlockingIDs[1] != t2.ID {
		t.Errorf("BlockingIDs = %v, want [%s %s]", res.BlockingIDs, t1.ID, t2.ID)
	}
}

func TestSequenceGateIgnoresOtherScopes(t *testing.T) {
	ms := newMemStore()
	g := NewSequenceGate(ms)
	ctx := context.Background()

	workerID := uuid.New()
	projectID := uuid.New()
	date := domain.DateOnly(testNow)

	// Незавершённые задачи другого работника, другого проекта и
	// другого дня не влияют на порядок.
	seed(t, ms, &domain.Assignment{WorkerID: uuid.New(), ProjectID: projectID, TaskID: uuid.New(), Sequence: 1, Status: domain.StatusInProgress})
	seed(t, ms, &domain.Assignment{WorkerID: workerID, ProjectID: uuid.New(), TaskID: uuid.New(), Sequence: 1, Status: domain.StatusInProgress})
	seed(t, ms, &domain.Assignment{WorkerID: workerID, ProjectID: projectID, TaskID: uuid.New(), Sequence: 1, Status: domain.StatusInProgress,
		Date: date.AddDate(0, 0, -1)})

	seed(t, ms, &domain.Assignment{WorkerID: workerID, ProjectID: projectID, TaskID: uuid.New(), Sequence: 1, Status: domain.StatusCompleted})
	a := seed(t, ms, &domain.Assignment{WorkerID: workerID, ProjectID: projectID, TaskID: uuid.New(), Sequence: 2})

	res, err := g.Validate(ctx, a)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !res.CanStart {
		t.Errorf("only same (worker, project, date) assignments gate the order: %+v", res)
	}
}
