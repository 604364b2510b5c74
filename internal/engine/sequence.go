package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/shaiso/Foreman/internal/domain"
)

// SequenceResult — результат проверки порядка выполнения.
type SequenceResult struct {
	// CanStart — все более ранние по sequence assignments completed.
	CanStart bool `json:"can_start"`

	// BlockingIDs — незавершённые assignments с меньшим sequence,
	// отсортированные по sequence.
	BlockingIDs []uuid.UUID `json:"blocking_ids,omitempty"`
}

// SequenceGate следит за порядком выполнения задач работника
// в рамках (project, date): задача с sequence=k стартует только
// когда все задачи с sequence<k завершены.
type SequenceGate struct {
	store AssignmentStore
}

// NewSequenceGate создаёт новый SequenceGate.
func NewSequenceGate(store AssignmentStore) *SequenceGate {
	return &SequenceGate{store: store}
}

// Validate проверяет, может ли assignment стартовать по порядку.
// Assignment без sequence или с sequence ≤ 1 проходит тривиально.
func (g *SequenceGate) Validate(ctx context.Context, a *domain.Assignment) (SequenceResult, error) {
	if a.Sequence <= 1 {
		return SequenceResult{CanStart: true}, nil
	}

	siblings, err := g.store.FindByWorkerProjectDate(ctx, a.WorkerID, a.ProjectID, a.Date)
	if err != nil {
		return SequenceResult{}, fmt.Errorf("find sequence siblings: %w", err)
	}

	type blocking struct {
		id       uuid.UUID
		sequence int
	}
	var blockers []blocking

	for i := range siblings {
		s := &siblings[i]
		if s.ID == a.ID {
			continue
		}
		if s.Sequence >= a.Sequence {
			continue
		}
		if s.Status != domain.StatusCompleted {
			blockers = append(blockers, blocking{id: s.ID, sequence: s.Sequence})
		}
	}

	sort.Slice(blockers, func(i, j int) bool { return blockers[i].sequence < blockers[j].sequence })

	res := SequenceResult{CanStart: len(blockers) == 0}
	for _, b := range blockers {
		res.BlockingIDs = append(res.BlockingIDs, b.id)
	}
	return res, nil
}
