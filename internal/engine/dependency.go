package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/shaiso/Foreman/internal/domain"
)

// DependencyStatus — состояние одной незавершённой зависимости.
type DependencyStatus struct {
	ID     uuid.UUID               `json:"id"`
	Status domain.AssignmentStatus `json:"status"`
}

// DependencyResult — результат проверки зависимостей.
type DependencyResult struct {
	// CanStart — все зависимости completed.
	CanStart bool `json:"can_start"`

	// MissingIDs — зависимости, которых нет в хранилище.
	MissingIDs []uuid.UUID `json:"missing_ids,omitempty"`

	// Incomplete — найденные, но не completed зависимости.
	Incomplete []DependencyStatus `json:"incomplete,omitempty"`
}

// DependencyResolver проверяет, что все зависимости assignment
// достигли терминального статуса completed.
type DependencyResolver struct {
	store AssignmentStore
}

// NewDependencyResolver создаёт новый DependencyResolver.
func NewDependencyResolver(store AssignmentStore) *DependencyResolver {
	return &DependencyResolver{store: store}
}

// Check проверяет список зависимостей.
// Пустой список тривиально проходит.
func (r *DependencyResolver) Check(ctx context.Context, ids []uuid.UUID) (DependencyResult, error) {
	if len(ids) == 0 {
		return DependencyResult{CanStart: true}, nil
	}

	found, err := r.store.FindByIDs(ctx, ids)
	if err != nil {
		return DependencyResult{}, fmt.Errorf("find dependencies: %w", err)
	}

	byID := make(map[uuid.UUID]*domain.Assignment, len(found))
	for i := range found {
		byID[found[i].ID] = &found[i]
	}

	res := DependencyResult{}
	for _, id := range ids {
		dep, ok := byID[id]
		if !ok {
			res.MissingIDs = append(res.MissingIDs, id)
			continue
		}
		if dep.Status != domain.StatusCompleted {
			res.Incomplete = append(res.Incomplete, DependencyStatus{ID: dep.ID, Status: dep.Status})
		}
	}

	res.CanStart = len(res.MissingIDs) == 0 && len(res.Incomplete) == 0
	return res, nil
}
