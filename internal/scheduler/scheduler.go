package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/Foreman/internal/domain"
	"github.com/shaiso/Foreman/internal/engine"
	"github.com/shaiso/Foreman/internal/repo"
)

// Scheduler материализует due work plans в дневные assignments.
type Scheduler struct {
	planRepo   *repo.PlanRepo
	controller *engine.LifecycleController
	logger     *slog.Logger
	batchSize  int
}

// Config — конфигурация Scheduler.
type Config struct {
	PlanRepo   *repo.PlanRepo
	Controller *engine.LifecycleController
	Logger     *slog.Logger
	BatchSize  int // количество планов за один тик (default: 100)
}

// New создаёт новый Scheduler.
func New(cfg Config) *Scheduler {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	return &Scheduler{
		planRepo:   cfg.PlanRepo,
		controller: cfg.Controller,
		logger:     cfg.Logger,
		batchSize:  batchSize,
	}
}

// Tick выполняет один тик планировщика.
//
// 1. Находит due work plans (enabled=true, next_due_at <= now)
// 2. Для каждого плана создаёт assignments на текущий день
// 3. Обновляет next_due_at
//
// Ошибки одного плана не блокируют обработку остальных.
func (s *Scheduler) Tick(ctx context.Context) error {
	now := time.Now()

	plans, err := s.planRepo.ListDue(ctx, now, s.batchSize)
	if err != nil {
		return fmt.Errorf("list due work plans: %w", err)
	}

	if len(plans) == 0 {
		return nil
	}

	s.logger.Debug("found due work plans", "count", len(plans))

	var processed, created int
	for i := range plans {
		plan := &plans[i]

		n, err := s.processPlan(ctx, plan, now)
		if err != nil {
			s.logger.Error("failed to process work plan",
				"plan_id", plan.ID,
				"plan_name", plan.Name,
				"error", err,
			)
			// Продолжаем обработку остальных
			continue
		}

		processed++
		created += n
	}

	s.logger.Info("scheduler tick completed",
		"due", len(plans),
		"processed", processed,
		"assignments_created", created,
	)

	return nil
}

// processPlan материализует один план.
// Возвращает количество созданных assignments.
func (s *Scheduler) processPlan(ctx context.Context, plan *domain.WorkPlan, now time.Time) (int, error) {
	tasks := make([]engine.TaskSpec, len(plan.TaskIDs))
	for i, taskID := range plan.TaskIDs {
		tasks[i] = engine.TaskSpec{TaskID: taskID}
	}

	cmd := engine.AssignTasksCommand{
		Auth:             engine.AuthContext{Role: engine.RoleSupervisor},
		WorkerID:         plan.WorkerID,
		ProjectID:        plan.ProjectID,
		Date:             now,
		Priority:         plan.Priority,
		EstimatedMinutes: plan.EstimatedMinutes,
		Tasks:            tasks,
	}

	created, err := s.controller.AssignTasks(ctx, cmd)
	switch {
	case err == nil:
		s.logger.Info("materialized work plan",
			"plan_id", plan.ID,
			"plan_name", plan.Name,
			"worker_id", plan.WorkerID,
			"assignments_created", created,
		)

	case errors.Is(err, engine.ErrDuplicateAssignment):
		// План уже материализован на этот день (рестарт или
		// конкурентный тик) — идемпотентно пропускаем.
		s.logger.Debug("work plan already materialized for date",
			"plan_id", plan.ID,
			"date", domain.DateOnly(now).Format("2006-01-02"),
		)
		created = 0

	case errors.Is(err, engine.ErrInvalidTask):
		// Задачи плана удалены из каталога — план устарел.
		s.logger.Warn("work plan references unknown tasks, skipping",
			"plan_id", plan.ID,
			"error", err,
		)
		created = 0

	default:
		return 0, fmt.Errorf("assign tasks: %w", err)
	}

	nextDue, err := CalculateNextDue(plan, now)
	if err != nil {
		s.logger.Error("failed to calculate next due",
			"plan_id", plan.ID,
			"error", err,
		)
		// План некорректный — лучше не трогать next_due_at
		return created, nil
	}

	plan.RecordRun(nextDue)
	if err := s.planRepo.Update(ctx, plan); err != nil {
		return created, fmt.Errorf("update work plan: %w", err)
	}

	return created, nil
}
