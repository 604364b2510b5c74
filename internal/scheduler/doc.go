// Package scheduler реализует материализацию work plans.
//
// Scheduler периодически проверяет планы с истекшим next_due_at
// и создаёт assignments на текущий день через LifecycleController.
//
// Структура:
//   - scheduler.go — основная логика Scheduler (Tick, processPlan)
//   - cron.go      — парсинг cron-выражений и вычисление следующего времени
//
// Использование:
//
//	sched := scheduler.New(scheduler.Config{
//	    PlanRepo:   planRepo,
//	    Controller: controller,
//	    Logger:     logger,
//	})
//
//	// Вызывается каждый тик (обычно раз в секунду)
//	if err := sched.Tick(ctx); err != nil {
//	    logger.Error("scheduler tick failed", "error", err)
//	}
//
// Leader Election:
//
// Scheduler не реализует leader election самостоятельно.
// Это делается в main.go через pg_try_advisory_lock.
// Метод Tick() вызывается только лидером.
package scheduler
