// Foreman Scheduler — материализует recurring work plans в дневные
// assignments.
//
// Scheduler:
//   - Раз в секунду проверяет планы с истекшим next_due_at
//   - Создаёт assignments через LifecycleController
//   - Лидерство между экземплярами через pg_try_advisory_lock
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Foreman/internal/engine"
	"github.com/shaiso/Foreman/internal/mq"
	"github.com/shaiso/Foreman/internal/repo"
	"github.com/shaiso/Foreman/internal/scheduler"
	"github.com/shaiso/Foreman/internal/telemetry"
)

const schedLockKey int64 = 737373

var tickTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "foreman_scheduler_ticks_total",
	Help: "Total scheduler ticks executed as leader",
})

func main() {
	logger := telemetry.SetupLogger()
	logger.Info("starting foreman-scheduler")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// DB pool
	pool, err := repo.NewPool(ctx)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	assignmentRepo := repo.NewAssignmentRepo(pool)
	projectRepo := repo.NewProjectRepo(pool)
	issueRepo := repo.NewIssueRepo(pool)
	planRepo := repo.NewPlanRepo(pool)

	// RabbitMQ (опционально — без него события не публикуются)
	var publisher *mq.Publisher
	mqURL := os.Getenv("RABBITMQ_URL")
	if mqURL == "" {
		mqURL = mq.DefaultURL()
	}

	mqConn, err := mq.NewConnection(mqURL, logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, lifecycle events will not be published", "error", err)
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")

		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}

		publisher = mq.NewPublisher(mqConn, logger)
	}

	controllerCfg := engine.Config{
		Store:   assignmentRepo,
		Catalog: projectRepo,
		Issues:  issueRepo,
		Logger:  logger,
	}
	if publisher != nil {
		controllerCfg.Publisher = publisher
	}
	controller := engine.New(controllerCfg)

	sched := scheduler.New(scheduler.Config{
		PlanRepo:   planRepo,
		Controller: controller,
		Logger:     logger,
	})

	// scheduler loop: только лидер выполняет Tick
	go func() {
		tk := time.NewTicker(1 * time.Second)
		defer tk.Stop()

		var hasLock bool
		defer func() {
			if hasLock {
				_, _ = pool.Exec(context.Background(), "select pg_advisory_unlock($1)", schedLockKey)
			}
		}()

		for {
			select {
			case <-tk.C:
				if !hasLock {
					var ok bool
					if err := pool.QueryRow(ctx, "select pg_try_advisory_lock($1)", schedLockKey).Scan(&ok); err != nil {
						logger.Error("advisory lock error", "error", err)
						continue
					}
					hasLock = ok
				}

				if !hasLock {
					// не лидер — пропускаем тик
					continue
				}

				tickTotal.Inc()
				if err := sched.Tick(ctx); err != nil {
					logger.Error("scheduler tick failed", "error", err)
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8081"
	if v := os.Getenv("SCHED_PORT"); v != "" {
		port = ":" + v
	}

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("foreman-scheduler stopped")
}
