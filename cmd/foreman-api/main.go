package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Foreman/internal/api"
	"github.com/shaiso/Foreman/internal/engine"
	"github.com/shaiso/Foreman/internal/mq"
	"github.com/shaiso/Foreman/internal/repo"
	"github.com/shaiso/Foreman/internal/telemetry"
)

var (
	startTime = time.Now()
	reqTotal  = promauto.NewCounter(prometheus.CounterOpts{
		Name: "foreman_api_http_requests_total",
		Help: "Total HTTP requests handled by foreman_api",
	})
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting foreman-api")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Подключаемся к базе данных
	pool, err := repo.NewPool(ctx)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	// Создаём репозитории
	assignmentRepo := repo.NewAssignmentRepo(pool)
	projectRepo := repo.NewProjectRepo(pool)
	issueRepo := repo.NewIssueRepo(pool)
	checkinRepo := repo.NewCheckInRepo(pool)
	planRepo := repo.NewPlanRepo(pool)

	// RabbitMQ: без него API работает, но события не публикуются
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

	// Движок жизненного цикла
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

	// API handler
	handler := api.NewHandler(api.Config{
		Controller:     controller,
		AssignmentRepo: assignmentRepo,
		ProjectRepo:    projectRepo,
		IssueRepo:      issueRepo,
		CheckinRepo:    checkinRepo,
		PlanRepo:       planRepo,
		Attendance:     checkinRepo,
		Logger:         logger,
	})

	mux := http.NewServeMux()

	// Health и metrics
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		reqTotal.Inc()
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime))
	})
	mux.Handle("/metrics", promhttp.Handler())

	// Регистрируем API маршруты
	handler.RegisterRoutes(mux)

	addr := ":8080"
	if v := os.Getenv("API_PORT"); v != "" {
		addr = ":" + v
	}

	// HTTP сервер с graceful shutdown
	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	// Graceful shutdown с таймаутом 10 секунд
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}
