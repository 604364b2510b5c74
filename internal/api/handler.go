package api

import (
	"log/slog"

	"github.com/shaiso/Foreman/internal/engine"
	"github.com/shaiso/Foreman/internal/repo"
)

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	controller     *engine.LifecycleController
	assignmentRepo *repo.AssignmentRepo
	projectRepo    *repo.ProjectRepo
	issueRepo      *repo.IssueRepo
	checkinRepo    *repo.CheckInRepo
	planRepo       *repo.PlanRepo
	attendance     engine.AttendanceService
	logger         *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Controller     *engine.LifecycleController
	AssignmentRepo *repo.AssignmentRepo
	ProjectRepo    *repo.ProjectRepo
	IssueRepo      *repo.IssueRepo
	CheckinRepo    *repo.CheckInRepo
	PlanRepo       *repo.PlanRepo
	Attendance     engine.AttendanceService
	Logger         *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		controller:     cfg.Controller,
		assignmentRepo: cfg.AssignmentRepo,
		projectRepo:    cfg.ProjectRepo,
		issueRepo:      cfg.IssueRepo,
		checkinRepo:    cfg.CheckinRepo,
		planRepo:       cfg.PlanRepo,
		attendance:     cfg.Attendance,
		logger:         cfg.Logger,
	}
}
