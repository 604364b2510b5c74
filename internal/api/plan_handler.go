package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Foreman/internal/domain"
	"github.com/shaiso/Foreman/internal/repo"
	"github.com/shaiso/Foreman/internal/scheduler"
)

// ListPlans возвращает список work plans с фильтрацией.
// GET /api/v1/plans?project_id=...&worker_id=...&enabled=...&limit=...&offset=...
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	filter := repo.PlanFilter{}

	if projectIDStr := r.URL.Query().Get("project_id"); projectIDStr != "" {
		projectID, err := uuid.Parse(projectIDStr)
		if err != nil {
			BadRequest(w, "invalid project_id")
			return
		}
		filter.ProjectID = &projectID
	}

	if workerIDStr := r.URL.Query().Get("worker_id"); workerIDStr != "" {
		workerID, err := uuid.Parse(workerIDStr)
		if err != nil {
			BadRequest(w, "invalid worker_id")
			return
		}
		filter.WorkerID = &workerID
	}

	if enabledStr := r.URL.Query().Get("enabled"); enabledStr != "" {
		enabled := enabledStr == "true"
		filter.Enabled = &enabled
	}

	filter.Limit = queryInt(r, "limit", 50)
	filter.Offset = queryInt(r, "offset", 0)

	plans, err := h.planRepo.List(r.Context(), filter)
	if HandleEngineError(w, h.logger, err) {
		return
	}

	result := make([]PlanResponse, len(plans))
	for i := range plans {
		result[i] = PlanFromDomain(&plans[i])
	}

	List(w, result, len(result))
}

// CreatePlan создаёт новый work plan.
// POST /api/v1/plans
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req CreatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if req.ProjectID == uuid.Nil || req.WorkerID == uuid.Nil {
		BadRequest(w, "project_id and worker_id are required")
		return
	}
	if len(req.TaskIDs) == 0 {
		BadRequest(w, "task_ids is required")
		return
	}
	if req.CronExpr == "" && req.IntervalSec <= 0 {
		BadRequest(w, "either cron_expr or interval_sec is required")
		return
	}
	if req.CronExpr != "" {
		if err := scheduler.ValidateCronExpr(req.CronExpr); err != nil {
			BadRequest(w, err.Error())
			return
		}
	}

	// Проверяем, что проект и задачи существуют.
	missing, err := h.projectRepo.MissingTasks(r.Context(), req.ProjectID, req.TaskIDs)
	if HandleEngineError(w, h.logger, err) {
		return
	}
	if len(missing) > 0 {
		BadRequest(w, "some tasks do not belong to project")
		return
	}

	timezone := req.Timezone
	if timezone == "" {
		timezone = "UTC"
	}
	priority := req.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !priority.IsValid() {
		BadRequest(w, "unknown priority")
		return
	}

	now := time.Now()
	plan := &domain.WorkPlan{
		ID:               uuid.New(),
		ProjectID:        req.ProjectID,
		WorkerID:         req.WorkerID,
		Name:             req.Name,
		TaskIDs:          req.TaskIDs,
		Priority:         priority,
		EstimatedMinutes: req.EstimatedMinutes,
		CronExpr:         req.CronExpr,
		IntervalSec:      req.IntervalSec,
		Timezone:         timezone,
		Enabled:          req.Enabled,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	nextDue, err := scheduler.CalculateNextDue(plan, now)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}
	plan.NextDueAt = &nextDue

	if err := h.planRepo.Create(r.Context(), plan); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	Created(w, PlanFromDomain(plan))
}

// GetPlan возвращает work plan по ID.
// GET /api/v1/plans/{id}
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid plan id")
		return
	}

	plan, err := h.planRepo.GetByID(r.Context(), id)
	if HandleEngineError(w, h.logger, err) {
		return
	}

	Success(w, PlanFromDomain(plan))
}

// UpdatePlan обновляет work plan.
// PUT /api/v1/plans/{id}
func (h *Handler) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid plan id")
		return
	}

	var req UpdatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	plan, err := h.planRepo.GetByID(r.Context(), id)
	if HandleEngineError(w, h.logger, err) {
		return
	}

	if req.Name != nil {
		plan.Name = *req.Name
	}
	if len(req.TaskIDs) > 0 {
		missing, err := h.projectRepo.MissingTasks(r.Context(), plan.ProjectID, req.TaskIDs)
		if HandleEngineError(w, h.logger, err) {
			return
		}
		if len(missing) > 0 {
			BadRequest(w, "some tasks do not belong to project")
			return
		}
		plan.TaskIDs = req.TaskIDs
	}
	if req.Priority != nil {
		if !req.Priority.IsValid() {
			BadRequest(w, "unknown priority")
			return
		}
		plan.Priority = *req.Priority
	}
	if req.EstimatedMinutes != nil {
		plan.EstimatedMinutes = *req.EstimatedMinutes
	}
	if req.CronExpr != nil {
		if *req.CronExpr != "" {
			if err := scheduler.ValidateCronExpr(*req.CronExpr); err != nil {
				BadRequest(w, err.Error())
				return
			}
		}
		plan.CronExpr = *req.CronExpr
	}
	if req.IntervalSec != nil {
		plan.IntervalSec = *req.IntervalSec
	}
	if req.Timezone != nil {
		plan.Timezone = *req.Timezone
	}

	if plan.CronExpr == "" && plan.IntervalSec <= 0 {
		BadRequest(w, "either cron_expr or interval_sec is required")
		return
	}

	// Расписание могло измениться — пересчитываем next_due_at.
	now := time.Now()
	nextDue, err := scheduler.CalculateNextDue(plan, now)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}
	plan.NextDueAt = &nextDue
	plan.UpdatedAt = now

	if err := h.planRepo.Update(r.Context(), plan); HandleEngineError(w, h.logger, err) {
		return
	}

	Success(w, PlanFromDomain(plan))
}

// DeletePlan удаляет work plan.
// DELETE /api/v1/plans/{id}
func (h *Handler) DeletePlan(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid plan id")
		return
	}

	if err := h.planRepo.Delete(r.Context(), id); HandleEngineError(w, h.logger, err) {
		return
	}

	NoContent(w)
}

// SetPlanEnabled включает/выключает work plan.
// PUT /api/v1/plans/{id}/enabled
func (h *Handler) SetPlanEnabled(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid plan id")
		return
	}

	var req SetPlanEnabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if err := h.planRepo.SetEnabled(r.Context(), id, req.Enabled); HandleEngineError(w, h.logger, err) {
		return
	}

	NoContent(w)
}

// queryInt парсит целочисленный query-параметр с дефолтным значением.
func queryInt(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return defaultVal
	}
	return n
}
