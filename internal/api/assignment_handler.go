package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/shaiso/Foreman/internal/domain"
	"github.com/shaiso/Foreman/internal/engine"
)

// AssignTasks назначает задачи работнику на день (bulk).
// POST /api/v1/assignments
func (h *Handler) AssignTasks(w http.ResponseWriter, r *http.Request) {
	var req AssignTasksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		BadRequest(w, "invalid date, expected YYYY-MM-DD")
		return
	}

	cmd := engine.AssignTasksCommand{
		Auth:             authFromRequest(r),
		WorkerID:         req.WorkerID,
		ProjectID:        req.ProjectID,
		Date:             date,
		Priority:         req.Priority,
		EstimatedMinutes: req.EstimatedMinutes,
		Tasks:            make([]engine.TaskSpec, len(req.Tasks)),
	}
	for i, t := range req.Tasks {
		cmd.Tasks[i] = engine.TaskSpec{
			TaskID:           t.TaskID,
			DependsOn:        t.DependsOn,
			EstimatedMinutes: t.EstimatedMinutes,
			Target:           t.Target,
		}
	}

	created, err := h.controller.AssignTasks(r.Context(), cmd)
	if HandleEngineError(w, h.logger, err) {
		return
	}

	Created(w, AssignTasksResponse{Created: created})
}

// GetAssignment возвращает assignment по ID.
// GET /api/v1/assignments/{id}
func (h *Handler) GetAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid assignment id")
		return
	}

	a, err := h.assignmentRepo.FindByID(r.Context(), id)
	if HandleEngineError(w, h.logger, err) {
		return
	}

	Success(w, AssignmentFromDomain(a))
}

// ListWorkerAssignments возвращает assignments работника на день.
// GET /api/v1/workers/{id}/assignments?date=YYYY-MM-DD
func (h *Handler) ListWorkerAssignments(w http.ResponseWriter, r *http.Request) {
	workerID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid worker id")
		return
	}

	date, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		BadRequest(w, "invalid date, expected YYYY-MM-DD")
		return
	}

	assignments, err := h.assignmentRepo.FindByWorkerAndDate(r.Context(), workerID, date)
	if HandleEngineError(w, h.logger, err) {
		return
	}

	result := make([]AssignmentResponse, len(assignments))
	for i := range assignments {
		result[i] = AssignmentFromDomain(&assignments[i])
	}

	List(w, result, len(result))
}

// RemoveAssignment удаляет queued assignment с перенумерацией очереди.
// DELETE /api/v1/assignments/{id}
func (h *Handler) RemoveAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid assignment id")
		return
	}

	err = h.controller.RemoveQueuedAssignment(r.Context(), authFromRequest(r), id)
	if HandleEngineError(w, h.logger, err) {
		return
	}

	NoContent(w)
}

// StartAssignment переводит assignment в in_progress.
// POST /api/v1/assignments/{id}/start
//
// Перед гейтами движка применяется attendance-гейт: работник должен
// быть отмечен внутри геозоны проекта в текущий день.
func (h *Handler) StartAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid assignment id")
		return
	}

	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	a, err := h.assignmentRepo.FindByID(r.Context(), id)
	if HandleEngineError(w, h.logger, err) {
		return
	}

	checkedIn, err := h.attendance.IsCheckedInInsideGeofence(r.Context(), a.WorkerID, a.ProjectID, a.Date)
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}
	if !checkedIn {
		Error(w, http.StatusConflict, ErrCodeNotCheckedIn, "worker is not checked in on site for this date")
		return
	}

	started, err := h.controller.StartAssignment(r.Context(), engine.StartCommand{
		Auth:         authFromRequest(r),
		AssignmentID: id,
		Location: domain.Location{
			Latitude:       req.Latitude,
			Longitude:      req.Longitude,
			AccuracyMeters: req.AccuracyMeters,
		},
	})
	if HandleEngineError(w, h.logger, err) {
		return
	}

	Success(w, AssignmentFromDomain(started))
}

// SubmitProgress записывает прогресс по assignment.
// POST /api/v1/assignments/{id}/progress
func (h *Handler) SubmitProgress(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid assignment id")
		return
	}

	var req ProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	cmd := engine.ProgressCommand{
		Auth:         authFromRequest(r),
		AssignmentID: id,
		Percent:      req.Percent,
		Description:  req.Description,
	}
	if req.Latitude != nil && req.Longitude != nil {
		cmd.Location = &domain.Location{
			Latitude:  *req.Latitude,
			Longitude: *req.Longitude,
		}
	}

	result, err := h.controller.SubmitProgress(r.Context(), cmd)
	if HandleEngineError(w, h.logger, err) {
		return
	}

	Success(w, result)
}

// ListProgress возвращает историю прогресса assignment.
// GET /api/v1/assignments/{id}/progress
func (h *Handler) ListProgress(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid assignment id")
		return
	}

	if _, err := h.assignmentRepo.FindByID(r.Context(), id); HandleEngineError(w, h.logger, err) {
		return
	}

	records, err := h.assignmentRepo.ListProgress(r.Context(), id)
	if HandleEngineError(w, h.logger, err) {
		return
	}

	result := make([]ProgressRecordResponse, len(records))
	for i, rec := range records {
		result[i] = ProgressRecordFromDomain(rec)
	}

	List(w, result, len(result))
}

// CompleteAssignment явно завершает assignment.
// POST /api/v1/assignments/{id}/complete
func (h *Handler) CompleteAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid assignment id")
		return
	}

	a, err := h.controller.CompleteAssignment(r.Context(), authFromRequest(r), id)
	if HandleEngineError(w, h.logger, err) {
		return
	}

	Success(w, AssignmentFromDomain(a))
}

// ReportIssue создаёт issue по assignment.
// POST /api/v1/assignments/{id}/issues
func (h *Handler) ReportIssue(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid assignment id")
		return
	}

	var req ReportIssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	issue, err := h.controller.ReportIssue(r.Context(), engine.IssueCommand{
		Auth:         authFromRequest(r),
		AssignmentID: id,
		Type:         req.Type,
		Priority:     req.Priority,
		Description:  req.Description,
	})
	if HandleEngineError(w, h.logger, err) {
		return
	}

	Created(w, IssueFromDomain(*issue))
}

// ListIssues возвращает issues по assignment.
// GET /api/v1/assignments/{id}/issues
func (h *Handler) ListIssues(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid assignment id")
		return
	}

	issues, err := h.issueRepo.ListByAssignment(r.Context(), id)
	if HandleEngineError(w, h.logger, err) {
		return
	}

	result := make([]IssueResponse, len(issues))
	for i, issue := range issues {
		result[i] = IssueFromDomain(issue)
	}

	List(w, result, len(result))
}

// AttachPhoto регистрирует фото по assignment.
// POST /api/v1/assignments/{id}/photos
func (h *Handler) AttachPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid assignment id")
		return
	}

	a, err := h.controller.AttachPhoto(r.Context(), authFromRequest(r), id)
	if HandleEngineError(w, h.logger, err) {
		return
	}

	Success(w, AssignmentFromDomain(a))
}
