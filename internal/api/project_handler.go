package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Foreman/internal/domain"
	"github.com/shaiso/Foreman/internal/engine"
)

// ListProjects возвращает активные projects.
// GET /api/v1/projects
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projectRepo.List(r.Context())
	if HandleEngineError(w, h.logger, err) {
		return
	}

	result := make([]ProjectResponse, len(projects))
	for i, p := range projects {
		result[i] = ProjectFromDomain(p)
	}

	List(w, result, len(result))
}

// CreateProject создаёт project с геозоной.
// POST /api/v1/projects
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if req.Name == "" {
		BadRequest(w, "name is required")
		return
	}
	if req.RadiusMeters <= 0 {
		BadRequest(w, "radius_meters must be positive")
		return
	}
	if req.CenterLatitude < -90 || req.CenterLatitude > 90 {
		BadRequest(w, "center_latitude out of range")
		return
	}
	if req.CenterLongitude < -180 || req.CenterLongitude > 180 {
		BadRequest(w, "center_longitude out of range")
		return
	}

	project := &domain.Project{
		ID:   uuid.New(),
		Name: req.Name,
		Region: domain.GeofenceRegion{
			CenterLatitude:        req.CenterLatitude,
			CenterLongitude:       req.CenterLongitude,
			RadiusMeters:          req.RadiusMeters,
			StrictMode:            req.StrictMode,
			AllowedVarianceMeters: req.AllowedVarianceMeters,
		},
		IsActive:  true,
		CreatedAt: time.Now(),
	}

	if err := h.projectRepo.Create(r.Context(), project); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	Created(w, ProjectFromDomain(*project))
}

// GetProject возвращает project по ID.
// GET /api/v1/projects/{id}
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid project id")
		return
	}

	project, err := h.projectRepo.GetByID(r.Context(), id)
	if HandleEngineError(w, h.logger, err) {
		return
	}

	Success(w, ProjectFromDomain(*project))
}

// ListProjectTasks возвращает каталог задач проекта.
// GET /api/v1/projects/{id}/tasks
func (h *Handler) ListProjectTasks(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid project id")
		return
	}

	if _, err := h.projectRepo.GetByID(r.Context(), id); HandleEngineError(w, h.logger, err) {
		return
	}

	tasks, err := h.projectRepo.ListTasks(r.Context(), id)
	if HandleEngineError(w, h.logger, err) {
		return
	}

	result := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = TaskFromDomain(t)
	}

	List(w, result, len(result))
}

// CreateProjectTask добавляет задачу в каталог проекта.
// POST /api/v1/projects/{id}/tasks
func (h *Handler) CreateProjectTask(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid project id")
		return
	}

	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if req.Name == "" {
		BadRequest(w, "name is required")
		return
	}

	if _, err := h.projectRepo.GetByID(r.Context(), id); HandleEngineError(w, h.logger, err) {
		return
	}

	task := &domain.Task{
		ID:          uuid.New(),
		ProjectID:   id,
		Name:        req.Name,
		Description: req.Description,
		CreatedAt:   time.Now(),
	}

	if err := h.projectRepo.CreateTask(r.Context(), task); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	Created(w, TaskFromDomain(*task))
}

// CheckIn отмечает присутствие работника на площадке.
// POST /api/v1/checkins
//
// Результат геопроверки фиксируется в отметке: старт assignment
// возможен только после отметки внутри геозоны.
func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req CheckInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if req.WorkerID == uuid.Nil || req.ProjectID == uuid.Nil {
		BadRequest(w, "worker_id and project_id are required")
		return
	}

	region, err := h.projectRepo.Region(r.Context(), req.ProjectID)
	if HandleEngineError(w, h.logger, err) {
		return
	}

	result := engine.ValidateLocation(domain.Location{
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		AccuracyMeters: req.AccuracyMeters,
	}, region)

	now := time.Now()
	checkin := &domain.CheckIn{
		ID:             uuid.New(),
		WorkerID:       req.WorkerID,
		ProjectID:      req.ProjectID,
		Date:           domain.DateOnly(now),
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		InsideGeofence: result.IsValid,
		CheckedInAt:    now,
	}

	if err := h.checkinRepo.Create(r.Context(), checkin); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	Created(w, CheckInResponse{
		ID:             checkin.ID,
		WorkerID:       checkin.WorkerID,
		ProjectID:      checkin.ProjectID,
		Date:           checkin.Date.Format("2006-01-02"),
		InsideGeofence: checkin.InsideGeofence,
		DistanceMeters: result.DistanceMeters,
		CheckedInAt:    checkin.CheckedInAt,
	})
}
