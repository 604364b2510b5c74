package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
	)

	// Projects
	mux.Handle("GET /api/v1/projects", chain(http.HandlerFunc(h.ListProjects)))
	mux.Handle("POST /api/v1/projects", chain(http.HandlerFunc(h.CreateProject)))
	mux.Handle("GET /api/v1/projects/{id}", chain(http.HandlerFunc(h.GetProject)))
	mux.Handle("GET /api/v1/projects/{id}/tasks", chain(http.HandlerFunc(h.ListProjectTasks)))
	mux.Handle("POST /api/v1/projects/{id}/tasks", chain(http.HandlerFunc(h.CreateProjectTask)))

	// Assignments
	mux.Handle("POST /api/v1/assignments", chain(http.HandlerFunc(h.AssignTasks)))
	mux.Handle("GET /api/v1/assignments/{id}", chain(http.HandlerFunc(h.GetAssignment)))
	mux.Handle("DELETE /api/v1/assignments/{id}", chain(http.HandlerFunc(h.RemoveAssignment)))
	mux.Handle("GET /api/v1/workers/{id}/assignments", chain(http.HandlerFunc(h.ListWorkerAssignments)))

	// Lifecycle
	mux.Handle("POST /api/v1/assignments/{id}/start", chain(http.HandlerFunc(h.StartAssignment)))
	mux.Handle("POST /api/v1/assignments/{id}/progress", chain(http.HandlerFunc(h.SubmitProgress)))
	mux.Handle("GET /api/v1/assignments/{id}/progress", chain(http.HandlerFunc(h.ListProgress)))
	mux.Handle("POST /api/v1/assignments/{id}/complete", chain(http.HandlerFunc(h.CompleteAssignment)))
	mux.Handle("POST /api/v1/assignments/{id}/issues", chain(http.HandlerFunc(h.ReportIssue)))
	mux.Handle("GET /api/v1/assignments/{id}/issues", chain(http.HandlerFunc(h.ListIssues)))
	mux.Handle("POST /api/v1/assignments/{id}/photos", chain(http.HandlerFunc(h.AttachPhoto)))

	// Check-ins
	mux.Handle("POST /api/v1/checkins", chain(http.HandlerFunc(h.CheckIn)))

	// Work plans
	mux.Handle("GET /api/v1/plans", chain(http.HandlerFunc(h.ListPlans)))
	mux.Handle("POST /api/v1/plans", chain(http.HandlerFunc(h.CreatePlan)))
	mux.Handle("GET /api/v1/plans/{id}", chain(http.HandlerFunc(h.GetPlan)))
	mux.Handle("PUT /api/v1/plans/{id}", chain(http.HandlerFunc(h.UpdatePlan)))
	mux.Handle("DELETE /api/v1/plans/{id}", chain(http.HandlerFunc(h.DeletePlan)))
	mux.Handle("PUT /api/v1/plans/{id}/enabled", chain(http.HandlerFunc(h.SetPlanEnabled)))
}
