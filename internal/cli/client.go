package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// ProjectResponse — project из API.
type ProjectResponse struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Region    map[string]any `json:"region"`
	IsActive  bool           `json:"is_active"`
	CreatedAt string         `json:"created_at"`
}

// TaskResponse — задача каталога из API.
type TaskResponse struct {
	ID          string `json:"id"`
	ProjectID   string `json:"project_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// AssignmentResponse — assignment из API.
type AssignmentResponse struct {
	ID              string         `json:"id"`
	WorkerID        string         `json:"worker_id"`
	ProjectID       string         `json:"project_id"`
	TaskID          string         `json:"task_id"`
	Date            string         `json:"date"`
	Status          string         `json:"status"`
	Sequence        int            `json:"sequence"`
	Priority        string         `json:"priority"`
	DependsOn       []string       `json:"depends_on,omitempty"`
	Estimate        map[string]any `json:"estimate"`
	ProgressPercent float64        `json:"progress_percent"`
	PhotoCount      int            `json:"photo_count"`
	StartedAt       string         `json:"started_at,omitempty"`
	CompletedAt     string         `json:"completed_at,omitempty"`
	Version         int            `json:"version"`
	CreatedAt       string         `json:"created_at"`
}

// ProgressResultResponse — результат отправки прогресса.
type ProgressResultResponse struct {
	PreviousPercent float64 `json:"previous_percent"`
	NewPercent      float64 `json:"new_percent"`
	Status          string  `json:"status"`
}

// ProgressRecordResponse — запись истории прогресса.
type ProgressRecordResponse struct {
	ID          string  `json:"id"`
	Percent     float64 `json:"percent"`
	Description string  `json:"description"`
	SubmittedAt string  `json:"submitted_at"`
}

// IssueResponse — issue из API.
type IssueResponse struct {
	ID           string `json:"id"`
	AssignmentID string `json:"assignment_id"`
	WorkerID     string `json:"worker_id"`
	Type         string `json:"type"`
	Priority     string `json:"priority"`
	Description  string `json:"description"`
	CreatedAt    string `json:"created_at"`
}

// CheckInResponse — результат отметки присутствия.
type CheckInResponse struct {
	ID             string  `json:"id"`
	WorkerID       string  `json:"worker_id"`
	ProjectID      string  `json:"project_id"`
	Date           string  `json:"date"`
	InsideGeofence bool    `json:"inside_geofence"`
	DistanceMeters float64 `json:"distance_meters"`
	CheckedInAt    string  `json:"checked_in_at"`
}

// PlanResponse — work plan из API.
type PlanResponse struct {
	ID               string   `json:"id"`
	ProjectID        string   `json:"project_id"`
	WorkerID         string   `json:"worker_id"`
	Name             string   `json:"name,omitempty"`
	TaskIDs          []string `json:"task_ids"`
	Priority         string   `json:"priority"`
	EstimatedMinutes int      `json:"estimated_minutes,omitempty"`
	CronExpr         string   `json:"cron_expr,omitempty"`
	IntervalSec      int      `json:"interval_sec,omitempty"`
	Timezone         string   `json:"timezone"`
	Enabled          bool     `json:"enabled"`
	NextDueAt        string   `json:"next_due_at,omitempty"`
	LastRunAt        string   `json:"last_run_at,omitempty"`
	CreatedAt        string   `json:"created_at"`
}

// --- Request types ---

// CreateProjectRequest — создание project.
type CreateProjectRequest struct {
	Name                  string  `json:"name"`
	CenterLatitude        float64 `json:"center_latitude"`
	CenterLongitude       float64 `json:"center_longitude"`
	RadiusMeters          float64 `json:"radius_meters"`
	StrictMode            bool    `json:"strict_mode"`
	AllowedVarianceMeters float64 `json:"allowed_variance_meters,omitempty"`
}

// CreateTaskRequest — добавление задачи в каталог.
type CreateTaskRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// TaskSpecRequest — одна задача в запросе назначения.
type TaskSpecRequest struct {
	TaskID           string   `json:"task_id"`
	DependsOn        []string `json:"depends_on,omitempty"`
	EstimatedMinutes int      `json:"estimated_minutes,omitempty"`
}

// AssignTasksRequest — bulk-назначение задач.
type AssignTasksRequest struct {
	WorkerID         string            `json:"worker_id"`
	ProjectID        string            `json:"project_id"`
	Date             string            `json:"date,omitempty"`
	Priority         string            `json:"priority,omitempty"`
	EstimatedMinutes int               `json:"estimated_minutes,omitempty"`
	Tasks            []TaskSpecRequest `json:"tasks"`
}

// AssignTasksResponse — результат назначения.
type AssignTasksResponse struct {
	Created int `json:"created"`
}

// StartRequest — старт assignment с геолокацией.
type StartRequest struct {
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	AccuracyMeters float64 `json:"accuracy_meters,omitempty"`
}

// ProgressRequest — отправка прогресса.
type ProgressRequest struct {
	Percent     float64 `json:"percent"`
	Description string  `json:"description"`
}

// ReportIssueRequest — создание issue.
type ReportIssueRequest struct {
	Type        string `json:"type"`
	Priority    string `json:"priority,omitempty"`
	Description string `json:"description"`
}

// CheckInRequest — отметка присутствия.
type CheckInRequest struct {
	WorkerID       string  `json:"worker_id"`
	ProjectID      string  `json:"project_id"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	AccuracyMeters float64 `json:"accuracy_meters,omitempty"`
}

// CreatePlanRequest — создание work plan.
type CreatePlanRequest struct {
	ProjectID        string   `json:"project_id"`
	WorkerID         string   `json:"worker_id"`
	Name             string   `json:"name,omitempty"`
	TaskIDs          []string `json:"task_ids"`
	Priority         string   `json:"priority,omitempty"`
	EstimatedMinutes int      `json:"estimated_minutes,omitempty"`
	CronExpr         string   `json:"cron_expr,omitempty"`
	IntervalSec      int      `json:"interval_sec,omitempty"`
	Timezone         string   `json:"timezone,omitempty"`
	Enabled          bool     `json:"enabled"`
}

// ListPlansOpts — фильтрация планов.
type ListPlansOpts struct {
	ProjectID string
	WorkerID  string
	Limit     int
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для Foreman API.
type Client struct {
	baseURL    string
	workerID   string
	role       string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
// workerID и role передаются в заголовках X-Worker-ID / X-Role.
func NewClient(baseURL, workerID, role string) *Client {
	return &Client{
		baseURL:  baseURL,
		workerID: workerID,
		role:     role,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Projects ---

// ListProjects возвращает активные projects.
func (c *Client) ListProjects() ([]ProjectResponse, error) {
	var projects []ProjectResponse
	err := c.list("/api/v1/projects", nil, &projects)
	return projects, err
}

// CreateProject создаёт project с геозоной.
func (c *Client) CreateProject(req CreateProjectRequest) (*ProjectResponse, error) {
	var project ProjectResponse
	err := c.post("/api/v1/projects", req, &project)
	return &project, err
}

// GetProject возвращает project по ID.
func (c *Client) GetProject(id string) (*ProjectResponse, error) {
	var project ProjectResponse
	err := c.get("/api/v1/projects/"+id, &project)
	return &project, err
}

// ListProjectTasks возвращает каталог задач проекта.
func (c *Client) ListProjectTasks(projectID string) ([]TaskResponse, error) {
	var tasks []TaskResponse
	err := c.list("/api/v1/projects/"+projectID+"/tasks", nil, &tasks)
	return tasks, err
}

// CreateProjectTask добавляет задачу в каталог проекта.
func (c *Client) CreateProjectTask(projectID string, req CreateTaskRequest) (*TaskResponse, error) {
	var task TaskResponse
	err := c.post("/api/v1/projects/"+projectID+"/tasks", req, &task)
	return &task, err
}

// CheckIn отмечает присутствие на площадке.
func (c *Client) CheckIn(req CheckInRequest) (*CheckInResponse, error) {
	var checkin CheckInResponse
	err := c.post("/api/v1/checkins", req, &checkin)
	return &checkin, err
}

// --- Assignments ---

// AssignTasks назначает задачи работнику на день.
func (c *Client) AssignTasks(req AssignTasksRequest) (*AssignTasksResponse, error) {
	var result AssignTasksResponse
	err := c.post("/api/v1/assignments", req, &result)
	return &result, err
}

// GetAssignment возвращает assignment по ID.
func (c *Client) GetAssignment(id string) (*AssignmentResponse, error) {
	var a AssignmentResponse
	err := c.get("/api/v1/assignments/"+id, &a)
	return &a, err
}

// ListWorkerAssignments возвращает assignments работника на день.
func (c *Client) ListWorkerAssignments(workerID, date string) ([]AssignmentResponse, error) {
	params := url.Values{}
	if date != "" {
		params.Set("date", date)
	}

	var assignments []AssignmentResponse
	err := c.list("/api/v1/workers/"+workerID+"/assignments", params, &assignments)
	return assignments, err
}

// RemoveAssignment удаляет queued assignment.
func (c *Client) RemoveAssignment(id string) error {
	return c.delete("/api/v1/assignments/" + id)
}

// StartAssignment стартует assignment с геолокацией.
func (c *Client) StartAssignment(id string, req StartRequest) (*AssignmentResponse, error) {
	var a AssignmentResponse
	err := c.post("/api/v1/assignments/"+id+"/start", req, &a)
	return &a, err
}

// SubmitProgress отправляет прогресс по assignment.
func (c *Client) SubmitProgress(id string, req ProgressRequest) (*ProgressResultResponse, error) {
	var result ProgressResultResponse
	err := c.post("/api/v1/assignments/"+id+"/progress", req, &result)
	return &result, err
}

// ListProgress возвращает историю прогресса.
func (c *Client) ListProgress(id string) ([]ProgressRecordResponse, error) {
	var records []ProgressRecordResponse
	err := c.list("/api/v1/assignments/"+id+"/progress", nil, &records)
	return records, err
}

// CompleteAssignment завершает assignment.
func (c *Client) CompleteAssignment(id string) (*AssignmentResponse, error) {
	var a AssignmentResponse
	err := c.post("/api/v1/assignments/"+id+"/complete", nil, &a)
	return &a, err
}

// ReportIssue создаёт issue по assignment.
func (c *Client) ReportIssue(id string, req ReportIssueRequest) (*IssueResponse, error) {
	var issue IssueResponse
	err := c.post("/api/v1/assignments/"+id+"/issues", req, &issue)
	return &issue, err
}

// ListIssues возвращает issues по assignment.
func (c *Client) ListIssues(id string) ([]IssueResponse, error) {
	var issues []IssueResponse
	err := c.list("/api/v1/assignments/"+id+"/issues", nil, &issues)
	return issues, err
}

// AttachPhoto регистрирует фото по assignment.
func (c *Client) AttachPhoto(id string) (*AssignmentResponse, error) {
	var a AssignmentResponse
	err := c.post("/api/v1/assignments/"+id+"/photos", nil, &a)
	return &a, err
}

// --- Work plans ---

// ListPlans возвращает work plans с фильтрацией.
func (c *Client) ListPlans(opts ListPlansOpts) ([]PlanResponse, error) {
	params := url.Values{}
	if opts.ProjectID != "" {
		params.Set("project_id", opts.ProjectID)
	}
	if opts.WorkerID != "" {
		params.Set("worker_id", opts.WorkerID)
	}
	if opts.Limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", opts.Limit))
	}

	var plans []PlanResponse
	err := c.list("/api/v1/plans", params, &plans)
	return plans, err
}

// CreatePlan создаёт work plan.
func (c *Client) CreatePlan(req CreatePlanRequest) (*PlanResponse, error) {
	var plan PlanResponse
	err := c.post("/api/v1/plans", req, &plan)
	return &plan, err
}

// GetPlan возвращает work plan по ID.
func (c *Client) GetPlan(id string) (*PlanResponse, error) {
	var plan PlanResponse
	err := c.get("/api/v1/plans/"+id, &plan)
	return &plan, err
}

// DeletePlan удаляет work plan.
func (c *Client) DeletePlan(id string) error {
	return c.delete("/api/v1/plans/" + id)
}

// SetPlanEnabled включает или выключает work plan.
func (c *Client) SetPlanEnabled(id string, enabled bool) error {
	body := map[string]bool{"enabled": enabled}
	return c.put("/api/v1/plans/"+id+"/enabled", body, nil)
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) put(path string, body any, result any) error {
	return c.doData(http.MethodPut, path, body, result)
}

func (c *Client) delete(path string) error {
	resp, err := c.do(http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.checkError(resp)
}

func (c *Client) list(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	// 204 No Content
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.workerID != "" {
		req.Header.Set("X-Worker-ID", c.workerID)
	}
	if c.role != "" {
		req.Header.Set("X-Role", c.role)
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}
