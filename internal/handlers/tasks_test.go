package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"task-tracker/internal/apperrors"
	"task-tracker/internal/handlers"
	"task-tracker/internal/middleware"
	"task-tracker/internal/models"
	"task-tracker/internal/repositories"
	"task-tracker/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockTaskService struct {
	err        error
	tasks      []models.Task
	lastActor  models.ActorContext
	lastCreate services.CreateTaskInput
	lastUpdate services.UpdateTaskInput
	lastParams repositories.TaskListParams
	lastID     uuid.UUID
}

func (m *MockTaskService) CreateTask(_ context.Context, actor models.ActorContext, input services.CreateTaskInput) (*models.Task, error) {
	m.lastActor = actor
	m.lastCreate = input
	if m.err != nil {
		return nil, m.err
	}
	task := models.Task{
		ID:        uuid.Must(uuid.NewV4()),
		Title:     input.Title,
		Priority:  models.Priority(input.Priority),
		Status:    models.StatusTodo,
		CreatorID: actor.UserID,
	}
	m.tasks = append(m.tasks, task)
	return &task, nil
}

func (m *MockTaskService) GetTasks(_ context.Context, actor models.ActorContext, params repositories.TaskListParams) ([]models.Task, error) {
	m.lastActor = actor
	m.lastParams = params
	if m.err != nil {
		return nil, m.err
	}
	if m.tasks == nil {
		return []models.Task{}, nil
	}
	return m.tasks, nil
}

func (m *MockTaskService) GetTaskByID(_ context.Context, actor models.ActorContext, id uuid.UUID) (*models.Task, error) {
	m.lastActor = actor
	m.lastID = id
	if m.err != nil {
		return nil, m.err
	}
	return &models.Task{ID: id, Title: "Test Task", Status: models.StatusTodo}, nil
}

func (m *MockTaskService) UpdateTask(_ context.Context, actor models.ActorContext, id uuid.UUID, input services.UpdateTaskInput) (*models.Task, error) {
	m.lastActor = actor
	m.lastID = id
	m.lastUpdate = input
	if m.err != nil {
		return nil, m.err
	}
	task := &models.Task{ID: id, Title: "Test Task", Status: models.StatusTodo}
	if input.Status != nil {
		task.Status = models.Status(*input.Status)
	}
	return task, nil
}

func (m *MockTaskService) DeleteTask(_ context.Context, actor models.ActorContext, id uuid.UUID) error {
	m.lastActor = actor
	m.lastID = id
	return m.err
}

var testActor = models.NewActorContext(uuid.Must(uuid.NewV4()), "alice@example.com")

func withActor(actor models.ActorContext) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.SetActor(c, actor)
		c.Next()
	}
}

func setupTaskHandler() (*MockTaskService, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	mockService := &MockTaskService{}
	handler := handlers.NewTaskHandler(mockService, nil)

	router := gin.New()
	router.Use(withActor(testActor))
	router.POST("/tasks", handler.CreateTask)
	router.GET("/tasks", handler.GetTasks)
	router.GET("/tasks/:id", handler.GetTaskByID)
	router.PUT("/tasks/:id", handler.UpdateTask)
	router.DELETE("/tasks/:id", handler.DeleteTask)

	return mockService, router
}

func performRequest(router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		payload, _ := json.Marshal(b)
		reader = bytes.NewReader(payload)
	}

	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) handlers.APIResponse {
	t.Helper()
	var resp handlers.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestCreateTask_Success(t *testing.T) {
	mockService, router := setupTaskHandler()

	w := performRequest(router, http.MethodPost, "/tasks", map[string]interface{}{
		"title":       "Write report",
		"description": "Quarterly numbers",
		"dueDate":     time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339),
		"priority":    "HIGH",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	resp := decodeEnvelope(t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, "Task created successfully", resp.Message)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Write report", mockService.lastCreate.Title)
	assert.Equal(t, testActor, mockService.lastActor)
}

func TestCreateTask_MalformedJSON(t *testing.T) {
	_, router := setupTaskHandler()

	w := performRequest(router, http.MethodPost, "/tasks", "{not json")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeEnvelope(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, "Invalid request body", resp.Message)
}

func TestCreateTask_ValidationError(t *testing.T) {
	mockService, router := setupTaskHandler()
	verr := apperrors.NewValidationError()
	verr.Add("title", "Title is required")
	verr.Add("priority", "Invalid priority")
	mockService.err = verr

	w := performRequest(router, http.MethodPost, "/tasks", map[string]interface{}{"priority": "NOPE"})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := decodeEnvelope(t, w)
	assert.Equal(t, "Invalid priority, Title is required", resp.Message)
	assert.Equal(t, "Validation failed", resp.Error)
}

func TestCreateTask_InternalError(t *testing.T) {
	mockService, router := setupTaskHandler()
	mockService.err = errors.New("connection reset")

	w := performRequest(router, http.MethodPost, "/tasks", map[string]interface{}{"title": "x"})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeEnvelope(t, w)
	assert.Equal(t, "Failed to create task", resp.Message)
	assert.NotContains(t, w.Body.String(), "connection reset")
}

func TestGetTasks_PassesQueryParameters(t *testing.T) {
	mockService, router := setupTaskHandler()

	w := performRequest(router, http.MethodGet, "/tasks?filter=overdue&status=TODO&priority=HIGH&sortBy=dueDate&sortOrder=desc", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, repositories.TaskListParams{
		Filter:    "overdue",
		Status:    "TODO",
		Priority:  "HIGH",
		SortBy:    "dueDate",
		SortOrder: "desc",
	}, mockService.lastParams)

	resp := decodeEnvelope(t, w)
	assert.Equal(t, "Tasks retrieved successfully", resp.Message)
	assert.Equal(t, []interface{}{}, resp.Data)
}

func TestGetTaskByID(t *testing.T) {
	mockService, router := setupTaskHandler()
	id := uuid.Must(uuid.NewV4())

	w := performRequest(router, http.MethodGet, "/tasks/"+id.String(), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, mockService.lastID)
	assert.Equal(t, "Task retrieved successfully", decodeEnvelope(t, w).Message)
}

func TestGetTaskByID_NotFound(t *testing.T) {
	mockService, router := setupTaskHandler()
	mockService.err = apperrors.NotFound("task")

	w := performRequest(router, http.MethodGet, "/tasks/"+uuid.Must(uuid.NewV4()).String(), nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Task not found", decodeEnvelope(t, w).Message)
}

func TestTaskRoutes_MalformedIDIsNotFound(t *testing.T) {
	mockService, router := setupTaskHandler()

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			w := performRequest(router, method, "/tasks/not-a-uuid", map[string]interface{}{})

			assert.Equal(t, http.StatusNotFound, w.Code)
			assert.Equal(t, "Task not found", decodeEnvelope(t, w).Message)
		})
	}
	assert.Equal(t, uuid.Nil, mockService.lastID)
}

func TestUpdateTask_Success(t *testing.T) {
	mockService, router := setupTaskHandler()
	id := uuid.Must(uuid.NewV4())

	w := performRequest(router, http.MethodPut, "/tasks/"+id.String(), map[string]interface{}{"status": "COMPLETED"})

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mockService.lastUpdate.Status)
	assert.Equal(t, "COMPLETED", *mockService.lastUpdate.Status)
	assert.Nil(t, mockService.lastUpdate.Title)

	resp := decodeEnvelope(t, w)
	assert.Equal(t, "Task updated successfully", resp.Message)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "COMPLETED", data["status"])
}

func TestDeleteTask(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{name: "creator", status: http.StatusOK, message: "Task deleted successfully"},
		{name: "not creator", err: apperrors.Forbidden("only the creator can delete the task"), status: http.StatusForbidden, message: "Only the creator can delete the task"},
		{name: "missing", err: apperrors.NotFound("task"), status: http.StatusNotFound, message: "Task not found"},
		{name: "unauthenticated", err: apperrors.ErrUnauthenticated, status: http.StatusUnauthorized, message: "User not authenticated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService, router := setupTaskHandler()
			mockService.err = tt.err

			w := performRequest(router, http.MethodDelete, "/tasks/"+uuid.Must(uuid.NewV4()).String(), nil)

			assert.Equal(t, tt.status, w.Code)
			resp := decodeEnvelope(t, w)
			assert.Equal(t, tt.message, resp.Message)
			assert.Equal(t, tt.err == nil, resp.Success)
			assert.Nil(t, resp.Data)
		})
	}
}
