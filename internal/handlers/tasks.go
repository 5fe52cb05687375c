package handlers

import (
	"net/http"

	"task-tracker/internal/logging"
	"task-tracker/internal/middleware"
	"task-tracker/internal/repositories"
	"task-tracker/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type TaskHandler struct {
	taskService services.TaskService
	logger      logrus.FieldLogger
}

func NewTaskHandler(taskService services.TaskService, logger logrus.FieldLogger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		logger:      logging.OrDiscard(logger).WithField("handler", "tasks"),
	}
}

func taskFailures(internal string) failureMessages {
	return failureMessages{
		notFound:  "Task not found",
		forbidden: "Only the creator can delete the task",
		internal:  internal,
	}
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	var input services.CreateTaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadBody(c, err)
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), middleware.ActorFromContext(c), input)
	if err != nil {
		respondError(c, h.logger, err, taskFailures("Failed to create task"))
		return
	}
	respond(c, http.StatusCreated, "Task created successfully", task)
}

func (h *TaskHandler) GetTasks(c *gin.Context) {
	var params repositories.TaskListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondFailure(c, http.StatusBadRequest, "Invalid query parameters", err.Error())
		return
	}

	tasks, err := h.taskService.GetTasks(c.Request.Context(), middleware.ActorFromContext(c), params)
	if err != nil {
		respondError(c, h.logger, err, taskFailures("Failed to retrieve tasks"))
		return
	}
	respond(c, http.StatusOK, "Tasks retrieved successfully", tasks)
}

func (h *TaskHandler) GetTaskByID(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		respondFailure(c, http.StatusNotFound, "Task not found", "")
		return
	}

	task, err := h.taskService.GetTaskByID(c.Request.Context(), middleware.ActorFromContext(c), id)
	if err != nil {
		respondError(c, h.logger, err, taskFailures("Failed to retrieve task"))
		return
	}
	respond(c, http.StatusOK, "Task retrieved successfully", task)
}

func (h *TaskHandler) UpdateTask(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		respondFailure(c, http.StatusNotFound, "Task not found", "")
		return
	}

	var input services.UpdateTaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadBody(c, err)
		return
	}

	task, err := h.taskService.UpdateTask(c.Request.Context(), middleware.ActorFromContext(c), id, input)
	if err != nil {
		respondError(c, h.logger, err, taskFailures("Failed to update task"))
		return
	}
	respond(c, http.StatusOK, "Task updated successfully", task)
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		respondFailure(c, http.StatusNotFound, "Task not found", "")
		return
	}

	if err := h.taskService.DeleteTask(c.Request.Context(), middleware.ActorFromContext(c), id); err != nil {
		respondError(c, h.logger, err, taskFailures("Failed to delete task"))
		return
	}
	respond(c, http.StatusOK, "Task deleted successfully", nil)
}
