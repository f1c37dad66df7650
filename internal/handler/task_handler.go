package handler

import (
	"context"
	"net/http"
	"time"

	"taskmaster/internal/model"
	"taskmaster/internal/policy"
	"taskmaster/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TaskService interface {
	Create(ctx context.Context, actor policy.Actor, draft service.TaskDraft) (*model.Task, error)
	Get(ctx context.Context, actor policy.Actor, id uuid.UUID) (*model.Task, error)
	List(ctx context.Context, actor policy.Actor) ([]model.Task, error)
	Update(ctx context.Context, actor policy.Actor, id uuid.UUID, draft service.TaskDraft) (*model.Task, error)
	Delete(ctx context.Context, actor policy.Actor, id uuid.UUID) error
	Assign(ctx context.Context, actor policy.Actor, id, newOwnerID uuid.UUID) (*model.Task, error)
}

var _ TaskService = (*service.TaskService)(nil)

type TaskHandler struct {
	tasks TaskService
}

func NewTaskHandler(tasks TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// TaskRequest представляет запрос на создание или обновление задачи
type TaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// TaskAssignRequest представляет запрос на назначение пользователя на задачу
type TaskAssignRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
}

// TaskResponse представляет ответ с данными задачи
type TaskResponse struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Status         string    `json:"status"`
	AssignedUserID string    `json:"assigned_user_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toTaskResponse(t *model.Task) TaskResponse {
	return TaskResponse{
		ID:             t.ID.String(),
		Title:          t.Title,
		Description:    t.Description,
		Status:         string(t.Status),
		AssignedUserID: t.AssignedUserID.String(),
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

func (r TaskRequest) draft() service.TaskDraft {
	return service.TaskDraft{
		Title:       r.Title,
		Description: r.Description,
		Status:      model.TaskStatus(r.Status),
	}
}

// Create godoc
// @Summary      Create a task owned by the caller
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body TaskRequest true "Task"
// @Success      201 {object} TaskResponse
// @Failure      400 {object} ErrorResponse
// @Router       /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	task, err := h.tasks.Create(c.Request.Context(), actor, req.draft())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, toTaskResponse(task))
}

// GetAll godoc
// @Summary      List tasks visible to the caller
// @Tags         Tasks
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} TaskResponse
// @Router       /tasks [get]
func (h *TaskHandler) GetAll(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	tasks, err := h.tasks.List(c.Request.Context(), actor)
	if err != nil {
		_ = c.Error(err)
		return
	}

	response := make([]TaskResponse, 0, len(tasks))
	for i := range tasks {
		response = append(response, toTaskResponse(&tasks[i]))
	}
	c.JSON(http.StatusOK, response)
}

// GetByID godoc
// @Summary      Get a task
// @Tags         Tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Task ID"
// @Success      200 {object} TaskResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /tasks/{id} [get]
func (h *TaskHandler) GetByID(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "task")
	if !ok {
		return
	}

	task, err := h.tasks.Get(c.Request.Context(), actor, id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, toTaskResponse(task))
}

// Update godoc
// @Summary      Overwrite a task's title, description and status
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Task ID"
// @Param        request body TaskRequest true "Task"
// @Success      200 {object} TaskResponse
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /tasks/{id} [put]
func (h *TaskHandler) Update(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "task")
	if !ok {
		return
	}

	var req TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	task, err := h.tasks.Update(c.Request.Context(), actor, id, req.draft())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, toTaskResponse(task))
}

// Delete godoc
// @Summary      Delete a task and its issue link
// @Tags         Tasks
// @Security     BearerAuth
// @Param        id path string true "Task ID"
// @Success      204
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "task")
	if !ok {
		return
	}

	if err := h.tasks.Delete(c.Request.Context(), actor, id); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AssignUser godoc
// @Summary      Hand a task over to another user
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Task ID"
// @Param        request body TaskAssignRequest true "New owner"
// @Success      200 {object} TaskResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /tasks/{id}/assign [post]
func (h *TaskHandler) AssignUser(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "task")
	if !ok {
		return
	}

	var req TaskAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format"})
		return
	}

	task, err := h.tasks.Assign(c.Request.Context(), actor, id, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, toTaskResponse(task))
}
