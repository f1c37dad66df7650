package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"taskmaster/internal/apperr"
	"taskmaster/internal/model"
	"taskmaster/internal/policy"
	"taskmaster/internal/repository"
)

// TaskDraft holds the caller-supplied fields of a task. Status defaults to
// Pending when empty.
type TaskDraft struct {
	Title       string           `json:"title" validate:"required,min=3,max=100"`
	Description string           `json:"description" validate:"required,max=500"`
	Status      model.TaskStatus `json:"status" validate:"omitempty,oneof=Pending Completed"`
}

type TaskService struct {
	tasks  repository.TaskRepositoryInterface
	users  repository.UserRepositoryInterface
	logger *slog.Logger
}

func NewTaskService(tasks repository.TaskRepositoryInterface, users repository.UserRepositoryInterface, logger *slog.Logger) *TaskService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskService{tasks: tasks, users: users, logger: logger}
}

// Create stores a new task owned by the actor.
func (s *TaskService) Create(ctx context.Context, actor policy.Actor, draft TaskDraft) (*model.Task, error) {
	if draft.Status == "" {
		draft.Status = model.TaskStatusPending
	}
	if err := validateStruct(draft); err != nil {
		return nil, err
	}

	task := &model.Task{
		ID:             uuid.New(),
		Title:          draft.Title,
		Description:    draft.Description,
		Status:         draft.Status,
		AssignedUserID: actor.ID,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	s.logger.InfoContext(ctx, "task created", "task_id", task.ID, "owner_id", actor.ID)
	return task, nil
}

func (s *TaskService) Get(ctx context.Context, actor policy.Actor, id uuid.UUID) (*model.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanReadTask(actor, task.AssignedUserID) {
		return nil, s.deny(ctx, actor, "read", task)
	}
	return task, nil
}

// List returns every task for an admin and the actor's own tasks otherwise.
func (s *TaskService) List(ctx context.Context, actor policy.Actor) ([]model.Task, error) {
	tasks, err := s.tasks.List(ctx, policy.ListScope(actor))
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// Update overwrites title, description and status. Status is kept when the
// draft leaves it empty.
func (s *TaskService) Update(ctx context.Context, actor policy.Actor, id uuid.UUID, draft TaskDraft) (*model.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanUpdateTask(actor, task.AssignedUserID) {
		return nil, s.deny(ctx, actor, "update", task)
	}

	if draft.Status == "" {
		draft.Status = task.Status
	}
	if err := validateStruct(draft); err != nil {
		return nil, err
	}

	task.Title = draft.Title
	task.Description = draft.Description
	task.Status = draft.Status
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return task, nil
}

// Delete removes the task together with its issue link.
func (s *TaskService) Delete(ctx context.Context, actor policy.Actor, id uuid.UUID) error {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !policy.CanDeleteTask(actor, task.AssignedUserID) {
		return s.deny(ctx, actor, "delete", task)
	}
	if err := s.tasks.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	s.logger.InfoContext(ctx, "task deleted", "task_id", id, "actor_id", actor.ID)
	return nil
}

// Assign hands the task over to newOwnerID, who must be an existing user.
func (s *TaskService) Assign(ctx context.Context, actor policy.Actor, id, newOwnerID uuid.UUID) (*model.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanAssignTask(actor, task.AssignedUserID) {
		return nil, s.deny(ctx, actor, "assign", task)
	}
	if _, err := s.users.GetByID(ctx, newOwnerID); err != nil {
		return nil, err
	}

	if err := s.tasks.AssignUser(ctx, id, newOwnerID); err != nil {
		return nil, fmt.Errorf("assign task: %w", err)
	}
	s.logger.InfoContext(ctx, "task assigned",
		"task_id", id, "from", task.AssignedUserID, "to", newOwnerID, "actor_id", actor.ID)
	task.AssignedUserID = newOwnerID
	return task, nil
}

func (s *TaskService) deny(ctx context.Context, actor policy.Actor, action string, task *model.Task) error {
	s.logger.WarnContext(ctx, "task access denied",
		"action", action, "task_id", task.ID, "actor_id", actor.ID, "role", actor.Role)
	return fmt.Errorf("%s task %s: %w", action, task.ID, apperr.ErrUnauthorized)
}
