package service

import (
	"context"
	"errors"
	"time"

	"github.com/taskdeck/taskdeck-go/internal/model"
	"github.com/taskdeck/taskdeck-go/internal/repository"
)

var (
	ErrTitleRequired       = errors.New("title is required")
	ErrTitleTooLong        = errors.New("title must be at most 100 characters")
	ErrDescriptionRequired = errors.New("description is required")
	ErrDescriptionTooLong  = errors.New("description must be at most 500 characters")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrInvalidPriority     = errors.New("invalid priority")
	ErrTaskNotFound        = errors.New("task not found")
	ErrTaskForbidden       = errors.New("not authorized to access this task")
)

// TaskService scopes every task operation to the authenticated account.
type TaskService struct {
	repo *repository.TaskRepository
}

// NewTaskService creates a new TaskService.
func NewTaskService(repo *repository.TaskRepository) *TaskService {
	return &TaskService{repo: repo}
}

// Create creates a task owned by userID. Ownership is stamped from the
// authenticated identity only; the request payload has no say in it.
func (s *TaskService) Create(ctx context.Context, userID int64, req model.TaskRequest) (model.TaskResponse, error) {
	if err := validateTaskRequest(req); err != nil {
		return model.TaskResponse{}, err
	}

	task := model.Task{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Status:      defaultString(req.Status, model.StatusPending),
		Priority:    defaultString(req.Priority, model.PriorityMedium),
	}

	if err := s.repo.Create(ctx, &task); err != nil {
		return model.TaskResponse{}, err
	}

	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	return task.View(), nil
}

// List returns the user's tasks newest-first, narrowed by the filter.
// Filters from other accounts' tasks can never match: the owner predicate
// is always part of the query.
func (s *TaskService) List(ctx context.Context, userID int64, filter model.TaskFilter) ([]model.TaskResponse, error) {
	tasks, err := s.repo.ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	result := make([]model.TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = t.View()
	}
	return result, nil
}

// Get returns a single task after the ownership check.
func (s *TaskService) Get(ctx context.Context, userID, taskID int64) (model.TaskResponse, error) {
	task, err := s.authorize(ctx, userID, taskID)
	if err != nil {
		return model.TaskResponse{}, err
	}
	return task.View(), nil
}

// Update rewrites a task's fields after the ownership check. The write
// itself is keyed by ID and owner, so a task deleted between the check and
// the write fails with ErrTaskNotFound instead of writing to a phantom row.
func (s *TaskService) Update(ctx context.Context, userID, taskID int64, req model.TaskRequest) (model.TaskResponse, error) {
	if err := validateTaskRequest(req); err != nil {
		return model.TaskResponse{}, err
	}

	task, err := s.authorize(ctx, userID, taskID)
	if err != nil {
		return model.TaskResponse{}, err
	}

	task.Title = req.Title
	task.Description = req.Description
	task.Status = defaultString(req.Status, task.Status)
	task.Priority = defaultString(req.Priority, task.Priority)

	if err := s.repo.Update(ctx, task); err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return model.TaskResponse{}, ErrTaskNotFound
		}
		return model.TaskResponse{}, err
	}
	task.UpdatedAt = time.Now().UTC()

	return task.View(), nil
}

// Delete removes a task after the ownership check.
func (s *TaskService) Delete(ctx context.Context, userID, taskID int64) error {
	if _, err := s.authorize(ctx, userID, taskID); err != nil {
		return err
	}

	err := s.repo.Delete(ctx, userID, taskID)
	if errors.Is(err, repository.ErrTaskNotFound) {
		return ErrTaskNotFound
	}
	return err
}

// authorize fetches the freshest copy of the task and enforces ownership:
// an absent task is ErrTaskNotFound, someone else's is ErrTaskForbidden.
func (s *TaskService) authorize(ctx context.Context, userID, taskID int64) (*model.Task, error) {
	task, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	if task.UserID != userID {
		return nil, ErrTaskForbidden
	}

	return task, nil
}

func validateTaskRequest(req model.TaskRequest) error {
	if req.Title == "" {
		return ErrTitleRequired
	}
	if len(req.Title) > 100 {
		return ErrTitleTooLong
	}
	if req.Description == "" {
		return ErrDescriptionRequired
	}
	if len(req.Description) > 500 {
		return ErrDescriptionTooLong
	}
	if req.Status != "" && !model.ValidStatus(req.Status) {
		return ErrInvalidStatus
	}
	if req.Priority != "" && !model.ValidPriority(req.Priority) {
		return ErrInvalidPriority
	}
	return nil
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
