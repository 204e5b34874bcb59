package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bimcer/task-tracker/internal/models"
	"github.com/bimcer/task-tracker/internal/repository"
	"github.com/bimcer/task-tracker/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrNotTaskOwner = errors.New("task belongs to another user")
	ErrTitleEmpty   = errors.New("title cannot be empty")
)

// TaskService handles task business logic. Every read and write is scoped
// to the owning user.
type TaskService struct {
	taskRepo repository.TaskRepository
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
	}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title       string
	Description string
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	IsCompleted *bool
	Pagination  utils.PaginationParams
}

// UpdateTaskInput represents input for updating a task; nil fields are left
// unchanged
type UpdateTaskInput struct {
	Title       *string
	Description *string
	IsCompleted *bool
}

// CreateTask creates a new task owned by the user
func (s *TaskService) CreateTask(userID string, input CreateTaskInput) (*models.Task, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrTitleEmpty
	}

	task := &models.Task{
		Title:       input.Title,
		Description: input.Description,
		UserID:      userID,
	}

	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return task, nil
}

// ListTasks returns the user's tasks with the given filters
func (s *TaskService) ListTasks(userID string, input ListTasksInput) ([]models.Task, int64, error) {
	filter := repository.TaskFilter{
		IsCompleted: input.IsCompleted,
		Pagination:  input.Pagination,
	}

	tasks, total, err := s.taskRepo.ListByUser(userID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// GetTask returns a task after checking ownership
func (s *TaskService) GetTask(userID string, taskID uint64) (*models.Task, error) {
	return s.findOwned(userID, taskID)
}

// UpdateTask applies a partial update to a task owned by the user
func (s *TaskService) UpdateTask(userID string, taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.findOwned(userID, taskID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, ErrTitleEmpty
		}
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.IsCompleted != nil {
		task.IsCompleted = *input.IsCompleted
	}

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return task, nil
}

// DeleteTask deletes a task owned by the user
func (s *TaskService) DeleteTask(userID string, taskID uint64) error {
	task, err := s.findOwned(userID, taskID)
	if err != nil {
		return err
	}

	if err := s.taskRepo.Delete(task.ID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

func (s *TaskService) findOwned(userID string, taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if task.UserID != userID {
		return nil, ErrNotTaskOwner
	}

	return task, nil
}
