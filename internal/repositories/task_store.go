package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"task-tracker/internal/apperrors"
	"task-tracker/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// TaskChanges is a partial update; nil fields are left unchanged. The
// creator is deliberately absent.
type TaskChanges struct {
	Title        *string
	Description  *string
	DueDate      *time.Time
	Priority     *models.Priority
	Status       *models.Status
	AssignedToID *uuid.UUID
}

func (c TaskChanges) columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if c.Title != nil {
		cols["title"] = *c.Title
	}
	if c.Description != nil {
		cols["description"] = *c.Description
	}
	if c.DueDate != nil {
		cols["due_date"] = c.DueDate.UTC()
	}
	if c.Priority != nil {
		cols["priority"] = *c.Priority
	}
	if c.Status != nil {
		cols["status"] = *c.Status
	}
	if c.AssignedToID != nil {
		cols["assigned_to_id"] = *c.AssignedToID
	}
	return cols
}

type TaskStore struct {
	db *gorm.DB
}

func NewTaskStore(db *gorm.DB) *TaskStore {
	return &TaskStore{db: db}
}

// WithTx returns a store bound to tx.
func (s *TaskStore) WithTx(tx *gorm.DB) *TaskStore {
	return &TaskStore{db: tx}
}

func (s *TaskStore) withUsers(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Preload("Creator").Preload("AssignedTo")
}

func (s *TaskStore) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	if task.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return nil, fmt.Errorf("failed to generate task ID: %w", err)
		}
		task.ID = id
	}
	if task.Status == "" {
		task.Status = models.StatusTodo
	}
	task.DueDate = task.DueDate.UTC()

	if err := s.db.WithContext(ctx).Omit("Creator", "AssignedTo").Create(task).Error; err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return s.FindByID(ctx, task.ID)
}

func (s *TaskStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	var task models.Task
	err := s.withUsers(ctx).Where("id = ?", id).First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("task")
		}
		return nil, fmt.Errorf("failed to load task: %w", err)
	}
	return &task, nil
}

func (s *TaskStore) FindMany(ctx context.Context, query TaskQuery) ([]models.Task, error) {
	tasks := []models.Task{}
	if err := query.apply(s.withUsers(ctx)).Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskStore) Update(ctx context.Context, id uuid.UUID, changes TaskChanges) (*models.Task, error) {
	cols := changes.columns()
	cols["updated_at"] = s.db.NowFunc()

	result := s.db.WithContext(ctx).Model(&models.Task{}).Where("id = ?", id).Updates(cols)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.NotFound("task")
	}

	return s.FindByID(ctx, id)
}

func (s *TaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Task{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("task")
	}
	return nil
}
