package services

import (
	"context"
	"fmt"
	"time"

	"task-tracker/internal/events"
	"task-tracker/internal/logging"
	"task-tracker/internal/models"
	"task-tracker/internal/repositories"

	"github.com/gofrs/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	newTaskAssignedMessage = "You have been assigned a new task: %s"
	taskAssignedMessage    = "You have been assigned a task: %s"
)

type TaskService interface {
	CreateTask(ctx context.Context, actor models.ActorContext, input CreateTaskInput) (*models.Task, error)
	GetTasks(ctx context.Context, actor models.ActorContext, params repositories.TaskListParams) ([]models.Task, error)
	GetTaskByID(ctx context.Context, actor models.ActorContext, id uuid.UUID) (*models.Task, error)
	UpdateTask(ctx context.Context, actor models.ActorContext, id uuid.UUID, input UpdateTaskInput) (*models.Task, error)
	DeleteTask(ctx context.Context, actor models.ActorContext, id uuid.UUID) error
}

// TaskServiceImpl persists task mutations and then announces them. A task
// and the notification its assignment produces commit together; events go
// out only after the commit and their failures never fail the mutation.
type TaskServiceImpl struct {
	db            *gorm.DB
	tasks         *repositories.TaskStore
	notifications *NotificationServiceImpl
	publisher     events.Publisher
	cache         *TaskCache
	validator     *inputValidator
	now           func() time.Time
	logger        logrus.FieldLogger
}

func NewTaskService(db *gorm.DB, publisher events.Publisher, taskCache *TaskCache, logger logrus.FieldLogger) *TaskServiceImpl {
	return &TaskServiceImpl{
		db:            db,
		tasks:         repositories.NewTaskStore(db),
		notifications: NewNotificationService(db, logger),
		publisher:     publisher,
		cache:         taskCache,
		validator:     newInputValidator(),
		now:           time.Now,
		logger:        logging.OrDiscard(logger).WithField("component", "task_service"),
	}
}

func (s *TaskServiceImpl) CreateTask(ctx context.Context, actor models.ActorContext, input CreateTaskInput) (*models.Task, error) {
	if err := Authorize(actor, nil, OpCreate); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(input); err != nil {
		return nil, err
	}

	task := input.toNewTask(actor)
	var notification *models.Notification

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, err := s.tasks.WithTx(tx).Create(ctx, task)
		if err != nil {
			return err
		}
		task = created

		if task.AssignedToID != actor.UserID {
			notification, err = s.notifications.WithTx(tx).Create(ctx, task.AssignedToID, fmt.Sprintf(newTaskAssignedMessage, task.Title))
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"task_id":  task.ID,
		"actor_id": actor.UserID,
	}).Info("Task created")

	s.publish(ctx, events.TaskCreated, task)
	s.announceAssignment(ctx, notification, task.ID)
	return task, nil
}

func (s *TaskServiceImpl) GetTasks(ctx context.Context, actor models.ActorContext, params repositories.TaskListParams) ([]models.Task, error) {
	if err := Authorize(actor, nil, OpRead); err != nil {
		return nil, err
	}

	query := repositories.ParseTaskQuery(actor.UserID, params, s.now())
	return s.tasks.FindMany(ctx, query)
}

func (s *TaskServiceImpl) GetTaskByID(ctx context.Context, actor models.ActorContext, id uuid.UUID) (*models.Task, error) {
	if err := Authorize(actor, nil, OpRead); err != nil {
		return nil, err
	}

	if task, ok := s.cache.Get(ctx, id); ok {
		return task, nil
	}

	version := s.cache.Version(id)
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Put(ctx, task, version)
	return task, nil
}

func (s *TaskServiceImpl) UpdateTask(ctx context.Context, actor models.ActorContext, id uuid.UUID, input UpdateTaskInput) (*models.Task, error) {
	if !actor.Authenticated() {
		return nil, Authorize(actor, nil, OpUpdate)
	}

	var (
		updated      *models.Task
		notification *models.Notification
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store := s.tasks.WithTx(tx)

		existing, err := store.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := Authorize(actor, existing, OpUpdate); err != nil {
			return err
		}
		if err := s.validator.Struct(input); err != nil {
			return err
		}

		updated, err = store.Update(ctx, id, input.changes())
		if err != nil {
			return err
		}

		if input.AssignedToID != nil && updated.AssignedToID != actor.UserID {
			notification, err = s.notifications.WithTx(tx).Create(ctx, updated.AssignedToID, fmt.Sprintf(taskAssignedMessage, updated.Title))
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, id)
	s.logger.WithFields(logrus.Fields{
		"task_id":  id,
		"actor_id": actor.UserID,
	}).Info("Task updated")

	s.publish(ctx, events.TaskUpdated, updated)
	s.announceAssignment(ctx, notification, updated.ID)
	return updated, nil
}

func (s *TaskServiceImpl) DeleteTask(ctx context.Context, actor models.ActorContext, id uuid.UUID) error {
	if !actor.Authenticated() {
		return Authorize(actor, nil, OpDelete)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store := s.tasks.WithTx(tx)

		existing, err := store.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := Authorize(actor, existing, OpDelete); err != nil {
			return err
		}
		return store.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.cache.Invalidate(ctx, id)
	s.logger.WithFields(logrus.Fields{
		"task_id":  id,
		"actor_id": actor.UserID,
	}).Info("Task deleted")

	s.publish(ctx, events.TaskDeleted, events.TaskDeletedPayload{ID: id})
	return nil
}

func (s *TaskServiceImpl) announceAssignment(ctx context.Context, notification *models.Notification, taskID uuid.UUID) {
	if notification == nil {
		return
	}
	s.publish(ctx, events.NotificationAssigned, events.NotificationAssignedPayload{
		UserID:  notification.UserID,
		TaskID:  taskID,
		Message: notification.Message,
	})
}

// publish never fails the caller: the write is already committed and
// clients recover missed events from the REST API.
func (s *TaskServiceImpl) publish(ctx context.Context, name string, payload interface{}) {
	var err error
	if s.publisher == nil {
		err = events.ErrNotInitialized
	} else {
		err = s.publisher.Publish(ctx, name, payload)
	}

	if err != nil {
		s.logger.WithError(err).WithField("event", name).Warn("Failed to publish event")
	}
}
