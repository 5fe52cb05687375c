package services

import (
	"task-tracker/internal/apperrors"
	"task-tracker/internal/models"
)

type Operation string

const (
	OpCreate Operation = "create"
	OpRead   Operation = "read"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Authorize decides whether actor may perform op on task. Only deletion is
// restricted, to the task's creator; any authenticated actor may create,
// read or update. task may be nil for OpCreate.
func Authorize(actor models.ActorContext, task *models.Task, op Operation) error {
	if !actor.Authenticated() {
		return apperrors.ErrUnauthenticated
	}

	switch op {
	case OpDelete:
		if task == nil || task.CreatorID != actor.UserID {
			return apperrors.Forbidden("only the creator can delete the task")
		}
	case OpCreate, OpRead, OpUpdate:
	default:
		return apperrors.Forbidden("unknown operation " + string(op))
	}
	return nil
}
