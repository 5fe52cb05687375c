package services

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"task-tracker/internal/apperrors"
	"task-tracker/internal/models"
	"task-tracker/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
)

// CreateTaskInput is the body of a task creation.
type CreateTaskInput struct {
	Title        string  `json:"title" validate:"required,max=100"`
	Description  string  `json:"description" validate:"required"`
	DueDate      string  `json:"dueDate" validate:"required,rfc3339"`
	Priority     string  `json:"priority" validate:"required,priority"`
	AssignedToID *string `json:"assignedToId" validate:"omitnil,uuid"`
}

// UpdateTaskInput is a partial update; absent fields stay unchanged.
type UpdateTaskInput struct {
	Title        *string `json:"title" validate:"omitnil,min=1,max=100"`
	Description  *string `json:"description" validate:"omitnil,min=1"`
	DueDate      *string `json:"dueDate" validate:"omitnil,rfc3339"`
	Priority     *string `json:"priority" validate:"omitnil,priority"`
	Status       *string `json:"status" validate:"omitnil,status"`
	AssignedToID *string `json:"assignedToId" validate:"omitnil,uuid"`
}

// fieldMessages maps json field and failed tag to the message returned to
// clients. Unlisted combinations fall back to "<field> is invalid".
var fieldMessages = map[string]map[string]string{
	"title": {
		"required": "Title is required",
		"min":      "Title is required",
		"max":      "Title must be 100 characters or less",
	},
	"description": {
		"required": "Description is required",
		"min":      "Description is required",
	},
	"dueDate": {
		"required": "Due date is required",
		"rfc3339":  "Invalid ISO 8601 date string",
	},
	"priority": {
		"required": "Priority is required",
		"priority": "Invalid priority",
	},
	"status": {
		"status": "Invalid status",
	},
	"assignedToId": {
		"uuid": "Invalid assignee ID",
	},
}

type inputValidator struct {
	validate *validator.Validate
}

func newInputValidator() *inputValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("rfc3339", func(fl validator.FieldLevel) bool {
		_, err := parseDueDate(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("priority", func(fl validator.FieldLevel) bool {
		_, ok := models.ParsePriority(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("status", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseStatus(fl.Field().String())
		return ok
	})

	return &inputValidator{validate: v}
}

// Struct validates input and returns a *apperrors.ValidationError listing
// every offending field.
func (v *inputValidator) Struct(input interface{}) error {
	err := v.validate.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	verr := apperrors.NewValidationError()
	for _, fe := range fieldErrs {
		verr.Add(fe.Field(), messageFor(fe.Field(), fe.Tag()))
	}
	return verr
}

func messageFor(field, tag string) string {
	if msg, ok := fieldMessages[field][tag]; ok {
		return msg
	}
	return field + " is invalid"
}

var errDueDateNotUTC = errors.New("due date must be a UTC timestamp ending in Z")

// parseDueDate accepts RFC 3339 timestamps in UTC only, with optional
// fractional seconds. Offsets such as +02:00 are rejected.
func parseDueDate(value string) (time.Time, error) {
	if !strings.HasSuffix(value, "Z") {
		return time.Time{}, errDueDateNotUTC
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// toNewTask converts validated input. Callers must have run Struct first.
func (in CreateTaskInput) toNewTask(actor models.ActorContext) *models.Task {
	due, _ := parseDueDate(in.DueDate)

	assignee := actor.UserID
	if in.AssignedToID != nil {
		assignee = uuid.FromStringOrNil(*in.AssignedToID)
	}

	return &models.Task{
		Title:        in.Title,
		Description:  in.Description,
		DueDate:      due,
		Priority:     models.Priority(in.Priority),
		Status:       models.StatusTodo,
		CreatorID:    actor.UserID,
		AssignedToID: assignee,
	}
}

// changes converts validated input to a store patch.
func (in UpdateTaskInput) changes() repositories.TaskChanges {
	var c repositories.TaskChanges
	c.Title = in.Title
	c.Description = in.Description
	if in.DueDate != nil {
		due, _ := parseDueDate(*in.DueDate)
		c.DueDate = &due
	}
	if in.Priority != nil {
		p := models.Priority(*in.Priority)
		c.Priority = &p
	}
	if in.Status != nil {
		s := models.Status(*in.Status)
		c.Status = &s
	}
	if in.AssignedToID != nil {
		id := uuid.FromStringOrNil(*in.AssignedToID)
		c.AssignedToID = &id
	}
	return c
}
