package models

import (
	"time"

	"github.com/gofrs/uuid"
)

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

func (p Priority) Valid() bool {
	for _, candidate := range Priorities {
		if p == candidate {
			return true
		}
	}
	return false
}

// ParsePriority reports whether s names a known priority.
func ParsePriority(s string) (Priority, bool) {
	p := Priority(s)
	return p, p.Valid()
}

type Status string

const (
	StatusTodo       Status = "TODO"
	StatusInProgress Status = "IN_PROGRESS"
	StatusReview     Status = "REVIEW"
	StatusCompleted  Status = "COMPLETED"
)

var Statuses = []Status{StatusTodo, StatusInProgress, StatusReview, StatusCompleted}

func (s Status) Valid() bool {
	for _, candidate := range Statuses {
		if s == candidate {
			return true
		}
	}
	return false
}

func ParseStatus(s string) (Status, bool) {
	st := Status(s)
	return st, st.Valid()
}

type Task struct {
	ID           uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Title        string    `json:"title" gorm:"size:100;not null"`
	Description  string    `json:"description" gorm:"type:text;not null"`
	DueDate      time.Time `json:"dueDate" gorm:"not null;index"`
	Priority     Priority  `json:"priority" gorm:"type:varchar(16);not null;index"`
	Status       Status    `json:"status" gorm:"type:varchar(16);not null;default:'TODO';index"`
	CreatorID    uuid.UUID `json:"creatorId" gorm:"type:uuid;not null;index"`
	AssignedToID uuid.UUID `json:"assignedToId" gorm:"type:uuid;not null;index"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	Creator    *UserSummary `json:"creator,omitempty" gorm:"foreignKey:CreatorID;references:ID"`
	AssignedTo *UserSummary `json:"assignedTo,omitempty" gorm:"foreignKey:AssignedToID;references:ID"`
}

// IsOverdue is true when the task is past due and not completed.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.DueDate.Before(now) && t.Status != StatusCompleted
}
