package repositories

import (
	"time"

	"task-tracker/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type TaskFilter string

const (
	FilterDefault  TaskFilter = ""
	FilterAssigned TaskFilter = "assigned"
	FilterCreated  TaskFilter = "created"
	FilterOverdue  TaskFilter = "overdue"
)

const SortByDueDate = "dueDate"

// TaskListParams is the raw filter vocabulary accepted on task listings.
type TaskListParams struct {
	Filter    string `form:"filter"`
	Status    string `form:"status"`
	Priority  string `form:"priority"`
	SortBy    string `form:"sortBy"`
	SortOrder string `form:"sortOrder"`
}

// TaskQuery is a parsed TaskListParams scoped to one actor.
type TaskQuery struct {
	ActorID    uuid.UUID
	Filter     TaskFilter
	Status     *models.Status
	Priority   *models.Priority
	Descending bool
	Now        time.Time
}

// ParseTaskQuery never fails. Unknown filters fall back to the default
// scope and unknown status or priority values are dropped, so a typo in a
// query string widens the listing instead of rejecting the request.
func ParseTaskQuery(actorID uuid.UUID, params TaskListParams, now time.Time) TaskQuery {
	q := TaskQuery{
		ActorID: actorID,
		Now:     now.UTC(),
	}

	switch TaskFilter(params.Filter) {
	case FilterAssigned, FilterCreated, FilterOverdue:
		q.Filter = TaskFilter(params.Filter)
	default:
		q.Filter = FilterDefault
	}

	if status, ok := models.ParseStatus(params.Status); ok {
		q.Status = &status
	}
	if priority, ok := models.ParsePriority(params.Priority); ok {
		q.Priority = &priority
	}

	q.Descending = params.SortBy == SortByDueDate && params.SortOrder == "desc"

	return q
}

func (q TaskQuery) apply(db *gorm.DB) *gorm.DB {
	switch q.Filter {
	case FilterAssigned:
		db = db.Where("assigned_to_id = ?", q.ActorID)
	case FilterCreated:
		db = db.Where("creator_id = ?", q.ActorID)
	case FilterOverdue:
		// overdue is always the caller's own assignments
		db = db.Where("due_date < ? AND status <> ? AND assigned_to_id = ?", q.Now, models.StatusCompleted, q.ActorID)
	default:
		db = db.Where("(creator_id = ? OR assigned_to_id = ?)", q.ActorID, q.ActorID)
	}

	if q.Status != nil {
		db = db.Where("status = ?", *q.Status)
	}
	if q.Priority != nil {
		db = db.Where("priority = ?", *q.Priority)
	}

	if q.Descending {
		db = db.Order("due_date DESC")
	} else {
		db = db.Order("due_date ASC")
	}
	return db.Order("created_at ASC")
}
