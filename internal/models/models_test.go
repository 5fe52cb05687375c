package models_test

import (
	"testing"
	"time"

	"task-tracker/internal/models"

	"github.com/gofrs/uuid"
)

func TestParsePriority(t *testing.T) {
	tests := []struct {
		input string
		valid bool
	}{
		{"LOW", true},
		{"MEDIUM", true},
		{"HIGH", true},
		{"URGENT", true},
		{"high", false},
		{"", false},
		{"CRITICAL", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			p, ok := models.ParsePriority(tt.input)
			if ok != tt.valid {
				t.Errorf("Expected valid=%v for %q, got %v", tt.valid, tt.input, ok)
			}
			if ok && string(p) != tt.input {
				t.Errorf("Expected priority %q, got %q", tt.input, p)
			}
		})
	}
}

func TestParseStatus(t *testing.T) {
	for _, status := range []string{"TODO", "IN_PROGRESS", "REVIEW", "COMPLETED"} {
		if _, ok := models.ParseStatus(status); !ok {
			t.Errorf("Expected status %q to be valid", status)
		}
	}

	if _, ok := models.ParseStatus("DONE"); ok {
		t.Error("Expected status DONE to be invalid")
	}
}

func TestTask_IsOverdue(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		dueDate  time.Time
		status   models.Status
		expected bool
	}{
		{"past due and open", now.Add(-time.Hour), models.StatusTodo, true},
		{"past due in review", now.Add(-time.Hour), models.StatusReview, true},
		{"past due but completed", now.Add(-time.Hour), models.StatusCompleted, false},
		{"due in the future", now.Add(time.Hour), models.StatusInProgress, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := models.Task{DueDate: tt.dueDate, Status: tt.status}
			if got := task.IsOverdue(now); got != tt.expected {
				t.Errorf("Expected IsOverdue %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestNotification_OwnedBy(t *testing.T) {
	owner := uuid.Must(uuid.NewV4())
	other := uuid.Must(uuid.NewV4())

	n := models.Notification{ID: uuid.Must(uuid.NewV4()), UserID: owner, Message: "hello"}

	if !n.OwnedBy(owner) {
		t.Error("Expected notification to be owned by its recipient")
	}
	if n.OwnedBy(other) {
		t.Error("Expected notification not to be owned by another user")
	}
}

func TestActorContext(t *testing.T) {
	id := uuid.Must(uuid.NewV4())
	actor := models.NewActorContext(id, "  Alice@Example.COM ")

	if actor.Email != "alice@example.com" {
		t.Errorf("Expected normalized email, got '%s'", actor.Email)
	}
	if !actor.Authenticated() {
		t.Error("Expected actor with id to be authenticated")
	}

	if (models.ActorContext{}).Authenticated() {
		t.Error("Expected zero actor to be unauthenticated")
	}
}

func TestUser_Summary(t *testing.T) {
	user := models.User{
		ID:       uuid.Must(uuid.NewV4()),
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "hashed",
	}

	summary := user.Summary()
	if summary.ID != user.ID || summary.Name != "Alice" || summary.Email != "alice@example.com" {
		t.Errorf("Unexpected summary %+v", summary)
	}
}
