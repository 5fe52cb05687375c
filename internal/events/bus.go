// Package events fans task and notification changes out to connected
// clients. Delivery is best effort: nothing is persisted or acknowledged,
// and clients reconcile through the REST API and the notification log.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"task-tracker/internal/apperrors"

	"github.com/gofrs/uuid"
)

// Event names are part of the wire contract with clients.
const (
	TaskCreated          = "task:created"
	TaskUpdated          = "task:updated"
	TaskDeleted          = "task:deleted"
	NotificationAssigned = "notification:assigned"
)

var ErrNotInitialized = fmt.Errorf("event bus not initialized: %w", apperrors.ErrTransport)

// Publisher is what the services depend on.
type Publisher interface {
	Publish(ctx context.Context, name string, payload interface{}) error
}

type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data"`
}

func NewEvent(name string, payload interface{}) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("failed to encode %s payload: %w", name, err)
	}
	return Event{Name: name, Data: data}, nil
}

type TaskDeletedPayload struct {
	ID uuid.UUID `json:"id"`
}

// NotificationAssignedPayload is broadcast to everyone; clients keep the
// ones whose UserID is theirs.
type NotificationAssignedPayload struct {
	UserID  uuid.UUID `json:"userId"`
	TaskID  uuid.UUID `json:"taskId"`
	Message string    `json:"message"`
}

// Observer receives bus activity for metrics.
type Observer interface {
	Published(name string)
	Dropped(name string)
	Subscribers(count int)
}

type noopObserver struct{}

func (noopObserver) Published(string) {}
func (noopObserver) Dropped(string)   {}
func (noopObserver) Subscribers(int)  {}
