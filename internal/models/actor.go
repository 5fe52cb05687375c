package models

import (
	"strings"

	"github.com/gofrs/uuid"
)

// ActorContext is the authenticated identity performing an operation. It is
// produced by the authentication middleware and passed explicitly into every
// service call.
type ActorContext struct {
	UserID uuid.UUID `json:"userId"`
	Email  string    `json:"email"`
}

func NewActorContext(userID uuid.UUID, email string) ActorContext {
	return ActorContext{
		UserID: userID,
		Email:  strings.ToLower(strings.TrimSpace(email)),
	}
}

func (a ActorContext) Authenticated() bool {
	return a.UserID != uuid.Nil
}
