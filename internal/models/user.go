package models

import (
	"time"

	"github.com/gofrs/uuid"
)

// User rows are owned by the authentication service; this service only
// reads them to denormalize creator and assignee details onto tasks.
type User struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Name      string    `json:"name" gorm:"not null"`
	Email     string    `json:"email" gorm:"unique;not null"`
	Password  string    `json:"-" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type UserSummary struct {
	ID    uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

func (UserSummary) TableName() string {
	return "users"
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}
