package models

import (
	"time"

	"github.com/gofrs/uuid"
)

type Notification struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	UserID    uuid.UUID `json:"userId" gorm:"type:uuid;not null;index:idx_notifications_user_read"`
	Message   string    `json:"message" gorm:"type:text;not null"`
	IsRead    bool      `json:"isRead" gorm:"not null;default:false;index:idx_notifications_user_read"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
}

// OwnedBy reports whether userID is the recipient of the notification.
func (n *Notification) OwnedBy(userID uuid.UUID) bool {
	return n.UserID == userID
}
