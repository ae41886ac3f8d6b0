package notification

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType defines the type of notification.
type NotificationType string

const (
	TherapistActivated   NotificationType = "therapist_activated"
	TherapistDeactivated NotificationType = "therapist_deactivated"
	PaymentAccountLinked NotificationType = "payment_account_linked"
)

// Notification represents a user notification. Notifications are immutable
// apart from IsRead.
type Notification struct {
	ID                 uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID             uuid.UUID        `gorm:"type:uuid;not null;index:idx_notification_user_status" json:"userId"`
	Type               NotificationType `gorm:"type:varchar(100);not null" json:"type"`
	Message            string           `gorm:"type:text;not null" json:"message"`
	RelatedTherapistID *uuid.UUID       `gorm:"type:uuid" json:"relatedTherapistId,omitempty"`
	IsRead             bool             `gorm:"not null;default:false;index:idx_notification_user_status" json:"isRead"`
	CreatedAt          time.Time        `gorm:"not null;index:idx_notification_user_status" json:"createdAt"`
}

// TableName specifies the table name for GORM.
func (Notification) TableName() string {
	return "notifications"
}
