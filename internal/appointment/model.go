package appointment

import (
	"time"

	"therapylink_backend/internal/common"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a booked session.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)

// Appointment is a booked session paid through a payment intent. Only the
// status is written by this service; booking happens elsewhere.
type Appointment struct {
	common.BaseModel
	TherapistID     uuid.UUID `gorm:"type:uuid;not null;index" json:"therapistId"`
	PatientID       uuid.UUID `gorm:"type:uuid;not null;index" json:"patientId"`
	PaymentIntentID *string   `gorm:"type:varchar(255);uniqueIndex" json:"paymentIntentId,omitempty"`
	Status          Status    `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	StartsAt        time.Time `gorm:"not null" json:"startsAt"`
	EndsAt          time.Time `gorm:"not null" json:"endsAt"`
}

func (Appointment) TableName() string {
	return "appointments"
}
