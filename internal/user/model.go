// File: internal/user/model.go
package user

import (
	"strings"
	"time"

	"therapylink_backend/internal/common"

	"github.com/google/uuid"
)

// User is the local identity record mirrored from the identity provider.
type User struct {
	common.BaseModel
	FirebaseUID string     `gorm:"column:firebase_uid;type:varchar(128);uniqueIndex;not null"`
	Email       string     `gorm:"type:varchar(255);index"`
	FirstName   string     `gorm:"type:varchar(100)"`
	LastName    string     `gorm:"type:varchar(100)"`
	Role        string     `gorm:"type:varchar(20);not null;default:'PATIENT'"`
	LastLoginAt *time.Time
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}

func (u *User) IsTherapist() bool {
	return u.Role == common.RoleTherapist
}

// UserResponse defines the structure for user data sent in API responses.
type UserResponse struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Role        string     `json:"role"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

// ToUserResponse converts a User model to a UserResponse DTO.
func ToUserResponse(user *User) UserResponse {
	return UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Role:        user.Role,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
		LastLoginAt: user.LastLoginAt,
	}
}

// NormalizeRole maps the identity provider's role claim onto a known role,
// defaulting to PATIENT.
func NormalizeRole(raw string) string {
	switch r := strings.ToUpper(strings.TrimSpace(raw)); r {
	case common.RoleTherapist, common.RoleAdmin:
		return r
	default:
		return common.RolePatient
	}
}
