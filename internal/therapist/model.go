package therapist

import (
	"time"

	"therapylink_backend/internal/common"
	"therapylink_backend/internal/user"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Certification is an additional credential listed on the profile.
type Certification struct {
	Name                string `json:"name" binding:"required"`
	IssuingOrganization string `json:"issuingOrganization"`
}

// Therapist is the durable provider profile written by the onboarding flow.
// The three verification flags are always written together.
type Therapist struct {
	common.BaseModel
	UserID         uuid.UUID                   `gorm:"type:uuid;uniqueIndex;not null"`
	User           *user.User                  `gorm:"constraint:OnDelete:CASCADE"`
	Slug           *string                     `gorm:"type:varchar(160);uniqueIndex"`
	Phone          string                      `gorm:"type:varchar(32)"`
	Bio            string                      `gorm:"type:text"`
	Specialization datatypes.JSONSlice[string] `gorm:"type:json"`
	Experience     int                         `gorm:"not null;default:0"`

	LicenseType              string                             `gorm:"type:varchar(50)"`
	LicenseNumber            string                             `gorm:"type:varchar(100)"`
	LicenseState             string                             `gorm:"type:varchar(50)"`
	LicenseExpirationDate    *datatypes.Date                    `gorm:"type:date"`
	LicenseDocumentURL       *string                            `gorm:"type:text"`
	ProfilePhotoURL          *string                            `gorm:"type:text"`
	AdditionalCertifications datatypes.JSONSlice[Certification] `gorm:"type:json"`

	HourlyRate float64 `gorm:"type:decimal(10,2);not null;default:0"`

	StripeAccountID          *string `gorm:"type:varchar(255);uniqueIndex"`
	StripeOnboardingComplete bool    `gorm:"not null;default:false"`
	OnboardingComplete       bool    `gorm:"not null;default:false"`
	IsActive                 bool    `gorm:"not null;default:false"`

	Availabilities []Availability `gorm:"constraint:OnDelete:CASCADE"`
}

func (Therapist) TableName() string {
	return "therapists"
}

// Availability is one recurring weekly slot. DayOfWeek is 0-6, Sunday=0.
type Availability struct {
	common.BaseModel
	TherapistID uuid.UUID `gorm:"type:uuid;not null;index"`
	DayOfWeek   int       `gorm:"not null"`
	StartTime   string    `gorm:"type:varchar(5);not null"`
	EndTime     string    `gorm:"type:varchar(5);not null"`
	IsAvailable bool      `gorm:"not null"`
}

func (Availability) TableName() string {
	return "availabilities"
}

// ProfileResponse is the read model returned by GET /therapist/profile.
type ProfileResponse struct {
	ID                       uuid.UUID              `json:"id"`
	UserID                   uuid.UUID              `json:"userId"`
	FirstName                string                 `json:"firstName"`
	LastName                 string                 `json:"lastName"`
	Email                    string                 `json:"email"`
	Slug                     *string                `json:"slug,omitempty"`
	Phone                    string                 `json:"phone"`
	Bio                      string                 `json:"bio"`
	Specialization           []string               `json:"specialization"`
	Experience               int                    `json:"experience"`
	LicenseType              string                 `json:"licenseType"`
	LicenseNumber            string                 `json:"licenseNumber"`
	LicenseState             string                 `json:"licenseState"`
	LicenseExpirationDate    *string                `json:"licenseExpirationDate,omitempty"`
	LicenseDocumentURL       *string                `json:"licenseDocumentUrl,omitempty"`
	ProfilePhotoURL          *string                `json:"profilePhotoUrl,omitempty"`
	AdditionalCertifications []Certification        `json:"additionalCertifications"`
	HourlyRate               float64                `json:"hourlyRate"`
	StripeAccountID          *string                `json:"stripeAccountId,omitempty"`
	StripeOnboardingComplete bool                   `json:"stripeOnboardingComplete"`
	OnboardingComplete       bool                   `json:"onboardingComplete"`
	IsActive                 bool                   `json:"isActive"`
	Availability             []AvailabilityResponse `json:"availability"`
	UpdatedAt                time.Time              `json:"updatedAt"`
}

type AvailabilityResponse struct {
	DayOfWeek   int    `json:"dayOfWeek"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	IsAvailable bool   `json:"isAvailable"`
}

// BasicInfoResponse mirrors the basic-info step payload for read-back.
type BasicInfoResponse struct {
	FirstName       string   `json:"firstName"`
	LastName        string   `json:"lastName"`
	Phone           string   `json:"phone"`
	Experience      int      `json:"experience"`
	Specialization  []string `json:"specialization"`
	Bio             string   `json:"bio"`
	ProfilePhotoURL *string  `json:"profilePhotoUrl,omitempty"`
}

const expirationDateLayout = "2006-01-02"

// ToProfileResponse flattens a therapist with its user and slots.
func ToProfileResponse(u *user.User, t *Therapist) ProfileResponse {
	resp := ProfileResponse{
		ID:                       t.ID,
		UserID:                   t.UserID,
		FirstName:                u.FirstName,
		LastName:                 u.LastName,
		Email:                    u.Email,
		Slug:                     t.Slug,
		Phone:                    t.Phone,
		Bio:                      t.Bio,
		Specialization:           append([]string{}, t.Specialization...),
		Experience:               t.Experience,
		LicenseType:              t.LicenseType,
		LicenseNumber:            t.LicenseNumber,
		LicenseState:             t.LicenseState,
		LicenseDocumentURL:       t.LicenseDocumentURL,
		ProfilePhotoURL:          t.ProfilePhotoURL,
		AdditionalCertifications: append([]Certification{}, t.AdditionalCertifications...),
		HourlyRate:               t.HourlyRate,
		StripeAccountID:          t.StripeAccountID,
		StripeOnboardingComplete: t.StripeOnboardingComplete,
		OnboardingComplete:       t.OnboardingComplete,
		IsActive:                 t.IsActive,
		Availability:             make([]AvailabilityResponse, 0, len(t.Availabilities)),
		UpdatedAt:                t.UpdatedAt,
	}
	if t.LicenseExpirationDate != nil {
		d := time.Time(*t.LicenseExpirationDate).Format(expirationDateLayout)
		resp.LicenseExpirationDate = &d
	}
	for _, a := range t.Availabilities {
		resp.Availability = append(resp.Availability, AvailabilityResponse{
			DayOfWeek: a.DayOfWeek, StartTime: a.StartTime, EndTime: a.EndTime, IsAvailable: a.IsAvailable,
		})
	}
	return resp
}
