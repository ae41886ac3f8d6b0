package therapist

import "therapylink_backend/internal/schedule"

// BasicInfoInput is the step 1 payload. Validation tags are evaluated by the
// onboarding validator, which registers the custom "phone" rule.
type BasicInfoInput struct {
	FirstName           string  `json:"firstName" validate:"required,min=2"`
	LastName            string  `json:"lastName" validate:"required,min=2"`
	Phone               string  `json:"phone" validate:"required,phone"`
	Experience          *int    `json:"experience" validate:"required,min=0,max=50"`
	Specialization      string  `json:"specialization" validate:"required"`
	SpecializationLabel string  `json:"specializationLabel,omitempty"`
	Bio                 string  `json:"bio" validate:"required,min=50,max=500"`
	ProfilePhotoURL     *string `json:"profilePhotoUrl,omitempty" validate:"nullable_url"`
}

// SpecializationList is what gets stored: the display label when one was
// chosen, otherwise the raw value.
func (in BasicInfoInput) SpecializationList() []string {
	if in.SpecializationLabel != "" {
		return []string{in.SpecializationLabel}
	}
	return []string{in.Specialization}
}

// CredentialsInput is the step 2 payload. ExpirationDate stays a string so a
// malformed date is reported as a field error instead of a decode failure.
type CredentialsInput struct {
	LicenseType              string          `json:"licenseType" validate:"required"`
	LicenseNumber            string          `json:"licenseNumber" validate:"required,min=5"`
	LicenseState             string          `json:"licenseState" validate:"required"`
	ExpirationDate           string          `json:"expirationDate" validate:"required"`
	LicenseDocumentURL       *string         `json:"licenseDocumentUrl" validate:"nullable_url"`
	AdditionalCertifications []Certification `json:"additionalCertifications"`
}

// AvailabilityInput is the step 3 payload. The schedule rule is a struct
// level check registered by the onboarding validator.
type AvailabilityInput struct {
	Schedule   schedule.Schedule `json:"schedule"`
	HourlyRate float64           `json:"hourlyRate" validate:"min=50,max=10000"`
}

// PaymentAccountResult is returned by CreateOrFetchPaymentAccount.
type PaymentAccountResult struct {
	AccountID string `json:"accountId"`
	URL       string `json:"url"`
	Created   bool   `json:"created"`
}
