package onboarding

import (
	"strings"
	"testing"

	"therapylink_backend/internal/schedule"
	"therapylink_backend/internal/therapist"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func validBasicInfo() therapist.BasicInfoInput {
	return therapist.BasicInfoInput{
		FirstName:      "Ada",
		LastName:       "Lovelace",
		Phone:          "(555) 123-4567",
		Experience:     intPtr(7),
		Specialization: "anxiety",
		Bio:            strings.Repeat("b", 80),
	}
}

func validCredentials() therapist.CredentialsInput {
	return therapist.CredentialsInput{
		LicenseType:    "LCSW",
		LicenseNumber:  "AB12345",
		LicenseState:   "WA",
		ExpirationDate: "2030-01-31",
	}
}

func mondaySchedule() schedule.Schedule {
	s := schedule.New()
	_ = s.ToggleDay("monday")
	_ = s.AddTimeBlock("monday", schedule.DefaultTimeBlock)
	return s
}

func TestValidateBasicInfo_Valid(t *testing.T) {
	v := NewValidator()
	assert.Empty(t, v.ValidateBasicInfo(validBasicInfo()))
}

func TestValidateBasicInfo_BioBoundaries(t *testing.T) {
	v := NewValidator()
	cases := []struct {
		length  int
		message string
	}{
		{49, "Bio must be at least 50 characters"},
		{50, ""},
		{500, ""},
		{501, "Bio cannot exceed 500 characters"},
	}
	for _, tc := range cases {
		in := validBasicInfo()
		in.Bio = strings.Repeat("x", tc.length)
		errs := v.ValidateBasicInfo(in)
		if tc.message == "" {
			assert.Empty(t, errs, "bio length %d", tc.length)
			continue
		}
		assert.Equal(t, map[string]string{"bio": tc.message}, errs, "bio length %d", tc.length)
	}
}

func TestValidateBasicInfo_BioCountsCharactersNotBytes(t *testing.T) {
	v := NewValidator()
	in := validBasicInfo()
	in.Bio = strings.Repeat("é", 50)
	assert.Empty(t, v.ValidateBasicInfo(in))
}

func TestValidateBasicInfo_Phone(t *testing.T) {
	v := NewValidator()

	in := validBasicInfo()
	in.Phone = "call me maybe"
	assert.Equal(t, "Please enter a valid phone number", v.ValidateBasicInfo(in)["phone"])

	in.Phone = "555-1234"
	assert.Equal(t, "Phone number must be at least 10 digits", v.ValidateBasicInfo(in)["phone"])

	in.Phone = ""
	assert.Equal(t, "Phone number must be at least 10 digits", v.ValidateBasicInfo(in)["phone"])

	in.Phone = "555 123 4567"
	assert.NotContains(t, v.ValidateBasicInfo(in), "phone")
}

func TestValidateBasicInfo_FieldMessages(t *testing.T) {
	v := NewValidator()
	in := therapist.BasicInfoInput{
		FirstName:  "A",
		Phone:      "5551234567",
		Experience: intPtr(51),
		Bio:        strings.Repeat("x", 60),
	}
	errs := v.ValidateBasicInfo(in)
	assert.Equal(t, "First name must be at least 2 characters", errs["firstName"])
	assert.Equal(t, "Last name must be at least 2 characters", errs["lastName"])
	assert.Equal(t, "Experience cannot exceed 50 years", errs["experience"])
	assert.Equal(t, "Please select a specialization", errs["specialization"])
	assert.Len(t, errs, 4)
}

func TestValidateBasicInfo_Experience(t *testing.T) {
	v := NewValidator()
	in := validBasicInfo()

	in.Experience = nil
	assert.Equal(t, "Experience must be 0 or greater", v.ValidateBasicInfo(in)["experience"])

	in.Experience = intPtr(-1)
	assert.Equal(t, "Experience must be 0 or greater", v.ValidateBasicInfo(in)["experience"])

	in.Experience = intPtr(0)
	assert.Empty(t, v.ValidateBasicInfo(in))
}

func TestValidateBasicInfo_ProfilePhotoURL(t *testing.T) {
	v := NewValidator()
	in := validBasicInfo()

	in.ProfilePhotoURL = strPtr("https://cdn.example.com/p.jpg")
	assert.Empty(t, v.ValidateBasicInfo(in))

	in.ProfilePhotoURL = strPtr("not a url")
	assert.Equal(t, "Please upload a valid profile photo", v.ValidateBasicInfo(in)["profilePhotoUrl"])
}

func TestValidateCredentials_NullableDocumentURL(t *testing.T) {
	v := NewValidator()
	cases := []struct {
		name  string
		url   *string
		valid bool
	}{
		{"nil", nil, true},
		{"https", strPtr("https://files.example.com/license.pdf"), true},
		{"http", strPtr("http://localhost:8080/uploads/a.pdf"), true},
		{"empty", strPtr(""), false},
		{"relative", strPtr("/uploads/a.pdf"), false},
		{"ftp", strPtr("ftp://files.example.com/a.pdf"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validCredentials()
			in.LicenseDocumentURL = tc.url
			errs := v.ValidateCredentials(in)
			if tc.valid {
				assert.Empty(t, errs)
			} else {
				assert.Equal(t, map[string]string{"licenseDocumentUrl": "Please upload a valid license document"}, errs)
			}
		})
	}
}

func TestValidateCredentials_Missing(t *testing.T) {
	v := NewValidator()
	errs := v.ValidateCredentials(therapist.CredentialsInput{LicenseNumber: "1234"})
	assert.Equal(t, map[string]string{
		"licenseType":    "Please select a license type",
		"licenseNumber":  "License number must be at least 5 characters",
		"licenseState":   "Please select a state",
		"expirationDate": "Please enter an expiration date",
	}, errs)
}

func TestValidateAvailability_Valid(t *testing.T) {
	v := NewValidator()
	errs := v.ValidateAvailability(therapist.AvailabilityInput{Schedule: mondaySchedule(), HourlyRate: 50})
	assert.Empty(t, errs)
	errs = v.ValidateAvailability(therapist.AvailabilityInput{Schedule: mondaySchedule(), HourlyRate: 10000})
	assert.Empty(t, errs)
}

func TestValidateAvailability_AllDaysDisabled(t *testing.T) {
	v := NewValidator()
	s := schedule.New()
	// Blocks on a disabled day do not count.
	require.NoError(t, s.AddTimeBlock("monday", schedule.DefaultTimeBlock))

	errs := v.ValidateAvailability(therapist.AvailabilityInput{Schedule: s, HourlyRate: 85})
	assert.Equal(t, map[string]string{"schedule": "Please set availability for at least one day"}, errs)
}

func TestValidateAvailability_EnabledDayWithoutBlocks(t *testing.T) {
	v := NewValidator()
	s := schedule.New()
	require.NoError(t, s.ToggleDay("friday"))

	errs := v.ValidateAvailability(therapist.AvailabilityInput{Schedule: s, HourlyRate: 85})
	assert.Equal(t, "Please set availability for at least one day", errs["schedule"])
}

func TestValidateAvailability_UnknownDayKeys(t *testing.T) {
	v := NewValidator()
	block := []schedule.TimeBlock{schedule.DefaultTimeBlock}

	for _, key := range []string{"Monday", "funday"} {
		s := schedule.Schedule{key: {Enabled: true, TimeBlocks: block}}
		errs := v.ValidateAvailability(therapist.AvailabilityInput{Schedule: s, HourlyRate: 85})
		assert.Equal(t, map[string]string{"schedule": "Unknown day in schedule: " + key}, errs, key)
	}

	// A stray key is reported even next to a valid day.
	s := mondaySchedule()
	s["MONDAY"] = schedule.DaySchedule{Enabled: true, TimeBlocks: block}
	errs := v.ValidateAvailability(therapist.AvailabilityInput{Schedule: s, HourlyRate: 85})
	assert.Equal(t, "Unknown day in schedule: MONDAY", errs["schedule"])
}

func TestValidateAvailability_HourlyRate(t *testing.T) {
	v := NewValidator()
	errs := v.ValidateAvailability(therapist.AvailabilityInput{Schedule: mondaySchedule(), HourlyRate: 49.99})
	assert.Equal(t, map[string]string{"hourlyRate": "Hourly rate must be at least $50"}, errs)

	errs = v.ValidateAvailability(therapist.AvailabilityInput{Schedule: mondaySchedule(), HourlyRate: 10001})
	assert.Equal(t, map[string]string{"hourlyRate": "Hourly rate cannot exceed $10000"}, errs)
}

func TestValidateAvailability_BadBlocks(t *testing.T) {
	v := NewValidator()
	s := mondaySchedule()
	require.NoError(t, s.AddTimeBlock("monday", schedule.TimeBlock{StartTime: "18:00", EndTime: "17:00"}))

	errs := v.ValidateAvailability(therapist.AvailabilityInput{Schedule: s, HourlyRate: 100})
	assert.Contains(t, errs, "schedule")
}

func TestValidateAvailability_OverlapAllowed(t *testing.T) {
	v := NewValidator()
	s := mondaySchedule()
	require.NoError(t, s.AddTimeBlock("monday", schedule.TimeBlock{StartTime: "10:00", EndTime: "12:00"}))

	assert.Empty(t, v.ValidateAvailability(therapist.AvailabilityInput{Schedule: s, HourlyRate: 100}))
}

func TestValidatePayload_PaymentHasNoRules(t *testing.T) {
	v := NewValidator()
	assert.Empty(t, v.ValidatePayload(PaymentPayload{}))
	assert.NotEmpty(t, v.ValidatePayload(BasicInfoPayload{}))
}
