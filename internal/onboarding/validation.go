package onboarding

import (
	"errors"
	"net/url"
	"reflect"
	"regexp"
	"strings"

	"therapylink_backend/internal/schedule"
	"therapylink_backend/internal/therapist"

	"github.com/go-playground/validator/v10"
)

const (
	minPhoneDigits = 10

	tagPhone        = "phone"
	tagNullableURL  = "nullable_url"
	tagAvailability = "availability"
	tagTimeBlocks   = "time_blocks"
	tagUnknownDay   = "unknown_day"
)

var phonePattern = regexp.MustCompile(`^[\d\s\-()]+$`)

type messageFunc func(fe validator.FieldError) string

func fixed(msg string) messageFunc {
	return func(validator.FieldError) string { return msg }
}

// messages maps json field -> tag -> message. Fields not listed fall back to
// a generic message.
var messages = map[string]map[string]messageFunc{
	"firstName": {
		"required": fixed("First name must be at least 2 characters"),
		"min":      fixed("First name must be at least 2 characters"),
	},
	"lastName": {
		"required": fixed("Last name must be at least 2 characters"),
		"min":      fixed("Last name must be at least 2 characters"),
	},
	"phone": {
		"required": fixed("Phone number must be at least 10 digits"),
		tagPhone: func(fe validator.FieldError) string {
			raw, _ := fe.Value().(string)
			if !phonePattern.MatchString(raw) {
				return "Please enter a valid phone number"
			}
			return "Phone number must be at least 10 digits"
		},
	},
	"experience": {
		"required": fixed("Experience must be 0 or greater"),
		"min":      fixed("Experience must be 0 or greater"),
		"max":      fixed("Experience cannot exceed 50 years"),
	},
	"specialization": {
		"required": fixed("Please select a specialization"),
	},
	"bio": {
		"required": fixed("Bio must be at least 50 characters"),
		"min":      fixed("Bio must be at least 50 characters"),
		"max":      fixed("Bio cannot exceed 500 characters"),
	},
	"profilePhotoUrl": {
		tagNullableURL: fixed("Please upload a valid profile photo"),
	},
	"licenseType": {
		"required": fixed("Please select a license type"),
	},
	"licenseNumber": {
		"required": fixed("License number must be at least 5 characters"),
		"min":      fixed("License number must be at least 5 characters"),
	},
	"licenseState": {
		"required": fixed("Please select a state"),
	},
	"expirationDate": {
		"required": fixed("Please enter an expiration date"),
	},
	"licenseDocumentUrl": {
		tagNullableURL: fixed("Please upload a valid license document"),
	},
	"hourlyRate": {
		"min": fixed("Hourly rate must be at least $50"),
		"max": fixed("Hourly rate cannot exceed $10000"),
	},
	"schedule": {
		tagAvailability: fixed("Please set availability for at least one day"),
		tagTimeBlocks:   fixed("Each time block needs a start time before its end time"),
		tagUnknownDay: func(fe validator.FieldError) string {
			return "Unknown day in schedule: " + fe.Param()
		},
	},
}

// Validator runs the per-step field rules. It is pure: no I/O, and every
// call re-checks the whole payload.
type Validator struct {
	validate *validator.Validate
}

var _ therapist.StepValidator = (*Validator)(nil)

func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails on an empty tag or nil func.
	_ = v.RegisterValidation(tagPhone, validatePhone)
	_ = v.RegisterValidation(tagNullableURL, validateNullableURL, true)
	v.RegisterStructValidation(validateAvailabilityInput, therapist.AvailabilityInput{})
	return &Validator{validate: v}
}

func validatePhone(fl validator.FieldLevel) bool {
	raw := fl.Field().String()
	if !phonePattern.MatchString(raw) {
		return false
	}
	digits := 0
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= minPhoneDigits
}

// validateNullableURL accepts a nil pointer. A present value, including the
// empty string, must be an absolute http(s) URL.
func validateNullableURL(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			return true
		}
		field = field.Elem()
	}
	if field.Kind() != reflect.String {
		return false
	}
	u, err := url.Parse(field.String())
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func validateAvailabilityInput(sl validator.StructLevel) {
	in := sl.Current().Interface().(therapist.AvailabilityInput)
	if unknown := in.Schedule.UnknownKeys(); len(unknown) > 0 {
		sl.ReportError(in.Schedule, "schedule", "Schedule", tagUnknownDay, strings.Join(unknown, ","))
		return
	}
	if !in.Schedule.HasAvailability() {
		sl.ReportError(in.Schedule, "schedule", "Schedule", tagAvailability, "")
		return
	}
	if !blocksWellFormed(in.Schedule) {
		sl.ReportError(in.Schedule, "schedule", "Schedule", tagTimeBlocks, "")
	}
}

// blocksWellFormed checks the clock format of enabled days. Overlapping
// blocks are allowed.
func blocksWellFormed(s schedule.Schedule) bool {
	for _, name := range schedule.Days {
		day, ok := s[name]
		if !ok || !day.Enabled {
			continue
		}
		for _, b := range day.TimeBlocks {
			start, err := schedule.ParseClock(b.StartTime)
			if err != nil {
				return false
			}
			end, err := schedule.ParseClock(b.EndTime)
			if err != nil || end <= start {
				return false
			}
		}
	}
	return true
}

func (v *Validator) ValidateBasicInfo(in therapist.BasicInfoInput) map[string]string {
	return v.run(in)
}

func (v *Validator) ValidateCredentials(in therapist.CredentialsInput) map[string]string {
	return v.run(in)
}

func (v *Validator) ValidateAvailability(in therapist.AvailabilityInput) map[string]string {
	return v.run(in)
}

// ValidatePayload dispatches on the payload variant. The payment step has no
// field rules.
func (v *Validator) ValidatePayload(p StepPayload) map[string]string {
	switch p := p.(type) {
	case BasicInfoPayload:
		return v.ValidateBasicInfo(p.BasicInfoInput)
	case CredentialsPayload:
		return v.ValidateCredentials(p.CredentialsInput)
	case AvailabilityPayload:
		return v.ValidateAvailability(p.AvailabilityInput)
	case PaymentPayload:
		return nil
	default:
		return map[string]string{"step": "Unknown onboarding step"}
	}
}

// run returns nil when s is valid, otherwise one message per field.
func (v *Validator) run(s interface{}) map[string]string {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		if _, seen := out[field]; seen {
			continue
		}
		out[field] = messageFor(fe)
	}
	return out
}

func messageFor(fe validator.FieldError) string {
	if byTag, ok := messages[fe.Field()]; ok {
		if fn, ok := byTag[fe.Tag()]; ok {
			return fn(fe)
		}
	}
	return "Invalid value for " + fe.Field()
}
