package onboarding

import (
	"fmt"
	"sort"
	"time"

	"therapylink_backend/internal/schedule"
	"therapylink_backend/internal/therapist"

	"github.com/google/uuid"
)

// Step numbers the onboarding states. StepComplete is terminal.
type Step int

const (
	StepBasicInfo Step = iota + 1
	StepCredentials
	StepAvailability
	StepPayment
	StepComplete
)

// DefaultHourlyRate seeds the availability step of a new draft.
const DefaultHourlyRate = 150

func (s Step) String() string {
	switch s {
	case StepBasicInfo:
		return "basic-info"
	case StepCredentials:
		return "credentials"
	case StepAvailability:
		return "availability"
	case StepPayment:
		return "payment"
	case StepComplete:
		return "complete"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// Valid reports whether s is a step that can be advanced.
func (s Step) Valid() bool {
	return s >= StepBasicInfo && s <= StepPayment
}

// PaymentState is the draft's view of the payment account link.
type PaymentState struct {
	StripeConnected    bool   `json:"stripeConnected"`
	StripeAccountID    string `json:"stripeAccountId,omitempty"`
	OnboardingComplete bool   `json:"onboardingComplete"`
}

// Draft is the in-progress onboarding submission of one therapist. It is not
// authoritative; the therapist record is once a step has been persisted.
type Draft struct {
	SessionID      uuid.UUID                   `json:"sessionId"`
	UserID         uuid.UUID                   `json:"userId"`
	CurrentStep    Step                        `json:"currentStep"`
	CompletedSteps []Step                      `json:"completedSteps"`
	BasicInfo      therapist.BasicInfoInput    `json:"basicInfo"`
	Credentials    therapist.CredentialsInput  `json:"credentials"`
	Availability   therapist.AvailabilityInput `json:"availability"`
	Payment        PaymentState                `json:"payment"`
	UpdatedAt      time.Time                   `json:"updatedAt"`
}

// NewDraft returns a draft at step 1 with every day disabled and the
// default hourly rate.
func NewDraft(userID uuid.UUID) *Draft {
	return &Draft{
		SessionID:      uuid.New(),
		UserID:         userID,
		CurrentStep:    StepBasicInfo,
		CompletedSteps: []Step{},
		Credentials: therapist.CredentialsInput{
			AdditionalCertifications: []therapist.Certification{},
		},
		Availability: therapist.AvailabilityInput{
			Schedule:   schedule.New(),
			HourlyRate: DefaultHourlyRate,
		},
		UpdatedAt: time.Now().UTC(),
	}
}

// Clone returns a deep copy. The sequencer works on clones so a failed
// advance leaves the caller's draft as it was.
func (d *Draft) Clone() *Draft {
	cp := *d
	cp.CompletedSteps = append([]Step{}, d.CompletedSteps...)

	if d.BasicInfo.Experience != nil {
		exp := *d.BasicInfo.Experience
		cp.BasicInfo.Experience = &exp
	}
	cp.BasicInfo.ProfilePhotoURL = cloneString(d.BasicInfo.ProfilePhotoURL)
	cp.Credentials.LicenseDocumentURL = cloneString(d.Credentials.LicenseDocumentURL)
	if d.Credentials.AdditionalCertifications != nil {
		cp.Credentials.AdditionalCertifications = append([]therapist.Certification{}, d.Credentials.AdditionalCertifications...)
	}
	cp.Availability.Schedule = d.Availability.Schedule.Clone()
	return &cp
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// IsCompleted reports whether step has been persisted successfully.
func (d *Draft) IsCompleted(step Step) bool {
	for _, s := range d.CompletedSteps {
		if s == step {
			return true
		}
	}
	return false
}

// markCompleted adds step to the completed set, keeping it sorted.
func (d *Draft) markCompleted(step Step) {
	if d.IsCompleted(step) {
		return
	}
	d.CompletedSteps = append(d.CompletedSteps, step)
	sort.Slice(d.CompletedSteps, func(i, j int) bool { return d.CompletedSteps[i] < d.CompletedSteps[j] })
}

// Normalize repairs a draft decoded from storage or a client merge.
func (d *Draft) Normalize() {
	if d.CurrentStep < StepBasicInfo {
		d.CurrentStep = StepBasicInfo
	}
	if d.CurrentStep > StepComplete {
		d.CurrentStep = StepComplete
	}
	if d.CompletedSteps == nil {
		d.CompletedSteps = []Step{}
	}
	if d.Availability.Schedule == nil {
		d.Availability.Schedule = schedule.New()
	} else {
		for _, day := range schedule.Days {
			if _, ok := d.Availability.Schedule[day]; !ok {
				d.Availability.Schedule[day] = schedule.DaySchedule{TimeBlocks: []schedule.TimeBlock{}}
			}
		}
	}
	if d.Credentials.AdditionalCertifications == nil {
		d.Credentials.AdditionalCertifications = []therapist.Certification{}
	}
}

// StepPayload is the data one step submits. Implementations are the four
// payload types below.
type StepPayload interface {
	Step() Step
	isStepPayload()
}

type BasicInfoPayload struct{ therapist.BasicInfoInput }

type CredentialsPayload struct{ therapist.CredentialsInput }

type AvailabilityPayload struct{ therapist.AvailabilityInput }

type PaymentPayload struct{ PaymentState }

func (BasicInfoPayload) Step() Step    { return StepBasicInfo }
func (CredentialsPayload) Step() Step  { return StepCredentials }
func (AvailabilityPayload) Step() Step { return StepAvailability }
func (PaymentPayload) Step() Step      { return StepPayment }

func (BasicInfoPayload) isStepPayload()    {}
func (CredentialsPayload) isStepPayload()  {}
func (AvailabilityPayload) isStepPayload() {}
func (PaymentPayload) isStepPayload()      {}

// Payload extracts the payload for step from the draft.
func (d *Draft) Payload(step Step) (StepPayload, error) {
	switch step {
	case StepBasicInfo:
		return BasicInfoPayload{d.BasicInfo}, nil
	case StepCredentials:
		return CredentialsPayload{d.Credentials}, nil
	case StepAvailability:
		return AvailabilityPayload{d.Availability}, nil
	case StepPayment:
		return PaymentPayload{d.Payment}, nil
	default:
		return nil, fmt.Errorf("no payload for %s", step)
	}
}
