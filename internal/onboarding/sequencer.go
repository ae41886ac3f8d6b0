package onboarding

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"therapylink_backend/internal/common"
	"therapylink_backend/internal/therapist"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrStepNotReachable   = common.NewAPIError(http.StatusConflict, "STEP_NOT_REACHABLE", "Complete the previous onboarding steps first.")
	ErrPaymentNotVerified = common.NewAPIError(http.StatusConflict, "PAYMENT_NOT_VERIFIED", "Your payment account has not been verified yet.")
	ErrInvalidStep        = common.NewAPIError(http.StatusBadRequest, "INVALID_STEP", "There is no onboarding step to advance.")
)

// Persister writes validated step payloads to the therapist record.
// *therapist.Gateway implements it.
type Persister interface {
	SaveBasicInfo(ctx context.Context, userID uuid.UUID, in therapist.BasicInfoInput) error
	SaveCredentials(ctx context.Context, userID uuid.UUID, in therapist.CredentialsInput) error
	SaveAvailability(ctx context.Context, userID uuid.UUID, in therapist.AvailabilityInput) error
	CheckAndFinalizeCompletion(ctx context.Context, userID uuid.UUID) (bool, error)
}

var _ Persister = (*therapist.Gateway)(nil)

// Sequencer moves a draft through the onboarding steps. A step is marked
// completed only after its payload validated and persisted.
type Sequencer struct {
	validator *Validator
	persister Persister
	logger    *zap.Logger
	now       func() time.Time
}

func NewSequencer(validator *Validator, persister Persister, logger *zap.Logger) *Sequencer {
	return &Sequencer{
		validator: validator,
		persister: persister,
		logger:    logger.Named("Sequencer"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Reachable reports whether step may be submitted: it is the current step,
// or every step before it has been completed.
func Reachable(d *Draft, step Step) bool {
	if !step.Valid() {
		return false
	}
	if step == d.CurrentStep {
		return true
	}
	for s := StepBasicInfo; s < step; s++ {
		if !d.IsCompleted(s) {
			return false
		}
	}
	return true
}

// IsComplete reports whether the draft reached the terminal step.
func IsComplete(d *Draft) bool {
	return d.CurrentStep == StepComplete && d.IsCompleted(StepPayment)
}

// Advance validates and persists step and returns the updated draft. On any
// error d is returned untouched along with the error.
func (s *Sequencer) Advance(ctx context.Context, d *Draft, step Step) (*Draft, error) {
	if !step.Valid() {
		return d, ErrInvalidStep
	}
	if !Reachable(d, step) {
		return d, ErrStepNotReachable.WithDetails(map[string]interface{}{
			"step":           step,
			"currentStep":    d.CurrentStep,
			"completedSteps": d.CompletedSteps,
		})
	}

	payload, err := d.Payload(step)
	if err != nil {
		return d, err
	}
	if fields := s.validator.ValidatePayload(payload); len(fields) > 0 {
		return d, common.NewValidationAPIError(fields)
	}

	next := d.Clone()
	if err := s.persist(ctx, next, payload); err != nil {
		s.logger.Info("Onboarding step not persisted",
			zap.String("userID", d.UserID.String()),
			zap.Stringer("step", step),
			zap.Error(err),
		)
		return d, err
	}

	next.markCompleted(step)
	if step+1 > next.CurrentStep {
		next.CurrentStep = step + 1
	}
	next.UpdatedAt = s.now()

	s.logger.Debug("Onboarding step completed",
		zap.String("userID", d.UserID.String()),
		zap.Stringer("step", step),
		zap.Stringer("currentStep", next.CurrentStep),
	)
	return next, nil
}

// persist dispatches on the payload variant. It may update next with data
// returned by the gateway.
func (s *Sequencer) persist(ctx context.Context, next *Draft, payload StepPayload) error {
	switch p := payload.(type) {
	case BasicInfoPayload:
		return s.persister.SaveBasicInfo(ctx, next.UserID, p.BasicInfoInput)
	case CredentialsPayload:
		return s.persister.SaveCredentials(ctx, next.UserID, p.CredentialsInput)
	case AvailabilityPayload:
		return s.persister.SaveAvailability(ctx, next.UserID, p.AvailabilityInput)
	case PaymentPayload:
		complete, err := s.persister.CheckAndFinalizeCompletion(ctx, next.UserID)
		if err != nil {
			return err
		}
		if !complete {
			return ErrPaymentNotVerified
		}
		next.Payment.OnboardingComplete = true
		return nil
	default:
		return fmt.Errorf("unhandled step payload %T", payload)
	}
}

// Retreat moves back one step. Completed steps are kept.
func (s *Sequencer) Retreat(d *Draft) *Draft {
	next := d.Clone()
	if next.CurrentStep > StepBasicInfo {
		next.CurrentStep--
	}
	next.UpdatedAt = s.now()
	return next
}
