package therapist

import (
	"context"

	"therapylink_backend/internal/payment"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ActivationNotifier is told when a therapist's is_active flag flips.
type ActivationNotifier interface {
	NotifyActivationChanged(ctx context.Context, userID, therapistID uuid.UUID, active bool) error
}

// Verification is the only writer of the verification flags. The webhook
// path, the completion check and the sweep job all go through Apply.
type Verification struct {
	repo     Repository
	notifier ActivationNotifier
	logger   *zap.Logger
}

func NewVerification(repo Repository, notifier ActivationNotifier, logger *zap.Logger) *Verification {
	return &Verification{repo: repo, notifier: notifier, logger: logger.Named("Verification")}
}

// Apply writes the flags computed from status and returns the computed
// completion. Repeated statuses are harmless: a notification is only sent
// when the stored value actually changes.
func (v *Verification) Apply(ctx context.Context, t *Therapist, status payment.AccountStatus) (bool, error) {
	complete := payment.IsOnboardingComplete(status)

	changed, err := v.repo.SetVerificationFlags(ctx, t.ID, complete)
	if err != nil {
		return false, err
	}
	t.StripeOnboardingComplete, t.OnboardingComplete, t.IsActive = complete, complete, complete

	if !changed {
		return complete, nil
	}

	v.logger.Info("Therapist activation changed",
		zap.String("therapistID", t.ID.String()),
		zap.String("accountID", status.AccountID),
		zap.Bool("active", complete),
	)
	if v.notifier != nil {
		if err := v.notifier.NotifyActivationChanged(ctx, t.UserID, t.ID, complete); err != nil {
			// The flags are already stored; a lost notification is not retried.
			v.logger.Warn("Failed to notify activation change", zap.Error(err), zap.String("therapistID", t.ID.String()))
		}
	}
	return complete, nil
}
