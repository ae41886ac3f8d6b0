package reconciler

import (
	"context"
	"errors"
	"fmt"

	"therapylink_backend/internal/appointment"
	"therapylink_backend/internal/common"
	"therapylink_backend/internal/payment"
	"therapylink_backend/internal/therapist"

	"go.uber.org/zap"
)

// Reconciler applies asynchronous payment-provider state to local records.
// Account status is last-write-wins: every delivery overwrites the flags
// with the value computed from its own payload.
type Reconciler struct {
	therapists   therapist.Repository
	verification *therapist.Verification
	provider     payment.Provider
	appointments appointment.Repository
	logger       *zap.Logger
}

func New(therapists therapist.Repository, verification *therapist.Verification, provider payment.Provider, appointments appointment.Repository, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		therapists:   therapists,
		verification: verification,
		provider:     provider,
		appointments: appointments,
		logger:       logger.Named("Reconciler"),
	}
}

// HandleAccountUpdated writes the verification flags of the therapist owning
// the account. Unknown accounts are dropped without error.
func (r *Reconciler) HandleAccountUpdated(ctx context.Context, status payment.AccountStatus) error {
	t, err := r.therapists.FindByStripeAccountID(ctx, status.AccountID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			r.logger.Info("Ignoring account update for unknown account", zap.String("accountID", status.AccountID))
			return nil
		}
		return err
	}
	_, err = r.verification.Apply(ctx, t, status)
	return err
}

// Dispatch routes a verified event to its handler. Event types without a
// handler are acknowledged.
func (r *Reconciler) Dispatch(ctx context.Context, evt payment.Event) error {
	switch evt.Type {
	case payment.EventAccountUpdated:
		status, err := payment.AccountStatusFromEvent(evt)
		if err != nil {
			return err
		}
		return r.HandleAccountUpdated(ctx, status)

	case payment.EventPaymentIntentSucceeded:
		return r.setAppointmentStatus(ctx, evt, appointment.StatusConfirmed)

	case payment.EventPaymentIntentFailed, payment.EventPaymentIntentCanceled:
		return r.setAppointmentStatus(ctx, evt, appointment.StatusCancelled)

	case payment.EventTransferCreated, payment.EventTransferFailed,
		payment.EventPayoutPaid, payment.EventPayoutFailed:
		r.logger.Info("Payment provider event received", zap.String("type", evt.Type), zap.String("eventID", evt.ID))
		return nil

	default:
		r.logger.Debug("Unhandled payment provider event", zap.String("type", evt.Type), zap.String("eventID", evt.ID))
		return nil
	}
}

func (r *Reconciler) setAppointmentStatus(ctx context.Context, evt payment.Event, status appointment.Status) error {
	intentID, err := payment.PaymentIntentIDFromEvent(evt)
	if err != nil {
		return err
	}
	matched, err := r.appointments.UpdateStatusByPaymentIntent(ctx, intentID, status)
	if err != nil {
		return err
	}
	if !matched {
		r.logger.Info("No appointment for payment intent", zap.String("paymentIntentID", intentID), zap.String("type", evt.Type))
		return nil
	}
	r.logger.Info("Appointment status updated",
		zap.String("paymentIntentID", intentID),
		zap.String("status", string(status)),
	)
	return nil
}

// SweepPending pulls the account status of every therapist that linked an
// account but is not verified yet. It returns how many became complete.
// A failing account does not stop the sweep.
func (r *Reconciler) SweepPending(ctx context.Context) (int, error) {
	pending, err := r.therapists.ListPendingVerification(ctx)
	if err != nil {
		return 0, err
	}

	completed := 0
	var errs []error
	for i := range pending {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		t := &pending[i]
		status, err := r.provider.GetAccountStatus(ctx, *t.StripeAccountID)
		if err != nil {
			r.logger.Warn("Failed to fetch account status", zap.String("therapistID", t.ID.String()), zap.Error(err))
			errs = append(errs, fmt.Errorf("therapist %s: %w", t.ID, err))
			continue
		}
		done, err := r.verification.Apply(ctx, t, status)
		if err != nil {
			errs = append(errs, fmt.Errorf("therapist %s: %w", t.ID, err))
			continue
		}
		if done {
			completed++
		}
	}
	return completed, errors.Join(errs...)
}
