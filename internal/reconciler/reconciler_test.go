package reconciler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"therapylink_backend/internal/appointment"
	"therapylink_backend/internal/common"
	"therapylink_backend/internal/notification"
	"therapylink_backend/internal/payment"
	"therapylink_backend/internal/payment/paymenttest"
	"therapylink_backend/internal/platform/database/dbtest"
	"therapylink_backend/internal/therapist"
	"therapylink_backend/internal/user"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	reconciler *Reconciler
	repo       therapist.Repository
	provider   *paymenttest.MockProvider
	db         *gorm.DB
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t, &user.User{}, &therapist.Therapist{}, &therapist.Availability{},
		&appointment.Appointment{}, &notification.Notification{})
	repo := therapist.NewGORMRepository(db)
	notifier := notification.NewService(notification.NewGORMRepository(db), zap.NewNop())
	verification := therapist.NewVerification(repo, notifier, zap.NewNop())
	provider := &paymenttest.MockProvider{}
	r := New(repo, verification, provider, appointment.NewGORMRepository(db), zap.NewNop())
	return &fixture{reconciler: r, repo: repo, provider: provider, db: db}
}

// linkedTherapist creates a therapist whose payment account id is accountID.
func (f *fixture) linkedTherapist(t *testing.T, accountID string) *therapist.Therapist {
	t.Helper()
	u := &user.User{FirebaseUID: "fb_" + accountID, Email: accountID + "@example.com", Role: common.RoleTherapist}
	require.NoError(t, f.db.Create(u).Error)
	th := &therapist.Therapist{UserID: u.ID}
	require.NoError(t, f.repo.Create(context.Background(), nil, th))
	if accountID != "" {
		require.NoError(t, f.repo.SetStripeAccountID(context.Background(), th.ID, accountID))
	}
	return th
}

func (f *fixture) reload(t *testing.T, id uuid.UUID) *therapist.Therapist {
	t.Helper()
	var th therapist.Therapist
	require.NoError(t, f.db.First(&th, "id = ?", id).Error)
	return &th
}

func (f *fixture) notifications(t *testing.T) []notification.Notification {
	t.Helper()
	var out []notification.Notification
	require.NoError(t, f.db.Order("created_at").Find(&out).Error)
	return out
}

func accountEvent(t *testing.T, accountID string, charges, payouts bool) payment.Event {
	t.Helper()
	obj, err := json.Marshal(map[string]interface{}{
		"id":              accountID,
		"object":          "account",
		"charges_enabled": charges,
		"payouts_enabled": payouts,
	})
	require.NoError(t, err)
	return payment.Event{ID: "evt_" + uuid.NewString(), Type: payment.EventAccountUpdated, Object: obj}
}

func intentEvent(eventType, intentID string) payment.Event {
	return payment.Event{
		ID:     "evt_" + intentID,
		Type:   eventType,
		Object: json.RawMessage(fmt.Sprintf(`{"id":%q,"object":"payment_intent"}`, intentID)),
	}
}

func TestHandleAccountUpdated_UnknownAccountIsNoop(t *testing.T) {
	f := newFixture(t)

	err := f.reconciler.Dispatch(context.Background(), accountEvent(t, "acct_missing", true, true))
	require.NoError(t, err)

	var count int64
	require.NoError(t, f.db.Model(&therapist.Therapist{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Empty(t, f.notifications(t))
}

func TestHandleAccountUpdated_LastWriteWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	th := f.linkedTherapist(t, "acct_1")

	require.NoError(t, f.reconciler.Dispatch(ctx, accountEvent(t, "acct_1", true, true)))
	got := f.reload(t, th.ID)
	assert.True(t, got.IsActive)
	assert.True(t, got.OnboardingComplete)
	assert.True(t, got.StripeOnboardingComplete)

	require.NoError(t, f.reconciler.Dispatch(ctx, accountEvent(t, "acct_1", true, false)))
	got = f.reload(t, th.ID)
	assert.False(t, got.IsActive)
	assert.False(t, got.OnboardingComplete)
	assert.False(t, got.StripeOnboardingComplete)

	notes := f.notifications(t)
	require.Len(t, notes, 2)
	assert.Equal(t, notification.TherapistActivated, notes[0].Type)
	assert.Equal(t, notification.TherapistDeactivated, notes[1].Type)
}

func TestHandleAccountUpdated_DuplicateDeliveryNotifiesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.linkedTherapist(t, "acct_1")

	for i := 0; i < 3; i++ {
		require.NoError(t, f.reconciler.Dispatch(ctx, accountEvent(t, "acct_1", true, true)))
	}
	assert.Len(t, f.notifications(t), 1)
}

func TestDispatch_MalformedAccountEvent(t *testing.T) {
	f := newFixture(t)
	evt := payment.Event{ID: "evt_bad", Type: payment.EventAccountUpdated, Object: json.RawMessage(`{"object":"account"}`)}
	assert.Error(t, f.reconciler.Dispatch(context.Background(), evt))
}

func TestDispatch_PaymentIntentEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	newAppointment := func(intent string) *appointment.Appointment {
		start := time.Date(2026, 6, 1, 15, 0, 0, 0, time.UTC)
		a := &appointment.Appointment{
			TherapistID:     uuid.New(),
			PatientID:       uuid.New(),
			PaymentIntentID: &intent,
			Status:          appointment.StatusPending,
			StartsAt:        start,
			EndsAt:          start.Add(50 * time.Minute),
		}
		require.NoError(t, f.db.Create(a).Error)
		return a
	}
	paid := newAppointment("pi_paid")
	failed := newAppointment("pi_failed")
	canceled := newAppointment("pi_canceled")

	require.NoError(t, f.reconciler.Dispatch(ctx, intentEvent(payment.EventPaymentIntentSucceeded, "pi_paid")))
	require.NoError(t, f.reconciler.Dispatch(ctx, intentEvent(payment.EventPaymentIntentFailed, "pi_failed")))
	require.NoError(t, f.reconciler.Dispatch(ctx, intentEvent(payment.EventPaymentIntentCanceled, "pi_canceled")))
	require.NoError(t, f.reconciler.Dispatch(ctx, intentEvent(payment.EventPaymentIntentSucceeded, "pi_unknown")))

	status := func(id uuid.UUID) appointment.Status {
		var a appointment.Appointment
		require.NoError(t, f.db.First(&a, "id = ?", id).Error)
		return a.Status
	}
	assert.Equal(t, appointment.StatusConfirmed, status(paid.ID))
	assert.Equal(t, appointment.StatusCancelled, status(failed.ID))
	assert.Equal(t, appointment.StatusCancelled, status(canceled.ID))
}

func TestDispatch_LogOnlyAndUnknownEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, typ := range []string{payment.EventTransferCreated, payment.EventPayoutFailed, "customer.created"} {
		assert.NoError(t, f.reconciler.Dispatch(ctx, payment.Event{ID: "evt", Type: typ, Object: json.RawMessage(`{}`)}))
	}
}

func TestSweepPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ready := f.linkedTherapist(t, "acct_ready")
	waiting := f.linkedTherapist(t, "acct_waiting")
	broken := f.linkedTherapist(t, "acct_broken")
	unlinked := f.linkedTherapist(t, "")

	f.provider.On("GetAccountStatus", mock.Anything, "acct_ready").
		Return(payment.AccountStatus{AccountID: "acct_ready", ChargesEnabled: true, PayoutsEnabled: true}, nil).Once()
	f.provider.On("GetAccountStatus", mock.Anything, "acct_waiting").
		Return(payment.AccountStatus{AccountID: "acct_waiting", ChargesEnabled: true}, nil).Once()
	f.provider.On("GetAccountStatus", mock.Anything, "acct_broken").
		Return(payment.AccountStatus{}, errors.New("rate limited")).Once()

	completed, err := f.reconciler.SweepPending(ctx)
	assert.Equal(t, 1, completed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), broken.ID.String())

	assert.True(t, f.reload(t, ready.ID).IsActive)
	assert.False(t, f.reload(t, waiting.ID).IsActive)
	assert.False(t, f.reload(t, unlinked.ID).IsActive)
	f.provider.AssertExpectations(t)

	// Completed therapists drop out of the next sweep.
	f.provider.On("GetAccountStatus", mock.Anything, "acct_waiting").
		Return(payment.AccountStatus{AccountID: "acct_waiting", ChargesEnabled: true}, nil).Once()
	f.provider.On("GetAccountStatus", mock.Anything, "acct_broken").
		Return(payment.AccountStatus{AccountID: "acct_broken"}, nil).Once()
	completed, err = f.reconciler.SweepPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, completed)
}
