package payment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79/webhook"
)

const testSecret = "whsec_test_secret"

func signed(t *testing.T, payload string, secret string, at time.Time) string {
	t.Helper()
	sp := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    secret,
		Timestamp: at,
	})
	return sp.Header
}

const accountUpdatedPayload = `{
  "id": "evt_1",
  "object": "event",
  "type": "account.updated",
  "data": {"object": {"id": "acct_123", "object": "account", "charges_enabled": true, "payouts_enabled": false, "details_submitted": true}}
}`

func TestVerify_ValidSignature(t *testing.T) {
	v := NewStripeWebhookVerifier(testSecret)

	evt, err := v.Verify([]byte(accountUpdatedPayload), signed(t, accountUpdatedPayload, testSecret, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, "evt_1", evt.ID)
	assert.Equal(t, EventAccountUpdated, evt.Type)

	status, err := AccountStatusFromEvent(evt)
	require.NoError(t, err)
	assert.Equal(t, AccountStatus{AccountID: "acct_123", ChargesEnabled: true, PayoutsEnabled: false, DetailsSubmitted: true}, status)
	assert.False(t, IsOnboardingComplete(status))
}

func TestVerify_RejectsBadSignatures(t *testing.T) {
	v := NewStripeWebhookVerifier(testSecret)

	cases := map[string]string{
		"missing":      "",
		"garbage":      "not-a-signature",
		"wrong secret": signed(t, accountUpdatedPayload, "whsec_other", time.Now()),
		"expired":      signed(t, accountUpdatedPayload, testSecret, time.Now().Add(-time.Hour)),
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify([]byte(accountUpdatedPayload), header)
			assert.ErrorIs(t, err, ErrInvalidSignature)
		})
	}
}

func TestVerify_TamperedPayload(t *testing.T) {
	v := NewStripeWebhookVerifier(testSecret)
	header := signed(t, accountUpdatedPayload, testSecret, time.Now())

	tampered := []byte(accountUpdatedPayload[:len(accountUpdatedPayload)-1] + " }")
	_, err := v.Verify(tampered, header)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestPaymentIntentIDFromEvent(t *testing.T) {
	id, err := PaymentIntentIDFromEvent(Event{ID: "evt_2", Object: []byte(`{"id":"pi_42","object":"payment_intent"}`)})
	require.NoError(t, err)
	assert.Equal(t, "pi_42", id)

	_, err = PaymentIntentIDFromEvent(Event{ID: "evt_3", Object: []byte(`{}`)})
	assert.Error(t, err)
}

func TestIsOnboardingComplete(t *testing.T) {
	assert.True(t, IsOnboardingComplete(AccountStatus{ChargesEnabled: true, PayoutsEnabled: true}))
	assert.False(t, IsOnboardingComplete(AccountStatus{ChargesEnabled: true}))
	assert.False(t, IsOnboardingComplete(AccountStatus{PayoutsEnabled: true, DetailsSubmitted: true}))
}
