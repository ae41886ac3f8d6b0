package payment

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
)

// ErrInvalidSignature is returned for payloads whose signature header is
// missing, malformed, expired or signed with another secret.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// Event types consumed by the reconciler.
const (
	EventAccountUpdated         = "account.updated"
	EventPaymentIntentSucceeded = "payment_intent.succeeded"
	EventPaymentIntentFailed    = "payment_intent.payment_failed"
	EventPaymentIntentCanceled  = "payment_intent.canceled"
	EventTransferCreated        = "transfer.created"
	EventTransferFailed         = "transfer.failed"
	EventPayoutPaid             = "payout.paid"
	EventPayoutFailed           = "payout.failed"
)

// Event is a verified provider event. Object holds the raw data.object.
type Event struct {
	ID     string
	Type   string
	Object json.RawMessage
}

// WebhookVerifier authenticates raw webhook deliveries.
type WebhookVerifier interface {
	Verify(payload []byte, signatureHeader string) (Event, error)
}

type StripeWebhookVerifier struct {
	secret string
}

func NewStripeWebhookVerifier(secret string) *StripeWebhookVerifier {
	return &StripeWebhookVerifier{secret: secret}
}

func (v *StripeWebhookVerifier) Verify(payload []byte, signatureHeader string) (Event, error) {
	if signatureHeader == "" {
		return Event{}, fmt.Errorf("%w: missing signature header", ErrInvalidSignature)
	}
	evt, err := webhook.ConstructEventWithOptions(payload, signatureHeader, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	var object json.RawMessage
	if evt.Data != nil {
		object = evt.Data.Raw
	}
	return Event{ID: evt.ID, Type: string(evt.Type), Object: object}, nil
}

// AccountStatusFromEvent decodes the account carried by an account.updated
// event.
func AccountStatusFromEvent(evt Event) (AccountStatus, error) {
	var acct stripe.Account
	if err := json.Unmarshal(evt.Object, &acct); err != nil {
		return AccountStatus{}, fmt.Errorf("decode account from event %s: %w", evt.ID, err)
	}
	if acct.ID == "" {
		return AccountStatus{}, fmt.Errorf("event %s carries no account id", evt.ID)
	}
	return statusFromAccount(&acct), nil
}

// PaymentIntentIDFromEvent decodes the id of the payment intent carried by a
// payment_intent.* event.
func PaymentIntentIDFromEvent(evt Event) (string, error) {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(evt.Object, &pi); err != nil {
		return "", fmt.Errorf("decode payment intent from event %s: %w", evt.ID, err)
	}
	if pi.ID == "" {
		return "", fmt.Errorf("event %s carries no payment intent id", evt.ID)
	}
	return pi.ID, nil
}
