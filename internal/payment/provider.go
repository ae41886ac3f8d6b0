// Package payment is the boundary to the payment provider used for
// therapist payouts.
package payment

import (
	"context"
	"errors"
)

// ErrProvider marks failures returned by the payment provider.
var ErrProvider = errors.New("payment provider call failed")

// AccountStatus is the subset of a connected account the onboarding flow
// cares about.
type AccountStatus struct {
	AccountID        string
	ChargesEnabled   bool
	PayoutsEnabled   bool
	DetailsSubmitted bool
}

// IsOnboardingComplete is the single completion predicate shared by the
// webhook path, the on-demand completion check and the sweep job.
func IsOnboardingComplete(s AccountStatus) bool {
	return s.ChargesEnabled && s.PayoutsEnabled
}

// Provider creates and inspects connected payout accounts.
type Provider interface {
	CreateAccount(ctx context.Context, email string) (accountID string, err error)
	CreateOnboardingLink(ctx context.Context, accountID string) (url string, err error)
	GetAccountStatus(ctx context.Context, accountID string) (AccountStatus, error)
}
