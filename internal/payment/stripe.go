package payment

import (
	"context"
	"fmt"
	"strings"

	"therapylink_backend/internal/config"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"go.uber.org/zap"
)

const accountLinkTypeOnboarding = "account_onboarding"

// StripeProvider implements Provider with Stripe Connect Express accounts.
type StripeProvider struct {
	api        *client.API
	country    string
	refreshURL string
	returnURL  string
	logger     *zap.Logger
}

// NewStripeProvider builds a client for the configured secret key. Account
// links send the therapist back to the web app's onboarding pages.
func NewStripeProvider(cfg *config.Config, logger *zap.Logger) *StripeProvider {
	api := &client.API{}
	api.Init(cfg.StripeSecretKey, nil)

	appURL := strings.TrimRight(cfg.AppURL, "/")
	return &StripeProvider{
		api:        api,
		country:    cfg.StripeAccountCountry,
		refreshURL: appURL + "/therapist/onboarding/payment",
		returnURL:  appURL + "/therapist/onboarding/complete",
		logger:     logger.Named("StripeProvider"),
	}
}

func (p *StripeProvider) CreateAccount(ctx context.Context, email string) (string, error) {
	params := &stripe.AccountParams{
		Type:         stripe.String(string(stripe.AccountTypeExpress)),
		Country:      stripe.String(p.country),
		Email:        stripe.String(email),
		BusinessType: stripe.String(string(stripe.AccountBusinessTypeIndividual)),
		Capabilities: &stripe.AccountCapabilitiesParams{
			CardPayments: &stripe.AccountCapabilitiesCardPaymentsParams{Requested: stripe.Bool(true)},
			Transfers:    &stripe.AccountCapabilitiesTransfersParams{Requested: stripe.Bool(true)},
		},
	}
	params.Context = ctx

	acct, err := p.api.Accounts.New(params)
	if err != nil {
		p.logger.Error("Failed to create connected account", zap.Error(err))
		return "", fmt.Errorf("%w: create account: %v", ErrProvider, err)
	}
	p.logger.Info("Created connected account", zap.String("accountID", acct.ID))
	return acct.ID, nil
}

func (p *StripeProvider) CreateOnboardingLink(ctx context.Context, accountID string) (string, error) {
	params := &stripe.AccountLinkParams{
		Account:    stripe.String(accountID),
		RefreshURL: stripe.String(p.refreshURL),
		ReturnURL:  stripe.String(p.returnURL),
		Type:       stripe.String(accountLinkTypeOnboarding),
	}
	params.Context = ctx

	link, err := p.api.AccountLinks.New(params)
	if err != nil {
		p.logger.Error("Failed to create account link", zap.String("accountID", accountID), zap.Error(err))
		return "", fmt.Errorf("%w: create account link: %v", ErrProvider, err)
	}
	return link.URL, nil
}

func (p *StripeProvider) GetAccountStatus(ctx context.Context, accountID string) (AccountStatus, error) {
	params := &stripe.AccountParams{}
	params.Context = ctx

	acct, err := p.api.Accounts.GetByID(accountID, params)
	if err != nil {
		p.logger.Error("Failed to retrieve connected account", zap.String("accountID", accountID), zap.Error(err))
		return AccountStatus{}, fmt.Errorf("%w: retrieve account: %v", ErrProvider, err)
	}
	return statusFromAccount(acct), nil
}

func statusFromAccount(acct *stripe.Account) AccountStatus {
	return AccountStatus{
		AccountID:        acct.ID,
		ChargesEnabled:   acct.ChargesEnabled,
		PayoutsEnabled:   acct.PayoutsEnabled,
		DetailsSubmitted: acct.DetailsSubmitted,
	}
}
