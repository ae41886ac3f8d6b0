package therapist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"therapylink_backend/internal/common"
	"therapylink_backend/internal/payment"
	"therapylink_backend/internal/user"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

// Notifier receives therapist lifecycle events.
type Notifier interface {
	ActivationNotifier
	NotifyPaymentAccountLinked(ctx context.Context, userID, therapistID uuid.UUID) error
}

// Gateway persists onboarding steps for the authenticated therapist. Every
// call is scoped to the caller's own user and therapist rows.
type Gateway struct {
	users        user.Repository
	repo         Repository
	provider     payment.Provider
	verification *Verification
	notifier     Notifier
	logger       *zap.Logger
}

func NewGateway(users user.Repository, repo Repository, provider payment.Provider, verification *Verification, notifier Notifier, logger *zap.Logger) *Gateway {
	return &Gateway{
		users:        users,
		repo:         repo,
		provider:     provider,
		verification: verification,
		notifier:     notifier,
		logger:       logger.Named("Gateway"),
	}
}

// scope resolves the caller. A missing user is 401; a user without a
// therapist role or record is 404.
func (g *Gateway) scope(ctx context.Context, userID uuid.UUID) (*user.User, *Therapist, error) {
	u, err := g.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil, common.ErrUnauthorized.WithDetails("User not found.")
		}
		return nil, nil, fmt.Errorf("load user: %w", err)
	}
	if !u.IsTherapist() {
		return nil, nil, common.ErrNotFound.WithDetails("Therapist profile not found.")
	}
	t, err := g.repo.FindByUserID(ctx, u.ID)
	if err != nil {
		return nil, nil, err
	}
	return u, t, nil
}

func (g *Gateway) SaveBasicInfo(ctx context.Context, userID uuid.UUID, in BasicInfoInput) error {
	u, t, err := g.scope(ctx, userID)
	if err != nil {
		return err
	}

	profileSlug, err := g.uniqueSlug(ctx, t, in.FirstName, in.LastName)
	if err != nil {
		return err
	}

	experience := 0
	if in.Experience != nil {
		experience = *in.Experience
	}

	update := BasicInfoUpdate{
		FirstName:       strings.TrimSpace(in.FirstName),
		LastName:        strings.TrimSpace(in.LastName),
		Phone:           strings.TrimSpace(in.Phone),
		Bio:             in.Bio,
		Specialization:  in.SpecializationList(),
		Experience:      experience,
		Slug:            profileSlug,
		ProfilePhotoURL: in.ProfilePhotoURL,
	}
	if err := g.repo.UpdateBasicInfo(ctx, t, update); err != nil {
		g.logger.Error("Failed to save basic info", zap.Error(err), zap.String("userID", u.ID.String()))
		return err
	}
	return nil
}

func (g *Gateway) uniqueSlug(ctx context.Context, t *Therapist, first, last string) (string, error) {
	base := slug.Make(strings.TrimSpace(first + " " + last))
	if base == "" {
		base = "therapist"
	}
	taken, err := g.repo.SlugTaken(ctx, base, t.ID)
	if err != nil {
		return "", err
	}
	if !taken {
		return base, nil
	}
	return base + "-" + t.ID.String()[:8], nil
}

// ParseExpirationDate accepts a calendar date or an RFC 3339 timestamp.
func ParseExpirationDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if d, err := time.Parse(expirationDateLayout, raw); err == nil {
		return d, nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
	}
	y, m, d := ts.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

// SaveCredentials rejects an unparseable expiration date before touching
// the record.
func (g *Gateway) SaveCredentials(ctx context.Context, userID uuid.UUID, in CredentialsInput) error {
	_, t, err := g.scope(ctx, userID)
	if err != nil {
		return err
	}

	expires, err := ParseExpirationDate(in.ExpirationDate)
	if err != nil {
		return common.NewValidationAPIError(map[string]string{"expirationDate": "Please enter a valid expiration date"})
	}

	return g.repo.UpdateCredentials(ctx, t.ID, CredentialsUpdate{
		LicenseType:              in.LicenseType,
		LicenseNumber:            in.LicenseNumber,
		LicenseState:             in.LicenseState,
		ExpirationDate:           expires,
		LicenseDocumentURL:       in.LicenseDocumentURL,
		AdditionalCertifications: in.AdditionalCertifications,
	})
}

// SaveAvailability replaces the stored slot set with the one derived from
// the schedule. Saving the same schedule twice yields the same rows.
func (g *Gateway) SaveAvailability(ctx context.Context, userID uuid.UUID, in AvailabilityInput) error {
	_, t, err := g.scope(ctx, userID)
	if err != nil {
		return err
	}
	slots := in.Schedule.Slots()
	if len(slots) == 0 {
		// Replacing with nothing would wipe the stored schedule.
		return common.NewValidationAPIError(map[string]string{"schedule": "Please set availability for at least one day"})
	}
	return g.repo.ReplaceAvailability(ctx, t.ID, slots, in.HourlyRate)
}

// CreateOrFetchPaymentAccount creates the connected account on first use and
// always returns a fresh onboarding link. The account id is stored before
// the link is requested so a link failure never orphans the account.
func (g *Gateway) CreateOrFetchPaymentAccount(ctx context.Context, userID uuid.UUID) (*PaymentAccountResult, error) {
	u, t, err := g.scope(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := &PaymentAccountResult{}
	if t.StripeAccountID != nil && *t.StripeAccountID != "" {
		result.AccountID = *t.StripeAccountID
	} else {
		accountID, err := g.provider.CreateAccount(ctx, u.Email)
		if err != nil {
			g.logger.Error("Payment provider failed to create account",
				zap.Error(err), zap.String("therapistID", t.ID.String()))
			return nil, common.ErrExternalService.WithDetails("Could not create payment account.")
		}
		if err := g.repo.SetStripeAccountID(ctx, t.ID, accountID); err != nil {
			g.logger.Error("Created payment account but failed to store its id",
				zap.Error(err), zap.String("accountID", accountID), zap.String("therapistID", t.ID.String()))
			return nil, err
		}
		t.StripeAccountID = &accountID
		result.AccountID = accountID
		result.Created = true

		if g.notifier != nil {
			if err := g.notifier.NotifyPaymentAccountLinked(ctx, u.ID, t.ID); err != nil {
				g.logger.Warn("Failed to notify payment account creation", zap.Error(err))
			}
		}
	}

	url, err := g.provider.CreateOnboardingLink(ctx, result.AccountID)
	if err != nil {
		g.logger.Error("Payment provider failed to create onboarding link",
			zap.Error(err), zap.String("accountID", result.AccountID))
		return nil, common.ErrExternalService.WithDetails("Could not create payment onboarding link.")
	}
	result.URL = url
	return result, nil
}

// CheckAndFinalizeCompletion asks the provider for the account status and
// writes the verification flags from it.
func (g *Gateway) CheckAndFinalizeCompletion(ctx context.Context, userID uuid.UUID) (bool, error) {
	_, t, err := g.scope(ctx, userID)
	if err != nil {
		return false, err
	}
	if t.StripeAccountID == nil || *t.StripeAccountID == "" {
		return false, common.ErrBadRequest.WithDetails("No payment account has been created yet.")
	}

	status, err := g.provider.GetAccountStatus(ctx, *t.StripeAccountID)
	if err != nil {
		g.logger.Error("Payment provider failed to return account status",
			zap.Error(err), zap.String("accountID", *t.StripeAccountID))
		return false, common.ErrExternalService.WithDetails("Could not retrieve payment account status.")
	}
	return g.verification.Apply(ctx, t, status)
}

func (g *Gateway) GetProfile(ctx context.Context, userID uuid.UUID) (*ProfileResponse, error) {
	u, t, err := g.scope(ctx, userID)
	if err != nil {
		return nil, err
	}
	full, err := g.repo.FindWithAvailability(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	resp := ToProfileResponse(u, full)
	return &resp, nil
}

func (g *Gateway) GetBasicInfo(ctx context.Context, userID uuid.UUID) (*BasicInfoResponse, error) {
	u, t, err := g.scope(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &BasicInfoResponse{
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Phone:           t.Phone,
		Experience:      t.Experience,
		Specialization:  append([]string{}, t.Specialization...),
		Bio:             t.Bio,
		ProfilePhotoURL: t.ProfilePhotoURL,
	}, nil
}
