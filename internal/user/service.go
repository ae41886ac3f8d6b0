package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"therapylink_backend/internal/common"
	"therapylink_backend/internal/firebase"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// lastLoginResolution limits how often an authenticated request rewrites
// last_login_at.
const lastLoginResolution = time.Hour

// Lifecycle lets other modules create or remove their rows in the same
// transaction as the user row.
type Lifecycle interface {
	OnCreate(ctx context.Context, tx *gorm.DB, u *User) error
	OnDelete(ctx context.Context, tx *gorm.DB, u *User) error
}

// Lifecycles runs each hook in order, stopping at the first error.
type Lifecycles []Lifecycle

func (ls Lifecycles) OnCreate(ctx context.Context, tx *gorm.DB, u *User) error {
	for _, l := range ls {
		if err := l.OnCreate(ctx, tx, u); err != nil {
			return err
		}
	}
	return nil
}

func (ls Lifecycles) OnDelete(ctx context.Context, tx *gorm.DB, u *User) error {
	for _, l := range ls {
		if err := l.OnDelete(ctx, tx, u); err != nil {
			return err
		}
	}
	return nil
}

// AfterDelete runs the PostDeleteHook of every member that has one. All
// members run; their errors are joined.
func (ls Lifecycles) AfterDelete(ctx context.Context, u *User) error {
	var errs []error
	for _, l := range ls {
		if hook, ok := l.(PostDeleteHook); ok {
			if err := hook.AfterDelete(ctx, u); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// PostDeleteHook is implemented by lifecycles that keep state outside the
// database. AfterDelete runs only once the delete transaction has committed.
type PostDeleteHook interface {
	AfterDelete(ctx context.Context, u *User) error
}

// Service is the identity-record API used by the auth middleware and /users.
type Service interface {
	GetOrCreateFromIdentity(ctx context.Context, identity *firebase.Identity) (*User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	DeleteAccount(ctx context.Context, id uuid.UUID) error
}

// ServiceImplementation implements Service.
type ServiceImplementation struct {
	repo      Repository
	identity  firebase.IdentityProvider
	lifecycle Lifecycle
	logger    *zap.Logger
	now       func() time.Time
}

var _ Service = (*ServiceImplementation)(nil)

// NewService creates a new user service.
func NewService(repo Repository, identity firebase.IdentityProvider, lifecycle Lifecycle, logger *zap.Logger) *ServiceImplementation {
	return &ServiceImplementation{
		repo:      repo,
		identity:  identity,
		lifecycle: lifecycle,
		logger:    logger.Named("UserService"),
		now:       time.Now,
	}
}

// GetOrCreateFromIdentity returns the local user for a verified identity,
// creating it (and its role-specific rows) on first sight.
func (s *ServiceImplementation) GetOrCreateFromIdentity(ctx context.Context, identity *firebase.Identity) (*User, error) {
	existing, err := s.repo.FindByFirebaseUID(ctx, identity.UID)
	if err == nil {
		s.touchLastLogin(ctx, existing)
		return existing, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		s.logger.Error("Error finding user by Firebase UID", zap.Error(err), zap.String("firebaseUID", identity.UID))
		return nil, fmt.Errorf("find user by firebase uid: %w", err)
	}

	now := s.now()
	newUser := &User{
		FirebaseUID: identity.UID,
		Email:       identity.Email,
		FirstName:   identity.FirstName,
		LastName:    identity.LastName,
		Role:        NormalizeRole(identity.Role),
		LastLoginAt: &now,
	}

	err = s.repo.Create(ctx, newUser, func(tx *gorm.DB) error {
		if s.lifecycle == nil {
			return nil
		}
		return s.lifecycle.OnCreate(ctx, tx, newUser)
	})
	if err != nil {
		// Two first requests raced; the other one created the row.
		if errors.Is(err, common.ErrConflict) {
			return s.repo.FindByFirebaseUID(ctx, identity.UID)
		}
		s.logger.Error("Failed to create user from identity", zap.Error(err), zap.String("firebaseUID", identity.UID))
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("Provisioned new user from identity provider",
		zap.String("userID", newUser.ID.String()),
		zap.String("role", newUser.Role),
	)
	return newUser, nil
}

func (s *ServiceImplementation) touchLastLogin(ctx context.Context, u *User) {
	now := s.now()
	if u.LastLoginAt != nil && now.Sub(*u.LastLoginAt) < lastLoginResolution {
		return
	}
	if err := s.repo.TouchLastLogin(ctx, u.ID, now); err != nil {
		s.logger.Warn("Failed to update last login time", zap.Error(err), zap.String("userID", u.ID.String()))
		return
	}
	u.LastLoginAt = &now
}

func (s *ServiceImplementation) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			s.logger.Error("Error finding user by ID", zap.Error(err), zap.String("userID", id.String()))
		}
		return nil, err
	}
	return u, nil
}

// DeleteAccount revokes the user's sessions at the identity provider, then
// removes the user and everything hanging off it.
func (s *ServiceImplementation) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.identity.RevokeRefreshTokens(ctx, u.FirebaseUID); err != nil {
		return common.ErrExternalService.WithDetails("Could not revoke sessions at the identity provider.")
	}

	err = s.repo.Delete(ctx, u, func(tx *gorm.DB) error {
		if s.lifecycle == nil {
			return nil
		}
		return s.lifecycle.OnDelete(ctx, tx, u)
	})
	if err != nil {
		s.logger.Error("Failed to delete user account", zap.Error(err), zap.String("userID", id.String()))
		return fmt.Errorf("delete user: %w", err)
	}

	if hook, ok := s.lifecycle.(PostDeleteHook); ok {
		if err := hook.AfterDelete(ctx, u); err != nil {
			s.logger.Warn("Post-delete cleanup failed", zap.Error(err), zap.String("userID", id.String()))
		}
	}

	s.logger.Info("User account deleted", zap.String("userID", id.String()))
	return nil
}
