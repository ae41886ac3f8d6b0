package therapist

import (
	"context"

	"therapylink_backend/internal/user"

	"gorm.io/gorm"
)

// AccountLifecycle creates the empty profile for new therapist accounts and
// removes profile and slots when the account goes away.
type AccountLifecycle struct {
	repo Repository
}

var _ user.Lifecycle = (*AccountLifecycle)(nil)

func NewAccountLifecycle(repo Repository) *AccountLifecycle {
	return &AccountLifecycle{repo: repo}
}

func (l *AccountLifecycle) OnCreate(ctx context.Context, tx *gorm.DB, u *user.User) error {
	if !u.IsTherapist() {
		return nil
	}
	return l.repo.Create(ctx, tx, &Therapist{UserID: u.ID})
}

func (l *AccountLifecycle) OnDelete(ctx context.Context, tx *gorm.DB, u *user.User) error {
	return l.repo.DeleteByUserID(ctx, tx, u.ID)
}
