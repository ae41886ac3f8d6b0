package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"therapylink_backend/internal/common"
	"therapylink_backend/internal/firebase"
	"therapylink_backend/internal/platform/database/dbtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type mockIdentityProvider struct {
	mock.Mock
}

func (m *mockIdentityProvider) VerifyIDToken(ctx context.Context, idToken string) (*firebase.Identity, error) {
	args := m.Called(ctx, idToken)
	if id := args.Get(0); id != nil {
		return id.(*firebase.Identity), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockIdentityProvider) RevokeRefreshTokens(ctx context.Context, uid string) error {
	return m.Called(ctx, uid).Error(0)
}

// recordingLifecycle counts hook calls and can fail on demand.
type recordingLifecycle struct {
	created   []string
	deleted   []string
	createErr error
	deleteErr error
}

func (r *recordingLifecycle) OnCreate(_ context.Context, _ *gorm.DB, u *User) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.created = append(r.created, u.Role)
	return nil
}

func (r *recordingLifecycle) OnDelete(_ context.Context, _ *gorm.DB, u *User) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	r.deleted = append(r.deleted, u.FirebaseUID)
	return nil
}

// committedCleanup records, at AfterDelete time, whether the user row was
// still visible outside the delete transaction.
type committedCleanup struct {
	db          *gorm.DB
	calls       int
	rowsAtClean int64
	err         error
}

func (c *committedCleanup) OnCreate(context.Context, *gorm.DB, *User) error { return nil }
func (c *committedCleanup) OnDelete(context.Context, *gorm.DB, *User) error { return nil }

func (c *committedCleanup) AfterDelete(_ context.Context, u *User) error {
	c.calls++
	if err := c.db.Model(&User{}).Where("id = ?", u.ID).Count(&c.rowsAtClean).Error; err != nil {
		return err
	}
	return c.err
}

func newTestService(t *testing.T) (*ServiceImplementation, *mockIdentityProvider, *recordingLifecycle, *gorm.DB) {
	t.Helper()
	db := dbtest.Open(t, &User{})
	idp := &mockIdentityProvider{}
	lc := &recordingLifecycle{}
	svc := NewService(NewGORMRepository(db), idp, lc, zap.NewNop())
	return svc, idp, lc, db
}

func TestGetOrCreateFromIdentity_ProvisionsOnce(t *testing.T) {
	svc, _, lc, db := newTestService(t)
	ctx := context.Background()
	identity := &firebase.Identity{UID: "fb_1", Email: "t@example.com", FirstName: "Tara", LastName: "Ng", Role: "therapist"}

	first, err := svc.GetOrCreateFromIdentity(ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, common.RoleTherapist, first.Role)
	assert.True(t, first.IsTherapist())

	second, err := svc.GetOrCreateFromIdentity(ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&User{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
	assert.Equal(t, []string{common.RoleTherapist}, lc.created)
}

func TestGetOrCreateFromIdentity_DefaultsToPatient(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	u, err := svc.GetOrCreateFromIdentity(context.Background(), &firebase.Identity{UID: "fb_2", Role: "superuser"})
	require.NoError(t, err)
	assert.Equal(t, common.RolePatient, u.Role)
}

func TestGetOrCreateFromIdentity_LifecycleFailureRollsBack(t *testing.T) {
	svc, _, lc, db := newTestService(t)
	lc.createErr = errors.New("insert therapist failed")

	_, err := svc.GetOrCreateFromIdentity(context.Background(), &firebase.Identity{UID: "fb_3", Role: "THERAPIST"})
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGetOrCreateFromIdentity_RefreshesStaleLastLogin(t *testing.T) {
	svc, _, _, db := newTestService(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	u, err := svc.GetOrCreateFromIdentity(ctx, &firebase.Identity{UID: "fb_4"})
	require.NoError(t, err)

	svc.now = func() time.Time { return base.Add(2 * time.Hour) }
	_, err = svc.GetOrCreateFromIdentity(ctx, &firebase.Identity{UID: "fb_4"})
	require.NoError(t, err)

	var stored User
	require.NoError(t, db.First(&stored, "id = ?", u.ID).Error)
	require.NotNil(t, stored.LastLoginAt)
	assert.True(t, stored.LastLoginAt.Equal(base.Add(2*time.Hour)))
}

func TestDeleteAccount_RevokesThenDeletes(t *testing.T) {
	svc, idp, lc, db := newTestService(t)
	ctx := context.Background()

	u, err := svc.GetOrCreateFromIdentity(ctx, &firebase.Identity{UID: "fb_5"})
	require.NoError(t, err)

	idp.On("RevokeRefreshTokens", ctx, "fb_5").Return(nil).Once()
	require.NoError(t, svc.DeleteAccount(ctx, u.ID))

	_, err = svc.GetUserByID(ctx, u.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Equal(t, []string{"fb_5"}, lc.deleted)
	idp.AssertExpectations(t)

	var count int64
	require.NoError(t, db.Model(&User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestDeleteAccount_RevokeFailureKeepsUser(t *testing.T) {
	svc, idp, lc, _ := newTestService(t)
	ctx := context.Background()

	u, err := svc.GetOrCreateFromIdentity(ctx, &firebase.Identity{UID: "fb_6"})
	require.NoError(t, err)

	idp.On("RevokeRefreshTokens", ctx, "fb_6").Return(errors.New("firebase unavailable"))
	err = svc.DeleteAccount(ctx, u.ID)
	assert.ErrorIs(t, err, common.ErrExternalService)

	_, err = svc.GetUserByID(ctx, u.ID)
	assert.NoError(t, err)
	assert.Empty(t, lc.deleted)
}

func newServiceWithCleanup(t *testing.T) (*ServiceImplementation, *mockIdentityProvider, *recordingLifecycle, *committedCleanup) {
	t.Helper()
	db := dbtest.Open(t, &User{})
	idp := &mockIdentityProvider{}
	lc := &recordingLifecycle{}
	cleanup := &committedCleanup{db: db}
	svc := NewService(NewGORMRepository(db), idp, Lifecycles{lc, cleanup}, zap.NewNop())
	return svc, idp, lc, cleanup
}

func TestDeleteAccount_ExternalCleanupRunsAfterCommit(t *testing.T) {
	svc, idp, _, cleanup := newServiceWithCleanup(t)
	ctx := context.Background()

	u, err := svc.GetOrCreateFromIdentity(ctx, &firebase.Identity{UID: "fb_7"})
	require.NoError(t, err)
	idp.On("RevokeRefreshTokens", ctx, "fb_7").Return(nil).Once()

	require.NoError(t, svc.DeleteAccount(ctx, u.ID))
	assert.Equal(t, 1, cleanup.calls)
	assert.Zero(t, cleanup.rowsAtClean)
}

func TestDeleteAccount_RolledBackDeleteSkipsExternalCleanup(t *testing.T) {
	svc, idp, lc, cleanup := newServiceWithCleanup(t)
	ctx := context.Background()

	u, err := svc.GetOrCreateFromIdentity(ctx, &firebase.Identity{UID: "fb_8"})
	require.NoError(t, err)
	idp.On("RevokeRefreshTokens", ctx, "fb_8").Return(nil).Once()
	lc.deleteErr = errors.New("delete therapist rows failed")

	require.Error(t, svc.DeleteAccount(ctx, u.ID))
	assert.Zero(t, cleanup.calls)
	_, err = svc.GetUserByID(ctx, u.ID)
	assert.NoError(t, err)
}

func TestDeleteAccount_ExternalCleanupFailureStillSucceeds(t *testing.T) {
	svc, idp, _, cleanup := newServiceWithCleanup(t)
	ctx := context.Background()
	cleanup.err = errors.New("redis unavailable")

	u, err := svc.GetOrCreateFromIdentity(ctx, &firebase.Identity{UID: "fb_9"})
	require.NoError(t, err)
	idp.On("RevokeRefreshTokens", ctx, "fb_9").Return(nil).Once()

	require.NoError(t, svc.DeleteAccount(ctx, u.ID))
	assert.Equal(t, 1, cleanup.calls)
	_, err = svc.GetUserByID(ctx, u.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestNormalizeRole(t *testing.T) {
	assert.Equal(t, common.RoleTherapist, NormalizeRole(" therapist "))
	assert.Equal(t, common.RoleAdmin, NormalizeRole("ADMIN"))
	assert.Equal(t, common.RolePatient, NormalizeRole(""))
	assert.Equal(t, common.RolePatient, NormalizeRole("PATIENT"))
}
