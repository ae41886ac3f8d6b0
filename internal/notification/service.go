package notification

import (
	"context"
	"errors"

	"therapylink_backend/internal/common"
	"therapylink_backend/internal/user"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service interface {
	CreateNotification(ctx context.Context, userID uuid.UUID, notifType NotificationType, message string, relatedTherapistID *uuid.UUID) (*Notification, error)
	GetNotificationsForUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]Notification, *common.Pagination, error)
	MarkNotificationAsRead(ctx context.Context, notificationID uuid.UUID, userID uuid.UUID) error
	MarkAllUserNotificationsAsRead(ctx context.Context, userID uuid.UUID) (int64, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
}

type ServiceImplementation struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger *zap.Logger) *ServiceImplementation {
	return &ServiceImplementation{repo: repo, logger: logger}
}

func (s *ServiceImplementation) CreateNotification(ctx context.Context, userID uuid.UUID, notifType NotificationType, message string, relatedTherapistID *uuid.UUID) (*Notification, error) {
	n := &Notification{
		UserID:             userID,
		Type:               notifType,
		Message:            message,
		RelatedTherapistID: relatedTherapistID,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		s.logger.Error("Failed to create notification", zap.Error(err),
			zap.String("userID", userID.String()), zap.String("type", string(notifType)))
		return nil, common.ErrInternalServer.WithDetails("Could not create notification.")
	}
	return n, nil
}

func (s *ServiceImplementation) GetNotificationsForUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]Notification, *common.Pagination, error) {
	notifications, pagination, err := s.repo.GetByUserID(ctx, userID, page, pageSize)
	if err != nil {
		s.logger.Error("Failed to list notifications", zap.Error(err), zap.String("userID", userID.String()))
		return nil, nil, common.ErrInternalServer.WithDetails("Could not retrieve notifications.")
	}
	return notifications, pagination, nil
}

func (s *ServiceImplementation) MarkNotificationAsRead(ctx context.Context, notificationID uuid.UUID, userID uuid.UUID) error {
	err := s.repo.MarkAsRead(ctx, notificationID, userID)
	if err == nil {
		return nil
	}
	if errors.Is(err, common.ErrNotFound) {
		return err
	}
	s.logger.Error("Failed to mark notification as read", zap.Error(err), zap.String("notificationID", notificationID.String()))
	return common.ErrInternalServer.WithDetails("Could not mark notification as read.")
}

func (s *ServiceImplementation) MarkAllUserNotificationsAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := s.repo.MarkAllAsRead(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to mark all notifications as read", zap.Error(err), zap.String("userID", userID.String()))
		return 0, common.ErrInternalServer.WithDetails("Could not mark all notifications as read.")
	}
	return count, nil
}

func (s *ServiceImplementation) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to count unread notifications", zap.Error(err), zap.String("userID", userID.String()))
		return 0, common.ErrInternalServer.WithDetails("Could not count notifications.")
	}
	return count, nil
}

// NotifyActivationChanged tells a therapist that their profile went live or
// was taken offline after a payment-account status change.
func (s *ServiceImplementation) NotifyActivationChanged(ctx context.Context, userID, therapistID uuid.UUID, active bool) error {
	notifType, message := TherapistDeactivated, "Your payout account needs attention. Your profile is hidden until it is verified again."
	if active {
		notifType, message = TherapistActivated, "Your payout account is verified. Your profile is now live."
	}
	_, err := s.CreateNotification(ctx, userID, notifType, message, &therapistID)
	return err
}

// NotifyPaymentAccountLinked records that a payout account was created for
// the therapist.
func (s *ServiceImplementation) NotifyPaymentAccountLinked(ctx context.Context, userID, therapistID uuid.UUID) error {
	_, err := s.CreateNotification(ctx, userID, PaymentAccountLinked,
		"Your payout account was created. Finish the verification steps to go live.", &therapistID)
	return err
}

// AccountLifecycle removes a user's notifications when the account is deleted.
type AccountLifecycle struct {
	repo Repository
}

func NewAccountLifecycle(repo Repository) *AccountLifecycle {
	return &AccountLifecycle{repo: repo}
}

var _ user.Lifecycle = (*AccountLifecycle)(nil)

func (l *AccountLifecycle) OnCreate(context.Context, *gorm.DB, *user.User) error { return nil }

func (l *AccountLifecycle) OnDelete(ctx context.Context, tx *gorm.DB, u *user.User) error {
	return l.repo.DeleteByUserID(ctx, tx, u.ID)
}
