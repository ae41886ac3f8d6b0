package appointment

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

type Repository interface {
	// UpdateStatusByPaymentIntent sets the status of the appointment paid by
	// paymentIntentID and reports whether one matched.
	UpdateStatusByPaymentIntent(ctx context.Context, paymentIntentID string, status Status) (bool, error)
}

type gormRepository struct {
	db *gorm.DB
}

func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) UpdateStatusByPaymentIntent(ctx context.Context, paymentIntentID string, status Status) (bool, error) {
	result := r.db.WithContext(ctx).Model(&Appointment{}).
		Where("payment_intent_id = ?", paymentIntentID).
		Update("status", status)
	if result.Error != nil {
		return false, fmt.Errorf("update appointment for payment intent %s: %w", paymentIntentID, result.Error)
	}
	return result.RowsAffected > 0, nil
}
