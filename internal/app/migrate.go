package app

import (
	"fmt"

	"therapylink_backend/internal/appointment"
	"therapylink_backend/internal/notification"
	"therapylink_backend/internal/therapist"
	"therapylink_backend/internal/user"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Models lists every table owned by the service, parents first.
func Models() []interface{} {
	return []interface{}{
		&user.User{},
		&therapist.Therapist{},
		&therapist.Availability{},
		&appointment.Appointment{},
		&notification.Notification{},
	}
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	logger.Info("Database schema migrated", zap.Int("tables", len(Models())))
	return nil
}
