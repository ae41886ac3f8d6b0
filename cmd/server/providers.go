package main

import (
	"log"

	"therapylink_backend/internal/app"
	"therapylink_backend/internal/config"
	"therapylink_backend/internal/filestorage"
	"therapylink_backend/internal/notification"
	"therapylink_backend/internal/onboarding"
	"therapylink_backend/internal/payment"
	"therapylink_backend/internal/platform/cache"
	"therapylink_backend/internal/platform/database"
	"therapylink_backend/internal/platform/logger"
	"therapylink_backend/internal/therapist"
	"therapylink_backend/internal/user"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// provideDatabase opens the pool and migrates when DB_AUTO_MIGRATE is set.
func provideDatabase(cfg *config.Config, logger *zap.Logger) (*gorm.DB, func(), error) {
	db, err := database.NewGORM(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	if cfg.DBAutoMigrate {
		if err := app.Migrate(db, logger); err != nil {
			database.CloseGORMDB(db, logger)
			return nil, nil, err
		}
	}
	return db, func() { database.CloseGORMDB(db, logger) }, nil
}

func provideRedis(cfg *config.Config, logger *zap.Logger) (*redis.Client, func(), error) {
	client, err := cache.NewRedisClient(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return client, func() { cache.CloseRedis(client, logger) }, nil
}

func provideDraftStore(client *redis.Client, cfg *config.Config) onboarding.DraftStore {
	return onboarding.NewRedisDraftStore(client, cfg.DraftTTL)
}

// provideUploader picks the upload backend from UPLOAD_BACKEND.
func provideUploader(cfg *config.Config, logger *zap.Logger) (filestorage.Uploader, error) {
	if cfg.UploadBackend == "cloudinary" {
		return filestorage.NewCloudinaryUploader(
			cfg.CloudinaryCloudName,
			cfg.CloudinaryAPIKey,
			cfg.CloudinaryAPISecret,
			cfg.CloudinaryFolder,
			logger,
		)
	}
	return filestorage.NewFileStorageService(cfg.LocalUploadPath, cfg.PublicUploadBaseURL, logger)
}

func provideWebhookVerifier(cfg *config.Config) payment.WebhookVerifier {
	return payment.NewStripeWebhookVerifier(cfg.StripeWebhookSecret)
}

// provideUserLifecycle runs the therapist hooks before the ones that only
// clean up side data.
func provideUserLifecycle(
	therapists *therapist.AccountLifecycle,
	notifications *notification.AccountLifecycle,
	drafts *onboarding.DraftLifecycle,
) user.Lifecycle {
	return user.Lifecycles{therapists, notifications, drafts}
}

// provideLogger flushes buffered entries on cleanup.
func provideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	l, err := logger.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return l, func() {
		l.Info("Executing cleanup tasks...")
		if err := l.Sync(); err != nil {
			log.Printf("ERROR: Failed to sync logger during cleanup: %v", err)
		}
	}, nil
}
