// File: internal/platform/database/gorm.go
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"therapylink_backend/internal/config"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Opener opens a database handle. Swapped out in tests.
type Opener func() (*gorm.DB, error)

// NewGORM creates a new GORM database instance, retrying the initial
// connection DBConnectRetries times with a fixed DBConnectRetryDelay.
func NewGORM(cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	open := func() (*gorm.DB, error) {
		return gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
			Logger:      newGormLogger(cfg, logger),
			PrepareStmt: true,
			NowFunc: func() time.Time {
				return time.Now().UTC()
			},
		})
	}

	db, err := ConnectWithRetry(open, cfg.DBConnectRetries, cfg.DBConnectRetryDelay, logger)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

	logger.Info("Successfully connected to the database.")
	return db, nil
}

// ConnectWithRetry calls open (and pings the result) up to attempts times,
// sleeping delay between failures. The last error is returned when all
// attempts fail.
func ConnectWithRetry(open Opener, attempts int, delay time.Duration, logger *zap.Logger) (*gorm.DB, error) {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		db, err := open()
		if err == nil {
			err = ping(db)
		}
		if err == nil {
			return db, nil
		}
		lastErr = err
		logger.Warn("Database connection attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("maxAttempts", attempts),
			zap.Error(err),
		)
		if attempt < attempts {
			time.Sleep(delay)
		}
	}
	logger.Error("Failed to connect to database after retries", zap.Int("attempts", attempts))
	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", attempts, lastErr)
}

func ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func gormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent", "fatal", "panic":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info", "debug": // For info and debug, GORM will log all SQL
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

// ZapGormLogger sends GORM's query and driver logs to the application's zap
// logger.
type ZapGormLogger struct {
	logger        *zap.Logger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

func NewZapGormLogger(logger *zap.Logger, level gormlogger.LogLevel) *ZapGormLogger {
	return &ZapGormLogger{
		logger:        logger.Named("gorm").WithOptions(zap.AddCallerSkip(3)),
		level:         level,
		slowThreshold: 200 * time.Millisecond,
	}
}

func newGormLogger(cfg *config.Config, logger *zap.Logger) gormlogger.Interface {
	return NewZapGormLogger(logger, gormLogLevel(cfg.LogLevel))
}

func (l *ZapGormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *l
	cp.level = level
	return &cp
}

func (l *ZapGormLogger) Info(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		l.logger.Sugar().Infof(msg, args...)
	}
}

func (l *ZapGormLogger) Warn(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		l.logger.Sugar().Warnf(msg, args...)
	}
}

func (l *ZapGormLogger) Error(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		l.logger.Sugar().Errorf(msg, args...)
	}
}

// Trace logs failed statements at error, slow ones at warn and everything
// else at debug when the level is Info. Record-not-found is not a failure.
func (l *ZapGormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && l.level >= gormlogger.Error && !errors.Is(err, gormlogger.ErrRecordNotFound):
		sql, rows := fc()
		l.logger.Error("Query failed", zap.Error(err), zap.Duration("elapsed", elapsed), zap.Int64("rows", rows), zap.String("sql", sql))
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		sql, rows := fc()
		l.logger.Warn("Slow query", zap.Duration("elapsed", elapsed), zap.Duration("threshold", l.slowThreshold), zap.Int64("rows", rows), zap.String("sql", sql))
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		l.logger.Debug("Query", zap.Duration("elapsed", elapsed), zap.Int64("rows", rows), zap.String("sql", sql))
	}
}

// CloseGORMDB closes the GORM database connection.
func CloseGORMDB(db *gorm.DB, logger *zap.Logger) {
	if db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("Error getting underlying SQL DB for closing", zap.Error(err))
		return
	}
	logger.Info("Closing database connection...")
	if err := sqlDB.Close(); err != nil {
		logger.Error("Error closing database connection", zap.Error(err))
		return
	}
	logger.Info("Database connection closed.")
}
