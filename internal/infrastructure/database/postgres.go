package database

import (
	"context"
	"fmt"
	"log"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	migrate "github.com/rubenv/sql-migrate"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/johnquangdev/sales-mentor/migrations"
	"github.com/johnquangdev/sales-mentor/pkg/config"
)

const migrationTable = "gorp_migrations"

// NewPostgresDB creates a new PostgreSQL database connection using GORM. The
// first ping is retried with exponential backoff for up to
// cfg.Database.ConnectRetry so the service can start alongside its database.
func NewPostgresDB(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.GetDatabaseDSN()

	// Configure GORM logger
	gormLogger := logger.Default.LogMode(logger.Warn)
	if cfg.IsProduction() {
		gormLogger = logger.Default.LogMode(logger.Error)
	}

	var db *gorm.DB
	connect := func() error {
		conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: gormLogger,
			NowFunc: func() time.Time {
				return time.Now().UTC()
			},
		})
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to get database object: %w", err))
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			_ = sqlDB.Close()
			return fmt.Errorf("failed to ping database: %w", err)
		}
		db = conn
		return nil
	}

	var bo backoff.BackOff = &backoff.StopBackOff{}
	if cfg.Database.ConnectRetry > 0 {
		exp := backoff.NewExponentialBackOff()
		exp.InitialInterval = 500 * time.Millisecond
		exp.MaxInterval = 5 * time.Second
		exp.MaxElapsedTime = cfg.Database.ConnectRetry
		bo = exp
	}

	notify := func(err error, wait time.Duration) {
		log.Printf("⏳ Database not ready, retrying in %s: %v", wait.Round(time.Millisecond), err)
	}
	if err := backoff.RetryNotify(connect, backoff.WithContext(bo, ctx), notify); err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database object: %w", err)
	}

	// Connection pool settings
	sqlDB.SetMaxOpenConns(cfg.Database.MaxConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MinConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Println("✅ Database connected successfully")

	return db, nil
}

// MigrationSource returns the embedded schema migrations
func MigrationSource() migrate.MigrationSource {
	return &migrate.EmbedFileSystemMigrationSource{
		FileSystem: migrations.FS,
		Root:       ".",
	}
}

// Migrate applies up to max migrations in direction; max 0 means all of them
func Migrate(db *gorm.DB, direction migrate.MigrationDirection, max int) (int, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return 0, fmt.Errorf("failed to get db connection during migrate: %w", err)
	}

	ms := migrate.MigrationSet{TableName: migrationTable}
	n, err := ms.ExecMax(sqlDB, "postgres", MigrationSource(), direction, max)
	if err != nil {
		return n, fmt.Errorf("failed to apply migration: %w", err)
	}
	return n, nil
}

// AppliedMigrations returns the IDs of migrations recorded as applied
func AppliedMigrations(db *gorm.DB) (map[string]bool, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get db connection: %w", err)
	}

	ms := migrate.MigrationSet{TableName: migrationTable}
	records, err := ms.GetMigrationRecords(sqlDB, "postgres")
	if err != nil {
		return nil, fmt.Errorf("failed to read migration records: %w", err)
	}

	applied := make(map[string]bool, len(records))
	for _, r := range records {
		applied[r.Id] = true
	}
	return applied, nil
}

// AutoMigrate applies every pending migration
func AutoMigrate(db *gorm.DB) error {
	log.Println("🔄 Applying embedded migrations using sql-migrate...")

	n, err := Migrate(db, migrate.Up, 0)
	if err != nil {
		return err
	}

	log.Printf("✅ Applied %d migrations!\n", n)
	return nil
}

// CloseDB closes the database connection
func CloseDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database object: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	log.Println("✅ Database connection closed")
	return nil
}
