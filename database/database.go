package database

import (
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"quillpost-api/config"
	"quillpost-api/logger"
	"quillpost-api/models"
)

const (
	EngineMySQL    = "mysql"
	EnginePostgres = "postgres"
	EngineSQLite   = "sqlite"
)

func dialector(engine, dsn string) (gorm.Dialector, error) {
	switch engine {
	case EngineMySQL:
		return mysql.Open(dsn), nil
	case EnginePostgres:
		return postgres.Open(dsn), nil
	case EngineSQLite:
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database engine %q", engine)
	}
}

// Initialize opens the configured database, retrying with exponential backoff
// until cfg.DBConnectTimeout elapses.
func Initialize(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	dial, err := dialector(cfg.DBEngine, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = cfg.DBConnectTimeout

	var db *gorm.DB
	err = backoff.Retry(func() error {
		db, err = gorm.Open(dial, &gorm.Config{
			Logger:                                   logger.NewGormLogger(log),
			DisableForeignKeyConstraintWhenMigrating: true,
			NowFunc:                                  func() time.Time { return time.Now().UTC() },
		})
		if err != nil {
			log.Warn("waiting for database", zap.String("engine", cfg.DBEngine), zap.Error(err))
			return err
		}

		sqlDB, err := db.DB()
		if err != nil {
			return backoff.Permanent(err)
		}
		if err := sqlDB.Ping(); err != nil {
			log.Warn("waiting for database", zap.String("engine", cfg.DBEngine), zap.Error(err))
			return err
		}
		return nil
	}, policy)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

func Migrate(db *gorm.DB, log *zap.Logger) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Like{},
		&models.DailyStat{},
		&models.Follow{},
		&models.Comment{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	addDatabaseConstraints(db, log)

	return nil
}

func addDatabaseConstraints(db *gorm.DB, log *zap.Logger) {
	// SQLite cannot add constraints to an existing table.
	if db.Dialector.Name() == EngineSQLite {
		return
	}

	if err := db.Exec("ALTER TABLE follows ADD CONSTRAINT ck_follows_no_self_follow CHECK (follower_id <> following_id)").Error; err != nil {
		log.Warn("could not add check constraint for follows", zap.Error(err))
	}

	if err := db.Exec("ALTER TABLE posts ADD CONSTRAINT ck_posts_counters CHECK (view_count >= 0 AND like_count >= 0)").Error; err != nil {
		log.Warn("could not add check constraint for posts", zap.Error(err))
	}
}

// SeedData populates an empty database with sample users and posts for
// development.
func SeedData(db *gorm.DB, log *zap.Logger) error {
	var userCount int64
	if err := db.Model(&models.User{}).Count(&userCount).Error; err != nil {
		return err
	}

	if userCount > 0 {
		log.Info("database already has data, skipping seed")
		return nil
	}

	now := time.Now().UTC()
	testUsers := []models.User{
		{
			ID:              "user-1",
			TokenIdentifier: "seed|user-1",
			Name:            "John Doe",
			Email:           "john@example.com",
			Username:        "john_doe",
			CreatedAt:       now,
			LastActiveAt:    now,
		},
		{
			ID:              "user-2",
			TokenIdentifier: "seed|user-2",
			Name:            "Jane Smith",
			Email:           "jane@example.com",
			Username:        "jane_smith",
			CreatedAt:       now,
			LastActiveAt:    now,
		},
	}

	published := now.Add(-24 * time.Hour)
	testPosts := []models.Post{
		{
			ID:          "post-1",
			AuthorID:    "user-1",
			Title:       "Writing every day",
			Content:     "<p>Notes on building a writing habit.</p>",
			Status:      models.PostStatusPublished,
			Tags:        models.StringSlice{"writing", "habits"},
			PublishedAt: &published,
		},
		{
			ID:       "post-2",
			AuthorID: "user-2",
			Title:    "Drafting in public",
			Content:  "<p>Work in progress.</p>",
			Status:   models.PostStatusDraft,
			Tags:     models.StringSlice{},
		},
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&testUsers).Error; err != nil {
			return fmt.Errorf("seed users: %w", err)
		}
		if err := tx.Create(&testPosts).Error; err != nil {
			return fmt.Errorf("seed posts: %w", err)
		}
		log.Info("database seeded with test data", zap.Int("users", len(testUsers)), zap.Int("posts", len(testPosts)))
		return nil
	})
}
