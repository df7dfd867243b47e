package database_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"quillpost-api/config"
	"quillpost-api/database"
	"quillpost-api/database/dbtest"
	"quillpost-api/models"
)

func TestSeedDataIsIdempotent(t *testing.T) {
	db := dbtest.New(t)

	require.NoError(t, database.SeedData(db, zap.NewNop()))
	require.NoError(t, database.SeedData(db, zap.NewNop()))

	var users, posts int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&models.Post{}).Count(&posts).Error)
	require.Equal(t, int64(2), users)
	require.Equal(t, int64(2), posts)
}

func TestUniqueLikePerUser(t *testing.T) {
	db := dbtest.New(t)
	userID := "u1"

	require.NoError(t, db.Create(&models.Like{PostID: "p1", UserID: &userID}).Error)
	require.Error(t, db.Create(&models.Like{PostID: "p1", UserID: &userID}).Error)

	// anonymous likes never collide
	require.NoError(t, db.Create(&models.Like{PostID: "p1"}).Error)
	require.NoError(t, db.Create(&models.Like{PostID: "p1"}).Error)
}

func TestInitializeRejectsUnknownEngine(t *testing.T) {
	_, err := database.Initialize(&config.Config{DBEngine: "oracle"}, zap.NewNop())
	require.Error(t, err)
}

func TestInitializeSQLite(t *testing.T) {
	cfg := &config.Config{
		DBEngine:    database.EngineSQLite,
		DatabaseURL: "file:init_test?mode=memory&cache=shared",
	}

	db, err := database.Initialize(cfg, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, zap.NewNop()))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
}
