package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"quillpost-api/models"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) find(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where(query, arg).Take(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.find(ctx, "id = ?", id)
}

func (r *UserRepository) FindByToken(ctx context.Context, tokenIdentifier string) (*models.User, error) {
	return r.find(ctx, "token_identifier = ?", tokenIdentifier)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	if username == "" {
		return nil, ErrUserNotFound
	}
	return r.find(ctx, "username = ?", username)
}

// FindByIDs loads users in one query, keyed by id. Missing ids are simply
// absent from the map.
func (r *UserRepository) FindByIDs(ctx context.Context, ids []string) (map[string]models.User, error) {
	users := make(map[string]models.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	var rows []models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, u := range rows {
		users[u.ID] = u
	}
	return users, nil
}

// CountFollowers scans the follows table; the count is never stored.
func (r *UserRepository) CountFollowers(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("following_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *UserRepository) FollowingIDs(ctx context.Context, followerID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("follower_id = ?", followerID).Pluck("following_id", &ids).Error
	return ids, err
}

func (r *UserRepository) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error
	return count > 0, err
}
