package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"quillpost-api/models"
	"quillpost-api/repositories"
)

const followListPostSample = 3

type FollowService struct {
	db       *gorm.DB
	users    *repositories.UserRepository
	posts    *repositories.PostRepository
	metrics  *Metrics
	notifier Notifier
	now      Clock
}

func NewFollowService(db *gorm.DB, metrics *Metrics, notifier Notifier) *FollowService {
	return &FollowService{
		db:       db,
		users:    repositories.NewUserRepository(db),
		posts:    repositories.NewPostRepository(db),
		metrics:  metrics,
		notifier: notifier,
		now:      systemClock,
	}
}

// ToggleFollow follows followingID, or unfollows if already following. The
// follower's user row is locked so concurrent toggles serialise.
func (s *FollowService) ToggleFollow(ctx context.Context, identity *models.Identity, followingID string) (bool, error) {
	follower, err := currentUser(ctx, s.users, identity)
	if err != nil {
		return false, err
	}
	if follower.ID == followingID {
		return false, fmt.Errorf("%w: you cannot follow yourself", ErrValidation)
	}

	var (
		following bool
		target    models.User
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Take(&models.User{}, "id = ?", follower.ID).Error; err != nil {
			return err
		}
		if err := tx.Take(&target, "id = ?", followingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("user %s: %w", followingID, ErrNotFound)
			}
			return err
		}

		var existing models.Follow
		err := tx.Where("follower_id = ? AND following_id = ?", follower.ID, followingID).Take(&existing).Error
		switch {
		case err == nil:
			following = false
			return tx.Delete(&existing).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			following = true
			return tx.Create(&models.Follow{
				FollowerID:  follower.ID,
				FollowingID: followingID,
				CreatedAt:   s.now(),
			}).Error
		default:
			return err
		}
	})
	if err != nil {
		return false, err
	}

	if following {
		s.metrics.FollowsToggled.WithLabelValues("follow").Inc()
		s.notifier.NewFollower(target, *follower)
	} else {
		s.metrics.FollowsToggled.WithLabelValues("unfollow").Inc()
	}
	return following, nil
}

// IsFollowing is false for anonymous callers.
func (s *FollowService) IsFollowing(ctx context.Context, identity *models.Identity, followingID string) (bool, error) {
	follower, err := currentUser(ctx, s.users, identity)
	if err != nil {
		if errors.Is(err, ErrNotAuthenticated) || errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return s.users.IsFollowing(ctx, follower.ID, followingID)
}

func (s *FollowService) FollowerCount(ctx context.Context, userID string) (int64, error) {
	return s.users.CountFollowers(ctx, userID)
}

func summarize(posts []models.Post) []models.RecentPostSummary {
	out := make([]models.RecentPostSummary, 0, len(posts))
	for _, post := range posts {
		out = append(out, models.RecentPostSummary{
			ID:          post.ID,
			Title:       post.Title,
			PublishedAt: post.PublishedAt,
			ViewCount:   post.ViewCount,
			LikeCount:   post.LikeCount,
		})
	}
	return out
}

func lastPublished(posts []models.Post) *models.Post {
	if len(posts) == 0 {
		return nil
	}
	return &posts[0]
}

// follows lists follow rows touching userID, newest first, together with the
// users on the other side. incoming selects followers rather than followees.
func (s *FollowService) follows(ctx context.Context, userID string, incoming bool, limit int) ([]models.Follow, map[string]models.User, error) {
	column := "follower_id"
	if incoming {
		column = "following_id"
	}

	var rows []models.Follow
	err := s.db.WithContext(ctx).
		Where(column+" = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, nil, err
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		if incoming {
			ids = append(ids, row.FollowerID)
		} else {
			ids = append(ids, row.FollowingID)
		}
	}

	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	return rows, users, nil
}

// GetMyFollowers lists the caller's followers, newest first. Anonymous
// callers get an empty list.
func (s *FollowService) GetMyFollowers(ctx context.Context, identity *models.Identity, limit int) ([]models.FollowerEntry, error) {
	me, err := currentUser(ctx, s.users, identity)
	if err != nil {
		if errors.Is(err, ErrNotAuthenticated) || errors.Is(err, ErrNotFound) {
			return []models.FollowerEntry{}, nil
		}
		return nil, err
	}

	rows, users, err := s.follows(ctx, me.ID, true, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]models.FollowerEntry, 0, len(rows))
	for _, row := range rows {
		user, ok := users[row.FollowerID]
		if !ok {
			continue
		}

		followsBack, err := s.users.IsFollowing(ctx, me.ID, user.ID)
		if err != nil {
			return nil, err
		}
		recent, err := s.posts.RecentPublished(ctx, user.ID, followListPostSample)
		if err != nil {
			return nil, err
		}

		entry := models.FollowerEntry{
			AuthorSummary: user.Summary(),
			FollowedAt:    row.CreatedAt,
			FollowsBack:   followsBack,
			PostCount:     len(recent),
		}
		if last := lastPublished(recent); last != nil {
			entry.LastPostAt = last.PublishedAt
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// GetMyFollowing lists the accounts the caller follows, newest first.
func (s *FollowService) GetMyFollowing(ctx context.Context, identity *models.Identity, limit int) ([]models.FollowingEntry, error) {
	me, err := currentUser(ctx, s.users, identity)
	if err != nil {
		if errors.Is(err, ErrNotAuthenticated) || errors.Is(err, ErrNotFound) {
			return []models.FollowingEntry{}, nil
		}
		return nil, err
	}

	rows, users, err := s.follows(ctx, me.ID, false, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]models.FollowingEntry, 0, len(rows))
	for _, row := range rows {
		user, ok := users[row.FollowingID]
		if !ok {
			continue
		}

		followers, err := s.users.CountFollowers(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		recent, err := s.posts.RecentPublished(ctx, user.ID, followListPostSample)
		if err != nil {
			return nil, err
		}

		entry := models.FollowingEntry{
			AuthorSummary: user.Summary(),
			FollowedAt:    row.CreatedAt,
			FollowerCount: followers,
			PostCount:     len(recent),
			RecentPosts:   summarize(recent),
		}
		if last := lastPublished(recent); last != nil {
			entry.LastPostAt = last.PublishedAt
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
