package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"quillpost-api/models"
	"quillpost-api/repositories"
)

// CounterLedger owns Post.LikeCount, Post.ViewCount and the per-day view
// history. Every read-check-write runs in one transaction holding the post's
// row lock, so concurrent toggles from the same user serialise.
type CounterLedger struct {
	db      *gorm.DB
	posts   *repositories.PostRepository
	metrics *Metrics
	now     Clock
}

func NewCounterLedger(db *gorm.DB, metrics *Metrics) *CounterLedger {
	return &CounterLedger{
		db:      db,
		posts:   repositories.NewPostRepository(db),
		metrics: metrics,
		now:     systemClock,
	}
}

func lockPublishedPost(ctx context.Context, posts *repositories.PostRepository, postID string) (*models.Post, error) {
	post, err := posts.LockByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return nil, fmt.Errorf("post %s: %w", postID, ErrNotFound)
		}
		return nil, err
	}
	if !post.IsPublished() {
		return nil, fmt.Errorf("post %s: %w", postID, ErrNotPublished)
	}
	return post, nil
}

// ToggleLike flips userID's like on a published post. An empty userID records
// an anonymous like, which can never be looked up again and so always adds.
func (l *CounterLedger) ToggleLike(ctx context.Context, postID, userID string) (*models.LikeResult, error) {
	var result models.LikeResult

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post, err := lockPublishedPost(ctx, l.posts.WithTx(tx), postID)
		if err != nil {
			return err
		}

		if userID != "" {
			var existing models.Like
			err := tx.Where("post_id = ? AND user_id = ?", postID, userID).Take(&existing).Error
			switch {
			case err == nil:
				if err := tx.Delete(&existing).Error; err != nil {
					return err
				}
				result = models.LikeResult{Liked: false, LikeCount: max(0, post.LikeCount-1)}
				return tx.Model(&models.Post{}).Where("id = ?", postID).
					UpdateColumn("like_count", result.LikeCount).Error
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return err
			}
		}

		like := models.Like{PostID: postID, CreatedAt: l.now()}
		if userID != "" {
			like.UserID = &userID
		}
		if err := tx.Create(&like).Error; err != nil {
			return err
		}

		result = models.LikeResult{Liked: true, LikeCount: post.LikeCount + 1}
		return tx.Model(&models.Post{}).Where("id = ?", postID).
			UpdateColumn("like_count", result.LikeCount).Error
	})
	if err != nil {
		return nil, err
	}

	action := "unlike"
	if result.Liked {
		action = "like"
	}
	l.metrics.LikesToggled.WithLabelValues(action).Inc()

	return &result, nil
}

// IncrementView counts one view and bumps today's DailyStat. Views of missing
// or draft posts are ignored without error. Duplicate client calls are counted
// twice; there is no idempotency key.
func (l *CounterLedger) IncrementView(ctx context.Context, postID string) error {
	counted := false

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := lockPublishedPost(ctx, l.posts.WithTx(tx), postID)
		if err != nil {
			if errors.Is(err, ErrNotFound) || errors.Is(err, ErrNotPublished) {
				return nil
			}
			return err
		}

		if err := tx.Model(&models.Post{}).Where("id = ?", postID).
			UpdateColumn("view_count", gorm.Expr("view_count + ?", 1)).Error; err != nil {
			return err
		}

		now := l.now()
		today := DayKey(now)

		var stat models.DailyStat
		err = tx.Where("post_id = ? AND date = ?", postID, today).Take(&stat).Error
		switch {
		case err == nil:
			err = tx.Model(&stat).UpdateColumns(map[string]interface{}{
				"views":      gorm.Expr("views + ?", 1),
				"updated_at": now,
			}).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			err = tx.Create(&models.DailyStat{
				PostID:    postID,
				Date:      today,
				Views:     1,
				CreatedAt: now,
				UpdatedAt: now,
			}).Error
		}
		if err != nil {
			return err
		}

		counted = true
		return nil
	})
	if err != nil {
		return err
	}

	if counted {
		l.metrics.ViewsCounted.Inc()
	}
	return nil
}

func (l *CounterLedger) HasUserLiked(ctx context.Context, postID, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}

	var count int64
	err := l.db.WithContext(ctx).Model(&models.Like{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Count(&count).Error
	return count > 0, err
}
