package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"quillpost-api/models"
	"quillpost-api/repositories"
	"quillpost-api/utils"
)

type PostInput struct {
	Title         string
	Content       string
	Status        models.PostStatus
	Tags          []string
	Category      *string
	FeaturedImage *string
	ScheduledFor  *time.Time
}

// PostUpdate carries only the fields the caller wants changed.
type PostUpdate struct {
	Title         *string
	Content       *string
	Status        *models.PostStatus
	Tags          *[]string
	Category      *string
	FeaturedImage *string
	ScheduledFor  *time.Time
}

type UserPost struct {
	models.Post
	Username string `json:"username"`
}

type PostService struct {
	db      *gorm.DB
	users   *repositories.UserRepository
	posts   *repositories.PostRepository
	metrics *Metrics
	now     Clock
}

func NewPostService(db *gorm.DB, metrics *Metrics) *PostService {
	return &PostService{
		db:      db,
		users:   repositories.NewUserRepository(db),
		posts:   repositories.NewPostRepository(db),
		metrics: metrics,
		now:     systemClock,
	}
}

func validateTitle(title string) error {
	if err := utils.ValidateTitle(title); err != nil {
		return fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}
	return nil
}

// Create saves a post for the caller. An author keeps at most one draft:
// saving or publishing while a draft exists rewrites that draft instead of
// inserting a new post.
func (s *PostService) Create(ctx context.Context, identity *models.Identity, in PostInput) (*models.Post, error) {
	user, err := currentUser(ctx, s.users, identity)
	if err != nil {
		return nil, err
	}
	if !in.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, in.Status)
	}
	if err := validateTitle(in.Title); err != nil {
		return nil, err
	}

	tags := models.StringSlice(utils.NormalizeTags(in.Tags))
	now := s.now()
	publishing := in.Status == models.PostStatusPublished

	var post models.Post
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("author_id = ? AND status = ?", user.ID, models.PostStatusDraft).
			Order("updated_at DESC").
			Take(&post).Error
		switch {
		case err == nil:
			updates := map[string]interface{}{
				"title":          in.Title,
				"content":        in.Content,
				"tags":           tags,
				"category":       in.Category,
				"featured_image": in.FeaturedImage,
				"scheduled_for":  in.ScheduledFor,
				"updated_at":     now,
			}
			if publishing {
				updates["status"] = models.PostStatusPublished
				if post.PublishedAt == nil {
					updates["published_at"] = now
				}
			}
			if err := tx.Model(&post).UpdateColumns(updates).Error; err != nil {
				return err
			}
			return tx.Take(&post, "id = ?", post.ID).Error
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		post = models.Post{
			ID:            uuid.New().String(),
			AuthorID:      user.ID,
			Title:         in.Title,
			Content:       in.Content,
			Status:        in.Status,
			Tags:          tags,
			Category:      in.Category,
			FeaturedImage: in.FeaturedImage,
			ScheduledFor:  in.ScheduledFor,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if publishing {
			post.PublishedAt = &now
		}
		return tx.Create(&post).Error
	})
	if err != nil {
		return nil, err
	}

	if publishing {
		s.metrics.PostsPublished.Inc()
	}
	return &post, nil
}

func (s *PostService) ownedPost(ctx context.Context, tx *gorm.DB, user *models.User, postID string) (*models.Post, error) {
	post, err := s.posts.WithTx(tx).LockByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return nil, fmt.Errorf("post %s: %w", postID, ErrNotFound)
		}
		return nil, err
	}
	if post.AuthorID != user.ID {
		return nil, fmt.Errorf("post %s: %w", postID, ErrNotAuthorized)
	}
	return post, nil
}

// Update patches an owned post. publishedAt is stamped only the first time
// the post leaves draft.
func (s *PostService) Update(ctx context.Context, identity *models.Identity, postID string, upd PostUpdate) (*models.Post, error) {
	user, err := currentUser(ctx, s.users, identity)
	if err != nil {
		return nil, err
	}
	if upd.Status != nil && !upd.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, *upd.Status)
	}
	if upd.Title != nil {
		if err := validateTitle(*upd.Title); err != nil {
			return nil, err
		}
	}

	now := s.now()
	firstPublish := false

	var post *models.Post
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned, err := s.ownedPost(ctx, tx, user, postID)
		if err != nil {
			return err
		}
		post = owned

		updates := map[string]interface{}{"updated_at": now}
		if upd.Title != nil {
			updates["title"] = *upd.Title
		}
		if upd.Content != nil {
			updates["content"] = *upd.Content
		}
		if upd.Tags != nil {
			updates["tags"] = models.StringSlice(utils.NormalizeTags(*upd.Tags))
		}
		if upd.Category != nil {
			updates["category"] = *upd.Category
		}
		if upd.FeaturedImage != nil {
			updates["featured_image"] = *upd.FeaturedImage
		}
		if upd.ScheduledFor != nil {
			updates["scheduled_for"] = *upd.ScheduledFor
		}
		if upd.Status != nil {
			updates["status"] = *upd.Status
			if *upd.Status == models.PostStatusPublished && post.Status == models.PostStatusDraft && post.PublishedAt == nil {
				updates["published_at"] = now
				firstPublish = true
			}
		}

		if err := tx.Model(post).UpdateColumns(updates).Error; err != nil {
			return err
		}
		return tx.Take(post, "id = ?", postID).Error
	})
	if err != nil {
		return nil, err
	}

	if firstPublish {
		s.metrics.PostsPublished.Inc()
	}
	return post, nil
}

// Delete removes an owned post together with its likes, comments and daily
// stats.
func (s *PostService) Delete(ctx context.Context, identity *models.Identity, postID string) error {
	user, err := currentUser(ctx, s.users, identity)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post, err := s.ownedPost(ctx, tx, user, postID)
		if err != nil {
			return err
		}

		for _, dependent := range []interface{}{&models.Like{}, &models.Comment{}, &models.DailyStat{}} {
			if err := tx.Where("post_id = ?", postID).Delete(dependent).Error; err != nil {
				return err
			}
		}
		return tx.Delete(post).Error
	})
}

// GetUserDraft returns the caller's draft, or nil when there is none.
func (s *PostService) GetUserDraft(ctx context.Context, identity *models.Identity) (*models.Post, error) {
	user, err := currentUser(ctx, s.users, identity)
	if err != nil {
		return nil, err
	}

	var draft models.Post
	err = s.db.WithContext(ctx).
		Where("author_id = ? AND status = ?", user.ID, models.PostStatusDraft).
		Order("updated_at DESC").
		Take(&draft).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &draft, nil
}

func (s *PostService) GetUserPosts(ctx context.Context, identity *models.Identity, status *models.PostStatus) ([]UserPost, error) {
	user, err := currentUser(ctx, s.users, identity)
	if err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).Where("author_id = ?", user.ID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var posts []models.Post
	if err := query.Order("created_at DESC").Find(&posts).Error; err != nil {
		return nil, err
	}

	result := make([]UserPost, 0, len(posts))
	for _, post := range posts {
		result = append(result, UserPost{Post: post, Username: user.Username})
	}
	return result, nil
}

func (s *PostService) GetByID(ctx context.Context, postID string) (*models.Post, error) {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return nil, fmt.Errorf("post %s: %w", postID, ErrNotFound)
		}
		return nil, err
	}
	return post, nil
}

// PublishDue publishes drafts whose scheduledFor has passed and returns how
// many were published.
func (s *PostService) PublishDue(ctx context.Context) (int, error) {
	now := s.now()

	var due []string
	err := s.db.WithContext(ctx).Model(&models.Post{}).
		Where("status = ? AND scheduled_for IS NOT NULL AND scheduled_for <= ?", models.PostStatusDraft, now).
		Pluck("id", &due).Error
	if err != nil {
		return 0, err
	}

	published := 0
	for _, id := range due {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			post, err := s.posts.WithTx(tx).LockByID(ctx, id)
			if err != nil {
				return err
			}
			if post.Status != models.PostStatusDraft {
				return nil
			}

			updates := map[string]interface{}{
				"status":     models.PostStatusPublished,
				"updated_at": now,
			}
			if post.PublishedAt == nil {
				updates["published_at"] = now
			}
			if err := tx.Model(post).UpdateColumns(updates).Error; err != nil {
				return err
			}
			published++
			return nil
		})
		if err != nil && !errors.Is(err, repositories.ErrPostNotFound) {
			return published, err
		}
	}

	s.metrics.PostsPublished.Add(float64(published))
	return published, nil
}
