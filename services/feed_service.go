package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sourcegraph/conc/iter"
	"gorm.io/gorm"

	"quillpost-api/models"
	"quillpost-api/repositories"
)

const (
	suggestionPostSample  = 5
	suggestionPostPreview = 2
	suggestionParallelism = 8
)

// FeedService serves the public feed, trending posts, follow suggestions and
// author profile pages.
type FeedService struct {
	db       *gorm.DB
	users    *repositories.UserRepository
	posts    *repositories.PostRepository
	assemble *FeedAssembler
	now      Clock
}

func NewFeedService(db *gorm.DB) *FeedService {
	return &FeedService{
		db:       db,
		users:    repositories.NewUserRepository(db),
		posts:    repositories.NewPostRepository(db),
		assemble: NewFeedAssembler(db),
		now:      systemClock,
	}
}

func (s *FeedService) GetFeed(ctx context.Context, limit int, cursor string) (*models.FeedResponse, error) {
	return s.assemble.GetPage(ctx, PageRequest{
		Filter:     PublishedPosts,
		Descending: true,
		Limit:      limit,
		Cursor:     cursor,
	})
}

// GetTrendingPosts ranks posts published in the last seven days by
// TrendingScore.
func (s *FeedService) GetTrendingPosts(ctx context.Context, limit int) ([]models.TrendingPost, error) {
	now := s.now()

	var recent []models.Post
	err := s.db.WithContext(ctx).
		Where("status = ? AND published_at >= ?", models.PostStatusPublished, now.Add(-RecencyWindow)).
		Find(&recent).Error
	if err != nil {
		return nil, err
	}

	ranked := RankTrending(recent, now)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	hydrated, err := s.assemble.Hydrate(ctx, ranked)
	if err != nil {
		return nil, err
	}

	result := make([]models.TrendingPost, 0, len(hydrated))
	for _, post := range hydrated {
		result = append(result, models.TrendingPost{
			PostWithAuthor: post,
			TrendingScore:  TrendingScore(post.Post),
		})
	}
	return result, nil
}

// GetSuggestedUsers ranks accounts the caller might follow. Anonymous callers
// get suggestions too, with nobody excluded.
func (s *FeedService) GetSuggestedUsers(ctx context.Context, identity *models.Identity, limit int) ([]models.SuggestedUser, error) {
	exclude := map[string]struct{}{}
	query := s.db.WithContext(ctx).Where("username <> ''")

	me, err := currentUser(ctx, s.users, identity)
	switch {
	case err == nil:
		query = query.Where("id <> ?", me.ID)
		followed, err := s.users.FollowingIDs(ctx, me.ID)
		if err != nil {
			return nil, err
		}
		for _, id := range followed {
			exclude[id] = struct{}{}
		}
	case !errors.Is(err, ErrNotAuthenticated) && !errors.Is(err, ErrNotFound):
		return nil, err
	}

	var all []models.User
	if err := query.Find(&all).Error; err != nil {
		return nil, err
	}

	candidates := make([]models.User, 0, len(all))
	for _, user := range all {
		if _, ok := exclude[user.ID]; !ok {
			candidates = append(candidates, user)
		}
	}

	mapper := iter.Mapper[models.User, models.SuggestedUser]{MaxGoroutines: suggestionParallelism}
	scored, err := mapper.MapErr(candidates, func(user *models.User) (models.SuggestedUser, error) {
		return s.scoreCandidate(ctx, *user)
	})
	if err != nil {
		return nil, fmt.Errorf("score suggestions: %w", err)
	}

	withPosts := make([]models.SuggestedUser, 0, len(scored))
	for _, suggestion := range scored {
		if suggestion.PostCount > 0 {
			withPosts = append(withPosts, suggestion)
		}
	}

	ranked := RankSuggestions(withPosts, s.now())
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

func (s *FeedService) scoreCandidate(ctx context.Context, user models.User) (models.SuggestedUser, error) {
	posts, err := s.posts.RecentPublished(ctx, user.ID, suggestionPostSample)
	if err != nil {
		return models.SuggestedUser{}, err
	}
	followers, err := s.users.CountFollowers(ctx, user.ID)
	if err != nil {
		return models.SuggestedUser{}, err
	}

	preview := posts
	if len(preview) > suggestionPostPreview {
		preview = preview[:suggestionPostPreview]
	}

	suggestion := models.SuggestedUser{
		AuthorSummary:   user.Summary(),
		FollowerCount:   followers,
		PostCount:       len(posts),
		EngagementScore: EngagementScore(posts, followers),
		RecentPosts:     summarize(preview),
	}
	if last := lastPublished(posts); last != nil {
		suggestion.LastPostAt = last.PublishedAt
	}
	return suggestion, nil
}

// GetPublishedPostsByUsername pages through an author's published posts. An
// unknown username yields an empty page.
func (s *FeedService) GetPublishedPostsByUsername(ctx context.Context, username string, limit int, cursor string) (*models.FeedResponse, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return &models.FeedResponse{Posts: []models.PostWithAuthor{}}, nil
		}
		return nil, err
	}

	return s.assemble.GetPage(ctx, PageRequest{
		Filter:     PublishedPostsBy(user.ID),
		Descending: true,
		Limit:      limit,
		Cursor:     cursor,
	})
}

// GetPublishedPost returns the post only if it is published and belongs to
// username.
func (s *FeedService) GetPublishedPost(ctx context.Context, username, postID string) (*models.PostWithAuthor, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
		}
		return nil, err
	}

	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return nil, fmt.Errorf("post %s: %w", postID, ErrNotFound)
		}
		return nil, err
	}
	if post.AuthorID != user.ID || !post.IsPublished() {
		return nil, fmt.Errorf("post %s: %w", postID, ErrNotFound)
	}

	return &models.PostWithAuthor{Post: *post, Author: user.Summary()}, nil
}
