package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"quillpost-api/models"
	"quillpost-api/repositories"
)

// PageRequest selects one page of posts. Filter narrows the posts table,
// Cursor is the id of the last post of the previous page.
type PageRequest struct {
	Filter     func(*gorm.DB) *gorm.DB
	Descending bool
	Limit      int
	Cursor     string
}

// FeedAssembler builds paginated, author-hydrated post listings. It reads
// Limit+1 rows so that HasMore costs one extra row instead of a count query.
type FeedAssembler struct {
	db    *gorm.DB
	users *repositories.UserRepository
}

func NewFeedAssembler(db *gorm.DB) *FeedAssembler {
	return &FeedAssembler{
		db:    db,
		users: repositories.NewUserRepository(db),
	}
}

func PublishedPosts(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", models.PostStatusPublished)
}

func PublishedPostsBy(authorID string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("author_id = ? AND status = ?", authorID, models.PostStatusPublished)
	}
}

// GetPage returns at most req.Limit posts. HasMore reflects the raw query:
// posts whose author no longer exists are dropped after the probe, so a page
// may be short even when more pages follow.
func (f *FeedAssembler) GetPage(ctx context.Context, req PageRequest) (*models.FeedResponse, error) {
	if req.Limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", ErrValidation)
	}

	dir := "ASC"
	cmp := ">"
	if req.Descending {
		dir = "DESC"
		cmp = "<"
	}

	query := f.db.WithContext(ctx).Model(&models.Post{})
	if req.Filter != nil {
		query = query.Scopes(req.Filter)
	}

	if req.Cursor != "" {
		var anchor models.Post
		err := f.db.WithContext(ctx).Select("id", "created_at").Take(&anchor, "id = ?", req.Cursor).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: unknown cursor", ErrValidation)
			}
			return nil, err
		}
		query = query.Where(
			"(created_at "+cmp+" ? OR (created_at = ? AND id "+cmp+" ?))",
			anchor.CreatedAt, anchor.CreatedAt, anchor.ID,
		)
	}

	var rows []models.Post
	err := query.
		Order("created_at " + dir).
		Order("id " + dir).
		Limit(req.Limit + 1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	hasMore := len(rows) > req.Limit
	if hasMore {
		rows = rows[:req.Limit]
	}

	items, err := f.Hydrate(ctx, rows)
	if err != nil {
		return nil, err
	}

	page := &models.FeedResponse{Posts: items, HasMore: hasMore}
	if hasMore {
		next := rows[len(rows)-1].ID
		page.NextCursor = &next
	}
	return page, nil
}

// Hydrate attaches authors in a single lookup and drops posts whose author
// is missing. Order is preserved.
func (f *FeedAssembler) Hydrate(ctx context.Context, posts []models.Post) ([]models.PostWithAuthor, error) {
	ids := make([]string, 0, len(posts))
	seen := make(map[string]struct{}, len(posts))
	for _, post := range posts {
		if _, ok := seen[post.AuthorID]; !ok {
			seen[post.AuthorID] = struct{}{}
			ids = append(ids, post.AuthorID)
		}
	}

	authors, err := f.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]models.PostWithAuthor, 0, len(posts))
	for _, post := range posts {
		author, ok := authors[post.AuthorID]
		if !ok {
			continue
		}
		items = append(items, models.PostWithAuthor{Post: post, Author: author.Summary()})
	}
	return items, nil
}
