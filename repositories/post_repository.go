package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"quillpost-api/models"
)

var ErrPostNotFound = errors.New("post not found")

type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

// WithTx returns a repository bound to an open transaction.
func (r *PostRepository) WithTx(tx *gorm.DB) *PostRepository {
	return &PostRepository{db: tx}
}

func (r *PostRepository) FindByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Take(&post, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// LockByID loads a post with SELECT ... FOR UPDATE. Callers must be inside a
// transaction. Engines without row locks (SQLite) serialise writers instead.
func (r *PostRepository) LockByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).Take(&post, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// RecentPublished returns up to limit of the author's published posts, newest
// publication first.
func (r *PostRepository) RecentPublished(ctx context.Context, authorID string, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.WithContext(ctx).
		Where("author_id = ? AND status = ?", authorID, models.PostStatusPublished).
		Order("published_at DESC").
		Order("created_at DESC").
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

func (r *PostRepository) ByAuthor(ctx context.Context, authorID string) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.WithContext(ctx).Where("author_id = ?", authorID).Order("created_at DESC").Find(&posts).Error
	return posts, err
}

// ApprovedCommentCounts returns approved comment counts keyed by post id.
func (r *PostRepository) ApprovedCommentCounts(ctx context.Context, postIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(postIDs))
	if len(postIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		PostID string
		Total  int64
	}
	err := r.db.WithContext(ctx).Model(&models.Comment{}).
		Select("post_id, COUNT(*) AS total").
		Where("post_id IN ? AND status = ?", postIDs, models.CommentStatusApproved).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.PostID] = row.Total
	}
	return counts, nil
}
