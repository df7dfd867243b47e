package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"quillpost-api/models"
	"quillpost-api/repositories"
	"quillpost-api/utils"
)

type CommentService struct {
	db       *gorm.DB
	users    *repositories.UserRepository
	posts    *repositories.PostRepository
	notifier Notifier
	now      Clock
}

func NewCommentService(db *gorm.DB, notifier Notifier) *CommentService {
	return &CommentService{
		db:       db,
		users:    repositories.NewUserRepository(db),
		posts:    repositories.NewPostRepository(db),
		notifier: notifier,
		now:      systemClock,
	}
}

// AddComment posts an approved comment on a published post. Only signed-in
// users can comment, so comments are not moderated.
func (s *CommentService) AddComment(ctx context.Context, identity *models.Identity, postID, content string) (*models.Comment, error) {
	user, err := currentUser(ctx, s.users, identity)
	if err != nil {
		return nil, err
	}

	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return nil, fmt.Errorf("post %s: %w", postID, ErrNotFound)
		}
		return nil, err
	}
	if !post.IsPublished() {
		return nil, fmt.Errorf("post %s: %w", postID, ErrNotPublished)
	}

	body, err := utils.ValidateCommentContent(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}

	email := user.Email
	comment := models.Comment{
		ID:          uuid.New().String(),
		PostID:      postID,
		AuthorID:    &user.ID,
		AuthorName:  user.Name,
		AuthorEmail: &email,
		Content:     body,
		Status:      models.CommentStatusApproved,
		CreatedAt:   s.now(),
	}
	if err := s.db.WithContext(ctx).Create(&comment).Error; err != nil {
		return nil, err
	}

	if post.AuthorID != user.ID {
		if author, err := s.users.FindByID(ctx, post.AuthorID); err == nil {
			s.notifier.NewComment(*author, *post, comment)
		}
	}
	return &comment, nil
}

// GetPostComments lists approved comments oldest first. Comments whose
// author no longer exists are left out.
func (s *CommentService) GetPostComments(ctx context.Context, postID string) ([]models.CommentWithAuthor, error) {
	var comments []models.Comment
	err := s.db.WithContext(ctx).
		Where("post_id = ? AND status = ?", postID, models.CommentStatusApproved).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(comments))
	for _, comment := range comments {
		if comment.AuthorID != nil {
			ids = append(ids, *comment.AuthorID)
		}
	}
	authors, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]models.CommentWithAuthor, 0, len(comments))
	for _, comment := range comments {
		if comment.AuthorID == nil {
			continue
		}
		author, ok := authors[*comment.AuthorID]
		if !ok {
			continue
		}
		result = append(result, models.CommentWithAuthor{Comment: comment, Author: author.Summary()})
	}
	return result, nil
}

// DeleteComment lets the comment's author or the post's owner remove it.
func (s *CommentService) DeleteComment(ctx context.Context, identity *models.Identity, commentID string) error {
	user, err := currentUser(ctx, s.users, identity)
	if err != nil {
		return err
	}

	var comment models.Comment
	if err := s.db.WithContext(ctx).Take(&comment, "id = ?", commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("comment %s: %w", commentID, ErrNotFound)
		}
		return err
	}

	post, err := s.posts.FindByID(ctx, comment.PostID)
	if err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return fmt.Errorf("post %s: %w", comment.PostID, ErrNotFound)
		}
		return err
	}

	isAuthor := comment.AuthorID != nil && *comment.AuthorID == user.ID
	if !isAuthor && post.AuthorID != user.ID {
		return fmt.Errorf("comment %s: %w", commentID, ErrNotAuthorized)
	}

	return s.db.WithContext(ctx).Delete(&comment).Error
}
