package models

import (
	"time"
)

type CommentStatus string

const (
	CommentStatusApproved CommentStatus = "approved"
	CommentStatusPending  CommentStatus = "pending"
	CommentStatusRejected CommentStatus = "rejected"
)

type Comment struct {
	ID          string        `json:"id" gorm:"primaryKey;size:191"`
	PostID      string        `json:"post_id" gorm:"not null;size:191;index:idx_comments_post_status,priority:1"`
	AuthorID    *string       `json:"author_id,omitempty" gorm:"size:191;index"`
	AuthorName  string        `json:"author_name" gorm:"not null;size:255"`
	AuthorEmail *string       `json:"-" gorm:"size:255"`
	Content     string        `json:"content" gorm:"type:text;not null"`
	Status      CommentStatus `json:"status" gorm:"not null;size:20;index:idx_comments_post_status,priority:2"`
	CreatedAt   time.Time     `json:"created_at"`
}

type CommentWithAuthor struct {
	Comment
	Author AuthorSummary `json:"author"`
}
