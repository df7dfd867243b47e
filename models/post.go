package models

import (
	"time"
)

type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
)

func (s PostStatus) Valid() bool {
	return s == PostStatusDraft || s == PostStatusPublished
}

type Post struct {
	ID            string      `json:"id" gorm:"primaryKey;size:191"`
	AuthorID      string      `json:"author_id" gorm:"not null;size:191;index:idx_posts_author_status,priority:1"`
	Title         string      `json:"title" gorm:"not null;size:255"`
	Content       string      `json:"content" gorm:"type:text"`
	Status        PostStatus  `json:"status" gorm:"not null;size:20;index:idx_posts_author_status,priority:2;index:idx_posts_status_published,priority:1"`
	Tags          StringSlice `json:"tags" gorm:"type:json"`
	Category      *string     `json:"category,omitempty" gorm:"size:100"`
	FeaturedImage *string     `json:"featured_image,omitempty" gorm:"size:500"`
	ViewCount     int64       `json:"view_count" gorm:"not null;default:0"`
	LikeCount     int64       `json:"like_count" gorm:"not null;default:0"`
	CreatedAt     time.Time   `json:"created_at" gorm:"index"`
	UpdatedAt     time.Time   `json:"updated_at"`
	PublishedAt   *time.Time  `json:"published_at,omitempty" gorm:"index:idx_posts_status_published,priority:2"`
	ScheduledFor  *time.Time  `json:"scheduled_for,omitempty"`
}

func (p Post) IsPublished() bool {
	return p.Status == PostStatusPublished
}

type Like struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PostID    string    `json:"post_id" gorm:"not null;size:191;uniqueIndex:uk_likes_post_user,priority:1"`
	UserID    *string   `json:"user_id,omitempty" gorm:"size:191;uniqueIndex:uk_likes_post_user,priority:2;index"`
	CreatedAt time.Time `json:"created_at"`
}

// DailyStat accumulates views per post per UTC calendar day.
type DailyStat struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PostID    string    `json:"post_id" gorm:"not null;size:191;uniqueIndex:uk_daily_stats_post_date,priority:1"`
	Date      string    `json:"date" gorm:"not null;size:10;uniqueIndex:uk_daily_stats_post_date,priority:2;index"`
	Views     int64     `json:"views" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type PostWithAuthor struct {
	Post
	Author AuthorSummary `json:"author"`
}

type TrendingPost struct {
	PostWithAuthor
	TrendingScore int64 `json:"trending_score"`
}

// FeedResponse is one page of author-hydrated posts.
type FeedResponse struct {
	Posts      []PostWithAuthor `json:"posts"`
	HasMore    bool             `json:"has_more"`
	NextCursor *string          `json:"next_cursor,omitempty"`
}

type LikeResult struct {
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"like_count"`
}
