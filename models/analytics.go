package models

import (
	"time"
)

type Analytics struct {
	TotalViews      int64   `json:"total_views"`
	TotalLikes      int64   `json:"total_likes"`
	TotalComments   int64   `json:"total_comments"`
	TotalFollowers  int64   `json:"total_followers"`
	ViewsGrowth     float64 `json:"views_growth"`
	LikesGrowth     float64 `json:"likes_growth"`
	CommentsGrowth  float64 `json:"comments_growth"`
	FollowersGrowth float64 `json:"followers_growth"`
}

type ActivityType string

const (
	ActivityLike    ActivityType = "like"
	ActivityComment ActivityType = "comment"
	ActivityFollow  ActivityType = "follow"
)

type Activity struct {
	Type ActivityType `json:"type"`
	User string       `json:"user"`
	Post string       `json:"post,omitempty"`
	Time time.Time    `json:"time"`
}

type PostWithCommentCount struct {
	Post
	CommentCount int64 `json:"comment_count"`
}

type DailyViews struct {
	Date     string `json:"date"`
	Views    int64  `json:"views"`
	Day      string `json:"day"`
	FullDate string `json:"full_date"`
}

type RecentPostSummary struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	ViewCount   int64      `json:"view_count"`
	LikeCount   int64      `json:"like_count"`
}

type SuggestedUser struct {
	AuthorSummary
	FollowerCount   int64               `json:"follower_count"`
	PostCount       int                 `json:"post_count"`
	EngagementScore int64               `json:"engagement_score"`
	LastPostAt      *time.Time          `json:"last_post_at"`
	RecentPosts     []RecentPostSummary `json:"recent_posts"`
}

type FollowerEntry struct {
	AuthorSummary
	FollowedAt  time.Time  `json:"followed_at"`
	FollowsBack bool       `json:"follows_back"`
	PostCount   int        `json:"post_count"`
	LastPostAt  *time.Time `json:"last_post_at"`
}

type FollowingEntry struct {
	AuthorSummary
	FollowedAt    time.Time           `json:"followed_at"`
	FollowerCount int64               `json:"follower_count"`
	PostCount     int                 `json:"post_count"`
	LastPostAt    *time.Time          `json:"last_post_at"`
	RecentPosts   []RecentPostSummary `json:"recent_posts"`
}
