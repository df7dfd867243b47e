package models

import (
	"time"
)

type User struct {
	ID              string    `json:"id" gorm:"primaryKey;size:191"`
	TokenIdentifier string    `json:"-" gorm:"uniqueIndex;not null;size:191"`
	Name            string    `json:"name" gorm:"not null;size:255"`
	Email           string    `json:"email" gorm:"index;size:255"`
	Username        string    `json:"username" gorm:"index;size:50"`
	ImageURL        string    `json:"image_url" gorm:"size:500"`
	CreatedAt       time.Time `json:"created_at"`
	LastActiveAt    time.Time `json:"last_active_at"`
}

// Summary returns the public author fields attached to hydrated rows.
func (u User) Summary() AuthorSummary {
	return AuthorSummary{
		ID:       u.ID,
		Name:     u.Name,
		Username: u.Username,
		ImageURL: u.ImageURL,
	}
}

type AuthorSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	ImageURL string `json:"image_url"`
}

type Follow struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	FollowerID  string    `json:"follower_id" gorm:"not null;size:191;uniqueIndex:uk_follows_follower_following,priority:1"`
	FollowingID string    `json:"following_id" gorm:"not null;size:191;uniqueIndex:uk_follows_follower_following,priority:2;index"`
	CreatedAt   time.Time `json:"created_at"`
}

// Identity is what the identity provider tells us about the caller.
type Identity struct {
	TokenIdentifier string
	Name            string
	Email           string
	Username        string
	PictureURL      string
}
