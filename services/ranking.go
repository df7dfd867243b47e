package services

import (
	"sort"
	"time"

	"quillpost-api/models"
)

// Ranking weights. Views are the cheapest signal, then likes, then follows.
const (
	TrendingLikeWeight       = 3
	EngagementLikeWeight     = 5
	EngagementFollowerWeight = 10

	RecencyWindow = 7 * 24 * time.Hour
)

// TrendingScore ranks a post published within the trending window.
func TrendingScore(post models.Post) int64 {
	return post.ViewCount + post.LikeCount*TrendingLikeWeight
}

// EngagementScore ranks a candidate account from its recent posts and
// follower count.
func EngagementScore(recentPosts []models.Post, followerCount int64) int64 {
	var views, likes int64
	for _, post := range recentPosts {
		views += post.ViewCount
		likes += post.LikeCount
	}
	return views + likes*EngagementLikeWeight + followerCount*EngagementFollowerWeight
}

// WithinWindow reports whether t falls inside the trailing RecencyWindow.
func WithinWindow(t *time.Time, now time.Time) bool {
	return t != nil && !t.Before(now.Add(-RecencyWindow))
}

// RankTrending scores posts inside the window and orders them by score,
// highest first. Posts outside the window are dropped.
func RankTrending(posts []models.Post, now time.Time) []models.Post {
	ranked := make([]models.Post, 0, len(posts))
	for _, post := range posts {
		if post.IsPublished() && WithinWindow(post.PublishedAt, now) {
			ranked = append(ranked, post)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return TrendingScore(ranked[i]) > TrendingScore(ranked[j])
	})
	return ranked
}

// RankSuggestions orders candidates with a recent post first, then by
// engagement score. Equal keys keep their input order.
func RankSuggestions(candidates []models.SuggestedUser, now time.Time) []models.SuggestedUser {
	sort.SliceStable(candidates, func(i, j int) bool {
		iRecent := WithinWindow(candidates[i].LastPostAt, now)
		jRecent := WithinWindow(candidates[j].LastPostAt, now)
		if iRecent != jRecent {
			return iRecent
		}
		return candidates[i].EngagementScore > candidates[j].EngagementScore
	})
	return candidates
}
