package services

import (
	"context"
	"math"
	"sort"
	"time"

	"gorm.io/gorm"

	"quillpost-api/models"
	"quillpost-api/repositories"
)

const (
	growthWindow      = 30 * 24 * time.Hour
	chartDays         = 30
	activityPerSource = 5
)

// DashboardService computes author analytics from the stored counters.
type DashboardService struct {
	db    *gorm.DB
	users *repositories.UserRepository
	posts *repositories.PostRepository
	now   Clock
}

func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{
		db:    db,
		users: repositories.NewUserRepository(db),
		posts: repositories.NewPostRepository(db),
		now:   systemClock,
	}
}

func postIDs(posts []models.Post) []string {
	ids := make([]string, 0, len(posts))
	for _, post := range posts {
		ids = append(ids, post.ID)
	}
	return ids
}

// growth is the share of total that arrived recently, in percent rounded to
// one decimal.
func growth(recent, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(recent)/float64(total)*1000) / 10
}

func (s *DashboardService) GetAnalytics(ctx context.Context, identity *models.Identity) (*models.Analytics, error) {
	user, err := currentUser(ctx, s.users, identity)
	if err != nil {
		return nil, err
	}

	posts, err := s.posts.ByAuthor(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	since := s.now().Add(-growthWindow)
	var a models.Analytics
	var recentViews, recentLikes int64
	for _, post := range posts {
		a.TotalViews += post.ViewCount
		a.TotalLikes += post.LikeCount
		if post.CreatedAt.After(since) {
			recentViews += post.ViewCount
			recentLikes += post.LikeCount
		}
	}

	db := s.db.WithContext(ctx)
	if err := db.Model(&models.Follow{}).Where("following_id = ?", user.ID).Count(&a.TotalFollowers).Error; err != nil {
		return nil, err
	}
	var recentFollowers int64
	if err := db.Model(&models.Follow{}).Where("following_id = ? AND created_at > ?", user.ID, since).Count(&recentFollowers).Error; err != nil {
		return nil, err
	}

	var recentComments int64
	if ids := postIDs(posts); len(ids) > 0 {
		approved := db.Model(&models.Comment{}).Where("post_id IN ? AND status = ?", ids, models.CommentStatusApproved)
		if err := approved.Session(&gorm.Session{}).Count(&a.TotalComments).Error; err != nil {
			return nil, err
		}
		if err := approved.Session(&gorm.Session{}).Where("created_at > ?", since).Count(&recentComments).Error; err != nil {
			return nil, err
		}
	}

	a.ViewsGrowth = growth(recentViews, a.TotalViews)
	a.LikesGrowth = growth(recentLikes, a.TotalLikes)
	a.CommentsGrowth = growth(recentComments, a.TotalComments)
	a.FollowersGrowth = growth(recentFollowers, a.TotalFollowers)

	return &a, nil
}

// GetRecentActivity merges recent likes, comments and follows on the
// caller's work, newest first.
func (s *DashboardService) GetRecentActivity(ctx context.Context, identity *models.Identity, limit int) ([]models.Activity, error) {
	user, err := currentUser(ctx, s.users, identity)
	if err != nil {
		return nil, err
	}

	posts, err := s.posts.ByAuthor(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	titles := make(map[string]string, len(posts))
	for _, post := range posts {
		titles[post.ID] = post.Title
	}

	db := s.db.WithContext(ctx)
	activities := make([]models.Activity, 0)

	if ids := postIDs(posts); len(ids) > 0 {
		var likes []models.Like
		if err := db.Where("post_id IN ? AND user_id IS NOT NULL", ids).Order("created_at DESC").Find(&likes).Error; err != nil {
			return nil, err
		}
		likes = capPerPost(likes, func(l models.Like) string { return l.PostID })

		likerIDs := make([]string, 0, len(likes))
		for _, like := range likes {
			likerIDs = append(likerIDs, *like.UserID)
		}
		likers, err := s.users.FindByIDs(ctx, likerIDs)
		if err != nil {
			return nil, err
		}
		for _, like := range likes {
			liker, ok := likers[*like.UserID]
			if !ok {
				continue
			}
			activities = append(activities, models.Activity{
				Type: models.ActivityLike,
				User: liker.Name,
				Post: titles[like.PostID],
				Time: like.CreatedAt,
			})
		}

		var comments []models.Comment
		err = db.Where("post_id IN ? AND status = ?", ids, models.CommentStatusApproved).
			Order("created_at DESC").
			Find(&comments).Error
		if err != nil {
			return nil, err
		}
		for _, comment := range capPerPost(comments, func(c models.Comment) string { return c.PostID }) {
			activities = append(activities, models.Activity{
				Type: models.ActivityComment,
				User: comment.AuthorName,
				Post: titles[comment.PostID],
				Time: comment.CreatedAt,
			})
		}
	}

	var follows []models.Follow
	if err := db.Where("following_id = ?", user.ID).Order("created_at DESC").Limit(activityPerSource).Find(&follows).Error; err != nil {
		return nil, err
	}
	followerIDs := make([]string, 0, len(follows))
	for _, follow := range follows {
		followerIDs = append(followerIDs, follow.FollowerID)
	}
	followers, err := s.users.FindByIDs(ctx, followerIDs)
	if err != nil {
		return nil, err
	}
	for _, follow := range follows {
		follower, ok := followers[follow.FollowerID]
		if !ok {
			continue
		}
		activities = append(activities, models.Activity{
			Type: models.ActivityFollow,
			User: follower.Name,
			Time: follow.CreatedAt,
		})
	}

	sort.SliceStable(activities, func(i, j int) bool {
		return activities[i].Time.After(activities[j].Time)
	})
	if len(activities) > limit {
		activities = activities[:limit]
	}
	return activities, nil
}

// capPerPost keeps the first activityPerSource rows of each post from rows
// already sorted newest first.
func capPerPost[T any](rows []T, postID func(T) string) []T {
	seen := make(map[string]int)
	out := rows[:0]
	for _, row := range rows {
		id := postID(row)
		if seen[id] < activityPerSource {
			seen[id]++
			out = append(out, row)
		}
	}
	return out
}

func (s *DashboardService) GetPostsWithAnalytics(ctx context.Context, identity *models.Identity, limit int) ([]models.PostWithCommentCount, error) {
	user, err := currentUser(ctx, s.users, identity)
	if err != nil {
		return nil, err
	}

	var posts []models.Post
	err = s.db.WithContext(ctx).
		Where("author_id = ?", user.ID).
		Order("created_at DESC").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}

	counts, err := s.posts.ApprovedCommentCounts(ctx, postIDs(posts))
	if err != nil {
		return nil, err
	}

	result := make([]models.PostWithCommentCount, 0, len(posts))
	for _, post := range posts {
		result = append(result, models.PostWithCommentCount{Post: post, CommentCount: counts[post.ID]})
	}
	return result, nil
}

// GetDailyViews returns one bucket per UTC day for the last 30 days, oldest
// first, with days without views reported as zero.
func (s *DashboardService) GetDailyViews(ctx context.Context, identity *models.Identity) ([]models.DailyViews, error) {
	user, err := currentUser(ctx, s.users, identity)
	if err != nil {
		return nil, err
	}

	posts, err := s.posts.ByAuthor(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	today := s.now().UTC()
	days := make([]models.DailyViews, 0, chartDays)
	for i := chartDays - 1; i >= 0; i-- {
		date := today.AddDate(0, 0, -i)
		days = append(days, models.DailyViews{
			Date:     DayKey(date),
			Day:      date.Format("Mon"),
			FullDate: date.Format("Jan 2"),
		})
	}

	ids := postIDs(posts)
	if len(ids) == 0 {
		return days, nil
	}

	var rows []struct {
		Date  string
		Total int64
	}
	err = s.db.WithContext(ctx).Model(&models.DailyStat{}).
		Select("date, SUM(views) AS total").
		Where("post_id IN ? AND date >= ?", ids, days[0].Date).
		Group("date").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	byDate := make(map[string]int64, len(rows))
	for _, row := range rows {
		byDate[row.Date] = row.Total
	}
	for i := range days {
		days[i].Views = byDate[days[i].Date]
	}
	return days, nil
}
