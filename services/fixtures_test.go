package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"quillpost-api/models"
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func identityOf(u *models.User) *models.Identity {
	return &models.Identity{TokenIdentifier: u.TokenIdentifier, Name: u.Name, Email: u.Email, Username: u.Username}
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	user := &models.User{
		ID:              uuid.NewString(),
		TokenIdentifier: "idp|" + username,
		Name:            username,
		Email:           username + "@example.com",
		Username:        username,
		CreatedAt:       testNow,
		LastActiveAt:    testNow,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

type postOpt func(*models.Post)

func published(at time.Time) postOpt {
	return func(p *models.Post) {
		p.Status = models.PostStatusPublished
		p.PublishedAt = &at
	}
}

func counters(views, likes int64) postOpt {
	return func(p *models.Post) {
		p.ViewCount = views
		p.LikeCount = likes
	}
}

func createdAt(at time.Time) postOpt {
	return func(p *models.Post) {
		p.CreatedAt = at
		p.UpdatedAt = at
	}
}

func createPost(t *testing.T, db *gorm.DB, author *models.User, opts ...postOpt) *models.Post {
	t.Helper()

	post := &models.Post{
		ID:        uuid.NewString(),
		AuthorID:  author.ID,
		Title:     "Post by " + author.Username,
		Content:   "body",
		Status:    models.PostStatusDraft,
		Tags:      models.StringSlice{},
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}
	for _, opt := range opts {
		opt(post)
	}
	require.NoError(t, db.Create(post).Error)
	return post
}

func reloadPost(t *testing.T, db *gorm.DB, id string) models.Post {
	t.Helper()

	var post models.Post
	require.NoError(t, db.Take(&post, "id = ?", id).Error)
	return post
}

func count(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()

	var n int64
	require.NoError(t, db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

type recordingNotifier struct {
	followers []string
	comments  []string
}

func (r *recordingNotifier) NewFollower(author, follower models.User) {
	r.followers = append(r.followers, author.ID+"<-"+follower.ID)
}

func (r *recordingNotifier) NewComment(author models.User, post models.Post, comment models.Comment) {
	r.comments = append(r.comments, post.ID+":"+comment.Content)
}
