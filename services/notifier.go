package services

import (
	"quillpost-api/models"
)

// Notifier tells authors about new followers and comments. Implementations
// must not block the caller.
type Notifier interface {
	NewFollower(author, follower models.User)
	NewComment(author models.User, post models.Post, comment models.Comment)
}

type NopNotifier struct{}

func (NopNotifier) NewFollower(models.User, models.User) {}
func (NopNotifier) NewComment(models.User, models.Post, models.Comment) {}
