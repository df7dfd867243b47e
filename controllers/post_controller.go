// File: /controllers/post_controller.go
package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"quillpost-api/middleware"
	"quillpost-api/models"
	"quillpost-api/services"
	"quillpost-api/utils"
)

type PostController struct {
	posts  *services.PostService
	users  *services.UserService
	ledger *services.CounterLedger
}

func NewPostController(posts *services.PostService, users *services.UserService, ledger *services.CounterLedger) *PostController {
	return &PostController{
		posts:  posts,
		users:  users,
		ledger: ledger,
	}
}

type CreatePostRequest struct {
	Title         string            `json:"title" binding:"required"`
	Content       string            `json:"content"`
	Status        models.PostStatus `json:"status" binding:"required,oneof=draft published"`
	Tags          []string          `json:"tags"`
	Category      *string           `json:"category"`
	FeaturedImage *string           `json:"featured_image"`
	ScheduledFor  *time.Time        `json:"scheduled_for"`
}

type UpdatePostRequest struct {
	Title         *string            `json:"title"`
	Content       *string            `json:"content"`
	Status        *models.PostStatus `json:"status" binding:"omitempty,oneof=draft published"`
	Tags          *[]string          `json:"tags"`
	Category      *string            `json:"category"`
	FeaturedImage *string            `json:"featured_image"`
	ScheduledFor  *time.Time         `json:"scheduled_for"`
}

func (pc *PostController) CreatePost(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	post, err := pc.posts.Create(c.Request.Context(), middleware.IdentityFrom(c), services.PostInput{
		Title:         req.Title,
		Content:       req.Content,
		Status:        req.Status,
		Tags:          req.Tags,
		Category:      req.Category,
		FeaturedImage: req.FeaturedImage,
		ScheduledFor:  req.ScheduledFor,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, post)
}

func (pc *PostController) UpdatePost(c *gin.Context) {
	var req UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	post, err := pc.posts.Update(c.Request.Context(), middleware.IdentityFrom(c), c.Param("id"), services.PostUpdate{
		Title:         req.Title,
		Content:       req.Content,
		Status:        req.Status,
		Tags:          req.Tags,
		Category:      req.Category,
		FeaturedImage: req.FeaturedImage,
		ScheduledFor:  req.ScheduledFor,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

func (pc *PostController) DeletePost(c *gin.Context) {
	if err := pc.posts.Delete(c.Request.Context(), middleware.IdentityFrom(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	utils.SendSuccess(c, "Post deleted successfully", nil)
}

// GetPost returns any published post, and drafts only to their author.
func (pc *PostController) GetPost(c *gin.Context) {
	ctx := c.Request.Context()

	post, err := pc.posts.GetByID(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if !post.IsPublished() {
		user, err := pc.users.Current(ctx, middleware.IdentityFrom(c))
		if err != nil && !errors.Is(err, services.ErrNotAuthenticated) && !errors.Is(err, services.ErrNotFound) {
			respondError(c, err)
			return
		}
		if user == nil || user.ID != post.AuthorID {
			utils.SendError(c, http.StatusNotFound, "Post not found")
			return
		}
	}

	c.JSON(http.StatusOK, post)
}

func (pc *PostController) GetDraft(c *gin.Context) {
	draft, err := pc.posts.GetUserDraft(c.Request.Context(), middleware.IdentityFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"draft": draft})
}

func (pc *PostController) GetMyPosts(c *gin.Context) {
	var status *models.PostStatus
	if raw := c.Query("status"); raw != "" {
		s := models.PostStatus(raw)
		if !s.Valid() {
			utils.SendValidationError(c, "status must be draft or published")
			return
		}
		status = &s
	}

	posts, err := pc.posts.GetUserPosts(c.Request.Context(), middleware.IdentityFrom(c), status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// actingUserID resolves the caller to a user id, or "" for anonymous callers.
func (pc *PostController) actingUserID(c *gin.Context) (string, error) {
	identity := middleware.IdentityFrom(c)
	if identity == nil {
		return "", nil
	}
	user, err := pc.users.Current(c.Request.Context(), identity)
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

func (pc *PostController) ToggleLike(c *gin.Context) {
	userID, err := pc.actingUserID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := pc.ledger.ToggleLike(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (pc *PostController) HasLiked(c *gin.Context) {
	userID, err := pc.actingUserID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	liked := false
	if userID != "" {
		liked, err = pc.ledger.HasUserLiked(c.Request.Context(), c.Param("id"), userID)
		if err != nil {
			respondError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"liked": liked})
}

// RecordView always answers 204; counting is best effort.
func (pc *PostController) RecordView(c *gin.Context) {
	if err := pc.ledger.IncrementView(c.Request.Context(), c.Param("id")); err != nil {
		_ = c.Error(err)
	}

	c.Status(http.StatusNoContent)
	c.Writer.WriteHeaderNow()
}
