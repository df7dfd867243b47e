// File: /controllers/user_controller.go
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quillpost-api/middleware"
	"quillpost-api/models"
	"quillpost-api/services"
)

type UserController struct {
	users   *services.UserService
	follows *services.FollowService
}

func NewUserController(users *services.UserService, follows *services.FollowService) *UserController {
	return &UserController{
		users:   users,
		follows: follows,
	}
}

type UserProfile struct {
	models.AuthorSummary
	FollowerCount int64 `json:"follower_count"`
	IsFollowing   bool  `json:"is_following"`
}

// StoreUser records the caller on first sign-in and refreshes them after.
func (uc *UserController) StoreUser(c *gin.Context) {
	user, err := uc.users.Store(c.Request.Context(), middleware.IdentityFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (uc *UserController) GetCurrentUser(c *gin.Context) {
	user, err := uc.users.Current(c.Request.Context(), middleware.IdentityFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (uc *UserController) GetProfile(c *gin.Context) {
	ctx := c.Request.Context()

	user, err := uc.users.GetByUsername(ctx, c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}

	followers, err := uc.follows.FollowerCount(ctx, user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	following, err := uc.follows.IsFollowing(ctx, middleware.IdentityFrom(c), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, UserProfile{
		AuthorSummary: user.Summary(),
		FollowerCount: followers,
		IsFollowing:   following,
	})
}
