// File: /controllers/follow_controller.go
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quillpost-api/middleware"
	"quillpost-api/services"
)

const defaultFollowListLimit = 20

type FollowController struct {
	follows *services.FollowService
}

func NewFollowController(follows *services.FollowService) *FollowController {
	return &FollowController{follows: follows}
}

func (fc *FollowController) ToggleFollow(c *gin.Context) {
	following, err := fc.follows.ToggleFollow(c.Request.Context(), middleware.IdentityFrom(c), c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"following": following})
}

func (fc *FollowController) GetFollowStatus(c *gin.Context) {
	following, err := fc.follows.IsFollowing(c.Request.Context(), middleware.IdentityFrom(c), c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"following": following})
}

func (fc *FollowController) GetFollowerCount(c *gin.Context) {
	count, err := fc.follows.FollowerCount(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (fc *FollowController) GetMyFollowers(c *gin.Context) {
	followers, err := fc.follows.GetMyFollowers(c.Request.Context(), middleware.IdentityFrom(c), queryLimit(c, defaultFollowListLimit))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"followers": followers})
}

func (fc *FollowController) GetMyFollowing(c *gin.Context) {
	following, err := fc.follows.GetMyFollowing(c.Request.Context(), middleware.IdentityFrom(c), queryLimit(c, defaultFollowListLimit))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"following": following})
}
