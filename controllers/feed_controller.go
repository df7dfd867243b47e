package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quillpost-api/middleware"
	"quillpost-api/services"
)

const defaultFeedLimit = 10

// FeedController serves the public, read-only side of the site.
type FeedController struct {
	feed *services.FeedService
}

func NewFeedController(feed *services.FeedService) *FeedController {
	return &FeedController{feed: feed}
}

func (fc *FeedController) GetFeed(c *gin.Context) {
	page, err := fc.feed.GetFeed(c.Request.Context(), queryLimit(c, defaultFeedLimit), c.Query("cursor"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func (fc *FeedController) GetTrending(c *gin.Context) {
	posts, err := fc.feed.GetTrendingPosts(c.Request.Context(), queryLimit(c, defaultFeedLimit))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

func (fc *FeedController) GetSuggestedUsers(c *gin.Context) {
	users, err := fc.feed.GetSuggestedUsers(c.Request.Context(), middleware.IdentityFrom(c), queryLimit(c, defaultFeedLimit))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (fc *FeedController) GetUserPosts(c *gin.Context) {
	page, err := fc.feed.GetPublishedPostsByUsername(c.Request.Context(), c.Param("username"), queryLimit(c, defaultFeedLimit), c.Query("cursor"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func (fc *FeedController) GetUserPost(c *gin.Context) {
	post, err := fc.feed.GetPublishedPost(c.Request.Context(), c.Param("username"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, post)
}
