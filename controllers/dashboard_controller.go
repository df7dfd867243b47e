package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quillpost-api/middleware"
	"quillpost-api/services"
)

const (
	defaultActivityLimit = 10
	defaultTopPostsLimit = 5
)

type DashboardController struct {
	dashboard *services.DashboardService
}

func NewDashboardController(dashboard *services.DashboardService) *DashboardController {
	return &DashboardController{dashboard: dashboard}
}

func (dc *DashboardController) GetAnalytics(c *gin.Context) {
	analytics, err := dc.dashboard.GetAnalytics(c.Request.Context(), middleware.IdentityFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, analytics)
}

func (dc *DashboardController) GetRecentActivity(c *gin.Context) {
	activity, err := dc.dashboard.GetRecentActivity(c.Request.Context(), middleware.IdentityFrom(c), queryLimit(c, defaultActivityLimit))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"activity": activity})
}

func (dc *DashboardController) GetPostsWithAnalytics(c *gin.Context) {
	posts, err := dc.dashboard.GetPostsWithAnalytics(c.Request.Context(), middleware.IdentityFrom(c), queryLimit(c, defaultTopPostsLimit))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

func (dc *DashboardController) GetDailyViews(c *gin.Context) {
	days, err := dc.dashboard.GetDailyViews(c.Request.Context(), middleware.IdentityFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"days": days})
}
