// File: /routes/routes.go
package routes

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"quillpost-api/config"
	"quillpost-api/controllers"
	"quillpost-api/middleware"
	"quillpost-api/services"
)

type Dependencies struct {
	DB       *gorm.DB
	Config   *config.Config
	Logger   *zap.Logger
	Registry *prometheus.Registry
	Metrics  *services.Metrics
	Notifier services.Notifier
}

// NewRouter builds the gin engine with the global middleware and all routes.
// Background goroutines started by the middleware stop when ctx is done.
func NewRouter(ctx context.Context, deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(deps.Logger.Named("http")))
	r.Use(middleware.ErrorHandler(deps.Logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.Metrics(deps.Registry))

	SetupRoutes(ctx, r, deps)
	return r
}

func SetupRoutes(ctx context.Context, r *gin.Engine, deps Dependencies) {
	db, cfg := deps.DB, deps.Config

	userService := services.NewUserService(db)
	postService := services.NewPostService(db, deps.Metrics)
	followService := services.NewFollowService(db, deps.Metrics, deps.Notifier)

	userController := controllers.NewUserController(userService, followService)
	postController := controllers.NewPostController(postService, userService, services.NewCounterLedger(db, deps.Metrics))
	commentController := controllers.NewCommentController(services.NewCommentService(db, deps.Notifier))
	followController := controllers.NewFollowController(followService)
	feedController := controllers.NewFeedController(services.NewFeedService(db))
	dashboardController := controllers.NewDashboardController(services.NewDashboardService(db))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"status":  "healthy",
			"email":   cfg.EmailEnabled(),
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))

	// API version 1
	v1 := r.Group("/api/v1")
	v1.Use(middleware.Identity(cfg.JWTSecret))
	v1.Use(middleware.RateLimit(ctx, cfg.RateLimitPerMinute, cfg.RateLimitBurst))
	v1.Use(middleware.ValidateJSON())

	// Public routes, identity optional
	{
		v1.GET("/feed", feedController.GetFeed)
		v1.GET("/feed/trending", feedController.GetTrending)

		v1.GET("/users/suggested", feedController.GetSuggestedUsers)
		v1.GET("/users/:username", userController.GetProfile)
		v1.GET("/users/:username/posts", feedController.GetUserPosts)
		v1.GET("/users/:username/posts/:id", feedController.GetUserPost)

		v1.GET("/posts/:id", postController.GetPost)
		v1.GET("/posts/:id/comments", commentController.GetComments)
		v1.GET("/posts/:id/liked", postController.HasLiked)
		v1.POST("/posts/:id/like", postController.ToggleLike)
		v1.POST("/posts/:id/view", postController.RecordView)

		v1.GET("/follows/:userId/count", followController.GetFollowerCount)
		v1.GET("/follows/:userId/status", followController.GetFollowStatus)
	}

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.RequireIdentity())
	{
		me := protected.Group("/me")
		{
			me.POST("", userController.StoreUser)
			me.GET("", userController.GetCurrentUser)
			me.GET("/followers", followController.GetMyFollowers)
			me.GET("/following", followController.GetMyFollowing)
		}

		posts := protected.Group("/posts")
		{
			posts.POST("", postController.CreatePost)
			posts.GET("/draft", postController.GetDraft)
			posts.GET("/mine", postController.GetMyPosts)
			posts.PUT("/:id", postController.UpdatePost)
			posts.DELETE("/:id", postController.DeletePost)
			posts.POST("/:id/comments", commentController.CreateComment)
		}

		protected.DELETE("/comments/:id", commentController.DeleteComment)
		protected.POST("/follows/:userId", followController.ToggleFollow)

		dashboard := protected.Group("/dashboard")
		{
			dashboard.GET("/analytics", dashboardController.GetAnalytics)
			dashboard.GET("/activity", dashboardController.GetRecentActivity)
			dashboard.GET("/posts", dashboardController.GetPostsWithAnalytics)
			dashboard.GET("/daily-views", dashboardController.GetDailyViews)
		}
	}
}
