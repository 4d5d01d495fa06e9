package server

import (
	"net/http"
	"time"

	"youtube-card/domain/repository"
	"youtube-card/infrastructure/configuration"
	"youtube-card/infrastructure/logger"
	httpHandler "youtube-card/interfaces/http"
	"youtube-card/interfaces/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func InitiateRouter(
	youtubeHandler httpHandler.IYouTubeHandler,
	cardHandler httpHandler.ICardHandler,
	renderHandler httpHandler.IRenderHandler,
	healthHandler httpHandler.IHealthHandler,
	limiter repository.IRateLimiter,
) *gin.Engine {
	app := configuration.C.App
	if !configuration.C.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     app.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if err := router.SetTrustedProxies(app.TrustedProxies); err != nil {
		logger.GetLogger().WithField("error", err).Error("Invalid trusted proxies, trusting none")
		_ = router.SetTrustedProxies(nil)
	}

	// the abuse quota is off in development
	disabled := configuration.C.RateLimit.Disabled || configuration.C.IsDevelopment()
	abuse := middleware.RateLimit(limiter, repository.QuotaAbuse, disabled)

	router.GET("/healthz", healthHandler.Healthz)

	api := router.Group("api")

	youtube := api.Group("/youtube", abuse)
	{
		youtube.GET("/video/:videoId", youtubeHandler.GetVideoDetails)
		youtube.GET("/video", youtubeHandler.GetVideoByURL)
	}
	api.GET("/base64", abuse, youtubeHandler.Base64)
	api.DELETE("/cache/:kind/:id", abuse, middleware.OperatorAuth(app.AdminToken), youtubeHandler.InvalidateCache)

	cards := api.Group("/card", abuse)
	{
		cards.GET("/youtube/video", cardHandler.GetCard)
		cards.POST("/youtube/video", cardHandler.PostCard)
		cards.POST("/youtube/video/frame", cardHandler.PostFrame)
		cards.POST("/preview", cardHandler.Preview)
		cards.GET("/link", cardHandler.Link)
	}

	// video export needs a render farm
	if renderHandler != nil {
		lambda := api.Group("/lambda")
		{
			lambda.POST("/render/:compositionId", renderHandler.Render)
			lambda.POST("/progress/:bucketName/:renderId", renderHandler.Progress)
			lambda.GET("/stream/:bucketName/:renderId", renderHandler.Stream)
		}
	} else {
		api.Any("/lambda/*path", func(ctx *gin.Context) {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"message": "Render farm not configured"})
		})
	}

	return router
}
