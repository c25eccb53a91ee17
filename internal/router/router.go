package router

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/memorialqr/internal/config"
	"github.com/memorialqr/internal/handler"
)

// SetupRouter configures the Gin engine and routes.
func SetupRouter(api *handler.API, cfg config.AppConfig) *gin.Engine {
	r := gin.Default()

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("memorialqr_session", store))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	// Uploaded memorial, gallery and timeline images.
	r.Static(cfg.UploadURLPath, cfg.UploadDir)

	r.GET("/", api.Root)
	r.GET("/health", api.Health)

	v1 := r.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/token", handler.RateLimit(handler.LimitLogin), api.Login)
			auth.POST("/register", handler.RateLimit(handler.LimitRegister), api.Register)
		}

		users := v1.Group("/users")
		users.Use(api.AuthRequired())
		{
			users.GET("/me", api.Me)
		}

		memorials := v1.Group("/memorials")
		{
			memorials.GET("/public/:slug", handler.RateLimit(handler.LimitPublicGet), api.GetPublicMemorial)

			owned := memorials.Group("")
			owned.Use(api.AuthRequired())
			{
				owned.GET("/:slug/qr", handler.RateLimit(handler.LimitPublicGet), api.GetMemorialQR)
				owned.POST("/", api.CreateMemorial)
				owned.GET("/", api.ListMemorials)
				owned.PUT("/:id", api.UpdateMemorial)
				owned.DELETE("/:id", api.DeleteMemorial)
				owned.POST("/:id/upload-photo", handler.RateLimit(handler.LimitUpload), api.UploadMemorialPhoto)
			}
		}

		condolences := v1.Group("/condolences")
		{
			condolences.GET("/:slug", handler.RateLimit(handler.LimitPublicGet), api.ListCondolences)
			condolences.POST("/:slug", handler.RateLimit(handler.LimitPublicPut), api.CreateCondolence)

			owned := condolences.Group("")
			owned.Use(api.AuthRequired())
			{
				owned.GET("/manage/:slug", api.ListCondolencesForOwner)
				owned.PATCH("/:id", api.ModerateCondolence)
				owned.DELETE("/:id", api.DeleteCondolence)
			}
		}

		gallery := v1.Group("/gallery")
		{
			gallery.GET("/public/:slug", handler.RateLimit(handler.LimitPublicGet), api.GetPublicGallery)

			owned := gallery.Group("")
			owned.Use(api.AuthRequired())
			{
				owned.POST("/:memorialID", handler.RateLimit(handler.LimitUpload), api.UploadMedia)
				owned.PUT("/:id", api.UpdateMediaItem)
				owned.DELETE("/:id", api.DeleteMediaItem)
			}
		}

		timeline := v1.Group("/timeline")
		{
			timeline.GET("/public/:slug", handler.RateLimit(handler.LimitPublicGet), api.GetPublicTimeline)
			timeline.GET("/event-types", api.GetTimelineEventTypes)

			owned := timeline.Group("")
			owned.Use(api.AuthRequired())
			{
				owned.POST("/:id", api.CreateTimelineEvent)
				owned.PUT("/:id", api.UpdateTimelineEvent)
				owned.DELETE("/:id", api.DeleteTimelineEvent)
				owned.POST("/:id/image", handler.RateLimit(handler.LimitUpload), api.UploadTimelineEventImage)
			}
		}

		analytics := v1.Group("/analytics")
		{
			public := analytics.Group("")
			public.Use(handler.RateLimit(handler.LimitAnalytics))
			{
				public.POST("/visit/:slug", api.RegisterVisit)
				public.GET("/reactions/:slug", api.GetReactions)
				public.POST("/reactions/:slug", api.ToggleReaction)
			}

			owned := analytics.Group("")
			owned.Use(api.AuthRequired())
			{
				owned.GET("/dashboard", api.GetDashboardAnalytics)
				owned.GET("/filtered/:slug", api.GetFilteredAnalytics)
				owned.GET("/locations/:slug", api.GetLocationStats)
			}
		}
	}

	return r
}
