package api

import (
	"log"
	stdhttp "net/http"

	intconfig "smartbus/internal/config"
	h "smartbus/internal/http/handlers"
	"smartbus/internal/http/middleware"
	"smartbus/internal/metrics"
	"smartbus/internal/realtime"
	"smartbus/internal/services"

	"github.com/gin-gonic/gin"
)

// Options carries the runtime collaborators of the router. Metrics, Hub and
// StopCache may be nil.
type Options struct {
	Metrics   *metrics.Collector
	Hub       *realtime.Hub
	StopCache *services.StopCache
}

func NewRouter(env intconfig.Env, opts Options) *gin.Engine {
	secret := []byte(env.JWTSecret)
	h.Configure(h.Deps{
		Hub:       opts.Hub,
		StopCache: opts.StopCache,
		JWTSecret: secret,
		JWTTTL:    env.JWTTTL,
		UploadDir: env.UploadDir,
	})

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS(env.CORSAllowedOrigins))
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware())
		r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("warning: failed to set trusted proxies: %v", err)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"message": "route not found",
			"path":    c.Request.URL.Path,
			"method":  c.Request.Method,
		})
	})

	r.GET("/socket", h.Socket)
	r.Static("/uploads", env.UploadDir)

	auth := middleware.Auth(secret)

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/db-check", h.DBCheck)
		api.GET("/system/routes", h.SystemRoutes)

		// Auth
		authGroup := api.Group("/auth")
		authGroup.POST("/signup", h.Signup)
		authGroup.POST("/login", h.Login)

		// Buses (only the diagnostics and the public feed are anonymous)
		buses := api.Group("/buses")
		buses.GET("/test/data", h.TestBusData)
		buses.GET("/feed", h.BusFeed)
		private := buses.Group("", auth)
		private.GET("", h.ListBuses)
		private.GET("/search", h.SearchBuses)
		private.GET("/stops", h.BusStops)
		private.GET("/route-locations", h.RouteLocations)
		private.GET("/locations", h.BusLocations)
		private.GET("/:busId/details", h.BusDetails)
		private.GET("/:busId/route-stops", h.BusRouteStops)

		// Routes & timeline
		routes := api.Group("/routes")
		routes.GET("", h.ListRoutes)
		routes.GET("/test-db", h.TestDB)
		routes.GET("/:routeId/stops", h.RouteStops)
		routes.GET("/bus/:busId/timeline", h.BusTimeline)
		routes.GET("/bus/:busId/timeline/pdf", h.BusTimelinePDF)

		// Notifications
		notifications := api.Group("/notifications", auth)
		notifications.GET("", h.ListNotifications)
		notifications.GET("/unread-count", h.UnreadCount)
		notifications.PATCH("/mark-all-read", h.MarkAllNotificationsRead)
		notifications.PATCH("/:id/read", h.MarkNotificationRead)
		notifications.POST("", h.CreateNotification)
		notifications.DELETE("/:id", h.DeleteNotification)

		// Reports
		reports := api.Group("/reports", auth)
		reports.POST("", h.SubmitReport)
		reports.GET("", h.ListReports)
		reports.GET("/mine", h.MyReports)
	}

	h.SetRouter(r)
	return r
}
