package routes

import (
	"time"

	"sportevents/handlers"
	"sportevents/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterEventRoutes registers event browsing and authoring endpoints.
func RegisterEventRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/events")
	{
		api.GET("", hb.GetEvents)
		api.GET("/nearby", hb.GetNearbyEvents)
		api.GET("/search", hb.SearchEvents)
		api.GET("/:id", hb.GetEvent)

		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(hb.Verifier))
		protected.GET("/recommended", hb.GetRecommendedEvents)
		protected.POST("", hb.CreateEvent)
		protected.PATCH("/:id", hb.UpdateEvent)
	}
}

// RegisterBookingRoutes registers the booking endpoints of a single event.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/events/:id/booking")
	{
		api.Use(middleware.AuthMiddleware(hb.Verifier))
		api.GET("", hb.GetBookingStatus)
		api.POST("", hb.CreateBooking)
		api.DELETE("", hb.CancelBooking)
	}
}

// RegisterMeRoutes registers the caller's bookings and preference tracking.
func RegisterMeRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/me")
	{
		api.Use(middleware.AuthMiddleware(hb.Verifier))
		api.GET("/bookings", hb.GetMyBookings)
		api.POST("/bookings/refresh", hb.RefreshMyBookings)
		api.DELETE("/bookings/cache", hb.ClearMyBookingCache)
		api.POST("/sport-views", hb.RecordSportView)
	}
}

// RegisterCatalogRoutes registers read-only reference data.
func RegisterCatalogRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api")
	{
		api.GET("/venues", hb.GetVenues)
		api.GET("/sports", hb.GetSports)
		api.GET("/skill-levels", hb.GetSkillLevels)
		api.GET("/organizers/:id/events", hb.GetPostedEvents)
	}
}

// RegisterUserRoutes registers profile endpoints.
func RegisterUserRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/users")
	{
		api.GET("/:id/image", hb.GetUserImage)

		me := api.Group("/me")
		me.Use(middleware.AuthMiddleware(hb.Verifier))
		me.GET("", hb.GetMe)
		me.PATCH("", hb.UpdateMe)
		me.PUT("/fcm-token", hb.UpdateFCMToken)
		me.GET("/stream", hb.StreamMe)
		me.PUT("/image", hb.UploadMyImage)
	}
}

// RegisterHealthRoute registers the health-check and metrics endpoints.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.Health)
	if hb.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(hb.Gatherer, promhttp.HandlerOpts{})))
	}
}

// RegisterRoutes centralizes all route registration.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r, hb)
	RegisterEventRoutes(r, hb)
	RegisterBookingRoutes(r, hb)
	RegisterMeRoutes(r, hb)
	RegisterCatalogRoutes(r, hb)
	RegisterUserRoutes(r, hb)
}
