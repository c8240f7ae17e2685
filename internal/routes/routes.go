package routes

import (
	"swiftmeet-server/internal/handlers"
	"swiftmeet-server/internal/middleware"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, db *gorm.DB) {
	// Initialize handlers
	authHandler := handlers.NewAuthHandler(db)
	serviceHandler := handlers.NewServiceHandler(db)
	slotHandler := handlers.NewSlotHandler(db)
	bookingHandler := handlers.NewBookingHandler(db)
	adminBookingHandler := handlers.NewAdminBookingHandler(db)

	// Public routes (no authentication required)
	public := router.Group("/api")
	{
		public.POST("/register", authHandler.Register)
		public.POST("/login", authHandler.Login)
		public.POST("/logout", authHandler.Logout)
		public.GET("/me", authHandler.Me) // returns null for anonymous callers
	}

	// Authenticated routes
	private := router.Group("/api")
	private.Use(middleware.AuthRequired(db))
	{
		// Slot search is open to any authenticated user
		private.GET("/search/slots", slotHandler.SearchSlots)

		bookingRoutes := private.Group("/bookings")
		{
			bookingRoutes.POST("", bookingHandler.BookSlot)
			bookingRoutes.GET("", bookingHandler.ListBookings) // triggers lazy reschedule
			bookingRoutes.POST("/:id/arrived", bookingHandler.MarkArrived)
			bookingRoutes.POST("/:id/find-next-slot", bookingHandler.FindNextSlot)
		}

		// Admin-only routes
		adminRoutes := private.Group("/admin")
		adminRoutes.Use(middleware.AdminRequired())
		{
			serviceRoutes := adminRoutes.Group("/services")
			{
				serviceRoutes.GET("", serviceHandler.ListServices)
				serviceRoutes.POST("", serviceHandler.CreateService)
				serviceRoutes.DELETE("", serviceHandler.DeleteAllServices)
				serviceRoutes.DELETE("/:id", serviceHandler.DeleteService)

				serviceRoutes.GET("/:id/slots", slotHandler.ListSlots)
				serviceRoutes.POST("/:id/slots", slotHandler.CreateSlot)
				serviceRoutes.DELETE("/:id/slots/:slot_id", slotHandler.DeleteSlot)
			}

			adminRoutes.GET("/bookings", adminBookingHandler.ListBookings)
			adminRoutes.POST("/bookings/:id/arrived", adminBookingHandler.MarkArrived)
			adminRoutes.GET("/dashboard-metrics", adminBookingHandler.DashboardMetrics)
		}
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
}
