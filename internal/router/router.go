package router

import (
	"net/http"

	"github.com/campusmarket/campusmarket-backend/config"
	"github.com/campusmarket/campusmarket-backend/internal/app/controller"
	"github.com/campusmarket/campusmarket-backend/internal/app/model"
	"github.com/campusmarket/campusmarket-backend/internal/middleware"
	"github.com/campusmarket/campusmarket-backend/pkg/metrics"
	"github.com/gin-gonic/gin"
)

type Router struct {
	authController         *controller.AuthController
	listingController      *controller.ListingController
	vendorController       *controller.VendorController
	orderController        *controller.OrderController
	reviewController       *controller.ReviewController
	wishlistController     *controller.WishlistController
	notificationController *controller.NotificationController
	uploadController       *controller.UploadController
	wsController           *controller.WebSocketController
	authMiddleware         *middleware.AuthMiddleware
	config                 *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	listingController *controller.ListingController,
	vendorController *controller.VendorController,
	orderController *controller.OrderController,
	reviewController *controller.ReviewController,
	wishlistController *controller.WishlistController,
	notificationController *controller.NotificationController,
	uploadController *controller.UploadController,
	wsController *controller.WebSocketController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:         authController,
		listingController:      listingController,
		vendorController:       vendorController,
		orderController:        orderController,
		reviewController:       reviewController,
		wishlistController:     wishlistController,
		notificationController: notificationController,
		uploadController:       uploadController,
		wsController:           wsController,
		authMiddleware:         authMiddleware,
		config:                 cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	if r.config.Metrics.Enabled {
		router.Use(middleware.MetricsMiddleware())
	}
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Campus Market API is running",
		})
	})
	if r.config.Metrics.Enabled {
		router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	authenticated := r.authMiddleware.Authenticate()
	optional := r.authMiddleware.OptionalAuthenticate()

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/signin", r.authController.SignIn)
			auth.POST("/refresh", r.authController.RefreshToken)
			auth.POST("/logout", authenticated, r.authController.Logout)
			auth.GET("/me", authenticated, r.authController.GetMe)
			auth.PATCH("/me", authenticated, r.authController.UpdateMe)
		}

		listings := v1.Group("/listings")
		{
			listings.GET("", r.listingController.GetListings)
			listings.GET("/:id", optional, r.listingController.GetListing)
			listings.GET("/:id/reviews", optional, r.reviewController.GetListingReviews)
			listings.GET("/:id/reviews/eligibility", authenticated, r.reviewController.GetReviewEligibility)
			listings.POST("", authenticated, r.listingController.CreateListing)
			listings.PATCH("/:id", authenticated, r.listingController.UpdateListing)
			listings.DELETE("/:id", authenticated, r.listingController.DeleteListing)
		}

		v1.POST("/reviews", authenticated, r.reviewController.CreateReview)

		businesses := v1.Group("/businesses")
		{
			businesses.GET("",
				authenticated,
				r.authMiddleware.RequireRole(model.RoleAdmin),
				r.vendorController.GetVendors,
			)
			businesses.POST("", authenticated, r.vendorController.CreateVendor)
			businesses.GET("/mine", authenticated, r.vendorController.GetMyVendors)
			businesses.GET("/:id", optional, r.vendorController.GetVendor)
			businesses.PATCH("/:id", authenticated, r.vendorController.UpdateVendor)
			businesses.GET("/:id/listings", optional, r.vendorController.GetVendorListings)
			businesses.GET("/:id/orders", authenticated, r.vendorController.GetVendorOrders)
			businesses.POST("/:id/members", authenticated, r.vendorController.AddMember)
			businesses.DELETE("/:id/members/:user_id", authenticated, r.vendorController.RemoveMember)
		}

		orders := v1.Group("/orders")
		orders.Use(authenticated)
		{
			orders.POST("", r.orderController.CreateOrder)
			orders.GET("", r.orderController.GetOrders)
			orders.GET("/:id", r.orderController.GetOrderByID)
			orders.PATCH("/:id", r.orderController.UpdateOrderStatus)
			orders.POST("/:id/cancel", r.orderController.CancelOrder)
		}

		wishlist := v1.Group("/wishlist")
		wishlist.Use(authenticated)
		{
			wishlist.GET("", r.wishlistController.GetWishlist)
			wishlist.POST("", r.wishlistController.AddToWishlist)
			wishlist.POST("/:listing_id/toggle", r.wishlistController.ToggleWishlist)
		}

		notifications := v1.Group("/notifications")
		notifications.Use(authenticated)
		{
			notifications.GET("", r.notificationController.GetNotifications)
			notifications.GET("/unread-count", r.notificationController.GetUnreadCount)
			notifications.PATCH("/read-all", r.notificationController.MarkAllAsRead)
			notifications.PATCH("/:id/read", r.notificationController.MarkAsRead)
		}

		if r.uploadController != nil {
			v1.POST("/upload/presigned-url", authenticated, r.uploadController.GeneratePresignedURL)
		}

		v1.GET("/ws", authenticated, r.wsController.Connect)
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed && origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Vary", "Origin")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
