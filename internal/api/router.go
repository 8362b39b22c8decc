package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/EntertainPet/webshop/internal/api/handlers"
	"github.com/EntertainPet/webshop/internal/api/middleware"
	"github.com/EntertainPet/webshop/internal/config"
	"github.com/EntertainPet/webshop/internal/repository"
	"github.com/EntertainPet/webshop/internal/service"
	"github.com/EntertainPet/webshop/internal/session"
)

// Services bundles the service layer for route wiring
type Services struct {
	Auth        *service.AuthService
	Cart        *service.CartService
	Checkout    *service.CheckoutService
	Fulfillment *service.FulfillmentService
	Tracking    *service.TrackingService
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, repos *repository.Repositories, svcs *Services, sessions session.Store, logger *zap.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(customRecovery(logger))
	router.Use(loggingMiddleware(logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Stripe webhook: signature-verified, no session handling
	router.POST("/webhooks/stripe", handlers.HandleStripeWebhook(cfg, svcs.Fulfillment, logger))

	// Public order tracking, reachable straight from the confirmation email
	router.GET("/order/track/:token", handlers.HandleTrackOrder(svcs.Tracking, logger))

	// Storefront routes carry a session cookie
	store := router.Group("")
	store.Use(middleware.SessionMiddleware(sessions, repos.Customer, cfg.SessionTTL, logger))
	{
		store.POST("/auth/register", handlers.HandleRegister(svcs.Auth, logger))
		store.POST("/auth/login", handlers.HandleLogin(svcs.Auth, logger))
		store.POST("/auth/guest", handlers.HandleContinueAsGuest(svcs.Auth, logger))
		store.POST("/auth/logout", handlers.HandleLogout(svcs.Auth, logger))

		store.GET("/products", handlers.HandleListProducts(repos, logger))
		store.GET("/products/:id", handlers.HandleGetProduct(repos, logger))

		store.GET("/cart", handlers.HandleGetCart(svcs.Cart, logger))
		store.POST("/cart/items", handlers.HandleAddToCart(svcs.Cart, logger))
		store.PATCH("/cart/items", handlers.HandleUpdateCartLine(svcs.Cart, logger))
		store.DELETE("/cart/items", handlers.HandleRemoveCartLine(svcs.Cart, logger))

		store.POST("/checkout", handlers.HandleStartCheckout(svcs.Checkout, logger))
		store.GET("/checkout/success", handlers.HandleCheckoutSuccess(svcs.Tracking, logger))
		store.GET("/checkout/cancel", handlers.HandleCheckoutCancel())

		customerRoutes := store.Group("")
		customerRoutes.Use(middleware.RequireCustomer())
		{
			customerRoutes.GET("/orders", handlers.HandleListMyOrders(svcs.Tracking, logger))
			customerRoutes.GET("/orders/:id", handlers.HandleGetMyOrder(svcs.Tracking, logger))
		}

		adminRoutes := store.Group("/admin")
		adminRoutes.Use(middleware.RequireAdmin())
		{
			adminRoutes.PATCH("/orders/:id/shipment", handlers.HandleUpdateShipment(svcs.Tracking, logger))
		}
	}

	return router
}

// customRecovery is a custom recovery middleware that logs panics
func customRecovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("Panic recovered",
			zap.Any("error", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal server error",
			"details": fmt.Sprintf("%v", recovered),
		})
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
		)
	}
}
