package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/EntertainPet/webshop/internal/api/middleware"
	"github.com/EntertainPet/webshop/internal/service"
)

// CheckoutRequest starts a hosted payment session for the current cart
type CheckoutRequest struct {
	Email string `json:"email"`
}

func HandleStartCheckout(checkout *service.CheckoutService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// The body is optional: logged-in customers fall back to their
		// account email.
		var req CheckoutRequest
		if err := c.ShouldBindJSON(&req); err != nil && err != io.EOF {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		email := req.Email
		if email == "" {
			if customer, ok := middleware.GetCustomer(c); ok {
				email = customer.Email
			}
		}

		checkoutSession, err := checkout.Start(c.Request.Context(), middleware.GetIdentity(c), email)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"checkout_url":      checkoutSession.URL,
			"stripe_session_id": checkoutSession.ID,
		})
	}
}

// HandleCheckoutSuccess is the landing page after payment. The webhook may
// not have arrived yet, so it polls briefly for the order before telling the
// buyer the confirmation is still on its way.
func HandleCheckoutSuccess(tracking *service.TrackingService, logger *zap.Logger) gin.HandlerFunc {
	const (
		attempts = 5
		interval = 400 * time.Millisecond
	)
	return func(c *gin.Context) {
		stripeSessionID := c.Query("session_id")
		if stripeSessionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing session_id"})
			return
		}

		for i := 0; i < attempts; i++ {
			order, err := tracking.ByCheckoutSession(c.Request.Context(), stripeSessionID)
			if err != nil {
				respondError(c, logger, err)
				return
			}
			if order != nil {
				c.JSON(http.StatusOK, gin.H{
					"status":         "confirmed",
					"order_id":       order.ID.String(),
					"tracking_token": order.TrackingToken.String(),
					"total_cents":    order.TotalCents,
					"currency":       order.Currency,
				})
				return
			}

			select {
			case <-c.Request.Context().Done():
				c.JSON(http.StatusRequestTimeout, gin.H{"error": "request cancelled"})
				return
			case <-time.After(interval):
			}
		}

		c.JSON(http.StatusAccepted, gin.H{
			"status":  "processing",
			"message": "payment received, order confirmation is on its way",
		})
	}
}

// HandleCheckoutCancel is the landing page when the buyer backs out. The cart
// is left untouched.
func HandleCheckoutCancel() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "cancelled",
			"message": "checkout cancelled, your cart is unchanged",
		})
	}
}
