package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	stripe "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
	"go.uber.org/zap"

	"github.com/EntertainPet/webshop/internal/config"
	"github.com/EntertainPet/webshop/internal/service"
)

// Stripe sends at most 64KB payloads; anything larger is not ours.
const maxWebhookBody = 65536

// FulfillmentProcessor converts verified payment events into orders.
type FulfillmentProcessor interface {
	HandleCheckoutCompleted(ctx context.Context, event service.PaymentEvent) (service.FulfillmentResult, error)
}

// HandleStripeWebhook receives payment events from Stripe. The signature is
// verified before anything else; a bad signature is a hard 400. Verified
// events are acknowledged with 200 even when rejected, so Stripe stops
// redelivering them. Only infrastructure failures return 5xx to trigger a
// retry.
func HandleStripeWebhook(cfg *config.Config, processor FulfillmentProcessor, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
			return
		}

		event, err := webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), cfg.Stripe.WebhookSecret)
		if err != nil {
			logger.Warn("Stripe webhook signature verification failed", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
			return
		}

		if event.Type != "checkout.session.completed" {
			logger.Debug("Ignoring Stripe event", zap.String("type", string(event.Type)))
			c.JSON(http.StatusOK, gin.H{"status": "ignored"})
			return
		}

		var checkoutSession stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &checkoutSession); err != nil {
			logger.Error("Failed to decode checkout session payload", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed event payload"})
			return
		}

		email := checkoutSession.CustomerEmail
		if checkoutSession.CustomerDetails != nil && checkoutSession.CustomerDetails.Email != "" {
			email = checkoutSession.CustomerDetails.Email
		}

		result, err := processor.HandleCheckoutCompleted(c.Request.Context(), service.PaymentEvent{
			StripeSessionID:  checkoutSession.ID,
			CustomerEmail:    email,
			Currency:         string(checkoutSession.Currency),
			AmountTotalCents: checkoutSession.AmountTotal,
		})
		if err != nil {
			logger.Error("Fulfillment failed",
				zap.String("stripe_session_id", checkoutSession.ID),
				zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "fulfillment failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": string(result)})
	}
}
