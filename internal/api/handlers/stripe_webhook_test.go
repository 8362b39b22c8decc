package handlers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stripe "github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"

	"github.com/EntertainPet/webshop/internal/config"
	"github.com/EntertainPet/webshop/internal/service"
)

const testWebhookSecret = "whsec_test_secret"

type stubProcessor struct {
	calls  int
	last   service.PaymentEvent
	result service.FulfillmentResult
	err    error
}

func (p *stubProcessor) HandleCheckoutCompleted(ctx context.Context, event service.PaymentEvent) (service.FulfillmentResult, error) {
	p.calls++
	p.last = event
	return p.result, p.err
}

func signPayload(payload []byte, secret string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func webhookRouter(processor *stubProcessor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Stripe: config.StripeConfig{WebhookSecret: testWebhookSecret}}
	router := gin.New()
	router.POST("/webhooks/stripe", HandleStripeWebhook(cfg, processor, zap.NewNop()))
	return router
}

func postWebhook(router *gin.Engine, payload []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signature)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func checkoutCompletedPayload() []byte {
	return []byte(`{
		"id": "evt_test_1",
		"api_version": "` + stripe.APIVersion + `",
		"type": "checkout.session.completed",
		"data": {
			"object": {
				"id": "cs_test_123",
				"amount_total": 4600,
				"currency": "eur",
				"customer_email": "fallback@example.com",
				"customer_details": {"email": "buyer@example.com"}
			}
		}
	}`)
}

func TestStripeWebhookVerifiedEventIsProcessed(t *testing.T) {
	processor := &stubProcessor{result: service.ResultFulfilled}
	router := webhookRouter(processor)
	payload := checkoutCompletedPayload()

	w := postWebhook(router, payload, signPayload(payload, testWebhookSecret))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "fulfilled")
	require.Equal(t, 1, processor.calls)
	assert.Equal(t, "cs_test_123", processor.last.StripeSessionID)
	assert.Equal(t, "buyer@example.com", processor.last.CustomerEmail)
	assert.Equal(t, "eur", processor.last.Currency)
	assert.Equal(t, int64(4600), processor.last.AmountTotalCents)
}

func TestStripeWebhookBadSignatureRejected(t *testing.T) {
	processor := &stubProcessor{result: service.ResultFulfilled}
	router := webhookRouter(processor)
	payload := checkoutCompletedPayload()

	w := postWebhook(router, payload, signPayload(payload, "whsec_wrong_secret"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, processor.calls, "unverified events must never reach fulfillment")
}

func TestStripeWebhookMissingSignatureRejected(t *testing.T) {
	processor := &stubProcessor{result: service.ResultFulfilled}
	router := webhookRouter(processor)

	w := postWebhook(router, checkoutCompletedPayload(), "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, processor.calls)
}

func TestStripeWebhookTamperedPayloadRejected(t *testing.T) {
	processor := &stubProcessor{result: service.ResultFulfilled}
	router := webhookRouter(processor)
	payload := checkoutCompletedPayload()
	signature := signPayload(payload, testWebhookSecret)

	tampered := bytes.Replace(payload, []byte("4600"), []byte("1"), 1)
	w := postWebhook(router, tampered, signature)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, processor.calls)
}

func TestStripeWebhookIgnoresOtherEventTypes(t *testing.T) {
	processor := &stubProcessor{result: service.ResultFulfilled}
	router := webhookRouter(processor)
	payload := []byte(`{"id": "evt_test_2", "api_version": "` + stripe.APIVersion + `", "type": "payment_intent.succeeded", "data": {"object": {}}}`)

	w := postWebhook(router, payload, signPayload(payload, testWebhookSecret))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ignored")
	assert.Zero(t, processor.calls)
}

func TestStripeWebhookInfrastructureFailureReturns500(t *testing.T) {
	processor := &stubProcessor{err: fmt.Errorf("database down")}
	router := webhookRouter(processor)
	payload := checkoutCompletedPayload()

	w := postWebhook(router, payload, signPayload(payload, testWebhookSecret))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, 1, processor.calls)
}

func TestStripeWebhookReportsAlreadyFulfilled(t *testing.T) {
	processor := &stubProcessor{result: service.ResultAlreadyFulfilled}
	router := webhookRouter(processor)
	payload := checkoutCompletedPayload()

	w := postWebhook(router, payload, signPayload(payload, testWebhookSecret))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "already_fulfilled")
}
