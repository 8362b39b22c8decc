package service

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/EntertainPet/webshop/internal/config"
	"github.com/EntertainPet/webshop/internal/domain"
)

// Notifier sends customer-facing messages. Failures are logged by callers and
// never fail the operation that triggered them.
type Notifier interface {
	OrderConfirmation(ctx context.Context, order *domain.Order, lines []*domain.OrderLine) error
	FulfillmentFailed(ctx context.Context, email, stripeSessionID string) error
}

type smtpNotifier struct {
	cfg     config.SMTPConfig
	baseURL string
	logger  *zap.Logger
}

// NewSMTPNotifier creates a notifier that delivers order confirmations over
// SMTP. With an empty host it degrades to a no-op, which keeps local
// development mail-server free.
func NewSMTPNotifier(cfg config.SMTPConfig, baseURL string, logger *zap.Logger) Notifier {
	return &smtpNotifier{cfg: cfg, baseURL: baseURL, logger: logger}
}

func (n *smtpNotifier) OrderConfirmation(ctx context.Context, order *domain.Order, lines []*domain.OrderLine) error {
	if n.cfg.Host == "" {
		n.logger.Debug("SMTP host not configured, skipping order confirmation",
			zap.String("order_id", order.ID.String()))
		return nil
	}

	trackingURL := fmt.Sprintf("%s/order/track/%s", n.baseURL, order.TrackingToken.String())

	var body strings.Builder
	fmt.Fprintf(&body, "Thank you for your order!\r\n\r\n")
	for _, line := range lines {
		fmt.Fprintf(&body, "  %dx %s (%s) - %s\r\n",
			line.Quantity, line.ProductName, line.VariantLabel,
			formatCents(line.UnitPriceCents*int64(line.Quantity), order.Currency))
	}
	fmt.Fprintf(&body, "\r\nTotal: %s\r\n", formatCents(order.TotalCents, order.Currency))
	fmt.Fprintf(&body, "\r\nTrack your shipment: %s\r\n", trackingURL)

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: Order confirmation\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		n.cfg.From, order.CustomerEmail, body.String())

	addr := n.cfg.Host + ":" + n.cfg.Port
	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, n.cfg.From, []string{order.CustomerEmail}, []byte(msg)); err != nil {
		return fmt.Errorf("send order confirmation: %w", err)
	}

	n.logger.Info("Order confirmation sent",
		zap.String("order_id", order.ID.String()),
		zap.String("to", order.CustomerEmail))
	return nil
}

// FulfillmentFailed tells a charged buyer that their order could not be
// assembled, so they can seek a refund instead of waiting for a confirmation
// that will never come.
func (n *smtpNotifier) FulfillmentFailed(ctx context.Context, email, stripeSessionID string) error {
	if n.cfg.Host == "" {
		n.logger.Debug("SMTP host not configured, skipping fulfillment failure notice",
			zap.String("stripe_session_id", stripeSessionID))
		return nil
	}

	body := "We are sorry: one or more items in your order sold out before we could " +
		"fulfill it, and your order has not been placed.\r\n\r\n" +
		"Your payment will be refunded. Please contact support and quote payment " +
		"reference " + stripeSessionID + " if you have any questions.\r\n"

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: We could not fulfill your order\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		n.cfg.From, email, body)

	addr := n.cfg.Host + ":" + n.cfg.Port
	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, n.cfg.From, []string{email}, []byte(msg)); err != nil {
		return fmt.Errorf("send fulfillment failure notice: %w", err)
	}

	n.logger.Info("Fulfillment failure notice sent",
		zap.String("stripe_session_id", stripeSessionID),
		zap.String("to", email))
	return nil
}

func formatCents(cents int64, currency string) string {
	return fmt.Sprintf("%d.%02d %s", cents/100, cents%100, strings.ToUpper(currency))
}

// NoopNotifier discards every message. Used in tests.
type NoopNotifier struct{}

func (NoopNotifier) OrderConfirmation(ctx context.Context, order *domain.Order, lines []*domain.OrderLine) error {
	return nil
}

func (NoopNotifier) FulfillmentFailed(ctx context.Context, email, stripeSessionID string) error {
	return nil
}
