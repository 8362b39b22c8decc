package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/EntertainPet/webshop/internal/api/middleware"
	"github.com/EntertainPet/webshop/internal/domain"
	"github.com/EntertainPet/webshop/internal/service"
)

// OrderResponse is the account-facing view of an order
type OrderResponse struct {
	ID             string              `json:"id"`
	Status         string              `json:"status"`
	ShipmentStatus string              `json:"shipment_status"`
	TotalCents     int64               `json:"total_cents"`
	Currency       string              `json:"currency"`
	TrackingToken  string              `json:"tracking_token"`
	CreatedAt      string              `json:"created_at"`
	Lines          []OrderLineResponse `json:"lines,omitempty"`
}

type OrderLineResponse struct {
	ProductID      int64  `json:"product_id"`
	ProductName    string `json:"product_name"`
	VariantLabel   string `json:"variant_label"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Quantity       int    `json:"quantity"`
}

func orderResponse(order *domain.Order, lines []*domain.OrderLine) OrderResponse {
	resp := OrderResponse{
		ID:             order.ID.String(),
		Status:         string(order.Status),
		ShipmentStatus: string(order.ShipmentStatus),
		TotalCents:     order.TotalCents,
		Currency:       order.Currency,
		TrackingToken:  order.TrackingToken.String(),
		CreatedAt:      order.CreatedAt.UTC().Format(time.RFC3339),
	}
	for _, line := range lines {
		resp.Lines = append(resp.Lines, OrderLineResponse{
			ProductID:      line.ProductID,
			ProductName:    line.ProductName,
			VariantLabel:   line.VariantLabel,
			UnitPriceCents: line.UnitPriceCents,
			Quantity:       line.Quantity,
		})
	}
	return resp
}

func HandleListMyOrders(tracking *service.TrackingService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		customer, ok := middleware.GetCustomer(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "login required"})
			return
		}

		orders, err := tracking.ListByEmail(c.Request.Context(), customer.Email)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		out := make([]OrderResponse, 0, len(orders))
		for _, order := range orders {
			out = append(out, orderResponse(order, nil))
		}
		c.JSON(http.StatusOK, gin.H{"orders": out, "count": len(out)})
	}
}

func HandleGetMyOrder(tracking *service.TrackingService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		customer, ok := middleware.GetCustomer(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "login required"})
			return
		}

		orderID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
			return
		}

		detail, err := tracking.OwnedDetail(c.Request.Context(), customer.Email, orderID)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, orderResponse(detail.Order, detail.Lines))
	}
}

// HandleTrackOrder is the public tracking endpoint: no account, just the
// unguessable token from the confirmation email.
func HandleTrackOrder(tracking *service.TrackingService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := uuid.Parse(c.Param("token"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown tracking token"})
			return
		}

		info, err := tracking.TrackByToken(c.Request.Context(), token)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		resp := orderResponse(info.Order, info.Lines)
		c.JSON(http.StatusOK, gin.H{
			"order":    resp,
			"progress": info.Progress,
		})
	}
}
