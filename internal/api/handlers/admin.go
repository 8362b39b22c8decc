package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/EntertainPet/webshop/internal/domain"
	"github.com/EntertainPet/webshop/internal/service"
)

// ShipmentUpdateRequest advances an order's shipment status
type ShipmentUpdateRequest struct {
	Status string `json:"status" binding:"required"`
}

func HandleUpdateShipment(tracking *service.TrackingService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
			return
		}

		var req ShipmentUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		if err := tracking.UpdateShipment(c.Request.Context(), orderID, domain.ShipmentStatus(req.Status)); err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"order_id": orderID.String(),
			"status":   req.Status,
		})
	}
}
