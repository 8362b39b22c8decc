package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/EntertainPet/webshop/internal/api/middleware"
	"github.com/EntertainPet/webshop/internal/service"
)

// CartLineRequest identifies one (product, variant) line
type CartLineRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	VariantID int64 `json:"variant_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,min=1"`
}

// CartUpdateRequest adjusts a line quantity by a signed delta
type CartUpdateRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	VariantID int64 `json:"variant_id" binding:"required"`
	Delta     int   `json:"delta" binding:"required"`
}

// CartRemoveRequest drops a line
type CartRemoveRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	VariantID int64 `json:"variant_id" binding:"required"`
}

func HandleGetCart(cart *service.CartService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := cart.View(c.Request.Context(), middleware.GetIdentity(c))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

func HandleAddToCart(cart *service.CartService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CartLineRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		identity := middleware.GetIdentity(c)
		if err := cart.Add(c.Request.Context(), identity, req.ProductID, req.VariantID, req.Quantity); err != nil {
			respondError(c, logger, err)
			return
		}

		view, err := cart.View(c.Request.Context(), identity)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

func HandleUpdateCartLine(cart *service.CartService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CartUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		identity := middleware.GetIdentity(c)
		if err := cart.Update(c.Request.Context(), identity, req.ProductID, req.VariantID, req.Delta); err != nil {
			respondError(c, logger, err)
			return
		}

		view, err := cart.View(c.Request.Context(), identity)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

func HandleRemoveCartLine(cart *service.CartService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CartRemoveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		identity := middleware.GetIdentity(c)
		if err := cart.Remove(c.Request.Context(), identity, req.ProductID, req.VariantID); err != nil {
			respondError(c, logger, err)
			return
		}

		view, err := cart.View(c.Request.Context(), identity)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}
