package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/EntertainPet/webshop/internal/api/middleware"
	"github.com/EntertainPet/webshop/internal/domain"
	"github.com/EntertainPet/webshop/internal/service"
)

// RegisterRequest is the account registration payload
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest is the credential login payload
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// CustomerResponse is the public view of an account
type CustomerResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsGuest  bool   `json:"is_guest"`
}

func customerResponse(customer *domain.Customer) CustomerResponse {
	return CustomerResponse{
		ID:       customer.ID.String(),
		Username: customer.Username,
		Email:    customer.Email,
		IsGuest:  customer.IsGuest,
	}
}

func HandleRegister(auth *service.AuthService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		customer, err := auth.Register(c.Request.Context(), middleware.GetSessionID(c), req.Username, req.Email, req.Password)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusCreated, customerResponse(customer))
	}
}

func HandleLogin(auth *service.AuthService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		customer, err := auth.Login(c.Request.Context(), middleware.GetSessionID(c), req.Username, req.Password)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, customerResponse(customer))
	}
}

func HandleContinueAsGuest(auth *service.AuthService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if customer, ok := middleware.GetCustomer(c); ok {
			// Already bound, nothing to do.
			c.JSON(http.StatusOK, customerResponse(customer))
			return
		}

		guest, err := auth.ContinueAsGuest(c.Request.Context(), middleware.GetSessionID(c))
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusCreated, customerResponse(guest))
	}
}

func HandleLogout(auth *service.AuthService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := auth.Logout(c.Request.Context(), middleware.GetSessionID(c)); err != nil {
			respondError(c, logger, err)
			return
		}

		c.SetCookie(middleware.SessionCookieName, "", -1, "/", "", false, true)
		c.JSON(http.StatusOK, gin.H{"status": "logged out"})
	}
}
