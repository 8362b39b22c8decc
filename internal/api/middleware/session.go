package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/EntertainPet/webshop/internal/domain"
	"github.com/EntertainPet/webshop/internal/repository"
	"github.com/EntertainPet/webshop/internal/session"
)

const (
	SessionCookieName  = "session_id"
	SessionContextKey  = "session_id"
	IdentityContextKey = "cart_identity"
	CustomerContextKey = "customer"
)

// SessionMiddleware assigns every visitor a session cookie and resolves their
// cart identity: a session bound to a customer gets the persisted cart,
// everyone else the anonymous session cart.
func SessionMiddleware(sessions session.Store, customers repository.CustomerRepository, ttl time.Duration, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(SessionCookieName)
		if err != nil || sessionID == "" {
			sessionID = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(SessionCookieName, sessionID, int(ttl.Seconds()), "/", "", false, true)
		}
		c.Set(SessionContextKey, sessionID)

		identity := domain.SessionIdentity(sessionID)

		customerID, bound, err := sessions.CustomerID(c.Request.Context(), sessionID)
		if err != nil {
			logger.Error("Failed to resolve session customer", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			c.Abort()
			return
		}
		if bound {
			customer, err := customers.GetByID(c.Request.Context(), customerID)
			if err == nil {
				identity = domain.CustomerIdentity(customer.ID)
				c.Set(CustomerContextKey, customer)
			} else {
				// Stale binding, fall back to the anonymous cart.
				logger.Warn("Session bound to unknown customer",
					zap.String("customer_id", customerID.String()))
			}
		}

		c.Set(IdentityContextKey, identity)
		c.Next()
	}
}

// GetSessionID retrieves the session id from the Gin context
func GetSessionID(c *gin.Context) string {
	return c.GetString(SessionContextKey)
}

// GetIdentity retrieves the resolved cart identity from the Gin context
func GetIdentity(c *gin.Context) domain.CartIdentity {
	if v, exists := c.Get(IdentityContextKey); exists {
		if identity, ok := v.(domain.CartIdentity); ok {
			return identity
		}
	}
	return domain.SessionIdentity(GetSessionID(c))
}

// GetCustomer retrieves the logged-in customer, if any
func GetCustomer(c *gin.Context) (*domain.Customer, bool) {
	v, exists := c.Get(CustomerContextKey)
	if !exists {
		return nil, false
	}
	customer, ok := v.(*domain.Customer)
	return customer, ok
}

// RequireCustomer rejects requests without a bound customer
func RequireCustomer() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetCustomer(c); !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "login required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects requests from non-admin customers
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		customer, ok := GetCustomer(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "login required"})
			c.Abort()
			return
		}
		if !customer.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}
