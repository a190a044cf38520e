// Package front registers the end-user HTTP API.
package front

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shariastocks-in/backend/internal/checkout"
	"github.com/shariastocks-in/backend/internal/config"
	handlers "github.com/shariastocks-in/backend/internal/http/api/front/handlers"
	"github.com/shariastocks-in/backend/internal/mailer"
	"github.com/shariastocks-in/backend/internal/models"
	"github.com/shariastocks-in/backend/internal/payment"
	"github.com/shariastocks-in/backend/internal/ratelimit"
	"github.com/shariastocks-in/backend/internal/security"
	"github.com/shariastocks-in/backend/internal/session"
	"gorm.io/gorm"
)

// Deps carries the service dependencies the front API wires into handlers.
type Deps struct {
	Gateway payment.Gateway
	Mailer  *mailer.Mailer
	Limiter *ratelimit.Manager
	Limit   int
}

// RegisterFrontRoutes registers end-user routes, middleware, and handlers.
func RegisterFrontRoutes(r *gin.Engine, db *gorm.DB, jwtCfg config.JWTConfig, deps Deps) {
	if r == nil || db == nil {
		return
	}
	if deps.Gateway == nil {
		deps.Gateway = payment.NewSimulatedGateway()
	}

	healthHandler := handlers.NewHealthHandler(db)
	r.GET("/healthz", healthHandler.Healthz)

	api := r.Group("/api")

	authHandler := handlers.NewAuthHandler(db, jwtCfg)
	api.POST("/auth/signup", rateLimitByIP(deps.Limiter, deps.Limit), authHandler.Signup)
	api.POST("/auth/login", rateLimitByIP(deps.Limiter, deps.Limit), authHandler.Login)

	planHandler := handlers.NewPlanHandler(db)
	api.GET("/subscriptions/plans", planHandler.List)

	// Listings are public; a valid token upgrades the caller's visibility.
	stockHandler := handlers.NewStockHandler(db)
	stocks := api.Group("/stocks")
	stocks.Use(optionalUserAuthMiddleware(db, jwtCfg))
	stocks.GET("/trending", stockHandler.Trending)
	stocks.GET("/halal", stockHandler.Halal)
	stocks.GET("/search", stockHandler.Search)

	authed := api.Group("")
	authed.Use(userAuthMiddleware(db, jwtCfg))

	negotiator := checkout.NewNegotiator(db)

	subscriptionHandler := handlers.NewSubscriptionHandler(db, negotiator)
	authed.GET("/subscriptions/status", subscriptionHandler.Status)
	authed.POST("/subscriptions/cancel", subscriptionHandler.Cancel)

	transactionHandler := handlers.NewTransactionHandler(db, negotiator, deps.Gateway, deps.Mailer)
	transactions := authed.Group("/transactions")
	transactions.Use(rateLimitByUser(deps.Limiter, deps.Limit))
	transactions.POST("/initiate", transactionHandler.Initiate)
	transactions.GET("/pending", transactionHandler.Pending)
	transactions.POST("/subscribe", transactionHandler.Subscribe)
	transactions.POST("/:id/cancel", transactionHandler.Cancel)
	transactions.GET("", transactionHandler.List)

	watchlistHandler := handlers.NewWatchlistHandler(db)
	authed.GET("/watchlist", watchlistHandler.List)
	authed.POST("/watchlist", watchlistHandler.Add)
	authed.DELETE("/watchlist/:symbol", watchlistHandler.Remove)

	notificationHandler := handlers.NewNotificationHandler(db)
	authed.GET("/notifications", notificationHandler.List)
	authed.POST("/notifications/:id/read", notificationHandler.MarkRead)
}

// bearerToken extracts the Bearer token from the Authorization header.
func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == authHeader {
		return ""
	}
	return strings.TrimSpace(token)
}

// userAuthMiddleware validates user JWTs and loads the request session.
func userAuthMiddleware(db *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		claims, errJWT := security.ParseUserToken(jwtCfg.Secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		var user models.User
		if errFind := db.WithContext(c.Request.Context()).First(&user, claims.UserID).Error; errFind != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}

		session.Set(c, session.Session{UserID: user.ID, Email: user.Email})
		c.Next()
	}
}

// optionalUserAuthMiddleware loads a session when a valid token is present
// and lets anonymous requests through.
func optionalUserAuthMiddleware(db *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Next()
			return
		}
		claims, errJWT := security.ParseUserToken(jwtCfg.Secret, token)
		if errJWT != nil {
			c.Next()
			return
		}
		var user models.User
		if errFind := db.WithContext(c.Request.Context()).First(&user, claims.UserID).Error; errFind != nil {
			c.Next()
			return
		}
		session.Set(c, session.Session{UserID: user.ID, Email: user.Email})
		c.Next()
	}
}

// rateLimitByIP limits unauthenticated endpoints per client address.
func rateLimitByIP(limiter *ratelimit.Manager, limit int) gin.HandlerFunc {
	return func(c *gin.Context) {
		enforceLimit(c, limiter, limit, ratelimit.KeyForIP(c.ClientIP()))
	}
}

// rateLimitByUser limits authenticated endpoints per user.
func rateLimitByUser(limiter *ratelimit.Manager, limit int) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := session.FromContext(c)
		if !ok {
			enforceLimit(c, limiter, limit, ratelimit.KeyForIP(c.ClientIP()))
			return
		}
		enforceLimit(c, limiter, limit, ratelimit.KeyForUser(sess.UserID))
	}
}

// enforceLimit applies the limiter and aborts with 429 when exhausted.
// Limiter errors fail open; checkout must not stall on limiter trouble.
func enforceLimit(c *gin.Context, limiter *ratelimit.Manager, limit int, key string) {
	if limiter == nil || limit <= 0 || key == "" {
		c.Next()
		return
	}
	result, errAllow := limiter.Allow(c.Request.Context(), key, limit)
	if errAllow != nil {
		c.Next()
		return
	}
	if !result.Allowed {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
		return
	}
	c.Next()
}
