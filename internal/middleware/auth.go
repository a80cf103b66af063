package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"casino-miniapp-backend/internal/config"
	"casino-miniapp-backend/internal/metrics"
	"casino-miniapp-backend/internal/services"
)

func AuthMiddleware(jwtService *services.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		var tokenString string

		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not_signed_in", "details": "invalid authorization format"})
				return
			}
			tokenString = parts[1]
		} else {
			tokenString = c.Query("token")
			if tokenString == "" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not_signed_in", "details": "authorization header required"})
				return
			}
		}

		claims, err := jwtService.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not_signed_in", "details": "invalid or expired token"})
			return
		}

		c.Set("account_id", claims.AccountID)
		c.Set("session_id", claims.SessionID)

		c.Next()
	}
}

// RateLimitMiddleware limits bets and round actions per account. A
// limiter error lets the request through.
func RateLimitMiddleware(limiter services.RateLimiter, cfg config.RateLimitConfig, logger *zap.Logger) gin.HandlerFunc {
	bets := cfg.BetsPerMinute
	if bets <= 0 {
		bets = services.DefaultRateLimitBets
	}
	actions := cfg.ActionsPerMinute
	if actions <= 0 {
		actions = services.DefaultRateLimitActions
	}

	return func(c *gin.Context) {
		accountID := c.GetString("account_id")
		if accountID == "" {
			c.Next()
			return
		}

		path := c.Request.URL.Path
		window := time.Minute

		var action string
		var limit int
		switch {
		case strings.HasSuffix(path, "/games/bet"):
			action, limit = "bet", bets
		case strings.HasSuffix(path, "/cashout"),
			strings.HasSuffix(path, "/mines/reveal"),
			strings.HasSuffix(path, "/blackjack/hit"),
			strings.HasSuffix(path, "/blackjack/stand"):
			action, limit = "action", actions
		default:
			c.Next()
			return
		}

		allowed, err := limiter.Allow(c.Request.Context(), accountID, action, limit, window)
		if err != nil {
			logger.Warn("rate limit check failed", zap.String("account_id", accountID), zap.Error(err))
			c.Next()
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate_limited",
				"retry_after": window.Seconds(),
			})
			return
		}

		c.Next()
	}
}

// RequestLogger logs each request and records HTTP metrics by route.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		metrics.RecordHTTP(route, c.Request.Method, status, started)

		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(started)),
			zap.String("account_id", c.GetString("account_id")))
	}
}
