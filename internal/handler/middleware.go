package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/danswara/promo-service/internal/audit"
)

// actorHeader carries the acting user's identifier, set by the upstream
// gateway after authentication.
const actorHeader = "X-User-ID"

// RateLimit rejects requests beyond the limiter's budget with 429.
func RateLimit(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}

// Audit publishes an entry for every state-mutating request outcome. The
// trail is observational only; publishing never affects the response.
func Audit(publisher audit.Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method == http.MethodGet {
			return
		}

		actor := c.GetHeader(actorHeader)
		if actor == "" {
			actor = "anonymous"
		}

		status := c.Writer.Status()
		remarks := ""
		if len(c.Errors) > 0 {
			remarks = c.Errors.String()
		}

		publisher.Publish(audit.Entry{
			Actor:    actor,
			Method:   c.Request.Method,
			Endpoint: c.FullPath(),
			Status:   status,
			Success:  status < http.StatusBadRequest,
			Remarks:  remarks,
			At:       time.Now(),
		})
	}
}
