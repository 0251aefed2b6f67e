package v1

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/medagenda/api/internal/domain"
	"github.com/medagenda/api/pkg/auth"
	"github.com/medagenda/api/pkg/metrics"
)

const (
	contextKeyClaims    = "claims"
	contextKeyRequestID = "request_id"
	headerRequestID     = "X-Request-ID"
)

// RequestID tags every request with an id, honoring one supplied by an
// upstream proxy.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(contextKeyRequestID, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

// RequestLogger emits one structured access log line per request and feeds
// the request metrics.
func RequestLogger(log *zap.Logger, mx *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		if mx != nil {
			mx.InFlightGauge.Inc()
		}
		c.Next()
		if mx != nil {
			mx.InFlightGauge.Dec()
		}

		elapsed := time.Since(start)
		status := c.Writer.Status()

		if mx != nil {
			mx.RequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(status)).Inc()
			mx.RequestDuration.WithLabelValues(c.Request.Method, path).Observe(elapsed.Seconds())
		}

		log.Info("request",
			zap.String("request_id", c.GetString(contextKeyRequestID)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("elapsed", elapsed),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// RequireAuth validates the bearer token and stores the claims in the
// request context.
func RequireAuth(verifier *auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			respondError(c, http.StatusUnauthorized, "authorization header required")
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			respondError(c, http.StatusUnauthorized, "authorization header must be 'Bearer <token>'")
			c.Abort()
			return
		}

		claims, err := verifier.VerifyAccessToken(parts[1])
		if err != nil {
			respondError(c, http.StatusUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(contextKeyClaims, claims)
		c.Next()
	}
}

// RequireRole must run after RequireAuth.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := claimsFromContext(c)
		if claims == nil {
			respondError(c, http.StatusUnauthorized, "authentication required")
			c.Abort()
			return
		}

		for _, r := range roles {
			if claims.Role == r {
				c.Next()
				return
			}
		}

		respondError(c, http.StatusForbidden, "access denied")
		c.Abort()
	}
}
