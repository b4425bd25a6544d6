package server

import (
	"github.com/dentalclinic/payouts/internal/observability/logger"
	"github.com/dentalclinic/payouts/internal/ratelimit"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GenerateRateLimit throttles batch generation per caller. A limiter outage lets the
// request through, generation is idempotent.
func (s *Server) GenerateRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.generateLimiter == nil || !s.generateLimiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		res, err := s.generateLimiter.Allow(ctx, callerKey(c))
		if err != nil {
			logger.FromContext(ctx).Warn("generate rate limit check failed", zap.Error(err))
			c.Next()
			return
		}
		if !res.Allowed {
			logger.FromContext(ctx).Warn("generate rate limit exceeded",
				zap.Duration("retry_after", res.RetryAfter),
			)
			c.Header("Retry-After", ratelimit.RetryAfterSeconds(res.RetryAfter))
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}
