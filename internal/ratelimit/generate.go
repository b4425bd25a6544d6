// Package ratelimit throttles batch settlement generation, which touches every active professional.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dentalclinic/payouts/internal/config"
	redis "github.com/redis/go-redis/v9"
)

const keyGenerate = "settlement:generate:%s"

// GenerateLimiter is disabled (always allows) when Redis is not configured.
type GenerateLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewGenerateLimiter(cfg config.Config, client *redis.Client) *GenerateLimiter {
	if client == nil || cfg.Redis.GenerateRate <= 0 || cfg.Redis.GenerateBurst <= 0 {
		return &GenerateLimiter{}
	}
	return &GenerateLimiter{
		bucket: NewTokenBucket(client),
		rate:   cfg.Redis.GenerateRate,
		burst:  cfg.Redis.GenerateBurst,
	}
}

func (l *GenerateLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

// Allow consumes one token for the caller.
func (l *GenerateLimiter) Allow(ctx context.Context, caller string) (Result, error) {
	if !l.Enabled() {
		return Result{Allowed: true}, nil
	}
	caller = strings.TrimSpace(caller)
	if caller == "" {
		caller = "anonymous"
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyGenerate, caller), l.rate, l.burst)
}

func parseFloat(v any) float64 {
	switch val := v.(type) {
	case string:
		f, _ := strconv.ParseFloat(val, 64)
		return f
	case int64:
		return float64(val)
	case float64:
		return val
	default:
		return 0
	}
}

// RetryAfterSeconds rounds up for the Retry-After header.
func RetryAfterSeconds(d time.Duration) string {
	secs := int64(d / time.Second)
	if d%time.Second != 0 {
		secs++
	}
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}
