package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/dentalclinic/payouts/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledLimiterAllows(t *testing.T) {
	l := NewGenerateLimiter(config.Config{}, nil)
	assert.False(t, l.Enabled())

	res, err := l.Allow(context.Background(), "user:1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestBucketTTL(t *testing.T) {
	assert.Equal(t, 12*time.Second, bucketTTL(0.5, 3))
	assert.Equal(t, time.Second, bucketTTL(100, 1))
}

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, "1", RetryAfterSeconds(0))
	assert.Equal(t, "2", RetryAfterSeconds(1500*time.Millisecond))
	assert.Equal(t, "5", RetryAfterSeconds(5*time.Second))
}

func TestParseFloat(t *testing.T) {
	assert.Equal(t, 2.5, parseFloat("2.5"))
	assert.Equal(t, 3.0, parseFloat(int64(3)))
	assert.Equal(t, 0.0, parseFloat(nil))
}
