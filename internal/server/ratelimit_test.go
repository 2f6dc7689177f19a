package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_RequestsPerMinute(t *testing.T) {
	rl := NewRateLimiter(3, 0)

	for i := 0; i < 3; i++ {
		require.NoError(t, rl.Check("client", 0))
	}

	err := rl.Check("client", 0)
	var limitErr *RateLimitError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, 3, limitErr.Limit)
	assert.Positive(t, limitErr.RetryAfter)
}

func TestRateLimiter_IndependentClients(t *testing.T) {
	rl := NewRateLimiter(1, 0)

	require.NoError(t, rl.Check("a", 0))
	require.NoError(t, rl.Check("b", 0))
	assert.Error(t, rl.Check("a", 0))
}

func TestRateLimiter_DailyDataQuota(t *testing.T) {
	rl := NewRateLimiter(0, 100)

	require.NoError(t, rl.Check("client", 60))
	err := rl.Check("client", 60)

	var quotaErr *QuotaExceededError
	require.ErrorAs(t, err, &quotaErr)
	assert.Equal(t, int64(100), quotaErr.Limit)
	assert.Equal(t, int64(60), quotaErr.Used)
}

func TestRateLimiter_ZeroLimitsDisabled(t *testing.T) {
	rl := NewRateLimiter(0, 0)

	for i := 0; i < 100; i++ {
		require.NoError(t, rl.Check("client", 1<<20))
	}
}
