package middleware

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLimiterSharedPerIP(t *testing.T) {
	rl := NewRateLimiter(60)

	first := rl.GetLimiter("10.0.0.1")
	second := rl.GetLimiter("10.0.0.1")
	assert.Same(t, first, second)

	other := rl.GetLimiter("10.0.0.2")
	assert.NotSame(t, first, other)
}

func TestGetLimiterConcurrentFirstRequest(t *testing.T) {
	// Concurrent first requests for one IP must all end up on the same
	// limiter so no token spend is lost.
	rl := NewRateLimiter(60)

	const n = 32
	limiters := make([]interface{}, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			limiters[i] = rl.GetLimiter("10.0.0.1")
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		require.Same(t, limiters[0], limiters[i])
	}
}

func TestGetLimiterBoundsTrackedIPs(t *testing.T) {
	rl := NewRateLimiter(60)

	for i := 0; i < maxTrackedIPs+100; i++ {
		rl.GetLimiter(fmt.Sprintf("10.0.%d.%d", i/256, i%256))
	}

	rl.mu.RLock()
	size := len(rl.limiters)
	rl.mu.RUnlock()
	assert.LessOrEqual(t, size, maxTrackedIPs)
}
