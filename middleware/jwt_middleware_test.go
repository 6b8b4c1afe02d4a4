// middleware/jwt_middleware_test.go
package middleware

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBlacklistToken(t *testing.T) {
	BlacklistToken("token-a", time.Now().Add(time.Hour))

	assert.True(t, IsTokenBlacklisted("token-a"))
	assert.False(t, IsTokenBlacklisted("token-b"))
}

func TestPurgeExpiredTokens(t *testing.T) {
	now := time.Now()
	BlacklistToken("expired", now.Add(-time.Minute))
	BlacklistToken("live", now.Add(time.Hour))

	PurgeExpiredTokens(now)

	assert.False(t, IsTokenBlacklisted("expired"))
	assert.True(t, IsTokenBlacklisted("live"))
}

// Logout handlers, authenticated requests and the cleanup sweep all touch the
// blacklist at once; run under -race.
func TestBlacklistConcurrentAccess(t *testing.T) {
	stop := make(chan struct{})
	sweeperDone := make(chan struct{})
	go func() {
		defer close(sweeperDone)
		for {
			select {
			case <-stop:
				return
			default:
				PurgeExpiredTokens(time.Now())
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				token := fmt.Sprintf("token-%d-%d", n, j)
				BlacklistToken(token, time.Now().Add(time.Minute))
				IsTokenBlacklisted(token)
			}
		}(i)
	}

	wg.Wait()
	close(stop)
	<-sweeperDone
}
