package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/IvanChernomyrdin/go-polls/internal/shared/logger"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiter_ByIP(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: rate.Limit(0.5), Burst: 2}, logger.NewNop())
	t.Cleanup(rl.Stop)

	h := rl.Middleware(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/polls", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests {
			require.Equal(t, "2", rec.Header().Get("Retry-After"))
		}
	}
	require.Equal(t, []int{200, 200, 429}, codes)

	// другой IP со своим бакетом
	req := httptest.NewRequest(http.MethodGet, "/polls", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 2, rl.Len())
}

func TestRateLimiter_ByUser(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: rate.Limit(1), Burst: 1, ByUser: true}, logger.NewNop())
	t.Cleanup(rl.Stop)

	h := rl.Middleware(okHandler())

	do := func(user string) int {
		req := httptest.NewRequest(http.MethodGet, "/polls", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		req = req.WithContext(WithIdentity(req.Context(), Identity{UserID: user}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusOK, do("alice"))
	require.Equal(t, http.StatusTooManyRequests, do("alice"))
	require.Equal(t, http.StatusOK, do("bob"))
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: rate.Limit(1), Burst: 1, CleanupInterval: time.Hour}, logger.NewNop())
	t.Cleanup(rl.Stop)

	rl.limiter("ip:1.1.1.1")
	require.Equal(t, 1, rl.Len())

	rl.cleanup(time.Now())
	require.Equal(t, 1, rl.Len())

	rl.cleanup(time.Now().Add(3 * time.Hour))
	require.Equal(t, 0, rl.Len())

	rl.Stop()
	rl.Stop()
}
