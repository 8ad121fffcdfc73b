package api_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"

	"github.com/IvanChernomyrdin/go-polls/internal/server/api"
	"github.com/IvanChernomyrdin/go-polls/internal/server/cache"
	"github.com/IvanChernomyrdin/go-polls/internal/server/config"
	"github.com/IvanChernomyrdin/go-polls/internal/server/middleware"
	"github.com/IvanChernomyrdin/go-polls/internal/server/service"
	"github.com/IvanChernomyrdin/go-polls/internal/server/service/mocks"
	"github.com/IvanChernomyrdin/go-polls/internal/shared/logger"
)

type testDeps struct {
	h        *api.Handler
	users    *mocks.MockUsersRepo
	sessions *mocks.MockSessionsRepo
	polls    *mocks.MockPollsRepo
	listing  *cache.Memory
	cfg      *config.Config
}

func testConfig() *config.Config {
	cfg := &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1"},
		DB:     config.DBConfig{DSN: "postgres://example"},
		Auth: config.AuthConfig{
			Issuer:     "go-polls",
			Audience:   "polls-cli",
			AccessTTL:  time.Minute,
			RefreshTTL: time.Hour,
			JWT:        config.JWTConfig{SigningKey: "supersecretkeysupersecretkey123456"},
			Sessions:   config.SessionsConfig{RotateRefresh: true, ReuseDetection: true},
		},
		Password: config.PasswordConfig{
			Argon2: config.Argon2Config{Time: 1, MemoryKiB: 1024, Threads: 1, KeyLen: 16, SaltLen: 8},
		},
	}
	config.ApplyDefaults(cfg)
	return cfg
}

// NewTestHandler собирает Handler на моках репозиториев и настоящих сервисах.
func NewTestHandler(t *testing.T) testDeps {
	t.Helper()
	ctrl := gomock.NewController(t)

	cfg := testConfig()
	d := testDeps{
		users:    mocks.NewMockUsersRepo(ctrl),
		sessions: mocks.NewMockSessionsRepo(ctrl),
		polls:    mocks.NewMockPollsRepo(ctrl),
		listing:  cache.NewMemory(time.Minute),
		cfg:      cfg,
	}

	log := logger.NewNop()
	svc := service.NewServices(service.Repositories{
		Users:    d.users,
		Sessions: d.sessions,
		Polls:    d.polls,
	}, service.Deps{Listing: d.listing, Log: log}, cfg)

	verifier := middleware.NewJWTVerifier(cfg.Auth.JWT.SigningKey, cfg.Auth.Issuer, cfg.Auth.Audience, cfg.Auth.CookieName)
	d.h = api.NewHandler(svc, log, verifier, d.listing)
	return d
}

// asUser кладёт пользователя в контекст, как это делает AuthMiddleware.
func asUser(r *http.Request, userID string) *http.Request {
	return r.WithContext(middleware.WithIdentity(r.Context(), middleware.Identity{UserID: userID}))
}

// withURLParam эмулирует chi-параметр пути.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
