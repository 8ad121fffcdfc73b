package service_test

import (
	"time"

	"github.com/IvanChernomyrdin/go-polls/internal/server/config"
)

// testConfig — дешёвый argon2, чтобы тесты не ждали по 64 MiB на хэш.
func testConfig() *config.Config {
	cfg := &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1"},
		DB:     config.DBConfig{DSN: "postgres://example"},
		Auth: config.AuthConfig{
			Issuer:     "go-polls",
			Audience:   "polls-cli",
			AccessTTL:  time.Minute,
			RefreshTTL: time.Hour,
			JWT: config.JWTConfig{
				SigningKey: "supersecretkeysupersecretkey123456",
			},
			Sessions: config.SessionsConfig{
				RotateRefresh:  true,
				ReuseDetection: true,
			},
		},
		Password: config.PasswordConfig{
			Argon2: config.Argon2Config{Time: 1, MemoryKiB: 1024, Threads: 1, KeyLen: 16, SaltLen: 8},
		},
	}
	config.ApplyDefaults(cfg)
	return cfg
}
