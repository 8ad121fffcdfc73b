// @title           Polls API
// @version         1.0
// @description     Polling backend: users create polls from a form and vote on options.
// @termsOfService  https://example.com/terms

// @contact.name   Ivan Chernomyrdin
// @contact.url    https://github.com/IvanChernomyrdin
// @contact.email  ivan@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
//
// Package main содержит точку входа серверного приложения опросов.
//
// Пакет отвечает за инициализацию и жизненный цикл HTTP(S)-сервера, а именно:
//   - загрузку переменных окружения из файла .env (если он присутствует);
//   - загрузку конфигурации сервера из файла ./configs/server.yaml;
//   - подключение к базе данных, миграции и управление жизненным циклом пула;
//   - выбор кэша листинга (memory или redis) и регистрацию метрик;
//   - создание репозиториев, сервисов, middleware и HTTP-обработчиков;
//   - обработку системных сигналов завершения (SIGINT, SIGTERM, SIGQUIT);
//   - корректное (graceful) завершение работы сервера с таймаутом.
//
// Пакет не содержит бизнес-логики и не предназначен для unit-тестирования.
package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/IvanChernomyrdin/go-polls/internal/server/api"
	"github.com/IvanChernomyrdin/go-polls/internal/server/cache"
	"github.com/IvanChernomyrdin/go-polls/internal/server/config"
	"github.com/IvanChernomyrdin/go-polls/internal/server/metrics"
	"github.com/IvanChernomyrdin/go-polls/internal/server/middleware"
	h "github.com/IvanChernomyrdin/go-polls/internal/server/net/http"
	"github.com/IvanChernomyrdin/go-polls/internal/server/repository"
	"github.com/IvanChernomyrdin/go-polls/internal/server/service"
	"github.com/IvanChernomyrdin/go-polls/internal/shared/logger"

	_ "github.com/IvanChernomyrdin/go-polls/swagger/docs"
)

const configPath = "./configs/server.yaml"

func main() {
	boot := logger.NewHTTPLogger().Sugar()

	if err := godotenv.Load(); err != nil {
		boot.Warnf("no .env file loaded, error: %v", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		boot.Fatal(err)
	}

	httpLogger := logger.New(logger.Options{Dir: cfg.Log.Dir, Level: cfg.Log.Level})
	defer func() { _ = httpLogger.Sync() }()
	sugar := httpLogger.Sugar()

	// подключаем базу данных и прогоняем миграции
	db, err := config.OpenDB(cfg.DB, cfg.Migrations, httpLogger)
	if err != nil {
		sugar.Fatal(err)
	}
	// делаем отложенное закрытие бд
	defer func() { _ = db.Close() }()

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	listing, closeCache, err := newListingCache(ctx, cfg.Cache)
	if err != nil {
		sugar.Fatal(err)
	}
	defer closeCache()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	// создаём репы
	repos := service.Repositories{
		Users:    repository.NewUsersRepository(db),
		Sessions: repository.NewSessionsRepository(db),
		Polls:    repository.NewPollsRepository(db, cfg.DB.QueryTimeout),
	}
	svc := service.NewServices(repos, service.Deps{
		Listing: listing,
		Metrics: collector,
		Log:     httpLogger,
	}, cfg)

	verifier := middleware.NewJWTVerifier(
		cfg.Auth.JWT.SigningKey,
		cfg.Auth.Issuer,
		cfg.Auth.Audience,
		cfg.Auth.CookieName,
	)

	handler := api.NewHandler(svc, httpLogger, verifier, listing)
	handler.MaxBodyBytes = cfg.Server.MaxBodyBytes

	opts := h.Options{
		SignInPath: cfg.Auth.SignInPath,
		Swagger:    cfg.Env != "prod",
	}
	if cfg.Observability.Metrics.Enabled {
		opts.Metrics = collector
		opts.Gatherer = reg
		opts.MetricsPath = cfg.Observability.Metrics.Path
	}
	if rl := cfg.Security.RateLimit; rl.Enabled {
		limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:            rate.Limit(rl.RPS),
			Burst:           rl.Burst,
			ByUser:          rl.Key == "user",
			CleanupInterval: rl.CleanupInterval,
		}, httpLogger)
		defer limiter.Stop()
		opts.RateLimiter = limiter
	}

	router := h.NewRouter(handler, opts)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		MaxHeaderBytes:    cfg.Server.MaxHeaderBytes,
	}
	if cfg.TLS.Enabled {
		server.TLSConfig = &tls.Config{MinVersion: tlsVersion(cfg.TLS.MinVersion)}
	}

	g, ctx := errgroup.WithContext(ctx)

	// запускаем сервер
	g.Go(func() error {
		sugar.Infof("server started on %s (tls=%t)", addr, cfg.TLS.Enabled)

		var err error
		if cfg.TLS.Enabled {
			err = server.ListenAndServeTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// graceful shutdown с таймаутом из конфига
	g.Go(func() error {
		<-ctx.Done()

		sugar.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	// ожидание и единная обработка ошибок
	if err := g.Wait(); err != nil {
		sugar.Errorf("server stopped with error: %v", err)
		return
	}
	sugar.Info("server gracefully stopped")
}

// newListingCache выбирает кэш листинга по cache.driver.
func newListingCache(ctx context.Context, cfg config.CacheConfig) (cache.ListingCache, func(), error) {
	switch cfg.Driver {
	case "redis":
		r, err := cache.NewRedis(ctx, cache.RedisOptions{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
			TTL:      cfg.TTL,
		})
		if err != nil {
			return nil, nil, err
		}
		return r, func() { _ = r.Close() }, nil
	default:
		return cache.NewMemory(cfg.TTL), func() {}, nil
	}
}

func tlsVersion(v string) uint16 {
	if v == "1.3" {
		return tls.VersionTLS13
	}
	return tls.VersionTLS12
}
