// Package http реализует маршрутизацию HTTP-слоя сервера опросов.
//
// Пакет отвечает за:
//   - регистрацию HTTP-маршрутов и настройку роутера (chi);
//   - подключение middleware логирования, метрик и rate limit;
//   - разделение публичных и защищённых JWT маршрутов.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/IvanChernomyrdin/go-polls/internal/server/api"
	"github.com/IvanChernomyrdin/go-polls/internal/server/metrics"
	"github.com/IvanChernomyrdin/go-polls/internal/server/middleware"
)

// Options — необязательные части роутера. Нулевое значение даёт голый API.
type Options struct {
	// Metrics считает запросы, Gatherer отдаётся на MetricsPath
	Metrics     *metrics.Collector
	Gatherer    prometheus.Gatherer
	MetricsPath string

	RateLimiter *middleware.RateLimiter

	// SignInPath — куда редиректить анонимную отправку формы
	SignInPath string
	Swagger    bool
}

// NewRouter создаёт и настраивает HTTP-роутер сервера.
//
// Роутер использует chi.Router и регистрирует:
//   - публичные эндпоинты аутентификации под префиксом /auth;
//   - публичный листинг и просмотр опросов;
//   - защищённые JWT эндпоинты (/me, создание опроса, голос).
func NewRouter(h *api.Handler, opts Options) http.Handler {
	if opts.SignInPath == "" {
		opts.SignInPath = "/auth/sign-in"
	}
	if opts.MetricsPath == "" {
		opts.MetricsPath = "/metrics"
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	// логирование всех запросов
	r.Use(middleware.LoggerMiddleware(h.Log))
	r.Use(chimw.Recoverer)
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
	}

	// по пользователю лимит ставится на каждый маршрут после auth,
	// иначе идентичности в контексте ещё нет
	limitPublic, limitAuthed := passthrough, passthrough
	if rl := opts.RateLimiter; rl != nil {
		if rl.ByUser() {
			limitPublic, limitAuthed = rl.Middleware, rl.Middleware
		} else {
			r.Use(rl.Middleware)
		}
	}

	if opts.Gatherer != nil {
		r.Method(http.MethodGet, opts.MetricsPath, metrics.Handler(opts.Gatherer))
	}
	if opts.Swagger {
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	}

	// Публичные пути
	r.Route("/auth", func(r chi.Router) {
		r.Use(limitPublic)
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/refresh", h.Refresh)
		r.Post("/logout", h.Logout)
		r.Get("/sign-in", h.SignIn)
	})

	r.Route("/polls", func(r chi.Router) {
		r.With(limitPublic).Get("/", h.ListPolls)
		r.With(limitPublic).Get("/{id}", h.GetPoll)

		// форма: анонима отправляем на вход
		r.With(h.Verifier.RedirectAnonymous(opts.SignInPath), limitAuthed).Post("/", h.CreatePoll)
		r.With(h.Verifier.AuthMiddleware(), limitAuthed).Post("/{id}/votes", h.Vote)
	})

	// защищены пути
	r.Group(func(r chi.Router) {
		r.Use(h.Verifier.AuthMiddleware(), limitAuthed)
		r.Get("/me", h.Me)
	})

	return r
}

func passthrough(next http.Handler) http.Handler { return next }
