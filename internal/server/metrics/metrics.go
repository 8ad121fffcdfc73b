// Package metrics — метрики prometheus сервера опросов и хендлер /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder — то, что дергает сервис опросов.
type Recorder interface {
	PollCreated()
	PollCreateFailed(stage string)
	VoteCast()
}

// Collector — реализация на prometheus.
type Collector struct {
	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
	pollsCreated prometheus.Counter
	pollsFailed  *prometheus.CounterVec
	votesCast    prometheus.Counter
}

// NewCollector регистрирует метрики в reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "polls_http_requests_total",
			Help: "HTTP запросы по маршруту, методу и статусу",
		}, []string{"route", "method", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "polls_http_request_duration_seconds",
			Help:    "Длительность обработки HTTP запроса",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		pollsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "polls_created_total",
			Help: "Успешно созданные опросы",
		}),
		pollsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "polls_create_failed_total",
			Help: "Неудачные попытки создать опрос по шагу",
		}, []string{"stage"}),
		votesCast: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "polls_votes_total",
			Help: "Принятые голоса",
		}),
	}

	reg.MustRegister(c.httpRequests, c.httpLatency, c.pollsCreated, c.pollsFailed, c.votesCast)
	return c
}

func (c *Collector) PollCreated() {
	c.pollsCreated.Inc()
}

// PollCreateFailed — stage: validation|auth|poll_insert|options_insert|panic.
func (c *Collector) PollCreateFailed(stage string) {
	c.pollsFailed.WithLabelValues(stage).Inc()
}

func (c *Collector) VoteCast() {
	c.votesCast.Inc()
}

// Middleware пишет счётчик и гистограмму по шаблону маршрута chi,
// чтобы id опросов не раздували кардинальность.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		c.httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(sw.status)).Inc()
		c.httpLatency.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

// Handler — хендлер для скрейпа prometheus.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Nop — метрики выключены.
type Nop struct{}

func (Nop) PollCreated()            {}
func (Nop) PollCreateFailed(string) {}
func (Nop) VoteCast()               {}
