package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

// counterValue ищет счётчик по имени и набору меток.
func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()

	mfs, err := reg.Gather()
	require.NoError(t, err)

	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			match := true
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					match = false
				}
			}
			if match {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestCollector_PollCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.PollCreated()
	c.PollCreated()
	c.PollCreateFailed("options_insert")
	c.VoteCast()

	require.Equal(t, 2.0, counterValue(t, reg, "polls_created_total", nil))
	require.Equal(t, 1.0, counterValue(t, reg, "polls_create_failed_total", map[string]string{"stage": "options_insert"}))
	require.Equal(t, 0.0, counterValue(t, reg, "polls_create_failed_total", map[string]string{"stage": "poll_insert"}))
	require.Equal(t, 1.0, counterValue(t, reg, "polls_votes_total", nil))
}

func TestCollector_MiddlewareUsesRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	r := chi.NewRouter()
	r.Use(c.Middleware)
	r.Get("/polls/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/polls/"+id, nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	}

	require.Equal(t, 3.0, counterValue(t, reg, "polls_http_requests_total",
		map[string]string{"route": "/polls/{id}", "method": "GET", "status": "404"}))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.VoteCast()

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(body), "polls_votes_total 1"))
}

func TestNop(t *testing.T) {
	var r Recorder = Nop{}
	r.PollCreated()
	r.PollCreateFailed("x")
	r.VoteCast()
}
