package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IvanChernomyrdin/go-polls/internal/agent/api"
	serr "github.com/IvanChernomyrdin/go-polls/internal/shared/errors"
)

func newServer(t *testing.T, mux *http.ServeMux) *api.Client {
	t.Helper()
	srv := httptest.NewTLSServer(mux)
	t.Cleanup(srv.Close)
	return api.NewClient(srv.URL+"/", true)
}

func TestClient_PostJSON_SetsHeaders_AndDecodesResponse(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/x", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected method POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Fatalf("expected Content-Type application/json, got %q", ct)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer token-1" {
			t.Fatalf("expected Authorization Bearer token-1, got %q", auth)
		}

		var got map[string]any
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if got["a"] != float64(1) { // json numbers decode as float64 into map
			t.Fatalf("expected a=1, got %#v", got["a"])
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	})
	c := newServer(t, mux)

	var resp map[string]any
	err := c.PostJSON(context.Background(), "/x", map[string]any{"a": 1}, &resp, "token-1")
	require.NoError(t, err)
	assert.Equal(t, true, resp["ok"])
}

func TestClient_PostJSON_WithoutAuth_DoesNotSetAuthorization(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/x", func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "" {
			t.Fatalf("expected empty Authorization, got %q", auth)
		}
		if ct := r.Header.Get("Content-Type"); ct != "" {
			t.Fatalf("expected no Content-Type for nil body, got %q", ct)
		}
		w.WriteHeader(http.StatusNoContent)
	})
	c := newServer(t, mux)

	require.NoError(t, c.PostJSON(context.Background(), "/x", nil, nil, ""))
}

func TestClient_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		target error
		msg    string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":"token expired"}`, target: serr.ErrUnauthorized, msg: "token expired"},
		{name: "not found", status: http.StatusNotFound, body: `{"error":"not found"}`, target: serr.ErrNotFound, msg: "not found"},
		{name: "conflict", status: http.StatusConflict, body: `{"error":"already exists"}`, target: serr.ErrAlreadyExists, msg: "already exists"},
		{name: "plain text body", status: http.StatusBadGateway, body: "upstream down", msg: "upstream down"},
		{name: "empty body", status: http.StatusInternalServerError, msg: "500 Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/x", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			c := newServer(t, mux)

			err := c.GetJSON(context.Background(), "/x", nil, "")
			require.Error(t, err)

			var apiErr *api.Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.msg, apiErr.Error())
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
		})
	}
}

func TestClient_GetJSON_EmptyBodyIsOK(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/x", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	c := newServer(t, mux)

	var resp map[string]any
	require.NoError(t, c.GetJSON(context.Background(), "/x", &resp, ""))
	assert.Nil(t, resp)
}

func TestClient_RespectsContext(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/x", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	c := newServer(t, mux)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.GetJSON(ctx, "/x", nil, "")
	require.ErrorIs(t, err, context.Canceled)
}
