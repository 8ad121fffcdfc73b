package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IvanChernomyrdin/go-polls/internal/agent/api"
	serr "github.com/IvanChernomyrdin/go-polls/internal/shared/errors"
	"github.com/IvanChernomyrdin/go-polls/internal/shared/models"
)

func TestClient_Register(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/register", func(w http.ResponseWriter, r *http.Request) {
		var req api.RegisterRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, api.RegisterRequest{Name: "Alice", Email: "a@example.com", Password: "password123"}, req)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(api.RegisterResponse{UserID: "u1", AccessToken: "acc", RefreshToken: "ref"})
	})
	c := newServer(t, mux)

	resp, err := c.Register(context.Background(), "Alice", "a@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, api.RegisterResponse{UserID: "u1", AccessToken: "acc", RefreshToken: "ref"}, resp)
}

func TestClient_Login_InvalidCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid credentials"}`))
	})
	c := newServer(t, mux)

	_, err := c.Login(context.Background(), "a@example.com", "bad")
	require.ErrorIs(t, err, serr.ErrUnauthorized)
	assert.Equal(t, "invalid credentials", err.Error())
}

func TestClient_RefreshLogoutMe(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		var req api.RefreshRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ref", req.RefreshToken)
		_ = json.NewEncoder(w).Encode(api.LoginResponse{AccessToken: "acc2", RefreshToken: "ref2"})
	})
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer acc2", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(models.MeResponse{UserID: "u1", Email: "a@example.com", Name: "Alice"})
	})
	c := newServer(t, mux)
	ctx := context.Background()

	pair, err := c.Refresh(ctx, "ref")
	require.NoError(t, err)
	assert.Equal(t, "acc2", pair.AccessToken)

	me, err := c.Me(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "Alice", me.Name)

	require.NoError(t, c.Logout(ctx, pair.RefreshToken))
}
