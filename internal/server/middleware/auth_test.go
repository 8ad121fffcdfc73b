package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/IvanChernomyrdin/go-polls/internal/server/crypto"
	"github.com/IvanChernomyrdin/go-polls/internal/server/middleware"
)

const (
	testKey      = "supersecretkeysupersecretkey123456"
	testIssuer   = "go-polls"
	testAudience = "polls-cli"
	testCookie   = "polls_access"
)

// Вспомогательная функция для JWT
func makeToken(t *testing.T, sub crypto.Subject, ttl time.Duration) string {
	t.Helper()

	s, err := crypto.NewAccessToken(sub, crypto.JWTConfig{
		Issuer:     testIssuer,
		Audience:   testAudience,
		SigningKey: testKey,
		AccessTTL:  ttl,
	})
	require.NoError(t, err)
	return s
}

func newVerifier() *middleware.JWTVerifier {
	return middleware.NewJWTVerifier(testKey, testIssuer, testAudience, testCookie)
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

// Успех
func TestAuthMiddleware_OK(t *testing.T) {
	userID := uuid.NewString()
	token := makeToken(t, crypto.Subject{UserID: userID, Email: "a@b.c", Name: "Alice"}, time.Minute)

	called := false
	h := newVerifier().AuthMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true

		id, ok := middleware.IdentityFromContext(r.Context())
		require.True(t, ok)
		require.Equal(t, userID, id.UserID)
		require.Equal(t, "a@b.c", id.Email)
		require.Equal(t, "Alice", id.Name)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.True(t, called)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddleware_CookieFallback(t *testing.T) {
	token := makeToken(t, crypto.Subject{UserID: "u-1"}, time.Minute)

	h := newVerifier().AuthMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, ok := middleware.UserIDFromContext(r.Context())
		require.True(t, ok)
		require.Equal(t, "u-1", uid)
	}))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: testCookie, Value: token})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		wantMsg string
	}{
		{"missing", "", "missing bearer token"},
		{"not bearer", "Basic abc", "missing bearer token"},
		{"garbage", "Bearer not-a-jwt", "invalid token"},
		{"expired", "Bearer " + makeToken(t, crypto.Subject{UserID: "u"}, -time.Minute), "token expired"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newVerifier().AuthMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("next handler must not be called")
			}))

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, http.StatusUnauthorized, rec.Code)
			require.Equal(t, tt.wantMsg, errorBody(t, rec))
		})
	}
}

func TestAuthMiddleware_WrongAudience(t *testing.T) {
	token := makeToken(t, crypto.Subject{UserID: "u"}, time.Minute)
	v := middleware.NewJWTVerifier(testKey, testIssuer, "someone-else", "")

	h := v.AuthMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "invalid token audience", errorBody(t, rec))
}

func TestRedirectAnonymous(t *testing.T) {
	h := newVerifier().RedirectAnonymous("/auth/sign-in")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not be called")
	}))

	req := httptest.NewRequest(http.MethodPost, "/polls", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/auth/sign-in", rec.Header().Get("Location"))
}

func TestRedirectAnonymous_PassesAuthenticated(t *testing.T) {
	token := makeToken(t, crypto.Subject{UserID: "u-2"}, time.Minute)

	h := newVerifier().RedirectAnonymous("/auth/sign-in")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, _ := middleware.UserIDFromContext(r.Context())
		require.Equal(t, "u-2", uid)
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/polls", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestExtractBearer(t *testing.T) {
	require.Equal(t, "abc", middleware.ExtractBearer("Bearer abc"))
	require.Equal(t, "abc", middleware.ExtractBearer("  bearer   abc "))
	require.Equal(t, "", middleware.ExtractBearer("Token abc"))
	require.Equal(t, "", middleware.ExtractBearer("Bearer"))
	require.Equal(t, "", middleware.ExtractBearer(""))
}

func TestIdentityFromContext_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := middleware.IdentityFromContext(req.Context())
	require.False(t, ok)

	ctx := middleware.WithIdentity(req.Context(), middleware.Identity{})
	_, ok = middleware.IdentityFromContext(ctx)
	require.False(t, ok)
}
