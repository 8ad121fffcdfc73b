// Package middleware содержит HTTP middleware сервера.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/IvanChernomyrdin/go-polls/internal/server/crypto"
)

// ctxKey используется как тип ключа для хранения значений в context.Context.
// Отдельный тип предотвращает коллизии ключей между пакетами.
type ctxKey string

const (
	// identityKey — ключ контекста, под которым хранится аутентифицированный пользователь.
	identityKey ctxKey = "identity"
	holderKey   ctxKey = "identity_holder"
)

// identityHolder — изменяемая ячейка, которую кладёт LoggerMiddleware,
// чтобы увидеть пользователя, определённого во вложенных middleware.
type identityHolder struct {
	userID string
}

func withHolder(ctx context.Context, h *identityHolder) context.Context {
	return context.WithValue(ctx, holderKey, h)
}

// Identity — пользователь из access-токена.
type Identity struct {
	UserID string
	Email  string
	Name   string
}

// JWTVerifier инкапсулирует параметры проверки JWT access-токенов.
//
// Токен ищется в заголовке Authorization: Bearer <token>,
// а если его там нет, то в cookie (по умолчанию polls_access).
type JWTVerifier struct {
	cfg        crypto.JWTConfig
	cookieName string
}

// NewJWTVerifier создаёт новый JWTVerifier с заданными параметрами.
func NewJWTVerifier(signingKey, issuer, audience, cookieName string) *JWTVerifier {
	return &JWTVerifier{
		cfg: crypto.JWTConfig{
			SigningKey: signingKey,
			Issuer:     issuer,
			Audience:   audience,
		},
		cookieName: cookieName,
	}
}

// WithIdentity кладёт пользователя в контекст.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	if h, ok := ctx.Value(holderKey).(*identityHolder); ok {
		h.userID = id.UserID
	}
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext извлекает пользователя из контекста.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	if !ok || id.UserID == "" {
		return Identity{}, false
	}
	return id, true
}

// UserIDFromContext извлекает userID аутентифицированного пользователя из контекста.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := IdentityFromContext(ctx)
	return id.UserID, ok
}

// AuthMiddleware пропускает только запросы с валидным токеном.
// В случае ошибки возвращает HTTP 401 и {"error": "..."}.
func (v *JWTVerifier) AuthMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := v.identify(r)
			if err != nil {
				writeUnauthorized(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RedirectAnonymous — для отправки формы: без валидного токена
// отвечаем 303 на страницу входа и дальше запрос не пускаем.
func (v *JWTVerifier) RedirectAnonymous(signInPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := v.identify(r)
			if err != nil {
				http.Redirect(w, r, signInPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func (v *JWTVerifier) identify(r *http.Request) (Identity, error) {
	tokenStr := ExtractBearer(r.Header.Get("Authorization"))
	if tokenStr == "" && v.cookieName != "" {
		if c, err := r.Cookie(v.cookieName); err == nil {
			tokenStr = strings.TrimSpace(c.Value)
		}
	}
	if tokenStr == "" {
		return Identity{}, errMissingToken
	}

	claims, err := crypto.ParseAccessToken(tokenStr, v.cfg)
	if err != nil {
		return Identity{}, err
	}

	return Identity{
		UserID: strings.TrimSpace(claims.Subject),
		Email:  claims.Email,
		Name:   claims.Name,
	}, nil
}

var errMissingToken = errors.New("missing bearer token")

func writeUnauthorized(w http.ResponseWriter, err error) {
	msg := "invalid token"
	switch {
	case errors.Is(err, errMissingToken):
		msg = errMissingToken.Error()
	case errors.Is(err, crypto.ErrTokenExpired),
		errors.Is(err, crypto.ErrTokenIssuer),
		errors.Is(err, crypto.ErrTokenAudience),
		errors.Is(err, crypto.ErrTokenSubject):
		msg = err.Error()
	}
	writeJSONError(w, http.StatusUnauthorized, msg)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// ExtractBearer извлекает JWT из заголовка Authorization.
//
// Ожидаемый формат:
//
//	Authorization: Bearer <token>
//
// Возвращает пустую строку, если формат некорректен.
func ExtractBearer(h string) string {
	h = strings.TrimSpace(h)
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
