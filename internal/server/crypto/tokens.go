// Package crypto содержит криптографические примитивы сервера опросов:
//   - выпуск и разбор JWT access-токенов (HS256);
//   - генерацию refresh-токенов и их хэширование для хранения в БД.
package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired  = errors.New("token expired")
	ErrTokenInvalid  = errors.New("invalid token")
	ErrTokenIssuer   = errors.New("invalid token issuer")
	ErrTokenAudience = errors.New("invalid token audience")
	ErrTokenSubject  = errors.New("invalid token subject")
)

// JWTConfig описывает параметры выпуска и проверки access-токена.
type JWTConfig struct {
	// Issuer — значение поля iss (кто выдал токен).
	Issuer string
	// Audience — значение поля aud (для кого предназначен токен).
	Audience string
	// SigningKey — секретный ключ HS256.
	SigningKey string
	// AccessTTL — срок жизни access-токена.
	AccessTTL time.Duration
}

// Claims — содержимое access-токена.
//
// Кроме стандартных полей в токен кладём email и имя,
// чтобы /me и клиент могли показать пользователя без похода в БД.
type Claims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Subject — кому выпускается токен.
type Subject struct {
	UserID string
	Email  string
	Name   string
}

// NewAccessToken создаёт и подписывает JWT access-токен (HS256).
func NewAccessToken(sub Subject, cfg JWTConfig) (string, error) {
	now := time.Now()

	claims := Claims{
		Email: sub.Email,
		Name:  sub.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Audience:  []string{cfg.Audience},
			Subject:   sub.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.AccessTTL)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(cfg.SigningKey))
}

// ParseAccessToken проверяет подпись, срок действия, issuer и audience.
// Пустые Issuer/Audience в cfg не проверяются.
func ParseAccessToken(tokenStr string, cfg JWTConfig) (*Claims, error) {
	claims := &Claims{}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
	_, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return []byte(cfg.SigningKey), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if cfg.Issuer != "" && claims.Issuer != cfg.Issuer {
		return nil, ErrTokenIssuer
	}
	if cfg.Audience != "" && !slices.Contains(claims.Audience, cfg.Audience) {
		return nil, ErrTokenAudience
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrTokenSubject
	}
	return claims, nil
}

// NewRefreshToken — случайные 256 бит в base64url.
func NewRefreshToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// HashRefreshToken — в БД храним только sha256 от refresh-токена.
func HashRefreshToken(token string) []byte {
	sum := sha256.Sum256([]byte(token))
	return sum[:]
}
