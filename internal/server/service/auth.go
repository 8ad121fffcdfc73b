package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/IvanChernomyrdin/go-polls/internal/server/config"
	"github.com/IvanChernomyrdin/go-polls/internal/server/crypto"
	"github.com/IvanChernomyrdin/go-polls/internal/server/models"
	pwcrypto "github.com/IvanChernomyrdin/go-polls/internal/shared/crypto"
	serr "github.com/IvanChernomyrdin/go-polls/internal/shared/errors"
	sharedmodels "github.com/IvanChernomyrdin/go-polls/internal/shared/models"
)

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const minPasswordLen = 8

// AuthService реализует бизнес-логику аутентификации и управления сессиями.
//
// Ответственность:
//   - регистрация пользователей (сразу с выдачей токенов)
//   - аутентификация (логин)
//   - обновление access токенов по refresh, rotation и reuse detection
//   - logout одной сессии
//   - данные текущего пользователя
type AuthService struct {
	users    UsersRepo
	sessions SessionsRepo

	pass pwcrypto.Argon2Params
	jwt  crypto.JWTConfig

	refreshTTL     time.Duration
	rotateRefresh  bool
	reuseDetection bool

	now func() time.Time
}

// TokenPair представляет пару access / refresh токенов.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Registration — результат регистрации.
type Registration struct {
	UserID uuid.UUID
	TokenPair
}

// NewAuthService создаёт AuthService с зависимостями и настройками из конфига.
func NewAuthService(users UsersRepo, sessions SessionsRepo, cfg *config.Config) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,

		pass: pwcrypto.Argon2Params{
			Time:      cfg.Password.Argon2.Time,
			MemoryKiB: cfg.Password.Argon2.MemoryKiB,
			Threads:   cfg.Password.Argon2.Threads,
			KeyLen:    cfg.Password.Argon2.KeyLen,
			SaltLen:   cfg.Password.Argon2.SaltLen,
		},
		jwt: crypto.JWTConfig{
			Issuer:     cfg.Auth.Issuer,
			Audience:   cfg.Auth.Audience,
			SigningKey: cfg.Auth.JWT.SigningKey,
			AccessTTL:  cfg.Auth.AccessTTL,
		},

		refreshTTL:     cfg.Auth.RefreshTTL,
		rotateRefresh:  cfg.Auth.Sessions.RotateRefresh,
		reuseDetection: cfg.Auth.Sessions.ReuseDetection,

		now: time.Now,
	}
}

// Register регистрирует нового пользователя и сразу открывает ему сессию.
//
// Валидация:
//   - email обязателен и должен быть валидным
//   - пароль обязателен и длиной >= 8 символов
//   - имя необязательно
//
// Ошибки:
//   - ErrInvalidInput при некорректных данных
//   - ErrAlreadyExists если email уже зарегистрирован
func (s *AuthService) Register(ctx context.Context, name, email, password string) (Registration, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	password = strings.TrimSpace(password)

	if email == "" || !emailRe.MatchString(email) || len(password) < minPasswordLen {
		return Registration{}, serr.ErrInvalidInput
	}

	hash, err := pwcrypto.HashPassword(password, s.pass)
	if err != nil {
		return Registration{}, serr.ErrInternal
	}

	id, err := s.users.Create(ctx, email, name, hash)
	if err != nil {
		return Registration{}, err
	}

	pair, err := s.openSession(ctx, models.User{ID: id, Email: email, Name: name})
	if err != nil {
		return Registration{}, err
	}
	return Registration{UserID: id, TokenPair: pair}, nil
}

// Login аутентифицирует пользователя и выдаёт пару токенов.
//
// Не раскрывает факт существования email: и неизвестный email,
// и неверный пароль дают ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (TokenPair, error) {
	email = normalizeEmail(email)
	password = strings.TrimSpace(password)
	if email == "" || password == "" {
		return TokenPair{}, serr.ErrInvalidInput
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return TokenPair{}, serr.ErrInvalidCredentials
		}
		return TokenPair{}, err
	}

	ok, err := pwcrypto.VerifyPassword(password, u.PasswordHash)
	if err != nil {
		return TokenPair{}, serr.ErrInternal
	}
	if !ok {
		return TokenPair{}, serr.ErrInvalidCredentials
	}

	return s.openSession(ctx, u)
}

// Refresh обновляет access токен по refresh токену.
//
// Поддерживает:
//   - rotation refresh токенов
//   - reuse detection (отзыв всех сессий при повторном использовании)
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return TokenPair{}, serr.ErrInvalidInput
	}

	sess, err := s.sessions.GetByRefreshHash(ctx, crypto.HashRefreshToken(refreshToken))
	if err != nil {
		return TokenPair{}, err
	}

	now := s.now()
	if !sess.ExpiresAt.After(now) {
		return TokenPair{}, serr.ErrUnauthorized
	}

	// если токен уже отозван — значит кто-то пытается переиспользовать
	if sess.RevokedAt != nil {
		if s.reuseDetection {
			if err := s.sessions.RevokeAllForUser(ctx, sess.UserID); err != nil {
				return TokenPair{}, err
			}
		}
		return TokenPair{}, serr.ErrUnauthorized
	}

	u, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return TokenPair{}, serr.ErrUnauthorized
		}
		return TokenPair{}, err
	}

	access, err := s.accessToken(u)
	if err != nil {
		return TokenPair{}, serr.ErrInternal
	}

	// если rotate_refresh выключен — возвращаем только новый access, refresh тот же
	if !s.rotateRefresh {
		return TokenPair{AccessToken: access, RefreshToken: refreshToken}, nil
	}

	newRefresh, err := crypto.NewRefreshToken()
	if err != nil {
		return TokenPair{}, serr.ErrInternal
	}

	newID, err := s.sessions.Create(ctx, sess.UserID, crypto.HashRefreshToken(newRefresh), now.Add(s.refreshTTL))
	if err != nil {
		return TokenPair{}, err
	}

	// пометить старый как revoked и связать с новым
	if err := s.sessions.RevokeAndReplace(ctx, sess.ID, newID); err != nil {
		return TokenPair{}, err
	}

	return TokenPair{AccessToken: access, RefreshToken: newRefresh}, nil
}

// Logout отзывает сессию refresh токена. Неизвестный или уже отозванный токен
// ошибкой не считается.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return serr.ErrInvalidInput
	}
	return s.sessions.RevokeByHash(ctx, crypto.HashRefreshToken(refreshToken))
}

// Me возвращает публичные данные пользователя.
func (s *AuthService) Me(ctx context.Context, userID string) (sharedmodels.User, error) {
	id, err := uuid.Parse(strings.TrimSpace(userID))
	if err != nil {
		return sharedmodels.User{}, serr.ErrUnauthorized
	}

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return sharedmodels.User{}, err
	}
	return sharedmodels.User{ID: u.ID.String(), Email: u.Email, Name: u.Name}, nil
}

func (s *AuthService) openSession(ctx context.Context, u models.User) (TokenPair, error) {
	access, err := s.accessToken(u)
	if err != nil {
		return TokenPair{}, serr.ErrInternal
	}

	refresh, err := crypto.NewRefreshToken()
	if err != nil {
		return TokenPair{}, serr.ErrInternal
	}

	if _, err := s.sessions.Create(ctx, u.ID, crypto.HashRefreshToken(refresh), s.now().Add(s.refreshTTL)); err != nil {
		return TokenPair{}, err
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) accessToken(u models.User) (string, error) {
	return crypto.NewAccessToken(crypto.Subject{
		UserID: u.ID.String(),
		Email:  u.Email,
		Name:   u.Name,
	}, s.jwt)
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
