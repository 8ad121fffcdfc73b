package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/IvanChernomyrdin/go-polls/internal/agent/api"
	"github.com/IvanChernomyrdin/go-polls/internal/agent/config"
	serr "github.com/IvanChernomyrdin/go-polls/internal/shared/errors"
	"github.com/IvanChernomyrdin/go-polls/internal/shared/logger"
	"github.com/IvanChernomyrdin/go-polls/internal/shared/models"
)

// запас, чтобы токен не протух по дороге до сервера
const expirySkew = 30 * time.Second

// AuthClient — эндпоинты /auth/* и /me, которые нужны RemoteBackend.
type AuthClient interface {
	Register(ctx context.Context, name, email, password string) (api.RegisterResponse, error)
	Login(ctx context.Context, email, password string) (api.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (api.RefreshResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context, accessToken string) (models.MeResponse, error)
}

// RemoteBackend — сессия на сервере. Токены и снимок пользователя
// хранятся в credentials.json.
type RemoteBackend struct {
	client    AuthClient
	credsPath string
	log       *logger.HTTPLogger
	now       func() time.Time

	mu    sync.RWMutex
	creds *config.Credentials
}

// NewRemoteBackend создаёт remote-бэкенд с credentials.json в stateDir.
func NewRemoteBackend(client AuthClient, stateDir string, log *logger.HTTPLogger) *RemoteBackend {
	return &RemoteBackend{
		client:    client,
		credsPath: config.CredentialsPath(stateDir),
		log:       log,
		now:       time.Now,
		creds:     &config.Credentials{},
	}
}

func (b *RemoteBackend) SignIn(ctx context.Context, email, password string) (models.User, error) {
	pair, err := b.client.Login(ctx, email, password)
	if err != nil {
		return models.User{}, mapAuthError(err)
	}
	return b.open(ctx, pair.AccessToken, pair.RefreshToken)
}

func (b *RemoteBackend) SignUp(ctx context.Context, name, email, password string) (models.User, error) {
	reg, err := b.client.Register(ctx, name, email, password)
	if err != nil {
		return models.User{}, mapAuthError(err)
	}
	return b.open(ctx, reg.AccessToken, reg.RefreshToken)
}

// SignOut всегда чистит локальные токены. Ошибку сервера только логируем:
// refresh всё равно протухнет сам.
func (b *RemoteBackend) SignOut(ctx context.Context) error {
	b.mu.Lock()
	refresh := b.creds.RefreshToken
	b.creds = &config.Credentials{}
	b.mu.Unlock()

	if refresh != "" {
		if err := b.client.Logout(ctx, refresh); err != nil {
			b.log.Sugar().Warnw("server logout failed", "error", err)
		}
	}
	return config.Remove(b.credsPath)
}

// Restore читает credentials.json и при протухшем access обновляет пару токенов.
// Отозванный refresh означает, что сессии больше нет.
func (b *RemoteBackend) Restore(ctx context.Context) (*models.User, error) {
	creds, err := config.Load(b.credsPath)
	if err != nil {
		return nil, err
	}
	if creds.Empty() {
		b.setCreds(&config.Credentials{})
		return nil, nil
	}

	if b.expired(creds.AccessToken) {
		if creds.RefreshToken == "" {
			return nil, b.drop()
		}
		pair, err := b.client.Refresh(ctx, creds.RefreshToken)
		if err != nil {
			if errors.Is(err, serr.ErrUnauthorized) {
				return nil, b.drop()
			}
			return nil, err
		}
		creds.AccessToken, creds.RefreshToken = pair.AccessToken, pair.RefreshToken
		creds.User = nil
	}

	if creds.User == nil {
		me, err := b.client.Me(ctx, creds.AccessToken)
		if err != nil {
			return nil, err
		}
		creds.User = &models.User{ID: me.UserID, Email: me.Email, Name: me.Name}
		if err := config.Save(b.credsPath, creds); err != nil {
			return nil, err
		}
	}

	b.setCreds(creds)
	u := *creds.User
	return &u, nil
}

func (b *RemoteBackend) AccessToken() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.creds.AccessToken
}

func (b *RemoteBackend) open(ctx context.Context, access, refresh string) (models.User, error) {
	me, err := b.client.Me(ctx, access)
	if err != nil {
		return models.User{}, err
	}
	u := models.User{ID: me.UserID, Email: me.Email, Name: me.Name}

	creds := &config.Credentials{AccessToken: access, RefreshToken: refresh, User: &u}
	if err := config.Save(b.credsPath, creds); err != nil {
		return models.User{}, err
	}
	b.setCreds(creds)
	return u, nil
}

func (b *RemoteBackend) setCreds(c *config.Credentials) {
	b.mu.Lock()
	b.creds = c
	b.mu.Unlock()
}

func (b *RemoteBackend) drop() error {
	b.setCreds(&config.Credentials{})
	return config.Remove(b.credsPath)
}

// expired смотрит exp без проверки подписи: подпись проверит сервер.
func (b *RemoteBackend) expired(token string) bool {
	if token == "" {
		return true
	}
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return true
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !claims.ExpiresAt.After(b.now().Add(expirySkew))
}

// mapAuthError сводит ответы сервера к ошибкам бэкенда.
func mapAuthError(err error) error {
	switch {
	case errors.Is(err, serr.ErrUnauthorized):
		return serr.ErrInvalidCredentials
	case errors.Is(err, serr.ErrAlreadyExists):
		return serr.ErrAlreadyExists
	}
	return err
}
