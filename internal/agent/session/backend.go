// Package session держит клиентскую сессию CLI.
//
// Store — единственный держатель текущего пользователя на процесс.
// Откуда берётся пользователь, решает Backend: локальный mock (JSON-файлы)
// или сервер (/auth/*). Вызывающий код от выбора бэкенда не зависит.
package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/IvanChernomyrdin/go-polls/internal/agent/api"
	pwcrypto "github.com/IvanChernomyrdin/go-polls/internal/shared/crypto"
	"github.com/IvanChernomyrdin/go-polls/internal/shared/logger"
	"github.com/IvanChernomyrdin/go-polls/internal/shared/models"
)

// Виды бэкендов
const (
	BackendMock   = "mock"
	BackendRemote = "remote"
)

// Backend — источник идентичности для Store.
//
// Ошибки:
//   - ErrInvalidCredentials при неверном email/пароле
//   - ErrAlreadyExists при занятом email
//   - прочие — транспорт или хранилище
type Backend interface {
	SignIn(ctx context.Context, email, password string) (models.User, error)
	SignUp(ctx context.Context, name, email, password string) (models.User, error)
	// SignOut завершает сессию. Без сессии — nil.
	SignOut(ctx context.Context) error
	// Restore поднимает сохранённую сессию. Нет сессии — nil, nil.
	Restore(ctx context.Context) (*models.User, error)
	// AccessToken — bearer для API. Пустой, если бэкенд токенов не выдаёт.
	AccessToken() string
}

// Options — зависимости для NewBackend.
type Options struct {
	StateDir string
	Client   *api.Client
	Argon2   pwcrypto.Argon2Params
	Log      *logger.HTTPLogger
}

// NewBackend создаёт бэкенд по имени (mock|remote).
func NewBackend(kind string, opts Options) (Backend, error) {
	if opts.Log == nil {
		opts.Log = logger.NewNop()
	}
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case BackendMock:
		return NewMockBackend(opts.StateDir, opts.Argon2), nil
	case BackendRemote, "":
		if opts.Client == nil {
			return nil, fmt.Errorf("remote backend: api client is required")
		}
		return NewRemoteBackend(opts.Client, opts.StateDir, opts.Log), nil
	default:
		return nil, fmt.Errorf("unknown auth backend %q (mock|remote)", kind)
	}
}
