package session

import (
	"context"
	"path/filepath"

	"github.com/IvanChernomyrdin/go-polls/internal/agent/memory"
	pwcrypto "github.com/IvanChernomyrdin/go-polls/internal/shared/crypto"
	"github.com/IvanChernomyrdin/go-polls/internal/shared/models"
)

// MockBackend — сессия без сервера: пользователи и текущий пользователь
// лежат JSON-файлами в каталоге состояния.
type MockBackend struct {
	users       *memory.UsersStore
	currentPath string
}

// NewMockBackend создаёт mock-бэкенд в stateDir.
func NewMockBackend(stateDir string, params pwcrypto.Argon2Params) *MockBackend {
	return &MockBackend{
		users:       memory.NewUsersStore(filepath.Join(stateDir, memory.MockUsersFile), params),
		currentPath: filepath.Join(stateDir, memory.CurrentUserFile),
	}
}

func (b *MockBackend) SignIn(_ context.Context, email, password string) (models.User, error) {
	u, err := b.users.Authenticate(email, password)
	if err != nil {
		return models.User{}, err
	}
	if err := memory.SaveCurrentUser(b.currentPath, u); err != nil {
		return models.User{}, err
	}
	return u, nil
}

// SignUp добавляет пользователя и сразу делает его текущим.
func (b *MockBackend) SignUp(_ context.Context, name, email, password string) (models.User, error) {
	u, err := b.users.Add(name, email, password)
	if err != nil {
		return models.User{}, err
	}
	if err := memory.SaveCurrentUser(b.currentPath, u); err != nil {
		return models.User{}, err
	}
	return u, nil
}

func (b *MockBackend) SignOut(context.Context) error {
	return memory.ClearCurrentUser(b.currentPath)
}

// Restore засевает таблицу при первом запуске и читает текущего пользователя.
func (b *MockBackend) Restore(context.Context) (*models.User, error) {
	if err := b.users.Load(); err != nil {
		return nil, err
	}
	return memory.LoadCurrentUser(b.currentPath)
}

func (b *MockBackend) AccessToken() string { return "" }

// Reset возвращает таблицу пользователей к состоянию по умолчанию.
func (b *MockBackend) Reset() error {
	return b.users.Reset()
}
