package memory

import (
	"strconv"
	"sync"

	pwcrypto "github.com/IvanChernomyrdin/go-polls/internal/shared/crypto"
	serr "github.com/IvanChernomyrdin/go-polls/internal/shared/errors"
	"github.com/IvanChernomyrdin/go-polls/internal/shared/models"
)

// Пользователь, которым засевается пустая таблица.
const (
	DefaultAdminID       = "1"
	DefaultAdminName     = "Admin User"
	DefaultAdminEmail    = "admin@example.com"
	DefaultAdminPassword = "password123"
)

// MockUser — запись таблицы mock-пользователей.
//
// Пароль хранится только в виде argon2id-хэша.
type MockUser struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
}

func (u MockUser) public() models.User {
	return models.User{ID: u.ID, Email: u.Email, Name: u.Name}
}

// UsersStore — потокобезопасная таблица mock-пользователей поверх JSON-файла.
//
// Каждое изменение сразу сбрасывается на диск.
type UsersStore struct {
	mu     sync.RWMutex
	path   string
	params pwcrypto.Argon2Params
	users  []MockUser
	loaded bool
}

// NewUsersStore создаёт стор для файла path. Файл читается в Load.
func NewUsersStore(path string, params pwcrypto.Argon2Params) *UsersStore {
	return &UsersStore{path: path, params: params}
}

// Load читает таблицу. Если файла нет — засевает её пользователем по умолчанию.
func (s *UsersStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *UsersStore) loadLocked() error {
	if s.loaded {
		return nil
	}

	var users []MockUser
	found, err := readJSON(s.path, &users)
	if err != nil {
		return err
	}
	if !found {
		return s.seedLocked()
	}
	s.users = users
	s.loaded = true
	return nil
}

// Reset возвращает таблицу к единственному пользователю по умолчанию.
func (s *UsersStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seedLocked()
}

func (s *UsersStore) seedLocked() error {
	hash, err := pwcrypto.HashPassword(DefaultAdminPassword, s.params)
	if err != nil {
		return err
	}
	users := []MockUser{{
		ID:           DefaultAdminID,
		Name:         DefaultAdminName,
		Email:        DefaultAdminEmail,
		PasswordHash: hash,
	}}
	if err := writeJSON(s.path, users); err != nil {
		return err
	}
	s.users = users
	s.loaded = true
	return nil
}

// Authenticate ищет пользователя с точным совпадением email и пароля.
//
// Неизвестный email и неверный пароль одинаково дают ErrInvalidCredentials.
func (s *UsersStore) Authenticate(email, password string) (models.User, error) {
	if err := s.Load(); err != nil {
		return models.User{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email != email {
			continue
		}
		ok, err := pwcrypto.VerifyPassword(password, u.PasswordHash)
		if err != nil || !ok {
			return models.User{}, serr.ErrInvalidCredentials
		}
		return u.public(), nil
	}
	return models.User{}, serr.ErrInvalidCredentials
}

// Add добавляет пользователя с id = число записей + 1.
//
// Занятый email даёт ErrAlreadyExists, существующая запись не меняется.
func (s *UsersStore) Add(name, email, password string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(); err != nil {
		return models.User{}, err
	}
	for _, u := range s.users {
		if u.Email == email {
			return models.User{}, serr.ErrAlreadyExists
		}
	}

	hash, err := pwcrypto.HashPassword(password, s.params)
	if err != nil {
		return models.User{}, err
	}
	u := MockUser{
		ID:           strconv.Itoa(len(s.users) + 1),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}

	users := append(append([]MockUser(nil), s.users...), u)
	if err := writeJSON(s.path, users); err != nil {
		return models.User{}, err
	}
	s.users = users
	return u.public(), nil
}

// List возвращает копию таблицы.
func (s *UsersStore) List() ([]MockUser, error) {
	if err := s.Load(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]MockUser(nil), s.users...), nil
}
