package memory

import (
	"errors"
	"os"

	"github.com/IvanChernomyrdin/go-polls/internal/shared/models"
)

// SaveCurrentUser записывает пользователя сессии.
func SaveCurrentUser(path string, u models.User) error {
	return writeJSON(path, u)
}

// LoadCurrentUser читает пользователя сессии. Нет файла — nil без ошибки.
func LoadCurrentUser(path string) (*models.User, error) {
	var u models.User
	found, err := readJSON(path, &u)
	if err != nil || !found {
		return nil, err
	}
	if u.ID == "" {
		return nil, nil
	}
	return &u, nil
}

// ClearCurrentUser удаляет файл сессии. Повторный вызов безопасен.
func ClearCurrentUser(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
