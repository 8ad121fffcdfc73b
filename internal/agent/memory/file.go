// Package memory — локальные JSON-файлы mock-бэкенда аутентификации:
// таблица пользователей и текущий пользователь.
package memory

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// Имена файлов в каталоге состояния клиента.
const (
	MockUsersFile   = "polling_app_mock_users.json"
	CurrentUserFile = "polling_app_current_user.json"
)

// writeJSON сериализует v с отступами и пишет в path.
//
// Создаёт директорию (0700), файл пишется с правами 0600.
func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}

// readJSON читает path в v. Отсутствие файла: found=false без ошибки.
func readJSON(path string, v any) (found bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return true, err
	}
	return true, nil
}
