// Package models — серверные модели, которые живут только между repository и service.
package models

import (
	"time"

	"github.com/google/uuid"
)

// User — строка таблицы users.
type User struct {
	ID           uuid.UUID
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}

// Session — refresh-сессия пользователя.
type Session struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	ExpiresAt  time.Time
	RevokedAt  *time.Time
	ReplacedBy *uuid.UUID
}

// Active — сессия не отозвана и не истекла на момент now.
func (s Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && s.ExpiresAt.After(now)
}
