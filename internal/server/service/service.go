// Package service содержит бизнес-логику сервера опросов.
// Это прослойка между HTTP-обработчиками (api) и хранилищем данных (repository).
package service

//go:generate mockgen -destination=mocks/mocks.go -package=mocks . UsersRepo,SessionsRepo,PollsRepo,ListingInvalidator,PollMetrics

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/IvanChernomyrdin/go-polls/internal/server/config"
	"github.com/IvanChernomyrdin/go-polls/internal/server/models"
	"github.com/IvanChernomyrdin/go-polls/internal/shared/logger"
	sharedmodels "github.com/IvanChernomyrdin/go-polls/internal/shared/models"
)

// Repositories — набор интерфейсов, которые сервисный слой ожидает от слоя repository.
type Repositories struct {
	Users    UsersRepo
	Sessions SessionsRepo
	Polls    PollsRepo
}

// Deps — внешние зависимости сервисов помимо БД.
type Deps struct {
	Listing ListingInvalidator
	Metrics PollMetrics
	Log     *logger.HTTPLogger
}

// Services — агрегатор всех сервисов приложения.
type Services struct {
	Auth  *AuthService
	Polls *PollsService
}

// NewServices собирает все сервисы приложения.
func NewServices(repos Repositories, deps Deps, cfg *config.Config) *Services {
	return &Services{
		Auth:  NewAuthService(repos.Users, repos.Sessions, cfg),
		Polls: NewPollsService(repos.Polls, deps, cfg.Polls),
	}
}

// UsersRepo — репозиторий пользователей (нужен для auth/register/login/me).
type UsersRepo interface {
	Create(ctx context.Context, email, name, passwordHash string) (uuid.UUID, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (models.User, error)
}

// SessionsRepo — refresh-сессии.
type SessionsRepo interface {
	Create(ctx context.Context, userID uuid.UUID, refreshHash []byte, expiresAt time.Time) (uuid.UUID, error)
	GetByRefreshHash(ctx context.Context, refreshHash []byte) (models.Session, error)
	RevokeAndReplace(ctx context.Context, oldID, newID uuid.UUID) error
	RevokeByHash(ctx context.Context, refreshHash []byte) error
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) error
}

// PollsRepo — опросы и варианты.
type PollsRepo interface {
	InsertPoll(ctx context.Context, p models.NewPoll) (uuid.UUID, error)
	InsertOptions(ctx context.Context, opts []models.NewOption) error
	DeletePoll(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (sharedmodels.Poll, error)
	List(ctx context.Context, limit, offset int) ([]sharedmodels.PollSummary, error)
	IncrementVote(ctx context.Context, pollID, optionID uuid.UUID) (int, error)
}

// ListingInvalidator — сброс закэшированного листинга по пути.
type ListingInvalidator interface {
	Invalidate(ctx context.Context, path string) error
}

// PollMetrics — счётчики опросов.
type PollMetrics interface {
	PollCreated()
	PollCreateFailed(stage string)
	VoteCast()
}
