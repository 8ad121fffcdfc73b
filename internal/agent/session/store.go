package session

import (
	"context"
	"errors"
	"sync"

	serr "github.com/IvanChernomyrdin/go-polls/internal/shared/errors"
	"github.com/IvanChernomyrdin/go-polls/internal/shared/logger"
	"github.com/IvanChernomyrdin/go-polls/internal/shared/models"
)

// Store — держатель текущего пользователя.
//
// Операции над сессией выполняются по одной (opMu), состояние читается под mu,
// поэтому IsLoading видно и во время обращения к бэкенду.
type Store struct {
	backend Backend
	log     *logger.HTTPLogger

	opMu sync.Mutex

	mu      sync.Mutex
	user    *models.User
	loading bool
}

// NewStore создаёт Store. До Init он в состоянии загрузки.
func NewStore(backend Backend, log *logger.HTTPLogger) *Store {
	if log == nil {
		log = logger.NewNop()
	}
	return &Store{backend: backend, log: log, loading: true}
}

// Init поднимает сохранённую сессию. Ошибка восстановления даёт пустую сессию.
func (s *Store) Init(ctx context.Context) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.setLoading(true)
	u, err := s.backend.Restore(ctx)
	if err != nil {
		s.log.Sugar().Errorw("session restore failed", "error", err)
		u = nil
	}
	s.finish(u, true)
}

// SignIn входит по email и паролю. false — сессия не изменилась.
func (s *Store) SignIn(ctx context.Context, email, password string) bool {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.setLoading(true)
	u, err := s.backend.SignIn(ctx, email, password)
	if err != nil {
		s.logFailure("sign in", email, err)
		s.finish(nil, false)
		return false
	}
	s.finish(&u, true)
	return true
}

// SignUp регистрирует пользователя и входит под ним.
// Занятый email даёт false, сессия не меняется.
func (s *Store) SignUp(ctx context.Context, name, email, password string) bool {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.setLoading(true)
	u, err := s.backend.SignUp(ctx, name, email, password)
	if err != nil {
		s.logFailure("sign up", email, err)
		s.finish(nil, false)
		return false
	}
	s.finish(&u, true)
	return true
}

// SignOut завершает сессию. Повторный вызов безопасен.
// Сессия в памяти очищается всегда, ошибка бэкенда логируется и возвращается.
func (s *Store) SignOut(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.setLoading(true)
	err := s.backend.SignOut(ctx)
	if err != nil {
		s.log.Sugar().Errorw("sign out failed", "error", err)
	}
	s.finish(nil, true)
	return err
}

// CurrentUser — копия текущего пользователя или nil.
func (s *Store) CurrentUser() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// IsLoading — идёт восстановление или операция над сессией.
func (s *Store) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// AccessToken — bearer текущей сессии для API (пустой у mock).
func (s *Store) AccessToken() string {
	if s.CurrentUser() == nil {
		return ""
	}
	return s.backend.AccessToken()
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

// finish снимает флаг загрузки; replace=true заменяет пользователя на u.
func (s *Store) finish(u *models.User, replace bool) {
	s.mu.Lock()
	if replace {
		s.user = u
	}
	s.loading = false
	s.mu.Unlock()
}

// logFailure: ожидаемые отказы пишем в warn, остальное в error.
func (s *Store) logFailure(op, email string, err error) {
	if errors.Is(err, serr.ErrInvalidCredentials) || errors.Is(err, serr.ErrAlreadyExists) {
		s.log.Sugar().Warnw(op+" rejected", "email", email, "error", err)
		return
	}
	s.log.Sugar().Errorw(op+" failed", "email", email, "error", err)
}
