package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/IvanChernomyrdin/go-polls/internal/server/config"
	"github.com/IvanChernomyrdin/go-polls/internal/server/models"
	serr "github.com/IvanChernomyrdin/go-polls/internal/shared/errors"
	"github.com/IvanChernomyrdin/go-polls/internal/shared/logger"
	sharedmodels "github.com/IvanChernomyrdin/go-polls/internal/shared/models"
)

const (
	msgPollCreated = "Poll created successfully!"

	opPollInsert    = "poll insert failed"
	opOptionsInsert = "options insert failed"
)

// стадии для метрики polls_create_failed_total
const (
	stageValidation    = "validation"
	stageAuth          = "auth"
	stagePollInsert    = "poll_insert"
	stageOptionsInsert = "options_insert"
	stagePanic         = "panic"
)

// PollsService — создание опросов, листинг, просмотр и голосование.
type PollsService struct {
	polls   PollsRepo
	listing ListingInvalidator
	metrics PollMetrics
	log     *logger.HTTPLogger
	policy  *bluemonday.Policy

	maxOptions  int
	maxTextLen  int
	keepOrphans bool
	listingPath string
	listLimit   int
}

// NewPollsService собирает сервис. Пустые зависимости заменяются заглушками.
func NewPollsService(polls PollsRepo, deps Deps, cfg config.PollsConfig) *PollsService {
	s := &PollsService{
		polls:       polls,
		listing:     deps.Listing,
		metrics:     deps.Metrics,
		log:         deps.Log,
		policy:      bluemonday.StrictPolicy(),
		maxOptions:  cfg.MaxOptions,
		maxTextLen:  cfg.MaxTextLen,
		keepOrphans: cfg.KeepOrphans,
		listingPath: cfg.ListingPath,
		listLimit:   cfg.ListLimit,
	}
	if s.listing == nil {
		s.listing = nopInvalidator{}
	}
	if s.metrics == nil {
		s.metrics = nopMetrics{}
	}
	if s.log == nil {
		s.log = logger.NewNop()
	}
	if s.listingPath == "" {
		s.listingPath = "/polls"
	}
	if s.listLimit <= 0 {
		s.listLimit = 50
	}
	return s
}

// Create создаёт опрос от имени userID.
//
// Результат всегда заполнен: наружу не уходят ни паника, ни голая ошибка.
// Второе значение — классификация неудачи для выбора HTTP-статуса
// (ErrInvalidInput, ErrUnauthorized, *PersistenceError, ErrUnknown), nil при успехе.
func (s *PollsService) Create(ctx context.Context, userID, question string, options []string) (res sharedmodels.CreatePollResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("poll create panic", zap.Any("panic", r), zap.String("user_id", userID))
			s.metrics.PollCreateFailed(stagePanic)
			res = sharedmodels.CreatePollResult{Success: false, Error: serr.ErrUnknown.Error()}
			err = serr.ErrUnknown
		}
	}()

	owner, err := uuid.Parse(strings.TrimSpace(userID))
	if err != nil {
		s.metrics.PollCreateFailed(stageAuth)
		return failed(serr.ErrUserIDEmpty.Error()), serr.ErrUnauthorized
	}

	q, opts, err := s.normalize(question, options)
	if err != nil {
		s.metrics.PollCreateFailed(stageValidation)
		return failed(validationMessage(err)), err
	}

	pollID, err := s.polls.InsertPoll(ctx, models.NewPoll{Question: q, CreatedBy: owner})
	if err != nil {
		pe := &serr.PersistenceError{Op: opPollInsert, Err: err}
		s.log.Sugar().Errorw(opPollInsert, "user_id", userID, "error", err)
		s.metrics.PollCreateFailed(stagePollInsert)
		return failed(pe.Cause()), pe
	}

	rows := make([]models.NewOption, len(opts))
	for i, text := range opts {
		rows[i] = models.NewOption{PollID: pollID, Text: text, Position: i}
	}

	if err := s.polls.InsertOptions(ctx, rows); err != nil {
		pe := &serr.PersistenceError{Op: opOptionsInsert, Err: err}
		s.log.Sugar().Errorw(opOptionsInsert, "poll_id", pollID.String(), "error", err)
		s.metrics.PollCreateFailed(stageOptionsInsert)
		s.compensate(ctx, pollID)
		return failed(pe.Cause()), pe
	}

	s.invalidate(ctx)
	s.metrics.PollCreated()

	return sharedmodels.CreatePollResult{
		Success: true,
		Message: msgPollCreated,
		PollID:  pollID.String(),
	}, nil
}

// List — опросы от новых к старым. limit ограничен сверху list_limit.
func (s *PollsService) List(ctx context.Context, limit, offset int) ([]sharedmodels.PollSummary, error) {
	if limit <= 0 || limit > s.listLimit {
		limit = s.listLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.polls.List(ctx, limit, offset)
}

// Get — опрос с вариантами. Битый id даёт ErrNotFound.
func (s *PollsService) Get(ctx context.Context, pollID string) (sharedmodels.Poll, error) {
	id, err := uuid.Parse(strings.TrimSpace(pollID))
	if err != nil {
		return sharedmodels.Poll{}, serr.ErrNotFound
	}
	return s.polls.GetByID(ctx, id)
}

// Vote прибавляет голос варианту опроса и сбрасывает кэш листинга.
// Повторные голоса одного пользователя не отсекаются.
func (s *PollsService) Vote(ctx context.Context, pollID, optionID string) (sharedmodels.VoteResponse, error) {
	if strings.TrimSpace(optionID) == "" {
		return sharedmodels.VoteResponse{}, serr.ErrInvalidInput
	}
	pid, err := uuid.Parse(strings.TrimSpace(pollID))
	if err != nil {
		return sharedmodels.VoteResponse{}, serr.ErrNotFound
	}
	oid, err := uuid.Parse(strings.TrimSpace(optionID))
	if err != nil {
		return sharedmodels.VoteResponse{}, serr.ErrNotFound
	}

	votes, err := s.polls.IncrementVote(ctx, pid, oid)
	if err != nil {
		return sharedmodels.VoteResponse{}, err
	}

	s.invalidate(ctx)
	s.metrics.VoteCast()

	return sharedmodels.VoteResponse{OptionID: oid.String(), Votes: votes}, nil
}

// normalize чистит html, обрезает пробелы, выкидывает пустые варианты
// и проверяет ограничения. Порядок оставшихся вариантов сохраняется.
func (s *PollsService) normalize(question string, options []string) (string, []string, error) {
	q := s.clean(question)

	opts := make([]string, 0, len(options))
	for _, o := range options {
		if t := s.clean(o); t != "" {
			opts = append(opts, t)
		}
	}

	if q == "" || len(opts) < 2 {
		return "", nil, fmt.Errorf("%w: %w", serr.ErrInvalidInput, serr.ErrPollValidation)
	}
	if s.maxOptions > 0 && len(opts) > s.maxOptions {
		return "", nil, fmt.Errorf("%w: %w (max %d)", serr.ErrInvalidInput, serr.ErrTooManyOptions, s.maxOptions)
	}
	if s.maxTextLen > 0 {
		if utf8.RuneCountInString(q) > s.maxTextLen {
			return "", nil, fmt.Errorf("%w: %w (max %d)", serr.ErrInvalidInput, serr.ErrTextTooLong, s.maxTextLen)
		}
		for _, o := range opts {
			if utf8.RuneCountInString(o) > s.maxTextLen {
				return "", nil, fmt.Errorf("%w: %w (max %d)", serr.ErrInvalidInput, serr.ErrTextTooLong, s.maxTextLen)
			}
		}
	}
	return q, opts, nil
}

// clean убирает теги; bluemonday экранирует сущности, поэтому разэкранируем обратно,
// иначе "Tom & Jerry" сохранится как "Tom &amp; Jerry".
func (s *PollsService) clean(v string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(v)))
}

// compensate удаляет опрос, оставшийся без вариантов.
// Ошибку только логируем: клиент всё равно получает ошибку вставки вариантов.
func (s *PollsService) compensate(ctx context.Context, pollID uuid.UUID) {
	if s.keepOrphans {
		s.log.Warn("options insert failed, orphan poll kept", zap.String("poll_id", pollID.String()))
		return
	}
	if err := s.polls.DeletePoll(context.WithoutCancel(ctx), pollID); err != nil {
		s.log.Sugar().Errorw("compensating poll delete failed", "poll_id", pollID.String(), "error", err)
	}
}

func (s *PollsService) invalidate(ctx context.Context) {
	if err := s.listing.Invalidate(ctx, s.listingPath); err != nil {
		s.log.Sugar().Warnw("listing invalidate failed", "path", s.listingPath, "error", err)
	}
}

func failed(msg string) sharedmodels.CreatePollResult {
	return sharedmodels.CreatePollResult{Success: false, Error: msg}
}

// validationMessage — текст для поля error без префикса "invalid input: ".
func validationMessage(err error) string {
	for _, target := range []error{serr.ErrPollValidation, serr.ErrTooManyOptions, serr.ErrTextTooLong} {
		if errors.Is(err, target) {
			msg := err.Error()
			if i := strings.Index(msg, target.Error()); i >= 0 {
				return msg[i:]
			}
			return target.Error()
		}
	}
	return serr.ErrPollValidation.Error()
}

type nopInvalidator struct{}

func (nopInvalidator) Invalidate(context.Context, string) error { return nil }

type nopMetrics struct{}

func (nopMetrics) PollCreated()            {}
func (nopMetrics) PollCreateFailed(string) {}
func (nopMetrics) VoteCast()               {}
