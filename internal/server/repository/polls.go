package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/IvanChernomyrdin/go-polls/internal/server/models"
	serr "github.com/IvanChernomyrdin/go-polls/internal/shared/errors"
	sharedmodels "github.com/IvanChernomyrdin/go-polls/internal/shared/models"
)

// PollsRepository — таблицы polls и poll_options.
//
// Опрос и его варианты пишутся двумя отдельными запросами.
// Сшивание шагов и откат лежат на сервисе.
type PollsRepository struct {
	db      *sql.DB
	timeout time.Duration
}

// NewPollsRepository создаёт репозиторий. timeout <= 0 значит без своего таймаута.
func NewPollsRepository(db *sql.DB, timeout time.Duration) *PollsRepository {
	return &PollsRepository{db: db, timeout: timeout}
}

func (r *PollsRepository) ctx(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}

// InsertPoll вставляет строку опроса и возвращает её id.
func (r *PollsRepository) InsertPoll(ctx context.Context, p models.NewPoll) (uuid.UUID, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	var id uuid.UUID
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO polls (question, created_by)
		 VALUES ($1,$2)
		 RETURNING id`,
		p.Question, p.CreatedBy,
	).Scan(&id)
	if err != nil {
		if pgCode(err) == pgForeignKeyViolation {
			return uuid.Nil, wrapNotFound(err)
		}
		return uuid.Nil, wrapInternal(err)
	}
	return id, nil
}

// InsertOptions вставляет все варианты одним INSERT ... VALUES (...), (...).
func (r *PollsRepository) InsertOptions(ctx context.Context, opts []models.NewOption) error {
	if len(opts) == 0 {
		return nil
	}
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	var (
		sb   strings.Builder
		args = make([]any, 0, len(opts)*3)
	)
	sb.WriteString(`INSERT INTO poll_options (poll_id, text, position) VALUES `)
	for i, o := range opts {
		if i > 0 {
			sb.WriteString(",")
		}
		n := i * 3
		fmt.Fprintf(&sb, "($%d,$%d,$%d)", n+1, n+2, n+3)
		args = append(args, o.PollID, o.Text, o.Position)
	}

	if _, err := r.db.ExecContext(ctx, sb.String(), args...); err != nil {
		if pgCode(err) == pgForeignKeyViolation {
			return wrapNotFound(err)
		}
		return wrapInternal(err)
	}
	return nil
}

// DeletePoll удаляет опрос (варианты уходят каскадом).
// Отсутствие строки ошибкой не считается.
func (r *PollsRepository) DeletePoll(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, `DELETE FROM polls WHERE id=$1`, id); err != nil {
		return wrapInternal(err)
	}
	return nil
}

// GetByID возвращает опрос с вариантами в порядке position.
func (r *PollsRepository) GetByID(ctx context.Context, id uuid.UUID) (sharedmodels.Poll, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	var (
		p         sharedmodels.Poll
		pollID    uuid.UUID
		createdBy uuid.UUID
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, question, created_by, created_at FROM polls WHERE id=$1`,
		id,
	).Scan(&pollID, &p.Question, &createdBy, &p.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return sharedmodels.Poll{}, serr.ErrNotFound
		}
		return sharedmodels.Poll{}, wrapInternal(err)
	}
	p.ID = pollID.String()
	p.CreatedBy = createdBy.String()

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, text, votes, position
		   FROM poll_options
		  WHERE poll_id=$1
		  ORDER BY position`,
		id,
	)
	if err != nil {
		return sharedmodels.Poll{}, wrapInternal(err)
	}
	defer rows.Close()

	p.Options = make([]sharedmodels.Option, 0)
	for rows.Next() {
		var (
			o   sharedmodels.Option
			oid uuid.UUID
		)
		if err := rows.Scan(&oid, &o.Text, &o.Votes, &o.Position); err != nil {
			return sharedmodels.Poll{}, wrapInternal(err)
		}
		o.ID = oid.String()
		o.PollID = p.ID
		p.TotalVotes += o.Votes
		p.Options = append(p.Options, o)
	}
	if err := rows.Err(); err != nil {
		return sharedmodels.Poll{}, wrapInternal(err)
	}

	return p, nil
}

// List возвращает опросы от новых к старым с суммой голосов.
func (r *PollsRepository) List(ctx context.Context, limit, offset int) ([]sharedmodels.PollSummary, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx,
		`SELECT p.id, p.question, p.created_by, p.created_at, COALESCE(SUM(o.votes), 0)
		   FROM polls p
		   LEFT JOIN poll_options o ON o.poll_id = p.id
		  GROUP BY p.id
		  ORDER BY p.created_at DESC
		  LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, wrapInternal(err)
	}
	defer rows.Close()

	out := make([]sharedmodels.PollSummary, 0)
	for rows.Next() {
		var (
			s         sharedmodels.PollSummary
			id        uuid.UUID
			createdBy uuid.UUID
		)
		if err := rows.Scan(&id, &s.Question, &createdBy, &s.CreatedAt, &s.VotesCount); err != nil {
			return nil, wrapInternal(err)
		}
		s.ID = id.String()
		s.CreatedBy = createdBy.String()
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapInternal(err)
	}
	return out, nil
}

// IncrementVote атомарно прибавляет голос варианту, если он принадлежит опросу.
// Иначе ErrNotFound.
func (r *PollsRepository) IncrementVote(ctx context.Context, pollID, optionID uuid.UUID) (int, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	var votes int
	err := r.db.QueryRowContext(ctx,
		`UPDATE poll_options
		    SET votes = votes + 1
		  WHERE id = $1
		    AND poll_id = $2
		RETURNING votes`,
		optionID, pollID,
	).Scan(&votes)
	if err != nil {
		if isNoRows(err) {
			return 0, serr.ErrNotFound
		}
		return 0, wrapInternal(err)
	}
	return votes, nil
}
