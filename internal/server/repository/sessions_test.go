package repository_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/IvanChernomyrdin/go-polls/internal/server/repository"
	serr "github.com/IvanChernomyrdin/go-polls/internal/shared/errors"
)

// Успех
func TestSessionsRepository_Create_OK(t *testing.T) {
	db, mock := newMock(t)
	repo := repository.NewSessionsRepository(db)

	userID := uuid.New()
	sessID := uuid.New()
	hash := []byte("hash")
	exp := time.Now().Add(time.Hour)

	mock.ExpectQuery(`INSERT INTO sessions`).
		WithArgs(userID, hash, exp).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(sessID.String()))

	id, err := repo.Create(context.Background(), userID, hash, exp)
	require.NoError(t, err)
	require.Equal(t, sessID, id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionsRepository_Create_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"conflict", &pgconn.PgError{Code: "23505"}, serr.ErrConflict},
		{"no user", &pgconn.PgError{Code: "23503"}, serr.ErrNotFound},
		{"internal", sql.ErrConnDone, serr.ErrInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMock(t)
			repo := repository.NewSessionsRepository(db)

			mock.ExpectQuery(`INSERT INTO sessions`).WillReturnError(tt.err)

			_, err := repo.Create(context.Background(), uuid.New(), []byte("h"), time.Now())
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSessionsRepository_GetByRefreshHash_OK(t *testing.T) {
	db, mock := newMock(t)
	repo := repository.NewSessionsRepository(db)

	sessID, userID, newID := uuid.New(), uuid.New(), uuid.New()
	exp := time.Now().Add(time.Hour)
	revoked := time.Now()

	mock.ExpectQuery(`FROM sessions`).
		WithArgs([]byte("hash")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "expires_at", "revoked_at", "replaced_by"}).
			AddRow(sessID.String(), userID.String(), exp, revoked, newID.String()))

	s, err := repo.GetByRefreshHash(context.Background(), []byte("hash"))
	require.NoError(t, err)
	require.Equal(t, sessID, s.ID)
	require.Equal(t, userID, s.UserID)
	require.NotNil(t, s.RevokedAt)
	require.NotNil(t, s.ReplacedBy)
	require.Equal(t, newID, *s.ReplacedBy)
	require.False(t, s.Active(time.Now()))
}

func TestSessionsRepository_GetByRefreshHash_ActiveSession(t *testing.T) {
	db, mock := newMock(t)
	repo := repository.NewSessionsRepository(db)

	mock.ExpectQuery(`FROM sessions`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "expires_at", "revoked_at", "replaced_by"}).
			AddRow(uuid.NewString(), uuid.NewString(), time.Now().Add(time.Hour), nil, nil))

	s, err := repo.GetByRefreshHash(context.Background(), []byte("hash"))
	require.NoError(t, err)
	require.Nil(t, s.RevokedAt)
	require.Nil(t, s.ReplacedBy)
	require.True(t, s.Active(time.Now()))
}

func TestSessionsRepository_GetByRefreshHash_NotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := repository.NewSessionsRepository(db)

	mock.ExpectQuery(`FROM sessions`).WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByRefreshHash(context.Background(), []byte("hash"))
	require.ErrorIs(t, err, serr.ErrUnauthorized)
}

func TestSessionsRepository_Revoke(t *testing.T) {
	db, mock := newMock(t)
	repo := repository.NewSessionsRepository(db)

	oldID, newID, userID := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectExec(`UPDATE sessions`).WithArgs(oldID, newID).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE sessions`).WithArgs([]byte("hash")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`UPDATE sessions`).WithArgs(userID).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`UPDATE sessions`).WillReturnError(sql.ErrConnDone)

	ctx := context.Background()
	require.NoError(t, repo.RevokeAndReplace(ctx, oldID, newID))
	require.NoError(t, repo.RevokeByHash(ctx, []byte("hash")))
	require.NoError(t, repo.RevokeAllForUser(ctx, userID))
	require.ErrorIs(t, repo.RevokeAllForUser(ctx, userID), serr.ErrInternal)
	require.NoError(t, mock.ExpectationsWereMet())
}
