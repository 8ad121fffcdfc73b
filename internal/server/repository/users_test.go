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

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// Успех
func TestUsersRepository_Create_OK(t *testing.T) {
	db, mock := newMock(t)
	repo := repository.NewUsersRepository(db)

	id := uuid.New()
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("test@mail.com", "Tester", "hash").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id.String()))

	got, err := repo.Create(context.Background(), "test@mail.com", "Tester", "hash")
	require.NoError(t, err)
	require.Equal(t, id, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

// Такой пользователь уже есть
func TestUsersRepository_Create_AlreadyExists(t *testing.T) {
	db, mock := newMock(t)
	repo := repository.NewUsersRepository(db)

	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Create(context.Background(), "test@mail.com", "", "hash")
	require.ErrorIs(t, err, serr.ErrAlreadyExists)
}

// Ошибка сервера
func TestUsersRepository_Create_InternalError(t *testing.T) {
	db, mock := newMock(t)
	repo := repository.NewUsersRepository(db)

	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(sql.ErrConnDone)

	_, err := repo.Create(context.Background(), "test@mail.com", "", "hash")
	require.ErrorIs(t, err, serr.ErrInternal)
}

// поиск по email
func TestUsersRepository_GetByEmail_OK(t *testing.T) {
	db, mock := newMock(t)
	repo := repository.NewUsersRepository(db)

	id := uuid.New()
	now := time.Now()
	mock.ExpectQuery(`SELECT id, email, name, password_hash, created_at FROM users WHERE email`).
		WithArgs("test@mail.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "password_hash", "created_at"}).
			AddRow(id.String(), "test@mail.com", "Tester", "hash", now))

	u, err := repo.GetByEmail(context.Background(), "test@mail.com")
	require.NoError(t, err)
	require.Equal(t, id, u.ID)
	require.Equal(t, "Tester", u.Name)
	require.Equal(t, "hash", u.PasswordHash)
}

func TestUsersRepository_GetByEmail_NotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := repository.NewUsersRepository(db)

	mock.ExpectQuery(`FROM users WHERE email`).WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "nobody@mail.com")
	require.ErrorIs(t, err, serr.ErrNotFound)
}

func TestUsersRepository_GetByID(t *testing.T) {
	db, mock := newMock(t)
	repo := repository.NewUsersRepository(db)

	id := uuid.New()
	mock.ExpectQuery(`FROM users WHERE id`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "password_hash", "created_at"}).
			AddRow(id.String(), "a@b.c", "A", "h", time.Now()))
	mock.ExpectQuery(`FROM users WHERE id`).WillReturnError(sql.ErrConnDone)

	u, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, "a@b.c", u.Email)

	_, err = repo.GetByID(context.Background(), id)
	require.ErrorIs(t, err, serr.ErrInternal)
}
