// Package repository содержит реализации слоя доступа к данным (Repository layer).
//
// Репозитории инкапсулируют работу с БД и не содержат бизнес-логики.
// Все ошибки приводятся к доменным ошибкам из internal/shared/errors.
package repository

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgconn"

	serr "github.com/IvanChernomyrdin/go-polls/internal/shared/errors"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// pgCode возвращает SQLSTATE, если err пришла от postgres.
func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// wrapInternal оставляет текст исходной ошибки: его увидит клиент в поле error.
func wrapInternal(err error) error {
	return &serr.StoreError{Kind: serr.ErrInternal, Err: err}
}

func wrapNotFound(err error) error {
	return &serr.StoreError{Kind: serr.ErrNotFound, Err: err}
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
