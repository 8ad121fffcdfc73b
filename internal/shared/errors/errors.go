// Package errors содержит общие доменные ошибки приложения
// и утилиты для error wrapping.
//
// Эти ошибки используются в service и repository слоях
// и маппятся на HTTP-статусы в api слое.
package errors

import "errors"

var (
	// Входные данные невалидны (пустые поля, неправильный формат и т.п.)
	ErrInvalidInput = errors.New("invalid input")
	// Неверные учётные данные
	ErrInvalidCredentials = errors.New("invalid credentials")
	// Получена непредвиденная ошибка
	ErrInternal = errors.New("internal error")
	// Полученные JSON данные с ошибками
	ErrBadJSON = errors.New("bad json")
	// Форма не разобрана (битое тело запроса)
	ErrBadForm = errors.New("bad form")
	// Неавторизован, требуется вход
	ErrUnauthorized = errors.New("unauthorized")
	// Ресурс уже существует (например email уже занят)
	ErrAlreadyExists = errors.New("already exists")
	// Ресурс не найден
	ErrNotFound = errors.New("not found")
	// конфликт версий(к примеру при обновлении в бд)
	ErrConflict = errors.New("conflict")
	// паника или что-то совсем неожиданное внутри обработчика
	ErrUnknown = errors.New("unexpected error")
)

// только для опросов
var (
	ErrPollValidation = errors.New("Question and at least two options are required.")
	ErrTooManyOptions = errors.New("too many options")
	ErrTextTooLong    = errors.New("text too long")
	ErrUserIDEmpty    = errors.New("user id cannot be empty")
)

// PersistenceError — ошибка записи в хранилище на конкретном шаге.
//
// Op описывает шаг ("poll insert failed", "options insert failed"),
// Err — исходная ошибка хранилища, её текст отдаётся клиенту как есть.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Cause возвращает текст исходной ошибки хранилища.
func (e *PersistenceError) Cause() string {
	if e.Err == nil {
		return e.Op
	}
	return e.Err.Error()
}

// StoreError — ошибка хранилища с доменной категорией.
//
// Error() отдаёт исходный текст драйвера, а errors.Is матчит и по Kind
// (ErrInternal, ErrNotFound...), и по исходной ошибке.
type StoreError struct {
	Kind error
	Err  error
}

func (e *StoreError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return e.Err.Error()
}

func (e *StoreError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}
