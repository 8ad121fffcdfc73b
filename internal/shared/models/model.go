package models

import (
	"math"
	"time"
)

// User — публичная модель пользователя, используемая в HTTP API и в клиентской сессии.
//
// Пароль сюда не попадает никогда: после входа клиент видит только id, email и имя.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Option — вариант ответа в опросе.
//
// Поля:
//   - ID: идентификатор варианта
//   - PollID: опрос-владелец
//   - Text: текст варианта
//   - Votes: счётчик голосов (>= 0)
//   - Position: порядок отображения (с нуля)
type Option struct {
	ID       string `json:"id"`
	PollID   string `json:"poll_id"`
	Text     string `json:"text"`
	Votes    int    `json:"votes"`
	Position int    `json:"position"`
}

// Poll — опрос вместе с вариантами ответа.
//
// Используется в:
//
//	GET /polls/{id}
type Poll struct {
	ID         string    `json:"id"`
	Question   string    `json:"question"`
	CreatedBy  string    `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
	Options    []Option  `json:"options"`
	TotalVotes int       `json:"total_votes"`
}

// Percentage возвращает долю голосов варианта в процентах, округлённую до целого.
// Если голосов ещё нет — 0.
func (p Poll) Percentage(votes int) int {
	if p.TotalVotes == 0 {
		return 0
	}
	return int(math.Round(float64(votes) / float64(p.TotalVotes) * 100))
}

// PollSummary — элемент списка опросов (без вариантов).
type PollSummary struct {
	ID         string    `json:"id"`
	Question   string    `json:"question"`
	CreatedBy  string    `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
	VotesCount int       `json:"votes_count"`
}

// ListPollsResponse — ответ эндпоинта списка опросов.
//
// Используется в:
//
//	GET /polls
type ListPollsResponse struct {
	Polls []PollSummary `json:"polls"`
}

// CreatePollResult — единый формат результата создания опроса.
//
// Обработчик никогда не возвращает необработанную ошибку: любой исход
// сводится к {success, message?, error?}.
type CreatePollResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	PollID  string `json:"poll_id,omitempty"`
}

// VoteRequest — тело запроса голосования.
//
// Используется в:
//
//	POST /polls/{id}/votes
type VoteRequest struct {
	OptionID string `json:"option_id"`
}

// VoteResponse — обновлённый счётчик варианта после голоса.
type VoteResponse struct {
	OptionID string `json:"option_id"`
	Votes    int    `json:"votes"`
}

// MeResponse — информация о текущем пользователе по access токену.
type MeResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
}
