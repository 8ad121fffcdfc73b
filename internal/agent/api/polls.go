// Методы клиента для опросов: создание через форму, листинг, просмотр, голос.
package api

import (
	"context"
	"net/url"
	"strconv"

	"github.com/IvanChernomyrdin/go-polls/internal/shared/models"
)

// CreatePoll отправляет форму создания опроса.
//
// Результат возвращается и при ошибке, если сервер его прислал (400/500).
func (c *Client) CreatePoll(ctx context.Context, accessToken, question string, options []string) (models.CreatePollResult, error) {
	form := url.Values{}
	form.Set("question", question)
	for _, o := range options {
		form.Add("option", o)
	}

	var res models.CreatePollResult
	err := c.PostForm(ctx, "/polls", form, &res, accessToken)
	return res, err
}

// ListPolls получает страницу опросов от новых к старым. limit <= 0 — лимит сервера.
func (c *Client) ListPolls(ctx context.Context, limit, offset int) ([]models.PollSummary, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	path := "/polls"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp models.ListPollsResponse
	if err := c.GetJSON(ctx, path, &resp, ""); err != nil {
		return nil, err
	}
	return resp.Polls, nil
}

// GetPoll получает опрос с вариантами.
func (c *Client) GetPoll(ctx context.Context, pollID string) (models.Poll, error) {
	var resp models.Poll
	err := c.GetJSON(ctx, "/polls/"+url.PathEscape(pollID), &resp, "")
	return resp, err
}

// Vote голосует за вариант опроса.
func (c *Client) Vote(ctx context.Context, accessToken, pollID, optionID string) (models.VoteResponse, error) {
	var resp models.VoteResponse
	err := c.PostJSON(ctx, "/polls/"+url.PathEscape(pollID)+"/votes", models.VoteRequest{OptionID: optionID}, &resp, accessToken)
	return resp, err
}
