// Package api содержит HTTP-клиент для взаимодействия с сервером опросов.
//
// Клиент инкапсулирует базовый URL сервера и настроенный http.Client,
// предоставляя методы для отправки JSON и form запросов
// с авторизацией через Bearer токен.
//
// Особенности:
//   - baseURL нормализуется (обрезаются завершающие "/").
//   - По умолчанию добавляется заголовок Accept: application/json.
//   - При ответах 204 No Content тело не читается и это считается успехом.
//   - Пустое тело ответа (EOF при декодировании) не считается ошибкой.
//   - Редиректы не выполняются: 303 на страницу входа означает ErrUnauthorized.
//   - При ошибочных ответах (не 2xx) возвращается *Error с текстом из {"error": ...}.
//
// ВНИМАНИЕ: insecure=true включает InsecureSkipVerify (TLS сертификат не проверяется).
// Это допустимо только для разработки и локального окружения.
package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	serr "github.com/IvanChernomyrdin/go-polls/internal/shared/errors"
)

const (
	contentTypeJSON = "application/json"
	contentTypeForm = "application/x-www-form-urlencoded"
)

// Error — ошибочный ответ сервера.
//
// errors.Is матчит 401/303 с serr.ErrUnauthorized, 404 с serr.ErrNotFound,
// 409 с serr.ErrAlreadyExists.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized, http.StatusSeeOther:
		return serr.ErrUnauthorized
	case http.StatusNotFound:
		return serr.ErrNotFound
	case http.StatusConflict:
		return serr.ErrAlreadyExists
	case http.StatusBadRequest:
		return serr.ErrInvalidInput
	}
	return nil
}

// Client реализует HTTP-клиент для общения с сервером опросов.
//
// Поля:
//   - baseURL: базовый адрес сервера без завершающего слэша.
//   - http: настроенный http.Client (таймаут, транспорт, TLS).
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient создаёт новый HTTP-клиент для общения с сервером.
//
// Параметры:
//   - baseURL: базовый адрес сервера (например: "http://127.0.0.1:8080").
//   - insecure: не проверять TLS сертификат (только для dev).
func NewClient(baseURL string, insecure bool) *Client {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	if insecure {
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // только для dev
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   10 * time.Second,
			Transport: tr,
			// 303 от формы обрабатываем сами
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// readAPIError читает тело ответа сервера и возвращает *Error.
func readAPIError(res *http.Response) error {
	raw, _ := io.ReadAll(res.Body)
	return newAPIError(res.StatusCode, res.Status, raw)
}

// newAPIError берёт текст из {"error": "..."}, иначе тело как есть,
// а при пустом теле — статус.
func newAPIError(status int, statusText string, raw []byte) error {
	if status == http.StatusSeeOther {
		return &Error{Status: status, Message: serr.ErrUnauthorized.Error()}
	}

	var body struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		msg = body.Error
	}
	if msg == "" {
		msg = statusText
	}
	return &Error{Status: status, Message: msg}
}

// decodeJSONOrOK декодирует JSON из r в resp.
//
// Если resp == nil — ничего не делает. Пустое тело (io.EOF) не ошибка.
func decodeJSONOrOK(r io.Reader, resp any) error {
	if resp == nil {
		return nil
	}
	err := json.NewDecoder(r).Decode(resp)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// do отправляет запрос и разбирает ответ.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, resp any, authToken string) error {
	r, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	r.Header.Set("Accept", contentTypeJSON)
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	if authToken != "" {
		r.Header.Set("Authorization", "Bearer "+authToken)
	}

	res, err := c.http.Do(r)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return readAPIError(res)
	}

	// 204/пустое тело — ок
	if res.StatusCode == http.StatusNoContent {
		return nil
	}

	return decodeJSONOrOK(res.Body, resp)
}

// PostJSON выполняет POST-запрос, сериализуя req в JSON.
//
// Если req == nil, тело не отправляется и Content-Type не ставится.
// Если resp == nil, тело ответа не декодируется.
func (c *Client) PostJSON(ctx context.Context, path string, req any, resp any, authToken string) error {
	var buf bytes.Buffer
	contentType := ""
	if req != nil {
		if err := json.NewEncoder(&buf).Encode(req); err != nil {
			return err
		}
		contentType = contentTypeJSON
	}
	return c.do(ctx, http.MethodPost, path, &buf, contentType, resp, authToken)
}

// GetJSON выполняет GET-запрос и (опционально) декодирует JSON-ответ.
func (c *Client) GetJSON(ctx context.Context, path string, resp any, authToken string) error {
	return c.do(ctx, http.MethodGet, path, nil, "", resp, authToken)
}

// PostForm отправляет application/x-www-form-urlencoded.
//
// В отличие от остальных методов, тело ответа декодируется в resp
// и при ошибочном статусе (если сервер его прислал), а ошибка возвращается вместе с ним.
func (c *Client) PostForm(ctx context.Context, path string, form url.Values, resp any, authToken string) error {
	r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	r.Header.Set("Accept", contentTypeJSON)
	r.Header.Set("Content-Type", contentTypeForm)
	if authToken != "" {
		r.Header.Set("Authorization", "Bearer "+authToken)
	}

	res, err := c.http.Do(r)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusSeeOther {
		return newAPIError(res.StatusCode, res.Status, nil)
	}

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(raw)) > 0 && resp != nil {
		if err := json.Unmarshal(raw, resp); err != nil && res.StatusCode < 300 {
			return err
		}
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return newAPIError(res.StatusCode, res.Status, raw)
	}
	return nil
}
