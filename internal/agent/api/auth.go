// В этом файле описаны методы клиента для работы
// с эндпоинтами аутентификации: регистрация, вход, обновление, выход
// и получение информации о текущем пользователе.
package api

import (
	"context"

	"github.com/IvanChernomyrdin/go-polls/internal/shared/models"
)

// RegisterRequest описывает тело запроса регистрации пользователя.
type RegisterRequest struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterResponse описывает ответ сервера при успешной регистрации.
//
// Сервер сразу открывает сессию, поэтому вместе с UserID приходят токены.
type RegisterResponse struct {
	UserID       string `json:"user_id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// LoginRequest описывает тело запроса входа пользователя.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse описывает ответ сервера при успешном входе.
//
// AccessToken используется для авторизации запросов к защищённым эндпоинтам.
// RefreshToken используется для обновления пары токенов через /auth/refresh.
type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// RefreshRequest описывает тело запроса обновления токенов и выхода.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshResponse — новая пара токенов.
type RefreshResponse = LoginResponse

// Register выполняет регистрацию пользователя на сервере.
func (c *Client) Register(ctx context.Context, name, email, password string) (RegisterResponse, error) {
	var resp RegisterResponse
	err := c.PostJSON(ctx, "/auth/register", RegisterRequest{Name: name, Email: email, Password: password}, &resp, "")
	return resp, err
}

// Login выполняет вход пользователя и получает пару токенов.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	var resp LoginResponse
	err := c.PostJSON(ctx, "/auth/login", LoginRequest{Email: email, Password: password}, &resp, "")
	return resp, err
}

// Refresh обновляет пару токенов по refresh токену.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (RefreshResponse, error) {
	var resp RefreshResponse
	err := c.PostJSON(ctx, "/auth/refresh", RefreshRequest{RefreshToken: refreshToken}, &resp, "")
	return resp, err
}

// Logout отзывает сессию refresh токена на сервере.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	return c.PostJSON(ctx, "/auth/logout", RefreshRequest{RefreshToken: refreshToken}, nil, "")
}

// Me запрашивает информацию о текущем пользователе по access токену.
func (c *Client) Me(ctx context.Context, accessToken string) (models.MeResponse, error) {
	var resp models.MeResponse
	err := c.GetJSON(ctx, "/me", &resp, accessToken)
	return resp, err
}
