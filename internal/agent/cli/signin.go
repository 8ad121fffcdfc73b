package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// ErrSignInFailed — неверный email/пароль или бэкенд недоступен (подробности в логе).
var ErrSignInFailed = errors.New("sign in failed: invalid email or password")

// NewSignInCmd создаёт CLI-команду для входа пользователя.
//
// Пример использования:
//
//	polls signin --email admin@example.com --password password123
//
// Сессия сохраняется бэкендом и поднимается при следующем запуске.
func NewSignInCmd(app *App) *cobra.Command {
	var email string
	var pw passwordFlags

	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Вход пользователя",
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := pw.resolve(cmd)
			if err != nil {
				return err
			}

			if !app.Session.SignIn(cmd.Context(), email, password) {
				return ErrSignInFailed
			}

			u := app.Session.CurrentUser()
			fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s (id=%s)\n", u.Email, u.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email for sign in")
	_ = cmd.MarkFlagRequired("email")
	pw.register(cmd)

	return cmd
}
