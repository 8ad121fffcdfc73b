package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// ErrSignUpFailed — email занят, данные невалидны или бэкенд недоступен.
var ErrSignUpFailed = errors.New("sign up failed: email may already be in use")

// NewSignUpCmd создаёт CLI-команду регистрации. После регистрации пользователь
// сразу считается вошедшим.
//
// Пример использования:
//
//	polls signup --name Alice --email alice@example.com --password StrongPass123
func NewSignUpCmd(app *App) *cobra.Command {
	var name, email string
	var pw passwordFlags

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Регистрация нового пользователя",
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := pw.resolve(cmd)
			if err != nil {
				return err
			}

			if !app.Session.SignUp(cmd.Context(), name, email, password) {
				return ErrSignUpFailed
			}

			u := app.Session.CurrentUser()
			fmt.Fprintf(cmd.OutOrStdout(), "signed up as %s (id=%s)\n", u.Email, u.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "email for registration")
	_ = cmd.MarkFlagRequired("email")
	pw.register(cmd)

	return cmd
}
