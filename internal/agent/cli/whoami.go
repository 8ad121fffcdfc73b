package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewWhoAmICmd печатает текущего пользователя сессии.
func NewWhoAmICmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Показать текущего пользователя",
		Run: func(cmd *cobra.Command, args []string) {
			u := app.Session.CurrentUser()
			if u == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "not signed in")
				return
			}
			fmt.Fprintf(cmd.OutOrStdout(), "id=%s\nemail=%s\nname=%s\n", u.ID, u.Email, u.Name)
		},
	}
}
