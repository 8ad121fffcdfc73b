package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewSignOutCmd создаёт команду выхода. Без сессии тоже успешна.
func NewSignOutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Выход (удалить локальную сессию)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Session.SignOut(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		},
	}
}
