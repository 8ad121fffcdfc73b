package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	serr "github.com/IvanChernomyrdin/go-polls/internal/shared/errors"
)

// ErrSignInRequired — команда требует сессии с access токеном.
var ErrSignInRequired = errors.New("sign in required (remote backend): polls signin --email ...")

// NewPollCmd создаёт группу команд для работы с опросами.
func NewPollCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "poll",
		Short: "Опросы: создание, список, просмотр, голосование",
	}

	cmd.AddCommand(NewPollCreateCmd(app))
	cmd.AddCommand(NewPollListCmd(app))
	cmd.AddCommand(NewPollShowCmd(app))
	cmd.AddCommand(NewPollVoteCmd(app))

	return cmd
}

// NewPollCreateCmd создаёт опрос от имени текущего пользователя.
//
// Пример использования:
//
//	polls poll create --question "Favorite color?" --option Red --option Blue
func NewPollCreateCmd(app *App) *cobra.Command {
	var question string
	var options []string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Создать опрос",
		RunE: func(cmd *cobra.Command, args []string) error {
			token := app.Session.AccessToken()
			if token == "" {
				return ErrSignInRequired
			}

			res, err := app.Client.CreatePoll(cmd.Context(), token, question, options)
			if errors.Is(err, serr.ErrUnauthorized) {
				return ErrSignInRequired
			}
			if !res.Success {
				if res.Error != "" {
					return errors.New(res.Error)
				}
				if err == nil {
					err = errors.New("poll was not created")
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s\nid=%s\n", res.Message, res.PollID)
			return nil
		},
	}

	cmd.Flags().StringVar(&question, "question", "", "poll question")
	cmd.Flags().StringArrayVar(&options, "option", nil, "answer option (repeat for each option)")

	return cmd
}

// NewPollListCmd печатает страницу опросов, новые сверху.
func NewPollListCmd(app *App) *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Список опросов",
		RunE: func(cmd *cobra.Command, args []string) error {
			polls, err := app.Client.ListPolls(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}
			if len(polls) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no polls yet")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tQUESTION\tVOTES\tCREATED")
			for _, p := range polls {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", p.ID, p.Question, p.VotesCount, p.CreatedAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "page offset")

	return cmd
}

// NewPollShowCmd печатает опрос с вариантами и долей голосов.
func NewPollShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <poll-id>",
		Short: "Показать опрос",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.Client.GetPoll(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", p.Question)
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, o := range p.Options {
				fmt.Fprintf(w, "  %s\t%s\t%d\t%d%%\n", o.ID, o.Text, o.Votes, p.Percentage(o.Votes))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "total votes: %d\n", p.TotalVotes)
			return nil
		},
	}
}

// NewPollVoteCmd отдаёт голос за вариант опроса.
//
// Пример использования:
//
//	polls poll vote <poll-id> --option <option-id>
func NewPollVoteCmd(app *App) *cobra.Command {
	var optionID string

	cmd := &cobra.Command{
		Use:   "vote <poll-id>",
		Short: "Проголосовать",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token := app.Session.AccessToken()
			if token == "" {
				return ErrSignInRequired
			}

			res, err := app.Client.Vote(cmd.Context(), token, args[0], optionID)
			if errors.Is(err, serr.ErrUnauthorized) {
				return ErrSignInRequired
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "voted: option %s now has %d votes\n", res.OptionID, res.Votes)
			return nil
		},
	}

	cmd.Flags().StringVar(&optionID, "option", "", "option id")
	_ = cmd.MarkFlagRequired("option")

	return cmd
}
