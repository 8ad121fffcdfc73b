// Package cli реализует командный интерфейс (CLI) клиента опросов.
//
// Пакет отвечает за:
//   - определение root-команды и набора подкоманд;
//   - разбор аргументов и флагов командной строки;
//   - выбор бэкенда сессии (mock|remote) и восстановление сессии;
//   - выполнение команд и вывод результата пользователю.
//
// Точка входа пакета — функция Execute.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/IvanChernomyrdin/go-polls/internal/agent/api"
	"github.com/IvanChernomyrdin/go-polls/internal/agent/config"
	"github.com/IvanChernomyrdin/go-polls/internal/agent/session"
	"github.com/IvanChernomyrdin/go-polls/internal/shared/logger"
)

// Переменные окружения, которые подхватываются, если флаг не задан явно.
const (
	EnvBackend = "POLLS_AUTH_BACKEND"
	EnvServer  = "POLLS_SERVER"
)

const defaultServerURL = "http://127.0.0.1:8080"

// App содержит состояние CLI-приложения, разделяемое между командами.
//
// Экземпляр App создаётся при построении root-команды, заполняется
// в PersistentPreRunE и передаётся в подкоманды.
type App struct {
	// ServerURL — базовый URL сервера (например, "http://127.0.0.1:8080").
	ServerURL string
	// Backend — mock|remote.
	Backend string
	// StateDir — каталог с credentials.json, mock-файлами и логами.
	StateDir string
	// Insecure — не проверять TLS сертификат сервера (dev).
	Insecure bool

	Log     *logger.HTTPLogger
	Client  *api.Client
	Session *session.Store
}

// NewRootCmd создаёт root-команду CLI и регистрирует подкоманды.
//
// buildVersion и buildDate используются для вывода информации о сборке (команда version).
// В PersistentPreRunE определяется каталог состояния, создаётся бэкенд
// и восстанавливается сохранённая сессия.
func NewRootCmd(buildVersion, buildDate string) *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:   "polls",
		Short: "Polls CLI — создание опросов и голосование",
		Long: `Polls CLI.

Команды:
  signup    Регистрация нового пользователя
  signin    Вход
  signout   Выход
  whoami    Текущий пользователь
  poll      Опросы: create, list, show, vote
  version   Версия и дата сборки

Примеры:

Вход под пользователем mock-бэкенда:
  polls --backend mock signin --email admin@example.com --password password123

Создание опроса (нужен remote-бэкенд):
  polls poll create --question "Favorite color?" --option Red --option Blue

Голос:
  polls poll vote <poll-id> --option <option-id>
`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return app.init(cmd)
		},
	}

	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.PersistentFlags().StringVar(&app.ServerURL, "server", defaultServerURL, "server base URL (env "+EnvServer+")")
	cmd.PersistentFlags().StringVar(&app.Backend, "backend", session.BackendRemote, "auth backend: mock|remote (env "+EnvBackend+")")
	cmd.PersistentFlags().StringVar(&app.StateDir, "state-dir", "", "client state directory (default ~/.polls)")
	cmd.PersistentFlags().BoolVar(&app.Insecure, "insecure", false, "skip TLS certificate verification (dev only)")

	cmd.AddCommand(NewSignUpCmd(app))
	cmd.AddCommand(NewSignInCmd(app))
	cmd.AddCommand(NewSignOutCmd(app))
	cmd.AddCommand(NewWhoAmICmd(app))
	cmd.AddCommand(NewPollCmd(app))
	cmd.AddCommand(NewVersionCmd(buildVersion, buildDate))

	return cmd
}

// init собирает зависимости команды: логгер, клиент, бэкенд и сессию.
func (app *App) init(cmd *cobra.Command) error {
	flags := cmd.Flags()
	if !flags.Changed("backend") {
		if v := os.Getenv(EnvBackend); v != "" {
			app.Backend = v
		}
	}
	if !flags.Changed("server") {
		if v := os.Getenv(EnvServer); v != "" {
			app.ServerURL = v
		}
	}
	if app.StateDir == "" {
		dir, err := config.DefaultStateDir()
		if err != nil {
			return err
		}
		app.StateDir = dir
	}

	app.Log = logger.New(logger.Options{Dir: filepath.Join(app.StateDir, "logs"), File: "agent.log"})
	app.Client = NewAPIClient(app.ServerURL, app.Insecure)

	backend, err := session.NewBackend(app.Backend, session.Options{
		StateDir: app.StateDir,
		Client:   app.Client,
		Argon2:   MockArgon2Params,
		Log:      app.Log,
	})
	if err != nil {
		return err
	}

	app.Session = session.NewStore(backend, app.Log)
	app.Session.Init(cmd.Context())
	return nil
}

// Execute запускает обработку CLI-команд.
//
// При ошибке выполнения команды сообщение выводится в stderr, после чего процесс
// завершается с кодом 1 (os.Exit(1)).
func Execute(buildVersion, buildDate string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd(buildVersion, buildDate).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
