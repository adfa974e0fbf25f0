package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tada/internal/api"
	"github.com/Makepad-fr/tada/internal/config"
	"github.com/Makepad-fr/tada/internal/todos"
	"github.com/Makepad-fr/tada/internal/tui"
)

type App struct {
	ConfigPath string
	APIURL     string
	OwnerID    int
	LogFile    string
	Verbose    bool

	env map[string]string
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(config.Environ())
}

func newRootCmd(env map[string]string) *cobra.Command {
	app := &App{env: env}

	cmd := &cobra.Command{
		Use:           "tada",
		Short:         "A todo list client (TUI + scriptable commands)",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  tada

  # Scriptable commands
  tada ls --filter active
  tada add "Buy milk"
  tada done 2

  # Local backend to point the client at
  tada serve --db tada.sqlite3
`),
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usageErr("unknown command %q for %q", args[0], cmd.CommandPath())
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			return runTUI(cmd, app)
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if !cmd.HasParent() {
			// The TUI owns the terminal; it sets up its own log sink.
			return nil
		}
		level := slog.LevelWarn
		if cmd.Name() == "serve" {
			level = slog.LevelInfo
		}
		if app.Verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		return nil
	}

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return usageErr("%v", err)
	})

	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", "", "Path to a config file (JSON, comments allowed)")
	cmd.PersistentFlags().StringVar(&app.APIURL, "api-url", "", "Todo API base URL (overrides TADA_API_URL and config)")
	cmd.PersistentFlags().IntVar(&app.OwnerID, "owner", 0, "Owner (user) id whose todos are shown (overrides TADA_OWNER_ID and config)")
	cmd.PersistentFlags().StringVar(&app.LogFile, "log-file", env["TADA_LOG"], "Write TUI logs to this file")
	cmd.PersistentFlags().BoolVarP(&app.Verbose, "verbose", "v", false, "Debug logging")

	cmd.AddCommand(newListCmd(app))
	cmd.AddCommand(newAddCmd(app))
	cmd.AddCommand(newDoneCmd(app))
	cmd.AddCommand(newEditCmd(app))
	cmd.AddCommand(newRemoveCmd(app))
	cmd.AddCommand(newClearCmd(app))
	cmd.AddCommand(newToggleAllCmd(app))
	cmd.AddCommand(newAuthCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newServeCmd(app))

	return cmd
}

// Run executes cmd under ctx, reports a failure on stderr and returns the
// process exit code (0 ok, 1 error, 2 usage).
func Run(ctx context.Context, cmd *cobra.Command) int {
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	say(cmd.ErrOrStderr(), toneFail, err.Error())
	return ExitCode(err)
}

// settings resolves configuration and credentials. The owner id falls back
// to the token's user_id claim.
func (app *App) settings() (config.Config, *config.TokenInfo, error) {
	cfg, err := config.Load(config.LoadInput{
		ConfigPath: app.ConfigPath,
		APIURL:     app.APIURL,
		OwnerID:    app.OwnerID,
		Env:        app.env,
	})
	if err != nil {
		return config.Config{}, nil, usageErr("%w", err)
	}
	ti, err := config.GetToken(app.env)
	if err != nil {
		return config.Config{}, nil, err
	}
	cfg.ResolveOwner(ti)
	return cfg, ti, nil
}

// controller builds a todo controller, refusing to do so without a usable
// owner id.
func (app *App) controller(ctx context.Context, errorDelay time.Duration) (*todos.Controller, error) {
	cfg, ti, err := app.settings()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, usageErr("configuration: %w", err)
	}
	token := ""
	if ti != nil {
		token = ti.Token
	}
	if errorDelay < 0 {
		errorDelay = cfg.ErrorDelay.Std()
	}
	client := api.NewHTTPClient(cfg.APIURL, token, 0)
	slog.Debug("session", "api_url", cfg.APIURL, "owner", cfg.OwnerID, "global_config", cfg.Sources.Global, "config", cfg.Sources.Explicit)
	return todos.New(client, todos.Options{
		OwnerID:        cfg.OwnerID,
		ErrorDelay:     errorDelay,
		RequestTimeout: cfg.RequestTimeout.Std(),
		Context:        ctx,
	}), nil
}

func runTUI(cmd *cobra.Command, app *App) error {
	closeLog, err := app.tuiLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	c, err := app.controller(cmd.Context(), -1)
	if err != nil {
		say(cmd.ErrOrStderr(), toneWarn, "the todo list needs a valid configuration before it can start")
		return err
	}
	return tui.Run(c)
}

// tuiLogger points slog at --log-file, or discards logs when none is given.
func (app *App) tuiLogger() (func(), error) {
	if app.LogFile == "" {
		slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
		return func() {}, nil
	}
	f, err := tea.LogToFile(app.LogFile, "tada")
	if err != nil {
		return nil, fmt.Errorf("log file: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})))
	return func() { _ = f.Close() }, nil
}
