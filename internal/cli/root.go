package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/itemboard/internal/config"
	"github.com/idilsaglam/itemboard/internal/itemstore"
	"github.com/idilsaglam/itemboard/internal/telemetry"
	"github.com/idilsaglam/itemboard/internal/tui"
	"github.com/idilsaglam/itemboard/internal/ui"
)

const serviceName = "items"

// version is set at build time with -ldflags "-X .../internal/cli.version=...".
var version = "dev"

// App holds flag values shared by every subcommand.
type App struct {
	Cfg     config.Config
	Theme   string
	NoColor bool
}

// runTUI is swapped in tests.
var runTUI = tui.Run

// usageError maps to exit code 2.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

// reportedError was already printed; it only carries the exit code.
type reportedError struct{ code int }

func (e reportedError) Error() string { return fmt.Sprintf("exit %d", e.code) }

// NewRootCmd builds the command tree. Config defaults come from cfg.
func NewRootCmd(cfg config.Config) *cobra.Command {
	app := &App{Cfg: cfg}

	cmd := &cobra.Command{
		Use:           "items",
		Short:         "Items: list and add items on a remote items service",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Start the interactive page
  items

  # Scriptable commands
  items ls
  items add "Buy milk"

  # Run the reference service locally
  items serve
`),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			ui.SetTheme(app.Theme)
			if app.NoColor {
				ui.SetColorForcing(false, true)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usageError{"unknown subcommand: " + args[0]}
			}
			store := app.newStore()
			return runTUI(cmd.Context(), store, store.BaseURL())
		},
	}

	cmd.PersistentFlags().StringVar(&app.Cfg.APIURL, "api-url", cfg.APIURL, "Items service base URL (env ITEMS_API_URL)")
	cmd.PersistentFlags().StringVar(&app.Theme, "theme", "classic", "Output theme (classic|neon|mono)")
	cmd.PersistentFlags().BoolVar(&app.NoColor, "no-color", false, "Disable colored output")

	cmd.AddCommand(newListCmd(app))
	cmd.AddCommand(newAddCmd(app))
	cmd.AddCommand(newServeCmd(app))

	return cmd
}

func (app *App) newStore() *itemstore.Store {
	return itemstore.New(itemstore.Config{BaseURL: app.Cfg.APIURL})
}

// Run executes the CLI and returns an exit code (0 ok, 1 error, 2 usage).
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	ui.SetOutput(stdout, stderr)

	cfg, err := config.Load()
	if err != nil {
		ui.Fail(err.Error())
		return 1
	}

	shutdown, err := telemetry.Setup(ctx, serviceName, telemetry.Settings{
		Endpoint: cfg.OTelEndpoint,
		Enabled:  cfg.OTelEnabled,
		Version:  version,
	})
	if err != nil {
		log.Printf("otel setup: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Printf("%s otel shutdown: %v", serviceName, err)
		}
	}()

	cmd := NewRootCmd(cfg)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return exitCode(cmd, cmd.ExecuteContext(ctx))
}

func exitCode(cmd *cobra.Command, err error) int {
	if err == nil {
		return 0
	}
	var rep reportedError
	if errors.As(err, &rep) {
		return rep.code
	}
	var ue usageError
	if errors.As(err, &ue) || isCobraUsage(err) {
		ui.Fail(err.Error())
		fmt.Fprintln(cmd.ErrOrStderr())
		_ = cmd.Usage()
		return 2
	}
	ui.Fail(err.Error())
	return 1
}

// cobra reports flag and arity problems as plain errors.
func isCobraUsage(err error) bool {
	msg := err.Error()
	for _, p := range []string{"unknown command", "unknown flag", "unknown shorthand flag", "accepts ", "requires at least", "invalid argument"} {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
