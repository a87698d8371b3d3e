package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/alexanderramin/coursechat/internal/config"
	"github.com/alexanderramin/coursechat/internal/intelligence"
	"github.com/alexanderramin/coursechat/internal/service"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// wireLevel says how much of the App a command needs before it runs.
const (
	annotationWire = "coursechat/wire"
	wireNone       = "none"
	wireConfig     = "config"
)

// App holds the services CLI commands drive. Tests fill the fields
// directly; the binary sets LoadConfig and Wire so the stack is built only
// for commands that need it.
type App struct {
	Config    config.Config
	Chat      intelligence.ChatService
	Courses   service.CourseService
	Analytics service.AnalyticsService
	Logger    *slog.Logger

	// LoadConfig reads the config file named by --config ("" for default).
	// flags carries the parsed command line so overrides can be bound.
	LoadConfig func(path string, flags *pflag.FlagSet) (config.Config, error)
	// Wire builds the services from app.Config and returns a cleanup func.
	Wire func(ctx context.Context, app *App) (func(), error)

	IsInteractive func() bool
	// OpenURL opens a booking link; nil only prints it.
	OpenURL func(url string) error
	Now     func() time.Time

	configPath string
	cleanup    func()
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

func (a *App) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.Logger
}

func (a *App) prepare(cmd *cobra.Command) error {
	level := cmd.Annotations[annotationWire]
	if level == wireNone {
		return nil
	}
	if a.LoadConfig != nil {
		cfg, err := a.LoadConfig(a.configPath, cmd.Flags())
		if err != nil {
			return err
		}
		a.Config = cfg
	}
	if level == wireConfig || a.Wire == nil {
		return nil
	}
	cleanup, err := a.Wire(cmd.Context(), a)
	if err != nil {
		return err
	}
	a.cleanup = cleanup
	return nil
}

func (a *App) release() {
	if a.cleanup != nil {
		a.cleanup()
		a.cleanup = nil
	}
}

// NewRootCmd creates the top-level "coursechat" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "coursechat",
		Short:         "Course-finder assistant for scheduled training sessions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.prepare(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			app.release()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if app.interactive() {
				return runChat(cmd, app)
			}
			return cmd.Help()
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&app.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	pf.String("log-level", "", "override log.level (debug, info, warn, error)")
	pf.String("log-format", "", "override log.format (text, json)")
	pf.String("feed", "", "override catalog.feed_url")

	root.AddCommand(
		newChatCmd(app),
		newAskCmd(app),
		newSearchCmd(app),
		newDetailsCmd(app),
		newCoursesCmd(app),
		newAnalyticsCmd(app),
		newServeCmd(app),
		newMCPCmd(app),
		newConfigCmd(app),
	)
	return root
}

// Execute runs the root command and makes sure wiring is released even when
// a command fails.
func Execute(ctx context.Context, app *App, args []string, stdout, stderr io.Writer) error {
	root := NewRootCmd(app)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	defer app.release()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return err
	}
	return nil
}
