package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/alexanderramin/coursechat/internal/analytics"
	"github.com/alexanderramin/coursechat/internal/cache"
	"github.com/alexanderramin/coursechat/internal/catalog"
	"github.com/alexanderramin/coursechat/internal/cli"
	"github.com/alexanderramin/coursechat/internal/config"
	"github.com/alexanderramin/coursechat/internal/db"
	"github.com/alexanderramin/coursechat/internal/intelligence"
	"github.com/alexanderramin/coursechat/internal/knowledge"
	"github.com/alexanderramin/coursechat/internal/llm"
	"github.com/alexanderramin/coursechat/internal/logging"
	"github.com/alexanderramin/coursechat/internal/search"
	"github.com/alexanderramin/coursechat/internal/service"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		LoadConfig: func(path string, flags *pflag.FlagSet) (config.Config, error) {
			v := config.New()
			if err := config.BindFlags(v, flags); err != nil {
				return config.Config{}, err
			}
			return config.Load(v, path)
		},
		Wire: wire,
		IsInteractive: func() bool {
			fd := os.Stdin.Fd()
			return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
		},
		OpenURL: openBrowser,
	}
	if err := cli.Execute(ctx, app, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// wire builds every service from app.Config. The returned func releases
// the cache and the analytics database.
func wire(ctx context.Context, app *cli.App) (func(), error) {
	cfg := app.Config
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil && app.Logger != nil {
				app.Logger.Warn("cleanup failed", "error", err)
			}
		}
	}

	logger, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return nil, err
	}
	app.Logger = logger

	store, err := openCatalog(ctx, cfg.Catalog, logger, &closers)
	if err != nil {
		cleanup()
		return nil, err
	}

	kb := knowledge.Default()
	if cfg.Chat.KnowledgeFile != "" {
		if kb, err = knowledge.LoadFile(cfg.Chat.KnowledgeFile); err != nil {
			cleanup()
			return nil, fmt.Errorf("loading knowledge base: %w", err)
		}
	}
	regions := intelligence.DefaultRegionTable()
	if cfg.Chat.RegionsFile != "" {
		if regions, err = intelligence.LoadRegionTable(cfg.Chat.RegionsFile); err != nil {
			cleanup()
			return nil, fmt.Errorf("loading regions: %w", err)
		}
	}

	// Interfaces stay nil when analytics is off so tracking is skipped
	// rather than called on a nil tracker.
	var (
		tracker  *analytics.Tracker
		sessions intelligence.SessionTracker
		recorder intelligence.SearchRecorder
	)
	if cfg.Analytics.Enabled {
		conn, err := db.OpenDB(cfg.Analytics.DBPath)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("opening analytics database: %w", err)
		}
		closers = append(closers, conn.Close)
		tracker = analytics.NewTracker(db.NewSQLiteUnitOfWork(conn), conn, logger)
		sessions, recorder = tracker, tracker
	}

	var observer llm.Observer = llm.NoopObserver{}
	if cfg.LLM.LogCalls {
		observer = llm.NewLogObserver(logger)
	}
	client := llm.NewClient(cfg.LLM, observer, logger)

	engine := search.NewEngine(search.Options{OnlineFallback: cfg.Catalog.OnlineFallback})
	tools := intelligence.NewToolExecutor(store, engine, kb, recorder, logger)
	app.Chat = intelligence.NewChatService(client, tools, store, sessions, intelligence.ChatConfig{
		CompanyName:       cfg.Chat.CompanyName,
		HistoryWindow:     cfg.Chat.HistoryWindow,
		MaxToolIterations: cfg.LLM.MaxToolIterations,
		Regions:           regions,
	}, logger)

	useCases := service.NewLogUseCaseObserver(logger)
	app.Courses = service.NewCourseService(store, engine, kb, regions, useCases)
	app.Analytics = service.NewAnalyticsService(tracker, useCases)
	return cleanup, nil
}

// openCatalog loads the feed once, through the badger cache when a cache
// directory is configured. An unreachable feed leaves the catalog empty.
func openCatalog(ctx context.Context, cfg config.CatalogConfig, logger *slog.Logger, closers *[]func() error) (*catalog.Store, error) {
	src := catalog.NewSource(cfg.FeedURL, time.Duration(cfg.TimeoutMs)*time.Millisecond)
	if cfg.CacheDir != "" {
		c, err := cache.NewBadgerCache(cfg.CacheDir)
		if err != nil {
			return nil, fmt.Errorf("opening feed cache: %w", err)
		}
		*closers = append(*closers, c.Close)
		src = catalog.NewCachedSource(src, c,
			time.Duration(cfg.FreshTTLSeconds)*time.Second,
			time.Duration(cfg.StaleTTLSeconds)*time.Second,
			logger)
	}
	store := catalog.NewStore(src, logger)
	if n := store.Refresh(ctx); n == 0 {
		logger.Warn("catalog is empty", "feed", src.Name())
	}
	return store, nil
}

var errNoOpener = errors.New("no browser opener for this platform")

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "linux", "freebsd", "openbsd", "netbsd":
		cmd = exec.Command("xdg-open", url)
	default:
		return errNoOpener
	}
	return cmd.Start()
}
