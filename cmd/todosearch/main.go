package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/juju/errors"
	"github.com/juju/loggo"

	"todosearch/internal/config"
	"todosearch/internal/dashboard"
	"todosearch/internal/domain"
	"todosearch/internal/eventbus"
	"todosearch/internal/logic"
	"todosearch/internal/resource"
	"todosearch/internal/rx"
	"todosearch/internal/search"
	"todosearch/internal/ui"
)

var logger = loggo.GetLogger("todosearch")

type options struct {
	configPath  string
	offline     bool
	logPath     string
	debug       bool
	writeConfig bool
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("todosearch", flag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", "", "config file (default: user config dir)")
	fs.BoolVar(&opts.offline, "offline", false, "search the built-in sample todos instead of the API")
	fs.StringVar(&opts.logPath, "log", "", "log file (overrides config)")
	fs.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	fs.BoolVar(&opts.writeConfig, "write-config", false, "write the effective config and exit")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	return opts, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "todosearch: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	// Create event bus
	bus := eventbus.New()
	defer bus.Close()

	// Load configuration
	var configSvc config.ConfigService
	if opts.configPath != "" {
		configSvc = config.NewConfigServiceWithPath(opts.configPath, bus)
	} else {
		configSvc = config.NewConfigServiceWithBus(bus)
	}
	cfg, err := configSvc.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v; using defaults\n", err)
		cfg = config.DefaultConfig()
	}
	if opts.writeConfig {
		if err := configSvc.Save(cfg); err != nil {
			return errors.Trace(err)
		}
		fmt.Println(configSvc.Path())
		return nil
	}

	// Set up logging; the terminal belongs to the UI.
	closeLog := setupLogging(logFilePath(cfg, opts), loggingSpec(cfg, opts))
	defer closeLog()

	// Create context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	scope := rx.NewScope()
	scope.BindContext(ctx)
	defer scope.Destroy()

	api, err := newBackend(cfg, opts.offline)
	if err != nil {
		return errors.Trace(err)
	}

	queries := rx.NewSubject[string]()
	pipeline, err := search.New(search.Config{
		Input:    queries,
		Lookup:   api.TodosByTitle,
		Debounce: cfg.Debounce(),
		Bus:      bus,
	})
	if err != nil {
		return errors.Trace(err)
	}
	pipeline.BindTo(scope)

	dash := dashboard.NewService(api, dashboard.StaticSettings(domain.Settings{
		ShowCompleted: cfg.UI.ShowCompleted,
		MaxResults:    cfg.UI.MaxResults,
		Offline:       opts.offline,
	}), cfg.API.UserID, bus)

	// Create UI model and Bubble Tea program
	model := ui.NewModel(cfg, queries, scope).WithDashboard(dash.Refresh)
	if c, ok := api.(cachedBackend); ok {
		model.WithCachePurge(c.PurgeCache)
	}
	p := tea.NewProgram(model, tea.WithAltScreen())

	// Set up forwarding to UI
	fwd := ui.NewForwarder(scope, p.Send, 256)
	ui.ForwardSearch(fwd, pipeline.Results(), pipeline.Loading())
	ui.ForwardDashboards(fwd, dash.Updates())
	ui.ForwardEvents(fwd, bus,
		eventbus.EventSearchStarted,
		eventbus.EventSearchCompleted,
		eventbus.EventSearchCleared,
		eventbus.EventLookupFailed,
		eventbus.EventError,
	)

	// A signal destroys the scope; make sure the program follows.
	go func() {
		<-scope.Done()
		p.Quit()
	}()

	logger.Infof("starting (offline=%v, base_url=%s)", opts.offline, cfg.API.BaseURL)
	if _, err := p.Run(); err != nil {
		return errors.Annotate(err, "running program")
	}
	return nil
}

// backend is the API surface the search and the dashboard need.
type backend interface {
	dashboard.Source
	TodosByTitle(ctx context.Context, title string) ([]domain.Todo, error)
}

// cachedBackend is a backend that memoizes search results.
type cachedBackend interface {
	PurgeCache()
}

func newBackend(cfg *config.Config, offline bool) (backend, error) {
	if offline {
		return logic.NewOfflineAPI(), nil
	}
	client, err := resource.New(resource.OptionsFromConfig(cfg))
	if err != nil {
		return nil, errors.Annotate(err, "creating api client")
	}
	return client, nil
}

func logFilePath(cfg *config.Config, opts options) string {
	if opts.logPath != "" {
		return opts.logPath
	}
	return cfg.Log.File
}

func loggingSpec(cfg *config.Config, opts options) string {
	if opts.debug {
		return "<root>=DEBUG"
	}
	if cfg.Log.Level == "" {
		return "<root>=INFO"
	}
	return cfg.Log.Level
}

// setupLogging sends all log output to path. When the file cannot be
// opened, logging is disabled rather than written over the UI.
func setupLogging(path, spec string) func() {
	if err := loggo.ConfigureLoggers(spec); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level %q: %v\n", spec, err)
	}

	if path == "" {
		_, _ = loggo.RemoveWriter("default")
		return func() {}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not open log file: %v\n", err)
		_, _ = loggo.RemoveWriter("default")
		return func() {}
	}
	if _, err := loggo.ReplaceDefaultWriter(loggo.NewSimpleWriter(f, loggo.DefaultFormatter)); err != nil {
		fmt.Fprintf(os.Stderr, "Could not install log writer: %v\n", err)
	}
	return func() { f.Close() }
}
