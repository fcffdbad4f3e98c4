package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/statalih/statalih/app/cfg"
	"github.com/statalih/statalih/app/database"
	"github.com/statalih/statalih/app/feed"
	"github.com/statalih/statalih/app/media"
	"github.com/statalih/statalih/app/tasks"
)

// App wires the command line to the rest of the application.
type App struct {
	ctx    context.Context
	out    io.Writer
	errOut io.Writer
	loader *cfg.Loader
	cfg    *cfg.Cfg
}

func New(ctx context.Context, out, errOut io.Writer) *App {
	a := &App{
		ctx:    ctx,
		out:    out,
		errOut: errOut,
		loader: cfg.NewLoader(),
	}

	p := a.loader.Parser
	p.Options &^= flags.PrintErrors
	p.CommandHandler = a.handle

	p.AddCommand("feeds", "Manage feeds",
		"Add feeds and inspect stored feeds and their items.",
		&feedsCommand{
			Add:   feedsAddCommand{app: a},
			List:  feedsListCommand{app: a},
			Items: feedsItemsCommand{app: a},
		})
	p.AddCommand("places", "Manage places",
		"Places group feeds geographically.",
		&placesCommand{
			Add:  placesAddCommand{app: a},
			List: placesListCommand{app: a},
		})
	p.AddCommand("db", "Manage the database schema",
		"Apply or roll back the embedded schema migrations.",
		&dbCommand{
			Migrate:  dbMigrateCommand{app: a},
			Rollback: dbRollbackCommand{app: a},
			Refresh:  dbRefreshCommand{app: a},
			Reset:    dbResetCommand{app: a},
		})
	p.AddCommand("serve", "Start the HTTP API",
		"Serve the read API and accept new feeds over HTTP.",
		&serveCommand{app: a})

	return a
}

// Run parses args, executes the selected command and returns the exit code.
func (a *App) Run(args []string) int {
	_, err := a.loader.Parser.ParseArgs(args)
	if err == nil {
		return ExitOK
	}

	var flagsErr *flags.Error
	if errors.As(err, &flagsErr) {
		if flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(a.out, flagsErr.Message)
			return ExitOK
		}
		fmt.Fprintln(a.errOut, flagsErr.Message)
		return ExitInvalidOption
	}

	var exitErr *exitError
	if !errors.As(err, &exitErr) || exitErr.err != nil {
		fmt.Fprintf(a.errOut, "error: %v\n", err)
	}

	return ExitCode(err)
}

func (a *App) handle(cmd flags.Commander, args []string) error {
	c, err := a.loader.Load()
	if err != nil {
		return err
	}
	a.cfg = c

	level := slog.LevelInfo
	if c.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: level})))

	return cmd.Execute(args)
}

// openDB opens the configured database and brings the schema up to date.
func (a *App) openDB() (*database.DB, error) {
	db, err := database.Open(a.cfg.DBPath)
	if err != nil {
		return nil, err
	}

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	if dirty {
		slog.Warn("Database schema is dirty", "version", version)
	}
	slog.Debug("Database ready", "path", a.cfg.DBPath, "version", version)

	return db, nil
}

func (a *App) newPipeline(store *database.Store) (*tasks.Pipeline, error) {
	c := a.cfg

	if err := os.MkdirAll(c.ImagesDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create images directory: %w", err)
	}

	client := &http.Client{}
	pipeline := &tasks.Pipeline{
		Store:   store,
		Fetcher: feed.NewFetcher(client, c.UserAgent, c.Timeout, feed.WithMaxBytes(c.MaxFeedSize)),
		ImageFetcher: feed.NewFetcher(client, c.UserAgent, c.Timeout,
			feed.WithMaxBytes(c.MaxImageSize), feed.WithAccept("image/*")),
		Media:        media.NewStore(c.ImagesDir),
		Parser:       feed.NewParser(),
		Slugify:      feed.Slugify,
		ImageWorkers: c.ImageWorkers,
	}

	if c.DiscoverImages {
		pageFetcher := feed.NewFetcher(client, c.UserAgent, c.Timeout,
			append(feed.PageFetcherOptions(), feed.WithMaxBytes(c.MaxFeedSize))...)
		pipeline.Locator = feed.NewImageLocator(pageFetcher)
	}

	return pipeline, nil
}
