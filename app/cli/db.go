package cli

import (
	"fmt"
	"log/slog"

	"github.com/statalih/statalih/app/database"
)

type dbCommand struct {
	Migrate  dbMigrateCommand  `command:"migrate" description:"Apply all pending migrations"`
	Rollback dbRollbackCommand `command:"rollback" description:"Roll back the latest migrations"`
	Refresh  dbRefreshCommand  `command:"refresh" description:"Roll back migrations and apply them again"`
	Reset    dbResetCommand    `command:"reset" description:"Roll back all migrations"`
}

// withMigrator opens the database without migrating it and reports the
// schema version once fn is done.
func (a *App) withMigrator(fn func(m *database.Migrator) error) error {
	db, err := database.Open(a.cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	m, err := database.NewMigrator(db)
	if err != nil {
		return err
	}

	if err := fn(m); err != nil {
		return err
	}

	version, dirty, err := m.Version()
	if err != nil {
		return err
	}

	slog.Debug("Migrations finished", "version", version, "dirty", dirty)
	fmt.Fprintf(a.out, "Schema version: %d\n", version)

	return nil
}

type dbMigrateCommand struct {
	app *App
}

func (c *dbMigrateCommand) Execute(args []string) error {
	return c.app.withMigrator(func(m *database.Migrator) error {
		return m.Up()
	})
}

type dbRollbackCommand struct {
	app *App

	Steps int `long:"steps" default:"1" description:"Number of migrations to roll back"`
}

func (c *dbRollbackCommand) Execute(args []string) error {
	return c.app.withMigrator(func(m *database.Migrator) error {
		return m.Rollback(c.Steps)
	})
}

type dbRefreshCommand struct {
	app *App

	Steps int `long:"steps" default:"0" description:"Number of migrations to roll back first, 0 for all"`
}

func (c *dbRefreshCommand) Execute(args []string) error {
	return c.app.withMigrator(func(m *database.Migrator) error {
		return m.Refresh(c.Steps)
	})
}

type dbResetCommand struct {
	app *App
}

func (c *dbResetCommand) Execute(args []string) error {
	return c.app.withMigrator(func(m *database.Migrator) error {
		return m.Reset()
	})
}
