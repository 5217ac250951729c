package db

import (
	stdErrors "errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Migration applies every pending up migration found in migratePath.
func Migration(dbStr, migratePath string) error {
	if dbStr == "" {
		return fmt.Errorf("migration: empty database connection string")
	}
	if migratePath == "" {
		return fmt.Errorf("migration: empty migrations path")
	}

	m, err := migrate.New("file://"+migratePath, dbStr)
	if err != nil {
		return fmt.Errorf("migration: init: %w", err)
	}
	defer func() {
		_, _ = m.Close()
	}()

	if err := m.Up(); err != nil && !stdErrors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration: up: %w", err)
	}
	return nil
}
