package database

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/nadirsultanli/order-management-system-sub008/internal/database/migration"
	"go.uber.org/zap"
)

var ErrNoDatabase = errors.New("DATABASE_URL is not set")

// RunMigrations applies the audit log schema from migrationsDir.
func RunMigrations(dbURL, migrationsDir string, verbose bool, logger *zap.Logger) error {
	if dbURL == "" {
		return ErrNoDatabase
	}

	sourceURL, err := SourceURL(migrationsDir)
	if err != nil {
		return err
	}

	return migration.Migrate(dbURL, sourceURL, verbose, logger)
}

// SourceURL turns a directory into a golang-migrate file source URL.
func SourceURL(dir string) (string, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}
	return "file://" + filepath.ToSlash(absPath), nil
}
