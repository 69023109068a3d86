// Package database はデータベース接続とマイグレーション管理を提供する。
package database

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// NewMigrator はブログスキーマ（users, sessions, posts, comments）用のmigrateインスタンスを生成する。
func NewMigrator(databaseURL string) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}

	return m, nil
}

// RunMigrations は未適用のマイグレーションをすべて適用する。
// すでに最新の場合はエラーなしで返る。
func RunMigrations(databaseURL string) error {
	return withMigrator(databaseURL, func(m *migrate.Migrate) error {
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		return logSchemaVersion(m)
	})
}

// RollbackMigrations は直近に適用したマイグレーションをstepsだけ戻す。
// 適用済みの数がstepsより少ない場合は戻せる分だけ戻し、エラーなしで返る。
func RollbackMigrations(databaseURL string, steps int) error {
	if steps <= 0 {
		return fmt.Errorf("rollback steps must be positive: %d", steps)
	}
	return withMigrator(databaseURL, func(m *migrate.Migrate) error {
		err := m.Steps(-steps)
		var short migrate.ErrShortLimit
		switch {
		case err == nil, errors.As(err, &short):
		case errors.Is(err, migrate.ErrNoChange), errors.Is(err, migrate.ErrNilVersion), errors.Is(err, os.ErrNotExist):
		default:
			return fmt.Errorf("failed to roll back %d migrations: %w", steps, err)
		}
		return logSchemaVersion(m)
	})
}

// SchemaVersion は現在のスキーマバージョンを返す。
// 未適用の場合はversion=0, applied=falseを返す。
func SchemaVersion(databaseURL string) (version uint, dirty bool, applied bool, err error) {
	err = withMigrator(databaseURL, func(m *migrate.Migrate) error {
		v, d, verr := m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			return nil
		}
		if verr != nil {
			return fmt.Errorf("failed to read schema version: %w", verr)
		}
		version, dirty, applied = v, d, true
		return nil
	})
	return version, dirty, applied, err
}

func withMigrator(databaseURL string, fn func(m *migrate.Migrate) error) error {
	m, err := NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer m.Close()

	return fn(m)
}

func logSchemaVersion(m *migrate.Migrate) error {
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		slog.Info("schema has no applied migrations")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	slog.Info("schema version", slog.Uint64("version", uint64(v)), slog.Bool("dirty", dirty))
	return nil
}
