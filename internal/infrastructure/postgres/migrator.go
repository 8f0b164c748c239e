package postgres

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5" // driver pgx5://
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// ─────────────────────────────────────────────────────────────────────────────
// Migraciones embebidas (golang-migrate, fuente iofs)
// ─────────────────────────────────────────────────────────────────────────────

// MigrationURL adapta un DSN postgres:// al esquema del driver pgx/v5 de golang-migrate.
func MigrationURL(dsn string) string {
	for _, prefix := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(dsn, prefix) {
			return "pgx5://" + strings.TrimPrefix(dsn, prefix)
		}
	}
	return dsn
}

func newMigrator(dbURL string) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return nil, fmt.Errorf("abrir migraciones embebidas: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, MigrationURL(dbURL))
	if err != nil {
		return nil, fmt.Errorf("crear instancia de migrate: %w", err)
	}
	return m, nil
}

// RunMigrations aplica todas las migraciones pendientes. Sin cambios pendientes devuelve nil.
func RunMigrations(dbURL string) error {
	m, err := newMigrator(dbURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("aplicar migraciones: %w", err)
	}
	return nil
}

// RollbackMigration revierte steps migraciones (steps > 0).
func RollbackMigration(dbURL string, steps int) error {
	if steps <= 0 {
		return fmt.Errorf("steps debe ser mayor que 0, recibido %d", steps)
	}
	m, err := newMigrator(dbURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Steps(-steps); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return errors.New("no hay migraciones para revertir")
		}
		return fmt.Errorf("revertir %d migración(es): %w", steps, err)
	}
	return nil
}

// MigrationStatus devuelve la versión aplicada y si quedó en estado dirty.
// Sin migraciones aplicadas devuelve versión 0.
func MigrationStatus(dbURL string) (version uint, dirty bool, err error) {
	m, err := newMigrator(dbURL)
	if err != nil {
		return 0, false, err
	}
	defer m.Close()

	version, dirty, err = m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("leer versión de migración: %w", err)
	}
	return version, dirty, nil
}

// ForceMigrationVersion fija la versión sin ejecutar migraciones, para salir de un estado dirty.
func ForceMigrationVersion(dbURL string, version int) error {
	m, err := newMigrator(dbURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Force(version); err != nil {
		return fmt.Errorf("forzar versión %d: %w", version, err)
	}
	return nil
}
