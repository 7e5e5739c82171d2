package database

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	dbdriver "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	src "github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

type fakeMigrator struct{ upErr, downErr error }

func (f fakeMigrator) Up() error   { return f.upErr }
func (f fakeMigrator) Down() error { return f.downErr }

func restore() {
	pgxpoolNew = pgxpool.New
	sqlOpenDB = sql.Open
	postgresWithInstanceFn = postgres.WithInstance
	iofsNewFn = iofs.New
	migrateNewWithInstance = func(sourceName string, sourceDriver src.Driver, databaseName string, databaseDriver dbdriver.Driver) (migrateInstance, error) {
		m, err := migrate.NewWithInstance(sourceName, sourceDriver, databaseName, databaseDriver)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
}

// stubMigrationDeps 讓 withMigrator 一路走到 migrator 本身
func stubMigrationDeps(m migrateInstance, newErr error) {
	sqlOpenDB = func(string, string) (*sql.DB, error) { return sql.Open("pgx", "") }
	postgresWithInstanceFn = func(*sql.DB, *postgres.Config) (dbdriver.Driver, error) { return nil, nil }
	iofsNewFn = func(fs.FS, string) (src.Driver, error) { return nil, nil }
	migrateNewWithInstance = func(string, src.Driver, string, dbdriver.Driver) (migrateInstance, error) {
		return m, newErr
	}
}

func TestNewPgxPool(t *testing.T) {
	t.Cleanup(restore)
	pgxpoolNew = func(ctx context.Context, url string) (*pgxpool.Pool, error) { return nil, errors.New("bad") }
	_, err := NewPgxPool(context.Background(), "url")
	require.Error(t, err)

	var gotURL string
	pgxpoolNew = func(ctx context.Context, url string) (*pgxpool.Pool, error) {
		gotURL = url
		return &pgxpool.Pool{}, nil
	}
	db, err := NewPgxPool(context.Background(), "postgres://quill")
	require.NoError(t, err)
	require.NotNil(t, db)
	require.Equal(t, "postgres://quill", gotURL)
}

func TestMigrationSetupFailures(t *testing.T) {
	for name, run := range map[string]func(string) error{"up": RunMigrations, "down": RollbackAll} {
		t.Run(name, func(t *testing.T) {
			t.Cleanup(restore)

			sqlOpenDB = func(string, string) (*sql.DB, error) { return nil, errors.New("open") }
			require.EqualError(t, run("url"), "open")

			stubMigrationDeps(fakeMigrator{}, nil)
			postgresWithInstanceFn = func(*sql.DB, *postgres.Config) (dbdriver.Driver, error) { return nil, errors.New("drv") }
			require.EqualError(t, run("url"), "drv")

			stubMigrationDeps(fakeMigrator{}, nil)
			iofsNewFn = func(fs.FS, string) (src.Driver, error) { return nil, errors.New("src") }
			require.EqualError(t, run("url"), "src")

			stubMigrationDeps(nil, errors.New("mig"))
			require.EqualError(t, run("url"), "mig")
		})
	}
}

func TestRunMigrations(t *testing.T) {
	t.Cleanup(restore)

	stubMigrationDeps(fakeMigrator{upErr: errors.New("u")}, nil)
	require.Error(t, RunMigrations("url"))

	stubMigrationDeps(fakeMigrator{upErr: migrate.ErrNoChange}, nil)
	require.NoError(t, RunMigrations("url"))

	stubMigrationDeps(fakeMigrator{downErr: errors.New("down is not called")}, nil)
	require.NoError(t, RunMigrations("url"))
}

func TestRollbackAll(t *testing.T) {
	t.Cleanup(restore)

	stubMigrationDeps(fakeMigrator{downErr: errors.New("d")}, nil)
	require.Error(t, RollbackAll("url"))

	stubMigrationDeps(fakeMigrator{downErr: migrate.ErrNoChange}, nil)
	require.NoError(t, RollbackAll("url"))

	stubMigrationDeps(fakeMigrator{}, nil)
	require.NoError(t, RollbackAll("url"))
}

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	require.Contains(t, names, "000001_create_users.up.sql")
	require.Contains(t, names, "000001_create_users.down.sql")
	require.Contains(t, names, "000002_create_posts.up.sql")

	users, err := fs.ReadFile(migrationsFS, "migrations/000001_create_users.up.sql")
	require.NoError(t, err)
	require.Contains(t, string(users), "isadmin            BOOLEAN NOT NULL DEFAULT FALSE")
	require.Contains(t, string(users), "id                 UUID PRIMARY KEY")
}
