//go:build integration || e2e

// Package testutil starts the containers the integration and e2e suites run against.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/emp-registry/apiserver/config"
	"github.com/emp-registry/apiserver/internal/db"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	postgresImage    = "postgres:16-alpine"
	postgresDatabase = "employees_test"
	postgresUser     = "employees"
	postgresPassword = "employees"
)

// PostgresContainer is a migrated Postgres instance.
type PostgresContainer struct {
	Container *postgres.PostgresContainer
	Config    config.DatabaseConfig
	DB        *sql.DB
}

// StartPostgres runs a Postgres container and applies every migration.
func StartPostgres(ctx context.Context) (*PostgresContainer, error) {
	container, err := postgres.Run(ctx,
		postgresImage,
		postgres.WithDatabase(postgresDatabase),
		postgres.WithUsername(postgresUser),
		postgres.WithPassword(postgresPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgres container: %w", err)
	}

	pc := &PostgresContainer{Container: container}
	if err := pc.init(ctx); err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}
	return pc, nil
}

func (pc *PostgresContainer) init(ctx context.Context) error {
	host, err := pc.Container.Host(ctx)
	if err != nil {
		return fmt.Errorf("container host: %w", err)
	}
	port, err := pc.Container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return fmt.Errorf("container port: %w", err)
	}

	pc.Config = config.DatabaseConfig{
		Host:     host,
		Port:     port.Int(),
		User:     postgresUser,
		Password: postgresPassword,
		DBName:   postgresDatabase,
	}

	migrator, err := db.NewMigrator(db.PostgresURL(pc.Config))
	if err != nil {
		return err
	}
	defer func() {
		_ = migrator.Close()
	}()
	if err := migrator.Up(); err != nil {
		return err
	}

	pc.DB, err = db.Open(ctx, pc.Config)
	return err
}

// NewPostgres starts a migrated container that is terminated when t finishes.
func NewPostgres(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()
	pc, err := StartPostgres(ctx)
	if err != nil {
		t.Fatalf("failed to start postgres: %v", err)
	}
	t.Cleanup(func() {
		_ = pc.Close(context.Background())
	})
	return pc
}

// Truncate removes every employee row.
func (pc *PostgresContainer) Truncate(ctx context.Context) error {
	_, err := pc.DB.ExecContext(ctx, `TRUNCATE employees`)
	return err
}

// Close closes the connection pool and terminates the container.
func (pc *PostgresContainer) Close(ctx context.Context) error {
	if pc.DB != nil {
		_ = pc.DB.Close()
	}
	return pc.Container.Terminate(ctx)
}
