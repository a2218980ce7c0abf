// Package testutil provides testing utilities for the cbsistema backend.
// It includes testcontainers for PostgreSQL, per-test schemas, mock
// factories, and common test fixtures.
package testutil

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/cbsistema/cbsistema-backend/pkg/config"
	"github.com/cbsistema/cbsistema-backend/pkg/database"
	"github.com/cbsistema/cbsistema-backend/pkg/logger"
)

// PostgresImageEnv overrides the image used for integration databases.
const PostgresImageEnv = "CBSISTEMA_TEST_POSTGRES_IMAGE"

const defaultPostgresImage = "postgres:16-alpine"

// PostgresContainer is the throwaway PostgreSQL server the integration
// tests run against. Config describes it the same way the API's own
// database section does, with URL pointing at the mapped port.
type PostgresContainer struct {
	container *postgres.PostgresContainer
	Config    config.DatabaseConfig
}

// TestDatabaseConfig is the database section used for integration runs.
func TestDatabaseConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		User:         "cbsistema",
		Password:     "cbsistema",
		Database:     "cbsistema_test",
		SSLMode:      "disable",
		MaxOpenConns: 4,
		MaxIdleConns: 2,
	}
}

func postgresImage() string {
	if image := os.Getenv(PostgresImageEnv); image != "" {
		return image
	}
	return defaultPostgresImage
}

// StartPostgres boots a container for cfg and fills in cfg.URL.
func StartPostgres(ctx context.Context, cfg config.DatabaseConfig) (*PostgresContainer, error) {
	c, err := postgres.RunContainer(ctx,
		testcontainers.WithImage(postgresImage()),
		postgres.WithDatabase(cfg.Database),
		postgres.WithUsername(cfg.User),
		postgres.WithPassword(cfg.Password),
		testcontainers.WithWaitStrategy(
			// postgres logs readiness once for the init server and once for the real one
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres (%s): %w", postgresImage(), err)
	}

	cfg.URL, err = c.ConnectionString(ctx, "sslmode="+cfg.SSLMode)
	if err != nil {
		c.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	return &PostgresContainer{container: c, Config: cfg}, nil
}

// Open connects through the same path the API uses at startup.
func (c *PostgresContainer) Open(log *logger.Logger) (*database.DB, error) {
	db, err := database.New(&c.Config, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}
	return db, nil
}

// Terminate stops and removes the container.
func (c *PostgresContainer) Terminate(ctx context.Context) error {
	return c.container.Terminate(ctx)
}
