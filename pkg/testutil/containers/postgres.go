//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"f2f-cri/internal/platform/database"
)

// PostgresContainer is a Postgres with the goose migrations applied.
type PostgresContainer struct {
	container *postgres.PostgresContainer
	DSN       string
	DB        *sql.DB
}

func startPostgres() (*PostgresContainer, error) {
	ctx := context.Background()
	c, err := postgres.Run(ctx, "postgres:18-alpine",
		postgres.WithDatabase("f2f_test"),
		postgres.WithUsername("f2f"),
		postgres.WithPassword("f2f"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}

	dsn, err := c.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = c.Terminate(ctx)
		return nil, fmt.Errorf("postgres dsn: %w", err)
	}
	db, err := sql.Open("pgx", dsn)
	if err == nil {
		err = database.Migrate(ctx, db)
	}
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		_ = c.Terminate(ctx)
		return nil, fmt.Errorf("postgres migrate: %w", err)
	}
	return &PostgresContainer{container: c, DSN: dsn, DB: db}, nil
}

// TruncateAll empties the sessions table between tests.
func (p *PostgresContainer) TruncateAll(ctx context.Context) error {
	_, err := p.DB.ExecContext(ctx, "TRUNCATE TABLE sessions")
	return err
}
