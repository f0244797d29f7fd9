package pgutil

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/chainsafe/bridge-rewarder/pkg/config"
	"github.com/chainsafe/bridge-rewarder/pkg/retry"
)

const (
	maxOpenConns    = 10
	connMaxLifetime = 30 * time.Minute
)

// connectPolicy retries the initial ping while postgres comes up
var connectPolicy = retry.Policy{
	MaxRetries:      5,
	InitialInterval: 200 * time.Millisecond,
	MaxInterval:     3 * time.Second,
}

// ConnectDB creates a connection to the rewarder database
func ConnectDB(cfg *config.DatabaseConfig) (*bun.DB, error) {
	return connect(cfg, connectPolicy)
}

func connect(cfg *config.DatabaseConfig, policy retry.Policy) (*bun.DB, error) {
	ctx := context.Background()

	// Functional options escape special characters in credentials
	connector := pgdriver.NewConnector(
		pgdriver.WithNetwork("tcp"),
		pgdriver.WithAddr(fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)),
		pgdriver.WithUser(cfg.User),
		pgdriver.WithPassword(cfg.Password),
		pgdriver.WithDatabase(cfg.Database),
		pgdriver.WithInsecure(cfg.SSLMode == "disable"),
	)

	sqldb := sql.OpenDB(connector)
	sqldb.SetMaxOpenConns(maxOpenConns)
	sqldb.SetConnMaxLifetime(connMaxLifetime)

	db := bun.NewDB(sqldb, pgdialect.New())

	err := retry.Do(ctx, nil, "ping database", policy, func(ctx context.Context) error {
		return db.PingContext(ctx)
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database %s: %w", cfg.Database, err)
	}

	log.Printf("Successfully connected to database: %s", cfg.Database)
	return db, nil
}
