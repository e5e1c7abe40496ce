// Package mpostgres wires a primary/replica Postgres pool through
// dbresolver and runs schema migrations at connect time, the same shape the
// teacher codebase's common/mpostgres uses.
package mpostgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bxcodec/dbresolver/v2"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/vertexpay/core/pkg/mlog"
)

// Connection is a hub for primary/replica Postgres connections.
type Connection struct {
	ConnectionStringPrimary string
	ConnectionStringReplica string
	MigrationsPath          string
	MaxOpenConns            int
	MaxIdleConns            int

	Logger mlog.Logger

	db        dbresolver.DB
	connected bool
}

// Connect opens the primary and replica pools, runs migrations against the
// primary, and pings to confirm reachability.
func (c *Connection) Connect(ctx context.Context) error {
	c.Logger.Info("connecting to postgres...")

	primary, err := sql.Open("pgx", c.ConnectionStringPrimary)
	if err != nil {
		return fmt.Errorf("open primary: %w", err)
	}

	replica := primary
	if c.ConnectionStringReplica != "" {
		replica, err = sql.Open("pgx", c.ConnectionStringReplica)
		if err != nil {
			return fmt.Errorf("open replica: %w", err)
		}
	}

	if c.MaxOpenConns > 0 {
		primary.SetMaxOpenConns(c.MaxOpenConns)
		replica.SetMaxOpenConns(c.MaxOpenConns)
	}

	if c.MaxIdleConns > 0 {
		primary.SetMaxIdleConns(c.MaxIdleConns)
		replica.SetMaxIdleConns(c.MaxIdleConns)
	}

	c.db = dbresolver.New(
		dbresolver.WithPrimaryDBs(primary),
		dbresolver.WithReplicaDBs(replica),
		dbresolver.WithLoadBalancer(dbresolver.RoundRobinLB),
	)

	if c.MigrationsPath != "" {
		if err := c.migrate(); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	if err := c.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}

	c.connected = true
	c.Logger.Info("connected to postgres")

	return nil
}

func (c *Connection) migrate() error {
	m, err := migrate.New("file://"+c.MigrationsPath, "pgx5://"+stripScheme(c.ConnectionStringPrimary))
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}

	return nil
}

func stripScheme(dsn string) string {
	const scheme = "postgres://"
	if len(dsn) > len(scheme) && dsn[:len(scheme)] == scheme {
		return dsn[len(scheme):]
	}

	return dsn
}

// DB lazily connects if necessary and returns the resolver-backed pool.
func (c *Connection) DB(ctx context.Context) (dbresolver.DB, error) {
	if !c.connected {
		if err := c.Connect(ctx); err != nil {
			return nil, err
		}
	}

	return c.db, nil
}
