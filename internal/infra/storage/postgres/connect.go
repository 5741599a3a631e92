// Package postgres provides the durable archive for terminal runs.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/veriscan/veriscan/pkg/common/logger"
)

// ConnectWithRetry establishes a traced connection pool with exponential
// backoff. It retries for up to 2 minutes, which covers the database coming
// up alongside the service in compose environments.
func ConnectWithRetry(ctx context.Context, dsn string, log *logger.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing archive dsn: %w", err)
	}
	poolCfg.MinConns = 2
	poolCfg.MaxConns = 10
	poolCfg.ConnConfig.Tracer = otelpgx.NewTracer()

	var pool *pgxpool.Pool

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.MaxElapsedTime = 2 * time.Minute
	expBackoff.InitialInterval = 2 * time.Second

	operation := func() error {
		p, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return err
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			log.Warn(ctx, "archive database not ready", "error", err)
			return err
		}
		pool = p
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(expBackoff, ctx)); err != nil {
		return nil, fmt.Errorf("connecting to archive database after retries: %w", err)
	}

	return pool, nil
}
