package db

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

type NewDBPoolParams struct {
	DBHost         string
	DBPort         string
	DBName         string
	DBUser         string
	DBPassword     string
	TracingEnabled bool
	// PingMaxElapsed bounds the startup ping retries; zero means a single ping.
	PingMaxElapsed time.Duration
}

// ConnString builds the postgres URL used by both pgx and the migrations driver.
func ConnString(host, port, name, user, password string) string {
	if user == "" {
		user = "postgres"
	}
	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(host, port),
		Path:     "/" + name,
		RawQuery: "sslmode=disable",
	}
	if password != "" {
		u.User = url.UserPassword(user, password)
	} else {
		u.User = url.User(user)
	}
	return u.String()
}

func NewDBPool(ctx context.Context, params NewDBPoolParams) (*pgxpool.Pool, error) {
	connString := ConnString(params.DBHost, params.DBPort, params.DBName, params.DBUser, params.DBPassword)
	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}

	if params.TracingEnabled {
		poolConfig.ConnConfig.Tracer = otelpgx.NewTracer()
	}

	db, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := PingWithRetry(ctx, db.Ping, params.PingMaxElapsed); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return db, nil
}

// PingWithRetry calls ping with exponential backoff until it succeeds,
// ctx is done, or maxElapsed passes.
func PingWithRetry(ctx context.Context, ping func(context.Context) error, maxElapsed time.Duration) error {
	if maxElapsed <= 0 {
		return ping(ctx)
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 200 * time.Millisecond
	expBackoff.MaxElapsedTime = maxElapsed

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		if err := ping(ctx); err != nil {
			log.Warnf("db ping attempt %d failed: %s", attempt, err)
			return err
		}
		return nil
	}, backoff.WithContext(expBackoff, ctx))
}
