package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/Alturino/storefront/internal/config"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
)

const (
	connMaxLifetime = 15 * time.Minute
	connMaxIdleTime = 5 * time.Minute
)

// PostgresURL renders dbConfig as a connection string.
func PostgresURL(dbConfig config.Database) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		dbConfig.Username,
		dbConfig.Password,
		dbConfig.Host,
		int(dbConfig.Port),
		dbConfig.Name,
	)
}

// NewDatabaseClient opens a traced pgx pool for the postgres record store and checks that the
// database answers.
func NewDatabaseClient(c context.Context, dbConfig config.Database) (*pgxpool.Pool, error) {
	c, span := otel.Tracer.Start(c, "main NewDatabaseClient")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "main NewDatabaseClient").
		Str("dbHost", dbConfig.Host).
		Str("dbName", dbConfig.Name).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "building pool config").Logger()
	logger.Info().Msg("building pool config")
	poolConfig, err := pgxpool.ParseConfig(PostgresURL(dbConfig))
	if err != nil {
		err = fmt.Errorf("failed parsing pool config with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	poolConfig.MaxConns = dbConfig.MaxConnections
	poolConfig.MinConns = dbConfig.MinConnections
	poolConfig.MaxConnLifetime = connMaxLifetime
	poolConfig.MaxConnIdleTime = connMaxIdleTime
	poolConfig.ConnConfig.Tracer = otelpgx.NewTracer(
		otelpgx.WithAttributes(semconv.DBSystemPostgreSQL),
	)
	logger.Info().
		Int32("maxConns", poolConfig.MaxConns).
		Int32("minConns", poolConfig.MinConns).
		Msg("built pool config")

	logger = logger.With().Str(log.KeyProcess, "opening pool").Logger()
	logger.Info().Msg("opening pool")
	pool, err := pgxpool.NewWithConfig(c, poolConfig)
	if err != nil {
		err = fmt.Errorf("failed opening pool with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	if err := pool.Ping(c); err != nil {
		pool.Close()
		err = fmt.Errorf("failed pinging database with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Info().Msg("opened pool")

	return pool, nil
}
