package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"

	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/metrics"
	"github.com/Alturino/storefront/internal/otel"
)

const backendPostgres = "postgres"

//go:embed migrations/*.sql
var migrations embed.FS

const (
	queryEnsure = `INSERT INTO record_collections (name, document) VALUES ($1, '[]'::jsonb)
ON CONFLICT (name) DO NOTHING`
	queryLoad          = `SELECT document::text FROM record_collections WHERE name = $1`
	queryLoadForUpdate = `SELECT document::text FROM record_collections WHERE name = $1 FOR UPDATE`
	queryReplace       = `INSERT INTO record_collections (name, document, updated_at) VALUES ($1, $2::jsonb, now())
ON CONFLICT (name) DO UPDATE SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at`
)

// PostgresStore keeps each collection as one jsonb row of record_collections.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate brings the record_collections schema up to date.
func Migrate(c context.Context, pool *pgxpool.Pool) error {
	c, span := otel.Tracer.Start(c, "store Migrate")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "store Migrate").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "initializing migration source").Logger()
	logger.Info().Msg("initializing migration source")
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		err = fmt.Errorf("failed creating migration source with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("initialized migration source")

	logger = logger.With().Str(log.KeyProcess, "initializing db driver").Logger()
	logger.Info().Msg("initializing db driver")
	driver, err := postgres.WithInstance(stdlib.OpenDBFromPool(pool), &postgres.Config{})
	if err != nil {
		err = fmt.Errorf("failed creating postgres driver to do migration with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("initialized db driver")

	migration, err := migrate.NewWithInstance("iofs", source, backendPostgres, driver)
	if err != nil {
		err = fmt.Errorf("failed initializing migration with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	defer migration.Close()

	logger = logger.With().Str(log.KeyProcess, "migration up").Logger()
	logger.Info().Msg("migration up")
	err = migration.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		err = fmt.Errorf("failed migration up with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("successed migration up")

	return nil
}

func (s *PostgresStore) Ensure(c context.Context, collection string) error {
	c, span := otel.Tracer.Start(c, "PostgresStore Ensure")
	defer span.End()

	if _, err := s.pool.Exec(c, queryEnsure, collection); err != nil {
		err = fmt.Errorf("failed ensuring collection=%s with error=%w", collection, err)
		inErrors.HandleError(err, span)
		return err
	}
	return nil
}

func (s *PostgresStore) Load(c context.Context, collection string) ([]byte, error) {
	c, span := otel.Tracer.Start(c, "PostgresStore Load")
	defer span.End()

	if err := s.Ensure(c, collection); err != nil {
		return nil, err
	}

	var document string
	if err := s.pool.QueryRow(c, queryLoad, collection).Scan(&document); err != nil {
		err = fmt.Errorf("failed loading collection=%s with error=%w", collection, err)
		inErrors.HandleError(err, span)
		return nil, err
	}
	return []byte(document), nil
}

func (s *PostgresStore) Replace(c context.Context, collection string, document []byte) error {
	c, span := otel.Tracer.Start(c, "PostgresStore Replace")
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.StoreWrites.WithLabelValues(backendPostgres, collection).Observe(time.Since(start).Seconds())
	}()

	if _, err := s.pool.Exec(c, queryReplace, collection, string(document)); err != nil {
		err = fmt.Errorf("failed replacing collection=%s with error=%w", collection, err)
		inErrors.HandleError(err, span)
		return err
	}
	return nil
}

func (s *PostgresStore) Update(c context.Context, collection string, fn UpdateFunc) (err error) {
	c, span := otel.Tracer.Start(c, "PostgresStore Update")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "PostgresStore Update").
		Str(log.KeyCollection, collection).
		Logger()

	if err := s.Ensure(c, collection); err != nil {
		return err
	}

	logger = logger.With().Str(log.KeyProcess, "begin transaction").Logger()
	tx, err := s.pool.BeginTx(c, pgx.TxOptions{})
	if err != nil {
		err = fmt.Errorf("failed begin transaction with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(c); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			rbErr = fmt.Errorf("failed rollback transaction with error=%w", rbErr)
			inErrors.HandleError(rbErr, span)
			logger.Error().Err(rbErr).Msg(rbErr.Error())
		}
	}()

	var document string
	if err = tx.QueryRow(c, queryLoadForUpdate, collection).Scan(&document); err != nil {
		err = fmt.Errorf("failed locking collection=%s with error=%w", collection, err)
		inErrors.HandleError(err, span)
		return err
	}

	updated, err := fn([]byte(document))
	if err != nil {
		return err
	}

	start := time.Now()
	if _, err = tx.Exec(c, queryReplace, collection, string(updated)); err != nil {
		err = fmt.Errorf("failed replacing collection=%s with error=%w", collection, err)
		inErrors.HandleError(err, span)
		return err
	}
	if err = tx.Commit(c); err != nil {
		err = fmt.Errorf("failed commit transaction with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	metrics.StoreWrites.WithLabelValues(backendPostgres, collection).Observe(time.Since(start).Seconds())

	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
