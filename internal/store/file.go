package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"

	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/metrics"
	"github.com/Alturino/storefront/internal/otel"
)

const backendFile = "file"

// FileStore keeps each collection in <dir>/<collection>.json and replaces it with write-then-rename.
type FileStore struct {
	dir   string
	perm  os.FileMode
	locks collectionLocks
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir, perm: 0o644}
}

func (s *FileStore) path(collection string) string {
	return filepath.Join(s.dir, collection+".json")
}

func (s *FileStore) Ensure(c context.Context, collection string) error {
	lock := s.locks.get(collection)
	lock.Lock()
	defer lock.Unlock()
	return s.ensure(c, collection)
}

func (s *FileStore) ensure(c context.Context, collection string) error {
	c, span := otel.Tracer.Start(c, "FileStore ensure")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "FileStore ensure").
		Str(log.KeyCollection, collection).
		Logger()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		err = fmt.Errorf("failed creating store directory with error=%w", err)
		inErrors.HandleError(err, span)
		return err
	}

	_, err := os.Stat(s.path(collection))
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		err = fmt.Errorf("failed checking collection=%s with error=%w", collection, err)
		inErrors.HandleError(err, span)
		return err
	}

	logger.Info().Msg("creating empty collection")
	if err := renameio.WriteFile(s.path(collection), emptyDocument, s.perm); err != nil {
		err = fmt.Errorf("failed creating collection=%s with error=%w", collection, err)
		inErrors.HandleError(err, span)
		return err
	}
	logger.Info().Msg("created empty collection")

	return nil
}

func (s *FileStore) Load(c context.Context, collection string) ([]byte, error) {
	if err := s.Ensure(c, collection); err != nil {
		return nil, err
	}

	lock := s.locks.get(collection)
	lock.RLock()
	defer lock.RUnlock()

	document, err := os.ReadFile(s.path(collection))
	if err != nil {
		return nil, fmt.Errorf("failed reading collection=%s with error=%w", collection, err)
	}
	return document, nil
}

func (s *FileStore) Replace(c context.Context, collection string, document []byte) error {
	lock := s.locks.get(collection)
	lock.Lock()
	defer lock.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed creating store directory with error=%w", err)
	}
	return s.write(c, collection, document)
}

func (s *FileStore) Update(c context.Context, collection string, fn UpdateFunc) error {
	lock := s.locks.get(collection)
	lock.Lock()
	defer lock.Unlock()

	if err := s.ensure(c, collection); err != nil {
		return err
	}

	document, err := os.ReadFile(s.path(collection))
	if err != nil {
		return fmt.Errorf("failed reading collection=%s with error=%w", collection, err)
	}

	updated, err := fn(document)
	if err != nil {
		return err
	}
	return s.write(c, collection, updated)
}

func (s *FileStore) write(c context.Context, collection string, document []byte) error {
	start := time.Now()
	defer func() {
		metrics.StoreWrites.WithLabelValues(backendFile, collection).Observe(time.Since(start).Seconds())
	}()

	if err := renameio.WriteFile(s.path(collection), document, s.perm); err != nil {
		return fmt.Errorf("failed writing collection=%s with error=%w", collection, err)
	}
	zerolog.Ctx(c).Trace().
		Str(log.KeyCollection, collection).
		Int(log.KeyDocumentSize, len(document)).
		Msg("wrote collection")
	return nil
}

func (s *FileStore) Close() error {
	return nil
}
