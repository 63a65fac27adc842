// Package store persists named collections as whole JSON documents.
//
// Every backend replaces a document in one atomic step, so readers see either the previous or
// the next version of a collection, never a partial write. Update holds the collection's write
// lock across load, modify and replace.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/rs/zerolog"

	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
)

const (
	CollectionCarts    = "carts"
	CollectionInvoices = "invoices"
	CollectionProducts = "products"
	CollectionUsers    = "users"
)

// Collections lists every collection the application reads at startup.
var Collections = []string{CollectionCarts, CollectionInvoices, CollectionProducts, CollectionUsers}

var emptyDocument = []byte("[]\n")

type UpdateFunc func(document []byte) ([]byte, error)

type Store interface {
	// Ensure creates an empty collection when none exists yet.
	Ensure(c context.Context, collection string) error
	Load(c context.Context, collection string) ([]byte, error)
	Replace(c context.Context, collection string, document []byte) error
	// Update runs fn on the current document and persists its result without any other write
	// to the same collection in between. Nothing is written when fn fails.
	Update(c context.Context, collection string, fn UpdateFunc) error
	Close() error
}

// Collection is a typed view over one collection of a Store.
type Collection[T any] struct {
	store Store
	name  string
}

func NewCollection[T any](store Store, name string) Collection[T] {
	return Collection[T]{store: store, name: name}
}

func (col Collection[T]) Name() string {
	return col.name
}

func (col Collection[T]) Ensure(c context.Context) error {
	return col.store.Ensure(c, col.name)
}

func (col Collection[T]) LoadAll(c context.Context) ([]T, error) {
	c, span := otel.Tracer.Start(c, "Collection LoadAll")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Collection LoadAll").
		Str(log.KeyCollection, col.name).
		Logger()

	document, err := col.store.Load(c, col.name)
	if err != nil {
		err = fmt.Errorf("failed loading collection=%s with error=%w", col.name, err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}

	docs, err := decode[T](col.name, document)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Trace().Int(log.KeyDocumentSize, len(document)).Msg("loaded collection")

	return docs, nil
}

func (col Collection[T]) ReplaceAll(c context.Context, docs []T) error {
	c, span := otel.Tracer.Start(c, "Collection ReplaceAll")
	defer span.End()

	document, err := encode(docs)
	if err != nil {
		err = fmt.Errorf("failed encoding collection=%s with error=%w", col.name, err)
		inErrors.HandleError(err, span)
		return err
	}

	if err := col.store.Replace(c, col.name, document); err != nil {
		err = fmt.Errorf("failed replacing collection=%s with error=%w", col.name, err)
		inErrors.HandleError(err, span)
		zerolog.Ctx(c).Error().Err(err).Str(log.KeyCollection, col.name).Msg(err.Error())
		return err
	}
	return nil
}

// Update loads the collection, applies fn and writes the result back under the collection lock.
// Errors returned by fn are passed through unwrapped.
func (col Collection[T]) Update(c context.Context, fn func(docs []T) ([]T, error)) error {
	c, span := otel.Tracer.Start(c, "Collection Update")
	defer span.End()

	var fnErr error
	err := col.store.Update(c, col.name, func(document []byte) ([]byte, error) {
		docs, err := decode[T](col.name, document)
		if err != nil {
			return nil, err
		}
		docs, fnErr = fn(docs)
		if fnErr != nil {
			return nil, fnErr
		}
		return encode(docs)
	})
	if fnErr != nil {
		return fnErr
	}
	if err != nil {
		err = fmt.Errorf("failed updating collection=%s with error=%w", col.name, err)
		inErrors.HandleError(err, span)
		zerolog.Ctx(c).Error().Err(err).Str(log.KeyCollection, col.name).Msg(err.Error())
		return err
	}
	return nil
}

func decode[T any](collection string, document []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(document)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf(
			"failed decoding collection=%s with error=%w",
			collection,
			errors.Join(inErrors.ErrStoreCorrupt, errors.New("document is not a json array")),
		)
	}

	docs := []T{}
	if err := json.Unmarshal(trimmed, &docs); err != nil {
		return nil, fmt.Errorf(
			"failed decoding collection=%s with error=%w",
			collection,
			errors.Join(inErrors.ErrStoreCorrupt, err),
		)
	}
	// null and {} elements decode silently to the zero record
	for i := range docs {
		if reflect.ValueOf(&docs[i]).Elem().IsZero() {
			return nil, fmt.Errorf(
				"failed decoding collection=%s with error=%w",
				collection,
				errors.Join(inErrors.ErrStoreCorrupt, fmt.Errorf("empty record at index=%d", i)),
			)
		}
	}
	return docs, nil
}

func encode[T any](docs []T) ([]byte, error) {
	if docs == nil {
		docs = []T{}
	}
	document, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(document, '\n'), nil
}

// collectionLocks hands out one RWMutex per collection name.
type collectionLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.RWMutex
}

func (l *collectionLocks) get(collection string) *sync.RWMutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.locks == nil {
		l.locks = map[string]*sync.RWMutex{}
	}
	lock, ok := l.locks[collection]
	if !ok {
		lock = &sync.RWMutex{}
		l.locks[collection] = lock
	}
	return lock
}
