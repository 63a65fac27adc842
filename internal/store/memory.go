package store

import (
	"context"
	"sync"
	"time"

	"github.com/Alturino/storefront/internal/metrics"
)

const backendMemory = "memory"

// MemoryStore is a process-local Store. Documents are copied in and out.
type MemoryStore struct {
	mu        sync.RWMutex
	documents map[string][]byte
	locks     collectionLocks
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{documents: map[string][]byte{}}
}

func (s *MemoryStore) Ensure(c context.Context, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[collection]; !ok {
		s.documents[collection] = clone(emptyDocument)
	}
	return nil
}

func (s *MemoryStore) Load(c context.Context, collection string) ([]byte, error) {
	if err := s.Ensure(c, collection); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.documents[collection]), nil
}

func (s *MemoryStore) Replace(c context.Context, collection string, document []byte) error {
	lock := s.locks.get(collection)
	lock.Lock()
	defer lock.Unlock()
	return s.write(c, collection, document)
}

func (s *MemoryStore) Update(c context.Context, collection string, fn UpdateFunc) error {
	lock := s.locks.get(collection)
	lock.Lock()
	defer lock.Unlock()

	document, err := s.Load(c, collection)
	if err != nil {
		return err
	}
	updated, err := fn(document)
	if err != nil {
		return err
	}
	return s.write(c, collection, updated)
}

func (s *MemoryStore) write(c context.Context, collection string, document []byte) error {
	start := time.Now()
	s.mu.Lock()
	s.documents[collection] = clone(document)
	s.mu.Unlock()
	metrics.StoreWrites.WithLabelValues(backendMemory, collection).Observe(time.Since(start).Seconds())
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
