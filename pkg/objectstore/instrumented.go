package objectstore

import (
	"context"
	"io"
	"time"

	"github.com/vexsearch/sysdb/internal/metrics"
)

// InstrumentedStore wraps a Store with Prometheus metrics.
type InstrumentedStore struct {
	inner Store
}

// NewInstrumentedStore creates a new instrumented store wrapper.
func NewInstrumentedStore(inner Store) *InstrumentedStore {
	return &InstrumentedStore{inner: inner}
}

// Get retrieves an object from the store.
func (s *InstrumentedStore) Get(ctx context.Context, key string) (io.ReadCloser, *ObjectInfo, error) {
	start := time.Now()
	reader, info, err := s.inner.Get(ctx, key)
	metrics.ObserveObjectStoreOp("get", time.Since(start).Seconds(), err)
	return reader, info, err
}

// Head retrieves metadata for an object.
func (s *InstrumentedStore) Head(ctx context.Context, key string) (*ObjectInfo, error) {
	start := time.Now()
	info, err := s.inner.Head(ctx, key)
	metrics.ObserveObjectStoreOp("head", time.Since(start).Seconds(), err)
	return info, err
}
