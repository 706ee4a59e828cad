package objectstore

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"sync"
	"time"
)

// MemoryStore is an in-process Store, used for tests and local tooling.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]*memoryObject
}

type memoryObject struct {
	data         []byte
	etag         string
	lastModified time.Time
	contentType  string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string]*memoryObject),
	}
}

// Put stores a copy of data under key, replacing any existing object.
func (s *MemoryStore) Put(key string, data []byte, contentType string) *ObjectInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := md5.Sum(data)
	obj := &memoryObject{
		data:         append([]byte(nil), data...),
		etag:         hex.EncodeToString(sum[:]),
		lastModified: time.Now(),
		contentType:  contentType,
	}
	s.objects[key] = obj
	return obj.info(key)
}

func (s *MemoryStore) Get(ctx context.Context, key string) (io.ReadCloser, *ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[key]
	if !ok {
		return nil, nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.data)), obj.info(key), nil
}

func (s *MemoryStore) Head(ctx context.Context, key string) (*ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[key]
	if !ok {
		return nil, ErrNotFound
	}
	return obj.info(key), nil
}

func (o *memoryObject) info(key string) *ObjectInfo {
	return &ObjectInfo{
		Key:          key,
		Size:         int64(len(o.data)),
		ETag:         o.etag,
		LastModified: o.lastModified,
		ContentType:  o.contentType,
	}
}
