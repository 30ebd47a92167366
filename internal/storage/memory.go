package storage

import (
	"bytes"
	"context"
	"io"
	"sync"
)

// Object is a stored blob held by MemoryStorage.
type Object struct {
	Data        []byte
	ContentType string
}

// MemoryStorage is an in-process FileStorage. Errors can be injected per
// operation to exercise best-effort callers.
type MemoryStorage struct {
	mu        sync.RWMutex
	baseURL   string
	objects   map[string]Object
	UploadErr error
	RemoveErr error
	removed   []string
}

// NewMemoryStorage returns an empty store whose public URLs start at baseURL.
func NewMemoryStorage(baseURL string) *MemoryStorage {
	return &MemoryStorage{baseURL: baseURL, objects: make(map[string]Object)}
}

func objectPath(bucket, key string) string {
	return bucket + "/" + key
}

func (m *MemoryStorage) Upload(ctx context.Context, bucket, key string, body io.Reader, contentType string) error {
	if key == "" {
		return ErrEmptyKey
	}
	m.mu.RLock()
	injected := m.UploadErr
	m.mu.RUnlock()
	if injected != nil {
		return injected
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[objectPath(bucket, key)] = Object{Data: buf.Bytes(), ContentType: contentType}
	return nil
}

func (m *MemoryStorage) Remove(ctx context.Context, bucket string, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RemoveErr != nil {
		return m.RemoveErr
	}
	for _, k := range keys {
		delete(m.objects, objectPath(bucket, k))
		m.removed = append(m.removed, objectPath(bucket, k))
	}
	return nil
}

func (m *MemoryStorage) PublicURL(bucket, key string) string {
	return joinURL(m.baseURL, bucket, key)
}

// Get returns the object stored under bucket/key.
func (m *MemoryStorage) Get(bucket, key string) (Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[objectPath(bucket, key)]
	return obj, ok
}

// Removed lists every bucket/key passed to Remove, in call order.
func (m *MemoryStorage) Removed() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.removed))
	copy(out, m.removed)
	return out
}

// Fail sets the injected upload and remove errors.
func (m *MemoryStorage) Fail(upload, remove error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UploadErr = upload
	m.RemoveErr = remove
}
