package testutil

import (
	"context"
	"errors"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/local/pdf2webp/internal/apperr"
)

// Object is a stored body and its content type.
type Object struct {
	Data        []byte
	ContentType string
}

// MemStore is an in-memory object store for converter and handler tests.
type MemStore struct {
	mu      sync.Mutex
	name    string
	objects map[string]Object

	// FailPut makes Put fail for matching keys.
	FailPut func(key string) bool
	// FailList makes ListKeys fail.
	FailList bool

	Downloads int
	Puts      []string
}

func NewMemStore(bucket string) *MemStore {
	return &MemStore{name: bucket, objects: map[string]Object{}}
}

func (m *MemStore) Bucket() string { return m.name }

// Seed stores data under key without recording a Put.
func (m *MemStore) Seed(key string, data []byte, contentType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = Object{Data: append([]byte(nil), data...), ContentType: contentType}
}

// Get returns the object under key.
func (m *MemStore) Get(key string) (Object, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.objects[key]
	return o, ok
}

// Keys returns all stored keys in sorted order.
func (m *MemStore) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.objects))
	for k := range m.objects {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (m *MemStore) DownloadToFile(_ context.Context, key, path string) error {
	m.mu.Lock()
	m.Downloads++
	o, ok := m.objects[key]
	m.mu.Unlock()
	if !ok {
		return &apperr.NotFoundError{Bucket: m.name, Key: key}
	}
	if err := os.WriteFile(path, o.Data, 0o600); err != nil {
		return &apperr.StorageError{Op: "download", Key: key, Err: err}
	}
	return nil
}

func (m *MemStore) Put(_ context.Context, key string, data []byte, contentType string) error {
	if m.FailPut != nil && m.FailPut(key) {
		return &apperr.StorageError{Op: "upload", Key: key, Err: errors.New("AccessDenied: Access Denied")}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	// callers may reuse data after Put returns
	m.objects[key] = Object{Data: append([]byte(nil), data...), ContentType: contentType}
	m.Puts = append(m.Puts, key)
	return nil
}

func (m *MemStore) ListKeys(_ context.Context, prefix string) ([]string, error) {
	if m.FailList {
		return nil, &apperr.StorageError{Op: "list", Key: prefix, Err: errors.New("list denied")}
	}
	var out []string
	for _, k := range m.Keys() {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out, nil
}
