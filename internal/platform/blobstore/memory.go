package blobstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

type memoryObject struct {
	contentType string
	data        []byte
}

// MemoryStore keeps blobs in process. FailOn lets tests make specific
// uploads fail.
type MemoryStore struct {
	mu      sync.Mutex
	baseURL string
	objects map[string]memoryObject
	FailOn  func(name string) error
}

func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{baseURL: baseURL, objects: make(map[string]memoryObject)}
}

func (m *MemoryStore) Put(ctx context.Context, name, contentType string, data []byte) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	if len(data) == 0 {
		return Object{}, ErrEmptyObject
	}
	if m.FailOn != nil {
		if err := m.FailOn(name); err != nil {
			return Object{}, err
		}
	}
	key := uuid.NewString() + "/" + name
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memoryObject{contentType: contentType, data: append([]byte(nil), data...)}
	return Object{Key: key, URL: fmt.Sprintf("%s/%s", m.baseURL, key)}, nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// Len reports how many blobs are stored.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
