package storage

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// Memory is an in-process Client, used by tests and by local runs without a bucket.
type Memory struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{objects: map[string][]byte{}}
}

func (m *Memory) SaveBytes(ctx context.Context, bucketName string, objectName string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[bucketName+"/"+objectName] = slices.Clone(data)
	return nil
}

func (m *Memory) ReadBytes(ctx context.Context, bucketName string, objectName string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[bucketName+"/"+objectName]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrObjectNotFound, bucketName, objectName)
	}
	return slices.Clone(data), nil
}

// Objects returns the stored object keys as "bucket/object", sorted.
func (m *Memory) Objects() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
