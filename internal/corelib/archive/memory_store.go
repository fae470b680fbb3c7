package archive

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

type MemoryStore struct {
	mu    sync.RWMutex
	files map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{files: make(map[string][]byte)}
}

func (s *MemoryStore) Put(_ context.Context, version, p string, content []byte) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	version, p, err := validate(version, p)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[objectKey(version, p)] = append([]byte(nil), content...)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, version, p string) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	version, p, err := validate(version, p)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.files[objectKey(version, p)]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), content...), nil
}

func (s *MemoryStore) List(_ context.Context, version string) ([]string, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	version = strings.Trim(strings.TrimSpace(version), "/")
	if version == "" {
		return nil, fmt.Errorf("version is required")
	}
	prefix := version + "/"
	s.mu.RLock()
	defer s.mu.RUnlock()
	var paths []string
	for key := range s.files {
		if strings.HasPrefix(key, prefix) {
			paths = append(paths, strings.TrimPrefix(key, prefix))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
