package resources

import (
	"context"
	"strings"
	"sync"
)

// MemoryResourceIO serves files from an in-memory map. It backs embedded
// asset blobs and keeps tests off the real filesystem.
type MemoryResourceIO struct {
	mu    sync.RWMutex
	files map[string][]byte
}

func NewMemoryResourceIO() *MemoryResourceIO {
	return &MemoryResourceIO{files: make(map[string][]byte)}
}

// AddFile registers the file's contents under a slash-separated path.
// Directories exist implicitly for every path prefix.
func (m *MemoryResourceIO) AddFile(path string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[normalizeMemPath(path)] = data
}

func (m *MemoryResourceIO) RemoveFile(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, normalizeMemPath(path))
}

func normalizeMemPath(path string) string {
	return strings.Trim(path, "/")
}

func (m *MemoryResourceIO) Exists(ctx context.Context, path string) bool {
	return m.IsFile(ctx, path) || m.IsDir(ctx, path)
}

func (m *MemoryResourceIO) IsFile(ctx context.Context, path string) bool {
	if ctx.Err() != nil {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[normalizeMemPath(path)]
	return ok
}

func (m *MemoryResourceIO) IsDir(ctx context.Context, path string) bool {
	if ctx.Err() != nil {
		return false
	}
	prefix := normalizeMemPath(path)
	if prefix == "" {
		return true
	}
	prefix += "/"
	m.mu.RLock()
	defer m.mu.RUnlock()
	for name := range m.files {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

func (m *MemoryResourceIO) LoadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &FileLoadError{Path: path, Err: err}
	}
	m.mu.RLock()
	data, ok := m.files[normalizeMemPath(path)]
	m.mu.RUnlock()
	if !ok {
		return nil, &FileLoadError{Path: path, Err: ErrFileNotFound}
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}
