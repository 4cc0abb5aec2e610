// Package jsonfile provides file-backed structured memory and audit logging.
// Both types serialize concurrent access internally, so simultaneous pipeline
// runs can share one instance.
package jsonfile

import (
	"context"
	"encoding/json"
	"os"
	"sync"

	"github.com/pkg/errors"
)

// StructuredMemory stores one JSON document on disk.
type StructuredMemory struct {
	path string
	mu   sync.Mutex
}

// NewStructuredMemory creates a structured memory backed by the given file.
// The file is created with an empty document if it does not exist.
func NewStructuredMemory(path string) (*StructuredMemory, error) {
	m := &StructuredMemory{path: path}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
			return nil, errors.Wrapf(err, "failed to initialize structured memory at %s", path)
		}
	}
	return m, nil
}

// Load reads the document. A missing or corrupt file yields an empty map,
// never an error: callers treat structured memory as best-effort.
func (m *StructuredMemory) Load(_ context.Context) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	content, err := os.ReadFile(m.path)
	if err != nil {
		return map[string]any{}, nil
	}

	data := map[string]any{}
	if err := json.Unmarshal(content, &data); err != nil {
		return map[string]any{}, nil
	}
	return data, nil
}

func (m *StructuredMemory) Save(_ context.Context, data map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	content, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal structured memory")
	}
	if err := os.WriteFile(m.path, content, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write structured memory to %s", m.path)
	}
	return nil
}
