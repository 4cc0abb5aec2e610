package jsonfile

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/einlabs/ein/store"
)

// AuditLog appends entries to a JSONL file, one entry per line.
type AuditLog struct {
	path string
	mu   sync.Mutex
}

func NewAuditLog(path string) *AuditLog {
	return &AuditLog{path: path}
}

func (l *AuditLog) Append(_ context.Context, entry *store.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedTs == 0 {
		entry.CreatedTs = time.Now().Unix()
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, "failed to marshal audit entry")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, "failed to open audit log %s", l.path)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return errors.Wrap(err, "failed to append audit entry")
	}
	return nil
}

func (l *AuditLog) List(_ context.Context) ([]*store.AuditEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []*store.AuditEntry{}, nil
		}
		return nil, errors.Wrapf(err, "failed to open audit log %s", l.path)
	}
	defer f.Close()

	entries := []*store.AuditEntry{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry store.AuditEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			// Skip torn lines rather than failing the whole read.
			continue
		}
		entries = append(entries, &entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to scan audit log")
	}
	return entries, nil
}
