package seeker

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const dumpFileMode = 0o644

// DumpWriter persists raw fetched content for later diagnosis when a
// pattern fails to match. Writes are serialized by a single lock; dump
// events are rare enough that contention does not matter.
type DumpWriter struct {
	mu  sync.Mutex
	dir string
}

// NewDumpWriter creates a dump writer storing files under dir.
func NewDumpWriter(dir string) *DumpWriter {
	return &DumpWriter{dir: dir}
}

// Write stores content verbatim under a file named deterministically from
// the source id. An existing dump for the same source is overwritten.
func (w *DumpWriter) Write(sourceID, content string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create dump directory: %w", err)
	}

	path := filepath.Join(w.dir, fmt.Sprintf("dump (%s).log", sourceID))
	if err := os.WriteFile(path, []byte(content), dumpFileMode); err != nil {
		return fmt.Errorf("write dump file: %w", err)
	}
	return nil
}

// Path returns the dump file path for a source id.
func (w *DumpWriter) Path(sourceID string) string {
	return filepath.Join(w.dir, fmt.Sprintf("dump (%s).log", sourceID))
}
