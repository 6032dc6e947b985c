package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/stepper/pkg/domain"
)

// Cache implements ports.TraceCache using the local filesystem.
// It stores each trace as a JSON file in a configured directory.
type Cache struct {
	BasePath string
}

// New creates a new Cache with the given base path.
// If basePath is empty, it defaults to ".stepper/traces".
func New(basePath string) *Cache {
	if basePath == "" {
		basePath = filepath.Join(".stepper", "traces")
	}
	return &Cache{BasePath: basePath}
}

func (c *Cache) path(key string) string {
	// Keys look like "<algorithm>:<hash>"; ':' is not portable in file names.
	name := strings.NewReplacer(":", "_", "/", "_", "\\", "_").Replace(key)
	return filepath.Join(c.BasePath, name+".json")
}

// Put persists the trace to a JSON file atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it to the destination.
func (c *Cache) Put(ctx context.Context, key string, t domain.Trace) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}
	if t.IsZero() {
		return domain.ErrEmptyTrace
	}

	if err := os.MkdirAll(c.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure cache directory: %w", err)
	}

	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal trace: %w", err)
	}

	// Same directory keeps the rename on one filesystem.
	tmpFile, err := os.CreateTemp(c.BasePath, "tmp-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	destPath := c.path(key)
	if _, err := os.Stat(destPath); err == nil {
		// os.Rename does not overwrite on Windows.
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing trace file for overwrite: %w", err)
		}
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Get reads a trace from its JSON file.
func (c *Cache) Get(ctx context.Context, key string) (domain.Trace, error) {
	if key == "" {
		return domain.Trace{}, fmt.Errorf("key cannot be empty")
	}

	data, err := os.ReadFile(c.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Trace{}, domain.ErrCacheMiss
		}
		return domain.Trace{}, fmt.Errorf("failed to read trace file: %w", err)
	}

	var t domain.Trace
	if err := json.Unmarshal(data, &t); err != nil {
		return domain.Trace{}, fmt.Errorf("failed to unmarshal trace: %w", err)
	}
	return t, nil
}

// Delete removes the trace file.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}

	err := os.Remove(c.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete trace file: %w", err)
	}
	return nil
}

// Keys returns the file names of all cached traces, without extension.
func (c *Cache) Keys(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(c.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list traces: %w", err)
	}

	var keys []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, "tmp-") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, ".json"))
	}
	return keys, nil
}
