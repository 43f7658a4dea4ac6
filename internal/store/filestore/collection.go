package filestore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// collection is one JSON array file. Every read-modify-write cycle holds mu,
// so writers in this process are serialized and never lose each other's updates.
type collection[T any] struct {
	mu   sync.Mutex
	path string
	log  *zap.Logger
}

func newCollection[T any](path string, log *zap.Logger) (*collection[T], error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := writeFileAtomic(path, []byte("[]\n"), 0o644); err != nil {
			return nil, fmt.Errorf("init %s: %w", path, err)
		}
	} else if err != nil {
		return nil, err
	}
	return &collection[T]{path: path, log: log}, nil
}

// load never fails: a missing or corrupt file reads as an empty collection.
func (c *collection[T]) load() []T {
	data, err := os.ReadFile(c.path)
	if err != nil {
		c.log.Warn("read collection failed, treating as empty",
			zap.String("path", c.path), zap.Error(err))
		return nil
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		c.log.Warn("collection is not a valid JSON array, treating as empty",
			zap.String("path", c.path), zap.Error(err))
		return nil
	}
	return items
}

func (c *collection[T]) save(items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", c.path, err)
	}
	data = append(data, '\n')
	if err := writeFileAtomic(c.path, data, 0o644); err != nil {
		c.log.Error("write collection failed", zap.String("path", c.path), zap.Error(err))
		return fmt.Errorf("write %s: %w", c.path, err)
	}
	return nil
}

func (c *collection[T]) all() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load()
}

func (c *collection[T]) find(match func(*T) bool) (*T, bool) {
	for _, item := range c.all() {
		if match(&item) {
			return &item, true
		}
	}
	return nil, false
}

// mutate loads the whole file, hands it to fn and rewrites the file with
// fn's result. Nothing is written when fn returns an error.
func (c *collection[T]) mutate(fn func(items []T) ([]T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	next, err := fn(c.load())
	if err != nil {
		return err
	}
	return c.save(next)
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return nil
}
