// Package mapcache persists resolved flow mappings between sessions.
//
// The cache is a plain in-memory table over a delimited text file. It loads
// the whole file once at open, serves lookups from memory, and writes the
// file back synchronously on every Put; an entry is not considered durable
// until Put returns. TryGet never touches anything but memory; the cache
// knows nothing about the reference data store.
package mapcache

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/lcatools/flowlink/internal/flowmap"
)

// Cache is the persisted key→entry table of previously resolved mappings.
//
// Thread-safety: TryGet and Put are safe for concurrent use. Put serializes
// the file write process-wide behind the cache mutex, so a concurrent reload
// can never observe a partially written row.
type Cache struct {
	path string

	mu      sync.RWMutex
	entries map[flowmap.Key]flowmap.Entry
}

// Open loads the mapping file at path, creating an empty file when none
// exists so later Puts have somewhere to land. A malformed row fails the
// load with a ParseError naming the row number; a corrupted cache cannot
// be trusted.
func Open(path string) (*Cache, error) {
	c := &Cache{
		path:    path,
		entries: make(map[flowmap.Key]flowmap.Entry),
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			return nil, fmt.Errorf("create mapping file: %w", err)
		}
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read mapping file: %w", err)
	}

	if err := c.load(raw); err != nil {
		return nil, fmt.Errorf("load mapping file %s: %w", path, err)
	}
	return c, nil
}

func (c *Cache) load(raw []byte) error {
	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1 // column count is checked by DecodeRow

	row := 0
	for {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return &flowmap.ParseError{Row: row + 1, Err: err}
		}
		row++
		entry, err := flowmap.DecodeRow(record, row)
		if err != nil {
			return err
		}
		// A repeated key means the file was produced by an older writer
		// that appended instead of rewriting; the later row wins, which
		// matches Put's last-write semantics.
		c.entries[entry.From.Key()] = entry
	}
}

// TryGet returns the cached entry for a key. Pure in-memory lookup.
func (c *Cache) TryGet(key flowmap.Key) (flowmap.Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	return entry, ok
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Entries returns every cached entry, ordered by key. The slice is a copy.
func (c *Cache) Entries() []flowmap.Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sortedLocked()
}

// Put stores the entry under key and synchronously rewrites the backing
// file. The entry is durable once Put returns. Putting the same key again
// overwrites (last write wins).
func (c *Cache) Put(key flowmap.Key, entry flowmap.Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	previous, existed := c.entries[key]
	c.entries[key] = entry

	if err := c.flushLocked(); err != nil {
		// Keep memory and disk consistent: roll the table back.
		if existed {
			c.entries[key] = previous
		} else {
			delete(c.entries, key)
		}
		return fmt.Errorf("persist mapping entry: %w", err)
	}
	return nil
}

// flushLocked writes every entry to a temp file and renames it over the
// mapping file. Rows are ordered by key so the file is deterministic for a
// given table. Callers must hold the write lock.
func (c *Cache) flushLocked() error {
	tmp, err := os.CreateTemp(filepath.Dir(c.path), filepath.Base(c.path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	writer := csv.NewWriter(tmp)
	for _, entry := range c.sortedLocked() {
		if err := writer.Write(flowmap.EncodeRow(entry)); err != nil {
			tmp.Close()
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), c.path)
}

func (c *Cache) sortedLocked() []flowmap.Entry {
	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, string(key))
	}
	sort.Strings(keys)

	entries := make([]flowmap.Entry, len(keys))
	for i, key := range keys {
		entries[i] = c.entries[flowmap.Key(key)]
	}
	return entries
}
