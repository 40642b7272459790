package storage

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"cscrape/internal/scrape"
)

// ScrapeCache keeps scrape snapshots on disk, keyed by the target and the
// content of the parsed files. Safe for concurrent use.
type ScrapeCache struct {
	mu  sync.RWMutex
	dir string
}

// OpenScrapeCache creates the cache directory if needed.
func OpenScrapeCache(dir string) (*ScrapeCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create scrape cache: %w", err)
	}
	return &ScrapeCache{dir: dir}, nil
}

// Key hashes every layout setting of target with the names and contents of
// files, in the order they are parsed.
func Key(target *scrape.Target, files []string) (string, error) {
	h := sha256.New()
	fmt.Fprintf(h, "schema=%d\n%s", scrape.SnapshotSchema, target.Fingerprint())
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("hash source: %w", err)
		}
		fmt.Fprintf(h, "%s %d\n", filepath.Base(path), len(data))
		h.Write(data)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (c *ScrapeCache) pathFor(key string) string {
	return filepath.Join(c.dir, key[:2], key+".mp")
}

// Put stores snap under key. The file is replaced atomically.
func (c *ScrapeCache) Put(key string, snap *scrape.Snapshot) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if rmErr := os.Remove(f.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = rmErr
		}
	}()

	if err := EncodeSnapshot(f, snap); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get loads the snapshot stored under key. found is false on a miss.
func (c *ScrapeCache) Get(key string) (snap *scrape.Snapshot, found bool, err error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := os.ReadFile(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	snap, err = DecodeSnapshot(bytes.NewReader(data))
	if err != nil {
		return nil, false, err
	}
	if snap.Schema != scrape.SnapshotSchema {
		return nil, false, nil
	}
	return snap, true, nil
}

// Keys lists the stored keys, sorted.
func (c *ScrapeCache) Keys() ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	matches, err := filepath.Glob(filepath.Join(c.dir, "*", "*.mp"))
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(matches))
	for _, m := range matches {
		base := filepath.Base(m)
		keys = append(keys, base[:len(base)-len(".mp")])
	}
	sort.Strings(keys)
	return keys, nil
}

// Clear removes every stored snapshot.
func (c *ScrapeCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(c.dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// EncodeSnapshot writes snap as msgpack using the json field names.
func EncodeSnapshot(w io.Writer, snap *scrape.Snapshot) error {
	enc := msgpack.NewEncoder(w)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

// DecodeSnapshot reads a snapshot written by EncodeSnapshot.
func DecodeSnapshot(r io.Reader) (*scrape.Snapshot, error) {
	dec := msgpack.NewDecoder(r)
	dec.SetCustomStructTag("json")
	var snap scrape.Snapshot
	if err := dec.Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}
