// Package cache provides the response cache sitting between source adapters
// and the collection orchestrator. Entries are keyed by source tag, current
// date and a stable hash of the query parameters, so the cache is day-aligned
// by default on top of the hour-based TTL.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrMiss is returned by Get when no live entry exists for the key.
var ErrMiss = fmt.Errorf("cache miss")

// Stats summarizes the cache state.
type Stats struct {
	Enabled bool  `json:"enabled"`
	Entries int   `json:"entries"`
	Bytes   int64 `json:"bytes"`
}

// Cache is the interface adapters receive. Two implementations exist: the
// disk-backed cache and the noop cache used when caching is disabled.
type Cache interface {
	Get(source string, params map[string]interface{}) (json.RawMessage, error)
	Set(source string, params map[string]interface{}, data interface{}) bool
	Clear(source string) int
	Stats() Stats
}

// entry is the on-disk JSON blob, one file per entry.
type entry struct {
	Source   string                 `json:"source"`
	Params   map[string]interface{} `json:"query_params"`
	CachedAt time.Time              `json:"cached_at"`
	Data     json.RawMessage        `json:"data"`
}

// DiskCache stores one JSON file per entry under a directory. Writes go
// through a temp file and rename so a failed writer never leaves a readable
// partial file.
type DiskCache struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

// NewDiskCache creates the cache directory if needed. ttlHours <= 0 selects
// the 24 hour default.
func NewDiskCache(dir string, ttlHours int) (*DiskCache, error) {
	if ttlHours <= 0 {
		ttlHours = 24
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir %s: %w", dir, err)
	}
	return &DiskCache{dir: dir, ttl: time.Duration(ttlHours) * time.Hour, now: time.Now}, nil
}

// SetClock overrides the clock, for TTL tests.
func (c *DiskCache) SetClock(now func() time.Time) { c.now = now }

// paramFingerprint produces a stable hash over params regardless of map
// iteration order.
func paramFingerprint(params map[string]interface{}) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%v;", k, params[k])
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// filePath builds `<source>_<yyyy-mm-dd>_<hash[:12]>.json`.
func (c *DiskCache) filePath(source string, params map[string]interface{}) string {
	name := fmt.Sprintf("%s_%s_%s.json",
		source, c.now().Format("2006-01-02"), paramFingerprint(params)[:12])
	return filepath.Join(c.dir, name)
}

// Get returns the cached payload or ErrMiss. Expired entries are deleted on
// read.
func (c *DiskCache) Get(source string, params map[string]interface{}) (json.RawMessage, error) {
	path := c.filePath(source, params)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, ErrMiss
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		// Corrupt entry: remove and treat as a miss.
		os.Remove(path)
		return nil, ErrMiss
	}

	if c.now().Sub(e.CachedAt) > c.ttl {
		os.Remove(path)
		return nil, ErrMiss
	}
	return e.Data, nil
}

// Set writes an entry atomically. Returns false on any marshalling or disk
// error; a failed write never leaves a partial file behind.
func (c *DiskCache) Set(source string, params map[string]interface{}, data interface{}) bool {
	payload, err := json.Marshal(data)
	if err != nil {
		return false
	}
	blob, err := json.Marshal(entry{
		Source:   source,
		Params:   params,
		CachedAt: c.now(),
		Data:     payload,
	})
	if err != nil {
		return false
	}

	path := c.filePath(source, params)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, blob, 0644); err != nil {
		return false
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return false
	}
	return true
}

// Clear removes entries for one source, or all entries when source is empty.
// Returns the number of files removed.
func (c *DiskCache) Clear(source string) int {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0
	}
	count := 0
	for _, de := range entries {
		name := de.Name()
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		if source != "" && !strings.HasPrefix(name, source+"_") {
			continue
		}
		if os.Remove(filepath.Join(c.dir, name)) == nil {
			count++
		}
	}
	return count
}

// Stats reports entry count and total size on disk.
func (c *DiskCache) Stats() Stats {
	s := Stats{Enabled: true}
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return s
	}
	for _, de := range entries {
		if !strings.HasSuffix(de.Name(), ".json") {
			continue
		}
		s.Entries++
		if info, err := de.Info(); err == nil {
			s.Bytes += info.Size()
		}
	}
	return s
}

// NoopCache is used when caching is disabled: every read misses and every
// write is dropped.
type NoopCache struct{}

func (NoopCache) Get(string, map[string]interface{}) (json.RawMessage, error) { return nil, ErrMiss }
func (NoopCache) Set(string, map[string]interface{}, interface{}) bool        { return false }
func (NoopCache) Clear(string) int                                            { return 0 }
func (NoopCache) Stats() Stats                                                { return Stats{Enabled: false} }
