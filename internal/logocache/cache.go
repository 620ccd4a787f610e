package logocache

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "hummingbird_logo_cache_lookups_total",
	Help: "Logo cache lookups by outcome.",
}, []string{"outcome"})

var (
	// ErrInvalidURL indicates a candidate logo URL that failed validation.
	ErrInvalidURL = errors.New("invalid logo url")
	// ErrInvalidKey indicates a cache key that is empty after normalization.
	ErrInvalidKey = errors.New("invalid cache key")
)

// DefaultKey holds the fallback logo used when no product-specific logo can
// be found.
const DefaultKey = "default"

// Entry is one cached logo URL.
type Entry struct {
	URL             string    `json:"url"`
	LastValidatedAt time.Time `json:"last_validated_at"`
}

// Cache is a durable key→URL store for product logos. The full mapping is
// held in memory and rewritten to disk on every update via a
// write-new-then-replace discipline, so an interrupted write never corrupts
// the existing store. Entries never expire automatically.
type Cache struct {
	mu      sync.Mutex
	path    string
	entries map[string]Entry
	logger  *log.Logger
}

// Open loads the cache file at path, creating an empty cache when the file
// does not exist. A corrupt file is logged and replaced by an empty cache on
// the next write rather than failing startup; the cache is an optimization,
// never a correctness dependency.
func Open(path string) (*Cache, error) {
	c := &Cache{
		path:    path,
		entries: make(map[string]Entry),
		logger:  log.New(log.Writer(), "[LOGOCACHE] ", log.LstdFlags),
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			c.logger.Printf("no cache file at %s, starting empty", path)
			return c, nil
		}
		return nil, fmt.Errorf("reading logo cache: %w", err)
	}
	if err := json.Unmarshal(data, &c.entries); err != nil {
		c.logger.Printf("cache file %s is corrupt (%v), starting empty", path, err)
		c.entries = make(map[string]Entry)
		return c, nil
	}
	c.logger.Printf("loaded %d entries from %s", len(c.entries), path)
	return c, nil
}

// Normalize folds case, trims, and collapses internal whitespace so cosmetic
// variants of the same product name collide intentionally.
func Normalize(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// Get returns the cached URL for the normalized name.
func (c *Cache) Get(name string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[Normalize(name)]
	if !ok {
		cacheLookups.WithLabelValues("miss").Inc()
		return "", false
	}
	cacheLookups.WithLabelValues("hit").Inc()
	return e.URL, true
}

// Default returns the fallback logo URL, when one is cached.
func (c *Cache) Default() (string, bool) {
	return c.Get(DefaultKey)
}

// Put validates and stores a logo URL under the normalized name, persisting
// the store before returning. Concurrent puts for the same key resolve by
// last writer wins.
func (c *Cache) Put(name, rawURL string) error {
	if err := ValidateURL(rawURL); err != nil {
		return err
	}
	key := Normalize(name)
	if key == "" {
		return fmt.Errorf("%w: empty after normalization", ErrInvalidKey)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = Entry{URL: rawURL, LastValidatedAt: time.Now().UTC()}
	if err := c.persistLocked(); err != nil {
		return fmt.Errorf("persisting logo cache: %w", err)
	}
	return nil
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// persistLocked rewrites the cache file atomically. Callers hold c.mu.
func (c *Cache) persistLocked() error {
	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(c.path)
	tmp, err := os.CreateTemp(dir, ".logo_cache-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}

// ValidateURL checks that raw is a syntactically valid absolute http(s) URL.
func ValidateURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %s", ErrInvalidURL, raw)
	}
	return nil
}
